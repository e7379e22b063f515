package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/model"
	"github.com/the-manager-app/manager_api/shared"
)

// RewardService turns client watch reports into stored progress and, at the
// completion threshold, a one-time wallet credit. Progress only ever moves
// forward: a report below the stored high-water mark changes nothing, and a
// report after completion is answered from the stored state.
type RewardService struct {
	context.DefaultService

	sqlSvc    *PostgresService
	walletSvc *WalletService
}

const REWARD_SVC = "reward_svc"

func (svc RewardService) Id() string {
	return REWARD_SVC
}

func (svc *RewardService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *RewardService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.walletSvc = svc.Service(WALLET_SVC).(*WalletService)
	return nil
}

// ReportWatch ingests a single progress report for (user, video).
//
// Ordering inside the transaction matters: the monotonic update uses a
// guarded UPDATE so stale reports lose the race harmlessly, the completion
// flip is guarded on completed = false, and the wallet credit sits behind
// the unique WalletCreditEvent row. Any interleaving of concurrent reports
// yields the same final state.
func (svc *RewardService) ReportWatch(userID, videoID string, watchedSeconds float64) (*dto.ReportWatchResponse, error) {
	if watchedSeconds < 0 {
		return nil, shared.NewBadRequestError(nil, "watched_seconds must be non-negative")
	}

	video, err := svc.sqlSvc.GetVideo(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Video not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load video")
	}
	if !video.IsActive {
		return nil, shared.NewNotFoundError(nil, "Video not found")
	}

	clamped := ClampWatched(watchedSeconds, video.DurationSeconds)
	recordWatchReport(clamped < watchedSeconds)

	var resp *dto.ReportWatchResponse
	err = svc.sqlSvc.Db().Transaction(func(tx *gorm.DB) error {
		progress, err := svc.ensureProgressRow(tx, userID, videoID)
		if err != nil {
			return err
		}

		if progress.Completed {
			resp, err = svc.completedResponse(tx, userID, progress)
			return err
		}

		// Guarded monotonic update. RowsAffected 0 means a higher report
		// already landed, which is fine; we re-read either way.
		now := time.Now()
		res := tx.Model(&model.WatchProgress{}).
			Where("user_id = ? AND video_id = ? AND highest_watched_seconds < ?", userID, videoID, clamped).
			Updates(map[string]interface{}{
				"highest_watched_seconds": clamped,
				"last_watched_at":         now,
				"updated_at":              now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			res := tx.Model(&model.WatchProgress{}).
				Where("user_id = ? AND video_id = ?", userID, videoID).
				Updates(map[string]interface{}{"last_watched_at": now, "updated_at": now})
			if res.Error != nil {
				return res.Error
			}
		}

		if err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).First(progress).Error; err != nil {
			return err
		}

		if progress.Completed {
			resp, err = svc.completedResponse(tx, userID, progress)
			return err
		}

		if !IsComplete(progress.HighestWatchedSeconds, video.DurationSeconds) {
			user, err := svc.loadUser(tx, userID)
			if err != nil {
				return err
			}
			resp = &dto.ReportWatchResponse{
				HighestWatchedSeconds: progress.HighestWatchedSeconds,
				Completed:             false,
				CoinsAwarded:          0,
				WalletBalance:         user.CoinsBalance,
			}
			return nil
		}

		return svc.complete(tx, userID, video, progress, &resp)
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(err, "Failed to record watch progress")
	}

	return resp, nil
}

// ensureProgressRow creates the zero-progress row if this is the first report
// for the pair, then loads it. The insert races are absorbed by the unique
// (user_id, video_id) index.
func (svc *RewardService) ensureProgressRow(tx *gorm.DB, userID, videoID string) (*model.WatchProgress, error) {
	id, _ := uuid.NewV7()
	now := time.Now()
	row := &model.WatchProgress{
		ID:            id.String(),
		UserID:        userID,
		VideoID:       videoID,
		LastWatchedAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	var progress model.WatchProgress
	if err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// complete flips the record to completed and posts the one-time credit. The
// completed = false guard means only one call performs the transition; any
// loser still reports the credited state truthfully.
func (svc *RewardService) complete(tx *gorm.DB, userID string, video *model.Video, progress *model.WatchProgress, resp **dto.ReportWatchResponse) error {
	now := time.Now()
	res := tx.Model(&model.WatchProgress{}).
		Where("user_id = ? AND video_id = ? AND completed = ?", userID, video.ID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}

	amount := TotalCoins(video.DurationSeconds, video.CoinsPerMinute)
	description := fmt.Sprintf("Watched '%s' (%d min)", video.Title, MinutesLabel(float64(video.DurationSeconds)))

	credited, paidNow, err := svc.walletSvc.CreditVideoReward(tx, userID, video.ID, amount, description)
	if err != nil {
		return err
	}
	recordCompletion(credited, !paidNow)

	awarded := int64(0)
	if paidNow {
		awarded = credited
		log.WithFields(log.Fields{
			"user_id":  userID,
			"video_id": video.ID,
			"coins":    credited,
		}).Info("Video completed, reward credited")
	}

	user, err := svc.loadUser(tx, userID)
	if err != nil {
		return err
	}

	*resp = &dto.ReportWatchResponse{
		HighestWatchedSeconds: progress.HighestWatchedSeconds,
		Completed:             true,
		CoinsAwarded:          awarded,
		WalletBalance:         user.CoinsBalance,
	}
	return nil
}

// completedResponse answers a report against an already-completed record.
// The stored state is authoritative and no coins move.
func (svc *RewardService) completedResponse(tx *gorm.DB, userID string, progress *model.WatchProgress) (*dto.ReportWatchResponse, error) {
	user, err := svc.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ReportWatchResponse{
		HighestWatchedSeconds: progress.HighestWatchedSeconds,
		Completed:             true,
		CoinsAwarded:          0,
		WalletBalance:         user.CoinsBalance,
	}, nil
}

func (svc *RewardService) loadUser(tx *gorm.DB, userID string) (*model.User, error) {
	var user model.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetProgress returns the stored watch state for one video, zero-valued if
// the user has never reported on it.
func (svc *RewardService) GetProgress(userID, videoID string) (*dto.VideoProgress, error) {
	progress, err := svc.sqlSvc.GetWatchProgress(userID, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.VideoProgress{}, nil
		}
		return nil, shared.NewInternalError(err, "Failed to load watch progress")
	}

	coinsEarned := int64(0)
	if progress.Completed {
		if event, err := svc.sqlSvc.GetCreditEvent(userID, videoID); err == nil {
			coinsEarned = event.Amount
		}
	}

	return &dto.VideoProgress{
		HighestWatchedSeconds: progress.HighestWatchedSeconds,
		CoinsEarned:           coinsEarned,
		Completed:             progress.Completed,
	}, nil
}
