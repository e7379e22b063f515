package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/model"
	"github.com/the-manager-app/manager_api/shared"
)

// VideoCatalogService serves the watchable video list and the admin CRUD
// behind it. Reads go through a short redis cache; writes invalidate it.
type VideoCatalogService struct {
	appContext.DefaultService

	sqlSvc   *PostgresService
	redisSvc *RedisService

	cacheTTL time.Duration
}

const VIDEO_CATALOG_SVC = "video_catalog_svc"

func (svc VideoCatalogService) Id() string {
	return VIDEO_CATALOG_SVC
}

func (svc *VideoCatalogService) Configure(ctx *appContext.Context) error {
	svc.cacheTTL = 30 * time.Second
	return svc.DefaultService.Configure(ctx)
}

func (svc *VideoCatalogService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func videoCacheKey(videoID string) string {
	return fmt.Sprintf("video:%s", videoID)
}

// GetVideo loads one active video, consulting the cache first. Inactive and
// missing videos are indistinguishable to clients.
func (svc *VideoCatalogService) GetVideo(videoID string) (*model.Video, error) {
	ctx := context.Background()

	var cached model.Video
	if err := svc.redisSvc.GetJSON(ctx, videoCacheKey(videoID), &cached); err == nil && cached.ID != "" {
		if !cached.IsActive {
			return nil, shared.NewNotFoundError(nil, "Video not found")
		}
		return &cached, nil
	}

	video, err := svc.sqlSvc.GetVideo(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Video not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load video")
	}

	if err := svc.redisSvc.Set(ctx, videoCacheKey(videoID), video, svc.cacheTTL); err != nil {
		log.WithError(err).Warn("Failed to cache video")
	}

	if !video.IsActive {
		return nil, shared.NewNotFoundError(nil, "Video not found")
	}
	return video, nil
}

// ListActiveVideos returns the catalog with the caller's progress embedded,
// newest first. Videos the caller never touched carry zero progress.
func (svc *VideoCatalogService) ListActiveVideos(userID string) (*dto.VideoCollectionResponse, error) {
	videos, err := svc.sqlSvc.GetActiveVideos()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list videos")
	}

	videoIDs := make([]string, len(videos))
	for i, v := range videos {
		videoIDs[i] = v.ID
	}

	progressByVideo := map[string]model.WatchProgress{}
	creditByVideo := map[string]int64{}
	if len(videoIDs) > 0 {
		records, err := svc.sqlSvc.GetWatchProgressForUser(userID, videoIDs)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load watch progress")
		}
		for _, r := range records {
			progressByVideo[r.VideoID] = r
		}

		events, err := svc.sqlSvc.GetCreditEventsForUser(userID, videoIDs)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to load credit history")
		}
		for _, e := range events {
			creditByVideo[e.VideoID] = e.Amount
		}
	}

	items := make([]dto.VideoWithProgressResponse, len(videos))
	for i, v := range videos {
		item := dto.VideoWithProgressResponse{
			VideoResponse: svc.toVideoResponse(&v),
		}
		if p, ok := progressByVideo[v.ID]; ok {
			item.Progress = dto.VideoProgress{
				HighestWatchedSeconds: p.HighestWatchedSeconds,
				Completed:             p.Completed,
			}
			if p.Completed {
				item.Progress.CoinsEarned = creditByVideo[v.ID]
			}
		}
		items[i] = item
	}

	return &dto.VideoCollectionResponse{
		Videos: items,
		Total:  len(items),
	}, nil
}

// GetVideoDetails is the client-facing single-video read.
func (svc *VideoCatalogService) GetVideoDetails(videoID string) (*dto.VideoResponse, error) {
	video, err := svc.GetVideo(videoID)
	if err != nil {
		return nil, err
	}
	resp := svc.toVideoResponse(video)
	return &resp, nil
}

func (svc *VideoCatalogService) toVideoResponse(v *model.Video) dto.VideoResponse {
	return dto.VideoResponse{
		ID:              v.ID,
		Title:           v.Title,
		SourceURL:       v.SourceURL,
		DurationSeconds: v.DurationSeconds,
		CoinsPerMinute:  v.CoinsPerMinute,
		TotalCoins:      TotalCoins(v.DurationSeconds, v.CoinsPerMinute),
		IsActive:        v.IsActive,
		CreatedAt:       v.CreatedAt,
	}
}

// ==================== ADMIN METHODS ====================

func (svc *VideoCatalogService) ListAllVideos() (*dto.AdminVideoCollectionResponse, error) {
	videos, err := svc.sqlSvc.GetAllVideos()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list videos")
	}

	items := make([]dto.VideoResponse, len(videos))
	for i, v := range videos {
		items[i] = svc.toVideoResponse(&v)
	}

	return &dto.AdminVideoCollectionResponse{
		Videos: items,
		Total:  len(items),
	}, nil
}

func (svc *VideoCatalogService) CreateVideo(req *dto.CreateVideoRequest) (*dto.VideoResponse, error) {
	if err := dto.ValidateStruct(req); err != nil {
		return nil, err
	}

	id, _ := uuid.NewV7()
	now := time.Now()
	video := &model.Video{
		ID:              id.String(),
		Title:           req.Title,
		SourceURL:       req.SourceURL,
		DurationSeconds: req.DurationSeconds,
		CoinsPerMinute:  req.CoinsPerMinute,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if video.CoinsPerMinute == 0 {
		video.CoinsPerMinute = 10
	}

	created, err := svc.sqlSvc.CreateVideo(video)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to create video")
	}

	log.WithFields(log.Fields{
		"video_id": created.ID,
		"title":    created.Title,
	}).Info("Video created")

	resp := svc.toVideoResponse(created)
	return &resp, nil
}

// UpdateVideo applies a partial update. Duration is frozen once any watch
// progress exists for the video, since stored completion states and credited
// amounts were derived from it.
func (svc *VideoCatalogService) UpdateVideo(videoID string, req *dto.UpdateVideoRequest) (*dto.VideoResponse, error) {
	if err := dto.ValidateStruct(req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.SourceURL != nil {
		updates["source_url"] = *req.SourceURL
	}
	if req.CoinsPerMinute != nil {
		updates["coins_per_minute"] = *req.CoinsPerMinute
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.DurationSeconds != nil {
		hasProgress, err := svc.sqlSvc.VideoHasProgress(videoID)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to check video progress")
		}
		if hasProgress {
			return nil, shared.NewConflictError(nil, "Cannot change duration of a video with watch history")
		}
		updates["duration_seconds"] = *req.DurationSeconds
	}

	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}
	updates["updated_at"] = time.Now()

	video, err := svc.sqlSvc.UpdateVideo(videoID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Video not found")
		}
		return nil, shared.NewInternalError(err, "Failed to update video")
	}

	svc.invalidate(videoID)

	resp := svc.toVideoResponse(video)
	return &resp, nil
}

// DeleteVideo removes a video outright. Videos with watch history cannot be
// deleted because wallet transactions reference them; deactivate instead.
func (svc *VideoCatalogService) DeleteVideo(videoID string) error {
	hasProgress, err := svc.sqlSvc.VideoHasProgress(videoID)
	if err != nil {
		return shared.NewInternalError(err, "Failed to check video progress")
	}
	if hasProgress {
		return shared.NewConflictError(nil, "Video has watch history, deactivate it instead")
	}

	if err := svc.sqlSvc.DeleteVideo(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.NewNotFoundError(err, "Video not found")
		}
		return shared.NewInternalError(err, "Failed to delete video")
	}

	svc.invalidate(videoID)

	log.WithField("video_id", videoID).Info("Video deleted")
	return nil
}

func (svc *VideoCatalogService) invalidate(videoID string) {
	if err := svc.redisSvc.Delete(context.Background(), videoCacheKey(videoID)); err != nil {
		log.WithError(err).Warn("Failed to invalidate video cache")
	}
}
