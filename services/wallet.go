package services

import (
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

// WalletService owns the coin ledger. Balances move only through atomic SQL
// increments, and video credits pass through the WalletCreditEvent gate so a
// (user, video) pair can never be paid twice no matter how many completion
// reports race.
type WalletService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const WALLET_SVC = "wallet_svc"

func (svc WalletService) Id() string {
	return WALLET_SVC
}

func (svc *WalletService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *WalletService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// CreditVideoReward posts the one-time reward for a completed video inside
// the caller's transaction. The insert-if-absent on WalletCreditEvent is the
// crediting gate: only the call that lands the row touches the balance.
// Returns the credited amount and whether this call was the one that paid.
func (svc *WalletService) CreditVideoReward(tx *gorm.DB, userID, videoID string, amount int64, description string) (int64, bool, error) {
	eventID, _ := uuid.NewV7()
	event := &model.WalletCreditEvent{
		ID:        eventID.String(),
		UserID:    userID,
		VideoID:   videoID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return 0, false, res.Error
	}

	if res.RowsAffected == 0 {
		// Another call already credited this pair. Not an error: report the
		// recorded amount and leave the balance alone.
		var existing model.WalletCreditEvent
		if err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).First(&existing).Error; err != nil {
			return 0, false, err
		}
		log.WithFields(log.Fields{
			"user_id":  userID,
			"video_id": videoID,
		}).Info("Credit gate already held, skipping wallet credit")
		return existing.Amount, false, nil
	}

	balanceBefore, balanceAfter, err := svc.incrementBalance(tx, userID, amount)
	if err != nil {
		return 0, false, err
	}

	txID, _ := uuid.NewV7()
	record := &model.WalletTransaction{
		ID:            txID.String(),
		UserID:        userID,
		Type:          model.TxTypeEarned,
		Source:        model.TxSourceVideoWatch,
		Amount:        amount,
		Description:   description,
		VideoID:       &videoID,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now(),
	}
	if err := tx.Create(record).Error; err != nil {
		return 0, false, err
	}

	return amount, true, nil
}

// incrementBalance applies an atomic in-database increment and returns the
// balances around it. Read-modify-write at the application layer would lose
// updates under concurrent credits from different videos.
func (svc *WalletService) incrementBalance(tx *gorm.DB, userID string, amount int64) (int64, int64, error) {
	res := tx.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("coins_balance", gorm.Expr("coins_balance + ?", amount))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, fmt.Errorf("user %s not found for wallet credit", userID)
	}

	var user model.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, 0, err
	}

	return user.CoinsBalance - amount, user.CoinsBalance, nil
}

// ==================== READ METHODS ====================

func (svc *WalletService) GetWallet(userID string) (*dto.WalletResponse, error) {
	user, err := svc.sqlSvc.GetUserByID(userID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "User not found")
	}

	return &dto.WalletResponse{
		UserID:       user.ID,
		CoinsBalance: user.CoinsBalance,
	}, nil
}

func (svc *WalletService) GetTransactions(userID string, page, limit int) (*dto.WalletTransactionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	txs, total, err := svc.sqlSvc.GetWalletTransactions(userID, page, limit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get wallet transactions")
	}

	responses := make([]dto.WalletTransactionResponse, len(txs))
	for i, t := range txs {
		responses[i] = dto.WalletTransactionResponse{
			ID:            t.ID,
			Type:          t.Type,
			Source:        t.Source,
			Amount:        t.Amount,
			Description:   t.Description,
			VideoID:       t.VideoID,
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
			CreatedAt:     t.CreatedAt,
		}
	}

	return &dto.WalletTransactionListResponse{
		Transactions: responses,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}
