package model

import "time"

// WatchProgress is the durable per-(user, video) record. HighestWatchedSeconds
// never decreases and Completed never reverts; both are written only by the
// reward coordinator inside a transaction.
type WatchProgress struct {
	ID                    string     `json:"id" gorm:"primaryKey"`
	UserID                string     `json:"user_id" gorm:"not null;uniqueIndex:idx_watch_user_video"`
	VideoID               string     `json:"video_id" gorm:"not null;uniqueIndex:idx_watch_user_video"`
	HighestWatchedSeconds float64    `json:"highest_watched_seconds" gorm:"not null;default:0"`
	Completed             bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt           *time.Time `json:"completed_at"`
	LastWatchedAt         time.Time  `json:"last_watched_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// WalletCreditEvent is the crediting gate. The unique (user_id, video_id)
// index makes "at most one credit per completed video" a storage invariant:
// the insert that lands the row is the call allowed to touch the balance.
type WalletCreditEvent struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_credit_user_video"`
	VideoID   string    `json:"video_id" gorm:"not null;uniqueIndex:idx_credit_user_video"`
	Amount    int64     `json:"amount" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	TxTypeEarned = "earned"
	TxTypeSpent  = "spent"
	TxTypeBonus  = "bonus"
	TxTypeRefund = "refund"

	TxSourceVideoWatch      = "video_watch"
	TxSourceAdminAdjustment = "admin_adjustment"
)

// WalletTransaction is the human-readable ledger history shown on the wallet
// page. BalanceBefore/BalanceAfter are informational; idempotency is owned by
// WalletCreditEvent, not by this log.
type WalletTransaction struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"not null;index:idx_wallet_tx_user_created,priority:1"`
	Type          string    `json:"type" gorm:"not null"`
	Source        string    `json:"source" gorm:"not null"`
	Amount        int64     `json:"amount" gorm:"not null"`
	Description   string    `json:"description" gorm:"not null"`
	VideoID       *string   `json:"video_id,omitempty"`
	BalanceBefore int64     `json:"balance_before" gorm:"not null"`
	BalanceAfter  int64     `json:"balance_after" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"index:idx_wallet_tx_user_created,priority:2,sort:desc"`
}
