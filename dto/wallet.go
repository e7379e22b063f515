package dto

import "time"

type WalletResponse struct {
	UserID       string `json:"user_id"`
	CoinsBalance int64  `json:"coins_balance"`
}

type WalletTransactionResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	VideoID       *string   `json:"video_id,omitempty"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

type WalletTransactionListResponse struct {
	Transactions []WalletTransactionResponse `json:"transactions"`
	Total        int64                       `json:"total"`
	Page         int                         `json:"page"`
	Limit        int                         `json:"limit"`
}
