package dto

// ReportWatchRequest is the client's progress report. WatchedSeconds is the
// tracker's high-water mark; the server re-clamps it regardless.
type ReportWatchRequest struct {
	WatchedSeconds float64 `json:"watched_seconds" validate:"gte=0"`
}

type ReportWatchResponse struct {
	HighestWatchedSeconds float64 `json:"highest_watched_seconds"`
	Completed             bool    `json:"completed"`
	CoinsAwarded          int64   `json:"coins_awarded"`
	WalletBalance         int64   `json:"wallet_balance"`
}
