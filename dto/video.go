package dto

import "time"

type VideoResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SourceURL       string    `json:"source_url"`
	DurationSeconds int       `json:"duration_seconds"`
	CoinsPerMinute  int       `json:"coins_per_minute"`
	TotalCoins      int64     `json:"total_coins"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// VideoProgress is the caller's own progress embedded in video listings.
type VideoProgress struct {
	HighestWatchedSeconds float64 `json:"highest_watched_seconds"`
	CoinsEarned           int64   `json:"coins_earned"`
	Completed             bool    `json:"completed"`
}

type VideoWithProgressResponse struct {
	VideoResponse
	Progress VideoProgress `json:"progress"`
}

type VideoCollectionResponse struct {
	Videos []VideoWithProgressResponse `json:"videos"`
	Total  int                         `json:"total"`
}

type AdminVideoCollectionResponse struct {
	Videos []VideoResponse `json:"videos"`
	Total  int             `json:"total"`
}

type CreateVideoRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	SourceURL       string `json:"source_url" validate:"required,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"required,gte=1"`
	CoinsPerMinute  int    `json:"coins_per_minute" validate:"omitempty,gte=1"`
}

type UpdateVideoRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	SourceURL       *string `json:"source_url" validate:"omitempty,url"`
	DurationSeconds *int    `json:"duration_seconds" validate:"omitempty,gte=1"`
	CoinsPerMinute  *int    `json:"coins_per_minute" validate:"omitempty,gte=1"`
	IsActive        *bool   `json:"is_active"`
}
