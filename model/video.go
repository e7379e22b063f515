package model

import "time"

// Video is catalog metadata only; the file itself lives at an external URL.
// DurationSeconds is fixed at creation and drives reward calculation, so the
// admin API refuses to change it once anyone has watch progress on the video.
type Video struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"not null"`
	SourceURL       string    `json:"source_url" gorm:"not null"`
	DurationSeconds int       `json:"duration_seconds" gorm:"not null"`
	CoinsPerMinute  int       `json:"coins_per_minute" gorm:"not null;default:10"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
