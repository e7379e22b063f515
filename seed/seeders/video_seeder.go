package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/the-manager-app/manager_api/model"
)

type VideoSeeder struct {
	db *gorm.DB
}

func NewVideoSeeder(db *gorm.DB) *VideoSeeder {
	return &VideoSeeder{db: db}
}

// SeedVideos loads a small demo catalog keyed by title.
func (s *VideoSeeder) SeedVideos() error {
	videos := []model.Video{
		{
			Title:           "Big Buck Bunny",
			SourceURL:       "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
			DurationSeconds: 596,
			CoinsPerMinute:  10,
			IsActive:        true,
		},
		{
			Title:           "Elephants Dream",
			SourceURL:       "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
			DurationSeconds: 653,
			CoinsPerMinute:  10,
			IsActive:        true,
		},
		{
			Title:           "Sintel",
			SourceURL:       "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4",
			DurationSeconds: 888,
			CoinsPerMinute:  15,
			IsActive:        true,
		},
		{
			Title:           "Tears of Steel",
			SourceURL:       "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/TearsOfSteel.mp4",
			DurationSeconds: 734,
			CoinsPerMinute:  15,
			IsActive:        true,
		},
		{
			Title:           "For Bigger Escapes",
			SourceURL:       "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscapes.mp4",
			DurationSeconds: 15,
			CoinsPerMinute:  5,
			IsActive:        true,
		},
	}

	for _, video := range videos {
		id, _ := uuid.NewV7()
		video.ID = id.String()
		now := time.Now()
		video.CreatedAt = now
		video.UpdatedAt = now

		var existing model.Video
		err := s.db.Where("title = ?", video.Title).First(&existing).Error
		if err == nil {
			log.Printf("Video %q already exists, skipping", video.Title)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := s.db.Create(&video).Error; err != nil {
			return err
		}
		log.Printf("Created video %q (%ds)", video.Title, video.DurationSeconds)
	}

	return nil
}
