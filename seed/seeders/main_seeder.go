package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders
func (s *MainSeeder) SeedAll() error {
	userSeeder := NewUserSeeder(s.db)
	if err := userSeeder.SeedUsers(); err != nil {
		log.Printf("User seeding failed: %v", err)
		return err
	}

	videoSeeder := NewVideoSeeder(s.db)
	if err := videoSeeder.SeedVideos(); err != nil {
		log.Printf("Video seeding failed: %v", err)
		return err
	}

	return nil
}

func (s *MainSeeder) SeedUsersOnly() error {
	return NewUserSeeder(s.db).SeedUsers()
}

func (s *MainSeeder) SeedVideosOnly() error {
	return NewVideoSeeder(s.db).SeedVideos()
}
