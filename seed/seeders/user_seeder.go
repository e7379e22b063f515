package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/the-manager-app/manager_api/model"
)

type UserSeeder struct {
	db *gorm.DB
}

func NewUserSeeder(db *gorm.DB) *UserSeeder {
	return &UserSeeder{db: db}
}

// SeedUsers creates the demo accounts. Emails are the natural key, so a
// rerun never duplicates them.
func (s *UserSeeder) SeedUsers() error {
	users := []model.User{
		{
			Email:    "admin@example.com",
			Username: "admin",
			Role:     model.RoleAdmin,
			IsActive: true,
		},
		{
			Email:    "alice@example.com",
			Username: "alice",
			Role:     model.RoleClient,
			IsActive: true,
		},
		{
			Email:    "bob@example.com",
			Username: "bob",
			Role:     model.RoleClient,
			IsActive: true,
		},
	}

	for _, user := range users {
		id, _ := uuid.NewV7()
		user.ID = id.String()
		now := time.Now()
		user.CreatedAt = now
		user.UpdatedAt = now

		var existing model.User
		err := s.db.Where("email = ?", user.Email).First(&existing).Error
		if err == nil {
			log.Printf("User %s already exists, skipping", user.Email)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := s.db.Create(&user).Error; err != nil {
			return err
		}
		log.Printf("Created user %s (%s)", user.Username, user.Role)
	}

	return nil
}
