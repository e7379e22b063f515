// cmd: seed
// Populates a development database with demo users and a starter video
// catalog. Safe to run repeatedly; existing rows are left alone.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/the-manager-app/manager_api/model"
	"github.com/the-manager-app/manager_api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, users, videos")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=manager_api port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Video{},
		&model.WatchProgress{},
		&model.WalletCreditEvent{},
		&model.WalletTransaction{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		if err := mainSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "users":
		log.Println("Seeding users only...")
		if err := mainSeeder.SeedUsersOnly(); err != nil {
			log.Fatalf("Failed to seed users: %v", err)
		}
	case "videos":
		log.Println("Seeding videos only...")
		if err := mainSeeder.SeedVideosOnly(); err != nil {
			log.Fatalf("Failed to seed videos: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'users', or 'videos'", *seedType)
	}

	log.Println("Seeding finished")
}

func showHelp() {
	fmt.Println(`Database seeder

Usage:
  seed [flags]

Flags:
  -type string   Type of seeding: all, users, videos (default "all")
  -help          Show this message

Environment:
  DATABASE_URL   Postgres DSN (defaults to a local development database)`)
}
