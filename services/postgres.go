package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/the-manager-app/manager_api/model"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "manager_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		timezone := os.Getenv("DB_TIMEZONE")
		if timezone == "" {
			timezone = "UTC"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	err = ds.db.AutoMigrate(
		&model.User{},
		&model.Video{},
		&model.WatchProgress{},
		&model.WalletCreditEvent{},
		&model.WalletTransaction{},
	)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		} else if strings.Contains(err.Error(), "connection refused") {
			statusCode = http.StatusServiceUnavailable // 503
			errorType = "DATABASE_CONNECTION_ERROR"
		} else {
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

// ==================== USER METHODS ====================

func (ds *PostgresService) GetUserByID(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	if err := ds.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ==================== VIDEO METHODS ====================

func (ds *PostgresService) CreateVideo(video *model.Video) (*model.Video, error) {
	if err := ds.db.Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (ds *PostgresService) GetVideo(videoID string) (*model.Video, error) {
	var video model.Video
	if err := ds.db.Where("id = ?", videoID).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (ds *PostgresService) GetActiveVideos() ([]model.Video, error) {
	var videos []model.Video
	err := ds.db.Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&videos).Error
	return videos, err
}

func (ds *PostgresService) GetAllVideos() ([]model.Video, error) {
	var videos []model.Video
	err := ds.db.Order("created_at DESC").Find(&videos).Error
	return videos, err
}

func (ds *PostgresService) UpdateVideo(videoID string, updates map[string]interface{}) (*model.Video, error) {
	res := ds.db.Model(&model.Video{}).Where("id = ?", videoID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return ds.GetVideo(videoID)
}

func (ds *PostgresService) DeleteVideo(videoID string) error {
	res := ds.db.Where("id = ?", videoID).Delete(&model.Video{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// VideoHasProgress reports whether anyone has a watch record for the video.
// Used to freeze duration edits once rewards can depend on it.
func (ds *PostgresService) VideoHasProgress(videoID string) (bool, error) {
	var count int64
	err := ds.db.Model(&model.WatchProgress{}).Where("video_id = ?", videoID).Count(&count).Error
	return count > 0, err
}

// ==================== WATCH PROGRESS METHODS ====================

func (ds *PostgresService) GetWatchProgress(userID, videoID string) (*model.WatchProgress, error) {
	var progress model.WatchProgress
	err := ds.db.Where("user_id = ? AND video_id = ?", userID, videoID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (ds *PostgresService) GetWatchProgressForUser(userID string, videoIDs []string) ([]model.WatchProgress, error) {
	var records []model.WatchProgress
	err := ds.db.Where("user_id = ? AND video_id IN ?", userID, videoIDs).Find(&records).Error
	return records, err
}

// ==================== WALLET METHODS ====================

func (ds *PostgresService) GetCreditEventsForUser(userID string, videoIDs []string) ([]model.WalletCreditEvent, error) {
	var events []model.WalletCreditEvent
	err := ds.db.Where("user_id = ? AND video_id IN ?", userID, videoIDs).Find(&events).Error
	return events, err
}

func (ds *PostgresService) GetCreditEvent(userID, videoID string) (*model.WalletCreditEvent, error) {
	var event model.WalletCreditEvent
	err := ds.db.Where("user_id = ? AND video_id = ?", userID, videoID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (ds *PostgresService) GetWalletTransactions(userID string, page, limit int) ([]model.WalletTransaction, int64, error) {
	var total int64
	if err := ds.db.Model(&model.WalletTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []model.WalletTransaction
	err := ds.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&txs).Error
	return txs, total, err
}
