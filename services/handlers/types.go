package handlers

import (
	"github.com/the-manager-app/manager_api/dto"
)

type VideoCatalogServiceInterface interface {
	ListActiveVideos(userID string) (*dto.VideoCollectionResponse, error)
	GetVideoDetails(videoID string) (*dto.VideoResponse, error)
	ListAllVideos() (*dto.AdminVideoCollectionResponse, error)
	CreateVideo(req *dto.CreateVideoRequest) (*dto.VideoResponse, error)
	UpdateVideo(videoID string, req *dto.UpdateVideoRequest) (*dto.VideoResponse, error)
	DeleteVideo(videoID string) error
}

type RewardServiceInterface interface {
	ReportWatch(userID, videoID string, watchedSeconds float64) (*dto.ReportWatchResponse, error)
	GetProgress(userID, videoID string) (*dto.VideoProgress, error)
}

type WalletServiceInterface interface {
	GetWallet(userID string) (*dto.WalletResponse, error)
	GetTransactions(userID string, page, limit int) (*dto.WalletTransactionListResponse, error)
}
