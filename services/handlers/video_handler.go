package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/shared"
)

type VideoHandler struct {
	catalogSvc VideoCatalogServiceInterface
	rewardSvc  RewardServiceInterface
}

func NewVideoHandler(catalogSvc VideoCatalogServiceInterface, rewardSvc RewardServiceInterface) *VideoHandler {
	return &VideoHandler{
		catalogSvc: catalogSvc,
		rewardSvc:  rewardSvc,
	}
}

// @Summary List Videos
// @Description Get all active videos with the caller's watch progress
// @Tags videos
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.VideoCollectionResponse}
// @Router /api/v1/videos [get]
func (h *VideoHandler) ListVideos(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	videos, err := h.catalogSvc.ListActiveVideos(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", videos)
}

// @Summary Get Video
// @Description Get a single video with the caller's watch progress
// @Tags videos
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} shared.Response{data=dto.VideoWithProgressResponse}
// @Router /api/v1/videos/{videoId} [get]
func (h *VideoHandler) GetVideo(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	videoID := c.Params("videoId")

	video, err := h.catalogSvc.GetVideoDetails(videoID)
	if err != nil {
		return err
	}

	progress, err := h.rewardSvc.GetProgress(userID, videoID)
	if err != nil {
		return err
	}

	resp := dto.VideoWithProgressResponse{
		VideoResponse: *video,
		Progress:      *progress,
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
