package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/shared"
)

type WatchHandler struct {
	rewardSvc RewardServiceInterface
}

func NewWatchHandler(rewardSvc RewardServiceInterface) *WatchHandler {
	return &WatchHandler{
		rewardSvc: rewardSvc,
	}
}

// @Summary Report Watch Progress
// @Description Report the furthest playback position reached on a video. Crediting happens server-side once the completion threshold is crossed.
// @Tags watch
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Param watchRequest body dto.ReportWatchRequest true "Watch report"
// @Success 200 {object} shared.Response{data=dto.ReportWatchResponse}
// @Router /api/v1/videos/{videoId}/watch [post]
func (h *WatchHandler) ReportWatch(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	videoID := c.Params("videoId")

	var req dto.ReportWatchRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := dto.ValidateStruct(&req); err != nil {
		return err
	}

	result, err := h.rewardSvc.ReportWatch(userID, videoID, req.WatchedSeconds)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", result)
}
