package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/shared"
)

type AdminHandler struct {
	catalogSvc VideoCatalogServiceInterface
}

func NewAdminHandler(catalogSvc VideoCatalogServiceInterface) *AdminHandler {
	return &AdminHandler{
		catalogSvc: catalogSvc,
	}
}

// @Summary List All Videos
// @Description Get every video including inactive ones
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.AdminVideoCollectionResponse}
// @Router /api/v1/admin/videos [get]
func (h *AdminHandler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.catalogSvc.ListAllVideos()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", videos)
}

// @Summary Create Video
// @Description Add a video to the catalog
// @Tags admin
// @Accept json
// @Produce json
// @Param createRequest body dto.CreateVideoRequest true "Video definition"
// @Success 201 {object} shared.Response{data=dto.VideoResponse}
// @Router /api/v1/admin/videos [post]
func (h *AdminHandler) CreateVideo(c *fiber.Ctx) error {
	var req dto.CreateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	video, err := h.catalogSvc.CreateVideo(&req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Video created", video)
}

// @Summary Update Video
// @Description Partially update a video. Duration cannot change once the video has watch history.
// @Tags admin
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Param updateRequest body dto.UpdateVideoRequest true "Fields to update"
// @Success 200 {object} shared.Response{data=dto.VideoResponse}
// @Router /api/v1/admin/videos/{videoId} [patch]
func (h *AdminHandler) UpdateVideo(c *fiber.Ctx) error {
	videoID := c.Params("videoId")

	var req dto.UpdateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	video, err := h.catalogSvc.UpdateVideo(videoID, &req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Video updated", video)
}

// @Summary Delete Video
// @Description Delete a video that has no watch history. Videos with history must be deactivated instead.
// @Tags admin
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/admin/videos/{videoId} [delete]
func (h *AdminHandler) DeleteVideo(c *fiber.Ctx) error {
	videoID := c.Params("videoId")

	if err := h.catalogSvc.DeleteVideo(videoID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Video deleted", nil)
}
