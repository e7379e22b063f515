package services

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/the-manager-app/manager_api/model"
	"github.com/the-manager-app/manager_api/services/handlers"
	"github.com/the-manager-app/manager_api/shared"
)

// authProvider is satisfied by the auth middleware service. Declared here so
// the HTTP layer can fetch it from the service context without a package
// cycle.
type authProvider interface {
	RequiredAuth() fiber.Handler
	RequireRole(role string) fiber.Handler
}

type HttpService struct {
	context.DefaultService

	catalogSvc   *VideoCatalogService
	rewardSvc    *RewardService
	walletSvc    *WalletService
	rateLimitSvc *RateLimitService
	monitorSvc   *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"
const authMiddlewareSvc = "auth"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.catalogSvc = svc.Service(VIDEO_CATALOG_SVC).(*VideoCatalogService)
	svc.rewardSvc = svc.Service(REWARD_SVC).(*RewardService)
	svc.walletSvc = svc.Service(WALLET_SVC).(*WalletService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitorSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	auth := svc.Service(authMiddlewareSvc).(authProvider)

	app := fiber.New(fiber.Config{
		ErrorHandler: svc.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(svc.monitorSvc))
	app.Use(svc.rateLimitSvc.IPRateLimit())

	videoHandler := handlers.NewVideoHandler(svc.catalogSvc, svc.rewardSvc)
	watchHandler := handlers.NewWatchHandler(svc.rewardSvc)
	walletHandler := handlers.NewWalletHandler(svc.walletSvc)
	adminHandler := handlers.NewAdminHandler(svc.catalogSvc)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	authed := v1.Group("", auth.RequiredAuth())

	authed.Get("/videos", videoHandler.ListVideos)
	authed.Get("/videos/:videoId", videoHandler.GetVideo)
	authed.Post("/videos/:videoId/watch",
		svc.rateLimitSvc.UserBasedRateLimit("watch_report"),
		watchHandler.ReportWatch)

	authed.Get("/wallet", walletHandler.GetWallet)
	authed.Get("/wallet/transactions", walletHandler.GetTransactions)

	admin := authed.Group("/admin",
		auth.RequireRole(model.RoleAdmin),
		svc.rateLimitSvc.UserBasedRateLimit("admin_write"))
	admin.Get("/videos", adminHandler.ListVideos)
	admin.Post("/videos", adminHandler.CreateVideo)
	admin.Patch("/videos/:videoId", adminHandler.UpdateVideo)
	admin.Delete("/videos/:videoId", adminHandler.DeleteVideo)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, http.StatusNotFound, "Page not found", nil)
	})

	svc.server = app

	log.Info().Int("port", svc.port).Msg("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	return shared.ResponseInternalError(c, err)
}
