package middleware

import (
	"net/http"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/the-manager-app/manager_api/services"
	"github.com/the-manager-app/manager_api/shared"
)

type AuthMiddleware struct {
	context.DefaultService

	sqlSvc *services.PostgresService
	jwtSvc *services.JWTService
}

const AUTH_MIDDLEWARE_SVC = "auth"

func (svc AuthMiddleware) Id() string {
	return AUTH_MIDDLEWARE_SVC
}

func (svc *AuthMiddleware) Configure(ctx *context.Context) error {
	svc.sqlSvc = ctx.Service(services.POSTGRES_SVC).(*services.PostgresService)
	svc.jwtSvc = ctx.Service(services.JWT_SVC).(*services.JWTService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthMiddleware) Start() error {
	return nil
}

func (svc *AuthMiddleware) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		if userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// RequireRole checks the caller's stored role. Roles live in the database
// rather than the token so a demotion takes effect without waiting for
// token expiry.
func (svc *AuthMiddleware) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(shared.UserID).(string)
		if !ok || userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		user, err := svc.sqlSvc.GetUserByID(userID)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		if !user.IsActive || user.Role != role {
			return shared.ResponseJSON(c, http.StatusForbidden, "Forbidden", nil)
		}

		return c.Next()
	}
}
