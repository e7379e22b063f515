package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/shared"
)

// RateLimitService enforces fixed-window request limits backed by redis.
// Watch reports arrive roughly once a second per playing client, so the
// watch_report limit is sized for one active session with headroom rather
// than as an abuse threshold on its own.
type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	redisSvc *RedisService
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	BlockTime    time.Duration
	Description  string
	IsActive     bool
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.configs = make(map[string]*RateLimitConfig)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.initDefaultConfigs()
	return nil
}

// ==================== CONFIGURATION MANAGEMENT ====================

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		"watch_report": {
			EndpointType: "watch_report",
			MaxRequests:  120,
			WindowSize:   time.Minute,
			BlockTime:    5 * time.Minute,
			Description:  "Watch progress report rate limit per user",
			IsActive:     true,
		},
		"admin_write": {
			EndpointType: "admin_write",
			MaxRequests:  60,
			WindowSize:   time.Minute,
			BlockTime:    5 * time.Minute,
			Description:  "Admin catalog mutation rate limit",
			IsActive:     true,
		},
		"api_general": {
			EndpointType: "api_general",
			MaxRequests:  1000,
			WindowSize:   time.Hour,
			BlockTime:    time.Hour,
			Description:  "General API rate limit per IP",
			IsActive:     true,
		},
	}
}

// ==================== CORE RATE LIMITING LOGIC ====================

func (svc *RateLimitService) IsAllowed(identifier, endpointType string) (bool, *dto.RateLimitInfo, error) {
	svc.mutex.RLock()
	config, exists := svc.configs[endpointType]
	svc.mutex.RUnlock()

	if !exists || !config.IsActive {
		return true, &dto.RateLimitInfo{
			Allowed:   true,
			Remaining: -1,
		}, nil
	}

	ctx := context.Background()
	now := time.Now()

	blockKey := fmt.Sprintf("rl:block:%s:%s", endpointType, identifier)
	if ttl, err := svc.redisSvc.TTL(ctx, blockKey); err == nil && ttl > 0 {
		blockedUntil := now.Add(ttl)
		return false, &dto.RateLimitInfo{
			Allowed:      false,
			Remaining:    0,
			ResetTime:    &blockedUntil,
			BlockedUntil: &blockedUntil,
		}, nil
	}

	countKey := fmt.Sprintf("rl:%s:%s", endpointType, identifier)
	count, err := svc.redisSvc.Increment(ctx, countKey)
	if err != nil {
		return false, nil, err
	}
	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, countKey, config.WindowSize); err != nil {
			return false, nil, err
		}
	}

	if count > int64(config.MaxRequests) {
		if err := svc.redisSvc.Set(ctx, blockKey, "1", config.BlockTime); err != nil {
			return false, nil, err
		}
		blockedUntil := now.Add(config.BlockTime)
		return false, &dto.RateLimitInfo{
			Allowed:      false,
			Remaining:    0,
			ResetTime:    &blockedUntil,
			BlockedUntil: &blockedUntil,
		}, nil
	}

	remaining := config.MaxRequests - int(count)
	resetTime := now.Add(config.WindowSize)
	if ttl, err := svc.redisSvc.TTL(ctx, countKey); err == nil && ttl > 0 {
		resetTime = now.Add(ttl)
	}

	return true, &dto.RateLimitInfo{
		Allowed:   true,
		Remaining: remaining,
		ResetTime: &resetTime,
	}, nil
}

// ==================== MIDDLEWARE FUNCTIONS ====================

// IPRateLimit applies general rate limiting by IP address
func (svc *RateLimitService) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := getClientIP(c)

		allowed, info, err := svc.IsAllowed(ip, "api_general")
		if err != nil {
			log.Printf("IP rate limit check error for %s: %v", ip, err)
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, "api_general", info)
		}

		return c.Next()
	}
}

// UserBasedRateLimit applies rate limiting based on authenticated user
func (svc *RateLimitService) UserBasedRateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals(shared.UserID)
		userIDStr := ""
		if userID != nil {
			userIDStr = userID.(string)
		}
		if userIDStr == "" {
			userIDStr = getClientIP(c)
		}

		allowed, info, err := svc.IsAllowed(userIDStr, endpointType)
		if err != nil {
			log.Printf("User rate limit check error for %s (%s): %v", endpointType, userIDStr, err)
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}

		return c.Next()
	}
}

// ==================== HELPER FUNCTIONS ====================

func (svc *RateLimitService) addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil {
		return
	}

	if info.Remaining >= 0 {
		c.Set(shared.HeaderRateLimitRemaining, strconv.Itoa(info.Remaining))
	}

	if info.ResetTime != nil {
		c.Set(shared.HeaderRateLimitReset, strconv.FormatInt(info.ResetTime.Unix(), 10))
	}

	if info.BlockedUntil != nil {
		retryAfter := int(time.Until(*info.BlockedUntil).Seconds())
		if retryAfter > 0 {
			c.Set(shared.HeaderRetryAfter, strconv.Itoa(retryAfter))
		}
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, endpointType string, info *dto.RateLimitInfo) error {
	message := svc.getRateLimitMessage(endpointType)

	response := map[string]interface{}{
		"error":   "Rate limit exceeded",
		"message": message,
	}

	if info.BlockedUntil != nil {
		response["blocked_until"] = info.BlockedUntil.Unix()
		response["retry_after"] = int(time.Until(*info.BlockedUntil).Seconds())
	}

	return shared.ResponseJSON(c, http.StatusTooManyRequests, message, response)
}

func (svc *RateLimitService) getRateLimitMessage(endpointType string) string {
	messages := map[string]string{
		"watch_report": "Too many watch reports. Slow down to normal playback speed.",
		"admin_write":  "Too many catalog changes. Please try again later.",
		"api_general":  "Too many requests. Please slow down.",
	}

	if message, exists := messages[endpointType]; exists {
		return message
	}

	return "Too many requests. Please try again later."
}

// ==================== UTILITY FUNCTIONS ====================

func getClientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}

	return ip
}

// ==================== PUBLIC METHODS ====================

func (svc *RateLimitService) ResetRateLimit(identifier, endpointType string) error {
	ctx := context.Background()
	return svc.redisSvc.Delete(ctx,
		fmt.Sprintf("rl:%s:%s", endpointType, identifier),
		fmt.Sprintf("rl:block:%s:%s", endpointType, identifier),
	)
}
