package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	adminhandlers "github.com/storefront-next/internal/http/handlers/admin"
	publichandlers "github.com/storefront-next/internal/http/handlers/public"
	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Shiprocket 推送地址
const (
	ShiprocketWebhookPath   = "/shiprocketWebhook"
	ShiprocketWebhookPathV1 = "/api/v1/webhooks/shiprocket"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	syncRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:shipment_sync", redisPrefix),
		WindowSeconds: cfg.Security.SyncRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SyncRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(metrics.GinMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	r.NoMethod(func(ctx *gin.Context) {
		if isShiprocketWebhookPath(ctx.Request.URL.Path) {
			publichandlers.MethodNotAllowed(ctx)
			return
		}
		ctx.AbortWithStatusJSON(http.StatusMethodNotAllowed, response.Response{
			StatusCode: response.CodeMethodNotAllowed,
			Msg:        shared.Message("error.method_not_allowed"),
		})
	})
	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, shared.Message("error.not_found"))
	})

	// Shiprocket 推送
	r.POST(ShiprocketWebhookPath, publicHandler.ShiprocketWebhook)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/webhooks/shiprocket", publicHandler.ShiprocketWebhook)

		// 运营接口
		admin := apiV1.Group("/admin")
		admin.Use(OperatorJWTAuthMiddleware(cfg.JWT), OperatorRBACMiddleware(c.AuthzService))
		{
			admin.GET("/orders/:order_number/shipment", adminHandler.GetOrderShipment)
			admin.POST("/orders/:order_number/shipment/sync",
				RateLimitMiddleware(cache.Client(), syncRule, KeyByOperator),
				adminHandler.SyncOrderShipment,
			)
			admin.POST("/shipments/resync-stale",
				RateLimitMiddleware(cache.Client(), syncRule, KeyByOperator),
				adminHandler.ResyncStaleShipments,
			)
		}
	}

	// 健康检查与指标
	r.GET("/health", func(ctx *gin.Context) {
		status := "ok"
		if cache.Enabled() {
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				status = "degraded"
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": status})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func isShiprocketWebhookPath(path string) bool {
	switch strings.TrimRight(path, "/") {
	case ShiprocketWebhookPath, ShiprocketWebhookPathV1:
		return true
	default:
		return false
	}
}
