package provider

import (
	"time"

	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"
	"github.com/storefront-next/internal/shipping/shiprocket"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OrderRepo repository.OrderRepository
	UserRepo  repository.UserRepository

	// Clients
	ShiprocketClient *shiprocket.Client

	// Services
	AuthzService         *authz.Service
	EmailService         *service.EmailService
	NotificationService  *service.NotificationService
	ShipmentSyncService  *service.ShipmentSyncService
	OrderBackfillService *service.OrderBackfillService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，未启用时为空实现
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化外部客户端
	c.initClients()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
}

func (c *Container) initClients() {
	srCfg := c.Config.Shiprocket
	if !srCfg.APIEnabled() {
		logger.Infow("provider_shiprocket_api_disabled", "effect", "manual and scheduled resync unavailable")
		return
	}
	var tokens shiprocket.TokenCache
	if cache.Enabled() {
		tokens = cache.NewShiprocketTokenStore()
	}
	c.ShiprocketClient = shiprocket.NewClient(shiprocket.Config{
		BaseURL:  srCfg.APIBaseURL,
		Email:    srCfg.APIEmail,
		Password: srCfg.APIPassword,
		TokenTTL: time.Duration(srCfg.TokenTTLHours) * time.Hour,
		Timeout:  time.Duration(srCfg.RequestTimeoutSeconds) * time.Second,
	}, tokens)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.NotificationService = service.NewNotificationService(c.Config.Notification, c.OrderRepo, c.EmailService, c.QueueClient)

	var tracker service.ShipmentTracker
	if c.ShiprocketClient != nil {
		tracker = c.ShiprocketClient
	}
	srCfg := c.Config.Shiprocket
	c.ShipmentSyncService = service.NewShipmentSyncService(
		c.OrderRepo,
		service.NewQueueShipmentNotifier(c.OrderRepo, c.QueueClient, c.NotificationService, c.Config.Notification.StatusEmailEnabled),
		c.NotificationService,
		tracker,
		c.QueueClient,
		service.ShipmentSyncOptions{
			TrackingURLBase:  srCfg.TrackingURLBase,
			MaxAttempts:      srCfg.SyncMaxAttempts,
			ResyncStaleAfter: time.Duration(srCfg.ResyncStaleMinutes) * time.Minute,
			ResyncBatchSize:  srCfg.ResyncBatchSize,
		},
	)
	c.OrderBackfillService = service.NewOrderBackfillService(c.OrderRepo, c.UserRepo, 0)
}
