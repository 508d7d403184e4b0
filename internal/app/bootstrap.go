package app

import (
	"errors"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/router"
	"github.com/storefront-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务；all 模式下队列未启用时只提供 HTTP
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		resyncInterval := time.Duration(cfg.Shiprocket.ResyncIntervalMinutes) * time.Minute
		workerService, err := worker.NewService(&cfg.Queue, consumer, resyncInterval)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		logger.Warnw("app_worker_skipped", "reason", "queue disabled", "effect", "emails and alerts are sent inline")
		if container.ShipmentSyncService != nil {
			resyncService, err := buildInlineResyncService(cfg, container.ShipmentSyncService)
			if err != nil {
				return nil, err
			}
			if resyncService != nil {
				services = append(services, resyncService)
			}
		}
	}

	// 如果没有服务被启动（例如模式错误或配置导致都没起），应该报错或至少打日志
	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

// buildInlineResyncService 队列未启用时单独运行补偿同步循环，未配置间隔时返回 nil
func buildInlineResyncService(cfg *config.Config, scheduler worker.StaleResyncScheduler) (Service, error) {
	if cfg == nil || scheduler == nil || cfg.Shiprocket.ResyncIntervalMinutes <= 0 {
		return nil, nil
	}
	return worker.NewResyncLoop(scheduler, time.Duration(cfg.Shiprocket.ResyncIntervalMinutes)*time.Minute)
}
