package worker

import (
	"context"
	"errors"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name       string
	server     *asynq.Server
	mux        *asynq.ServeMux
	consumer   *Consumer
	resyncLoop *ResyncLoop
}

// NewService 创建异步队列服务，resyncInterval 为 0 时不启动补偿同步循环
func NewService(cfg *config.QueueConfig, consumer *Consumer, resyncInterval time.Duration) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	svc := &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}
	if resyncInterval > 0 && consumer.Container != nil && consumer.ShipmentSyncService != nil {
		loop, err := NewResyncLoop(consumer.ShipmentSyncService, resyncInterval)
		if err != nil {
			return nil, err
		}
		svc.resyncLoop = loop
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.resyncLoop != nil {
		go func() {
			_ = s.resyncLoop.Start(ctx)
		}()
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}
