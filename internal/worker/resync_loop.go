package worker

import (
	"context"
	"errors"
	"time"

	"github.com/storefront-next/internal/logger"
)

// StaleResyncScheduler 安排超时未同步订单的补偿同步
type StaleResyncScheduler interface {
	EnqueueStaleResyncs(ctx context.Context) (int, error)
}

// ResyncLoop 按固定间隔扫描并补偿同步在途订单
type ResyncLoop struct {
	scheduler StaleResyncScheduler
	interval  time.Duration
}

// NewResyncLoop 创建补偿同步循环
func NewResyncLoop(scheduler StaleResyncScheduler, interval time.Duration) (*ResyncLoop, error) {
	if scheduler == nil {
		return nil, errors.New("resync scheduler is nil")
	}
	if interval <= 0 {
		return nil, errors.New("resync interval must be positive")
	}
	return &ResyncLoop{scheduler: scheduler, interval: interval}, nil
}

// Name 服务名称
func (l *ResyncLoop) Name() string {
	return "shipment_resync"
}

// Start 立即执行一次，之后按间隔执行，直到 ctx 结束
func (l *ResyncLoop) Start(ctx context.Context) error {
	if l == nil || l.scheduler == nil {
		return errors.New("resync loop not initialized")
	}
	l.runOnce(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

// Stop 循环随 ctx 退出，无需额外处理
func (l *ResyncLoop) Stop(context.Context) error {
	return nil
}

func (l *ResyncLoop) runOnce(ctx context.Context) {
	scheduled, err := l.scheduler.EnqueueStaleResyncs(ctx)
	if err != nil {
		logger.Warnw("worker_shipment_resync_scan_failed", "error", err)
		return
	}
	if scheduled > 0 {
		logger.Infow("worker_shipment_resync_scheduled", "count", scheduled)
	}
}
