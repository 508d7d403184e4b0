package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderShipmentEmail, c.handleOrderShipmentEmail)
	mux.HandleFunc(queue.TaskShipmentResync, c.handleShipmentResync)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

func (c *Consumer) handleOrderShipmentEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_shipment_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderShipmentEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_shipment_email_skip_invalid_payload", "order_number", payload.OrderNumber)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_shipment_email_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.NotificationService.SendShipmentEmail(ctx, payload); err != nil {
		logger.Warnw("worker_shipment_email_send_failed",
			"order_id", payload.OrderID,
			"order_number", payload.OrderNumber,
			"status", payload.Status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleShipmentResync(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_shipment_resync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentResyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_resync_unmarshal_failed", "error", err)
		return err
	}
	orderNumber := strings.TrimSpace(payload.OrderNumber)
	if orderNumber == "" {
		logger.Debugw("worker_shipment_resync_skip_invalid_payload")
		return nil
	}
	if c.ShipmentSyncService == nil {
		logger.Warnw("worker_shipment_resync_skip_service_nil", "order_number", orderNumber)
		return nil
	}
	result, err := c.ShipmentSyncService.ResyncOrder(ctx, orderNumber)
	if err != nil {
		if !isRetryableResyncError(err) {
			logger.Debugw("worker_shipment_resync_skip", "order_number", orderNumber, "reason", err)
			return nil
		}
		logger.Warnw("worker_shipment_resync_failed", "order_number", orderNumber, "error", err)
		return err
	}
	logger.Debugw("worker_shipment_resync_done",
		"order_number", orderNumber,
		"status", result.Status,
		"status_changed", result.StatusChanged,
	)
	return nil
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if c.NotificationService == nil {
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		if errors.Is(err, service.ErrNotificationEventInvalid) {
			logger.Debugw("worker_notification_dispatch_skip_invalid_event", "event_type", payload.EventType)
			return nil
		}
		logger.Warnw("worker_notification_dispatch_failed",
			"event_type", payload.EventType,
			"biz_type", payload.BizType,
			"biz_id", payload.BizID,
			"error", err,
		)
		return err
	}
	return nil
}

// isRetryableResyncError 订单缺失、无运单号或未配置接口时重试无意义
func isRetryableResyncError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrShipmentAWBMissing),
		errors.Is(err, service.ErrShiprocketDisabled),
		errors.Is(err, service.ErrShipmentStatusMissing):
		return false
	default:
		return true
	}
}
