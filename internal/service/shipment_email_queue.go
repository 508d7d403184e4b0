package service

import (
	"context"
	"strings"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"github.com/hibiken/asynq"
)

// ShipmentEmailSender 直接发送物流状态邮件
type ShipmentEmailSender interface {
	SendShipmentEmail(ctx context.Context, payload queue.OrderShipmentEmailPayload) error
}

// QueueShipmentNotifier 通过队列异步发送发货/签收邮件，队列未启用时交给 sender 直接发送
type QueueShipmentNotifier struct {
	orderRepo   repository.OrderRepository
	queueClient *queue.Client
	sender      ShipmentEmailSender
	enabled     bool
}

// NewQueueShipmentNotifier 创建队列通知器
func NewQueueShipmentNotifier(orderRepo repository.OrderRepository, queueClient *queue.Client, sender ShipmentEmailSender, enabled bool) *QueueShipmentNotifier {
	return &QueueShipmentNotifier{
		orderRepo:   orderRepo,
		queueClient: queueClient,
		sender:      sender,
		enabled:     enabled,
	}
}

// NotifyShipmentStatus 入队状态邮件任务，未实际投递时返回 ErrShipmentNotifySkipped
func (n *QueueShipmentNotifier) NotifyShipmentStatus(ctx context.Context, order *models.Order, status constants.OrderStatus, raw map[string]interface{}) error {
	if n == nil || !n.enabled || order == nil {
		return ErrShipmentNotifySkipped
	}
	if !n.queueClient.Enabled() {
		if n.sender == nil || !shouldNotifyShipmentStatus(status) || !hasShipmentEmailReceiver(n.orderRepo, order.ID) {
			return ErrShipmentNotifySkipped
		}
		return n.sender.SendShipmentEmail(ctx, queue.OrderShipmentEmailPayload{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      status.String(),
			Event:       raw,
		})
	}
	skipped, err := enqueueShipmentEmailTaskIfEligible(n.orderRepo, n.queueClient, order, status, raw)
	if err != nil {
		return err
	}
	if skipped {
		return ErrShipmentNotifySkipped
	}
	return nil
}

// hasShipmentEmailReceiver 查询失败时按有收件人处理，交给发送端兜底
func hasShipmentEmailReceiver(orderRepo repository.OrderRepository, orderID uint) bool {
	if orderRepo == nil {
		return true
	}
	receiverEmail, err := orderRepo.ResolveReceiverEmailByOrderID(orderID)
	return err != nil || strings.TrimSpace(receiverEmail) != ""
}

// enqueueShipmentEmailTaskIfEligible 根据收件邮箱决定是否入队状态邮件任务。
// 返回值 skipped 表示没有可用收件人而跳过。
func enqueueShipmentEmailTaskIfEligible(orderRepo repository.OrderRepository, queueClient *queue.Client, order *models.Order, status constants.OrderStatus, raw map[string]interface{}) (skipped bool, err error) {
	if queueClient == nil || order == nil || order.ID == 0 {
		return true, nil
	}
	if !shouldNotifyShipmentStatus(status) {
		return true, nil
	}

	if !hasShipmentEmailReceiver(orderRepo, order.ID) {
		return true, nil
	}

	if err := queueClient.EnqueueOrderShipmentEmail(queue.OrderShipmentEmailPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      status.String(),
		Event:       raw,
	}, asynq.MaxRetry(5)); err != nil {
		return false, err
	}
	return false, nil
}
