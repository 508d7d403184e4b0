package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"github.com/hibiken/asynq"
)

// NotificationService 通知服务：买家物流邮件与运营异常告警
type NotificationService struct {
	cfg          config.NotificationConfig
	orderRepo    repository.OrderRepository
	emailService *EmailService
	queueClient  *queue.Client
	now          func() time.Time
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	cfg config.NotificationConfig,
	orderRepo repository.OrderRepository,
	emailService *EmailService,
	queueClient *queue.Client,
) *NotificationService {
	return &NotificationService{
		cfg:          cfg,
		orderRepo:    orderRepo,
		emailService: emailService,
		queueClient:  queueClient,
		now:          time.Now,
	}
}

// AlertShipmentFailure 发送同步失败告警；队列未启用时同步分发
func (s *NotificationService) AlertShipmentFailure(ctx context.Context, alert ShipmentFailureAlert) error {
	if s == nil {
		return nil
	}
	bizType := constants.NotificationBizTypeShipmentWebhook
	if alert.Source == constants.StatusSourceResync {
		bizType = constants.NotificationBizTypeShipmentResync
	}
	payload := queue.NotificationDispatchPayload{
		EventType: constants.NotificationEventExceptionAlert,
		BizType:   bizType,
		BizID:     alert.OrderID,
		Data: map[string]interface{}{
			"stage":        alert.Stage,
			"order_number": alert.OrderNumber,
			"message":      alert.Message,
			"occurred_at":  s.now().Format(time.RFC3339),
		},
	}
	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueNotificationDispatch(payload, asynq.MaxRetry(5))
	}
	return s.Dispatch(ctx, payload)
}

// Dispatch 处理告警分发任务，相同内容在去重窗口内只发送一次
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.NotificationDispatchPayload) error {
	if s == nil {
		return nil
	}
	eventType := strings.ToLower(strings.TrimSpace(payload.EventType))
	if eventType != constants.NotificationEventExceptionAlert {
		return ErrNotificationEventInvalid
	}
	recipients := normalizeRecipients(s.cfg.AlertEmails)
	if len(recipients) == 0 || s.emailService == nil {
		return nil
	}

	if !payload.Force {
		ok, err := cache.SetNX(ctx, buildNotificationDedupeKey(payload), "1", s.cfg.DedupeTTL())
		if err != nil {
			logger.Warnw("notification_dedupe_failed", "event_type", eventType, "error", err)
		}
		if err == nil && !ok {
			logger.Debugw("notification_deduplicated", "event_type", eventType, "biz_id", payload.BizID)
			return nil
		}
	}

	title, body := buildExceptionAlertContent(payload)
	var firstErr error
	for _, recipient := range recipients {
		if err := s.emailService.SendCustomEmail(recipient, title, body); err != nil {
			logger.Warnw("notification_email_send_failed",
				"event_type", eventType,
				"biz_type", payload.BizType,
				"biz_id", payload.BizID,
				"recipient", recipient,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, firstErr)
	}
	return nil
}

// SendShipmentEmail 处理买家物流邮件任务
func (s *NotificationService) SendShipmentEmail(_ context.Context, payload queue.OrderShipmentEmailPayload) error {
	if s == nil || s.orderRepo == nil || payload.OrderID == 0 {
		return nil
	}
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil
	}
	receiver, err := s.orderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return nil
	}
	status, ok := constants.ParseOrderStatus(payload.Status)
	if !ok || !shouldNotifyShipmentStatus(status) {
		return nil
	}

	err = s.emailService.SendShipmentStatusEmail(receiver, ShipmentStatusEmailInput{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Status:       status,
		Amount:       order.TotalAmount,
		Currency:     order.Currency,
		CourierName:  order.Shiprocket.CourierName,
		TrackingURL:  order.TrackingURL,
		EDD:          order.Shiprocket.EstimatedDeliveryDate,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEmailServiceDisabled), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrEmailRecipientRejected):
		logger.Warnw("shipment_email_skipped", "order_number", order.OrderNumber, "error", err)
		return nil
	default:
		return err
	}
}

func buildExceptionAlertContent(payload queue.NotificationDispatchPayload) (string, string) {
	stage := strings.TrimSpace(fmt.Sprintf("%v", valueOrEmpty(payload.Data["stage"])))
	orderNumber := strings.TrimSpace(fmt.Sprintf("%v", valueOrEmpty(payload.Data["order_number"])))
	title := fmt.Sprintf("Shipment sync failed at %s", stage)
	if orderNumber != "" {
		title += " for order " + orderNumber
	}

	keys := make([]string, 0, len(payload.Data))
	for key := range payload.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := []string{
		"source: " + payload.BizType,
		fmt.Sprintf("order_id: %d", payload.BizID),
	}
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", key, valueOrEmpty(payload.Data[key])))
	}
	return title, strings.Join(lines, "\n")
}

func buildNotificationDedupeKey(payload queue.NotificationDispatchPayload) string {
	signature := strings.Builder{}
	signature.WriteString(strings.ToLower(strings.TrimSpace(payload.EventType)))
	signature.WriteString("|")
	signature.WriteString(strings.ToLower(strings.TrimSpace(payload.BizType)))
	signature.WriteString("|")
	signature.WriteString(fmt.Sprintf("%d", payload.BizID))
	signature.WriteString("|")

	keys := make([]string, 0, len(payload.Data))
	for key := range payload.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "occurred_at" {
			continue
		}
		signature.WriteString(key)
		signature.WriteString("=")
		signature.WriteString(strings.TrimSpace(fmt.Sprintf("%v", payload.Data[key])))
		signature.WriteString(";")
	}
	hash := sha1.Sum([]byte(signature.String()))
	return constants.CacheKeyNotificationDedupe + hex.EncodeToString(hash[:])
}

func normalizeRecipients(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		email := strings.ToLower(strings.TrimSpace(item))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		result = append(result, email)
	}
	return result
}

func valueOrEmpty(value interface{}) interface{} {
	if value == nil {
		return ""
	}
	return value
}
