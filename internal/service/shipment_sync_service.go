package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/shipping/shiprocket"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const defaultShipmentSyncMaxAttempts = 3

// ShipmentTracker 运单跟踪查询
type ShipmentTracker interface {
	TrackByAWB(ctx context.Context, awb string) (*shiprocket.TrackingResult, error)
}

// OrderStatusNotifier 买家状态通知
type OrderStatusNotifier interface {
	NotifyShipmentStatus(ctx context.Context, order *models.Order, status constants.OrderStatus, raw map[string]interface{}) error
}

// ShipmentFailureAlert 同步失败告警内容
type ShipmentFailureAlert struct {
	Stage       string
	Source      string
	OrderID     uint
	OrderNumber string
	Message     string
}

// ExceptionAlerter 运营异常告警
type ExceptionAlerter interface {
	AlertShipmentFailure(ctx context.Context, alert ShipmentFailureAlert) error
}

// ShipmentSyncOptions 同步服务参数
type ShipmentSyncOptions struct {
	TrackingURLBase  string
	MaxAttempts      int
	ResyncStaleAfter time.Duration
	ResyncBatchSize  int
}

// ShipmentSyncResult 同步结果
type ShipmentSyncResult struct {
	OrderID        uint                  `json:"order_id"`
	OrderNumber    string                `json:"order_number"`
	PreviousStatus constants.OrderStatus `json:"previous_status"`
	Status         constants.OrderStatus `json:"status"`
	StatusChanged  bool                  `json:"status_changed"`
	Notified       bool                  `json:"notified"`
	Attempts       int                   `json:"attempts"`
}

// ShipmentDetail 订单物流详情
type ShipmentDetail struct {
	Order        *models.Order               `json:"order"`
	History      []models.OrderStatusHistory `json:"history"`
	HistoryTotal int64                       `json:"history_total"`
}

// ShipmentSyncService 物流状态同步服务
type ShipmentSyncService struct {
	orderRepo   repository.OrderRepository
	notifier    OrderStatusNotifier
	alerter     ExceptionAlerter
	tracker     ShipmentTracker
	queueClient *queue.Client
	opts        ShipmentSyncOptions
	now         func() time.Time
}

// NewShipmentSyncService 创建物流状态同步服务，tracker 为 nil 时不支持主动查询
func NewShipmentSyncService(
	orderRepo repository.OrderRepository,
	notifier OrderStatusNotifier,
	alerter ExceptionAlerter,
	tracker ShipmentTracker,
	queueClient *queue.Client,
	opts ShipmentSyncOptions,
) *ShipmentSyncService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultShipmentSyncMaxAttempts
	}
	return &ShipmentSyncService{
		orderRepo:   orderRepo,
		notifier:    notifier,
		alerter:     alerter,
		tracker:     tracker,
		queueClient: queueClient,
		opts:        opts,
		now:         time.Now,
	}
}

// HandleWebhook 处理 Shiprocket 推送事件。
// 订单不存在返回 ErrOrderNotFound；其余错误均已记录指标并触发告警。
func (s *ShipmentSyncService) HandleWebhook(ctx context.Context, event *shiprocket.WebhookEvent) (*ShipmentSyncResult, error) {
	if event == nil {
		return nil, ErrShipmentWebhookInvalid
	}
	log := logger.SW(
		"order_number", event.OrderID,
		"shipment_id", event.ShipmentID,
		"shipment_status", event.ShipmentStatus,
		"current_status", event.CurrentStatus,
	)
	log.Infow("shiprocket_webhook_received")

	order, err := s.orderRepo.GetByOrderNumber(event.OrderID)
	if err != nil {
		s.reportFailure(ctx, ShipmentFailureAlert{
			Stage:       constants.AlertStageLookup,
			Source:      constants.StatusSourceWebhook,
			OrderNumber: event.OrderID,
			Message:     err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		log.Warnw("shiprocket_webhook_order_not_found")
		return nil, ErrOrderNotFound
	}
	if !event.HasShipmentStatus() {
		s.reportFailure(ctx, ShipmentFailureAlert{
			Stage:       constants.AlertStageParse,
			Source:      constants.StatusSourceWebhook,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Message:     "shipment_status is missing",
		})
		return nil, ErrShipmentStatusMissing
	}
	return s.apply(ctx, order, ShipmentUpdateFromWebhook(event))
}

// ResyncOrder 主动查询运单状态并按推送相同规则写入
func (s *ShipmentSyncService) ResyncOrder(ctx context.Context, orderNumber string) (*ShipmentSyncResult, error) {
	if s.tracker == nil {
		return nil, ErrShiprocketDisabled
	}
	orderNumber = strings.TrimSpace(orderNumber)
	order, err := s.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	awb := strings.TrimSpace(order.Shiprocket.AWBCode)
	if awb == "" {
		awb = strings.TrimSpace(order.TrackingNumber)
	}
	if awb == "" {
		return nil, ErrShipmentAWBMissing
	}

	tracking, err := s.tracker.TrackByAWB(ctx, awb)
	if err != nil {
		s.reportFailure(ctx, ShipmentFailureAlert{
			Stage:       constants.AlertStageResync,
			Source:      constants.StatusSourceResync,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Message:     err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrShipmentSyncFailed, err)
	}
	update := ShipmentUpdateFromTracking(tracking)
	if strings.TrimSpace(update.CourierStatus) == "" {
		return nil, ErrShipmentStatusMissing
	}
	if update.AWB == "" {
		update.AWB = awb
	}
	return s.apply(ctx, order, update)
}

// GetShipment 查询订单物流镜像与状态历史
func (s *ShipmentSyncService) GetShipment(orderNumber string, page, pageSize int) (*ShipmentDetail, error) {
	order, err := s.orderRepo.GetByOrderNumber(strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	history, total, err := s.orderRepo.ListStatusHistory(order.ID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	return &ShipmentDetail{Order: order, History: history, HistoryTotal: total}, nil
}

// EnqueueStaleResyncs 为长时间未同步的在途订单安排补偿同步，队列未启用时直接同步
func (s *ShipmentSyncService) EnqueueStaleResyncs(ctx context.Context) (int, error) {
	if s.tracker == nil {
		return 0, nil
	}
	staleAfter := s.opts.ResyncStaleAfter
	if staleAfter <= 0 {
		staleAfter = 6 * time.Hour
	}
	orders, err := s.orderRepo.ListStaleShipments(repository.StaleShipmentFilter{
		Statuses:     []constants.OrderStatus{constants.OrderStatusProcessing, constants.OrderStatusShipped},
		SyncedBefore: s.now().Add(-staleAfter),
		Limit:        s.opts.ResyncBatchSize,
	})
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, order := range orders {
		if s.queueClient.Enabled() {
			err = s.queueClient.EnqueueShipmentResync(queue.ShipmentResyncPayload{
				OrderNumber: order.OrderNumber,
				Reason:      "stale",
			}, asynq.TaskID(constants.TaskShipmentResync+":"+order.OrderNumber), asynq.MaxRetry(3))
		} else {
			_, err = s.ResyncOrder(ctx, order.OrderNumber)
		}
		if err != nil {
			logger.Warnw("shipment_resync_schedule_failed", "order_number", order.OrderNumber, "error", err)
			continue
		}
		scheduled++
	}
	return scheduled, nil
}

// apply 基于版本号比较写入；冲突时重新读取订单并重算计划，最多 MaxAttempts 次
func (s *ShipmentSyncService) apply(ctx context.Context, order *models.Order, update ShipmentUpdate) (*ShipmentSyncResult, error) {
	current := order
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		plan := planShipmentSync(current, update, s.now(), s.opts.TrackingURLBase)
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			repo := s.orderRepo.WithTx(tx)
			ok, err := repo.UpdateWithVersion(current.ID, current.Version, plan.updates)
			if err != nil {
				return err
			}
			if !ok {
				return ErrOrderVersionConflict
			}
			if plan.history != nil {
				return repo.AppendStatusHistory(plan.history)
			}
			return nil
		})
		if err == nil {
			return s.afterCommit(ctx, current, plan, update, attempt), nil
		}
		if !errors.Is(err, ErrOrderVersionConflict) {
			s.reportFailure(ctx, ShipmentFailureAlert{
				Stage:       constants.AlertStageApply,
				Source:      update.Source,
				OrderID:     current.ID,
				OrderNumber: current.OrderNumber,
				Message:     err.Error(),
			})
			return nil, fmt.Errorf("%w: %v", ErrShipmentSyncFailed, err)
		}

		metrics.ObserveSyncConflict()
		logger.Warnw("shipment_sync_conflict",
			"order_number", current.OrderNumber,
			"version", current.Version,
			"attempt", attempt,
		)
		reloaded, err := s.orderRepo.GetByID(current.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
		}
		if reloaded == nil {
			return nil, ErrOrderNotFound
		}
		current = reloaded
	}

	s.reportFailure(ctx, ShipmentFailureAlert{
		Stage:       constants.AlertStageApply,
		Source:      update.Source,
		OrderID:     current.ID,
		OrderNumber: current.OrderNumber,
		Message:     "version conflict retries exhausted",
	})
	return nil, fmt.Errorf("%w: retries exhausted", ErrOrderVersionConflict)
}

func (s *ShipmentSyncService) afterCommit(ctx context.Context, order *models.Order, plan shipmentSyncPlan, update ShipmentUpdate, attempts int) *ShipmentSyncResult {
	result := &ShipmentSyncResult{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: plan.previous,
		Status:         plan.next,
		StatusChanged:  plan.changed,
		Attempts:       attempts,
	}
	if !plan.changed {
		logger.Infow("shipment_sync_unchanged",
			"order_number", order.OrderNumber,
			"status", plan.next,
			"shipment_status", update.CourierStatus,
			"source", update.Source,
		)
		return result
	}

	metrics.ObserveTransition(plan.previous.String(), plan.next.String())
	logger.Infow("shipment_sync_status_changed",
		"order_number", order.OrderNumber,
		"from", plan.previous,
		"to", plan.next,
		"shipment_status", update.CourierStatus,
		"source", update.Source,
	)

	if s.notifier == nil || !shouldNotifyShipmentStatus(plan.next) {
		return result
	}
	snapshot, err := s.orderRepo.GetByID(order.ID)
	if err != nil || snapshot == nil {
		snapshot = order
	}
	if err := s.notifier.NotifyShipmentStatus(ctx, snapshot, plan.next, update.Raw); err != nil {
		if errors.Is(err, ErrShipmentNotifySkipped) {
			logger.Infow("shipment_status_notify_skipped", "order_number", order.OrderNumber, "status", plan.next)
			return result
		}
		logger.Warnw("shipment_status_notify_failed",
			"order_number", order.OrderNumber,
			"status", plan.next,
			"error", err,
		)
		return result
	}
	result.Notified = true
	return result
}

// reportFailure 记录失败指标并发送运营告警，告警失败只记录日志
func (s *ShipmentSyncService) reportFailure(ctx context.Context, alert ShipmentFailureAlert) {
	metrics.ObserveSyncFailure(alert.Stage)
	logger.Errorw("shipment_sync_failed",
		"stage", alert.Stage,
		"source", alert.Source,
		"order_number", alert.OrderNumber,
		"error", alert.Message,
	)
	if s.alerter == nil {
		return
	}
	if err := s.alerter.AlertShipmentFailure(ctx, alert); err != nil {
		logger.Warnw("shipment_sync_alert_failed", "stage", alert.Stage, "order_number", alert.OrderNumber, "error", err)
	}
}
