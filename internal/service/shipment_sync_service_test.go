package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/shipping/shiprocket"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var shipmentTestNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type notifierStub struct {
	statuses []constants.OrderStatus
	orders   []*models.Order
	err      error
}

func (n *notifierStub) NotifyShipmentStatus(_ context.Context, order *models.Order, status constants.OrderStatus, _ map[string]interface{}) error {
	n.statuses = append(n.statuses, status)
	n.orders = append(n.orders, order)
	return n.err
}

type alerterStub struct {
	alerts []ShipmentFailureAlert
}

func (a *alerterStub) AlertShipmentFailure(_ context.Context, alert ShipmentFailureAlert) error {
	a.alerts = append(a.alerts, alert)
	return nil
}

type trackerStub struct {
	result *shiprocket.TrackingResult
	err    error
	awbs   []string
}

func (s *trackerStub) TrackByAWB(_ context.Context, awb string) (*shiprocket.TrackingResult, error) {
	s.awbs = append(s.awbs, awb)
	return s.result, s.err
}

type shipmentSyncFixture struct {
	svc      *ShipmentSyncService
	db       *gorm.DB
	repo     *repository.GormOrderRepository
	notifier *notifierStub
	alerter  *alerterStub
	tracker  *trackerStub
}

func setupShipmentSyncTest(t *testing.T) *shipmentSyncFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:shipment_sync_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderStatusHistory{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	repo := repository.NewOrderRepository(db)
	fixture := &shipmentSyncFixture{
		db:       db,
		repo:     repo,
		notifier: &notifierStub{},
		alerter:  &alerterStub{},
		tracker:  &trackerStub{},
	}
	fixture.svc = NewShipmentSyncService(repo, fixture.notifier, fixture.alerter, fixture.tracker, newDisabledQueueClient(t), ShipmentSyncOptions{
		TrackingURLBase: "https://shiprocket.co/tracking/",
		MaxAttempts:     3,
	})
	fixture.svc.now = func() time.Time { return shipmentTestNow }
	return fixture
}

func (f *shipmentSyncFixture) createOrder(t *testing.T, orderNumber string, status constants.OrderStatus, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:   orderNumber,
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Buyer",
		Status:        status,
		Currency:      "INR",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(1499)),
	}
	if mutate != nil {
		mutate(order)
	}
	if err := f.repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (f *shipmentSyncFixture) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := f.repo.GetByID(id)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v %v", order, err)
	}
	return order
}

func (f *shipmentSyncFixture) history(t *testing.T, id uint) []models.OrderStatusHistory {
	t.Helper()
	rows, _, err := f.repo.ListStatusHistory(id, 1, 50)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	return rows
}

func webhookEvent(t *testing.T, body string) *shiprocket.WebhookEvent {
	t.Helper()
	event, err := shiprocket.ParseWebhookEvent([]byte(body))
	if err != nil {
		t.Fatalf("parse webhook event failed: %v", err)
	}
	return event
}

func TestHandleWebhookPickupMovesConfirmedToProcessing(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-1001", constants.OrderStatusConfirmed, nil)

	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{
		"order_id": "BA-1001",
		"sr_shipment_id": 9001,
		"shipment_status": "PICKUP_SCHEDULED",
		"awb": "AWB123",
		"courier_name": "Delhivery",
		"edd": "2026-10-22",
		"pickup_date": "2026-10-19"
	}`))
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if !result.StatusChanged || result.Status != constants.OrderStatusProcessing || result.PreviousStatus != constants.OrderStatusConfirmed {
		t.Fatalf("unexpected result: %+v", result)
	}

	got := f.reload(t, order.ID)
	if got.Status != constants.OrderStatusProcessing || got.Version != 2 {
		t.Fatalf("unexpected order state: status=%s version=%d", got.Status, got.Version)
	}
	if got.TrackingNumber != "AWB123" || got.TrackingURL != "https://shiprocket.co/tracking/AWB123" {
		t.Fatalf("tracking not denormalized: %s %s", got.TrackingNumber, got.TrackingURL)
	}
	mirror := got.Shiprocket
	if mirror.ShipmentStatus != "PICKUP_SCHEDULED" || mirror.AWBCode != "AWB123" || mirror.CourierName != "Delhivery" {
		t.Fatalf("unexpected mirror: %+v", mirror)
	}
	if mirror.EstimatedDeliveryDate != "2026-10-22" || mirror.PickupScheduledDate != "2026-10-19" {
		t.Fatalf("optional mirror fields missing: %+v", mirror)
	}
	if mirror.LastSyncedAt == nil || mirror.LastSyncedAt.Unix() != shipmentTestNow.Unix() {
		t.Fatalf("last synced not set: %v", mirror.LastSyncedAt)
	}

	rows := f.history(t, order.ID)
	if len(rows) != 1 {
		t.Fatalf("want 1 history row got %d", len(rows))
	}
	if rows[0].Status != constants.OrderStatusProcessing || rows[0].Note != "Shiprocket: PICKUP_SCHEDULED" || rows[0].Source != constants.StatusSourceWebhook {
		t.Fatalf("unexpected history row: %+v", rows[0])
	}
	if len(f.notifier.statuses) != 0 {
		t.Fatalf("processing must not notify the customer")
	}
}

func TestHandleWebhookShippedSetsShippedAtOnce(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-2001", constants.OrderStatusProcessing, nil)

	if _, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-2001","sr_shipment_id":"S1","shipment_status":"in_transit","awb":"AWB2"}`)); err != nil {
		t.Fatalf("first webhook failed: %v", err)
	}
	got := f.reload(t, order.ID)
	if got.Status != constants.OrderStatusShipped || got.ShippedAt == nil {
		t.Fatalf("order should be shipped with shipped_at: %+v", got)
	}
	firstShippedAt := got.ShippedAt.Unix()
	if len(f.notifier.statuses) != 1 || f.notifier.statuses[0] != constants.OrderStatusShipped {
		t.Fatalf("shipped notification expected: %+v", f.notifier.statuses)
	}
	if f.notifier.orders[0].Status != constants.OrderStatusShipped {
		t.Fatalf("notification snapshot should carry the new status")
	}

	f.svc.now = func() time.Time { return shipmentTestNow.Add(2 * time.Hour) }
	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-2001","sr_shipment_id":"S1","shipment_status":"OUT_FOR_DELIVERY"}`))
	if err != nil {
		t.Fatalf("second webhook failed: %v", err)
	}
	if result.StatusChanged {
		t.Fatalf("shipped -> shipped must not count as change")
	}
	got = f.reload(t, order.ID)
	if got.ShippedAt == nil || got.ShippedAt.Unix() != firstShippedAt {
		t.Fatalf("shipped_at must not be overwritten")
	}
	if got.Shiprocket.ShipmentStatus != "OUT_FOR_DELIVERY" || got.Shiprocket.AWBCode != "AWB2" || got.TrackingNumber != "AWB2" {
		t.Fatalf("mirror should update without nulling awb: %+v", got.Shiprocket)
	}
	if rows := f.history(t, order.ID); len(rows) != 1 {
		t.Fatalf("want 1 history row got %d", len(rows))
	}
	if len(f.notifier.statuses) != 1 {
		t.Fatalf("no second notification expected")
	}
}

func TestHandleWebhookDeliveredTwiceSetsDeliveredAtOnce(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-2101", constants.OrderStatusShipped, nil)

	if _, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-2101","sr_shipment_id":"S21","shipment_status":"DELIVERED","awb":"AWB21"}`)); err != nil {
		t.Fatalf("first webhook failed: %v", err)
	}
	got := f.reload(t, order.ID)
	if got.Status != constants.OrderStatusDelivered || got.DeliveredAt == nil {
		t.Fatalf("order should be delivered with delivered_at: %+v", got)
	}
	firstDeliveredAt := got.DeliveredAt.Unix()

	f.svc.now = func() time.Time { return shipmentTestNow.Add(3 * time.Hour) }
	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-2101","sr_shipment_id":"S21","shipment_status":"DELIVERED"}`))
	if err != nil {
		t.Fatalf("second webhook failed: %v", err)
	}
	if result.StatusChanged || result.Status != constants.OrderStatusDelivered {
		t.Fatalf("delivered -> delivered must not count as change: %+v", result)
	}
	got = f.reload(t, order.ID)
	if got.DeliveredAt == nil || got.DeliveredAt.Unix() != firstDeliveredAt {
		t.Fatalf("delivered_at must not be overwritten")
	}
	if rows := f.history(t, order.ID); len(rows) != 1 {
		t.Fatalf("want 1 history row got %d", len(rows))
	}
	if len(f.notifier.statuses) != 1 || f.notifier.statuses[0] != constants.OrderStatusDelivered {
		t.Fatalf("exactly one delivered notification expected: %+v", f.notifier.statuses)
	}
}

func TestHandleWebhookSkippedNotificationIsNotReported(t *testing.T) {
	f := setupShipmentSyncTest(t)
	f.notifier.err = ErrShipmentNotifySkipped
	order := f.createOrder(t, "BA-2201", constants.OrderStatusProcessing, nil)

	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-2201","sr_shipment_id":"S22","shipment_status":"IN_TRANSIT"}`))
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if !result.StatusChanged || result.Notified {
		t.Fatalf("skipped notification must not be reported as sent: %+v", result)
	}
	if len(f.notifier.statuses) != 1 {
		t.Fatalf("notifier should still be asked once: %+v", f.notifier.statuses)
	}
	if got := f.reload(t, order.ID); got.Status != constants.OrderStatusShipped {
		t.Fatalf("status should be committed")
	}
}

func TestHandleWebhookDeliveredFromPending(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-3001", constants.OrderStatusPending, nil)

	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-3001","sr_shipment_id":"S3","shipment_status":"DELIVERED","delivered_date":"2026-10-18 09:00"}`))
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if result.Status != constants.OrderStatusDelivered || !result.Notified {
		t.Fatalf("unexpected result: %+v", result)
	}
	got := f.reload(t, order.ID)
	if got.DeliveredAt == nil || got.ShippedAt != nil {
		t.Fatalf("delivered_at should be set and shipped_at untouched: %+v", got)
	}
	if got.Shiprocket.DeliveredDate != "2026-10-18 09:00" {
		t.Fatalf("delivered date not mirrored: %+v", got.Shiprocket)
	}
}

func TestHandleWebhookUnknownStatusOnlyUpdatesMirror(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-4001", constants.OrderStatusShipped, func(o *models.Order) {
		o.TrackingNumber = "AWB4"
		o.Shiprocket.AWBCode = "AWB4"
		o.Shiprocket.CourierName = "BlueDart"
		o.Shiprocket.EstimatedDeliveryDate = "2026-10-25"
	})

	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-4001","sr_shipment_id":"S4","shipment_status":"REACHED_DESTINATION_HUB"}`))
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if result.StatusChanged {
		t.Fatalf("unknown status must not change order status")
	}
	got := f.reload(t, order.ID)
	if got.Status != constants.OrderStatusShipped || got.Version != 2 {
		t.Fatalf("unexpected order: status=%s version=%d", got.Status, got.Version)
	}
	if got.Shiprocket.ShipmentStatus != "REACHED_DESTINATION_HUB" {
		t.Fatalf("mirror status not updated: %+v", got.Shiprocket)
	}
	if got.Shiprocket.AWBCode != "AWB4" || got.Shiprocket.CourierName != "BlueDart" || got.Shiprocket.EstimatedDeliveryDate != "2026-10-25" || got.TrackingNumber != "AWB4" {
		t.Fatalf("absent fields must not be nulled: %+v", got)
	}
	if rows := f.history(t, order.ID); len(rows) != 0 {
		t.Fatalf("no history expected, got %d", len(rows))
	}
}

func TestHandleWebhookOrderNotFound(t *testing.T) {
	f := setupShipmentSyncTest(t)
	f.createOrder(t, "BA-5001", constants.OrderStatusConfirmed, nil)

	_, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"ba-5001","sr_shipment_id":"S5","shipment_status":"DELIVERED"}`))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}
	if len(f.alerter.alerts) != 0 {
		t.Fatalf("not found must not alert")
	}
}

func TestHandleWebhookMissingStatusReportsFailure(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-6001", constants.OrderStatusConfirmed, nil)
	before := testutil.ToFloat64(metrics.SyncFailures.WithLabelValues(constants.AlertStageParse))

	_, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-6001","sr_shipment_id":"S6","awb":"AWB6"}`))
	if !errors.Is(err, ErrShipmentStatusMissing) {
		t.Fatalf("want ErrShipmentStatusMissing got %v", err)
	}
	if delta := testutil.ToFloat64(metrics.SyncFailures.WithLabelValues(constants.AlertStageParse)) - before; delta != 1 {
		t.Fatalf("want failure metric delta 1 got %v", delta)
	}
	if len(f.alerter.alerts) != 1 || f.alerter.alerts[0].OrderNumber != "BA-6001" {
		t.Fatalf("alert expected: %+v", f.alerter.alerts)
	}
	if got := f.reload(t, order.ID); got.Version != 1 || got.TrackingNumber != "" {
		t.Fatalf("order must be untouched: %+v", got)
	}
}

func TestHandleWebhookNotifierFailureIsIsolated(t *testing.T) {
	f := setupShipmentSyncTest(t)
	f.notifier.err = errors.New("queue down")
	order := f.createOrder(t, "BA-7001", constants.OrderStatusProcessing, nil)

	result, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-7001","sr_shipment_id":"S7","shipment_status":"PICKUP_COMPLETE"}`))
	if err != nil {
		t.Fatalf("notifier failure must not fail the sync: %v", err)
	}
	if result.Notified || result.Status != constants.OrderStatusShipped {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := f.reload(t, order.ID); got.Status != constants.OrderStatusShipped {
		t.Fatalf("status should be committed")
	}
}

func TestApplyReplansAfterVersionConflict(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-8001", constants.OrderStatusConfirmed, nil)
	stale := f.reload(t, order.ID)

	// 另一个写入者先把订单推进到 shipped
	if err := f.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":  constants.OrderStatusShipped,
		"version": 2,
	}).Error; err != nil {
		t.Fatalf("concurrent update failed: %v", err)
	}
	before := testutil.ToFloat64(metrics.SyncConflicts)

	result, err := f.svc.apply(context.Background(), stale, ShipmentUpdate{
		CourierStatus: "IN_TRANSIT",
		Source:        constants.StatusSourceWebhook,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Attempts != 2 {
		t.Fatalf("want 2 attempts got %d", result.Attempts)
	}
	if result.StatusChanged {
		t.Fatalf("replanned update must see shipped and skip the transition")
	}
	if delta := testutil.ToFloat64(metrics.SyncConflicts) - before; delta != 1 {
		t.Fatalf("want conflict metric delta 1 got %v", delta)
	}
	got := f.reload(t, order.ID)
	if got.Version != 3 || got.Status != constants.OrderStatusShipped {
		t.Fatalf("unexpected order: status=%s version=%d", got.Status, got.Version)
	}
	if rows := f.history(t, order.ID); len(rows) != 0 {
		t.Fatalf("no duplicate history expected, got %d", len(rows))
	}
}

func TestApplyGivesUpAfterMaxAttempts(t *testing.T) {
	f := setupShipmentSyncTest(t)
	f.svc.opts.MaxAttempts = 1
	order := f.createOrder(t, "BA-8101", constants.OrderStatusConfirmed, nil)
	stale := *order
	stale.Version = 7

	_, err := f.svc.apply(context.Background(), &stale, ShipmentUpdate{CourierStatus: "DELIVERED", Source: constants.StatusSourceWebhook})
	if !errors.Is(err, ErrOrderVersionConflict) {
		t.Fatalf("want ErrOrderVersionConflict got %v", err)
	}
	if len(f.alerter.alerts) != 1 || f.alerter.alerts[0].Stage != constants.AlertStageApply {
		t.Fatalf("apply alert expected: %+v", f.alerter.alerts)
	}
	if got := f.reload(t, order.ID); got.Status != constants.OrderStatusConfirmed || got.Version != 1 {
		t.Fatalf("order must be untouched: %+v", got)
	}
}

func TestResyncOrder(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-9001", constants.OrderStatusShipped, func(o *models.Order) {
		o.Shiprocket.AWBCode = "AWB9"
		o.TrackingNumber = "AWB9"
	})
	f.tracker.result = &shiprocket.TrackingResult{
		AWB:           "AWB9",
		CurrentStatus: "Delivered",
		CourierName:   "Xpressbees",
		DeliveredDate: "2026-10-18",
	}

	result, err := f.svc.ResyncOrder(context.Background(), "BA-9001")
	if err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	if result.Status != constants.OrderStatusDelivered {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(f.tracker.awbs) != 1 || f.tracker.awbs[0] != "AWB9" {
		t.Fatalf("tracker should be queried by awb: %+v", f.tracker.awbs)
	}
	rows := f.history(t, order.ID)
	if len(rows) != 1 || rows[0].Source != constants.StatusSourceResync || rows[0].Note != "Shiprocket: DELIVERED" {
		t.Fatalf("unexpected history: %+v", rows)
	}
	if got := f.reload(t, order.ID); got.Shiprocket.CourierName != "Xpressbees" {
		t.Fatalf("courier not mirrored: %+v", got.Shiprocket)
	}
}

func TestResyncOrderErrors(t *testing.T) {
	f := setupShipmentSyncTest(t)
	f.createOrder(t, "BA-9101", constants.OrderStatusProcessing, nil)
	f.createOrder(t, "BA-9102", constants.OrderStatusProcessing, func(o *models.Order) {
		o.Shiprocket.AWBCode = "AWB9102"
	})

	if _, err := f.svc.ResyncOrder(context.Background(), "BA-0000"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}
	if _, err := f.svc.ResyncOrder(context.Background(), "BA-9101"); !errors.Is(err, ErrShipmentAWBMissing) {
		t.Fatalf("want ErrShipmentAWBMissing got %v", err)
	}

	f.tracker.err = shiprocket.ErrRequestFailed
	if _, err := f.svc.ResyncOrder(context.Background(), "BA-9102"); !errors.Is(err, ErrShipmentSyncFailed) {
		t.Fatalf("want ErrShipmentSyncFailed got %v", err)
	}
	if len(f.alerter.alerts) != 1 || f.alerter.alerts[0].Stage != constants.AlertStageResync {
		t.Fatalf("resync alert expected: %+v", f.alerter.alerts)
	}

	f.svc.tracker = nil
	if _, err := f.svc.ResyncOrder(context.Background(), "BA-9102"); !errors.Is(err, ErrShiprocketDisabled) {
		t.Fatalf("want ErrShiprocketDisabled got %v", err)
	}
}

func TestEnqueueStaleResyncsRunsInlineWithoutQueue(t *testing.T) {
	f := setupShipmentSyncTest(t)
	f.svc.opts.ResyncStaleAfter = time.Hour
	old := shipmentTestNow.Add(-3 * time.Hour)
	fresh := shipmentTestNow.Add(-10 * time.Minute)
	f.createOrder(t, "BA-9201", constants.OrderStatusShipped, func(o *models.Order) {
		o.Shiprocket.AWBCode = "AWB-OLD"
		o.Shiprocket.LastSyncedAt = &old
	})
	f.createOrder(t, "BA-9202", constants.OrderStatusShipped, func(o *models.Order) {
		o.Shiprocket.AWBCode = "AWB-FRESH"
		o.Shiprocket.LastSyncedAt = &fresh
	})
	f.createOrder(t, "BA-9203", constants.OrderStatusDelivered, func(o *models.Order) {
		o.Shiprocket.AWBCode = "AWB-DONE"
		o.Shiprocket.LastSyncedAt = &old
	})
	f.tracker.result = &shiprocket.TrackingResult{AWB: "AWB-OLD", CurrentStatus: "Out For Delivery"}

	scheduled, err := f.svc.EnqueueStaleResyncs(context.Background())
	if err != nil {
		t.Fatalf("enqueue stale resyncs failed: %v", err)
	}
	if scheduled != 1 {
		t.Fatalf("want 1 scheduled got %d", scheduled)
	}
	if len(f.tracker.awbs) != 1 || f.tracker.awbs[0] != "AWB-OLD" {
		t.Fatalf("only the stale in-flight order should be tracked: %+v", f.tracker.awbs)
	}
}

func TestGetShipment(t *testing.T) {
	f := setupShipmentSyncTest(t)
	order := f.createOrder(t, "BA-9301", constants.OrderStatusConfirmed, nil)
	if _, err := f.svc.HandleWebhook(context.Background(), webhookEvent(t, `{"order_id":"BA-9301","sr_shipment_id":"S","shipment_status":"PICKUP_QUEUED"}`)); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}

	detail, err := f.svc.GetShipment("BA-9301", 1, 20)
	if err != nil {
		t.Fatalf("get shipment failed: %v", err)
	}
	if detail.Order.ID != order.ID || detail.HistoryTotal != 1 || len(detail.History) != 1 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if _, err := f.svc.GetShipment("BA-missing", 1, 20); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}
}
