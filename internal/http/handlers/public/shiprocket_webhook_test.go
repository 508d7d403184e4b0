package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

type webhookFixture struct {
	engine *gin.Engine
	repo   *repository.GormOrderRepository
	cfg    *config.Config
}

func setupWebhookTest(t *testing.T, shiprocketCfg config.ShiprocketConfig) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_webhook_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderStatusHistory{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	repo := repository.NewOrderRepository(db)
	cfg := &config.Config{Shiprocket: shiprocketCfg}
	container := &provider.Container{
		Config:      cfg,
		QueueClient: queueClient,
		OrderRepo:   repo,
		ShipmentSyncService: service.NewShipmentSyncService(repo, nil, nil, nil, queueClient, service.ShipmentSyncOptions{
			TrackingURLBase: "https://shiprocket.co/tracking/",
		}),
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(MethodNotAllowed)
	h := New(container)
	engine.POST("/shiprocketWebhook", h.ShiprocketWebhook)
	return &webhookFixture{engine: engine, repo: repo, cfg: cfg}
}

func (f *webhookFixture) createOrder(t *testing.T, orderNumber string, status constants.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{OrderNumber: orderNumber, Status: status, Currency: "INR"}
	if err := f.repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (f *webhookFixture) post(t *testing.T, token string, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/shiprocketWebhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-api-key", token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	payload := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
		}
	}
	return w, payload
}

func TestShiprocketWebhookAppliesStatus(t *testing.T) {
	f := setupWebhookTest(t, config.ShiprocketConfig{WebhookSecret: "sr-secret"})
	order := f.createOrder(t, "BA-2001", constants.OrderStatusConfirmed)
	before := testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues(metrics.OutcomeUpdated))

	w, body := f.post(t, "sr-secret", `{"order_id":"BA-2001","sr_shipment_id":991,"shipment_status":"in_transit","awb":"AWB-77","courier_name":"Delhivery"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", w.Code)
	}
	if body["success"] != true || body["orderId"] != "BA-2001" || body["status"] != "shipped" {
		t.Fatalf("unexpected body: %v", body)
	}
	if got := testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues(metrics.OutcomeUpdated)); got != before+1 {
		t.Fatalf("updated outcome counter want %v got %v", before+1, got)
	}

	reloaded, err := f.repo.GetByID(order.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusShipped || reloaded.TrackingNumber != "AWB-77" {
		t.Fatalf("unexpected order after webhook: %+v", reloaded)
	}
	if reloaded.Shiprocket.CourierName != "Delhivery" || reloaded.ShippedAt == nil {
		t.Fatalf("unexpected mirror after webhook: %+v", reloaded.Shiprocket)
	}
}

func TestShiprocketWebhookUnchangedStatusStillSucceeds(t *testing.T) {
	f := setupWebhookTest(t, config.ShiprocketConfig{WebhookSecret: "sr-secret"})
	f.createOrder(t, "BA-2002", constants.OrderStatusDelivered)

	w, body := f.post(t, "sr-secret", `{"order_id":"BA-2002","sr_shipment_id":"5","shipment_status":"IN_TRANSIT"}`)
	if w.Code != http.StatusOK || body["success"] != true || body["status"] != "delivered" {
		t.Fatalf("unexpected response: %d %v", w.Code, body)
	}
}

func TestShiprocketWebhookAuthorization(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ShiprocketConfig
		token    string
		wantCode int
	}{
		{name: "wrong_token", cfg: config.ShiprocketConfig{WebhookSecret: "sr-secret"}, token: "nope", wantCode: http.StatusUnauthorized},
		{name: "missing_token", cfg: config.ShiprocketConfig{WebhookSecret: "sr-secret"}, wantCode: http.StatusUnauthorized},
		{name: "no_secret_closed", cfg: config.ShiprocketConfig{}, token: "anything", wantCode: http.StatusUnauthorized},
		{name: "no_secret_open", cfg: config.ShiprocketConfig{AllowUnauthenticatedWebhook: true}, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupWebhookTest(t, tt.cfg)
			f.createOrder(t, "BA-2003", constants.OrderStatusConfirmed)
			w, body := f.post(t, tt.token, `{"order_id":"BA-2003","sr_shipment_id":"5","shipment_status":"PICKUP_SCHEDULED"}`)
			if w.Code != tt.wantCode {
				t.Fatalf("want %d got %d body=%v", tt.wantCode, w.Code, body)
			}
			if tt.wantCode == http.StatusUnauthorized && body["error"] != "Unauthorized" {
				t.Fatalf("unexpected unauthorized body: %v", body)
			}
		})
	}
}

func TestShiprocketWebhookRejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "invalid_json", body: `{"order_id":`, wantCode: http.StatusBadRequest, wantErr: "Invalid JSON body"},
		{name: "missing_shipment_id", body: `{"order_id":"BA-2004","shipment_status":"DELIVERED"}`, wantCode: http.StatusBadRequest, wantErr: "Missing required fields: order_id, sr_shipment_id"},
		{name: "missing_order_id", body: `{"sr_shipment_id":"1"}`, wantCode: http.StatusBadRequest, wantErr: "Missing required fields: order_id, sr_shipment_id"},
		{name: "unknown_order", body: `{"order_id":"BA-404","sr_shipment_id":"1","shipment_status":"DELIVERED"}`, wantCode: http.StatusNotFound, wantErr: "Order not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupWebhookTest(t, config.ShiprocketConfig{WebhookSecret: "sr-secret"})
			w, body := f.post(t, "sr-secret", tt.body)
			if w.Code != tt.wantCode || body["success"] != false || body["error"] != tt.wantErr {
				t.Fatalf("unexpected response: %d %v", w.Code, body)
			}
		})
	}
}

func TestShiprocketWebhookMissingStatusReturnsFailure(t *testing.T) {
	f := setupWebhookTest(t, config.ShiprocketConfig{WebhookSecret: "sr-secret"})
	order := f.createOrder(t, "BA-2005", constants.OrderStatusConfirmed)
	before := testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues(metrics.OutcomeFailed))

	w, body := f.post(t, "sr-secret", `{"order_id":"BA-2005","sr_shipment_id":"1"}`)
	if w.Code != http.StatusOK || body["success"] != false || body["error"] != "shipment_status is missing" {
		t.Fatalf("unexpected response: %d %v", w.Code, body)
	}
	if got := testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues(metrics.OutcomeFailed)); got != before+1 {
		t.Fatalf("failed outcome counter want %v got %v", before+1, got)
	}
	reloaded, _ := f.repo.GetByID(order.ID)
	if reloaded == nil || reloaded.Status != constants.OrderStatusConfirmed || reloaded.Shiprocket.LastSyncedAt != nil {
		t.Fatalf("order should be untouched: %+v", reloaded)
	}
}

func TestShiprocketWebhookMethodNotAllowed(t *testing.T) {
	f := setupWebhookTest(t, config.ShiprocketConfig{WebhookSecret: "sr-secret"})
	req := httptest.NewRequest(http.MethodGet, "/shiprocketWebhook", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405 got %d", w.Code)
	}
}
