package queue

import (
	"encoding/json"
	"testing"

	"github.com/storefront-next/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderShipmentEmail(OrderShipmentEmailPayload{OrderID: 1, Status: "shipped"}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueueNotificationDispatch(NotificationDispatchPayload{EventType: "exception_alert"}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
}

func TestNewOrderShipmentEmailTask(t *testing.T) {
	task, err := NewOrderShipmentEmailTask(OrderShipmentEmailPayload{
		OrderID:     7,
		OrderNumber: "BA-7",
		Status:      "delivered",
		Event:       map[string]interface{}{"awb": "AWB7"},
	})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderShipmentEmail {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var decoded OrderShipmentEmailPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded.OrderNumber != "BA-7" || decoded.Event["awb"] != "AWB7" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("unexpected concurrency: %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] == 0 || cfg.Queues[DefaultQueue] == 0 {
		t.Fatalf("default queues missing: %+v", cfg.Queues)
	}
}
