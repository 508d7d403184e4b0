package shiprocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrWebhookBodyInvalid  = errors.New("shiprocket webhook body invalid")
	ErrWebhookFieldMissing = errors.New("shiprocket webhook required field missing")
)

// WebhookEvent Shiprocket 物流推送事件
type WebhookEvent struct {
	OrderID        string
	ShipmentID     string
	ShipmentStatus string
	CurrentStatus  string
	AWB            string
	CourierName    string
	EDD            string
	PickupDate     string
	DeliveredDate  string
	Raw            map[string]interface{}
}

// ParseWebhookEvent 解析推送报文，缺少 order_id 或 sr_shipment_id 时返回 ErrWebhookFieldMissing
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrWebhookBodyInvalid)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookBodyInvalid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: body is not an object", ErrWebhookBodyInvalid)
	}
	return EventFromMap(raw)
}

// EventFromMap 从已解码的报文构建事件
func EventFromMap(raw map[string]interface{}) (*WebhookEvent, error) {
	if !isPresent(raw["order_id"]) || !isPresent(raw["sr_shipment_id"]) {
		return nil, fmt.Errorf("%w: order_id and sr_shipment_id are required", ErrWebhookFieldMissing)
	}
	return &WebhookEvent{
		OrderID:        readString(raw, "order_id"),
		ShipmentID:     readString(raw, "sr_shipment_id"),
		ShipmentStatus: readString(raw, "shipment_status"),
		CurrentStatus:  readString(raw, "current_status"),
		AWB:            strings.TrimSpace(readString(raw, "awb")),
		CourierName:    readString(raw, "courier_name"),
		EDD:            readString(raw, "edd"),
		PickupDate:     readString(raw, "pickup_date"),
		DeliveredDate:  readString(raw, "delivered_date"),
		Raw:            raw,
	}, nil
}

// HasShipmentStatus 报文是否携带 shipment_status
func (e *WebhookEvent) HasShipmentStatus() bool {
	return e != nil && strings.TrimSpace(e.ShipmentStatus) != ""
}

// isPresent 缺失、null、空串、0、false 视为未提供
func isPresent(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case float64:
		return v != 0
	case bool:
		return v
	default:
		return true
	}
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	switch v := raw[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
