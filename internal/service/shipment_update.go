package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/shipping/shiprocket"
)

// ShipmentUpdate 一次物流状态输入（推送或主动查询）
type ShipmentUpdate struct {
	CourierStatus string
	AWB           string
	CourierName   string
	EDD           string
	PickupDate    string
	DeliveredDate string
	Source        string
	Raw           map[string]interface{}
}

// ShipmentUpdateFromWebhook 由推送事件构建输入
func ShipmentUpdateFromWebhook(event *shiprocket.WebhookEvent) ShipmentUpdate {
	if event == nil {
		return ShipmentUpdate{Source: constants.StatusSourceWebhook}
	}
	return ShipmentUpdate{
		CourierStatus: event.ShipmentStatus,
		AWB:           event.AWB,
		CourierName:   event.CourierName,
		EDD:           event.EDD,
		PickupDate:    event.PickupDate,
		DeliveredDate: event.DeliveredDate,
		Source:        constants.StatusSourceWebhook,
		Raw:           event.Raw,
	}
}

// ShipmentUpdateFromTracking 由跟踪查询结果构建输入，展示文案转为状态码
func ShipmentUpdateFromTracking(result *shiprocket.TrackingResult) ShipmentUpdate {
	if result == nil {
		return ShipmentUpdate{Source: constants.StatusSourceResync}
	}
	return ShipmentUpdate{
		CourierStatus: result.CourierStatus(),
		AWB:           strings.TrimSpace(result.AWB),
		CourierName:   result.CourierName,
		EDD:           result.EDD,
		PickupDate:    result.PickupDate,
		DeliveredDate: result.DeliveredDate,
		Source:        constants.StatusSourceResync,
		Raw:           result.Raw,
	}
}

// shipmentSyncPlan 单次写入计划
type shipmentSyncPlan struct {
	updates  map[string]interface{}
	previous constants.OrderStatus
	next     constants.OrderStatus
	changed  bool
	history  *models.OrderStatusHistory
}

// planShipmentSync 根据订单当前快照计算写入字段与历史记录，不访问存储。
// 输入中缺失的可选字段不写入，运单号与承运商缺失时沿用已有值。
func planShipmentSync(order *models.Order, update ShipmentUpdate, now time.Time, trackingURLBase string) shipmentSyncPlan {
	awb := strings.TrimSpace(update.AWB)
	courierName := strings.TrimSpace(update.CourierName)
	if awb == "" {
		awb = order.Shiprocket.AWBCode
	}
	if courierName == "" {
		courierName = order.Shiprocket.CourierName
	}

	updates := map[string]interface{}{
		"shiprocket_shipment_status": update.CourierStatus,
		"shiprocket_awb_code":        awb,
		"shiprocket_courier_name":    courierName,
		"shiprocket_last_synced_at":  now,
	}
	if inputAWB := strings.TrimSpace(update.AWB); inputAWB != "" {
		updates["tracking_number"] = inputAWB
		updates["tracking_url"] = shiprocket.TrackingURL(trackingURLBase, inputAWB)
	}
	if edd := strings.TrimSpace(update.EDD); edd != "" {
		updates["shiprocket_estimated_delivery_date"] = edd
	}
	if pickup := strings.TrimSpace(update.PickupDate); pickup != "" {
		updates["shiprocket_pickup_scheduled_date"] = pickup
	}
	if delivered := strings.TrimSpace(update.DeliveredDate); delivered != "" {
		updates["shiprocket_delivered_date"] = delivered
	}

	plan := shipmentSyncPlan{
		updates:  updates,
		previous: order.Status,
		next:     order.Status,
	}
	next, changed := shiprocket.NextOrderStatus(order.Status, update.CourierStatus)
	if !changed {
		return plan
	}

	plan.next = next
	plan.changed = true
	updates["status"] = next
	switch next {
	case constants.OrderStatusShipped:
		if order.ShippedAt == nil {
			updates["shipped_at"] = now
		}
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
	}
	plan.history = &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    next,
		Note:      shiprocket.StatusNote(update.CourierStatus),
		Source:    update.Source,
		CreatedAt: now,
	}
	return plan
}

// shouldNotifyShipmentStatus 仅发货与签收通知买家
func shouldNotifyShipmentStatus(status constants.OrderStatus) bool {
	return status == constants.OrderStatusShipped || status == constants.OrderStatusDelivered
}
