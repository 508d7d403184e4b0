package shiprocket

import (
	"strings"

	"github.com/storefront-next/internal/constants"
)

// 快递状态码（Shiprocket shipment_status）
const (
	CourierStatusPickupScheduled = "PICKUP_SCHEDULED"
	CourierStatusPickupQueued    = "PICKUP_QUEUED"
	CourierStatusPickupComplete  = "PICKUP_COMPLETE"
	CourierStatusInTransit       = "IN_TRANSIT"
	CourierStatusOutForDelivery  = "OUT_FOR_DELIVERY"
	CourierStatusDelivered       = "DELIVERED"
	CourierStatusCancelled       = "CANCELLED"
	CourierStatusRTOInitiated    = "RTO_INITIATED"
	CourierStatusRTODelivered    = "RTO_DELIVERED"
)

const defaultTrackingURLBase = "https://shiprocket.co/tracking/"

// NormalizeCourierStatus 规范化快递状态码（去空白并转大写）
func NormalizeCourierStatus(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NextOrderStatus 根据当前订单状态与快递状态计算目标状态。
// 第二个返回值为 false 表示状态不变（未知状态码或守卫条件不满足）。
func NextOrderStatus(current constants.OrderStatus, courierStatus string) (constants.OrderStatus, bool) {
	switch NormalizeCourierStatus(courierStatus) {
	case CourierStatusPickupScheduled, CourierStatusPickupQueued:
		if current == constants.OrderStatusConfirmed || current == constants.OrderStatusPending {
			return constants.OrderStatusProcessing, true
		}
	case CourierStatusPickupComplete, CourierStatusInTransit, CourierStatusOutForDelivery:
		if current != constants.OrderStatusShipped && current != constants.OrderStatusDelivered {
			return constants.OrderStatusShipped, true
		}
	case CourierStatusDelivered:
		if current != constants.OrderStatusDelivered {
			return constants.OrderStatusDelivered, true
		}
	case CourierStatusCancelled, CourierStatusRTOInitiated, CourierStatusRTODelivered:
		if current != constants.OrderStatusCancelled {
			return constants.OrderStatusCancelled, true
		}
	}
	return current, false
}

// IsKnownCourierStatus 是否为可映射的快递状态码
func IsKnownCourierStatus(raw string) bool {
	switch NormalizeCourierStatus(raw) {
	case CourierStatusPickupScheduled, CourierStatusPickupQueued,
		CourierStatusPickupComplete, CourierStatusInTransit, CourierStatusOutForDelivery,
		CourierStatusDelivered,
		CourierStatusCancelled, CourierStatusRTOInitiated, CourierStatusRTODelivered:
		return true
	default:
		return false
	}
}

// StatusNote 状态历史备注
func StatusNote(rawCourierStatus string) string {
	return "Shiprocket: " + rawCourierStatus
}

// TrackingURL 根据运单号生成公开跟踪链接
func TrackingURL(base, awb string) string {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return ""
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = defaultTrackingURLBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + awb
}

// LabelToCourierStatus 将跟踪接口返回的展示文案转为状态码（"In Transit" -> IN_TRANSIT）
func LabelToCourierStatus(label string) string {
	normalized := NormalizeCourierStatus(label)
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for strings.Contains(normalized, "__") {
		normalized = strings.ReplaceAll(normalized, "__", "_")
	}
	switch normalized {
	case "CANCELED":
		return CourierStatusCancelled
	case "PICKED_UP":
		return CourierStatusPickupComplete
	}
	return normalized
}
