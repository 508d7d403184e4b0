package constants

import "strings"

// OrderStatus 订单状态（封闭枚举）
type OrderStatus string

// 订单状态常量
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses 全部合法订单状态
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid 判断是否为合法状态
func (s OrderStatus) Valid() bool {
	for _, item := range OrderStatuses {
		if s == item {
			return true
		}
	}
	return false
}

// String 实现 fmt.Stringer
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus 解析订单状态
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", false
	}
	return status, true
}

// 状态历史来源常量
const (
	StatusSourceWebhook = "webhook"
	StatusSourceResync  = "resync"
)

// 通知事件常量
const (
	NotificationEventExceptionAlert = "exception_alert"
)

// 通知业务类型常量
const (
	NotificationBizTypeShipmentWebhook = "shipment_webhook"
	NotificationBizTypeShipmentResync  = "shipment_resync"
)

// 异常告警阶段常量
const (
	AlertStageLookup = "lookup"
	AlertStageParse  = "parse"
	AlertStageApply  = "apply"
	AlertStageResync = "resync"
)

// 队列常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskOrderShipmentEmail   = "order:shipment_email"
	TaskShipmentResync       = "shipment:resync"
	TaskNotificationDispatch = "notification:exception_alert"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sf"
)

// 缓存键常量
const (
	CacheKeyShiprocketToken    = "shiprocket:token"
	CacheKeyNotificationDedupe = "notification:dedupe:"
)

// 运营角色常量
const (
	OperatorRoleViewer   = "shipment_viewer"
	OperatorRoleOperator = "shipment_operator"
)
