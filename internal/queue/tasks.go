package queue

import (
	"encoding/json"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderShipmentEmail 发货/签收邮件通知任务
	TaskOrderShipmentEmail = constants.TaskOrderShipmentEmail
	// TaskShipmentResync 物流状态补偿同步任务
	TaskShipmentResync = constants.TaskShipmentResync
	// TaskNotificationDispatch 运营异常告警任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// OrderShipmentEmailPayload 发货邮件任务载荷
type OrderShipmentEmailPayload struct {
	OrderID     uint                   `json:"order_id"`
	OrderNumber string                 `json:"order_number"`
	Status      string                 `json:"status"`
	Event       map[string]interface{} `json:"event,omitempty"`
}

// ShipmentResyncPayload 补偿同步任务载荷
type ShipmentResyncPayload struct {
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason,omitempty"`
}

// NotificationDispatchPayload 告警任务载荷
type NotificationDispatchPayload struct {
	EventType string                 `json:"event_type"`
	BizType   string                 `json:"biz_type"`
	BizID     uint                   `json:"biz_id"`
	Force     bool                   `json:"force,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewOrderShipmentEmailTask 创建发货邮件任务
func NewOrderShipmentEmailTask(payload OrderShipmentEmailPayload) (*asynq.Task, error) {
	return newJSONTask(TaskOrderShipmentEmail, payload)
}

// NewShipmentResyncTask 创建补偿同步任务
func NewShipmentResyncTask(payload ShipmentResyncPayload) (*asynq.Task, error) {
	return newJSONTask(TaskShipmentResync, payload)
}

// NewNotificationDispatchTask 创建告警任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	return newJSONTask(TaskNotificationDispatch, payload)
}

func newJSONTask(name string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(name, body), nil
}
