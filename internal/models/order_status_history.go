package models

import (
	"time"

	"github.com/storefront-next/internal/constants"
)

// OrderStatusHistory 订单状态历史（只追加）
type OrderStatusHistory struct {
	ID        uint                  `gorm:"primarykey" json:"id"`
	OrderID   uint                  `gorm:"index;not null" json:"order_id"`
	Status    constants.OrderStatus `gorm:"type:varchar(32);not null" json:"status"`
	Note      string                `gorm:"type:varchar(255)" json:"note"`
	Source    string                `gorm:"type:varchar(32)" json:"source"`
	CreatedAt time.Time             `gorm:"index" json:"timestamp"`
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
