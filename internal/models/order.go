package models

import (
	"time"

	"github.com/storefront-next/internal/constants"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint                  `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNumber    string                `gorm:"uniqueIndex;not null" json:"order_number"`                  // 订单编号（对外展示，不可变）
	UserID         *uint                 `gorm:"index" json:"user_id,omitempty"`                            // 关联用户
	CustomerEmail  string                `gorm:"index" json:"customer_email"`                               // 下单邮箱
	CustomerName   string                `gorm:"type:varchar(120)" json:"customer_name"`                    // 收件人
	Status         constants.OrderStatus `gorm:"type:varchar(32);index;not null" json:"status"`             // 订单状态
	Currency       string                `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`    // 币种
	TotalAmount    Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	TrackingNumber string                `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`         // 运单号
	TrackingURL    string                `gorm:"type:varchar(255)" json:"tracking_url,omitempty"`           // 物流跟踪链接
	Shiprocket     ShiprocketMirror      `gorm:"embedded;embeddedPrefix:shiprocket_" json:"shiprocket"`     // 物流镜像
	ShippedAt      *time.Time            `gorm:"index" json:"shipped_at"`                                   // 发货时间
	DeliveredAt    *time.Time            `gorm:"index" json:"delivered_at"`                                 // 签收时间
	Version        uint                  `gorm:"not null;default:1" json:"version"`                         // 乐观锁版本
	CreatedAt      time.Time             `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt      time.Time             `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt      gorm.DeletedAt        `gorm:"index" json:"-"`                                            // 软删除时间

	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
}

// ShiprocketMirror Shiprocket 物流状态镜像
type ShiprocketMirror struct {
	ShipmentStatus        string     `gorm:"type:varchar(64)" json:"shipment_status"`
	AWBCode               string     `gorm:"column:awb_code;type:varchar(64);index" json:"awb_code"`
	CourierName           string     `gorm:"type:varchar(120)" json:"courier_name"`
	EstimatedDeliveryDate string     `gorm:"type:varchar(64)" json:"estimated_delivery_date,omitempty"`
	PickupScheduledDate   string     `gorm:"type:varchar(64)" json:"pickup_scheduled_date,omitempty"`
	DeliveredDate         string     `gorm:"type:varchar(64)" json:"delivered_date,omitempty"`
	LastSyncedAt          *time.Time `gorm:"index" json:"last_synced_at"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
