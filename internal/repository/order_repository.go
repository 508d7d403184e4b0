package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	ResolveReceiverEmailByOrderID(orderID uint) (string, error)
	UpdateWithVersion(id uint, expectedVersion uint, updates map[string]interface{}) (bool, error)
	AppendStatusHistory(entry *models.OrderStatusHistory) error
	ListStatusHistory(orderID uint, page, pageSize int) ([]models.OrderStatusHistory, int64, error)
	ListStaleShipments(filter StaleShipmentFilter) ([]models.Order, error)
	ListWithoutUser(afterID uint, limit int) ([]models.Order, error)
	LinkUser(orderID uint, userID uint) (bool, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// StaleShipmentFilter 待补偿同步订单的过滤条件
type StaleShipmentFilter struct {
	Statuses     []constants.OrderStatus
	SyncedBefore time.Time
	Limit        int
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNumber 按订单编号精确查找（区分大小写）
func (r *GormOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_number = ?", orderNumber).Take(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ResolveReceiverEmailByOrderID 根据订单 ID 解析状态通知的收件邮箱，优先使用关联用户邮箱
func (r *GormOrderRepository) ResolveReceiverEmailByOrderID(orderID uint) (string, error) {
	if orderID == 0 {
		return "", nil
	}

	var orderRow struct {
		UserID        *uint
		CustomerEmail string
	}
	if err := r.db.Model(&models.Order{}).
		Select("user_id", "customer_email").
		Where("id = ?", orderID).
		Take(&orderRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if orderRow.UserID == nil || *orderRow.UserID == 0 {
		return strings.TrimSpace(orderRow.CustomerEmail), nil
	}

	var userRow struct {
		Email string
	}
	if err := r.db.Model(&models.User{}).
		Select("email").
		Where("id = ?", *orderRow.UserID).
		Take(&userRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return strings.TrimSpace(orderRow.CustomerEmail), nil
		}
		return "", err
	}
	if email := strings.TrimSpace(userRow.Email); email != "" {
		return email, nil
	}
	return strings.TrimSpace(orderRow.CustomerEmail), nil
}

// UpdateWithVersion 版本号比较写入，版本不匹配时返回 false 且不修改数据
func (r *GormOrderRepository) UpdateWithVersion(id uint, expectedVersion uint, updates map[string]interface{}) (bool, error) {
	if id == 0 {
		return false, nil
	}
	values := make(map[string]interface{}, len(updates)+1)
	for key, value := range updates {
		values[key] = value
	}
	values["version"] = gorm.Expr("version + 1")
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AppendStatusHistory 追加状态历史
func (r *GormOrderRepository) AppendStatusHistory(entry *models.OrderStatusHistory) error {
	if entry == nil {
		return nil
	}
	return r.db.Create(entry).Error
}

// ListStatusHistory 按写入顺序列出状态历史
func (r *GormOrderRepository) ListStatusHistory(orderID uint, page, pageSize int) ([]models.OrderStatusHistory, int64, error) {
	var total int64
	if err := r.db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", orderID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrderStatusHistory
	query := r.db.Where("order_id = ?", orderID).Order("id asc")
	if err := applyPagination(query, page, pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListStaleShipments 列出有运单号且长时间未同步的订单
func (r *GormOrderRepository) ListStaleShipments(filter StaleShipmentFilter) ([]models.Order, error) {
	query := r.db.Model(&models.Order{}).
		Where("shiprocket_awb_code <> ''").
		Where("(shiprocket_last_synced_at IS NULL OR shiprocket_last_synced_at < ?)", filter.SyncedBefore)
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var orders []models.Order
	if err := query.Order("shiprocket_last_synced_at asc").Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListWithoutUser 按 ID 游标列出未关联用户的订单
func (r *GormOrderRepository) ListWithoutUser(afterID uint, limit int) ([]models.Order, error) {
	query := r.db.Model(&models.Order{}).
		Where("id > ?", afterID).
		Where("(user_id IS NULL OR user_id = 0)").
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// LinkUser 关联用户，已关联的订单保持不变
func (r *GormOrderRepository) LinkUser(orderID uint, userID uint) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND (user_id IS NULL OR user_id = 0)", orderID).
		Updates(map[string]interface{}{
			"user_id": userID,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
