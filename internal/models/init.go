package models

import (
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"

	"github.com/shopspring/decimal"
)

// SeedDemoData 初始化演示用户与订单（仅空库时写入）
func SeedDemoData() error {
	var count int64
	if err := DB.Model(&Order{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Infow("seed_demo_data_skipped", "orders", count)
		return nil
	}

	user := User{Email: "asha@example.com", DisplayName: "Asha"}
	if err := DB.Create(&user).Error; err != nil {
		return err
	}

	now := time.Now()
	orders := []Order{
		{
			OrderNumber:   "BA-1001",
			CustomerEmail: "asha@example.com",
			CustomerName:  "Asha",
			Status:        constants.OrderStatusConfirmed,
			Currency:      "INR",
			TotalAmount:   NewMoneyFromDecimal(decimal.NewFromInt(1499)),
		},
		{
			OrderNumber:   "BA-1002",
			CustomerEmail: "guest@example.com",
			CustomerName:  "Guest",
			Status:        constants.OrderStatusPending,
			Currency:      "INR",
			TotalAmount:   NewMoneyFromDecimal(decimal.NewFromFloat(899.5)),
		},
	}
	for i := range orders {
		if err := DB.Create(&orders[i]).Error; err != nil {
			return err
		}
		history := OrderStatusHistory{
			OrderID:   orders[i].ID,
			Status:    orders[i].Status,
			Note:      "Order placed",
			Source:    "seed",
			CreatedAt: now,
		}
		if err := DB.Create(&history).Error; err != nil {
			return err
		}
	}
	logger.Infow("seed_demo_data_created", "user_id", user.ID, "orders", len(orders))
	return nil
}
