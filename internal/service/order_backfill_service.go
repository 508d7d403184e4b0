package service

import (
	"context"
	"strings"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/repository"
)

const defaultBackfillBatchSize = 200

// OrderBackfillReport 回填结果统计
type OrderBackfillReport struct {
	Scanned   int  `json:"scanned"`
	Linked    int  `json:"linked"`
	Unmatched int  `json:"unmatched"`
	Skipped   int  `json:"skipped"`
	DryRun    bool `json:"dry_run"`
}

// OrderBackfillService 按下单邮箱为历史订单关联用户
type OrderBackfillService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	batchSize int
}

// NewOrderBackfillService 创建回填服务
func NewOrderBackfillService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, batchSize int) *OrderBackfillService {
	if batchSize <= 0 {
		batchSize = defaultBackfillBatchSize
	}
	return &OrderBackfillService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		batchSize: batchSize,
	}
}

// LinkUsersByEmail 遍历未关联用户的订单，邮箱忽略大小写匹配。
// dryRun 为 true 时只统计不写入。
func (s *OrderBackfillService) LinkUsersByEmail(ctx context.Context, dryRun bool) (*OrderBackfillReport, error) {
	report := &OrderBackfillReport{DryRun: dryRun}
	var cursor uint
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		orders, err := s.orderRepo.ListWithoutUser(cursor, s.batchSize)
		if err != nil {
			return report, err
		}
		if len(orders) == 0 {
			return report, nil
		}
		for _, order := range orders {
			cursor = order.ID
			report.Scanned++
			email := strings.TrimSpace(order.CustomerEmail)
			if email == "" {
				report.Unmatched++
				continue
			}
			user, err := s.userRepo.GetByEmail(email)
			if err != nil {
				return report, err
			}
			if user == nil {
				report.Unmatched++
				continue
			}
			if dryRun {
				report.Linked++
				continue
			}
			linked, err := s.orderRepo.LinkUser(order.ID, user.ID)
			if err != nil {
				return report, err
			}
			if !linked {
				report.Skipped++
				continue
			}
			report.Linked++
			logger.Debugw("order_user_linked", "order_number", order.OrderNumber, "user_id", user.ID)
		}
	}
}
