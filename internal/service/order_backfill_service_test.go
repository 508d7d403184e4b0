package service

import (
	"context"
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

func TestOrderBackfillLinksUsersByEmail(t *testing.T) {
	f := setupShipmentSyncTest(t)
	userRepo := repository.NewUserRepository(f.db)
	user := &models.User{Email: "Asha@Example.com", DisplayName: "Asha"}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	other := &models.User{Email: "other@example.com"}
	if err := userRepo.Create(other); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	matched := f.createOrder(t, "BF-1", constants.OrderStatusConfirmed, func(o *models.Order) {
		o.CustomerEmail = " asha@example.COM "
	})
	f.createOrder(t, "BF-2", constants.OrderStatusConfirmed, func(o *models.Order) {
		o.CustomerEmail = "nobody@example.com"
	})
	f.createOrder(t, "BF-3", constants.OrderStatusConfirmed, func(o *models.Order) {
		o.CustomerEmail = ""
	})
	linkedAlready := f.createOrder(t, "BF-4", constants.OrderStatusConfirmed, func(o *models.Order) {
		o.CustomerEmail = "asha@example.com"
		o.UserID = &other.ID
	})

	svc := NewOrderBackfillService(f.repo, userRepo, 2)
	dry, err := svc.LinkUsersByEmail(context.Background(), true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if dry.Scanned != 3 || dry.Linked != 1 || dry.Unmatched != 2 || !dry.DryRun {
		t.Fatalf("unexpected dry run report: %+v", dry)
	}
	if got := f.reload(t, matched.ID); got.UserID != nil {
		t.Fatalf("dry run must not write")
	}

	report, err := svc.LinkUsersByEmail(context.Background(), false)
	if err != nil {
		t.Fatalf("backfill failed: %v", err)
	}
	if report.Linked != 1 || report.Unmatched != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	got := f.reload(t, matched.ID)
	if got.UserID == nil || *got.UserID != user.ID || got.Version != 2 {
		t.Fatalf("order should be linked with bumped version: %+v", got)
	}
	if kept := f.reload(t, linkedAlready.ID); kept.UserID == nil || *kept.UserID != other.ID {
		t.Fatalf("already linked order must keep its user")
	}
}
