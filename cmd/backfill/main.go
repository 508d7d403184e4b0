package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"
)

func main() {
	var dryRun bool
	var batchSize int
	flag.BoolVar(&dryRun, "dry-run", false, "只统计可关联的订单，不写入")
	flag.IntVar(&batchSize, "batch-size", 200, "每批扫描的订单数")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	backfill := service.NewOrderBackfillService(
		repository.NewOrderRepository(models.DB),
		repository.NewUserRepository(models.DB),
		batchSize,
	)
	report, err := backfill.LinkUsersByEmail(context.Background(), dryRun)
	if err != nil {
		stdLog.Fatalf("Backfill failed: %v", err)
	}

	encoded, _ := json.MarshalIndent(report, "", "  ")
	fmt.Fprintln(os.Stdout, string(encoded))
}
