// 手动触发一次过期扫描
//
// The running server sweeps on its own schedule. This is for operations
// after downtime, when expired tests should be closed and reported now.
//
// 用法: go run scripts/sweep_once.go [-config configs]

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/service"
	"blueprep_backend/pkg/database"
	"blueprep_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != "mysql" {
		log.Fatalf("sweep_once needs the mysql driver, got %q", cfg.Database.Driver)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	store := repository.NewGormStore(db)

	operators := service.NewOperatorSet(cfg.Admin.Operators)
	lifecycle := service.NewLifecycleService(store, operators)
	leaderboard := service.NewLeaderboardService(store, store, nil, 0)
	publisher := service.NewReportPublisher(leaderboard, service.NewStorageService(cfg),
		service.NewDeliverer(&cfg.Notify), operators, cfg.Notify.Concurrency)
	sweeper := service.NewExpirySweeper(store, lifecycle, publisher)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary := sweeper.RunOnce(ctx, time.Now())
	log.Printf("due=%d ended=%d skipped=%d reported=%d empty=%d failed=%d",
		summary.Due, summary.Ended, summary.Skipped, summary.Reported, summary.Empty, summary.Failed)
}
