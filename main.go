// @title BluePrep API
// @version 1.0
// @description Timed multiple-choice tests: lifecycle, submissions and leaderboards.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"blueprep_backend/internal/app"
	"blueprep_backend/internal/config"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	issueToken := flag.Int64("issue-token", 0, "print a JWT for this user id and exit")
	role := flag.String("role", util.RoleParticipant, "role claim for -issue-token")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *issueToken != 0 {
		token, err := util.GenerateJWT(*issueToken, *role, cfg.JWT.Secret, cfg.JWT.ExpireTime)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Fprintln(os.Stdout, token)
		return
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("Database migration finished, exiting")
		return
	}

	application.Run()
}
