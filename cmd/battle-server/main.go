package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"career-royale/internal/modules/battle"
	"career-royale/internal/pkg/config"
	"career-royale/internal/pkg/log"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  Career Royale Battle Server")
	fmt.Println("  Version: 1.0.0")
	fmt.Println("==============================================")
	fmt.Println()

	cfg, err := config.Load(".env.local", ".env")
	if err != nil {
		fmt.Printf("[Main] Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.ParseLevel(cfg.LogLevel), cfg.Environment)
	logger := log.GetLogger()
	logger.Info("配置加载完成", log.Any("config", cfg.SanitizeForLog()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	module := battle.New(cfg, logger)
	if err := module.Init(); err != nil {
		fmt.Printf("[Main] Failed to initialize battle module: %v\n", err)
		os.Exit(1)
	}

	if err := module.Run(ctx); err != nil {
		logger.Error("战斗服务异常退出", err)
		os.Exit(1)
	}
	fmt.Println("[Main] Shutdown complete")
}
