package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"sensorbus/internal/app"
	"sensorbus/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	if cfg.RunSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.RunSeconds)*time.Second)
		defer cancel()
	}
	if err := application.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
