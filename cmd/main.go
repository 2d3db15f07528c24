package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yungbote/sharedexperiences-backend/internal/app"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/envutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		log.Error("Failed to init app", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
