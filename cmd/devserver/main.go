package main

import (
	"log"
	"os"

	"janmanch-client/internal/devserver"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	addr := os.Getenv("DEVSERVER_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	srv := devserver.New(devserver.Config{Addr: addr}, logger)

	// Demo account so the CLI works out of the box.
	if _, err := srv.State().Seed("Demo Member", "9999999999", "secret1"); err != nil {
		logger.Fatal("failed to seed demo account", zap.Error(err))
	}
	logger.Info("seeded demo account", zap.String("phone", "9999999999"))

	if err := srv.Run(); err != nil {
		logger.Fatal("dev backend stopped", zap.Error(err))
	}
}
