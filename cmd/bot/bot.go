package main

import (
	"fmt"
	"os"

	"github.com/abelzeko/water-feed/internal/api"
	"github.com/abelzeko/water-feed/internal/config"
	"github.com/abelzeko/water-feed/internal/log"
	"github.com/abelzeko/water-feed/internal/repository"
	"github.com/abelzeko/water-feed/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("Starting Water Feed Bot...")

	if cfg.BotToken == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Snapshots are written by the scrapper; the bot only reads them
	repo, err := repository.NewFileSnapshotRepository(cfg.OutputDir, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize repository: %v", err)
	}

	reports := usecases.NewReportUseCase(cfg.Registry, repo, logger)

	telegramBot, err := api.NewTelegramBot(cfg.BotToken, reports, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	telegramBot.Start()
}
