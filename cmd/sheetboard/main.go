// Command sheetboard relays a Google Sheets worksheet into Discord on command.
//
// Usage:
//
//	export DISCORD_BOT_TOKEN="your-bot-token"
//	export GOOGLE_CREDENTIALS_JSON="$(cat service-account.json)"
//	export GOOGLE_SHEET_ID="spreadsheet-id"
//	go run ./cmd/sheetboard
//
// The variables may also be placed in a .env file in the working directory.
// Then, in a Discord channel where the bot is present, type:
//
//	c!status
//	c!add Carol Away
//	c!help
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/oklahomer/go-kasumi/logger"

	"github.com/sheetboard/sheetboard/internal/app"
	"github.com/sheetboard/sheetboard/internal/config"
)

var logLevels = map[string]logger.Level{
	"debug": logger.DebugLevel,
	"info":  logger.InfoLevel,
	"warn":  logger.WarnLevel,
	"error": logger.ErrorLevel,
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %s\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	logger.SetLogger(logger.NewWithStandardLogger(log.New(os.Stderr, "", log.LstdFlags)))
	logger.SetOutputLevel(logLevels[cfg.LogLevel])

	// Set up a context that cancels on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, cfg); err != nil {
		logger.Errorf("Failed to run: %+v", err)
		cancel()
		os.Exit(1)
	}

	logger.Infof("Stopped.")
}
