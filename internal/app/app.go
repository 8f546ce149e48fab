// Package app wires configuration, the spreadsheet client, the Discord adapter and the commands
// together and runs them until the given context is canceled.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"

	"github.com/sheetboard/sheetboard/internal/command"
	"github.com/sheetboard/sheetboard/internal/config"
	"github.com/sheetboard/sheetboard/internal/discord"
	"github.com/sheetboard/sheetboard/internal/health"
	"github.com/sheetboard/sheetboard/internal/sheets"
)

// ShutdownTimeout bounds how long Run waits for the Discord session and the keep-alive endpoint to close.
const ShutdownTimeout = 10 * time.Second

// Run connects everything described by cfg and blocks until ctx is canceled.
// Any failure before the bot is up is returned; after that, Run returns nil on cancellation.
func Run(ctx context.Context, cfg *config.Config) error {
	client, err := sheets.Connect(ctx, cfg.Credentials, cfg.SpreadsheetID)
	if err != nil {
		return fmt.Errorf("failed to connect to spreadsheet: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Errorf("Failed to close spreadsheet client: %+v", err)
		}
	}()

	adapterConfig := discord.NewConfig(cfg.CommandPrefix)
	adapterConfig.Token = cfg.DiscordToken
	adapter, err := discord.NewAdapter(adapterConfig)
	if err != nil {
		return fmt.Errorf("failed to create Discord adapter: %w", err)
	}

	handler := command.NewHandler(client, cfg.CommandPrefix,
		command.WithLocation(cfg.Location),
		command.WithLatency(adapter),
		command.WithTyping(adapter),
	)
	names, err := registerCommands(handler, cfg.CommandPrefix, sarah.RegisterCommandProps)
	if err != nil {
		return err
	}
	logger.Infof("Registered commands %v under prefix %q", names, cfg.CommandPrefix)

	sarah.RegisterBot(sarah.NewBot(adapter))

	if cfg.HealthAddr != "" {
		server := health.NewServer(cfg.HealthAddr, adapter)
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Failed to shut down keep-alive endpoint: %+v", err)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sarah.Run(runCtx, sarah.NewConfig()); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	logger.Infof("Bot is running. Press Ctrl+C to stop.")
	return wait(ctx, cancel, adapter, ShutdownTimeout)
}

// registerCommands hands every command of handler to register exactly once and returns their names.
func registerCommands(handler *command.Handler, prefix string, register func(*sarah.CommandProps)) ([]string, error) {
	registry := command.NewRegistry(discord.DISCORD, prefix, "help")
	for _, cmd := range handler.Commands() {
		if err := registry.Add(cmd); err != nil {
			return nil, err
		}
	}

	if err := registry.Register(register); err != nil {
		return nil, err
	}
	return registry.Names(), nil
}

type lifecycle interface {
	Err() <-chan error
	Stopped() <-chan struct{}
}

// wait blocks until ctx is canceled or the adapter fails to connect. In both cases it stops the bot
// and waits up to timeout for the adapter to close its session.
func wait(ctx context.Context, stop context.CancelFunc, adapter lifecycle, timeout time.Duration) error {
	var err error
	select {
	case err = <-adapter.Err():
	case <-ctx.Done():
		logger.Infof("Shutting down...")
	}

	stop()

	select {
	case <-adapter.Stopped():
	case <-time.After(timeout):
		logger.Warnf("Discord session did not close within %s", timeout)
	}

	return err
}
