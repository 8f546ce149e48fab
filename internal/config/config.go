// Package config loads the bot's settings from the process environment.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultCommandPrefix is used when COMMAND_PREFIX is absent or empty.
	DefaultCommandPrefix = "c!"

	// DefaultHealthAddr is where the keep-alive endpoint listens unless HEALTH_ADDR says otherwise.
	DefaultHealthAddr = ":8080"
)

// env mirrors the raw environment. Required checks happen in Load so that every missing field is reported.
type env struct {
	DiscordToken    string  `envconfig:"DISCORD_BOT_TOKEN"`
	CredentialsJSON string  `envconfig:"GOOGLE_CREDENTIALS_JSON"`
	SpreadsheetID   string  `envconfig:"GOOGLE_SHEET_ID"`
	CommandPrefix   string  `envconfig:"COMMAND_PREFIX"`
	LogLevel        string  `envconfig:"LOG_LEVEL"`
	HealthAddr      *string `envconfig:"HEALTH_ADDR"`
	StatusTimezone  string  `envconfig:"STATUS_TIMEZONE"`
}

// Config is constructed once at startup and is not modified afterwards.
type Config struct {
	// DiscordToken is the bot token. Never log it.
	DiscordToken string

	// Credentials authenticate against Google Sheets and Drive. Never log the key.
	Credentials *Credentials

	// SpreadsheetID identifies the one spreadsheet this bot serves.
	SpreadsheetID string

	// CommandPrefix is the literal text a message must start with to be treated as a command.
	CommandPrefix string

	// LogLevel is one of debug, info, warn or error.
	LogLevel string

	// HealthAddr is the keep-alive listen address. Empty disables the endpoint.
	HealthAddr string

	// Location is used to render the "Last updated" line.
	Location *time.Location
}

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Load reads the environment and validates it.
// On failure the returned error is an *Error naming every missing or invalid variable.
func Load() (*Config, error) {
	raw := &env{}
	if err := envconfig.Process("", raw); err != nil {
		return nil, err
	}

	cfgErr := &Error{}
	cfg := &Config{
		DiscordToken:  strings.TrimSpace(raw.DiscordToken),
		SpreadsheetID: strings.TrimSpace(raw.SpreadsheetID),
		CommandPrefix: raw.CommandPrefix,
		LogLevel:      strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		HealthAddr:    DefaultHealthAddr,
		Location:      time.UTC,
	}

	if cfg.DiscordToken == "" {
		cfgErr.add("DISCORD_BOT_TOKEN", "is required")
	}

	if strings.TrimSpace(raw.CredentialsJSON) == "" {
		cfgErr.add("GOOGLE_CREDENTIALS_JSON", "is required")
	} else {
		creds, err := ParseCredentials([]byte(raw.CredentialsJSON))
		if err != nil {
			cfgErr.add("GOOGLE_CREDENTIALS_JSON", err.Error())
		}
		cfg.Credentials = creds
	}

	if cfg.SpreadsheetID == "" {
		cfgErr.add("GOOGLE_SHEET_ID", "is required")
	}

	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = DefaultCommandPrefix
	} else if strings.ContainsAny(cfg.CommandPrefix, " \t\r\n") {
		cfgErr.add("COMMAND_PREFIX", "must not contain whitespace")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	} else if _, ok := logLevels[cfg.LogLevel]; !ok {
		cfgErr.add("LOG_LEVEL", "must be one of debug, info, warn or error")
	}

	if raw.HealthAddr != nil {
		cfg.HealthAddr = strings.TrimSpace(*raw.HealthAddr)
	}

	if tz := strings.TrimSpace(raw.StatusTimezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			cfgErr.add("STATUS_TIMEZONE", "is not a known time zone")
		} else {
			cfg.Location = loc
		}
	}

	if len(cfgErr.Fields) > 0 {
		return nil, cfgErr
	}

	return cfg, nil
}
