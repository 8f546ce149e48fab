package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Config contains configuration variables for the Discord Adapter.
type Config struct {
	// Token is the Discord bot token used for authentication.
	Token string `json:"token" yaml:"token"`

	// CommandPrefix is the text every command message starts with.
	// Messages without it are not handed to go-sarah.
	CommandPrefix string `json:"command_prefix" yaml:"command_prefix"`

	// Intents declares the Gateway Intents the bot requires.
	Intents discordgo.Intent `json:"intents" yaml:"intents"`

	// Presence is shown as "Watching <Presence>" once the gateway is ready. Empty disables it.
	Presence string `json:"presence" yaml:"presence"`

	// DuplicateWindow is how long a handled message ID is remembered to drop repeated deliveries.
	DuplicateWindow time.Duration `json:"duplicate_window" yaml:"duplicate_window"`
}

// NewConfig creates and returns a new Config instance with default settings.
// Token is empty and must be set before use.
func NewConfig(prefix string) *Config {
	return &Config{
		Token:           "",
		CommandPrefix:   prefix,
		Intents:         discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent,
		Presence:        prefix + "status | Google Sheets",
		DuplicateWindow: 10 * time.Minute,
	}
}

// HelpCommand is the message that is converted to sarah.HelpInput.
func (c *Config) HelpCommand() string {
	return c.CommandPrefix + "help"
}
