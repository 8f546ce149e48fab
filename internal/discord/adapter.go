package discord

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"
	"github.com/patrickmn/go-cache"
)

const (
	// DISCORD is a designated sarah.BotType for Discord integration.
	DISCORD sarah.BotType = "discord"

	// MaxMessageLength is the longest message content Discord accepts.
	MaxMessageLength = 2000
)

// session is an internal interface that abstracts the discordgo.Session methods
// used by the Adapter. This allows mocking the session in tests.
// *discordgo.Session satisfies this interface.
type session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	UpdateWatchStatus(idle int, name string) error
	HeartbeatLatency() time.Duration
}

// ChannelID represents a Discord channel as sarah.OutputDestination.
type ChannelID string

var _ sarah.OutputDestination = ChannelID("")

// AdapterOption defines a function signature for Adapter's functional options.
type AdapterOption func(adapter *Adapter)

// WithSession creates an AdapterOption with the given *discordgo.Session.
// Use this to inject a pre-configured session.
// If this option is not given, NewAdapter creates a new session from Config.Token.
func WithSession(session *discordgo.Session) AdapterOption {
	return func(adapter *Adapter) {
		adapter.session = session
	}
}

// Adapter is a sarah.Adapter implementation for Discord.
type Adapter struct {
	config    *Config
	session   session
	seen      *cache.Cache
	connected atomic.Bool
	errs      chan error
	stopped   chan struct{}
}

var _ sarah.Adapter = (*Adapter)(nil)

// NewAdapter creates a new Adapter with the given Config and options.
func NewAdapter(config *Config, options ...AdapterOption) (*Adapter, error) {
	if config.CommandPrefix == "" {
		return nil, ErrEmptyPrefix
	}

	adapter := newAdapter(config, nil)
	for _, opt := range options {
		opt(adapter)
	}

	if adapter.session == nil {
		if config.Token == "" {
			return nil, ErrEmptyToken
		}

		s, err := discordgo.New("Bot " + config.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		s.Identify.Intents = config.Intents
		adapter.session = s
	}

	return adapter, nil
}

func newAdapter(config *Config, s session) *Adapter {
	window := config.DuplicateWindow
	if window <= 0 {
		window = 10 * time.Minute
	}

	return &Adapter{
		config:  config,
		session: s,
		seen:    cache.New(window, 2*window),
		errs:    make(chan error, 1),
		stopped: make(chan struct{}),
	}
}

// BotType returns a designated BotType for Discord integration.
func (a *Adapter) BotType() sarah.BotType {
	return DISCORD
}

// Run establishes a connection with Discord and blocks until the context is canceled.
// A failure to open the session is reported both to go-sarah and through Err.
func (a *Adapter) Run(ctx context.Context, enqueueInput func(sarah.Input) error, notifyErr func(error)) {
	defer close(a.stopped)

	a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(s, m, enqueueInput)
	})
	a.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.handleReady(r)
	})
	a.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		a.connected.Store(true)
	})
	a.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		a.connected.Store(false)
		logger.Warnf("Disconnected from Discord gateway")
	})

	err := a.session.Open()
	if err != nil {
		err = fmt.Errorf("failed to open Discord session: %w", err)
		a.errs <- err
		notifyErr(sarah.NewBotNonContinuableError(err.Error()))
		return
	}

	// Block until the context is canceled.
	<-ctx.Done()

	a.connected.Store(false)
	if closeErr := a.session.Close(); closeErr != nil {
		logger.Errorf("Failed to close Discord session: %+v", closeErr)
	}
}

// Err delivers the error that kept Run from connecting, if any.
func (a *Adapter) Err() <-chan error {
	return a.errs
}

// Stopped is closed once Run has returned and the session is closed.
func (a *Adapter) Stopped() <-chan struct{} {
	return a.stopped
}

// Connected reports whether the gateway connection is currently up.
func (a *Adapter) Connected() bool {
	return a.connected.Load()
}

// Latency returns the most recent gateway heartbeat round trip.
func (a *Adapter) Latency() time.Duration {
	return a.session.HeartbeatLatency()
}

func (a *Adapter) handleReady(r *discordgo.Ready) {
	a.connected.Store(true)

	if r.User != nil {
		logger.Infof("%s has connected to Discord, serving %d guilds", r.User.Username, len(r.Guilds))
	}

	if a.config.Presence == "" {
		return
	}
	if err := a.session.UpdateWatchStatus(0, a.config.Presence); err != nil {
		logger.Warnf("Failed to update presence: %+v", err)
	}
}

// handleMessage processes an incoming Discord message and routes it to enqueueInput.
func (a *Adapter) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate, enqueueInput func(sarah.Input) error) {
	input, err := MessageToInput(m)
	if err != nil {
		// MessageToInput returns ErrNoAuthor for system messages with no author.
		logger.Debugf("Skipping message: %+v", err)
		return
	}

	// Ignore messages from the bot itself and from other bots.
	if m.Author.Bot {
		return
	}
	if s != nil && s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	trimmed := strings.TrimSpace(input.Message())
	if !strings.HasPrefix(trimmed, a.config.CommandPrefix) {
		return
	}

	// The same message may reach this handler more than once, e.g. when a gateway event is replayed.
	if m.ID != "" {
		if err := a.seen.Add(m.ID, struct{}{}, cache.DefaultExpiration); err != nil {
			logger.Debugf("Skipping already handled message %s", m.ID)
			return
		}
	}

	var enqueueErr error
	if help := a.config.HelpCommand(); trimmed == help || strings.HasPrefix(trimmed, help+" ") {
		enqueueErr = enqueueInput(sarah.NewHelpInput(input))
	} else {
		enqueueErr = enqueueInput(input)
	}
	if enqueueErr != nil {
		logger.Errorf("Failed to enqueue input: %+v", enqueueErr)
	}
}

// Typing shows the typing indicator in the channel the input came from.
// Discord clears it when the reply arrives or after a few seconds.
func (a *Adapter) Typing(input sarah.Input) {
	channelID, ok := input.ReplyTo().(ChannelID)
	if !ok {
		return
	}

	if err := a.session.ChannelTyping(string(channelID)); err != nil {
		logger.Debugf("Failed to send typing indicator to %s: %+v", channelID, err)
	}
}

// SendMessage sends the given message to Discord.
func (a *Adapter) SendMessage(_ context.Context, output sarah.Output) {
	destination, ok := output.Destination().(ChannelID)
	if !ok {
		logger.Errorf("Destination is not instance of ChannelID. %#v.", output.Destination())
		return
	}

	channelID := string(destination)

	switch content := output.Content().(type) {
	case string:
		_, err := a.session.ChannelMessageSend(channelID, content)
		if err != nil {
			logger.Errorf("Failed to send message to %s: %+v", channelID, err)
		}

	case *discordgo.MessageSend:
		_, err := a.session.ChannelMessageSendComplex(channelID, content)
		if err != nil {
			logger.Errorf("Failed to send complex message to %s: %+v", channelID, err)
		}

	case *sarah.CommandHelps:
		_, err := a.session.ChannelMessageSendComplex(channelID, a.helpMessage(content))
		if err != nil {
			logger.Errorf("Failed to send help message to %s: %+v", channelID, err)
		}

	default:
		logger.Warnf("Unexpected output %#v", output)
	}
}

func (a *Adapter) helpMessage(helps *sarah.CommandHelps) *discordgo.MessageSend {
	fields := make([]*discordgo.MessageEmbedField, 0, len(*helps)+1)
	for _, h := range *helps {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  a.config.CommandPrefix + h.Identifier,
			Value: h.Instruction,
		})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  a.config.HelpCommand(),
		Value: "Show this help message.",
	})

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "🤖 Bot Commands",
				Description: "Here are the available commands:",
				Color:       0x57F287, // green
				Fields:      fields,
				Footer: &discordgo.MessageEmbedFooter{
					Text: "Bot powered by Google Sheets API",
				},
			},
		},
	}
}

// Input is a sarah.Input implementation that represents a received Discord message.
type Input struct {
	Event     *discordgo.MessageCreate
	senderKey string
	text      string
	sentAt    time.Time
	channelID ChannelID
}

var _ sarah.Input = (*Input)(nil)

// SenderKey returns a unique key representing the sender in the channel.
func (i *Input) SenderKey() string {
	return i.senderKey
}

// Message returns the received text.
func (i *Input) Message() string {
	return i.text
}

// SentAt returns when the message was sent.
func (i *Input) SentAt() time.Time {
	return i.sentAt
}

// ReplyTo returns the Discord channel where the message was received.
func (i *Input) ReplyTo() sarah.OutputDestination {
	return i.channelID
}

// MessageToInput converts a *discordgo.MessageCreate event to *Input.
func MessageToInput(m *discordgo.MessageCreate) (*Input, error) {
	if m.Author == nil {
		return nil, ErrNoAuthor
	}

	return &Input{
		Event:     m,
		senderKey: fmt.Sprintf("%s_%s", m.ChannelID, m.Author.ID),
		text:      m.Content,
		sentAt:    m.Timestamp,
		channelID: ChannelID(m.ChannelID),
	}, nil
}

// NewResponse creates a *sarah.CommandResponse with the given content.
// Content is either a string or a *discordgo.MessageSend.
func NewResponse(input sarah.Input, content interface{}) (*sarah.CommandResponse, error) {
	if _, ok := input.(*Input); !ok {
		return nil, fmt.Errorf("%T is not a *discord.Input", input)
	}

	switch content.(type) {
	case string, *discordgo.MessageSend:
	default:
		return nil, fmt.Errorf("unsupported response content %T", content)
	}

	return &sarah.CommandResponse{
		Content: content,
	}, nil
}
