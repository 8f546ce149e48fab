package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"

	"github.com/sheetboard/sheetboard/internal/discord"
	"github.com/sheetboard/sheetboard/internal/sheets"
)

// TimestampLayout formats the "Last updated" line.
const TimestampLayout = "2006-01-02 15:04:05 MST"

const malformedArguments = "The values could not be read. Close every quote, and quote or escape values containing ( ) ; & | < or >."

// RowStore is the spreadsheet access the commands need. *sheets.Client satisfies it.
type RowStore interface {
	FetchRows(ctx context.Context) (*sheets.Snapshot, error)
	Header(ctx context.Context) (sheets.Row, error)
	AppendRow(ctx context.Context, header sheets.Row, values []string) error
	WorksheetTitles(ctx context.Context) ([]string, error)
	Worksheet() string
}

// LatencyReporter reports the chat gateway's heartbeat latency. *discord.Adapter satisfies it.
type LatencyReporter interface {
	Latency() time.Duration
}

// TypingIndicator shows that a reply is on its way. *discord.Adapter satisfies it.
type TypingIndicator interface {
	Typing(input sarah.Input)
}

// HandlerOption defines a function signature for Handler's functional options.
type HandlerOption func(*Handler)

// WithClock replaces time.Now for the "Last updated" line.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

// WithLocation sets the time zone of the "Last updated" line.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) {
		h.location = loc
	}
}

// WithLatency enables the ping command.
func WithLatency(reporter LatencyReporter) HandlerOption {
	return func(h *Handler) {
		h.latency = reporter
	}
}

// WithTyping shows a typing indicator before the commands that call Google Sheets.
func WithTyping(indicator TypingIndicator) HandlerOption {
	return func(h *Handler) {
		h.typing = indicator
	}
}

// Handler holds what the commands share. It keeps no per-invocation state.
type Handler struct {
	store    RowStore
	prefix   string
	now      func() time.Time
	location *time.Location
	latency  LatencyReporter
	typing   TypingIndicator
}

// NewHandler creates a Handler reading from and appending to store.
func NewHandler(store RowStore, prefix string, options ...HandlerOption) *Handler {
	h := &Handler{
		store:    store,
		prefix:   prefix,
		now:      time.Now,
		location: time.UTC,
	}

	for _, opt := range options {
		opt(h)
	}

	return h
}

// Commands returns the command set in the order it is listed by help.
func (h *Handler) Commands() []*Command {
	commands := []*Command{
		{
			Name:        "status",
			Instruction: "Show every row of the worksheet as a table.",
			Func:        h.typed(h.Status),
		},
		{
			Name:        "add",
			Instruction: fmt.Sprintf("Append a row, one value per column. Quote values with spaces, e.g. `%sadd Carol \"Out of office\"`.", h.prefix),
			Func:        h.typed(h.Add),
		},
		{
			Name:        "sheets",
			Instruction: "List the worksheets of the spreadsheet.",
			Func:        h.typed(h.Worksheets),
		},
		{
			Name:        "export",
			Instruction: "Attach the worksheet as an .xlsx file.",
			Func:        h.typed(h.Export),
		},
	}

	if h.latency != nil {
		commands = append(commands, &Command{
			Name:        "ping",
			Instruction: "Check bot latency.",
			Func:        h.Ping,
		})
	}

	return commands
}

func (h *Handler) typed(fnc Func) Func {
	if h.typing == nil {
		return fnc
	}

	return func(ctx context.Context, input sarah.Input, args string) (*sarah.CommandResponse, error) {
		h.typing.Typing(input)
		return fnc(ctx, input, args)
	}
}

// Status replies with the whole worksheet rendered as a table plus the time of the reply.
func (h *Handler) Status(ctx context.Context, input sarah.Input, _ string) (*sarah.CommandResponse, error) {
	snapshot, err := h.store.FetchRows(ctx)
	if err != nil {
		return h.failure(input, "status", err)
	}

	logger.Infof("Sending %d rows to %s", len(snapshot.Rows), input.SenderKey())
	return discord.NewResponse(input, h.renderStatus(snapshot))
}

func (h *Handler) renderStatus(snapshot *sheets.Snapshot) string {
	const (
		heading      = "📊 **Status Report**\n"
		fence        = "```"
		omissionRoom = 128
	)
	footer := "Last updated: " + h.now().In(h.location).Format(TimestampLayout)

	if snapshot.Width() == 0 || snapshot.Empty() {
		return heading + "\n*No data available*\n" + footer
	}

	budget := discord.MaxMessageLength - len(heading) - 2*len(fence) - 2 - len(footer) - omissionRoom
	layout := renderTable(snapshot.Header, snapshot.Rows, budget)
	if layout.text == "" {
		return fmt.Sprintf("%s\n*The worksheet is too wide to show here. Use `%sexport` to download it.*\n%s", heading, h.prefix, footer)
	}

	var sb strings.Builder
	sb.WriteString(heading)
	sb.WriteString(fence + "\n")
	sb.WriteString(layout.text)
	sb.WriteString("\n" + fence + "\n")
	if layout.omittedRows > 0 {
		sb.WriteString(fmt.Sprintf("*… and %d more rows not shown*\n", layout.omittedRows))
	}
	if layout.omittedColumns > 0 {
		sb.WriteString(fmt.Sprintf("*… and %d more columns not shown*\n", layout.omittedColumns))
	}
	sb.WriteString(footer)
	return sb.String()
}

// Add appends the arguments as one row. The number of values must equal the header width;
// nothing is appended otherwise.
func (h *Handler) Add(ctx context.Context, input sarah.Input, args string) (*sarah.CommandResponse, error) {
	values, err := splitArgs(args)
	if err != nil {
		return discord.NewResponse(input, usageReply(malformedArguments, h.addUsage(nil)))
	}

	header, err := h.store.Header(ctx)
	if err != nil {
		return h.failure(input, "add", err)
	}

	if len(header) == 0 {
		return discord.NewResponse(input, usageReply("The worksheet has no header row, so the columns are unknown.", h.addUsage(nil)))
	}

	if len(values) != len(header) {
		problem := fmt.Sprintf("Expected %d values (%s), got %d.", len(header), strings.Join(header, ", "), len(values))
		return discord.NewResponse(input, usageReply(problem, h.addUsage(header)))
	}

	if err := h.store.AppendRow(ctx, header, values); err != nil {
		return h.failure(input, "add", err)
	}

	logger.Infof("Added row %q requested by %s", values, input.SenderKey())
	return discord.NewResponse(input, truncate("✅ Added row: "+strings.Join(values, " | "), discord.MaxMessageLength))
}

func (h *Handler) addUsage(header sheets.Row) string {
	if len(header) == 0 {
		return h.prefix + "add <value> <value> ..."
	}

	placeholders := make([]string, 0, len(header))
	for _, column := range header {
		placeholders = append(placeholders, "<"+column+">")
	}
	return h.prefix + "add " + strings.Join(placeholders, " ")
}

// Worksheets lists the worksheet titles and marks the one the bot works on.
func (h *Handler) Worksheets(ctx context.Context, input sarah.Input, _ string) (*sarah.CommandResponse, error) {
	titles, err := h.store.WorksheetTitles(ctx)
	if err != nil {
		return h.failure(input, "sheets", err)
	}

	const omissionRoom = 64
	current := h.store.Worksheet()

	var sb strings.Builder
	sb.WriteString("📑 **Worksheets**")
	for i, title := range titles {
		line := "• " + title
		if title == current {
			line = fmt.Sprintf("• **%s** (current)", title)
		}
		if sb.Len()+1+len(line) > discord.MaxMessageLength-omissionRoom {
			sb.WriteString(fmt.Sprintf("\n*… and %d more*", len(titles)-i))
			break
		}
		sb.WriteString("\n" + line)
	}
	return discord.NewResponse(input, sb.String())
}

// Ping replies with the gateway heartbeat latency.
func (h *Handler) Ping(_ context.Context, input sarah.Input, _ string) (*sarah.CommandResponse, error) {
	latency := h.latency.Latency().Round(time.Millisecond)
	return discord.NewResponse(input, fmt.Sprintf("🏓 Pong! Bot latency: %dms", latency.Milliseconds()))
}

func (h *Handler) failure(input sarah.Input, name string, err error) (*sarah.CommandResponse, error) {
	logger.Errorf("Command %s failed for %s: %+v", name, input.SenderKey(), err)
	return discord.NewResponse(input, errorReply(err))
}
