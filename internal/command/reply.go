package command

import (
	"errors"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/sheetboard/sheetboard/internal/sheets"
)

const (
	// Discord rejects embeds over these lengths.
	embedDescriptionLimit = 4096
	embedFieldValueLimit  = 1024

	colorRed    = 0xED4245
	colorOrange = 0xE67E22
	colorGreen  = 0x57F287
)

// errorReply describes a spreadsheet failure to the invoking user.
// The text is fixed per error kind so that nothing from the underlying error leaks into the channel.
func errorReply(err error) *discordgo.MessageSend {
	title, description, color := "❌ Error", "Failed to reach Google Sheets. Please try again later.", colorRed

	switch {
	case errors.Is(err, sheets.ErrValidation):
		title, description, color = "❌ Invalid Request", "The values do not fit the worksheet.", colorOrange

	case errors.Is(err, sheets.ErrAccess):
		title, description = "❌ Access Denied",
			"The bot is not allowed to use this spreadsheet. Make sure it is shared with the bot's service account."

	case errors.Is(err, sheets.ErrNotFound):
		title, description = "❌ Not Found", "The spreadsheet or worksheet could not be found."

	case errors.Is(err, sheets.ErrAuthentication):
		title, description = "❌ Service Unavailable",
			"Google Sheets rejected the bot's credentials. Please contact an administrator."
	}

	return embedReply(title, description, color)
}

// usageReply rejects malformed arguments and shows how to call the command.
func usageReply(problem, usage string) *discordgo.MessageSend {
	embed := embedReply("❌ Invalid Request", truncate(problem, embedDescriptionLimit), colorOrange)
	embed.Embeds[0].Fields = []*discordgo.MessageEmbedField{
		{Name: "Usage", Value: "`" + truncate(usage, embedFieldValueLimit-2) + "`"},
	}
	return embed
}

// truncate shortens s to at most limit bytes, cutting at a rune boundary and marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	const ellipsis = "…"
	cut := max(limit-len(ellipsis), 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

func embedReply(title, description string, color int) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
			},
		},
	}
}
