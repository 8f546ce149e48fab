// Package discord provides a sarah.Adapter implementation for Discord.
//
// It bridges go-sarah's bot framework with Discord using discordgo. Discord message events that
// start with the configured command prefix become sarah.Input, and sarah.Output is sent back as
// plain messages, embeds or file attachments. A message that Discord delivers more than once is
// handed to go-sarah only the first time, so every command invocation yields a single reply.
package discord
