// Package command implements the text commands the bot answers under its prefix.
//
// Every command reads from or appends to the worksheet through a RowStore and answers with
// exactly one response. Spreadsheet failures are turned into an error reply here and never
// reach go-sarah as an error.
package command
