// Package sheets reads and appends rows on one worksheet of one Google spreadsheet.
//
// A Client is connected once at startup with service-account credentials and holds no
// mutable state afterwards: every FetchRows call is a fresh request against the Sheets API,
// so a Client is safe for concurrent use.
package sheets
