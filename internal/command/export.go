package command

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-sarah/v4"
	"github.com/xuri/excelize/v2"

	"github.com/sheetboard/sheetboard/internal/discord"
	"github.com/sheetboard/sheetboard/internal/sheets"
)

// XLSXContentType is the MIME type of the exported workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Export replies with the worksheet attached as a single-sheet workbook.
func (h *Handler) Export(ctx context.Context, input sarah.Input, _ string) (*sarah.CommandResponse, error) {
	snapshot, err := h.store.FetchRows(ctx)
	if err != nil {
		return h.failure(input, "export", err)
	}

	workbook, err := buildWorkbook(snapshot)
	if err != nil {
		return h.failure(input, "export", err)
	}

	name := unsafeFileChars.ReplaceAllString(snapshot.Title, "_")
	if name == "" || name == "_" {
		name = "worksheet"
	}

	return discord.NewResponse(input, &discordgo.MessageSend{
		Content: fmt.Sprintf("📎 %s, %d rows", snapshot.Title, len(snapshot.Rows)),
		Files: []*discordgo.File{
			{
				Name:        name + ".xlsx",
				ContentType: XLSXContentType,
				Reader:      workbook,
			},
		},
	})
}

func buildWorkbook(snapshot *sheets.Snapshot) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)

	rows := append([]sheets.Row{snapshot.Header}, snapshot.Rows...)
	for i, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, v := range row {
			cells = append(cells, v)
		}

		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if len(snapshot.Header) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
