// Package report renders a conversation record as an Excel workbook for
// download from the analytics surface.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/psycho-baller/audora/internal/types"
)

// Workbook builds a two-sheet workbook: a summary sheet with status,
// location, summary, and per-speaker facts, and a transcript sheet with one
// row per turn. names maps user ids to display names; unknown ids fall back
// to the raw id.
func Workbook(conv *types.Conversation, turns []types.TranscriptTurn, names map[string]string) (*excelize.File, error) {
	f := excelize.NewFile()
	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{
		{"Conversation", conv.ID},
		{"Status", string(conv.Status)},
		{"Location", conv.Location},
		{"Summary", conv.Summary},
	}
	for _, fact := range conv.S1Facts {
		rows = append(rows, []any{"Initiator fact", fact})
	}
	for _, fact := range conv.S2Facts {
		rows = append(rows, []any{"Participant fact", fact})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	const transcriptSheet = "Transcript"
	if _, err := f.NewSheet(transcriptSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	header := []any{"#", "Speaker", "Text"}
	if err := f.SetSheetRow(transcriptSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, t := range turns {
		name, ok := names[t.UserID]
		if !ok {
			name = t.UserID
		}
		row := []any{i + 1, name, t.Text}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("transcript cell: %w", err)
		}
		if err := f.SetSheetRow(transcriptSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write transcript row: %w", err)
		}
	}
	return f, nil
}
