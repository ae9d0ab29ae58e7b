package http

import (
	"fmt"
	"time"

	"labtrack/internal/core/domain/model/report"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportSheetName = "Negative results"
)

var reportHeaders = []string{
	"Event", "Ticket", "Order Number", "Sample", "Test Site", "Lab", "Test Type", "Sampled At", "Reported At",
}

var reportColumnWidths = []float64{20, 20, 16, 12, 16, 16, 16, 22, 22}

// writeReportXLSX renders one report page as a single-sheet workbook with a
// frozen header row.
func writeReportXLSX(entries []report.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(reportSheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, width := range reportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(reportSheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			e.EventID,
			e.TicketID,
			e.OrderNumber,
			e.Sample,
			e.TestSiteID,
			e.LabID,
			e.TestType,
			formatTime(e.SampledAt),
			e.ReportedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(reportSheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(reportSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
