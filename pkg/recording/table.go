package recording

import (
	"fmt"

	"github.com/teslashibe/go-spotter/pkg/localize"
	"github.com/xuri/excelize/v2"
)

// Workbook layout.
const (
	PointsSheet  = "Sheet1"
	SummarySheet = "Summary"

	timestampFormat = "yyyy-mm-dd hh:mm:ss.000"
)

// Columns are the point table headers, in order.
var Columns = []string{"Timestamp", "X", "Y", "Z"}

// XLSXTable writes the point log as an Excel workbook.
type XLSXTable struct{}

// WriteTable writes one row per point in log order, plus a summary sheet.
// An empty log still produces a valid workbook with just the header.
func (XLSXTable) WriteTable(path string, points []localize.Point, summary Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(PointsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range points {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Timestamp, p.Position.X, p.Position.Y, p.Position.Z}
		if err := f.SetSheetRow(PointsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(points) > 0 {
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(timestampFormat)})
		if err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(1, len(points)+1)
		if err := f.SetCellStyle(PointsSheet, "A2", last, style); err != nil {
			return err
		}
		if err := f.SetColWidth(PointsSheet, "A", "A", 24); err != nil {
			return err
		}
	}

	if err := writeSummary(f, summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save table %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, s Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Session", s.SessionID},
		{"Rows", s.Count},
		{"Duration (s)", s.Duration.Seconds()},
		{"Axis", "Mean", "StdDev"},
		{"X", s.X.Mean, s.X.StdDev},
		{"Y", s.Y.Mean, s.Y.StdDev},
		{"Z", s.Z.Mean, s.Z.StdDev},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }
