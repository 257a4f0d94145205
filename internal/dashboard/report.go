package dashboard

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Students"

// ReportHeaders are the column titles of the class report, in order.
var ReportHeaders = []string{
	"Username",
	"Lessons completed",
	"Distinct lessons",
	"Quran pages read",
	"Quran pages memorized",
	"Quiz average",
	"Attendance days",
}

// WriteReport writes rows as an XLSX workbook with one sheet.
func WriteReport(w io.Writer, rows []StudentSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(ReportHeaders))
	for i, h := range ReportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Username,
			r.LessonsCompleted,
			r.DistinctLessons,
			r.QuranPagesRead,
			r.QuranPagesMemo,
			r.QuizAverage,
			r.AttendanceDays,
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
