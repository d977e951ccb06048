package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

// StatisticsSheet is the worksheet name used for statistics.
const StatisticsSheet = "Estatísticas"

// ClassReportsXLSX writes one worksheet per class report.
func ClassReportsXLSX(w io.Writer, month string, reports []core.ClassReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(0)
	if len(reports) == 0 {
		if err := writeRows(f, first, [][]any{{"Sem turmas para " + month}}); err != nil {
			return err
		}
		return write(f, w)
	}

	used := map[string]int{}
	for i, r := range reports {
		name := uniqueTitle(SheetTitle(r), used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeRows(f, name, ClassReportTable(month, r)); err != nil {
			return err
		}
	}
	return write(f, w)
}

// StatisticsXLSX writes statistics into a single worksheet.
func StatisticsXLSX(w io.Writer, stats []core.StudentStatistics) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), StatisticsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, StatisticsSheet, StatisticsTable(stats)); err != nil {
		return err
	}
	return write(f, w)
}

func uniqueTitle(title string, used map[string]int) string {
	used[title]++
	if n := used[title]; n > 1 {
		suffix := fmt.Sprintf(" (%d)", n)
		return truncate(title, maxSheetName-len(suffix)) + suffix
	}
	return title
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func write(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
