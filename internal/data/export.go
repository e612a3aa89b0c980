package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

const sheetName = "Sheet1"

var exportHeader = []string{"Polski", "Angielski", "Status", "Próby", "Poprawne"} //nolint:gochecknoglobals // static header

func row(w dal.Entry) []string {
	return []string{w.SourceText, w.TargetText, string(w.Status), strconv.Itoa(w.Attempts), strconv.Itoa(w.CorrectCount)}
}

func WriteCSV(out io.Writer, words []dal.Entry) error {
	w := csv.NewWriter(out)
	if err := w.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, word := range words {
		if err := w.Write(row(word)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the same columns as WriteCSV into a single sheet workbook; counters are stored as numbers.
func WriteXLSX(out io.Writer, words []dal.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("set header: %w", err)
	}

	for i, w := range words {
		cell, err := excelize.CoordinatesToCellName(1, i+2) //nolint:mnd // data starts below the header
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := []any{w.SourceText, w.TargetText, string(w.Status), w.Attempts, w.CorrectCount}
		if err = f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("set row %d: %w", i+2, err) //nolint:mnd // row number
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
