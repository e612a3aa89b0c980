package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

type (
	Line struct {
		Source string
		Target string
	}

	ParsingError struct {
		InvalidLines []int
	}
)

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error: invalidLines=%v", e.InvalidLines)
}

// Parse streams source,target pairs of a CSV file to out, skipping the header row. Rows without both
// values are reported as a *ParsingError once the whole input is read.
func Parse(ctx context.Context, in io.Reader, out chan<- Line) error {
	defer close(out)

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	invalidLines := make([]int, 0, 10) //nolint:mnd // 10 is the expected capacity
	header := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			continue
		}

		lineNum, _ := r.FieldPos(0)
		if len(record) < 2 { //nolint:mnd // source and target columns
			invalidLines = append(invalidLines, lineNum)
			continue
		}
		line := Line{Source: clean(record[0]), Target: clean(record[1])}
		if line.Source == "" || line.Target == "" {
			invalidLines = append(invalidLines, lineNum)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- line:
		}
	}

	if len(invalidLines) > 0 {
		return &ParsingError{InvalidLines: invalidLines}
	}
	return nil
}

// ReadEntries parses the whole input into new entries. Valid rows are returned even when some rows are invalid.
func ReadEntries(ctx context.Context, in io.Reader, newID func() string) ([]dal.Entry, error) {
	lines := make(chan Line)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Parse(ctx, in, lines)
	}()

	res := make([]dal.Entry, 0)
	for line := range lines {
		res = append(res, dal.Entry{
			ID:         newID(),
			SourceText: line.Source,
			TargetText: line.Target,
			Status:     dal.StatusNew,
		})
	}
	return res, <-errCh
}

func clean(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
}
