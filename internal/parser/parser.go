package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

const (
	frontField = "front"
	backField  = "back"
)

// RowError describes a data row that was skipped during import.
type RowError struct {
	Line     int
	Expected int // number of header fields
	Got      int // number of fields in the row
	Err      error
}

func (e RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: expected %d columns, got %d", e.Line, e.Expected, e.Got)
}

// Result is the outcome of parsing an import file.
type Result struct {
	Cards []domain.Card
	// Skipped holds rows whose shape did not match the header.
	Skipped []RowError
	// Incomplete counts well-formed rows without both a front and a back.
	Incomplete int
}

// ParseFile reads a deck file from the given path.
func ParseFile(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads comma-separated rows from r. The first non-blank row names the
// fields; every following row maps onto those names by position. Rows with a
// different field count are skipped and reported in Result.Skipped.
// The returned cards carry default scheduling state and no ID.
func Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var res Result

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("parser: read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	frontIdx, hasFront := columns[frontField]
	backIdx, hasBack := columns[backField]

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Skipped = append(res.Skipped, RowError{Line: pe.StartLine, Expected: len(header), Err: pe.Err})
				continue
			}
			return res, fmt.Errorf("parser: read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			res.Skipped = append(res.Skipped, RowError{Line: line, Expected: len(header), Got: len(record)})
			continue
		}
		if !hasFront || !hasBack {
			res.Incomplete++
			continue
		}

		front := strings.TrimSpace(record[frontIdx])
		back := strings.TrimSpace(record[backIdx])
		if front == "" || back == "" {
			res.Incomplete++
			continue
		}
		res.Cards = append(res.Cards, domain.NewCard("", front, back))
	}

	return res, nil
}
