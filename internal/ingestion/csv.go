package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"zone-signal-lab/internal/domain"
)

// Mandatory CSV columns
const (
	ColumnTime  = "time"
	ColumnOpen  = "open"
	ColumnHigh  = "high"
	ColumnLow   = "low"
	ColumnClose = "close"
)

var timeAliases = []string{"timestamp", "datetime", "date"}

// layouts accepted for textual times, interpreted as UTC
var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ReadBarsCSV reads bars from a header-driven CSV.
// time, open, high, low and close are mandatory. Every other column is an
// indicator; empty or non-numeric indicator cells are left out of the bar.
// Output is sorted by time.
func ReadBarsCSV(r io.Reader) ([]*domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input, no header", ErrMissingBarField)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, indicators, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []*domain.Bar
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		bar, err := parseRow(rec, row, cols, indicators)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	SortBars(bars)
	return bars, nil
}

type columns struct {
	time, open, high, low, close int
}

func mapColumns(header []string) (columns, map[int]string, error) {
	cols := columns{-1, -1, -1, -1, -1}
	indicators := make(map[int]string)

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case name == ColumnTime || (cols.time < 0 && slices.Contains(timeAliases, name)):
			cols.time = i
		case name == ColumnOpen:
			cols.open = i
		case name == ColumnHigh:
			cols.high = i
		case name == ColumnLow:
			cols.low = i
		case name == ColumnClose:
			cols.close = i
		case name != "":
			indicators[i] = name
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColumnTime, cols.time},
		{ColumnOpen, cols.open},
		{ColumnHigh, cols.high},
		{ColumnLow, cols.low},
		{ColumnClose, cols.close},
	}
	for _, c := range required {
		if c.idx < 0 {
			return cols, nil, fmt.Errorf("%w: column %q not in header", ErrMissingBarField, c.name)
		}
	}
	return cols, indicators, nil
}

func parseRow(rec []string, row int, cols columns, indicators map[int]string) (*domain.Bar, error) {
	cell := func(idx int, name string) (string, error) {
		if idx >= len(rec) || strings.TrimSpace(rec[idx]) == "" {
			return "", fmt.Errorf("%w: row %d column %q is empty", ErrMissingBarField, row, name)
		}
		return strings.TrimSpace(rec[idx]), nil
	}
	price := func(idx int, name string) (float64, error) {
		s, err := cell(idx, name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d column %q: %q", ErrInvalidBarField, row, name, s)
		}
		return v, nil
	}

	ts, err := cell(cols.time, ColumnTime)
	if err != nil {
		return nil, err
	}
	timeMs, err := ParseTime(ts)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d column %q: %v", ErrInvalidBarField, row, ColumnTime, err)
	}

	bar := &domain.Bar{TimeMs: timeMs}
	if bar.Open, err = price(cols.open, ColumnOpen); err != nil {
		return nil, err
	}
	if bar.High, err = price(cols.high, ColumnHigh); err != nil {
		return nil, err
	}
	if bar.Low, err = price(cols.low, ColumnLow); err != nil {
		return nil, err
	}
	if bar.Close, err = price(cols.close, ColumnClose); err != nil {
		return nil, err
	}

	for idx, name := range indicators {
		if idx >= len(rec) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
		if err != nil {
			continue
		}
		if bar.Indicators == nil {
			bar.Indicators = make(map[string]float64)
		}
		bar.Indicators[name] = v
	}

	return bar, nil
}

// ParseTime parses unix milliseconds or a textual UTC time.
func ParseTime(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}
