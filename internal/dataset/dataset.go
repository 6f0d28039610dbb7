// Package dataset reads the hourly bike rental CSV (the UCI hour.csv layout)
// into feature records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/utils"
)

// Load reads a dataset file
func Load(path string) ([]features.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read parses CSV with a header row. Columns are matched by name: every base
// field is required, dteday and cnt are optional, anything else (instant,
// casual, registered) is ignored. An empty cnt cell leaves the target unset.
func Read(r io.Reader) ([]features.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: dataset is empty", features.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", features.ErrInvalidInput, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, name := range features.RequiredFields() {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: dataset is missing required columns: %s",
			features.ErrInvalidInput, strings.Join(missing, ", "))
	}

	var records []features.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", features.ErrInvalidInput, err)
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", features.ErrInvalidInput, line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", features.ErrInvalidInput)
	}
	return records, nil
}

func parseRow(row []string, cols map[string]int) (features.Record, error) {
	raw := make(features.RawRecord, len(cols))
	for _, name := range features.RequiredFields() {
		raw[name] = row[cols[name]]
	}

	rec, err := features.ParseRecord(raw)
	if err != nil {
		return features.Record{}, err
	}

	if i, ok := cols[features.ColDteday]; ok {
		if cell := strings.TrimSpace(row[i]); cell != "" {
			d, err := time.Parse(features.DateLayout, cell)
			if err != nil {
				return features.Record{}, fmt.Errorf("bad %s %q", features.ColDteday, cell)
			}
			rec.Dteday = d
		}
	}

	if i, ok := cols[features.ColCnt]; ok {
		if cell := strings.TrimSpace(row[i]); cell != "" {
			cnt, ok := utils.ToFloat64(cell)
			if !ok {
				return features.Record{}, fmt.Errorf("bad %s %q", features.ColCnt, cell)
			}
			rec.Cnt = &cnt
		}
	}

	return rec, nil
}
