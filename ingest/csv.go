package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spektr-org/agrolens/engine"
)

// ReadCSV reads a header row and observation rows. Malformed rows are
// counted in Batch.Skipped rather than failing the read.
func ReadCSV(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var (
		rows      [][]string
		malformed int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				malformed++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, row)
	}

	batch, err := normalizeRows(headers, rows)
	if err != nil {
		return nil, err
	}
	batch.Skipped += malformed
	return batch, nil
}

// ExportHeader is the column order written by WriteCSV.
var ExportHeader = []string{"Year", "Value", "Unit", "Country", "Item", "Domain", "Metric"}

// WriteCSV writes a series as a flat table that ReadCSV reads back.
func WriteCSV(w io.Writer, s engine.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, o := range s {
		row := []string{
			strconv.Itoa(o.Year),
			strconv.FormatFloat(o.Value, 'f', -1, 64),
			o.Unit,
			o.Tag(engine.TagCountry),
			o.Tag(engine.TagCommodity),
			o.Tag(engine.TagDomain),
			o.Tag(engine.TagMetric),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
