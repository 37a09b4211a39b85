// Package report writes per-record evaluation reports as CSV.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/infrastructure/storage"
)

// CSVStore implements batch.ReportStore on top of an object writer.
type CSVStore struct {
	writer storage.ObjectWriter
}

// NewCSVStore creates a report store.
func NewCSVStore(w storage.ObjectWriter) *CSVStore {
	return &CSVStore{writer: w}
}

// Save writes the report: an "Input Field,Value" section, a blank row,
// then a "Test Parameter,Score,Remarks" section.
func (s *CSVStore) Save(ctx context.Context, r *batch.Report) (string, error) {
	data, err := Encode(r)
	if err != nil {
		return "", err
	}
	return s.writer.Put(ctx, r.FileName(), data, storage.ContentTypeCSV)
}

// SaveSkipped writes one row per rejected source row. Nothing is written
// for a run without rejections.
func (s *CSVStore) SaveSkipped(ctx context.Context, runID string, rejections []batch.Rejection) (string, error) {
	if len(rejections) == 0 {
		return "", nil
	}
	data, err := EncodeSkipped(rejections)
	if err != nil {
		return "", err
	}
	return s.writer.Put(ctx, batch.SkippedFileName(runID), data, storage.ContentTypeCSV)
}

// Encode renders a report as CSV bytes.
func Encode(r *batch.Report) ([]byte, error) {
	rows := make([][]string, 0, len(r.Fields)+len(r.Evaluations)+3)
	rows = append(rows, []string{"Input Field", "Value"})
	for _, f := range r.Fields {
		rows = append(rows, []string{f.Name, f.Value})
	}
	rows = append(rows, nil)
	rows = append(rows, []string{"Test Parameter", "Score", "Remarks"})
	for _, e := range r.Evaluations {
		rows = append(rows, []string{e.Category, strconv.Itoa(e.Score), e.Remark})
	}
	return writeAll(rows)
}

// EncodeSkipped renders rejected rows as CSV bytes.
func EncodeSkipped(rejections []batch.Rejection) ([]byte, error) {
	rows := make([][]string, 0, len(rejections)+1)
	rows = append(rows, []string{"Row", "Line", "Reason", "Fields"})
	for _, rej := range rejections {
		rows = append(rows, []string{
			strconv.Itoa(rej.Index),
			strconv.Itoa(rej.Line),
			rej.Reason,
			strings.Join(rej.Fields, ";"),
		})
	}
	return writeAll(rows)
}

func writeAll(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

var _ batch.ReportStore = (*CSVStore)(nil)
