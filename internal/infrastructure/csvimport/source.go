package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/domain/certificate"
	"go.uber.org/zap"
)

// FileSource produces records from a CSV file with a header row.
type FileSource struct {
	path      string
	delimiter rune
	logger    *zap.Logger
}

// NewFileSource creates a file-backed record source.
func NewFileSource(path string, delimiter rune, logger *zap.Logger) *FileSource {
	if delimiter == 0 {
		delimiter = ','
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, delimiter: delimiter, logger: logger}
}

// Produce reads the whole file. Rows that fail the batch schema become
// rejections; a missing, empty or headerless file is an error.
func (s *FileSource) Produce(ctx context.Context) ([]batch.Record, []batch.Rejection, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	return ReadRecords(ctx, f, s.delimiter, s.logger)
}

// ReadRecords parses r into records and rejections.
func ReadRecords(ctx context.Context, r io.Reader, delimiter rune, logger *zap.Logger) ([]batch.Record, []batch.Rejection, error) {
	parser, err := NewCSVParser(r, WithDelimiter(delimiter))
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}

	var (
		records    []batch.Record
		rejections []batch.Rejection
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				return nil, nil, err
			}
			rejections = append(rejections, batch.Rejection{
				Index:  rowErr.Ordinal,
				Line:   rowErr.Line,
				Reason: "malformed row: " + rowErr.Err.Error(),
			})
			continue
		}

		if row.IsEmpty() {
			logger.Debug("empty row ignored", zap.Int("index", row.Ordinal), zap.Int("line", row.LineNumber))
			continue
		}

		data, err := certificate.FromFields(row.Fields)
		if err != nil {
			rejection := batch.Rejection{Index: row.Ordinal, Line: row.LineNumber, Reason: err.Error()}
			var ve *certificate.ValidationError
			if errors.As(err, &ve) {
				rejection.Reason = "wrong or missing fields"
				rejection.Fields = ve.Fields()
			}
			rejections = append(rejections, rejection)
			continue
		}

		records = append(records, batch.Record{Index: row.Ordinal, Line: row.LineNumber, Data: data})
	}

	return records, rejections, nil
}

var _ batch.Source = (*FileSource)(nil)
