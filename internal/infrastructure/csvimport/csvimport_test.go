package csvimport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gcci/certgen/internal/domain/certificate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const header = "exporter_name_address,certificate_number,consignee_name_address,hs_code\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ============================================================================
// Parser
// ============================================================================

func TestNewCSVParser(t *testing.T) {
	t.Run("strips BOM", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFname,code\nA,1\n"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"name", "code"}, p.Headers())
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("name\n\xff\xfe\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("blank header", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader(" , \nA,B\n"))
		require.NoError(t, err)
		assert.ErrorIs(t, p.ParseHeader(), ErrMissingHeader)
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("a;b\n1;2\n"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, row.Fields)
	})
}

func TestReadRow_TrimsAndDropsEmpty(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader(" a , b ,c\n  x  ,,\u00a0y\u00a0,extra\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Ordinal)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, map[string]string{"a": "x", "c": "y"}, row.Fields)
}

func TestReadRow_InvalidEncodingPastLeadingBlock(t *testing.T) {
	content := "a,b\n" + strings.Repeat("x,1\n", 2048) + "bad\xff,2\nok,3\n"
	p, err := NewCSVParser(strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	for i := 0; i < 2048; i++ {
		_, err := p.ReadRow()
		require.NoError(t, err)
	}

	_, err = p.ReadRow()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Equal(t, 2049, rowErr.Ordinal)
	assert.Equal(t, 2050, rowErr.Line)

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "ok", row.Fields["a"])
}

func TestReadRow_MultilineQuotedValue(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("a,b\n\"line one\nline two\",1\nz,2\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	first, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", first.Fields["a"])

	second, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Ordinal)
	assert.Equal(t, 4, second.LineNumber)
}

// ============================================================================
// FileSource
// ============================================================================

func TestFileSource_Produce(t *testing.T) {
	content := header +
		"Acme Ltd,GCCI-1,Buyer Inc,8471\n" +
		"Acme Ltd,,Buyer Inc,8471\n" + // missing certificate number
		",,,\n" + // empty row
		"  Beta Co  , GCCI-3 , Buyer Two ,\n"

	src := NewFileSource(writeCSV(t, content), ',', zap.NewNop())
	records, rejections, err := src.Produce(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Index)
	assert.Equal(t, "GCCI-1", records[0].Data.CertificateNumber)
	assert.Equal(t, 4, records[1].Index)
	assert.Equal(t, "Beta Co", records[1].Data.ExporterNameAddress)
	assert.Equal(t, "", records[1].Data.HSCode)

	require.Len(t, rejections, 1)
	assert.Equal(t, 2, rejections[0].Index)
	assert.Equal(t, 3, rejections[0].Line)
	assert.Equal(t, []string{certificate.FieldCertificateNumber}, rejections[0].Fields)
}

func TestFileSource_LateInvalidEncodingRejected(t *testing.T) {
	content := header + strings.Repeat("Acme,GCCI-1,Buyer,8471\n", 300) + "Acme\xfe,GCCI-2,Buyer,8471\n"

	records, rejections, err := NewFileSource(writeCSV(t, content), ',', nil).Produce(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 300)
	require.Len(t, rejections, 1)
	assert.Equal(t, 301, rejections[0].Index)
	assert.Contains(t, rejections[0].Reason, "UTF-8")
}

func TestFileSource_UnknownColumnRejected(t *testing.T) {
	content := "exporter_name_address,certificate_number,consignee_name_address,colour\n" +
		"Acme,GCCI-1,Buyer,red\n" +
		"Acme,GCCI-2,Buyer,\n"

	records, rejections, err := NewFileSource(writeCSV(t, content), ',', nil).Produce(context.Background())
	require.NoError(t, err)

	require.Len(t, rejections, 1)
	assert.Equal(t, 1, rejections[0].Index)
	assert.Contains(t, rejections[0].Fields, "colour")

	// An empty unknown cell is dropped before validation.
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Index)
}

func TestFileSource_RuleViolation(t *testing.T) {
	content := header + "Acme,GCCI-1,Buyer," + strings.Repeat("9", 40) + "\n"

	records, rejections, err := NewFileSource(writeCSV(t, content), ',', nil).Produce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, rejections, 1)
	assert.Equal(t, []string{certificate.FieldHSCode}, rejections[0].Fields)
}

func TestFileSource_FatalErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := NewFileSource(filepath.Join(t.TempDir(), "nope.csv"), ',', nil).Produce(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		_, _, err := NewFileSource(writeCSV(t, ""), ',', nil).Produce(context.Background())
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("header only", func(t *testing.T) {
		records, rejections, err := NewFileSource(writeCSV(t, header), ',', nil).Produce(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Empty(t, rejections)
	})
}

func TestReadRecords_MalformedRow(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("a,b\n\"x\"y,1\n"), WithLazyQuotes(false))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	_, err = p.ReadRow()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Ordinal)
	assert.Equal(t, 2, rowErr.Line)
}
