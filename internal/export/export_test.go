package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

func sample() []model.Annotation {
	at := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	return []model.Annotation{
		{ID: "123456", AnnotatorID: 101, AnnotatorEmail: "a@example.com", SrcText: "Hello", SrcLang: "English", TargetLang: "Somali",
			Comment: "fine, mostly", Score: 4.5, Omission: 1, CreatedAt: at},
		{ID: "654321", AnnotatorID: 102, AnnotatorEmail: "b@example.com", SrcText: "Water", SrcLang: "English", TargetLang: "Somali",
			Untranslation: 2, SrcIssue: "typo", CreatedAt: at},
	}
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "CSV", sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.ExportFields, rows[0])
	assert.Equal(t, []string{"101", "a@example.com", "123456", "fine, mostly", "English", "Somali", "4.5", "1", "0", "0", "0", "", ""}, rows[1])
	assert.Equal(t, "654321", rows[2][2])
	assert.Equal(t, "typo", rows[2][11])
}

func TestWriteXLSX_SingleSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.ExportFields, rows[0])
	assert.Equal(t, "123456", rows[1][2])

	width, err := f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	assert.Equal(t, 100.0, width)
}

func TestWriteJSON_FullRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample()))

	var got []model.Annotation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Hello", got[0].SrcText)
	assert.Equal(t, 2, got[1].Untranslation)
}

func TestWrite_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, FormatCSV, nil), ErrNoData)
	// emptiness is reported before the format is looked at
	assert.ErrorIs(t, Write(&buf, "pdf", nil), ErrNoData)
	assert.ErrorIs(t, Write(&buf, "pdf", sample()), repository.ErrInvalidArgument)
	assert.Zero(t, buf.Len())
}

func TestLookup(t *testing.T) {
	f, err := Lookup(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, "annotations.xlsx", f.Filename())
	assert.Contains(t, f.ContentType, "spreadsheetml")
}

type listerFunc func(ctx context.Context) ([]model.Annotation, error)

func (f listerFunc) ListAll(ctx context.Context) ([]model.Annotation, error) { return f(ctx) }

func TestSnapshotter_RunOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s, err := NewSnapshotter(listerFunc(func(context.Context) ([]model.Annotation, error) { return sample(), nil }), dir, []string{"csv", "json"})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 1, 3, 2, 0, 0, 0, time.UTC) }

	paths, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "annotations-20240103-020000.csv"),
		filepath.Join(dir, "annotations-20240103-020000.json"),
	}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "123456")
}

func TestSnapshotter_EmptyStoreWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s, err := NewSnapshotter(listerFunc(func(context.Context) ([]model.Annotation, error) { return nil, nil }), dir, []string{"csv"})
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewSnapshotter_RejectsBadFormats(t *testing.T) {
	_, err := NewSnapshotter(nil, t.TempDir(), nil)
	assert.Error(t, err)
	_, err = NewSnapshotter(nil, t.TempDir(), []string{"csv", "pdf"})
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
}
