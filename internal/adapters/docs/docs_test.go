package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/evidra/internal/model"
)

const assetsCSV = "\xef\xbb\xbf,,,,\n" +
	"Hostname,Owner Email,Cost,Purchased,Notes\n" +
	"web-01,alice@example.test,1200.50,2023-01-15,\n" +
	"web-02,bob@example.test,\"1,300\",2023-02-01,spare\n" +
	"db-01,carol@example.test,4000,2022-12-31,\n"

func writeFile(t *testing.T, dir, name, content string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV([]byte(assetsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Hostname", "Owner Email", "Cost", "Purchased", "Notes"}, table.Headers)
	assert.Equal(t, 3, table.RowCount, "blank records before the header are skipped")
	assert.Equal(t, "1,300", table.Rows[1]["Cost"])
	assert.Equal(t, "", table.Rows[0]["Notes"])
}

func TestParseCSV_RaggedAndDuplicateHeaders(t *testing.T) {
	table, err := ParseCSV([]byte("id,id,\n1,2,3,4\n5\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "id_2", "column_3"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, model.Row{"id": "5", "id_2": "", "column_3": ""}, table.Rows[1])
}

func TestParseCSV_KeepsBlankDataRows(t *testing.T) {
	table, err := ParseCSV([]byte("a,b\n1,2\n,\n3,4\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, table.RowCount)
	assert.Equal(t, model.Row{"a": "", "b": ""}, table.Rows[1])
	assert.Equal(t, "3", table.Rows[2]["a"])
}

func TestParseCSV_HeadersKeptVerbatim(t *testing.T) {
	table, err := ParseCSV([]byte(" id,Name ,id_2,id_2\n1,x,y,z\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{" id", "Name ", "id_2", "id_2_2"}, table.Headers)
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name   string
		sample []string
		want   model.ColumnType
	}{
		{"numeric", []string{"1", "2.5", "-3", "1,000"}, model.ColumnNumeric},
		{"date", []string{"2024-01-02", "01/15/2024", "2024-03-04T10:00:00Z"}, model.ColumnDate},
		{"mixed", []string{"1", "abc"}, model.ColumnText},
		{"number and date", []string{"12", "2024-01-02"}, model.ColumnText},
		{"empty", nil, model.ColumnText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(tt.sample))
		})
	}
}

func TestInferType_UsesOnlySample(t *testing.T) {
	rows := make([]model.Row, 0, 12)
	for i := 0; i < 10; i++ {
		rows = append(rows, model.Row{"v": "7"})
	}
	rows = append(rows, model.Row{"v": "not a number"})

	p := profileColumn("v", rows, 10)
	assert.Equal(t, model.ColumnNumeric, p.Type)
	require.NotNil(t, p.Stats)
	assert.Equal(t, 7.0, p.Stats.Mean)
}

func TestAnalyze(t *testing.T) {
	table, err := ParseCSV([]byte(assetsCSV))
	require.NoError(t, err)

	file := model.FileInfo{Name: "assets.csv", Type: "csv"}
	a := Analyze(file, table, 10, 2)

	require.Len(t, a.Columns, 5)
	byName := map[string]model.ColumnProfile{}
	for _, c := range a.Columns {
		byName[c.Name] = c
	}
	assert.Equal(t, model.ColumnText, byName["Hostname"].Type)
	assert.Equal(t, model.ColumnDate, byName["Purchased"].Type)

	cost := byName["Cost"]
	assert.Equal(t, model.ColumnNumeric, cost.Type)
	require.NotNil(t, cost.Stats)
	assert.Equal(t, 1200.50, cost.Stats.Min)
	assert.Equal(t, 4000.0, cost.Stats.Max)
	assert.InDelta(t, 2166.83, cost.Stats.Mean, 0.01)

	assert.Equal(t, 2, byName["Notes"].Empty)
	assert.Nil(t, byName["Notes"].Stats)

	assert.Contains(t, a.Insights, "3 rows across 5 columns")
	assert.Contains(t, a.Insights, "Asset-related columns: Hostname")
	assert.Contains(t, a.Insights, "User-related columns: Owner Email")
	assert.Contains(t, a.Insights, `Column "Notes" is 66% empty`)
	assert.Len(t, a.Preview, 2)
}

func TestExportRoundTrip(t *testing.T) {
	headers := []string{"recordId", " title", "approvers"}
	rows := []model.Row{
		{"recordId": "1", " title": "Add login, part 1", "approvers": "no approvers"},
		{"recordId": "2", " title": `Quote "this"`, "approvers": "carol"},
		{"recordId": "", " title": "", "approvers": ""},
		{"recordId": "3", " title": "", "approvers": "dave"},
	}

	for _, format := range []model.ExportFormat{model.ExportCSV, model.ExportXLSX} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(format, headers, rows)
			require.NoError(t, err)

			table, err := Parse("roundtrip."+string(format), data)
			require.NoError(t, err)
			assert.Equal(t, headers, table.Headers)
			assert.Equal(t, len(rows), table.RowCount)
			assert.Equal(t, rows, table.Rows)
		})
	}
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := Encode("pdf", nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportName(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "assets-export-20240506-070809.csv", ExportName("assets.csv", model.ExportCSV, now))
	assert.Equal(t, "q3_report-export-20240506-070809.xlsx", ExportName("q3 report.xlsx", model.ExportXLSX, now))
	assert.Equal(t, "evidence-export-20240506-070809.csv", ExportName("", model.ExportCSV, now))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Excel")
	require.NoError(t, err)
	assert.Equal(t, model.ExportXLSX, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTabulate(t *testing.T) {
	headers, rows := Tabulate([]map[string]any{
		{"b": "x", "a": 1.0},
		{"a": 2.0, "c": []any{"p", "q"}, "d": nil},
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, headers)
	assert.Equal(t, model.Row{"a": "1", "b": "x", "c": "", "d": ""}, rows[0])
	assert.Equal(t, model.Row{"a": "2", "b": "", "c": `["p","q"]`, "d": ""}, rows[1])
}

func TestFSStore(t *testing.T) {
	dir := t.TempDir()
	exportDir := filepath.Join(t.TempDir(), "exports")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	writeFile(t, dir, "old.csv", "a\n1\n", base)
	writeFile(t, dir, "new.xlsx", "not really xlsx", base.Add(2*time.Hour))
	writeFile(t, dir, "newest.pdf", "%PDF", base.Add(3*time.Hour))
	writeFile(t, dir, ".hidden.csv", "a\n", base.Add(4*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	store := NewFSStore(dir, exportDir)
	files, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "newest.pdf", files[0].Name)
	assert.Equal(t, "pdf", files[0].Type)

	latest, err := LatestSupported(files)
	require.NoError(t, err)
	assert.Equal(t, "new.xlsx", latest.Name)

	data, err := store.Read(context.Background(), "old.csv")
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	_, err = store.Read(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Read(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)

	path, err := store.WriteExport(context.Background(), "out.csv", []byte("x\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exportDir, "out.csv"), path)
}

func TestFSStore_MissingDirIsEmpty(t *testing.T) {
	files, err := NewFSStore(filepath.Join(t.TempDir(), "nope"), "").List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = LatestSupported(files)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(context.Background(), model.DocumentsConfig{Backend: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "fs", s.Name())

	_, err = NewStore(context.Background(), model.DocumentsConfig{Backend: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = NewStore(context.Background(), model.DocumentsConfig{Backend: "azblob"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestService_LoadAnalyzeExport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets.csv", assetsCSV, time.Now())

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	svc := NewService(NewFSStore(dir, filepath.Join(dir, "exports")), model.DocumentsConfig{}, WithClock(func() time.Time { return now }))

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)

	table, err := svc.Load(context.Background(), latest.Name)
	require.NoError(t, err)
	analysis := svc.Analyze(latest, table)
	assert.Equal(t, 3, analysis.RowCount)
	assert.Len(t, analysis.Preview, 3)

	desc, err := svc.Export(context.Background(), latest.Name, table.Headers, table.Rows, model.ExportXLSX)
	require.NoError(t, err)
	assert.Equal(t, "assets-export-20240506-070809.xlsx", desc.Name)
	assert.Equal(t, model.ExportXLSX, desc.Format)

	info, err := os.Stat(desc.Path)
	require.NoError(t, err)
	assert.Equal(t, desc.Size, info.Size())

	_, err = svc.Load(context.Background(), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
