package docs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/evidra/internal/model"
)

// ExportSheet is the worksheet name used for spreadsheet exports
const ExportSheet = "Export"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// ParseFormat maps a user-facing format token onto an ExportFormat
func ParseFormat(s string) (model.ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return model.ExportCSV, nil
	case "xlsx", "excel", "xls":
		return model.ExportXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ExportName builds <base>-export-<yyyymmdd-hhmmss>.<ext>
func ExportName(base string, format model.ExportFormat, now time.Time) string {
	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "evidence"
	}
	return fmt.Sprintf("%s-export-%s.%s", base, now.Format("20060102-150405"), format)
}

// Encode renders rows in header order as csv or xlsx bytes
func Encode(format model.ExportFormat, headers []string, rows []model.Row) ([]byte, error) {
	switch format {
	case model.ExportCSV:
		return encodeCSV(headers, rows)
	case model.ExportXLSX:
		return encodeXLSX(headers, rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func encodeCSV(headers []string, rows []model.Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(headers []string, rows []model.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		line := make([]any, len(values))
		for i, v := range values {
			line[i] = v
		}
		return f.SetSheetRow(ExportSheet, cell, &line)
	}

	if err := write(1, headers); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}
	values := make([]string, len(headers))
	for i, row := range rows {
		for j, h := range headers {
			values[j] = row[h]
		}
		if err := write(i+2, values); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Tabulate flattens loosely typed records into ordered headers and string rows.
// Headers follow the first record's keys (sorted), then any keys seen later.
func Tabulate(records []map[string]any) ([]string, []model.Row) {
	var headers []string
	seen := make(map[string]bool)
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			headers = append(headers, k)
		}
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		row := make(model.Row, len(headers))
		for _, h := range headers {
			row[h] = cellString(rec[h])
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, int, int64, bool:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
