package docs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/evidra/internal/model"
)

// Parse decodes a csv or xlsx document into a Table
func Parse(name string, data []byte) (*model.Table, error) {
	switch FileType(name) {
	case "csv":
		return ParseCSV(data)
	case "xlsx":
		return ParseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// ParseCSV decodes delimited text. The first record is the header row.
func ParseCSV(data []byte) (*model.Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return tableFromRecords(records), nil
}

// ParseXLSX decodes the first worksheet of a spreadsheet. The first row is the header row.
func ParseXLSX(data []byte) (*model.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &model.Table{Headers: []string{}, Rows: []model.Row{}}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return tableFromRecords(records), nil
}

func tableFromRecords(records [][]string) *model.Table {
	t := &model.Table{Headers: []string{}, Rows: []model.Row{}}

	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return t
	}
	t.Headers = uniqueHeaders(records[start])

	for _, rec := range records[start+1:] {
		row := make(model.Row, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	t.RowCount = len(t.Rows)
	return t
}

// uniqueHeaders names blank columns and suffixes duplicates.
// Unique non-blank headers are kept verbatim.
func uniqueHeaders(raw []string) []string {
	count := make(map[string]int, len(raw))
	for _, h := range raw {
		count[h]++
	}

	taken := make(map[string]bool, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		if strings.TrimSpace(h) != "" && count[h] == 1 {
			out[i] = h
			taken[h] = true
		}
	}

	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		if out[i] != "" {
			continue
		}
		base := strings.TrimSpace(h)
		if base == "" {
			base = "column_" + strconv.Itoa(i+1)
		}
		name := base
		seen[base]++
		if n := seen[base]; n > 1 {
			name = base + "_" + strconv.Itoa(n)
		}
		for taken[name] {
			seen[base]++
			name = base + "_" + strconv.Itoa(seen[base])
		}
		out[i] = name
		taken[name] = true
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
