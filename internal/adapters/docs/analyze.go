package docs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/evidra/internal/model"
)

const (
	DefaultSampleSize  = 10
	DefaultPreviewRows = 5
)

var (
	assetVocabulary = []string{"asset", "device", "hostname", "serial", "laptop", "server", "hardware", "inventory", "machine"}
	userVocabulary  = []string{"user", "owner", "email", "employee", "assignee", "login", "account"}
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Analyze profiles a parsed table: column types, numeric stats, insights and a preview
func Analyze(file model.FileInfo, t *model.Table, sampleSize, previewRows int) *model.DocumentAnalysis {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if previewRows < 0 {
		previewRows = DefaultPreviewRows
	}

	a := &model.DocumentAnalysis{
		File:     file,
		Headers:  t.Headers,
		RowCount: t.RowCount,
		Columns:  make([]model.ColumnProfile, 0, len(t.Headers)),
	}
	for _, h := range t.Headers {
		a.Columns = append(a.Columns, profileColumn(h, t.Rows, sampleSize))
	}
	a.Insights = insights(a)

	n := min(previewRows, len(t.Rows))
	if n > 0 {
		a.Preview = t.Rows[:n]
	}
	return a
}

func profileColumn(name string, rows []model.Row, sampleSize int) model.ColumnProfile {
	p := model.ColumnProfile{Name: name}
	var sample []string
	for _, r := range rows {
		v := strings.TrimSpace(r[name])
		if v == "" {
			p.Empty++
			continue
		}
		if len(sample) < sampleSize {
			sample = append(sample, v)
		}
	}
	p.Type = InferType(sample)

	if p.Type == model.ColumnNumeric {
		p.Stats = numericStats(name, rows)
	}
	return p
}

// InferType classifies a column from a sample of its non-empty values
func InferType(sample []string) model.ColumnType {
	if len(sample) == 0 {
		return model.ColumnText
	}
	numeric, date := true, true
	for _, v := range sample {
		if numeric {
			_, numeric = parseNumber(v)
		}
		if date {
			date = isDate(v)
		}
		if !numeric && !date {
			return model.ColumnText
		}
	}
	if numeric {
		return model.ColumnNumeric
	}
	return model.ColumnDate
}

func numericStats(name string, rows []model.Row) *model.NumericStat {
	var (
		sum   float64
		count int
		s     = model.NumericStat{Min: math.Inf(1), Max: math.Inf(-1)}
	)
	for _, r := range rows {
		f, ok := parseNumber(r[name])
		if !ok {
			continue
		}
		s.Min = math.Min(s.Min, f)
		s.Max = math.Max(s.Max, f)
		sum += f
		count++
	}
	if count == 0 {
		return nil
	}
	s.Mean = sum / float64(count)
	return &s
}

func parseNumber(v string) (float64, bool) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func insights(a *model.DocumentAnalysis) []string {
	out := []string{fmt.Sprintf("%d rows across %d columns", a.RowCount, len(a.Headers))}

	if cols := matchHeaders(a.Headers, assetVocabulary); len(cols) > 0 {
		out = append(out, "Asset-related columns: "+strings.Join(cols, ", "))
	}
	if cols := matchHeaders(a.Headers, userVocabulary); len(cols) > 0 {
		out = append(out, "User-related columns: "+strings.Join(cols, ", "))
	}

	var numeric, dates []string
	for _, c := range a.Columns {
		switch c.Type {
		case model.ColumnNumeric:
			numeric = append(numeric, c.Name)
		case model.ColumnDate:
			dates = append(dates, c.Name)
		}
		if a.RowCount > 0 && c.Empty*2 >= a.RowCount {
			out = append(out, fmt.Sprintf("Column %q is %d%% empty", c.Name, c.Empty*100/a.RowCount))
		}
	}
	if len(numeric) > 0 {
		out = append(out, "Numeric columns: "+strings.Join(numeric, ", "))
	}
	if len(dates) > 0 {
		out = append(out, "Date columns: "+strings.Join(dates, ", "))
	}
	return out
}

func matchHeaders(headers, vocabulary []string) []string {
	var out []string
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, term := range vocabulary {
			if strings.Contains(lower, term) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}
