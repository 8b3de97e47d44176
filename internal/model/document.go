package model

import "time"

// FileInfo describes a document available to the document adapter
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     string    `json:"type"` // csv, xlsx, or the raw extension
}

// Row is one parsed record keyed by column header
type Row map[string]string

// Table is a parsed tabular document
type Table struct {
	Headers  []string `json:"headers"`
	Rows     []Row    `json:"rows"`
	RowCount int      `json:"rowCount"`
}

// ColumnType is the inferred type of a column
type ColumnType string

const (
	ColumnNumeric ColumnType = "numeric"
	ColumnDate    ColumnType = "date"
	ColumnText    ColumnType = "text"
)

// ColumnProfile describes one column of a parsed document
type ColumnProfile struct {
	Name  string       `json:"name"`
	Type  ColumnType   `json:"type"`
	Empty int          `json:"empty"`
	Stats *NumericStat `json:"stats,omitempty"`
}

// NumericStat summarizes a numeric column
type NumericStat struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// ExportFormat selects the tabular export encoding
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportDescriptor describes a written export file
type ExportDescriptor struct {
	Name   string       `json:"name"`
	Path   string       `json:"path"`
	Size   int64        `json:"size"`
	Format ExportFormat `json:"format"`
}

// DocumentAnalysis is the document adapter's evidence record
type DocumentAnalysis struct {
	File     FileInfo          `json:"file"`
	Headers  []string          `json:"headers"`
	RowCount int               `json:"rowCount"`
	Columns  []ColumnProfile   `json:"columns"`
	Insights []string          `json:"insights"`
	Preview  []Row             `json:"preview,omitempty"`
	Export   *ExportDescriptor `json:"export,omitempty"`
}

// Guidance is returned instead of an error when a provider has nothing to work with
type Guidance struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}
