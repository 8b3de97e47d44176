package model

import "time"

// Raw evidence shapes produced by router branches. The normalizer turns any of
// these (or a plain record / slice of records) into an Envelope.

// Aggregator is implemented by raw shapes that carry a count plus a named list
type Aggregator interface {
	Aggregate() (count int, label string, items any)
}

// AggregateResult answers "how many X without Y" style queries
type AggregateResult struct {
	Count int    `json:"count"`
	Label string `json:"label"`
	Items any    `json:"items"`
}

func (a AggregateResult) Aggregate() (int, string, any) {
	return a.Count, a.Label, a.Items
}

func (s TicketSearch) Aggregate() (int, string, any) {
	return s.Total, "tickets", s.Tickets
}

// ErrorEvidence substitutes for a failure so it can still be summarized and displayed
type ErrorEvidence struct {
	Message    string     `json:"message"`
	Parameters Parameters `json:"parameters"`
}

// NewErrorEvidence wraps err with the parameters that were being used
func NewErrorEvidence(err error, params Parameters) *ErrorEvidence {
	return &ErrorEvidence{Message: err.Error(), Parameters: params}
}

func (e *ErrorEvidence) Error() string {
	return e.Message
}

// MultiSource maps a source name to that source's raw evidence
type MultiSource map[string]any

// EvidenceKind tags the variant held by an Envelope
type EvidenceKind string

const (
	KindSingleRecord EvidenceKind = "single_record"
	KindRecordList   EvidenceKind = "record_list"
	KindAggregate    EvidenceKind = "aggregate"
	KindMultiSource  EvidenceKind = "multi_source"
	KindError        EvidenceKind = "error"
)

// Envelope is the normalized, tagged evidence consumed by renderers and exporters.
// Exactly the fields belonging to Kind are populated.
type Envelope struct {
	Kind       EvidenceKind         `json:"kind"`
	Source     QueryType            `json:"source"`
	RecordType string               `json:"recordType,omitempty"`
	Record     map[string]any       `json:"record,omitempty"`  // single_record
	Records    []map[string]any     `json:"records,omitempty"` // record_list, aggregate
	Count      int                  `json:"count"`
	Label      string               `json:"label,omitempty"`   // aggregate
	Sources    map[string]*Envelope `json:"sources,omitempty"` // multi_source
	Error      *ErrorEvidence       `json:"error,omitempty"`   // error
}

// IsError reports whether the envelope is an error variant
func (e *Envelope) IsError() bool {
	return e != nil && e.Kind == KindError
}

// Rows returns the records carried by the envelope in tabular form
func (e *Envelope) Rows() []map[string]any {
	switch e.Kind {
	case KindSingleRecord:
		if e.Record == nil {
			return nil
		}
		return []map[string]any{e.Record}
	case KindRecordList, KindAggregate:
		return e.Records
	}
	return nil
}

// QueryResult is the response of a processed query
type QueryResult struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Analysis  Intent    `json:"analysis"`
	Evidence  *Envelope `json:"evidence"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}
