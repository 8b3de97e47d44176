// Package normalize turns the raw shapes produced by router branches into a
// tagged evidence Envelope. It performs no I/O and has no failure path.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/evidra/internal/model"
)

// sourceTypes maps multi-source keys back onto query types
var sourceTypes = map[string]model.QueryType{
	"github":    model.QuerySourceControl,
	"jira":      model.QueryIssueTracker,
	"documents": model.QueryDocument,
}

// Normalize tags raw evidence with its variant
func Normalize(qt model.QueryType, raw any) *model.Envelope {
	switch v := raw.(type) {
	case nil:
		return &model.Envelope{Kind: model.KindRecordList, Source: qt, Records: []map[string]any{}}
	case *model.Envelope:
		return v
	case *model.ErrorEvidence:
		return errorEnvelope(qt, v)
	case model.ErrorEvidence:
		return errorEnvelope(qt, &v)
	case error:
		var ee *model.ErrorEvidence
		if errors.As(v, &ee) {
			return errorEnvelope(qt, ee)
		}
		return errorEnvelope(qt, model.NewErrorEvidence(v, model.Parameters{}))
	case model.MultiSource:
		return multiSource(qt, v)
	case model.Aggregator:
		count, label, items := v.Aggregate()
		return aggregate(qt, count, label, items)
	case map[string]any:
		return fromMap(qt, v)
	}

	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Normalize(qt, nil)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		records := toRecords(rv)
		return &model.Envelope{
			Kind:       model.KindRecordList,
			Source:     qt,
			RecordType: recordType(rv.Type().Elem()),
			Records:    records,
			Count:      len(records),
		}
	default:
		return &model.Envelope{
			Kind:       model.KindSingleRecord,
			Source:     qt,
			RecordType: recordType(rv.Type()),
			Record:     toRecord(rv.Interface()),
			Count:      1,
		}
	}
}

func errorEnvelope(qt model.QueryType, e *model.ErrorEvidence) *model.Envelope {
	return &model.Envelope{Kind: model.KindError, Source: qt, Error: e}
}

func multiSource(qt model.QueryType, m model.MultiSource) *model.Envelope {
	env := &model.Envelope{
		Kind:    model.KindMultiSource,
		Source:  qt,
		Sources: make(map[string]*model.Envelope, len(m)),
		Count:   len(m),
	}
	for name, raw := range m {
		sub, ok := sourceTypes[name]
		if !ok {
			sub = qt
		}
		env.Sources[name] = Normalize(sub, raw)
	}
	return env
}

func aggregate(qt model.QueryType, count int, label string, items any) *model.Envelope {
	env := &model.Envelope{
		Kind:    model.KindAggregate,
		Source:  qt,
		Count:   count,
		Label:   label,
		Records: []map[string]any{},
	}
	rv := reflect.ValueOf(items)
	for rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		env.Records = toRecords(rv)
		env.RecordType = recordType(rv.Type().Elem())
	}
	return env
}

// fromMap inspects loosely typed evidence: a numeric count plus a list is an
// aggregate, anything else is a single record
func fromMap(qt model.QueryType, m map[string]any) *model.Envelope {
	if count, ok := numeric(m["count"]); ok {
		label, _ := m["label"].(string)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if list, isList := m[k].([]any); isList {
				if label == "" {
					label = k
				}
				return aggregate(qt, count, label, list)
			}
		}
		return aggregate(qt, count, label, nil)
	}
	if msg, ok := m["error"].(string); ok && len(m) <= 2 {
		return errorEnvelope(qt, &model.ErrorEvidence{Message: msg})
	}
	return &model.Envelope{Kind: model.KindSingleRecord, Source: qt, Record: m, Count: 1}
}

func numeric(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func toRecords(rv reflect.Value) []map[string]any {
	records := make([]map[string]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		records = append(records, toRecord(rv.Index(i).Interface()))
	}
	return records
}

// toRecord projects a value onto its JSON field names
func toRecord(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"value": fmt.Sprint(v)}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		var scalar any
		_ = json.Unmarshal(b, &scalar)
		return map[string]any{"value": scalar}
	}
	return m
}

// recordType derives a snake_case tag from a Go type name, e.g. WaitingReview -> waiting_review
func recordType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
