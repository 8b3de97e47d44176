package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/evidra/internal/classify"
	"github.com/ppiankov/evidra/internal/llm"
	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/router"
	"github.com/ppiankov/evidra/internal/worker"
)

var _ worker.QueryProcessor = (*Engine)(nil)

var fixed = time.Date(2024, 6, 10, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

type stubClassifier struct{ intent model.Intent }

func (s stubClassifier) Classify(_ context.Context, query string) model.Intent {
	in := s.intent
	in.Query = query
	return in
}

type stubRouter struct {
	raw   any
	calls int
}

func (s *stubRouter) Route(context.Context, model.Intent) any {
	s.calls++
	return s.raw
}

type echoSummarizer struct{}

func (echoSummarizer) Summarize(_ context.Context, env *model.Envelope, intent string) string {
	return intent + ":" + string(env.Kind)
}

func newTestEngine(raw any) (*Engine, *stubRouter) {
	r := &stubRouter{raw: raw}
	c := stubClassifier{intent: model.Intent{QueryType: model.QuerySourceControl, Intent: "list pulls", Strategy: "deterministic"}}
	e := NewEngine(c, r, echoSummarizer{},
		WithClock(func() time.Time { return fixed }),
		WithIDs(func() string { return "req-1" }))
	return e, r
}

func TestProcessQuery_RejectsBlank(t *testing.T) {
	e, r := newTestEngine(nil)
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := e.ProcessQuery(context.Background(), q)
		assert.ErrorIs(t, err, ErrInvalidQuery, "query %q", q)
	}
	assert.Zero(t, r.calls, "router must not run for invalid input")
}

func TestProcessQuery_Result(t *testing.T) {
	e, r := newTestEngine([]model.PullRequest{{Number: 1}, {Number: 2}})

	res, err := e.ProcessQuery(context.Background(), "show open pull requests")
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, "req-1", res.ID)
	assert.Equal(t, "show open pull requests", res.Query)
	assert.Equal(t, model.QuerySourceControl, res.Analysis.QueryType)
	assert.Equal(t, model.KindRecordList, res.Evidence.Kind)
	assert.Len(t, res.Evidence.Records, 2)
	assert.Equal(t, "list pulls:record_list", res.Summary)
	assert.Equal(t, time.UTC, res.Timestamp.Location())
	assert.True(t, res.Timestamp.Equal(fixed))
}

func TestProcessQuery_ProviderFailureIsEvidence(t *testing.T) {
	e, _ := newTestEngine(model.NewErrorEvidence(errors.New("boom"), model.Parameters{}))

	res, err := e.ProcessQuery(context.Background(), "show PR 5")
	require.NoError(t, err)
	require.True(t, res.Evidence.IsError())
	assert.Equal(t, "boom", res.Evidence.Error.Message)
}

func TestProcessQuery_DefaultIDsAreUnique(t *testing.T) {
	e := NewEngine(stubClassifier{}, &stubRouter{}, echoSummarizer{})
	a, err := e.ProcessQuery(context.Background(), "one")
	require.NoError(t, err)
	b, err := e.ProcessQuery(context.Background(), "two")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestProcessQuery_Unconfigured(t *testing.T) {
	e := NewEngine(classify.New(nil), router.New(), llm.NewSummarizer(nil, nil))

	res, err := e.ProcessQuery(context.Background(), "show PR 5 in acme/api")
	require.NoError(t, err)
	assert.Equal(t, model.QuerySourceControl, res.Analysis.QueryType)
	require.True(t, res.Evidence.IsError())
	assert.Contains(t, res.Evidence.Error.Message, "provider not configured")
	assert.Contains(t, res.Summary, "Could not gather evidence")
}

func TestQueryFromJSON(t *testing.T) {
	q, err := QueryFromJSON([]byte(`{"query":"who approved PR 3"}`))
	require.NoError(t, err)
	assert.Equal(t, "who approved PR 3", q)

	for _, body := range []string{
		`{}`,
		`{"query":null}`,
		`{"query":42}`,
		`{"query":["a"]}`,
		`{"query":"  "}`,
		`[]`,
		`not json`,
	} {
		_, err := QueryFromJSON([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidQuery, "body %s", body)
	}
}

func sampleResult() *model.QueryResult {
	return &model.QueryResult{
		ID:    "req-9",
		Query: "merged without approval",
		Analysis: model.Intent{
			QueryType:  model.QuerySourceControl,
			Action:     model.ActionAuditUnapprovedMerges,
			Strategy:   "deterministic",
			Confidence: 0.6,
			Parameters: model.Parameters{Repository: "acme/api"},
		},
		Evidence: &model.Envelope{
			Kind:   model.KindAggregate,
			Source: model.QuerySourceControl,
			Count:  2,
			Label:  "merged without approval",
			Records: []map[string]any{
				{"number": float64(4), "title": "Fix | pipe"},
				{"number": float64(9), "title": "Bump deps"},
			},
		},
		Summary:   "Found 2 items",
		Timestamp: fixed.UTC(),
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResult())

	assert.Contains(t, md, "# Evidence: merged without approval")
	assert.Contains(t, md, "repository=acme/api")
	assert.Contains(t, md, "## Summary\n\nFound 2 items")
	assert.Contains(t, md, "**2** merged without approval")
	assert.Contains(t, md, "| number | title |")
	assert.Contains(t, md, `Fix \| pipe`)
}

func TestMarkdown_MultiSource(t *testing.T) {
	res := sampleResult()
	res.Evidence = &model.Envelope{
		Kind:  model.KindMultiSource,
		Count: 2,
		Sources: map[string]*model.Envelope{
			"jira":   {Kind: model.KindError, Error: &model.ErrorEvidence{Message: "unauthorized"}},
			"github": {Kind: model.KindRecordList, RecordType: "pull_request", Records: []map[string]any{{"number": 1}}},
		},
	}
	md := Markdown(res)

	gh := strings.Index(md, "### github")
	jr := strings.Index(md, "### jira")
	require.True(t, gh >= 0 && jr >= 0)
	assert.Less(t, gh, jr)
	assert.Contains(t, md, "> **Error:** unauthorized")
}

func TestMarkdown_TruncatesLongTables(t *testing.T) {
	res := sampleResult()
	records := make([]map[string]any, maxTableRows+3)
	for i := range records {
		records[i] = map[string]any{"n": i}
	}
	res.Evidence = &model.Envelope{Kind: model.KindRecordList, Records: records}

	assert.Contains(t, Markdown(res), "_3 more rows omitted._")
}

func TestRenderer_Files(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	p := NewPipeline(nil, NewRenderer(&out), nil, nil)

	err := p.Deliver(context.Background(), sampleResult(), Output{
		JSONPath:     filepath.Join(dir, "result.json"),
		MarkdownPath: filepath.Join(dir, "result"),
		Verbose:      true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "result.json"))
	require.NoError(t, err)
	var decoded model.QueryResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "req-9", decoded.ID)

	_, err = os.Stat(filepath.Join(dir, "result.md"))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "✓ Wrote JSON")
	assert.Contains(t, out.String(), "Found 2 items")
}

type recordingExporter struct {
	base    string
	headers []string
	rows    []model.Row
	format  model.ExportFormat
	err     error
}

func (r *recordingExporter) Export(_ context.Context, base string, headers []string, rows []model.Row, format model.ExportFormat) (*model.ExportDescriptor, error) {
	r.base, r.headers, r.rows, r.format = base, headers, rows, format
	if r.err != nil {
		return nil, r.err
	}
	return &model.ExportDescriptor{Name: base + ".csv", Path: "/tmp/" + base + ".csv", Format: format, Size: 10}, nil
}

func TestExportRecords_MultiSource(t *testing.T) {
	env := &model.Envelope{
		Kind: model.KindMultiSource,
		Sources: map[string]*model.Envelope{
			"jira":      {Kind: model.KindRecordList, Records: []map[string]any{{"key": "OPS-1"}}},
			"github":    {Kind: model.KindSingleRecord, Record: map[string]any{"number": 3}},
			"documents": {Kind: model.KindError, Error: &model.ErrorEvidence{Message: "x"}},
		},
	}
	recs := ExportRecords(env)
	require.Len(t, recs, 2)
	assert.Equal(t, "github", recs[0]["source"])
	assert.Equal(t, "jira", recs[1]["source"])
	assert.Equal(t, "OPS-1", recs[1]["key"])
}

func TestExportEvidence(t *testing.T) {
	exp := &recordingExporter{}
	desc, err := ExportEvidence(context.Background(), exp, sampleResult(), "excel")
	require.NoError(t, err)
	assert.Equal(t, model.ExportXLSX, exp.format)
	assert.Equal(t, "evidence", exp.base)
	assert.Equal(t, []string{"number", "title"}, exp.headers)
	assert.Len(t, exp.rows, 2)
	assert.Equal(t, "9", exp.rows[1]["number"])
	assert.NotNil(t, desc)

	empty := sampleResult()
	empty.Evidence = &model.Envelope{Kind: model.KindRecordList}
	_, err = ExportEvidence(context.Background(), exp, empty, "csv")
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, err = ExportEvidence(context.Background(), exp, sampleResult(), "pdf")
	assert.Error(t, err)
}

func TestDeliver_ExportFailureIsReported(t *testing.T) {
	var out bytes.Buffer
	p := NewPipeline(nil, NewRenderer(&out), &recordingExporter{err: errors.New("disk full")}, nil)

	require.NoError(t, p.Deliver(context.Background(), sampleResult(), Output{ExportFormat: "csv"}))
	assert.Contains(t, out.String(), "Warning: export failed")
	assert.Contains(t, out.String(), "disk full")
}
