package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/evidra/internal/model"
)

func TestNormalize_SingleRecord(t *testing.T) {
	pr := &model.PullRequest{Number: 7, Title: "Release", Repository: "acme/api"}
	pr.WithReviews(nil)

	env := Normalize(model.QuerySourceControl, pr)
	assert.Equal(t, model.KindSingleRecord, env.Kind)
	assert.Equal(t, model.QuerySourceControl, env.Source)
	assert.Equal(t, "pull_request", env.RecordType)
	assert.Equal(t, 1, env.Count)
	assert.Equal(t, float64(7), env.Record["number"])
	assert.Equal(t, "acme/api", env.Record["repository"])
	assert.Len(t, env.Rows(), 1)
}

func TestNormalize_RecordList(t *testing.T) {
	waiting := []model.WaitingReview{
		{RecordID: "1", Title: "a", WaitingTime: "30 hours", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{RecordID: "2", Title: "b", WaitingTime: "48 hours"},
	}

	env := Normalize(model.QuerySourceControl, waiting)
	assert.Equal(t, model.KindRecordList, env.Kind)
	assert.Equal(t, "waiting_review", env.RecordType)
	assert.Equal(t, 2, env.Count)
	require.Len(t, env.Records, 2)
	assert.Equal(t, "30 hours", env.Records[0]["waiting_time"])
	assert.Equal(t, "2024-01-01T00:00:00Z", env.Records[0]["createdAt"])
}

func TestNormalize_EmptyList(t *testing.T) {
	env := Normalize(model.QuerySourceControl, []model.PullRequest{})
	assert.Equal(t, model.KindRecordList, env.Kind)
	assert.Equal(t, 0, env.Count)
	assert.NotNil(t, env.Records)

	env = Normalize(model.QueryDocument, nil)
	assert.Equal(t, model.KindRecordList, env.Kind)
	assert.Equal(t, 0, env.Count)
}

func TestNormalize_Aggregate(t *testing.T) {
	raw := model.AggregateResult{
		Count: 1,
		Label: "merged without approval",
		Items: []model.PullRequest{{Number: 3, Merged: true}},
	}

	env := Normalize(model.QuerySourceControl, raw)
	assert.Equal(t, model.KindAggregate, env.Kind)
	assert.Equal(t, 1, env.Count)
	assert.Equal(t, "merged without approval", env.Label)
	assert.Equal(t, "pull_request", env.RecordType)
	require.Len(t, env.Records, 1)
	assert.Equal(t, float64(3), env.Records[0]["number"])
}

func TestNormalize_TicketSearchIsAggregate(t *testing.T) {
	search := &model.TicketSearch{Query: "ORDER BY updated DESC", Total: 120, Tickets: []model.Ticket{{Key: "OPS-1"}, {Key: "OPS-2"}}}

	env := Normalize(model.QueryIssueTracker, search)
	assert.Equal(t, model.KindAggregate, env.Kind)
	assert.Equal(t, 120, env.Count, "count is the total, not the page size")
	assert.Equal(t, "tickets", env.Label)
	assert.Len(t, env.Records, 2)
	assert.Equal(t, "ticket", env.RecordType)
}

func TestNormalize_Error(t *testing.T) {
	params := model.Parameters{Repository: "acme/api"}
	env := Normalize(model.QuerySourceControl, model.NewErrorEvidence(errors.New("boom"), params))
	assert.True(t, env.IsError())
	assert.Equal(t, "boom", env.Error.Message)
	assert.Equal(t, "acme/api", env.Error.Parameters.Repository)
	assert.Nil(t, env.Rows())

	env = Normalize(model.QueryIssueTracker, errors.New("plain failure"))
	assert.True(t, env.IsError())
	assert.Equal(t, "plain failure", env.Error.Message)

	wrapped := errors.Join(errors.New("outer"), model.NewErrorEvidence(errors.New("inner"), params))
	env = Normalize(model.QueryIssueTracker, wrapped)
	assert.Equal(t, "inner", env.Error.Message)
}

func TestNormalize_MultiSource(t *testing.T) {
	raw := model.MultiSource{
		"github":    []model.PullRequest{{Number: 1}},
		"jira":      model.NewErrorEvidence(errors.New("tracker down"), model.Parameters{}),
		"documents": &model.Guidance{Message: "upload a file"},
	}

	env := Normalize(model.QueryGeneral, raw)
	assert.Equal(t, model.KindMultiSource, env.Kind)
	assert.Equal(t, 3, env.Count)
	require.Len(t, env.Sources, 3)

	assert.Equal(t, model.KindRecordList, env.Sources["github"].Kind)
	assert.Equal(t, model.QuerySourceControl, env.Sources["github"].Source)

	assert.True(t, env.Sources["jira"].IsError())
	assert.Equal(t, "tracker down", env.Sources["jira"].Error.Message)
	assert.Equal(t, model.QueryIssueTracker, env.Sources["jira"].Source)

	docs := env.Sources["documents"]
	assert.Equal(t, model.KindSingleRecord, docs.Kind)
	assert.Equal(t, "guidance", docs.RecordType)
	assert.Equal(t, "upload a file", docs.Record["message"])
}

func TestNormalize_LooseMaps(t *testing.T) {
	env := Normalize(model.QueryGeneral, map[string]any{"count": float64(2), "items": []any{map[string]any{"a": 1}, "x"}})
	assert.Equal(t, model.KindAggregate, env.Kind)
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, "items", env.Label)
	require.Len(t, env.Records, 2)
	assert.Equal(t, map[string]any{"value": "x"}, env.Records[1])

	env = Normalize(model.QueryGeneral, map[string]any{"number": 5, "title": "t"})
	assert.Equal(t, model.KindSingleRecord, env.Kind)

	env = Normalize(model.QueryGeneral, map[string]any{"error": "nope"})
	assert.True(t, env.IsError())
}

func TestNormalize_AlreadyNormalized(t *testing.T) {
	in := &model.Envelope{Kind: model.KindRecordList, Count: 0}
	assert.Same(t, in, Normalize(model.QueryGeneral, in))
}

func TestNormalize_NilPointer(t *testing.T) {
	var pr *model.PullRequest
	env := Normalize(model.QuerySourceControl, pr)
	assert.Equal(t, model.KindRecordList, env.Kind)
	assert.Equal(t, 0, env.Count)
}
