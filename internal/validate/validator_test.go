package validate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/evidra/internal/adapters/scm"
	"github.com/ppiankov/evidra/internal/adapters/tracker"
	"github.com/ppiankov/evidra/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	validateSleepFunc = func(d time.Duration) {}
}

func okCheck(name string) Check {
	return Check{Name: name, Run: func(ctx context.Context) (string, error) { return name + " fine", nil }}
}

func TestValidator_KeepsOrder(t *testing.T) {
	v := NewValidator(time.Second, 2)
	checks := []Check{okCheck("a"), okCheck("b"), okCheck("c"), okCheck("d")}

	results := v.Validate(context.Background(), checks)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, name := range []string{"a", "b", "c", "d"} {
		if results[i].Name != name || !results[i].OK {
			t.Errorf("result %d: expected ok %s, got %+v", i, name, results[i])
		}
	}
	if !Healthy(results) {
		t.Error("expected healthy")
	}
}

func TestValidator_Skipped(t *testing.T) {
	v := NewValidator(time.Second, 1)
	results := v.Validate(context.Background(), []Check{ModelCheck(nil)})

	if !results[0].Skipped || results[0].OK {
		t.Fatalf("expected skipped, got %+v", results[0])
	}
	if !Healthy(results) {
		t.Error("skipped checks must not make the report unhealthy")
	}
}

func TestValidator_RetriesTransientFailures(t *testing.T) {
	var calls int32
	c := Check{Name: "flaky", Run: func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("GET https://x/api: HTTP 503")
		}
		return "up", nil
	}}

	r := NewValidator(time.Second, 1).Validate(context.Background(), []Check{c})[0]

	if !r.OK {
		t.Fatalf("expected eventual success, got %+v", r)
	}
	if r.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", r.Attempts)
	}
}

func TestValidator_NoRetryOnPermanentFailure(t *testing.T) {
	var calls int32
	c := Check{Name: "denied", Run: func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("credentials rejected")
	}}

	results := NewValidator(time.Second, 1).Validate(context.Background(), []Check{c})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if Healthy(results) {
		t.Error("expected unhealthy")
	}
}

func TestValidator_RecoversPanic(t *testing.T) {
	c := Check{Name: "boom", Run: func(ctx context.Context) (string, error) { panic("bad adapter") }}

	r := NewValidator(time.Second, 1).Validate(context.Background(), []Check{c, okCheck("next")})

	if r[0].OK || !strings.Contains(r[0].Error, "bad adapter") {
		t.Errorf("expected recovered panic, got %+v", r[0])
	}
	if !r[1].OK {
		t.Error("a panicking check must not affect the others")
	}
}

func TestValidator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := Check{Name: "slow", Run: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	results := NewValidator(time.Second, 1).Validate(ctx, []Check{block})

	if results[0].OK {
		t.Error("expected failure on cancelled context")
	}
}

func TestSourceControlCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"login":"octo","name":"Octo Cat"}`))
	}))
	defer server.Close()

	client := scm.New(model.SourceControlConfig{BaseURL: server.URL, Token: "tok", DefaultRepo: "acme/api"})
	r := NewValidator(time.Second, 1).Validate(context.Background(), []Check{SourceControlCheck(client)})[0]

	if !r.OK {
		t.Fatalf("expected ok, got %+v", r)
	}
	if r.Detail != "authenticated as octo, default repository acme/api" {
		t.Errorf("unexpected detail %q", r.Detail)
	}

	bad := scm.New(model.SourceControlConfig{BaseURL: server.URL, Token: "wrong"})
	r = NewValidator(time.Second, 1).Validate(context.Background(), []Check{SourceControlCheck(bad)})[0]
	if r.OK || !strings.HasPrefix(r.Error, "credentials rejected") {
		t.Errorf("expected rejected credentials, got %+v", r)
	}

	unset := scm.New(model.SourceControlConfig{BaseURL: server.URL})
	r = NewValidator(time.Second, 1).Validate(context.Background(), []Check{SourceControlCheck(unset)})[0]
	if !r.Skipped {
		t.Errorf("expected skipped without token, got %+v", r)
	}
}

func TestIssueTrackerCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accountId":"abc","displayName":"Dana"}`))
	}))
	defer server.Close()

	client := tracker.New(model.IssueTrackerConfig{BaseURL: server.URL, Email: "d@x.io", Token: "t"})
	r := NewValidator(time.Second, 1).Validate(context.Background(), []Check{IssueTrackerCheck(client)})[0]

	if !r.OK {
		t.Fatalf("expected ok, got %+v", r)
	}
	if !strings.HasPrefix(r.Detail, "authenticated as ") {
		t.Errorf("unexpected detail %q", r.Detail)
	}
}

type stubDocs struct {
	files []model.FileInfo
	err   error
}

func (s stubDocs) Backend() string { return "fs" }
func (s stubDocs) AvailableFiles(context.Context) ([]model.FileInfo, error) {
	return s.files, s.err
}

func TestDocumentCheck(t *testing.T) {
	v := NewValidator(time.Second, 2)
	results := v.Validate(context.Background(), []Check{
		DocumentCheck(stubDocs{files: make([]model.FileInfo, 3)}),
		DocumentCheck(stubDocs{err: errors.New("permission denied")}),
	})

	if results[0].Detail != "3 files (fs)" {
		t.Errorf("unexpected detail %q", results[0].Detail)
	}
	if results[1].OK || results[1].Error != "permission denied" {
		t.Errorf("expected failure, got %+v", results[1])
	}
}
