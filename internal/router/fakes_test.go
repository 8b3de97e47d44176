package router

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/transport"
)

type listCall struct {
	repo  string
	state model.PRState
}

type fakeSCM struct {
	mu sync.Mutex

	byState  map[model.PRState][]model.PullRequest
	listErr  error
	records  map[string]*model.PullRequest // "owner/repo#n"
	getErrs  map[string]error
	repos    []model.Repository
	repoErr  error
	def      string
	fallback int
	panics   bool

	lists []listCall
	gets  []string
}

func (f *fakeSCM) ListPullRequests(ctx context.Context, repo model.RepoRef, state model.PRState, limit int) ([]model.PullRequest, error) {
	if f.panics {
		panic("scm exploded")
	}
	f.mu.Lock()
	f.lists = append(f.lists, listCall{repo: repo.String(), state: state})
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byState[state], nil
}

func (f *fakeSCM) GetPullRequest(ctx context.Context, repo model.RepoRef, number int) (*model.PullRequest, error) {
	key := fmt.Sprintf("%s#%d", repo, number)
	f.mu.Lock()
	f.gets = append(f.gets, key)
	f.mu.Unlock()
	if err := f.getErrs[key]; err != nil {
		return nil, err
	}
	if pr, ok := f.records[key]; ok {
		return pr, nil
	}
	return nil, &transport.APIError{StatusCode: http.StatusNotFound, Method: http.MethodGet, URL: "/repos/" + repo.String()}
}

func (f *fakeSCM) ListRepositories(ctx context.Context, limit int) ([]model.Repository, error) {
	if f.repoErr != nil {
		return nil, f.repoErr
	}
	if limit > 0 && len(f.repos) > limit {
		return f.repos[:limit], nil
	}
	return f.repos, nil
}

func (f *fakeSCM) DefaultRepository() (model.RepoRef, bool) {
	if f.def == "" {
		return model.RepoRef{}, false
	}
	ref, err := model.ParseRepoRef(f.def)
	return ref, err == nil
}

func (f *fakeSCM) FallbackLimit() int {
	if f.fallback == 0 {
		return 5
	}
	return f.fallback
}

type fakeTracker struct {
	verifyErr   error
	ticket      *model.Ticket
	ticketErr   error
	comments    []model.Comment
	commentsErr error
	search      *model.TicketSearch

	queries []string
	limits  []int
}

func (f *fakeTracker) Verify(ctx context.Context) (*model.Identity, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &model.Identity{Name: "bot"}, nil
}

func (f *fakeTracker) Search(ctx context.Context, jql string, limit int) (*model.TicketSearch, error) {
	f.queries = append(f.queries, jql)
	f.limits = append(f.limits, limit)
	if f.search != nil {
		return f.search, nil
	}
	return &model.TicketSearch{Query: jql, Tickets: []model.Ticket{}}, nil
}

func (f *fakeTracker) GetTicket(ctx context.Context, key string) (*model.Ticket, error) {
	if f.ticketErr != nil {
		return nil, f.ticketErr
	}
	if f.ticket == nil {
		return nil, nil
	}
	t := *f.ticket
	return &t, nil
}

func (f *fakeTracker) Comments(ctx context.Context, key string) ([]model.Comment, error) {
	return f.comments, f.commentsErr
}

func (f *fakeTracker) SearchLimit() int { return 50 }
func (f *fakeTracker) AccessLimit() int { return 20 }

type exportCall struct {
	base   string
	rows   int
	format model.ExportFormat
}

type fakeDocs struct {
	files     []model.FileInfo
	listErr   error
	tables    map[string]*model.Table
	exportErr error

	loaded  []string
	exports []exportCall
}

func (f *fakeDocs) AvailableFiles(ctx context.Context) ([]model.FileInfo, error) {
	return f.files, f.listErr
}

func (f *fakeDocs) Load(ctx context.Context, name string) (*model.Table, error) {
	f.loaded = append(f.loaded, name)
	t, ok := f.tables[name]
	if !ok {
		return nil, fmt.Errorf("read %s: missing", name)
	}
	return t, nil
}

func (f *fakeDocs) Analyze(file model.FileInfo, t *model.Table) *model.DocumentAnalysis {
	return &model.DocumentAnalysis{File: file, Headers: t.Headers, RowCount: t.RowCount, Insights: []string{}}
}

func (f *fakeDocs) Export(ctx context.Context, base string, headers []string, rows []model.Row, format model.ExportFormat) (*model.ExportDescriptor, error) {
	f.exports = append(f.exports, exportCall{base: base, rows: len(rows), format: format})
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &model.ExportDescriptor{Name: base + "-export." + string(format), Path: "/tmp/x", Size: 10, Format: format}, nil
}
