package router

import (
	"context"

	"github.com/ppiankov/evidra/internal/model"
)

// SourceControl is the slice of the source-control adapter the router uses
type SourceControl interface {
	ListPullRequests(ctx context.Context, repo model.RepoRef, state model.PRState, limit int) ([]model.PullRequest, error)
	GetPullRequest(ctx context.Context, repo model.RepoRef, number int) (*model.PullRequest, error)
	ListRepositories(ctx context.Context, limit int) ([]model.Repository, error)
	DefaultRepository() (model.RepoRef, bool)
	FallbackLimit() int
}

// IssueTracker is the slice of the issue-tracker adapter the router uses
type IssueTracker interface {
	Verify(ctx context.Context) (*model.Identity, error)
	Search(ctx context.Context, jql string, limit int) (*model.TicketSearch, error)
	GetTicket(ctx context.Context, key string) (*model.Ticket, error)
	Comments(ctx context.Context, key string) ([]model.Comment, error)
	SearchLimit() int
	AccessLimit() int
}

// Documents is the slice of the document adapter the router uses
type Documents interface {
	AvailableFiles(ctx context.Context) ([]model.FileInfo, error)
	Load(ctx context.Context, name string) (*model.Table, error)
	Analyze(file model.FileInfo, t *model.Table) *model.DocumentAnalysis
	Export(ctx context.Context, base string, headers []string, rows []model.Row, format model.ExportFormat) (*model.ExportDescriptor, error)
}
