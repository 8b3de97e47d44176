// Package scm is the source-control evidence adapter. It speaks the GitHub
// REST v3 shape: pull requests, their reviews, and the account's repositories.
package scm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/transport"
	"github.com/ppiankov/evidra/internal/worker"
)

const (
	maxPerPage          = 100
	defaultEnrichLimit  = 8
	defaultListLimit    = 30
	defaultFallbackScan = 5
)

// Client fetches pull requests, reviews and repositories
type Client struct {
	cfg           model.SourceControlConfig
	api           *transport.Client
	transportOpts []transport.Option
	enrichLimit   int
	logger        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEnrichmentLimit bounds concurrent review fetches per list
func WithEnrichmentLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.enrichLimit = n
		}
	}
}

// WithTransport passes options to the underlying HTTP client
func WithTransport(opts ...transport.Option) Option {
	return func(c *Client) { c.transportOpts = append(c.transportOpts, opts...) }
}

// New creates a source-control client from cfg
func New(cfg model.SourceControlConfig, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = defaultListLimit
	}
	if cfg.FallbackRepos <= 0 {
		cfg.FallbackRepos = defaultFallbackScan
	}

	c := &Client{
		cfg:         cfg,
		enrichLimit: defaultEnrichLimit,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("scm")

	var auth transport.Auth
	if cfg.Token != "" {
		auth = transport.Bearer(cfg.Token)
	}
	c.api = transport.New(cfg.BaseURL, auth, c.transportOpts...)
	return c
}

// Name identifies the provider in multi-source evidence
func (c *Client) Name() string {
	return "github"
}

// Configured reports whether a token is present
func (c *Client) Configured() bool {
	return c.cfg.Token != ""
}

// DefaultRepository returns the configured default repository, if any
func (c *Client) DefaultRepository() (model.RepoRef, bool) {
	if c.cfg.DefaultRepo == "" {
		return model.RepoRef{}, false
	}
	ref, err := model.ParseRepoRef(c.cfg.DefaultRepo)
	if err != nil {
		return model.RepoRef{}, false
	}
	return ref, true
}

// FallbackLimit is how many listed repositories a by-number lookup may scan
func (c *Client) FallbackLimit() int {
	return c.cfg.FallbackRepos
}

// Identity returns the authenticated account
func (c *Client) Identity(ctx context.Context) (*model.Identity, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var u ghUser
	if err := c.api.GetJSON(ctx, "/user", nil, &u); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	return &model.Identity{Name: u.Login, DisplayName: u.Name, Email: u.Email}, nil
}

// ListPullRequests returns up to limit pull requests, most recently updated first,
// each enriched with its reviews. A failed review fetch leaves that record with no reviews.
func (c *Client) ListPullRequests(ctx context.Context, repo model.RepoRef, state model.PRState, limit int) ([]model.PullRequest, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = c.cfg.ListLimit
	}
	if state == "" {
		state = model.PRStateAll
	}

	q := url.Values{}
	q.Set("state", string(state))
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(min(limit, maxPerPage)))

	var pulls []ghPull
	if err := c.api.GetJSON(ctx, repoPath(repo, "/pulls"), q, &pulls); err != nil {
		return nil, fmt.Errorf("list pull requests %s: %w", repo, err)
	}
	if len(pulls) > limit {
		pulls = pulls[:limit]
	}

	prs := make([]model.PullRequest, len(pulls))
	tasks := make([]worker.Task[[]model.Review], len(pulls))
	for i, p := range pulls {
		prs[i] = p.toModel(repo)
		tasks[i] = func(ctx context.Context) ([]model.Review, error) {
			return c.ListReviews(ctx, repo, p.Number)
		}
	}

	for i, out := range worker.Settle(ctx, c.enrichLimit, tasks) {
		if out.Err != nil {
			c.logger.Debug("review enrichment failed",
				zap.String("repository", repo.String()),
				zap.Int("number", prs[i].Number),
				zap.Error(out.Err))
		}
		prs[i].WithReviews(out.Value)
	}
	return prs, nil
}

// GetPullRequest fetches one pull request with its reviews
func (c *Client) GetPullRequest(ctx context.Context, repo model.RepoRef, number int) (*model.PullRequest, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var p ghPull
	if err := c.api.GetJSON(ctx, repoPath(repo, "/pulls/"+strconv.Itoa(number)), nil, &p); err != nil {
		return nil, fmt.Errorf("get pull request %s#%d: %w", repo, number, err)
	}
	reviews, err := c.ListReviews(ctx, repo, number)
	if err != nil {
		return nil, err
	}
	pr := p.toModel(repo)
	pr.WithReviews(reviews)
	return &pr, nil
}

// ListReviews returns the reviews submitted on one pull request
func (c *Client) ListReviews(ctx context.Context, repo model.RepoRef, number int) ([]model.Review, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(maxPerPage))

	var raw []ghReview
	if err := c.api.GetJSON(ctx, repoPath(repo, "/pulls/"+strconv.Itoa(number)+"/reviews"), q, &raw); err != nil {
		return nil, fmt.Errorf("list reviews %s#%d: %w", repo, number, err)
	}
	reviews := make([]model.Review, 0, len(raw))
	for _, r := range raw {
		reviews = append(reviews, r.toModel())
	}
	return reviews, nil
}

// ListRepositories returns repositories visible to the account, most recently updated first.
// With an organization configured the listing is scoped to it.
func (c *Client) ListRepositories(ctx context.Context, limit int) ([]model.Repository, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = c.cfg.ListLimit
	}

	path := "/user/repos"
	if c.cfg.Organization != "" {
		path = "/orgs/" + url.PathEscape(c.cfg.Organization) + "/repos"
	}
	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(min(limit, maxPerPage)))

	var raw []ghRepo
	if err := c.api.GetJSON(ctx, path, q, &raw); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}
	repos := make([]model.Repository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, r.toModel())
	}
	return repos, nil
}

func repoPath(repo model.RepoRef, suffix string) string {
	return "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name) + suffix
}
