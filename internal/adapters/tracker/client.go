// Package tracker is the issue-tracker evidence adapter (Jira REST v2 shape)
package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/transport"
)

const (
	apiPrefix          = "/rest/api/2"
	searchFields       = "summary,status,assignee,reporter,created,updated,priority,issuetype"
	defaultSearchLimit = 50
	defaultAccessLimit = 20
)

// Client searches and fetches tickets
type Client struct {
	cfg           model.IssueTrackerConfig
	api           *transport.Client
	transportOpts []transport.Option
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

// WithTransport passes options to the underlying HTTP client
func WithTransport(opts ...transport.Option) Option {
	return func(c *Client) { c.transportOpts = append(c.transportOpts, opts...) }
}

// New creates an issue-tracker client from cfg
func New(cfg model.IssueTrackerConfig, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	if cfg.AccessLimit <= 0 {
		cfg.AccessLimit = defaultAccessLimit
	}

	c := &Client{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("tracker")
	c.api = transport.New(cfg.BaseURL, transport.Basic(cfg.Email, cfg.Token), c.transportOpts...)
	return c
}

// Name identifies the provider in multi-source evidence
func (c *Client) Name() string {
	return "jira"
}

// Configured reports whether base URL and credentials are present
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.Email != "" && c.cfg.Token != ""
}

// SearchLimit is the result cap for generic searches
func (c *Client) SearchLimit() int { return c.cfg.SearchLimit }

// AccessLimit is the result cap for access searches
func (c *Client) AccessLimit() int { return c.cfg.AccessLimit }

// Verify checks connectivity by fetching the authenticated identity.
// The identity is never served from the response cache.
func (c *Client) Verify(ctx context.Context) (*model.Identity, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var u jiraUser
	if err := c.api.GetJSONFresh(ctx, apiPrefix+"/myself", nil, &u); err != nil {
		return nil, fmt.Errorf("verify issue tracker: %w", err)
	}
	id := &model.Identity{Name: u.Name, DisplayName: u.DisplayName, Email: u.EmailAddress}
	if id.Name == "" {
		id.Name = u.AccountID
	}
	return id, nil
}

// Search runs a search-language query and returns at most limit tickets
func (c *Client) Search(ctx context.Context, jql string, limit int) (*model.TicketSearch, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = c.cfg.SearchLimit
	}

	q := url.Values{}
	q.Set("jql", jql)
	q.Set("maxResults", strconv.Itoa(limit))
	q.Set("fields", searchFields)

	var res jiraSearch
	if err := c.api.GetJSON(ctx, apiPrefix+"/search", q, &res); err != nil {
		return nil, fmt.Errorf("search %q: %w", jql, err)
	}

	out := &model.TicketSearch{Query: jql, Total: res.Total, Tickets: make([]model.Ticket, 0, len(res.Issues))}
	for _, issue := range res.Issues {
		out.Tickets = append(out.Tickets, issue.toModel(c.cfg.BaseURL))
	}
	return out, nil
}

// GetTicket fetches one ticket with its change history, transitions and rendered description
func (c *Client) GetTicket(ctx context.Context, key string) (*model.Ticket, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("expand", "changelog,transitions,renderedFields")

	var issue jiraIssue
	if err := c.api.GetJSON(ctx, apiPrefix+"/issue/"+url.PathEscape(key), q, &issue); err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", key, err)
	}
	t := issue.toModel(c.cfg.BaseURL)
	return &t, nil
}

// Comments returns a ticket's comments with bodies reduced to plain text
func (c *Client) Comments(ctx context.Context, key string) ([]model.Comment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("expand", "renderedBody")

	var res jiraComments
	if err := c.api.GetJSON(ctx, apiPrefix+"/issue/"+url.PathEscape(key)+"/comment", q, &res); err != nil {
		return nil, fmt.Errorf("comments %s: %w", key, err)
	}
	out := make([]model.Comment, 0, len(res.Comments))
	for _, cm := range res.Comments {
		out = append(out, cm.toModel())
	}
	return out, nil
}

// Projects lists the projects visible to the account
func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var raw []jiraProject
	if err := c.api.GetJSON(ctx, apiPrefix+"/project", nil, &raw); err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	out := make([]model.Project, 0, len(raw))
	for _, p := range raw {
		out = append(out, model.Project{Key: p.Key, Name: p.Name})
	}
	return out, nil
}
