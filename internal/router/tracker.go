package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/adapters/tracker"
	"github.com/ppiankov/evidra/internal/model"
)

// issueTracker verifies connectivity, then fetches a ticket, runs an access
// search, or runs a generic filtered search
func (r *Router) issueTracker(ctx context.Context, intent model.Intent) (any, error) {
	if r.tracker == nil {
		return nil, missing(SourceJira)
	}
	if _, err := r.tracker.Verify(ctx); err != nil {
		return nil, err
	}

	p := intent.Parameters
	switch {
	case p.HasIssueKey():
		r.trackerBranch("ticket", p)
		ticket, err := r.tracker.GetTicket(ctx, p.IssueKey)
		if err != nil {
			return nil, err
		}
		if ticket == nil {
			return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, p.IssueKey)
		}
		comments, err := r.tracker.Comments(ctx, p.IssueKey)
		if err != nil {
			r.logger.Debug("comments unavailable", zap.String("key", p.IssueKey), zap.Error(err))
		}
		ticket.Comments = comments
		return ticket, nil
	case p.HasUser():
		r.trackerBranch("access_search", p)
		return r.tracker.Search(ctx, tracker.AccessQuery(p.User), r.tracker.AccessLimit())
	default:
		r.trackerBranch("search", p)
		jql := tracker.BuildQuery(model.TicketFilter{Project: p.Project, Status: p.Status, Assignee: p.Assignee})
		return r.tracker.Search(ctx, jql, r.tracker.SearchLimit())
	}
}

func (r *Router) trackerBranch(name string, p model.Parameters) {
	r.logger.Debug("branch",
		zap.String("queryType", string(model.QueryIssueTracker)),
		zap.String("branch", name),
		zap.Any("parameters", p.Fields()))
}
