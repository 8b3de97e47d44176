package router

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/classify"
	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/transport"
)

const (
	// WaitingThreshold is how old an unreviewed open record must be to count as waiting
	WaitingThreshold = 24 * time.Hour
	// RecentWindow bounds "last week" merges
	RecentWindow = 7 * 24 * time.Hour

	LabelUnapprovedMerges = "merged without approval"
)

// sourceControl walks the ordered branch chain; the first matching condition wins.
// Textual triggers are checked before parameter presence.
func (r *Router) sourceControl(ctx context.Context, intent model.Intent) (any, error) {
	if r.scm == nil {
		return nil, missing(SourceGitHub)
	}
	text := intent.Intent + " " + intent.Query
	p := intent.Parameters

	switch {
	case classify.TriggerUnapprovedMerge.MatchString(text):
		r.branch("unapproved_merges", p)
		return r.unapprovedMerges(ctx, p)
	case classify.TriggerReviewedBy.MatchString(text) && p.HasUser():
		r.branch("reviewed_by", p)
		return r.reviewedBy(ctx, p)
	case classify.TriggerWaitingReview.MatchString(text):
		r.branch("waiting_review", p)
		return r.waitingReview(ctx, p)
	case classify.TriggerRecentMerges.MatchString(text):
		r.branch("recent_merges", p)
		return r.recentMerges(ctx, p)
	case p.HasPRNumber() && p.HasRepository():
		r.branch("single_record", p)
		repo, err := model.ParseRepoRef(p.Repository)
		if err != nil {
			return nil, err
		}
		return r.scm.GetPullRequest(ctx, repo, p.Number())
	case p.HasPRNumber():
		r.branch("record_scan", p)
		return r.scanForRecord(ctx, p.Number())
	case p.HasRepository():
		r.branch("repository_list", p)
		repo, err := model.ParseRepoRef(p.Repository)
		if err != nil {
			return nil, err
		}
		return r.scm.ListPullRequests(ctx, repo, model.PRStateAll, 0)
	default:
		r.branch("default_list", p)
		if repo, ok := r.scm.DefaultRepository(); ok {
			return r.scm.ListPullRequests(ctx, repo, model.PRStateAll, 0)
		}
		return r.scm.ListRepositories(ctx, 0)
	}
}

func (r *Router) branch(name string, p model.Parameters) {
	r.logger.Debug("branch",
		zap.String("queryType", string(model.QuerySourceControl)),
		zap.String("branch", name),
		zap.Any("parameters", p.Fields()))
}

// resolveRepository prefers the query's repository, then the configured default
func (r *Router) resolveRepository(p model.Parameters) (model.RepoRef, error) {
	if p.HasRepository() {
		return model.ParseRepoRef(p.Repository)
	}
	if repo, ok := r.scm.DefaultRepository(); ok {
		return repo, nil
	}
	return model.RepoRef{}, ErrNoRepository
}

func (r *Router) unapprovedMerges(ctx context.Context, p model.Parameters) (any, error) {
	repo, err := r.resolveRepository(p)
	if err != nil {
		return nil, err
	}
	prs, err := r.scm.ListPullRequests(ctx, repo, model.PRStateClosed, 0)
	if err != nil {
		return nil, err
	}
	return UnapprovedMerges(prs), nil
}

// UnapprovedMerges keeps merged records with zero approvals
func UnapprovedMerges(prs []model.PullRequest) model.AggregateResult {
	items := []model.PullRequest{}
	for _, pr := range prs {
		if pr.Merged && pr.Tally.Approvals == 0 {
			items = append(items, pr)
		}
	}
	return model.AggregateResult{Count: len(items), Label: LabelUnapprovedMerges, Items: items}
}

func (r *Router) reviewedBy(ctx context.Context, p model.Parameters) (any, error) {
	repo, err := r.resolveRepository(p)
	if err != nil {
		return nil, err
	}
	prs, err := r.scm.ListPullRequests(ctx, repo, model.PRStateAll, 0)
	if err != nil {
		return nil, err
	}
	return ReviewedBy(prs, p.User), nil
}

// ReviewedBy projects every record the user reviewed onto that user's latest decision
func ReviewedBy(prs []model.PullRequest, user string) []model.ReviewDecision {
	out := []model.ReviewDecision{}
	for _, pr := range prs {
		review, ok := pr.LatestReviewBy(user)
		if !ok {
			continue
		}
		out = append(out, model.ReviewDecision{
			RecordID: strconv.Itoa(pr.Number),
			Title:    pr.Title,
			Reviewer: review.Reviewer,
			Decision: review.State,
			Date:     review.SubmittedAt,
			URL:      pr.URL,
		})
	}
	return out
}

func (r *Router) waitingReview(ctx context.Context, p model.Parameters) (any, error) {
	repo, err := r.resolveRepository(p)
	if err != nil {
		return nil, err
	}
	prs, err := r.scm.ListPullRequests(ctx, repo, model.PRStateOpen, 0)
	if err != nil {
		return nil, err
	}
	return WaitingForReview(prs, r.now()), nil
}

// WaitingForReview keeps records older than WaitingThreshold with no reviews at all
func WaitingForReview(prs []model.PullRequest, now time.Time) []model.WaitingReview {
	out := []model.WaitingReview{}
	for _, pr := range prs {
		age := now.Sub(pr.CreatedAt)
		if age <= WaitingThreshold || pr.Tally.Total != 0 {
			continue
		}
		out = append(out, model.WaitingReview{
			RecordID:    strconv.Itoa(pr.Number),
			Title:       pr.Title,
			Author:      pr.Author,
			CreatedAt:   pr.CreatedAt,
			WaitingTime: fmt.Sprintf("%d hours", int(age/time.Hour)),
			URL:         pr.URL,
		})
	}
	return out
}

func (r *Router) recentMerges(ctx context.Context, p model.Parameters) (any, error) {
	repo, err := r.resolveRepository(p)
	if err != nil {
		return nil, err
	}
	prs, err := r.scm.ListPullRequests(ctx, repo, model.PRStateClosed, 0)
	if err != nil {
		return nil, err
	}
	return RecentMerges(prs, r.now()), nil
}

// RecentMerges keeps records merged within RecentWindow of now
func RecentMerges(prs []model.PullRequest, now time.Time) []model.RecentMerge {
	cutoff := now.Add(-RecentWindow)
	out := []model.RecentMerge{}
	for _, pr := range prs {
		if !pr.Merged || pr.MergedAt == nil || pr.MergedAt.Before(cutoff) {
			continue
		}
		approvers := pr.Approvers()
		if len(approvers) == 0 {
			approvers = []string{model.NoApprovers}
		}
		out = append(out, model.RecentMerge{
			RecordID:  strconv.Itoa(pr.Number),
			Title:     pr.Title,
			Author:    pr.Author,
			MergedAt:  *pr.MergedAt,
			Approvers: approvers,
			URL:       pr.URL,
		})
	}
	return out
}

// scanForRecord tries the default repository, then up to FallbackLimit recently
// updated repositories in order. Only not-found misses continue the scan.
func (r *Router) scanForRecord(ctx context.Context, number int) (any, error) {
	tried := make(map[string]bool)

	if repo, ok := r.scm.DefaultRepository(); ok {
		tried[repo.String()] = true
		pr, err := r.scm.GetPullRequest(ctx, repo, number)
		if err == nil {
			return pr, nil
		}
		if !transport.IsNotFound(err) {
			return nil, err
		}
		r.logger.Debug("record not in default repository", zap.String("repository", repo.String()), zap.Int("number", number))
	}

	limit := r.scm.FallbackLimit()
	repos, err := r.scm.ListRepositories(ctx, limit+len(tried))
	if err != nil {
		return nil, err
	}

	attempts := 0
	for _, repo := range repos {
		if attempts >= limit {
			break
		}
		if tried[repo.Ref.String()] {
			continue
		}
		tried[repo.Ref.String()] = true
		attempts++

		pr, err := r.scm.GetPullRequest(ctx, repo.Ref, number)
		if err == nil {
			return pr, nil
		}
		if !transport.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrRecordNotFound
}
