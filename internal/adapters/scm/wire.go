package scm

import (
	"strings"
	"time"

	"github.com/ppiankov/evidra/internal/model"
)

// REST v3 response shapes. Only consumed fields are declared.

type ghUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ghRef struct {
	Ref string `json:"ref"`
}

type ghPull struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	User         ghUser     `json:"user"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	Base         ghRef      `json:"base"`
	Head         ghRef      `json:"head"`
	Mergeable    *bool      `json:"mergeable"`
	Merged       bool       `json:"merged"` // Only on the single-record endpoint
	Draft        bool       `json:"draft"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	HTMLURL      string     `json:"html_url"`
}

type ghReview struct {
	User        ghUser     `json:"user"`
	State       string     `json:"state"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Body        string     `json:"body"`
}

type ghRepo struct {
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`
	Owner     ghUser    `json:"owner"`
	Private   bool      `json:"private"`
	UpdatedAt time.Time `json:"updated_at"`
	HTMLURL   string    `json:"html_url"`
}

func (p ghPull) toModel(repo model.RepoRef) model.PullRequest {
	return model.PullRequest{
		Number:       p.Number,
		Repository:   repo.String(),
		Title:        p.Title,
		Author:       p.User.Login,
		State:        p.State,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		MergedAt:     p.MergedAt,
		ClosedAt:     p.ClosedAt,
		BaseRef:      p.Base.Ref,
		HeadRef:      p.Head.Ref,
		Mergeable:    p.Mergeable,
		Merged:       p.Merged || p.MergedAt != nil,
		Draft:        p.Draft,
		Additions:    p.Additions,
		Deletions:    p.Deletions,
		ChangedFiles: p.ChangedFiles,
		URL:          p.HTMLURL,
		Reviews:      []model.Review{},
	}
}

func (r ghReview) toModel() model.Review {
	out := model.Review{
		Reviewer: r.User.Login,
		State:    ReviewState(r.State),
		RawState: r.State,
		Body:     r.Body,
	}
	if r.SubmittedAt != nil {
		out.SubmittedAt = *r.SubmittedAt
	}
	return out
}

func (r ghRepo) toModel() model.Repository {
	ref := model.RepoRef{Owner: r.Owner.Login, Name: r.Name}
	if parsed, err := model.ParseRepoRef(r.FullName); err == nil {
		ref = parsed
	}
	return model.Repository{
		Ref:       ref,
		Private:   r.Private,
		UpdatedAt: r.UpdatedAt,
		URL:       r.HTMLURL,
	}
}

// ReviewState maps a provider review state onto the three tallied decisions
func ReviewState(raw string) model.ReviewState {
	switch strings.ToUpper(raw) {
	case "APPROVED":
		return model.ReviewApproved
	case "CHANGES_REQUESTED":
		return model.ReviewChangesRequested
	default:
		return model.ReviewOther
	}
}
