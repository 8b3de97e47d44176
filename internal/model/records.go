package model

import (
	"fmt"
	"strings"
	"time"
)

// RepoRef identifies a repository as OWNER/REPO
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepoRef parses an OWNER/REPO string
func ParseRepoRef(s string) (RepoRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoRef{}, fmt.Errorf("invalid repository %q: expected OWNER/REPO", s)
	}
	return RepoRef{Owner: owner, Name: name}, nil
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// Repository is an entry from the account's repository listing
type Repository struct {
	Ref       RepoRef   `json:"ref"`
	Private   bool      `json:"private"`
	UpdatedAt time.Time `json:"updatedAt"`
	URL       string    `json:"url,omitempty"`
}

// PRState filters pull request listings
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateAll    PRState = "all"
)

// ReviewState is the normalized decision carried by a review
type ReviewState string

const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewOther            ReviewState = "other"
)

// Review is a single review submitted on a pull request
type Review struct {
	Reviewer    string      `json:"reviewer"`
	State       ReviewState `json:"state"`
	RawState    string      `json:"rawState,omitempty"` // Provider value, e.g. COMMENTED
	SubmittedAt time.Time   `json:"submittedAt"`
	Body        string      `json:"body,omitempty"`
}

// ReviewTally aggregates review decisions for one pull request.
// Approvals + ChangesRequested + Other always equals Total.
type ReviewTally struct {
	Approvals        int `json:"approvals"`
	ChangesRequested int `json:"changesRequested"`
	Other            int `json:"other"`
	Total            int `json:"total"`
}

// Tally counts review decisions in a single pass
func Tally(reviews []Review) ReviewTally {
	var t ReviewTally
	for _, r := range reviews {
		switch r.State {
		case ReviewApproved:
			t.Approvals++
		case ReviewChangesRequested:
			t.ChangesRequested++
		default:
			t.Other++
		}
		t.Total++
	}
	return t
}

// PullRequest is the stable internal projection of a source-control record
type PullRequest struct {
	Number       int        `json:"number"`
	Repository   string     `json:"repository"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	MergedAt     *time.Time `json:"mergedAt,omitempty"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	BaseRef      string     `json:"baseRef"`
	HeadRef      string     `json:"headRef"`
	Mergeable    *bool      `json:"mergeable,omitempty"`
	Merged       bool       `json:"merged"`
	Draft        bool       `json:"draft"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changedFiles"`
	URL          string     `json:"url"`

	Reviews []Review    `json:"reviews"`
	Tally   ReviewTally `json:"reviewTally"`
}

// WithReviews attaches reviews and recomputes the tally
func (pr *PullRequest) WithReviews(reviews []Review) {
	if reviews == nil {
		reviews = []Review{}
	}
	pr.Reviews = reviews
	pr.Tally = Tally(reviews)
}

// LatestReviewBy returns the most recent review submitted by user (case-insensitive)
func (pr *PullRequest) LatestReviewBy(user string) (Review, bool) {
	var latest Review
	found := false
	for _, r := range pr.Reviews {
		if !strings.EqualFold(r.Reviewer, user) {
			continue
		}
		if !found || r.SubmittedAt.After(latest.SubmittedAt) {
			latest = r
			found = true
		}
	}
	return latest, found
}

// Approvers returns the distinct reviewers that approved, in review order
func (pr *PullRequest) Approvers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range pr.Reviews {
		if r.State != ReviewApproved || seen[strings.ToLower(r.Reviewer)] {
			continue
		}
		seen[strings.ToLower(r.Reviewer)] = true
		out = append(out, r.Reviewer)
	}
	return out
}

// ReviewDecision is the projection used by "reviewed by <user>" queries
type ReviewDecision struct {
	RecordID string      `json:"recordId"`
	Title    string      `json:"title"`
	Reviewer string      `json:"reviewer"`
	Decision ReviewState `json:"decision"`
	Date     time.Time   `json:"date"`
	URL      string      `json:"url"`
}

// WaitingReview is the projection used by "waiting for review" queries
type WaitingReview struct {
	RecordID    string    `json:"recordId"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	WaitingTime string    `json:"waiting_time"`
	URL         string    `json:"url"`
}

// NoApprovers marks a merged record with an empty approver list
const NoApprovers = "no approvers"

// RecentMerge is the projection used by "merged last week" queries
type RecentMerge struct {
	RecordID  string    `json:"recordId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	MergedAt  time.Time `json:"mergedAt"`
	Approvers []string  `json:"approvers"`
	URL       string    `json:"url"`
}

// Identity is the account an adapter is authenticated as
type Identity struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Ticket is the internal projection of an issue-tracker record
type Ticket struct {
	Key         string        `json:"key"`
	Summary     string        `json:"summary"`
	Status      string        `json:"status"`
	IssueType   string        `json:"issueType,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	Assignee    string        `json:"assignee,omitempty"`
	Reporter    string        `json:"reporter,omitempty"`
	Created     time.Time     `json:"created"`
	Updated     time.Time     `json:"updated"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	History     []ChangeEntry `json:"history,omitempty"`
	Transitions []Transition  `json:"transitions,omitempty"`
	Comments    []Comment     `json:"comments,omitempty"`
}

// ChangeEntry is one field change from a ticket's history
type ChangeEntry struct {
	Author string    `json:"author"`
	At     time.Time `json:"at"`
	Field  string    `json:"field"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
}

// Transition is a workflow move available on a ticket
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   string `json:"to"`
}

// Comment is a ticket comment with its body reduced to plain text
type Comment struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
}

// Project is an issue-tracker project
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// TicketFilter drives the generic search-language query builder
type TicketFilter struct {
	Project  string
	Status   string
	Assignee string
}

// TicketSearch is the result of a search-language query
type TicketSearch struct {
	Query   string   `json:"query"`
	Total   int      `json:"total"`
	Tickets []Ticket `json:"tickets"`
}
