package model

import "strconv"

// QueryType selects which evidence provider a query is routed to
type QueryType string

const (
	QuerySourceControl QueryType = "source_control" // Pull requests, reviews, merges
	QueryIssueTracker  QueryType = "issue_tracker"  // Tickets, access requests
	QueryDocument      QueryType = "document"       // Uploaded CSV / spreadsheet files
	QueryGeneral       QueryType = "general"        // Fan out to every provider
)

// Valid reports whether t is one of the known query types
func (t QueryType) Valid() bool {
	switch t {
	case QuerySourceControl, QueryIssueTracker, QueryDocument, QueryGeneral:
		return true
	}
	return false
}

// Action tags guide summary phrasing
const (
	ActionAuditUnapprovedMerges = "audit_unapproved_merges"
	ActionListReviewsByUser     = "list_reviews_by_user"
	ActionListWaitingReviews    = "list_waiting_reviews"
	ActionListRecentMerges      = "list_recent_merges"
	ActionGetPullRequest        = "get_pull_request"
	ActionListPullRequests      = "list_pull_requests"
	ActionGetTicket             = "get_ticket"
	ActionSearchAccess          = "search_access"
	ActionSearchTickets         = "search_tickets"
	ActionAnalyzeDocument       = "analyze_document"
	ActionExportDocument        = "export_document"
	ActionGatherAll             = "gather_all"
)

// Intent is the structured classification of a natural-language query.
// It is created once per query and never mutated afterwards.
type Intent struct {
	QueryType  QueryType  `json:"queryType"`
	Intent     string     `json:"intent"`
	Parameters Parameters `json:"parameters"`
	Source     string     `json:"source"`
	Action     string     `json:"action"`
	Confidence float64    `json:"confidence"`
	Query      string     `json:"query,omitempty"` // Original query text
	Strategy   string     `json:"strategy,omitempty"`
}

// Parameters holds the optional values extracted from a query.
// Empty strings and nil pointers mean "not present".
type Parameters struct {
	PRNumber     *int   `json:"prNumber,omitempty"`
	IssueKey     string `json:"issueKey,omitempty"`
	Repository   string `json:"repository,omitempty"` // OWNER/REPO
	FileName     string `json:"fileName,omitempty"`
	FileType     string `json:"fileType,omitempty"`
	User         string `json:"user,omitempty"`
	DateRange    string `json:"dateRange,omitempty"`
	ExportFormat string `json:"exportFormat,omitempty"`
	Project      string `json:"project,omitempty"`
	Status       string `json:"status,omitempty"`
	Assignee     string `json:"assignee,omitempty"`
}

func (p Parameters) HasPRNumber() bool     { return p.PRNumber != nil }
func (p Parameters) HasIssueKey() bool     { return p.IssueKey != "" }
func (p Parameters) HasRepository() bool   { return p.Repository != "" }
func (p Parameters) HasUser() bool         { return p.User != "" }
func (p Parameters) HasExportFormat() bool { return p.ExportFormat != "" }

// IsZero reports whether no parameter was extracted
func (p Parameters) IsZero() bool {
	return p == Parameters{}
}

// Number returns the PR number, or 0 when absent
func (p Parameters) Number() int {
	if p.PRNumber == nil {
		return 0
	}
	return *p.PRNumber
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

// Fields flattens the present parameters into a string map (used for logging and error evidence)
func (p Parameters) Fields() map[string]string {
	out := make(map[string]string)
	if p.PRNumber != nil {
		out["prNumber"] = strconv.Itoa(*p.PRNumber)
	}
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("issueKey", p.IssueKey)
	add("repository", p.Repository)
	add("fileName", p.FileName)
	add("fileType", p.FileType)
	add("user", p.User)
	add("dateRange", p.DateRange)
	add("exportFormat", p.ExportFormat)
	add("project", p.Project)
	add("status", p.Status)
	add("assignee", p.Assignee)
	return out
}
