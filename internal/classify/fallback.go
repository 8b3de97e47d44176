package classify

import (
	"regexp"
	"strings"

	"github.com/ppiankov/evidra/internal/model"
)

const (
	// KeywordConfidence is reported when a keyword family matched
	KeywordConfidence = 0.7
	// GeneralConfidence is reported when nothing matched
	GeneralConfidence = 0.5
)

// family is one keyword family, tested in slice order
type family struct {
	queryType model.QueryType
	patterns  []*regexp.Regexp
}

var families = []family{
	{model.QuerySourceControl, compileAll(`\bprs?\b`, `\bpull\s+requests?\b`, `\bmerg(?:e|ed|es|ing)\b`)},
	{model.QueryIssueTracker, compileAll(`\btickets?\b`, `\bissues?\b`, `\baccess\b`)},
	{model.QueryDocument, compileAll(`\bcsv\b`, `\bexcel\b`, `\bxlsx\b`, `\bspreadsheets?\b`, `\bfiles?\b`, `\bdocuments?\b`)},
}

// Router trigger phrases, shared so the classifier's action tag agrees with the branch taken
var (
	TriggerUnapprovedMerge = regexp.MustCompile(`(?i)\bmerged\s+without\s+(?:any\s+)?approvals?\b`)
	TriggerReviewedBy      = regexp.MustCompile(`(?i)\breviewed\s+by\b`)
	TriggerWaitingReview   = regexp.MustCompile(`(?i)\bwaiting\s+(?:for\s+)?(?:a\s+)?reviews?\b`)
	TriggerRecentMerges    = regexp.MustCompile(`(?i)\blast\s+(?:week|7\s+days|seven\s+days)\b`)
)

var sources = map[model.QueryType]string{
	model.QuerySourceControl: "github",
	model.QueryIssueTracker:  "jira",
	model.QueryDocument:      "documents",
	model.QueryGeneral:       "all",
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Deterministic classifies by keyword family. Same input, same Intent.
func Deterministic(query string, extractor Extractor) model.Intent {
	if extractor == nil {
		extractor = RegexExtractor{}
	}
	lower := strings.ToLower(query)
	params := extractor.Extract(query)

	qt := model.QueryGeneral
	confidence := GeneralConfidence
	for _, f := range families {
		if matchesAny(lower, f.patterns) {
			qt = f.queryType
			confidence = KeywordConfidence
			break
		}
	}
	if qt == model.QueryGeneral && params.HasIssueKey() {
		qt = model.QueryIssueTracker
		confidence = KeywordConfidence
	}

	description := normalizeSpace(query)
	return model.Intent{
		QueryType:  qt,
		Intent:     description,
		Parameters: params,
		Source:     SourceFor(qt),
		Action:     ActionFor(qt, description, params),
		Confidence: confidence,
		Query:      query,
		Strategy:   StrategyKeyword,
	}
}

// SourceFor returns the system name queried for a query type
func SourceFor(qt model.QueryType) string {
	return sources[qt]
}

// ActionFor derives the summary action tag from the branch the router will take
func ActionFor(qt model.QueryType, text string, p model.Parameters) string {
	switch qt {
	case model.QuerySourceControl:
		switch {
		case TriggerUnapprovedMerge.MatchString(text):
			return model.ActionAuditUnapprovedMerges
		case TriggerReviewedBy.MatchString(text) && p.HasUser():
			return model.ActionListReviewsByUser
		case TriggerWaitingReview.MatchString(text):
			return model.ActionListWaitingReviews
		case TriggerRecentMerges.MatchString(text):
			return model.ActionListRecentMerges
		case p.HasPRNumber():
			return model.ActionGetPullRequest
		}
		return model.ActionListPullRequests
	case model.QueryIssueTracker:
		switch {
		case p.HasIssueKey():
			return model.ActionGetTicket
		case p.HasUser():
			return model.ActionSearchAccess
		}
		return model.ActionSearchTickets
	case model.QueryDocument:
		if p.HasExportFormat() {
			return model.ActionExportDocument
		}
		return model.ActionAnalyzeDocument
	}
	return model.ActionGatherAll
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
