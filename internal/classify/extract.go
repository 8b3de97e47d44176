package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/evidra/internal/model"
)

// Extractor pulls typed parameters out of a raw query
type Extractor interface {
	Extract(query string) model.Parameters
}

var (
	prNumberPattern   = regexp.MustCompile(`(?i)\b(?:prs?|pull\s+requests?|pull)\s*(?:number\s*|no\.?\s*)?[#/]?\s*(\d+)\b`)
	repoPattern       = regexp.MustCompile(`(?i)\b(?:repo|repository)\s*[:=]?\s*([A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+)`)
	issueKeyPattern   = regexp.MustCompile(`\b([A-Z]+-[0-9]+)\b`)
	userColonPattern  = regexp.MustCompile(`(?i)\buser:\s*@?([A-Za-z0-9_.@-]+)`)
	accessToPattern   = regexp.MustCompile(`(?i)\baccess\b.*?\bto\s+@?([A-Za-z0-9_.@-]+)`)
	reviewedByPattern = regexp.MustCompile(`(?i)\breviewed\s+by\s+@?([A-Za-z0-9_.-]+)`)
	fileTypePattern   = regexp.MustCompile(`(?i)\b(csv|excel|xlsx|xls)\b`)
	fileNamePattern   = regexp.MustCompile(`(?i)([A-Za-z0-9_][A-Za-z0-9_.-]*\.(?:csv|xlsx|xls))\b`)
	exportWordPattern = regexp.MustCompile(`(?i)\bexport(?:s|ed|ing)?\b`)
	exportToPattern   = regexp.MustCompile(`(?i)\b(?:as|to|in|into)\s+(?:an?\s+)?(csv|excel|xlsx)\b`)
	projectPattern    = regexp.MustCompile(`(?i)(?:\bproject:\s*|\bin\s+project\s+)([A-Za-z][A-Za-z0-9_-]*)`)
	statusPattern     = regexp.MustCompile(`(?i)\bstatus:\s*(?:"([^"]+)"|([A-Za-z0-9_-]+))`)
	assigneePattern   = regexp.MustCompile(`(?i)(?:\bassignee:\s*|\bassigned\s+to\s+)@?([A-Za-z0-9_.@-]+)`)
)

// dateRanges maps recognised phrases to their canonical dateRange value
var dateRanges = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\blast\s+(?:7|seven)\s+days\b`), "last_7_days"},
	{regexp.MustCompile(`(?i)\blast\s+week\b`), "last_week"},
	{regexp.MustCompile(`(?i)\blast\s+month\b`), "last_month"},
	{regexp.MustCompile(`(?i)\byesterday\b`), "yesterday"},
	{regexp.MustCompile(`(?i)\btoday\b`), "today"},
}

// stopwords are never accepted as a user name
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true, "these": true,
	"our": true, "my": true, "all": true, "any": true, "it": true, "them": true,
}

// RegexExtractor is the deterministic fixed-pattern parameter extractor
type RegexExtractor struct{}

// Extract applies every pattern; unmatched parameters stay empty
func (RegexExtractor) Extract(query string) model.Parameters {
	var p model.Parameters

	if m := prNumberPattern.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.PRNumber = model.IntPtr(n)
		}
	}
	if m := repoPattern.FindStringSubmatch(query); m != nil {
		p.Repository = strings.TrimRight(m[1], ".")
	}
	if m := issueKeyPattern.FindStringSubmatch(query); m != nil {
		p.IssueKey = m[1]
	}

	p.User = extractUser(query)

	if m := fileNamePattern.FindStringSubmatch(query); m != nil {
		p.FileName = m[1]
	}
	if m := fileTypePattern.FindStringSubmatch(query); m != nil {
		p.FileType = normalizeFormat(m[1])
	}
	if exportWordPattern.MatchString(query) {
		p.ExportFormat = extractExportFormat(query)
	}

	for _, dr := range dateRanges {
		if dr.pattern.MatchString(query) {
			p.DateRange = dr.value
			break
		}
	}

	if m := projectPattern.FindStringSubmatch(query); m != nil {
		p.Project = strings.ToUpper(m[1])
	}
	if m := statusPattern.FindStringSubmatch(query); m != nil {
		p.Status = m[1]
		if p.Status == "" {
			p.Status = m[2]
		}
	}
	if m := assigneePattern.FindStringSubmatch(query); m != nil {
		p.Assignee = m[1]
	}

	return p
}

func extractUser(query string) string {
	for _, re := range []*regexp.Regexp{userColonPattern, reviewedByPattern, accessToPattern} {
		m := re.FindStringSubmatch(query)
		if m == nil {
			continue
		}
		user := strings.TrimRight(m[1], ".,;:!?")
		if user != "" && !stopwords[strings.ToLower(user)] {
			return user
		}
	}
	return ""
}

// extractExportFormat prefers an explicit "as/to <format>" target, then any format token, then csv
func extractExportFormat(query string) string {
	if m := exportToPattern.FindStringSubmatch(query); m != nil {
		return normalizeFormat(m[1])
	}
	// A file name's extension is the source, not the target
	stripped := fileNamePattern.ReplaceAllString(query, " ")
	if m := fileTypePattern.FindStringSubmatch(stripped); m != nil {
		return normalizeFormat(m[1])
	}
	return string(model.ExportCSV)
}

func normalizeFormat(token string) string {
	switch strings.ToLower(token) {
	case "excel", "xlsx", "xls":
		return string(model.ExportXLSX)
	default:
		return string(model.ExportCSV)
	}
}
