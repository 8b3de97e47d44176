package classify

import "fmt"

const classifySystem = "You classify evidence requests for an engineering audit tool. Answer with one JSON object only."

// BuildPrompt constructs the structured-output classification prompt
func BuildPrompt(query string) string {
	return fmt.Sprintf(`Classify this request and extract its parameters.

Request: %q

Return a JSON object with exactly these fields:
{
  "queryType": "source_control" | "issue_tracker" | "document" | "general",
  "intent": "<one sentence describing what the user wants>",
  "parameters": {
    "prNumber": <integer, pull request number>,
    "issueKey": "<ticket key such as OPS-123>",
    "repository": "<OWNER/REPO>",
    "fileName": "<uploaded file name>",
    "fileType": "csv" | "xlsx",
    "user": "<user name>",
    "dateRange": "today" | "yesterday" | "last_week" | "last_7_days" | "last_month",
    "exportFormat": "csv" | "xlsx",
    "project": "<tracker project key>",
    "status": "<ticket status>",
    "assignee": "<assignee>"
  },
  "source": "github" | "jira" | "documents" | "all",
  "action": "<short snake_case action>",
  "confidence": <number between 0 and 1>
}

Rules:
- Omit parameters that are not present in the request. Do not guess.
- source_control: pull requests, reviews, approvals, merges.
- issue_tracker: tickets, issues, access requests.
- document: uploaded CSV or spreadsheet files, exports.
- general: anything spanning several systems or none of the above.
- Keep phrases such as "merged without approval", "reviewed by", "waiting for review" and "last week" verbatim in intent when the request uses them.`, query)
}
