package tracker

import (
	"strings"

	"github.com/ppiankov/evidra/internal/model"
)

const orderByRecency = "ORDER BY updated DESC"

// BuildQuery AND-joins the present filter conditions, newest first.
// An empty filter matches everything.
func BuildQuery(f model.TicketFilter) string {
	var conds []string
	if f.Project != "" {
		conds = append(conds, "project = "+Quote(f.Project))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+Quote(f.Status))
	}
	if f.Assignee != "" {
		conds = append(conds, "assignee = "+Quote(f.Assignee))
	}
	if len(conds) == 0 {
		return orderByRecency
	}
	return strings.Join(conds, " AND ") + " " + orderByRecency
}

// AccessQuery matches user as free text or as assignee or reporter, newest first
func AccessQuery(user string) string {
	q := Quote(user)
	return "(text ~ " + q + " OR assignee = " + q + " OR reporter = " + q + ") " + orderByRecency
}

// Quote renders s as a double-quoted search-language literal
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
