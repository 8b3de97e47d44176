package tracker

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/evidra/internal/model"
)

// REST v2 response shapes

// jiraTime accepts the tracker's millisecond timestamp format as well as RFC 3339
type jiraTime struct {
	time.Time
}

var jiraTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
}

func (t *jiraTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	var lastErr error
	for _, layout := range jiraTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

type jiraUser struct {
	Name         string `json:"name"`
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

func (u *jiraUser) label() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.AccountID
}

type jiraNamed struct {
	Name string `json:"name"`
}

type jiraFields struct {
	Summary     string     `json:"summary"`
	Status      *jiraNamed `json:"status"`
	IssueType   *jiraNamed `json:"issuetype"`
	Priority    *jiraNamed `json:"priority"`
	Assignee    *jiraUser  `json:"assignee"`
	Reporter    *jiraUser  `json:"reporter"`
	Created     jiraTime   `json:"created"`
	Updated     jiraTime   `json:"updated"`
	Description any        `json:"description"` // Wiki string, or a document tree on newer deployments
}

type jiraChangelog struct {
	Histories []struct {
		Author  *jiraUser `json:"author"`
		Created jiraTime  `json:"created"`
		Items   []struct {
			Field      string `json:"field"`
			FromString string `json:"fromString"`
			ToString   string `json:"toString"`
		} `json:"items"`
	} `json:"histories"`
}

type jiraTransition struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	To   jiraNamed `json:"to"`
}

type jiraIssue struct {
	Key            string           `json:"key"`
	Fields         jiraFields       `json:"fields"`
	RenderedFields map[string]any   `json:"renderedFields"`
	Changelog      *jiraChangelog   `json:"changelog"`
	Transitions    []jiraTransition `json:"transitions"`
}

type jiraSearch struct {
	Total  int         `json:"total"`
	Issues []jiraIssue `json:"issues"`
}

type jiraComment struct {
	ID           string    `json:"id"`
	Author       *jiraUser `json:"author"`
	Body         any       `json:"body"`
	RenderedBody string    `json:"renderedBody"`
	Created      jiraTime  `json:"created"`
}

type jiraComments struct {
	Comments []jiraComment `json:"comments"`
}

type jiraProject struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func nameOf(n *jiraNamed) string {
	if n == nil {
		return ""
	}
	return n.Name
}

func (i jiraIssue) toModel(browseBase string) model.Ticket {
	t := model.Ticket{
		Key:       i.Key,
		Summary:   i.Fields.Summary,
		Status:    nameOf(i.Fields.Status),
		IssueType: nameOf(i.Fields.IssueType),
		Priority:  nameOf(i.Fields.Priority),
		Assignee:  i.Fields.Assignee.label(),
		Reporter:  i.Fields.Reporter.label(),
		Created:   i.Fields.Created.Time,
		Updated:   i.Fields.Updated.Time,
	}
	if browseBase != "" {
		t.URL = browseBase + "/browse/" + i.Key
	}

	if rendered, ok := i.RenderedFields["description"].(string); ok && rendered != "" {
		t.Description = HTMLToText(rendered)
	} else if s, ok := i.Fields.Description.(string); ok {
		t.Description = strings.TrimSpace(s)
	}

	if i.Changelog != nil {
		for _, h := range i.Changelog.Histories {
			for _, item := range h.Items {
				t.History = append(t.History, model.ChangeEntry{
					Author: h.Author.label(),
					At:     h.Created.Time,
					Field:  item.Field,
					From:   item.FromString,
					To:     item.ToString,
				})
			}
		}
	}
	for _, tr := range i.Transitions {
		t.Transitions = append(t.Transitions, model.Transition{ID: tr.ID, Name: tr.Name, To: tr.To.Name})
	}
	return t
}

func (c jiraComment) toModel() model.Comment {
	body := ""
	if c.RenderedBody != "" {
		body = HTMLToText(c.RenderedBody)
	} else if s, ok := c.Body.(string); ok {
		body = strings.TrimSpace(s)
	}
	return model.Comment{
		ID:      c.ID,
		Author:  c.Author.label(),
		Body:    body,
		Created: c.Created.Time,
	}
}
