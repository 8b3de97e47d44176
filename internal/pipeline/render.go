package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/evidra/internal/adapters/docs"
	"github.com/ppiankov/evidra/internal/model"
)

const (
	maxTableRows  = 50
	maxCellLength = 80
)

// Renderer writes query results as JSON, Markdown or a terminal summary
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer printing summaries to out (stdout when nil)
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// RenderJSON writes the result as indented JSON
func (r *Renderer) RenderJSON(result *model.QueryResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RenderMarkdown writes the result as a Markdown report
func (r *Renderer) RenderMarkdown(result *model.QueryResult, path string) error {
	return os.WriteFile(path, []byte(Markdown(result)), 0o644)
}

// Markdown formats a result as a Markdown report
func Markdown(result *model.QueryResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evidence: %s\n\n", result.Query)
	fmt.Fprintf(&b, "- **Request:** `%s`\n", result.ID)
	fmt.Fprintf(&b, "- **Time:** %s\n", result.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Type:** %s (%s, confidence %.2f)\n", result.Analysis.QueryType, result.Analysis.Strategy, result.Analysis.Confidence)
	if result.Analysis.Action != "" {
		fmt.Fprintf(&b, "- **Action:** %s\n", result.Analysis.Action)
	}
	if fields := result.Analysis.Parameters.Fields(); len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
		}
		fmt.Fprintf(&b, "- **Parameters:** %s\n", strings.Join(parts, ", "))
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString(strings.TrimSpace(result.Summary))
	b.WriteString("\n\n## Evidence\n\n")
	writeEnvelope(&b, result.Evidence, "###")

	return b.String()
}

func writeEnvelope(b *strings.Builder, env *model.Envelope, heading string) {
	if env == nil {
		b.WriteString("_No evidence._\n\n")
		return
	}

	switch env.Kind {
	case model.KindError:
		msg := "unknown error"
		if env.Error != nil {
			msg = env.Error.Message
		}
		fmt.Fprintf(b, "> **Error:** %s\n\n", msg)

	case model.KindMultiSource:
		names := make([]string, 0, len(env.Sources))
		for name := range env.Sources {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(b, "%s %s\n\n", heading, name)
			writeEnvelope(b, env.Sources[name], heading+"#")
		}

	case model.KindAggregate:
		label := env.Label
		if label == "" {
			label = "items"
		}
		fmt.Fprintf(b, "**%d** %s\n\n", env.Count, label)
		writeTable(b, env.Rows())

	default:
		if env.RecordType != "" {
			fmt.Fprintf(b, "_%s_\n\n", strings.ReplaceAll(env.RecordType, "_", " "))
		}
		writeTable(b, env.Rows())
	}
}

func writeTable(b *strings.Builder, records []map[string]any) {
	if len(records) == 0 {
		b.WriteString("_No records._\n\n")
		return
	}

	headers, rows := docs.Tabulate(records)
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")

	for i, row := range rows {
		if i == maxTableRows {
			fmt.Fprintf(b, "\n_%d more rows omitted._\n", len(rows)-maxTableRows)
			break
		}
		cells := make([]string, len(headers))
		for j, h := range headers {
			cells[j] = cell(row[h])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxCellLength {
		s = string(r[:maxCellLength-1]) + "…"
	}
	return s
}

// RenderSummary prints a short summary to the terminal
func (r *Renderer) RenderSummary(result *model.QueryResult) {
	fmt.Fprintf(r.out, "\n%s\n", result.Query)
	fmt.Fprintf(r.out, "  type: %s  action: %s  confidence: %.2f (%s)\n",
		result.Analysis.QueryType, result.Analysis.Action, result.Analysis.Confidence, result.Analysis.Strategy)

	env := result.Evidence
	switch {
	case env == nil:
	case env.IsError():
		fmt.Fprintf(r.out, "  evidence: error\n")
	case env.Kind == model.KindMultiSource:
		fmt.Fprintf(r.out, "  evidence: %d sources\n", env.Count)
	default:
		fmt.Fprintf(r.out, "  evidence: %s, %d records\n", env.Kind, len(env.Rows()))
	}

	fmt.Fprintf(r.out, "\n%s\n\n", strings.TrimSpace(result.Summary))
}
