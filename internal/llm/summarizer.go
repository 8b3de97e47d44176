package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
)

const summarySystem = "You summarize evidence gathered from engineering systems (pull requests, tickets, spreadsheets). " +
	"Describe only what the evidence shows. Never invent records, people or numbers."

// maxEvidenceChars caps the serialized evidence included in the prompt
const maxEvidenceChars = 12000

// Summarizer produces a short synopsis of an evidence envelope.
// With no provider it always uses the deterministic form.
type Summarizer struct {
	provider Provider
	logger   *zap.Logger
}

// NewSummarizer creates a summarizer; provider may be nil
func NewSummarizer(provider Provider, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{provider: provider, logger: logger}
}

// IsEnabled returns true if a model backend is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the backend name or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// Summarize never fails: model errors fall through to FallbackSummary
func (s *Summarizer) Summarize(ctx context.Context, env *model.Envelope, intent string) string {
	if s.provider == nil || env == nil {
		return FallbackSummary(env, intent)
	}

	resp, err := s.provider.Complete(ctx, CompletionRequest{
		System:      summarySystem,
		Prompt:      BuildSummaryPrompt(env, intent),
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		s.logger.Debug("summary fell back to deterministic form",
			zap.String("provider", s.provider.Name()), zap.Error(err))
		return FallbackSummary(env, intent)
	}

	s.logger.Debug("summary generated",
		zap.String("provider", s.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed))
	return resp.Text
}

// BuildSummaryPrompt constructs the synopsis prompt for an envelope
func BuildSummaryPrompt(env *model.Envelope, intent string) string {
	raw, err := json.Marshal(env)
	if err != nil {
		raw = []byte(fmt.Sprintf("%q", FallbackSummary(env, intent)))
	}
	evidence := string(raw)
	if len(evidence) > maxEvidenceChars {
		evidence = evidence[:maxEvidenceChars] + "... (truncated)"
	}

	return fmt.Sprintf(`The user asked: %s

Evidence kind: %s
Evidence (JSON):
%s

Write a 2-4 sentence summary that answers the request from this evidence.
If the evidence is an error or empty, say so plainly.`, intent, env.Kind, evidence)
}

// FallbackSummary deterministically describes the cardinality of the evidence
func FallbackSummary(env *model.Envelope, intent string) string {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		intent = "the request"
	}
	if env == nil {
		return fmt.Sprintf("No evidence was gathered for %s.", intent)
	}

	switch env.Kind {
	case model.KindRecordList:
		return fmt.Sprintf("Found %d items matching %s", len(env.Records), intent)

	case model.KindAggregate:
		return fmt.Sprintf("Found %d items matching %s", env.Count, intent)

	case model.KindSingleRecord:
		if env.RecordType == "guidance" {
			if msg, ok := env.Record["message"].(string); ok && msg != "" {
				return msg
			}
		}
		return fmt.Sprintf("Retrieved 1 %s record with %d fields for %s", recordLabel(env.RecordType), len(env.Record), intent)

	case model.KindError:
		msg := "unknown error"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return fmt.Sprintf("Could not gather evidence for %s: %s", intent, msg)

	case model.KindMultiSource:
		names := make([]string, 0, len(env.Sources))
		failed := 0
		for name, src := range env.Sources {
			names = append(names, name)
			if src.IsError() {
				failed++
			}
		}
		sort.Strings(names)
		if failed == 0 {
			return fmt.Sprintf("Gathered evidence from %d sources (%s) for %s", len(names), strings.Join(names, ", "), intent)
		}
		return fmt.Sprintf("Gathered evidence from %d sources (%s) for %s; %d could not be reached",
			len(names), strings.Join(names, ", "), intent, failed)
	}

	return fmt.Sprintf("Processed %s.", intent)
}

func recordLabel(recordType string) string {
	if recordType == "" {
		return "evidence"
	}
	return strings.ReplaceAll(recordType, "_", " ")
}
