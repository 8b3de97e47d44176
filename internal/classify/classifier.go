package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/llm"
	"github.com/ppiankov/evidra/internal/model"
)

// Strategy names recorded on the Intent
const (
	StrategyModel   = "model"
	StrategyKeyword = "keyword"
)

// Classifier turns a raw query into an Intent. It never fails: any model
// problem falls through to the deterministic keyword strategy.
type Classifier struct {
	provider  llm.Provider
	extractor Extractor
	logger    *zap.Logger
}

// Option configures a Classifier
type Option func(*Classifier)

// WithExtractor replaces the regex parameter extractor
func WithExtractor(e Extractor) Option {
	return func(c *Classifier) { c.extractor = e }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a classifier; provider may be nil to disable the model strategy
func New(provider llm.Provider, opts ...Option) *Classifier {
	c := &Classifier{
		provider:  provider,
		extractor: RegexExtractor{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns a complete Intent for query
func (c *Classifier) Classify(ctx context.Context, query string) model.Intent {
	if c.provider != nil {
		intent, err := c.classifyWithModel(ctx, query)
		if err == nil {
			c.logger.Debug("query classified",
				zap.String("strategy", StrategyModel),
				zap.String("queryType", string(intent.QueryType)),
				zap.Float64("confidence", intent.Confidence))
			return intent
		}
		c.logger.Debug("model classification failed, using keywords",
			zap.String("provider", c.provider.Name()), zap.Error(err))
	}

	intent := Deterministic(query, c.extractor)
	c.logger.Debug("query classified",
		zap.String("strategy", StrategyKeyword),
		zap.String("queryType", string(intent.QueryType)),
		zap.Float64("confidence", intent.Confidence))
	return intent
}

// modelIntent is the loosely typed shape accepted from a model
type modelIntent struct {
	QueryType  string         `json:"queryType"`
	Intent     string         `json:"intent"`
	Parameters map[string]any `json:"parameters"`
	Source     string         `json:"source"`
	Action     string         `json:"action"`
	Confidence *float64       `json:"confidence"`
}

func (c *Classifier) classifyWithModel(ctx context.Context, query string) (model.Intent, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:      classifySystem,
		Prompt:      BuildPrompt(query),
		MaxTokens:   400,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return model.Intent{}, err
	}
	return ParseModelIntent(resp.Text, query, c.extractor)
}

// ParseModelIntent validates a model response and completes it with
// deterministic parameters where the model left gaps.
func ParseModelIntent(text, query string, extractor Extractor) (model.Intent, error) {
	if extractor == nil {
		extractor = RegexExtractor{}
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return model.Intent{}, err
	}

	var mi modelIntent
	if err := json.Unmarshal([]byte(raw), &mi); err != nil {
		return model.Intent{}, fmt.Errorf("parse model intent: %w", err)
	}

	qt := model.QueryType(strings.ToLower(strings.TrimSpace(mi.QueryType)))
	if !qt.Valid() {
		return model.Intent{}, fmt.Errorf("model returned unknown queryType %q", mi.QueryType)
	}

	params := mergeParameters(paramsFromMap(mi.Parameters), extractor.Extract(query))

	description := strings.TrimSpace(mi.Intent)
	if description == "" {
		description = normalizeSpace(query)
	}

	confidence := KeywordConfidence
	if mi.Confidence != nil {
		confidence = clamp(*mi.Confidence)
	}

	source := strings.TrimSpace(mi.Source)
	if source == "" {
		source = SourceFor(qt)
	}
	action := strings.TrimSpace(mi.Action)
	if action == "" {
		action = ActionFor(qt, description+" "+query, params)
	}

	return model.Intent{
		QueryType:  qt,
		Intent:     description,
		Parameters: params,
		Source:     source,
		Action:     action,
		Confidence: confidence,
		Query:      query,
		Strategy:   StrategyModel,
	}, nil
}

// mergeParameters keeps model values and fills gaps from the regex extractor.
// A ticket key present in the text always wins.
func mergeParameters(fromModel, fromText model.Parameters) model.Parameters {
	p := fromModel
	if p.PRNumber == nil {
		p.PRNumber = fromText.PRNumber
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&p.Repository, fromText.Repository)
	fill(&p.FileName, fromText.FileName)
	fill(&p.FileType, fromText.FileType)
	fill(&p.User, fromText.User)
	fill(&p.DateRange, fromText.DateRange)
	fill(&p.ExportFormat, fromText.ExportFormat)
	fill(&p.Project, fromText.Project)
	fill(&p.Status, fromText.Status)
	fill(&p.Assignee, fromText.Assignee)
	if fromText.IssueKey != "" {
		p.IssueKey = fromText.IssueKey
	}
	return p
}

// paramsFromMap reads model parameters, tolerating numbers sent as strings and vice versa
func paramsFromMap(m map[string]any) model.Parameters {
	var p model.Parameters
	if len(m) == 0 {
		return p
	}

	str := func(keys ...string) string {
		for _, k := range keys {
			switch v := m[k].(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" && !strings.EqualFold(s, "null") {
					return s
				}
			case float64:
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		return ""
	}

	if s := strings.TrimPrefix(str("prNumber", "pr_number", "recordId"), "#"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.PRNumber = model.IntPtr(n)
		}
	}
	p.IssueKey = strings.ToUpper(str("issueKey", "issue_key", "ticketKey"))
	p.Repository = str("repository", "repo")
	if _, err := model.ParseRepoRef(p.Repository); p.Repository != "" && err != nil {
		p.Repository = ""
	}
	p.FileName = str("fileName", "file_name")
	p.FileType = str("fileType", "file_type")
	p.User = str("user", "username")
	p.DateRange = str("dateRange", "date_range")
	if f := str("exportFormat", "export_format"); f != "" {
		p.ExportFormat = normalizeFormat(f)
	}
	p.Project = str("project")
	p.Status = str("status")
	p.Assignee = str("assignee")
	return p
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
