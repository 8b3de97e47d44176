package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/evidra/internal/model"
)

// QueryProcessor answers a single natural-language query
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query string) (*model.QueryResult, error)
}

// QueryJob processes one query from a batch
type QueryJob struct {
	Index     int
	Query     string
	Processor QueryProcessor
}

// Execute runs the query
func (j *QueryJob) Execute(ctx context.Context) Result {
	res, err := j.Processor.ProcessQuery(ctx, j.Query)
	return &QueryOutcome{Index: j.Index, Query: j.Query, Result: res, Error: err}
}

// QueryOutcome is the result of one batch query
type QueryOutcome struct {
	Index  int
	Query  string
	Result *model.QueryResult
	Error  error
}

// GetError returns the processing error, if any
func (o *QueryOutcome) GetError() error {
	return o.Error
}

// BatchProcessor processes many queries concurrently
type BatchProcessor struct {
	processor   QueryProcessor
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(processor QueryProcessor, concurrency int) *BatchProcessor {
	return &BatchProcessor{processor: processor, concurrency: concurrency}
}

// ProcessQueries answers every query; outcomes keep input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*QueryOutcome {
	if len(queries) == 0 {
		return []*QueryOutcome{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for i, q := range queries {
		pool.Submit(&QueryJob{Index: i, Query: q, Processor: b.processor})
	}
	results := pool.Wait()

	outcomes := make([]*QueryOutcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, r.(*QueryOutcome))
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })
	return outcomes
}

// ProcessFile reads queries from a file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryOutcome, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads one query per line, skipping blanks, # comments and duplicates
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
