package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QueryRequest is the body accepted by the HTTP surface
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryFromJSON extracts the query from a request body, rejecting absent,
// non-string and blank values
func QueryFromJSON(body []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("%w: body must be a JSON object", ErrInvalidQuery)
	}
	raw, ok := fields["query"]
	if !ok {
		return "", fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}
	var q string
	if err := json.Unmarshal(raw, &q); err != nil {
		return "", fmt.Errorf("%w: query must be a string", ErrInvalidQuery)
	}
	if strings.TrimSpace(q) == "" {
		return "", fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}
	return q, nil
}
