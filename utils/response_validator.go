package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisResult is the parsed model output. It is kept as a free-form map on
// purpose: the schema contract lives in the prompt, and the validator only
// guarantees the mandatory top-level fields are present. Scores are the
// model's responsibility, not ours.
type AnalysisResult map[string]interface{}

// The four fields every complete analysis must carry.
var requiredAnalysisFields = []string{
	"overall_score",
	"detailed_scores",
	"optimized_titles",
	"description_rewrite",
}

// Failure classes for a rejected completion. These never reach the caller;
// they feed the fallback loop and the logs.
type ResponseFailure string

const (
	FailureTruncated        ResponseFailure = "truncated"
	FailureUnbalancedJSON   ResponseFailure = "unbalanced_json"
	FailureMalformedJSON    ResponseFailure = "malformed_json"
	FailureIncompleteSchema ResponseFailure = "incomplete_schema"
)

// ResponseError describes why a raw completion was rejected.
type ResponseError struct {
	Failure ResponseFailure
	Detail  string
}

func (e *ResponseError) Error() string {
	if e.Detail == "" {
		return string(e.Failure)
	}
	return string(e.Failure) + ": " + e.Detail
}

// CleanJSONResponse strips a markdown code-fence wrapper, if present, and
// trims surrounding whitespace. Models wrap JSON in fences no matter how
// firmly the prompt forbids it.
func CleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[7:]
	} else if strings.HasPrefix(text, "```") {
		text = text[3:]
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-3]
	}
	return strings.TrimSpace(text)
}

// ParseAnalysisResponse turns a raw completion into a trusted AnalysisResult
// or rejects it with a *ResponseError. The cheap structural checks run before
// the parse so an obviously truncated payload never reaches json.Unmarshal.
func ParseAnalysisResponse(raw string) (AnalysisResult, error) {
	text := CleanJSONResponse(raw)

	if !strings.HasSuffix(text, "}") {
		return nil, &ResponseError{Failure: FailureTruncated, Detail: "response does not end with a closing brace"}
	}

	open := strings.Count(text, "{")
	closed := strings.Count(text, "}")
	if open != closed {
		return nil, &ResponseError{
			Failure: FailureUnbalancedJSON,
			Detail:  fmt.Sprintf("%d open vs %d close braces", open, closed),
		}
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, &ResponseError{Failure: FailureMalformedJSON, Detail: err.Error()}
	}

	var missing []string
	for _, field := range requiredAnalysisFields {
		if _, ok := result[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ResponseError{
			Failure: FailureIncompleteSchema,
			Detail:  "missing: " + strings.Join(missing, ", "),
		}
	}

	return result, nil
}
