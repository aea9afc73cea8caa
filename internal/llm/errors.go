package llm

import (
	"errors"
	"fmt"
	"time"
)

type httpStatusError struct {
	statusCode int
	body       string
	retryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.statusCode, summarizePayloadSnippet(e.body))
}

// StatusCode extracts the HTTP status from a failed request, or 0.
func StatusCode(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.statusCode
	}
	return 0
}

// emptyContentError means the endpoint answered 200 without any reply text.
type emptyContentError struct {
	op           string
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finishReason, e.refusal, e.snippet)
}
