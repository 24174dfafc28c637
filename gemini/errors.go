package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Kind classifies an upstream failure so callers can decide whether a
// retry could help.
type Kind int

const (
	// KindTransient covers timeouts, rate limits and 5xx responses.
	KindTransient Kind = iota
	// KindRejected covers invalid input and other 4xx responses.
	KindRejected
	// KindUnknown covers everything else, including empty model output.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// UpstreamError reports a generation failure. The client never retries;
// the cause is surfaced to the caller as-is.
type UpstreamError struct {
	Kind Kind
	Op   string // "generate_text", "generate_speech", ...
	Msg  string
	Err  error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed (%s): %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Kind, e.Msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// upstreamErr wraps an error from the genai SDK with its classification.
func upstreamErr(op, msg string, err error) *UpstreamError {
	return &UpstreamError{Kind: classify(err), Op: op, Msg: msg, Err: err}
}

// noOutputErr reports a call that succeeded on the wire but produced no
// usable output.
func noOutputErr(op, msg string) *UpstreamError {
	return &UpstreamError{Kind: KindUnknown, Op: op, Msg: msg}
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusRequestTimeout:
			return KindTransient
		case apiErr.Code >= 500:
			return KindTransient
		case apiErr.Code >= 400:
			return KindRejected
		}
	}
	return KindUnknown
}
