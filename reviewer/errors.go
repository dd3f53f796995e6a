package reviewer

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedResponse = errors.New("malformed json")
	ErrInvalidStatus     = errors.New("invalid qualification status")
	ErrUnknownFinding    = errors.New("finding outside the allowed list")
	ErrContradiction     = errors.New("finding reported both confirmed and negated")
	ErrUnsupportedStatus = errors.New("status not supported by confirmed findings")
)

// Failure is a coarse failure class, used for retries and metric labels.
type Failure string

const (
	FailureNone      Failure = "none"
	FailureTimeout   Failure = "timeout"
	FailureRateLimit Failure = "rate_limit"
	FailureServer    Failure = "server"
	FailureClient    Failure = "client"
	FailureEmpty     Failure = "empty"
	FailureParse     Failure = "parse"
	FailureSchema    Failure = "schema"
)

func (f Failure) Retryable() bool {
	return f == FailureTimeout || f == FailureRateLimit || f == FailureServer
}

func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return FailureEmpty
	case errors.Is(err, ErrMalformedResponse):
		return FailureParse
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrUnknownFinding),
		errors.Is(err, ErrContradiction), errors.Is(err, ErrUnsupportedStatus):
		return FailureSchema
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return FailureRateLimit
	case strings.Contains(msg, "status code: 5"), strings.Contains(msg, " 5"), strings.Contains(msg, "server error"):
		return FailureServer
	case strings.Contains(msg, "status code: 4"), strings.Contains(msg, " 4"):
		return FailureClient
	default:
		return FailureServer
	}
}
