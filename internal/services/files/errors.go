package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/j-veylop/filerepo-console/internal/transport"
)

// ValidationError reports missing or invalid local input. It is raised
// before any network call or ledger entry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// TransportError reports a network failure before any response arrived.
type TransportError struct {
	Err *transport.Error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError reports a non-2xx response.
type ApplicationError struct {
	Message string
	Status  int
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// ParseError reports a response body that was expected to be JSON but was
// not. Body holds the raw text shown to the user instead.
type ParseError struct {
	Err  error
	Body string
}

func (e *ParseError) Error() string {
	if e.Body == "" {
		return "empty response body"
	}
	return e.Body
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UserMessage converts any handler error into the single line shown to
// the operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	var terr *TransportError
	var aerr *ApplicationError
	var perr *ParseError

	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &terr):
		return terr.Error()
	case errors.As(err, &aerr):
		return aerr.Message
	case errors.As(err, &perr):
		return "unexpected response: " + perr.Error()
	default:
		return err.Error()
	}
}

// errorPayload covers the error shapes the API emits: a plain detail
// string, a detail object, a validation list, or a message field.
type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message any             `json:"message"`
}

type detailItem struct {
	Msg string `json:"msg"`
}

// extractMessage picks the first non-empty candidate among the structured
// detail, the message field, the raw body, and a status fallback.
func extractMessage(body []byte, status int) string {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err == nil {
		if msg := detailMessage(p.Detail); msg != "" {
			return msg
		}
		if s, ok := p.Message.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("Request failed (HTTP %d)", status)
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var obj detailItem
	if json.Unmarshal(raw, &obj) == nil && obj.Msg != "" {
		return strings.TrimSpace(obj.Msg)
	}

	var list []detailItem
	if json.Unmarshal(raw, &list) == nil {
		for _, item := range list {
			if m := strings.TrimSpace(item.Msg); m != "" {
				return m
			}
		}
	}

	return ""
}
