package sessionguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any error produced by a 401 response.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnexpectedResponse is returned when a successful response body
	// cannot be decoded.
	ErrUnexpectedResponse = errors.New("unexpected response body")
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusError is returned for responses with status >= 400. Response hooks
// receive one without Message or Body; the Client fills them from the body.
type StatusError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
	// Message is the "message" field of a JSON error body, when present.
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.URL, e.Status)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is allows the error to match ErrUnauthorized for 401 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// newStatusError describes resp without consuming its body.
func newStatusError(req *http.Request, resp *http.Response) *StatusError {
	e := &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	if e.Status == "" {
		e.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if req != nil {
		e.Method = req.Method
		e.URL = req.URL.Redacted()
	}
	return e
}

// readStatusError describes resp and reads a bounded prefix of its body.
func readStatusError(req *http.Request, resp *http.Response) *StatusError {
	e := newStatusError(req, resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return e
	}
	e.Body = body

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
	}
	return e
}

// IsUnauthorized reports whether an exchange failed with 401.
func IsUnauthorized(resp *http.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return true
	}
	return errors.Is(err, ErrUnauthorized)
}
