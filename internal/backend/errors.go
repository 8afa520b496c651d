package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tidwall/gjson"
)

type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection-refused"
	KindServer     ErrorKind = "server-error"
	KindDecode     ErrorKind = "decode"
	KindCanceled   ErrorKind = "canceled"
)

// Error is the normalized failure of a backend call.
type Error struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Detail  string
	BaseURL string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.UserMessage())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown next to the control that triggered the call.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "Request timed out. The server may be busy, please try again."
	case KindConnection:
		return fmt.Sprintf("Cannot connect to the server at %s. Make sure the backend is running.", e.BaseURL)
	case KindServer:
		if e.Detail != "" {
			return fmt.Sprintf("Server error (%d): %s", e.Status, e.Detail)
		}
		return fmt.Sprintf("Server error (%d)", e.Status)
	case KindCanceled:
		return "Request was cancelled."
	default:
		return "Received an unexpected response from the server."
	}
}

// IsKind reports whether err is a backend *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

func transportError(op, baseURL string, err error) *Error {
	e := &Error{Op: op, BaseURL: baseURL, Err: err, Kind: KindConnection}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = KindTimeout
	case errors.Is(err, context.Canceled):
		e.Kind = KindCanceled
	}
	return e
}

// serverDetail pulls a message out of an error body. FastAPI sends {"detail": "..."} for
// handled errors and {"detail": [{"msg": "..."}]} for validation failures.
func serverDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		text := strings.TrimSpace(string(body))
		if text == "" || strings.HasPrefix(text, "<") || len(text) > 200 {
			return ""
		}
		return text
	}

	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		return detail.Get("0.msg").String()
	}
	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
		return msg.String()
	}
	return ""
}
