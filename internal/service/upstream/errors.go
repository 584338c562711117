package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	xhttp "CoinDash/pkg/http"
)

// Kind classifies an upstream failure.
type Kind string

const (
	KindTransient    Kind = "transient"
	KindRateLimited  Kind = "rate_limited"
	KindAuth         Kind = "auth"
	KindMalformed    Kind = "malformed"
	KindUnconfigured Kind = "unconfigured"
)

// Error is the typed failure returned by every provider Fetch method.
type Error struct {
	Provider string
	Op       string
	Kind     Kind
	Status   int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// StatusKinds maps HTTP status codes to kinds. Codes not listed fall back to
// KindTransient.
type StatusKinds map[int]Kind

// DefaultStatusKinds covers the codes every provider documents.
var DefaultStatusKinds = StatusKinds{
	http.StatusTooManyRequests: KindRateLimited,
	http.StatusUnauthorized:    KindAuth,
	http.StatusPaymentRequired: KindAuth,
	http.StatusForbidden:       KindAuth,
}

// Classify turns a transport or decode error into an *Error.
func Classify(provider, op string, kinds StatusKinds, err error) *Error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	if kinds == nil {
		kinds = DefaultStatusKinds
	}

	// Request URLs may carry credentials in the query string.
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = fmt.Errorf("%s %s: %w", uerr.Op, stripQuery(uerr.URL), uerr.Err)
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		k, ok := kinds[se.StatusCode]
		if !ok {
			k = KindTransient
		}
		return &Error{Provider: provider, Op: op, Kind: k, Status: se.StatusCode, Err: err}
	}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if errors.As(err, &syn) || errors.As(err, &typ) || errors.Is(err, xhttp.ErrBodyTooLarge) {
		return Malformed(provider, op, err)
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Provider: provider, Op: op, Kind: KindTransient, Err: fmt.Errorf("timeout: %w", err)}
	}
	return &Error{Provider: provider, Op: op, Kind: KindTransient, Err: err}
}

// Malformed reports an upstream body that did not match the expected shape.
func Malformed(provider, op string, err error) *Error {
	return &Error{Provider: provider, Op: op, Kind: KindMalformed, Err: err}
}

// Unconfigured reports a provider that has no credentials.
func Unconfigured(provider, op string) *Error {
	return &Error{Provider: provider, Op: op, Kind: KindUnconfigured, Err: errors.New("credentials not configured")}
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
