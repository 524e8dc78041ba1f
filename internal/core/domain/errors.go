package domain

import (
	"errors"
	"fmt"
)

// DomainError is a failure with a stable code and the error line sent to
// RESP clients. Two DomainErrors match under errors.Is when their codes
// are equal, whatever their details.
type DomainError struct {
	Code    string // e.g. "KV-CONF-4040"
	Message string
	// Reply is the RESP error text, including its "ERR" prefix. Empty when
	// the condition is not reported as an error reply.
	Reply   string
	Details string
}

// NewDomainError creates a DomainError.
func NewDomainError(code, reply, message string) *DomainError {
	return &DomainError{Code: code, Reply: reply, Message: message}
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches on Code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// WithDetails returns a copy of the error carrying details, such as the
// parameter name that was looked up.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// ReplyFor returns the RESP error text for err. Errors without a reply of
// their own are reported as ErrInternal.
func ReplyFor(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Reply != "" {
		return de.Reply
	}
	return ErrInternal.Reply
}

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrConfigUnavailable: CONFIG GET before any snapshot setting was given.
	ErrConfigUnavailable = NewDomainError("KV-CONF-5030",
		"ERR no snapshot configuration was supplied at startup",
		"no snapshot configuration was supplied at startup")

	// ErrConfigParamNotFound is answered with a null reply, not an error.
	ErrConfigParamNotFound = NewDomainError("KV-CONF-4040", "",
		"configuration parameter not found")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	ErrInternal = NewDomainError("KV-SYS-5000", "ERR internal error", "internal error")

	// ErrRateLimited: the client IP exceeded its command rate. The
	// connection stays open.
	ErrRateLimited = NewDomainError("KV-SYS-4290", "ERR rate limit exceeded, slow down",
		"rate limit exceeded")
)
