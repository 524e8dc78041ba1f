package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      ErrConfigParamNotFound,
			expected: "[KV-CONF-4040] configuration parameter not found",
		},
		{
			name:     "error with details",
			err:      ErrConfigParamNotFound.WithDetails("maxmemory"),
			expected: "[KV-CONF-4040] configuration parameter not found: maxmemory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_IsMatchesCode(t *testing.T) {
	detailed := ErrConfigParamNotFound.WithDetails("maxmemory")
	wrapped := fmt.Errorf("config get: %w", detailed)

	if !errors.Is(wrapped, ErrConfigParamNotFound) {
		t.Error("errors.Is should match a wrapped error with the same code")
	}
	if errors.Is(wrapped, ErrConfigUnavailable) {
		t.Error("errors.Is should not match a different code")
	}
	if errors.Is(ErrConfigUnavailable, errors.New("no snapshot configuration was supplied at startup")) {
		t.Error("errors.Is should not match a plain error")
	}
}

func TestDomainError_WithDetailsCopies(t *testing.T) {
	_ = ErrConfigParamNotFound.WithDetails("dir")
	if ErrConfigParamNotFound.Details != "" {
		t.Error("WithDetails should not modify the sentinel")
	}
}

func TestReplyFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"own reply", ErrConfigUnavailable, "ERR no snapshot configuration was supplied at startup"},
		{"wrapped", fmt.Errorf("dispatch: %w", ErrRateLimited), "ERR rate limit exceeded, slow down"},
		{"no reply text", ErrConfigParamNotFound, "ERR internal error"},
		{"plain error", errors.New("boom"), "ERR internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplyFor(tt.err); got != tt.want {
				t.Errorf("ReplyFor() = %q, want %q", got, tt.want)
			}
		})
	}
}
