package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyInProgress is returned when a live acquisition exists for the id
	ErrAlreadyInProgress = errors.New("already in progress")

	// ErrEmptyBody is returned when a mirror answered with a success status but no data
	ErrEmptyBody = errors.New("empty response body")

	// ErrPathEscape is returned when a destination would leave the library root
	ErrPathEscape = errors.New("path escapes library root")

	// ErrCancelled is returned when an acquisition was cancelled by the caller
	ErrCancelled = errors.New("acquisition cancelled")
)

// NetworkError means a single mirror was unreachable or timed out
type NetworkError struct {
	Source string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError means a single mirror returned a non-success status
type HTTPStatusError struct {
	Source     string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// AuthMissingError means a mirror required a credential that was not supplied
type AuthMissingError struct {
	Source string
}

func (e *AuthMissingError) Error() string {
	return "access token required but not supplied"
}

// SourceFailure records why one mirror attempt failed
type SourceFailure struct {
	Source string
	Err    error
}

// AllSourcesExhaustedError means every configured mirror failed
type AllSourcesExhaustedError struct {
	Failures []SourceFailure
}

func (e *AllSourcesExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return "all download sources failed: no sources configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Source, f.Err))
	}
	return "all download sources failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every per-source error to errors.Is and errors.As
func (e *AllSourcesExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Sources returns the names of the attempted sources in order
func (e *AllSourcesExhaustedError) Sources() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Source)
	}
	return names
}

// InvalidArchiveError means the fetched bytes are not a usable zip container
type InvalidArchiveError struct {
	Head    []byte // leading bytes that failed the signature check
	Preview string // best-effort text decoding of the start of the body
	Reason  string
}

func (e *InvalidArchiveError) Error() string {
	if e.Reason != "" && len(e.Head) == 0 {
		return fmt.Sprintf("invalid archive: %s", e.Reason)
	}
	msg := fmt.Sprintf("invalid archive signature %s", hexBytes(e.Head))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Preview != "" {
		msg += fmt.Sprintf(" (body starts with %q)", e.Preview)
	}
	return msg
}

// EmptyArchiveError means a valid archive held no allow-listed audio members
type EmptyArchiveError struct {
	Members []string
	Allowed []string
}

func (e *EmptyArchiveError) Error() string {
	msg := fmt.Sprintf("no audio members found (allowed: %s)", strings.Join(e.Allowed, ", "))
	if len(e.Members) > 0 {
		msg += "; archive contains: " + strings.Join(e.Members, ", ")
	}
	return msg
}

// FileSystemError means a directory creation, write, or path check failed
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// SizeLimitExceededError means an asset was larger than the configured maximum
type SizeLimitExceededError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("%s is %d bytes, exceeds limit of %d bytes", e.Name, e.Size, e.Limit)
}

func hexBytes(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	encoded := hex.EncodeToString(b)
	var sb strings.Builder
	for i := 0; i < len(encoded); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(encoded[i : i+2]))
	}
	return sb.String()
}
