package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProvider is returned when a manual pin names a backend that
	// is neither configured nor the "auto" sentinel.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrUnknownTool is returned by the tool registry on a name miss.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNoSearchResults is returned when a search yields nothing to fetch.
	ErrNoSearchResults = errors.New("no search results")
)

// ProviderUnavailableError is returned when the selected backend and its
// single fallback both failed (or no fallback exists). Err carries the
// original failure from the first backend tried.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// ToolExecutionError wraps a failure raised by a tool's capability.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// PersistenceError wraps a store load/save failure. Memory mutations that hit
// one are logged and dropped; conversation continuity is never sacrificed
// for memory durability.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
