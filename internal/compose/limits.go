package compose

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default character limits.
const (
	DefaultMaxChars  = 140
	DefaultWarnChars = 120
)

// Sentinel validation errors, matched with errors.Is.
var (
	ErrEmptyContent = errors.New("content is empty")
	ErrNoPlatform   = errors.New("no platform selected")
	ErrTooLong      = errors.New("content exceeds the character limit")
)

// CounterState is the display state of the character counter.
type CounterState int

// Counter states.
const (
	CounterOK CounterState = iota
	CounterWarning
	CounterError
)

// String returns the state name.
func (s CounterState) String() string {
	switch s {
	case CounterWarning:
		return "warning"
	case CounterError:
		return "error"
	default:
		return "ok"
	}
}

// Limits configures the character counter.
type Limits struct {
	Max  int // longest submittable content
	Warn int // counts above this are shown as a warning
}

// DefaultLimits returns the 140/120 limits.
func DefaultLimits() Limits {
	return Limits{Max: DefaultMaxChars, Warn: DefaultWarnChars}
}

// Count returns the number of characters in s, counted as Unicode code points.
func (l Limits) Count(s string) int {
	return utf8.RuneCountInString(s)
}

// State classifies a character count.
func (l Limits) State(count int) CounterState {
	switch {
	case count > l.Max:
		return CounterError
	case count > l.Warn:
		return CounterWarning
	default:
		return CounterOK
	}
}

// Allows reports whether s fits within the limit.
func (l Limits) Allows(s string) bool {
	return l.Count(s) <= l.Max
}

// ValidationError describes content refused before any network call.
type ValidationError struct {
	Err   error // one of the sentinel errors
	Count int
	Max   int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrTooLong) {
		return fmt.Sprintf("%s (%d/%d)", e.Err, e.Count, e.Max)
	}
	return e.Err.Error()
}

// Unwrap exposes the sentinel for errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks content and platforms before a publish request.
func Validate(content string, platforms []string, limits Limits) error {
	count := limits.Count(content)
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Err: ErrEmptyContent, Count: count, Max: limits.Max}
	}
	if len(nonEmpty(platforms)) == 0 {
		return &ValidationError{Err: ErrNoPlatform, Count: count, Max: limits.Max}
	}
	if count > limits.Max {
		return &ValidationError{Err: ErrTooLong, Count: count, Max: limits.Max}
	}
	return nil
}

// NormalizePlatforms trims names and drops empty and repeated entries.
func NormalizePlatforms(platforms []string) []string {
	seen := make(map[string]bool, len(platforms))
	var out []string
	for _, p := range nonEmpty(platforms) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
