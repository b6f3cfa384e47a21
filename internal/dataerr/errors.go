// Package dataerr defines the error categories reported by generate, load
// and audit runs. Every typed error matches exactly one sentinel through
// errors.Is so callers can classify failures without string matching.
package dataerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel categories.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrGeneration     = errors.New("generation error")
	ErrValidation     = errors.New("validation error")
	ErrLoad           = errors.New("load error")
	ErrIntegrityAudit = errors.New("integrity audit error")
)

// ConfigError reports invalid or inconsistent run parameters.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigError returns a ConfigError for field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// GenerationError reports a sampler or dependency-closure failure for a table.
type GenerationError struct {
	Table string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error: table %s: %v", e.Table, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// Violation is a single constraint failure found before persistence.
type Violation struct {
	Table   string
	RowID   int64
	Column  string
	Rule    string
	Message string
}

func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(v.Table)
	if v.RowID > 0 {
		fmt.Fprintf(&b, "[id=%d]", v.RowID)
	}
	if v.Column != "" {
		b.WriteString(".")
		b.WriteString(v.Column)
	}
	fmt.Fprintf(&b, " %s: %s", v.Rule, v.Message)
	return b.String()
}

// ValidationError carries the complete violation list of a failed run.
type ValidationError struct {
	Violations []Violation
	// Blocked lists tables that were not generated or validated because a
	// table they depend on failed.
	Blocked []string
}

func (e *ValidationError) Error() string {
	tables := make(map[string]int)
	var order []string
	for _, v := range e.Violations {
		if _, ok := tables[v.Table]; !ok {
			order = append(order, v.Table)
		}
		tables[v.Table]++
	}
	parts := make([]string, 0, len(order))
	for _, t := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", t, tables[t]))
	}
	msg := fmt.Sprintf("validation error: %d violation(s) [%s]", len(e.Violations), strings.Join(parts, ", "))
	if len(e.Blocked) > 0 {
		msg += fmt.Sprintf("; blocked: %s", strings.Join(e.Blocked, ", "))
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// LoadError reports a transactional failure while writing a chunk.
type LoadError struct {
	Table   string
	Chunk   int // 1-based; 0 when the failure is not tied to a chunk
	Retries int
	Err     error
}

func (e *LoadError) Error() string {
	switch {
	case e.Table == "":
		return fmt.Sprintf("load error: %v", e.Err)
	case e.Chunk == 0:
		return fmt.Sprintf("load error: table %s: %v", e.Table, e.Err)
	default:
		return fmt.Sprintf("load error: table %s chunk %d (after %d retries): %v", e.Table, e.Chunk, e.Retries, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Finding is one failed post-load check.
type Finding struct {
	Check    string
	Table    string
	Expected string
	Actual   string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s(%s): expected %s, got %s", f.Check, f.Table, f.Expected, f.Actual)
}

// AuditError signals that the persisted store disagrees with the validated
// snapshot it was loaded from.
type AuditError struct {
	Findings []Finding
}

func (e *AuditError) Error() string {
	lines := make([]string, 0, len(e.Findings))
	for _, f := range e.Findings {
		lines = append(lines, f.String())
	}
	return fmt.Sprintf("integrity audit error: %d finding(s): %s", len(e.Findings), strings.Join(lines, "; "))
}

func (e *AuditError) Is(target error) bool { return target == ErrIntegrityAudit }

// Category names the first-class category of err, or "internal".
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrGeneration):
		return "GenerationError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrLoad):
		return "LoadError"
	case errors.Is(err, ErrIntegrityAudit):
		return "IntegrityAuditError"
	default:
		return "InternalError"
	}
}

// ExitCode maps err to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrGeneration):
		return 3
	case errors.Is(err, ErrValidation):
		return 4
	case errors.Is(err, ErrLoad):
		return 5
	case errors.Is(err, ErrIntegrityAudit):
		return 6
	default:
		return 1
	}
}
