package derivative

import (
	"errors"
	"fmt"
	"path/filepath"
)

type Status string

const (
	StatusSkipped  Status = "skipped"  // not a jpg/jpeg/png original
	StatusComplete Status = "complete" // every applicable derivative exists
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// Result describes one Generate call.
type Result struct {
	Original string
	Status   Status
	Width    int
	Written  []string
	Existing []string
	Errors   []error
}

func (r *Result) fail(err error) {
	r.Errors = append(r.Errors, err)
	r.Status = StatusFailed
}

func (r *Result) settle() {
	switch {
	case len(r.Errors) == 0:
		r.Status = StatusComplete
	case len(r.Written)+len(r.Existing) == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}

// Err joins every collected error, or returns nil.
func (r Result) Err() error {
	return errors.Join(r.Errors...)
}

// OK reports whether nothing went wrong.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// LogLine renders the result as a key=value log line.
func (r Result) LogLine() string {
	line := fmt.Sprintf("derivatives status=%s original=%s width=%d written=%d existing=%d failed=%d",
		r.Status, filepath.Base(r.Original), r.Width, len(r.Written), len(r.Existing), len(r.Errors))
	if err := r.Err(); err != nil {
		line += fmt.Sprintf(" error=%q", err.Error())
	}
	return line
}
