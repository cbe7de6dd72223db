package version

import (
	"errors"
	"fmt"
)

// ErrBuildInProgress is returned when a commit is attempted while another
// build is in flight. The second attempt is rejected, never queued.
var ErrBuildInProgress = errors.New("glossary build already in progress")

// ErrNoActiveVersion is returned when no glossary version has been committed yet.
var ErrNoActiveVersion = errors.New("no glossary version is active")

// BuildError reports a failed index build. The active version is untouched
// when a BuildError occurs.
type BuildError struct {
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index build failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("index build failed: %s", e.Reason)
}

func (e *BuildError) Unwrap() error { return e.Err }

// RollbackError reports a rollback to a version id not present in history.
type RollbackError struct {
	ID uint64
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: version %d not in history", e.ID)
}
