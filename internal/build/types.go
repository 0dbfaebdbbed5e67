// Package build holds the step and build state shared between the API
// client and the UI: the merge that reconciles freshly fetched step
// snapshots with state the user has been interacting with, the expand and
// follow operations, the log store, and deep-link focus parsing.
//
// Everything here is pure value manipulation with no I/O. Operations
// return fresh slices and never mutate their inputs, so a poll response
// that was in flight while the user toggled a step can never clobber the
// toggle: the merge runs later, against the already-toggled state.
package build

// Status is a build or step state as reported by the server.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusKilled  Status = "killed"
	StatusError   Status = "error"
)

// Started reports whether execution has left the pending queue.
func (s Status) Started() bool { return s != StatusPending }

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusKilled, StatusError:
		return true
	}
	return false
}

// Step is one executable unit of a build.
//
// Number is server-assigned, unique within a build and 1-based; ordering
// by Number is execution order. Viewing and LogFocus are UI-local and are
// never populated from the wire.
type Step struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	ExitCode int    `json:"exit_code"`
	Started  int64  `json:"started_at"`
	Finished int64  `json:"finished_at"`

	Viewing  bool  `json:"-"`
	LogFocus Focus `json:"-"`
}

// Steps is a build's step list in execution order.
type Steps []Step

// Find returns the index of the step with the given number, or -1.
func (s Steps) Find(number int) int {
	for i := range s {
		if s[i].Number == number {
			return i
		}
	}
	return -1
}

// Get returns the step with the given number.
func (s Steps) Get(number int) (Step, bool) {
	if i := s.Find(number); i >= 0 {
		return s[i], true
	}
	return Step{}, false
}

// Clone returns a copy of s sharing no backing memory.
func (s Steps) Clone() Steps {
	if s == nil {
		return nil
	}
	out := make(Steps, len(s))
	copy(out, s)
	return out
}

// Build is one execution of a pipeline. Error carries the server's own
// failure message for builds that never produced steps (bad config,
// clone failure).
type Build struct {
	Number   int    `json:"number"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
	Event    string `json:"event"`
	Branch   string `json:"branch"`
	Commit   string `json:"commit"`
	Message  string `json:"message"`
	Author   string `json:"author"`
	Started  int64  `json:"started_at"`
	Finished int64  `json:"finished_at"`
	Steps    Steps  `json:"steps,omitempty"`
}

// ShortCommit returns the abbreviated commit hash used in listings.
func (b Build) ShortCommit() string {
	if len(b.Commit) > 8 {
		return b.Commit[:8]
	}
	return b.Commit
}
