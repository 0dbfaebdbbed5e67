package build

import (
	"fmt"
	"strconv"
	"strings"
)

// Focus anchors a 1-based inclusive line range within a step's log, used
// to scroll to and highlight a region. The zero Focus means no anchor.
// End == 0 with Start set means the single line Start.
type Focus struct {
	Start int
	End   int
}

// IsZero reports whether no anchor is set.
func (f Focus) IsZero() bool { return f.Start == 0 }

// Contains reports whether the 1-based line n falls inside the range.
func (f Focus) Contains(n int) bool {
	if f.Start == 0 {
		return false
	}
	end := f.End
	if end == 0 {
		end = f.Start
	}
	return n >= f.Start && n <= end
}

// FocusHint is a parsed deep-link fragment: the step to open plus an
// optional log focus. The zero hint means none. Hints are applied by the
// merge exactly once, on navigation loads, never on background polls.
type FocusHint struct {
	Step  int
	Focus Focus
}

// IsZero reports whether the hint names no step.
func (h FocusHint) IsZero() bool { return h.Step == 0 }

// Fragment renders the canonical fragment form: "3", "3:14" or "3:14-20".
func (h FocusHint) Fragment() string {
	switch {
	case h.Step == 0:
		return ""
	case h.Focus.Start == 0:
		return strconv.Itoa(h.Step)
	case h.Focus.End == 0 || h.Focus.End == h.Focus.Start:
		return fmt.Sprintf("%d:%d", h.Step, h.Focus.Start)
	default:
		return fmt.Sprintf("%d:%d-%d", h.Step, h.Focus.Start, h.Focus.End)
	}
}

// ParseFocus parses a deep-link fragment. Accepted forms are "3" (open
// step 3), "3:14" (line 14 of step 3's log) and "3:14-20" (a line range).
// A leading "#" is tolerated. Callers treat a parse failure as "no
// focus"; it never blocks rendering.
func ParseFocus(s string) (FocusHint, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return FocusHint{}, fmt.Errorf("empty focus fragment")
	}
	stepPart, linePart, hasLines := strings.Cut(s, ":")
	step, err := strconv.Atoi(stepPart)
	if err != nil || step < 1 {
		return FocusHint{}, fmt.Errorf("bad step number %q in focus fragment", stepPart)
	}
	h := FocusHint{Step: step}
	if !hasLines {
		return h, nil
	}
	startPart, endPart, hasEnd := strings.Cut(linePart, "-")
	start, err := strconv.Atoi(startPart)
	if err != nil || start < 1 {
		return FocusHint{}, fmt.Errorf("bad focus line %q", startPart)
	}
	h.Focus.Start = start
	if hasEnd {
		end, err := strconv.Atoi(endPart)
		if err != nil || end < start {
			return FocusHint{}, fmt.Errorf("bad focus range %q", linePart)
		}
		h.Focus.End = end
	}
	return h, nil
}
