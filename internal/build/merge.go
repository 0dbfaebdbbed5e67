package build

// MergeSteps reconciles a freshly fetched step snapshot with the steps
// the UI currently holds.
//
// The incoming snapshot is authoritative for membership, order, status
// and timing: steps the server no longer reports are dropped, and the
// result preserves incoming order. Viewing and LogFocus are carried
// forward from the matching current step by number, which is what keeps a
// background poll from discarding the panels the user has open. When
// autoExpand is set, any step that has left pending is forced open;
// nothing here ever forces a step closed.
//
// current == nil means no prior state exists (first response for this
// build); the snapshot is then taken as-is apart from hint handling. An
// empty non-nil current is prior state that happens to have no steps.
//
// hint is applied only when plainRefresh is false, i.e. on the initial
// load or a deep-link navigation: the referenced step is forced open and
// its LogFocus set from the hint. Background polls pass plainRefresh=true
// and a zero hint so the log view does not jump on every tick.
//
// Neither input is mutated.
func MergeSteps(hint FocusHint, plainRefresh, autoExpand bool, current, incoming Steps) Steps {
	var merged Steps
	if current == nil {
		merged = incoming.Clone()
	} else {
		merged = make(Steps, 0, len(incoming))
		for _, in := range incoming {
			in.Viewing = false
			in.LogFocus = Focus{}
			if i := current.Find(in.Number); i >= 0 {
				in.Viewing = current[i].Viewing
				in.LogFocus = current[i].LogFocus
			}
			if autoExpand && in.Status != StatusPending {
				in.Viewing = true
			}
			merged = append(merged, in)
		}
	}

	if !plainRefresh && !hint.IsZero() {
		if i := merged.Find(hint.Step); i >= 0 {
			merged[i].Viewing = true
			merged[i].LogFocus = hint.Focus
		}
	}
	return merged
}

// ToggleStep flips the viewing flag of the step with the given number.
// The boolean reports whether a toggle happened: false when no prior
// state exists yet (still loading) or the step is unknown. The caller
// runs the result through FetchSet to decide which logs to request.
//
// When the returned step ends up open, the caller owes a navigation push
// of the step's fragment so the panel is addressable.
func ToggleStep(steps Steps, number int) (Steps, bool) {
	if steps == nil {
		return steps, false
	}
	i := steps.Find(number)
	if i < 0 {
		return steps, false
	}
	out := steps.Clone()
	out[i].Viewing = !out[i].Viewing
	return out, true
}

// ExpandActiveSteps opens every step that has left pending and touches
// nothing else. Used when build-wide follow is switched on.
func ExpandActiveSteps(steps Steps) Steps {
	out := steps.Clone()
	for i := range out {
		if out[i].Status != StatusPending {
			out[i].Viewing = true
		}
	}
	return out
}

// ExpandActiveStep opens the single named step, and only if it has left
// pending. Used for targeted reveal when one step starts running.
func ExpandActiveStep(steps Steps, number int) Steps {
	i := steps.Find(number)
	if i < 0 || steps[i].Status == StatusPending {
		return steps
	}
	out := steps.Clone()
	out[i].Viewing = true
	return out
}

// SetAllStepViews sets every step's viewing flag unconditionally. The
// expand-all and collapse-all commands go through here; it is the only
// operation that forces steps closed.
func SetAllStepViews(viewing bool, steps Steps) Steps {
	out := steps.Clone()
	for i := range out {
		out[i].Viewing = viewing
	}
	return out
}

// FetchSet returns the numbers of steps whose logs should be fetched
// after a merge: open, started steps whose logs are not in the store,
// plus open running steps regardless (their logs grow between polls).
// Finished steps with cached logs are skipped.
func FetchSet(steps Steps, logs *LogStore) []int {
	var need []int
	for _, st := range steps {
		if !st.Viewing || !st.Status.Started() {
			continue
		}
		if st.Status == StatusRunning || !logs.Has(st.Number) {
			need = append(need, st.Number)
		}
	}
	return need
}
