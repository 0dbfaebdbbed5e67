package build

import (
	"reflect"
	"testing"
)

// step is a shorthand constructor for merge fixtures.
func step(number int, status Status, viewing bool) Step {
	return Step{Number: number, Status: status, Viewing: viewing}
}

func numbers(s Steps) []int {
	out := make([]int, len(s))
	for i := range s {
		out[i] = s[i].Number
	}
	return out
}

func TestMergeStepsNoPriorState(t *testing.T) {
	incoming := Steps{
		step(1, StatusSuccess, false),
		step(2, StatusRunning, false),
		step(3, StatusPending, false),
	}

	merged := MergeSteps(FocusHint{}, true, false, nil, incoming)

	if !reflect.DeepEqual(merged, incoming) {
		t.Errorf("merge with no prior state should return incoming unchanged\ngot  %+v\nwant %+v", merged, incoming)
	}
	// Result must be a copy, not an alias.
	merged[0].Viewing = true
	if incoming[0].Viewing {
		t.Error("merge result aliases the incoming slice")
	}
}

func TestMergeStepsCarriesViewingAndFocus(t *testing.T) {
	current := Steps{
		{Number: 1, Status: StatusRunning, Viewing: true, LogFocus: Focus{Start: 4, End: 9}},
		{Number: 2, Status: StatusPending, Viewing: false},
	}
	incoming := Steps{
		step(1, StatusSuccess, false),
		step(2, StatusRunning, false),
	}

	merged := MergeSteps(FocusHint{}, true, false, current, incoming)

	if !merged[0].Viewing {
		t.Error("step 1 viewing flag was not carried forward")
	}
	if merged[0].LogFocus != (Focus{Start: 4, End: 9}) {
		t.Errorf("step 1 focus = %+v, want {4 9}", merged[0].LogFocus)
	}
	if merged[0].Status != StatusSuccess {
		t.Errorf("step 1 status = %q, want incoming %q", merged[0].Status, StatusSuccess)
	}
	if merged[1].Viewing {
		t.Error("step 2 viewing should stay false without auto-expand")
	}
}

func TestMergeStepsAutoExpandOpensActive(t *testing.T) {
	current := Steps{
		step(1, StatusRunning, true),
		step(2, StatusPending, false),
	}
	incoming := Steps{
		step(1, StatusSuccess, false),
		step(2, StatusRunning, false),
		step(3, StatusPending, false),
	}

	merged := MergeSteps(FocusHint{}, true, true, current, incoming)

	want := []struct {
		number  int
		viewing bool
	}{
		{1, true},  // carried forward
		{2, true},  // left pending, forced open
		{3, false}, // new and still pending
	}
	for i, w := range want {
		if merged[i].Number != w.number {
			t.Fatalf("step[%d].Number = %d, want %d", i, merged[i].Number, w.number)
		}
		if merged[i].Viewing != w.viewing {
			t.Errorf("step %d viewing = %v, want %v", w.number, merged[i].Viewing, w.viewing)
		}
	}
}

func TestMergeStepsHintAppliedOnNavigationLoad(t *testing.T) {
	current := Steps{
		step(1, StatusRunning, true),
		step(2, StatusPending, false),
	}
	incoming := Steps{
		step(1, StatusSuccess, false),
		step(2, StatusRunning, false),
		step(3, StatusPending, false),
	}
	hint := FocusHint{Step: 3, Focus: Focus{Start: 14, End: 20}}

	merged := MergeSteps(hint, false, true, current, incoming)

	if !merged[2].Viewing {
		t.Error("hinted step 3 should be forced open on a navigation load")
	}
	if merged[2].LogFocus != (Focus{Start: 14, End: 20}) {
		t.Errorf("hinted step 3 focus = %+v, want {14 20}", merged[2].LogFocus)
	}
}

func TestMergeStepsHintIgnoredOnPlainRefresh(t *testing.T) {
	incoming := Steps{step(1, StatusRunning, false), step(2, StatusPending, false)}
	hint := FocusHint{Step: 2, Focus: Focus{Start: 7}}

	merged := MergeSteps(hint, true, false, Steps{}, incoming)

	if merged[1].Viewing || !merged[1].LogFocus.IsZero() {
		t.Errorf("background poll applied the focus hint: %+v", merged[1])
	}
}

func TestMergeStepsHintForUnknownStep(t *testing.T) {
	incoming := Steps{step(1, StatusRunning, false)}

	merged := MergeSteps(FocusHint{Step: 9}, false, false, nil, incoming)

	if got := numbers(merged); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("hint for an unknown step changed membership: %v", got)
	}
}

func TestMergeStepsMembershipDrivenByIncoming(t *testing.T) {
	current := Steps{
		step(1, StatusSuccess, true),
		step(2, StatusSuccess, true),
		step(3, StatusRunning, true),
	}
	incoming := Steps{
		step(2, StatusSuccess, false),
		step(4, StatusRunning, false),
	}

	merged := MergeSteps(FocusHint{}, true, false, current, incoming)

	if got, want := numbers(merged), []int{2, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("merged numbers = %v, want %v (incoming order, current-only steps dropped)", got, want)
	}
	if !merged[0].Viewing {
		t.Error("surviving step 2 lost its viewing flag")
	}
	if merged[1].Viewing {
		t.Error("new step 4 should start collapsed")
	}
}

func TestMergeStepsScrubsIncomingViewState(t *testing.T) {
	// Wire decoding never sets these, but the merge must not trust a
	// snapshot that arrives with view state already set.
	current := Steps{step(1, StatusRunning, false)}
	incoming := Steps{
		{Number: 1, Status: StatusSuccess, Viewing: true, LogFocus: Focus{Start: 3}},
		{Number: 2, Status: StatusRunning, Viewing: true},
	}

	merged := MergeSteps(FocusHint{}, true, false, current, incoming)

	if merged[0].Viewing || !merged[0].LogFocus.IsZero() {
		t.Errorf("step 1 took view state from the snapshot: %+v", merged[0])
	}
	if merged[1].Viewing {
		t.Error("new step 2 took viewing=true from the snapshot")
	}
}

func TestMergeStepsDoesNotMutateInputs(t *testing.T) {
	current := Steps{step(1, StatusRunning, true)}
	incoming := Steps{step(1, StatusSuccess, false), step(2, StatusRunning, false)}
	curCopy := current.Clone()
	incCopy := incoming.Clone()

	MergeSteps(FocusHint{Step: 2, Focus: Focus{Start: 1}}, false, true, current, incoming)

	if !reflect.DeepEqual(current, curCopy) {
		t.Errorf("current mutated: %+v", current)
	}
	if !reflect.DeepEqual(incoming, incCopy) {
		t.Errorf("incoming mutated: %+v", incoming)
	}
}

func TestToggleStepFlips(t *testing.T) {
	steps := Steps{step(1, StatusSuccess, false), step(2, StatusRunning, true)}

	// Open a collapsed step.
	out, ok := ToggleStep(steps, 1)
	if !ok {
		t.Error("toggle on an existing step should report success")
	}
	if !out[0].Viewing {
		t.Error("step 1 should be open after toggle")
	}

	// Collapsing reports success too.
	out2, ok2 := ToggleStep(out, 1)
	if !ok2 {
		t.Error("collapse toggle should report success")
	}
	if out2[0].Viewing {
		t.Error("step 1 should be collapsed after second toggle")
	}

	// Two toggles restore the original flag.
	if out2[0].Viewing != steps[0].Viewing {
		t.Error("double toggle did not restore the original viewing state")
	}
	// Untouched steps keep their state.
	if !out2[1].Viewing {
		t.Error("step 2 was disturbed by toggling step 1")
	}
}

func TestToggleStepMissingNumber(t *testing.T) {
	steps := Steps{step(1, StatusSuccess, false)}

	out, ok := ToggleStep(steps, 2)
	if ok {
		t.Error("toggle on a missing step should report failure")
	}
	if !reflect.DeepEqual(out, steps) {
		t.Errorf("toggle on a missing step changed state: %+v", out)
	}
}

func TestToggleStepNoPriorState(t *testing.T) {
	out, ok := ToggleStep(nil, 1)
	if ok {
		t.Error("toggle before any state is loaded should report failure")
	}
	if out != nil {
		t.Errorf("toggle before any state is loaded returned %+v", out)
	}
}

func TestExpandActiveSteps(t *testing.T) {
	steps := Steps{
		step(1, StatusSuccess, false),
		step(2, StatusRunning, false),
		step(3, StatusPending, false),
		step(4, StatusFailure, true),
	}

	out := ExpandActiveSteps(steps)

	for _, st := range out {
		if st.Status == StatusPending && st.Viewing {
			t.Errorf("pending step %d was opened", st.Number)
		}
		if st.Status != StatusPending && !st.Viewing {
			t.Errorf("active step %d was not opened", st.Number)
		}
	}
}

func TestExpandActiveStepsNeverCloses(t *testing.T) {
	steps := Steps{step(1, StatusPending, true), step(2, StatusSuccess, true)}

	out := ExpandActiveSteps(steps)

	for _, st := range out {
		if !st.Viewing {
			t.Errorf("step %d was closed by expand", st.Number)
		}
	}
}

func TestExpandActiveStep(t *testing.T) {
	steps := Steps{
		step(1, StatusSuccess, false),
		step(2, StatusRunning, false),
		step(3, StatusPending, false),
	}

	out := ExpandActiveStep(steps, 2)
	if !out[1].Viewing {
		t.Error("step 2 should be opened")
	}
	if out[0].Viewing || out[2].Viewing {
		t.Error("other steps should be untouched")
	}

	// Pending target is left alone.
	out = ExpandActiveStep(steps, 3)
	if out[2].Viewing {
		t.Error("pending step 3 should not be opened")
	}

	// Unknown target is a no-op.
	out = ExpandActiveStep(steps, 9)
	if !reflect.DeepEqual(out, steps) {
		t.Errorf("unknown step changed state: %+v", out)
	}
}

func TestSetAllStepViews(t *testing.T) {
	steps := Steps{
		step(1, StatusSuccess, true),
		step(2, StatusPending, false),
		step(3, StatusRunning, true),
	}

	opened := SetAllStepViews(true, steps)
	for _, st := range opened {
		if !st.Viewing {
			t.Errorf("step %d not open after expand all", st.Number)
		}
	}

	closed := SetAllStepViews(false, opened)
	for _, st := range closed {
		if st.Viewing {
			t.Errorf("step %d still open after collapse all", st.Number)
		}
	}
}

func TestFetchSet(t *testing.T) {
	logs := NewLogStore()
	logs.Replace(1, "done\n")
	logs.Replace(2, "partial\n")

	steps := Steps{
		step(1, StatusSuccess, true), // cached and finished: skip
		step(2, StatusRunning, true), // running: refetch even though cached
		step(3, StatusSuccess, true), // finished but no logs yet: fetch
		step(4, StatusRunning, false), // collapsed: skip
		step(5, StatusPending, true), // not started: skip
	}

	got := FetchSet(steps, logs)
	want := []int{2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FetchSet = %v, want %v", got, want)
	}
}

func TestFetchSetEmpty(t *testing.T) {
	logs := NewLogStore()
	if got := FetchSet(nil, logs); got != nil {
		t.Errorf("FetchSet on no steps = %v, want nil", got)
	}
}
