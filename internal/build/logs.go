package build

import "strings"

// LogStore accumulates log text per step number.
//
// The server treats a step's log as append-only, but a fetch may return
// the complete log so far, so the store supports both: Append for
// incremental tails and Replace for a full reset. The store belongs to
// one build view and is Reset when the user navigates away.
type LogStore struct {
	blocks map[int][]string
}

// NewLogStore returns an empty store.
func NewLogStore() *LogStore {
	return &LogStore{blocks: make(map[int][]string)}
}

// Append adds a text block to the step's accumulated log.
func (l *LogStore) Append(number int, text string) {
	l.blocks[number] = append(l.blocks[number], text)
}

// Replace discards whatever is accumulated for the step and stores text
// as the complete log.
func (l *LogStore) Replace(number int, text string) {
	l.blocks[number] = []string{text}
}

// Has reports whether any log text is stored for the step.
func (l *LogStore) Has(number int) bool {
	return len(l.blocks[number]) > 0
}

// Text returns the step's accumulated log as one string.
func (l *LogStore) Text(number int) string {
	return strings.Join(l.blocks[number], "")
}

// Lines returns the step's log split into lines. A trailing newline does
// not produce a final empty line.
func (l *LogStore) Lines(number int) []string {
	t := l.Text(number)
	if t == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(t, "\n"), "\n")
}

// LineCount returns the number of log lines stored for the step.
func (l *LogStore) LineCount(number int) int {
	return len(l.Lines(number))
}

// Delete removes the step's log.
func (l *LogStore) Delete(number int) {
	delete(l.blocks, number)
}

// Reset drops all accumulated logs.
func (l *LogStore) Reset() {
	l.blocks = make(map[int][]string)
}
