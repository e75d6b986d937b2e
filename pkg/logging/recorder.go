package logging

import "sync"

// Entry is one call captured by a Recorder.
type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// Recorder is a Logger that keeps every entry in memory. Tests use it to
// assert on swallowed errors.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Debug(msg string, args ...any) { r.add("debug", msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.add("info", msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.add("warn", msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.add("error", msg, args) }

func (r *Recorder) add(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Args: args})
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries were logged at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
