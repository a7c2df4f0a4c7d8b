package testlog

import (
	"sync"

	"service-dispatch/internal/logx"
)

// Entry is one captured log record.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Recorder captures log entries for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Recorder.
func New() *Recorder { return &Recorder{} }

// Logger returns a logx.Logger that records into the Recorder.
func (r *Recorder) Logger() logx.Logger {
	return capture{r: r}
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Has reports whether any entry carries msg.
func (r *Recorder) Has(msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}

func (r *Recorder) add(level, msg string, fields []logx.Field) {
	cp := append([]logx.Field(nil), fields...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: cp})
}

type capture struct {
	r    *Recorder
	base []logx.Field
}

func (c capture) Debug(msg string, f ...logx.Field) { c.r.add("debug", msg, append(c.base, f...)) }
func (c capture) Info(msg string, f ...logx.Field)  { c.r.add("info", msg, append(c.base, f...)) }
func (c capture) Warn(msg string, f ...logx.Field)  { c.r.add("warn", msg, append(c.base, f...)) }
func (c capture) Error(msg string, f ...logx.Field) { c.r.add("error", msg, append(c.base, f...)) }

func (c capture) With(f ...logx.Field) logx.Logger {
	base := append([]logx.Field(nil), c.base...)
	return capture{r: c.r, base: append(base, f...)}
}

func (c capture) Sync() error { return nil }

var _ logx.Logger = capture{}
