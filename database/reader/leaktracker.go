package reader

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// leakStackSize bounds the captured opening call stack.
const leakStackSize = 8192

// Tracker finds code paths that open a reader but never close it. While
// enabled, every successful open records the opening call stack keyed by
// the reader instance and every close removes it; Audit reports whatever is
// still outstanding. Disabled (the default) it records nothing and costs a
// single atomic load per open/close.
//
// A Tracker is explicit state: attach one to the readers of a unit of work
// to scope the diagnostics to it, or use the package-level default tracker.
type Tracker struct {
	enabled int32 // atomic
	mtx     sync.Mutex
	open    map[*Reader]string
}

// LeakRecord is one outstanding open reader: the reader itself and the call
// stack captured when it was opened.
type LeakRecord struct {
	Reader *Reader
	Stack  string
}

// NewTracker creates a disabled tracker.
func NewTracker() *Tracker {
	return &Tracker{open: make(map[*Reader]string)}
}

// Enable turns recording on or off and returns the previous state.
// Disabling does not clear already-recorded entries.
func (t *Tracker) Enable(enable bool) (wasEnabled bool) {
	if enable {
		return atomic.SwapInt32(&t.enabled, 1) == 1
	}
	return atomic.SwapInt32(&t.enabled, 0) == 1
}

// Enabled reports whether the tracker is recording.
func (t *Tracker) Enabled() bool {
	return atomic.LoadInt32(&t.enabled) == 1
}

// Audit returns, and then clears, all recorded entries for readers that
// were opened but never closed. Each leak is also logged with its opening
// stack. Auditing a disabled tracker is an ErrInvalidState.
func (t *Tracker) Audit() ([]LeakRecord, error) {
	if !t.Enabled() {
		return nil, errors.Wrap(database.ErrInvalidState,
			"leak tracking is not enabled; call Enable first")
	}
	t.mtx.Lock()
	defer t.mtx.Unlock()
	records := make([]LeakRecord, 0, len(t.open))
	for r, stack := range t.open {
		log.Errorf("A reader was not closed. Stack of the opening code:\n%s", stack)
		records = append(records, LeakRecord{Reader: r, Stack: stack})
	}
	t.open = make(map[*Reader]string)
	return records, nil
}

// track records r's opening call stack. No-op while disabled.
func (t *Tracker) track(r *Reader) {
	if !t.Enabled() {
		return
	}
	stack := captureStack()
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if previous, ok := t.open[r]; ok {
		log.Errorf("Reader opened while already tracked as open; "+
			"stack of the opening code that was not closed:\n%s", previous)
		// Fall through and overwrite with the new stack.
	}
	t.open[r] = stack
}

// untrack removes r's entry. No-op while disabled.
func (t *Tracker) untrack(r *Reader) {
	if !t.Enabled() {
		return
	}
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if _, ok := t.open[r]; !ok {
		log.Errorf("Reader closed but was not tracked as open. Current stack:\n%s", captureStack())
		return
	}
	delete(t.open, r)
}

func captureStack() string {
	buf := make([]byte, leakStackSize)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// defaultTracker records readers that are not attached to an explicit
// tracker.
var defaultTracker = NewTracker()

// EnableLeakTracking turns recording on or off for the default tracker and
// returns the previous state.
func EnableLeakTracking(enable bool) (wasEnabled bool) {
	return defaultTracker.Enable(enable)
}

// AuditOpenReaders returns, and then clears, the default tracker's entries
// for readers that were opened but never closed.
func AuditOpenReaders() ([]LeakRecord, error) {
	return defaultTracker.Audit()
}
