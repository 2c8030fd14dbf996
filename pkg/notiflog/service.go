package notiflog

import "github.com/NotCoffee418/esp32_power_tracker/pkg/types"

// Log is the newest-first notification view. It is unbounded and has a
// single owner.
type Log struct {
	entries []types.Notification
}

func New() *Log {
	return &Log{}
}

// Load replaces the view with a chronological (oldest first) history.
// The given slice is reversed in place.
func (l *Log) Load(chronological []types.Notification) {
	for i, j := 0, len(chronological)-1; i < j; i, j = i+1, j-1 {
		chronological[i], chronological[j] = chronological[j], chronological[i]
	}
	l.entries = append(l.entries[:0:0], chronological...)
}

// Prepend puts n on top of everything already shown.
func (l *Log) Prepend(n types.Notification) {
	l.entries = append(l.entries, types.Notification{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = n
}

func (l *Log) Clear() {
	l.entries = nil
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []types.Notification {
	out := make([]types.Notification, len(l.entries))
	copy(out, l.entries)
	return out
}
