package session

import (
	"sync"
	"time"
)

// DefaultStatusDuration is how long a status message stays visible.
const DefaultStatusDuration = 3 * time.Second

// Notifier holds at most one transient status message. Showing a new message
// replaces the old one and restarts the dismissal timer.
type Notifier struct {
	mu       sync.Mutex
	duration time.Duration
	message  string
	timer    *time.Timer
	seq      uint64
	onChange func()
}

// NewNotifier returns a notifier; onChange, when set, runs after every
// change including automatic dismissal. It is never called with the
// notifier's lock held.
func NewNotifier(duration time.Duration, onChange func()) *Notifier {
	if duration <= 0 {
		duration = DefaultStatusDuration
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Notifier{duration: duration, onChange: onChange}
}

func (n *Notifier) Show(msg string) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	seq := n.seq
	n.message = msg
	n.timer = time.AfterFunc(n.duration, func() { n.dismiss(seq) })
	n.mu.Unlock()
	n.onChange()
}

func (n *Notifier) dismiss(seq uint64) {
	n.mu.Lock()
	if n.seq != seq {
		n.mu.Unlock()
		return
	}
	n.message = ""
	n.timer = nil
	n.mu.Unlock()
	n.onChange()
}

// Current returns the visible message or "".
func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message
}

// Stop cancels a pending dismissal.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
