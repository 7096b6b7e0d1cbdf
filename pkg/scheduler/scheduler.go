// Package scheduler provides a single-threaded timer queue driven by a
// virtual uptime clock.
//
// Nothing runs on its own: the host advances the clock (once per game
// update, or explicitly in tests) and due callbacks run synchronously on
// the caller's goroutine, in time order. Callbacks with equal deadlines run
// in the order they were posted.
package scheduler

import (
	"container/heap"
	"time"
)

// Handler is a cooperative timer queue. It is not safe for concurrent use.
type Handler struct {
	now     time.Duration
	seq     uint64
	queue   timerQueue
	running bool
}

// Timer is a pending callback returned by the Post* methods.
type Timer struct {
	h     *Handler
	at    time.Duration
	seq   uint64
	fn    func()
	index int // position in the queue, -1 once fired or stopped
}

// NewHandler creates a handler whose clock starts at zero.
func NewHandler() *Handler {
	return &Handler{}
}

// Now returns the current uptime.
func (h *Handler) Now() time.Duration {
	return h.now
}

// PostAt schedules fn to run once the clock reaches at. Deadlines in the
// past run on the next Advance.
func (h *Handler) PostAt(at time.Duration, fn func()) *Timer {
	h.seq++
	t := &Timer{h: h, at: at, seq: h.seq, fn: fn}
	heap.Push(&h.queue, t)
	return t
}

// PostDelayed schedules fn to run after d.
func (h *Handler) PostDelayed(d time.Duration, fn func()) *Timer {
	return h.PostAt(h.now+d, fn)
}

// Post schedules fn for the current instant.
func (h *Handler) Post(fn func()) *Timer {
	return h.PostAt(h.now, fn)
}

// Pending returns the number of timers waiting to fire.
func (h *Handler) Pending() int {
	return len(h.queue)
}

// NextAt returns the deadline of the earliest pending timer.
func (h *Handler) NextAt() (time.Duration, bool) {
	if len(h.queue) == 0 {
		return 0, false
	}
	return h.queue[0].at, true
}

// Advance moves the clock forward by d, running every callback whose
// deadline falls within the window. While a callback runs, Now reports its
// deadline, so delays posted from inside a callback are measured from the
// moment it was due. Callbacks posted for an instant inside the window run
// in the same call. Advance returns the number of callbacks run.
//
// Calling Advance from inside a callback does nothing.
func (h *Handler) Advance(d time.Duration) int {
	if h.running || d < 0 {
		return 0
	}
	h.running = true
	defer func() { h.running = false }()

	target := h.now + d
	fired := 0
	for len(h.queue) > 0 && h.queue[0].at <= target {
		t := heap.Pop(&h.queue).(*Timer)
		if t.at > h.now {
			h.now = t.at
		}
		fired++
		t.fn()
	}
	h.now = target
	return fired
}

// Stop cancels the timer. It reports whether the timer was still pending;
// stopping a fired or stopped timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.h.queue, t.index)
	return true
}

// Pending reports whether the timer has neither fired nor been stopped.
func (t *Timer) Pending() bool {
	return t != nil && t.index >= 0
}

// When returns the timer's deadline.
func (t *Timer) When() time.Duration {
	return t.at
}

type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
