package tui

import "sync"

// Inbox is the unbounded multi-producer, single-consumer queue between
// background jobs and the render loop. Send never blocks; Drain takes
// everything queued so far in arrival order.
type Inbox struct {
	mu     sync.Mutex
	queue  []Msg
	closed bool
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Send enqueues msg. After Close it is a silent no-op, so a job that finishes
// during shutdown loses its result without error.
func (in *Inbox) Send(msg Msg) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.queue = append(in.queue, msg)
}

// Drain removes and returns all pending messages without waiting.
func (in *Inbox) Drain() []Msg {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return nil
	}
	out := in.queue
	in.queue = nil
	return out
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// Close drops pending messages and rejects future sends.
func (in *Inbox) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.queue = nil
}
