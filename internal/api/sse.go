package api

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// Event is one server-sent event.
type Event struct {
	Kind string
	Data string
}

// Framer splits a byte stream into server-sent events. Feed may be called with
// arbitrary chunk boundaries; a line split across two chunks is held until its
// newline arrives. The zero value is ready to use.
type Framer struct {
	buf   []byte
	kind  string
	data  []string
	dirty bool
}

// Feed consumes a chunk and returns every event completed by it.
func (f *Framer) Feed(chunk []byte) []Event {
	f.buf = append(f.buf, chunk...)
	var events []Event
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := string(f.buf[:i])
		f.buf = f.buf[i+1:]
		if ev, ok := f.line(strings.TrimSuffix(line, "\r")); ok {
			events = append(events, ev)
		}
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return events
}

// Close flushes a trailing partial line and any pending event.
func (f *Framer) Close() []Event {
	var events []Event
	if len(f.buf) > 0 {
		line := strings.TrimSuffix(string(f.buf), "\r")
		f.buf = nil
		if ev, ok := f.line(line); ok {
			events = append(events, ev)
		}
	}
	if ev, ok := f.flush(); ok {
		events = append(events, ev)
	}
	return events
}

func (f *Framer) line(line string) (Event, bool) {
	if line == "" {
		return f.flush()
	}
	switch {
	case strings.HasPrefix(line, ":"):
		// comment / keep-alive
	case strings.HasPrefix(line, "event:"):
		f.kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		f.dirty = true
	case strings.HasPrefix(line, "data:"):
		v := strings.TrimPrefix(line, "data:")
		v = strings.TrimPrefix(v, " ")
		f.data = append(f.data, v)
		f.dirty = true
	}
	return Event{}, false
}

// flush emits the pending event if it carries data, then resets the state.
func (f *Framer) flush() (Event, bool) {
	if !f.dirty {
		return Event{}, false
	}
	kind, data := f.kind, f.data
	f.kind, f.data, f.dirty = "", nil, false
	if len(data) == 0 {
		return Event{}, false
	}
	if kind == "" {
		kind = "message"
	}
	return Event{Kind: kind, Data: strings.Join(data, "\n")}, true
}

// ErrStopStream may be returned by a ReadEvents callback to end the stream
// early without reporting an error.
var ErrStopStream = errors.New("stop stream")

// ReadEvents frames r and calls fn for each event. It returns the first error
// from fn (other than ErrStopStream) or from reading r. A clean EOF flushes the
// final event.
func ReadEvents(r io.Reader, fn func(Event) error) error {
	var f Framer
	buf := make([]byte, 32*1024)
	emit := func(events []Event) error {
		for _, ev := range events {
			if err := fn(ev); err != nil {
				return err
			}
		}
		return nil
	}
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := emit(f.Feed(buf[:n])); ferr != nil {
				return stopped(ferr)
			}
		}
		if errors.Is(err, io.EOF) {
			return stopped(emit(f.Close()))
		}
		if err != nil {
			return &readError{err: err}
		}
	}
}

func stopped(err error) error {
	if errors.Is(err, ErrStopStream) {
		return nil
	}
	return err
}

// readError marks a failure reading the body, as opposed to a callback error.
type readError struct{ err error }

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }
