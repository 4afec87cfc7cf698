package output

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrClosed is returned by Await once the channel is closed and drained.
var ErrClosed = errors.New("output channel closed")

// Sink receives every published line (run transcripts, tests).
type Sink interface {
	Append(Line)
}

// Channel is an unbounded multi-producer, single-consumer line queue.
type Channel struct {
	publishMu sync.Mutex // serializes producers so sinks see publish order

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Line
	nextSeq uint64
	closed  bool
	sinks   []Sink
}

// NewChannel constructs an empty channel.
func NewChannel() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// AddSink wires an additional sink that receives every subsequent line.
func (c *Channel) AddSink(sink Sink) {
	if c == nil || sink == nil {
		return
	}
	c.mu.Lock()
	c.sinks = append(c.sinks, sink)
	c.mu.Unlock()
}

// Publish appends text exactly as given.
func (c *Channel) Publish(text string) {
	if c == nil {
		return
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.nextSeq++
	line := Line{Seq: c.nextSeq, Time: time.Now().UTC(), Text: text, Kind: Classify(text)}
	c.pending = append(c.pending, line)
	sinks := append([]Sink(nil), c.sinks...)
	c.cond.Broadcast()
	c.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(line)
	}
}

// Publishf formats a line and terminates it with a newline.
func (c *Channel) Publishf(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	c.Publish(text)
}

// Drain removes and returns every pending line without blocking.
func (c *Channel) Drain() []Line {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.takeLocked()
}

// Await blocks until at least one line is pending, then drains. It returns
// ErrClosed when the channel is closed with nothing pending, or the context
// error when ctx ends first.
func (c *Channel) Await(ctx context.Context) ([]Line, error) {
	if c == nil {
		return nil, ErrClosed
	}
	stop := make(chan struct{})
	defer close(stop)
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				c.mu.Lock()
				c.cond.Broadcast()
				c.mu.Unlock()
			case <-stop:
			}
		}()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) == 0 {
		if c.closed {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.cond.Wait()
	}
	return c.takeLocked(), nil
}

// Pending reports the number of undrained lines.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close stops accepting lines and wakes any waiter. Pending lines remain drainable.
func (c *Channel) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *Channel) takeLocked() []Line {
	if len(c.pending) == 0 {
		return nil
	}
	out := c.pending
	c.pending = nil
	return out
}

// Texts returns the text of each line, convenient for assertions and sinks.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Text
	}
	return out
}
