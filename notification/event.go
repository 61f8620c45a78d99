package notification

import (
	"context"
	"time"

	"github.com/hupe1980/testmesh/core"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventRunStarted        EventType = "run_started"
	EventRunFinished       EventType = "run_finished"
	EventTestStarted       EventType = "test_started"
	EventTestFinished      EventType = "test_finished"
	EventTestFailure       EventType = "test_failure"
	EventAssumptionFailure EventType = "assumption_failure"
	EventTestIgnored       EventType = "test_ignored"
)

// Event is the value form of a listener callback, used to stream a run over
// a channel.
type Event struct {
	Type        EventType
	Description *core.Description
	Failure     *core.Failure
	Result      *Result
	Time        time.Time
}

// ChannelListener forwards every event onto a channel. Sends block until the
// consumer receives or ctx is done; in the latter case the listener fails and
// is removed from the notifier.
type ChannelListener struct {
	ctx context.Context
	ch  chan<- Event
}

// NewChannelListener creates a ChannelListener sending on ch.
func NewChannelListener(ctx context.Context, ch chan<- Event) *ChannelListener {
	return &ChannelListener{ctx: ctx, ch: ch}
}

// ConcurrencySafe implements ConcurrencySafe.
func (c *ChannelListener) ConcurrencySafe() bool { return true }

func (c *ChannelListener) send(ev Event) error {
	ev.Time = time.Now()

	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	case c.ch <- ev:
		return nil
	}
}

// TestRunStarted implements Listener.
func (c *ChannelListener) TestRunStarted(d *core.Description) error {
	return c.send(Event{Type: EventRunStarted, Description: d})
}

// TestRunFinished implements Listener.
func (c *ChannelListener) TestRunFinished(r *Result) error {
	return c.send(Event{Type: EventRunFinished, Result: r})
}

// TestStarted implements Listener.
func (c *ChannelListener) TestStarted(d *core.Description) error {
	return c.send(Event{Type: EventTestStarted, Description: d})
}

// TestFinished implements Listener.
func (c *ChannelListener) TestFinished(d *core.Description) error {
	return c.send(Event{Type: EventTestFinished, Description: d})
}

// TestFailure implements Listener.
func (c *ChannelListener) TestFailure(f *core.Failure) error {
	return c.send(Event{Type: EventTestFailure, Description: f.Description, Failure: f})
}

// TestAssumptionFailure implements Listener.
func (c *ChannelListener) TestAssumptionFailure(f *core.Failure) error {
	return c.send(Event{Type: EventAssumptionFailure, Description: f.Description, Failure: f})
}

// TestIgnored implements Listener.
func (c *ChannelListener) TestIgnored(d *core.Description) error {
	return c.send(Event{Type: EventTestIgnored, Description: d})
}
