// Package playback replays a finished call transcript as if it were live:
// role-paced typing, pauses between turns, and an endless loop over a fixed
// continuation script once the real transcript is exhausted.
//
// The engine owns no timers. Bind and Tick report the delay until the next
// step together with the generation it belongs to; the consumer schedules
// that delay however it likes (tea.Tick in the UI, a loop variable in
// tests) and feeds the generation back in. A tick carrying a generation
// older than the current binding is a no-op, so stale timers from a
// previous call selection can never touch the new session's state.
package playback

import "time"

// Next describes the single outstanding delay a session is waiting on.
type Next struct {
	Delay time.Duration
	Gen   uint64
}

// Controller binds at most one script at a time and serializes every state
// mutation behind the generation check. It is not safe for concurrent use;
// the bubbletea update loop (and the tests) call it from one goroutine.
type Controller struct {
	now   func() time.Time
	gen   uint64
	sched *scheduler
}

// NewController builds an unbound controller. now may be nil, in which case
// commits are stamped with time.Now.
func NewController(now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{now: now}
}

// Bind discards any previous session and starts a new one for script.
// Rebinding — even to the same call — always restarts from the seed; the
// old session's pending tick dies on the generation check. The bool result
// reports whether a delay was armed (false for static or empty scripts).
func (c *Controller) Bind(script Script) (State, Next, bool) {
	c.gen++
	c.sched = newScheduler(script, c.now)
	delay, ok := c.sched.start()
	return c.snapshot(), Next{Delay: delay, Gen: c.gen}, ok
}

// Tick advances the session the given generation belongs to. Stale or
// unbound ticks return the current state untouched with no delay armed.
func (c *Controller) Tick(gen uint64) (State, Next, bool) {
	if c.sched == nil || gen != c.gen {
		return c.snapshot(), Next{}, false
	}
	delay, ok := c.sched.step()
	return c.snapshot(), Next{Delay: delay, Gen: c.gen}, ok
}

// Unbind drops the current session. Safe to call repeatedly or when nothing
// is bound.
func (c *Controller) Unbind() {
	c.gen++
	c.sched = nil
}

// State returns the current projection.
func (c *Controller) State() State {
	return c.snapshot()
}

// Generation identifies the current binding; ticks tagged with an older
// value are ignored.
func (c *Controller) Generation() uint64 {
	return c.gen
}

// snapshot copies the displayed slice so consumers never alias the
// scheduler's backing array across a loop reset.
func (c *Controller) snapshot() State {
	if c.sched == nil {
		return State{}
	}
	st := c.sched.state
	st.Displayed = append([]Message(nil), st.Displayed...)
	return st
}
