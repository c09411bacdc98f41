package playback

import (
	"fmt"
	"time"
)

// Phase is the scheduler's position in the reveal cycle.
type Phase int

const (
	// PhaseIdle means nothing is scheduled: static script, empty script, or
	// unbound session.
	PhaseIdle Phase = iota
	// PhasePrePause waits the role-dependent silence before typing starts.
	PhasePrePause
	// PhaseTyping reveals the current message one rune per tick.
	PhaseTyping
	// PhaseCooldown waits after the continuation is exhausted, then the
	// cycle resets to the seed.
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePrePause:
		return "pre-pause"
	case PhaseTyping:
		return "typing"
	case PhaseCooldown:
		return "cooldown"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the projection consumers render from. Displayed grows by one
// message per commit and snaps back to the seed on a loop reset.
type State struct {
	Displayed    []Message
	Cursor       int
	TypingBuffer string
	TypingRole   Role
	IsTyping     bool
	Phase        Phase
}

// scheduler drives one script through the reveal cycle. It owns no timers:
// every step reports the delay until the next step and the caller decides
// how to wait. Steps never fail; out-of-range cursors clamp back to idle.
type scheduler struct {
	script  Script
	state   State
	tw      *Typewriter
	now     func() time.Time
	loop    int
	commits int
}

func newScheduler(script Script, now func() time.Time) *scheduler {
	return &scheduler{script: script, now: now}
}

// start populates the initial state and, for live scripts, arms the first
// pre-pause. The returned delay is zero (and ok false) when there is
// nothing to play.
func (s *scheduler) start() (time.Duration, bool) {
	if s.script.Kind == KindStatic {
		s.state = State{Displayed: append([]Message(nil), s.script.History...)}
		return 0, false
	}
	s.state = State{Displayed: append([]Message(nil), s.script.Seed...)}
	if len(s.script.Continuation) == 0 {
		return 0, false
	}
	return s.enterPrePause()
}

// step advances past one suspension point. The bool result reports whether
// another delay is armed; for a healthy live script it always is.
func (s *scheduler) step() (time.Duration, bool) {
	switch s.state.Phase {
	case PhasePrePause:
		return s.enterTyping()
	case PhaseTyping:
		return s.typeTick()
	case PhaseCooldown:
		return s.resetToSeed()
	default:
		return 0, false
	}
}

func (s *scheduler) current() (Message, bool) {
	if s.state.Cursor < 0 || s.state.Cursor >= len(s.script.Continuation) {
		return Message{}, false
	}
	return s.script.Continuation[s.state.Cursor], true
}

func (s *scheduler) enterPrePause() (time.Duration, bool) {
	cur, ok := s.current()
	if !ok {
		s.state.Phase = PhaseIdle
		return 0, false
	}
	s.state.Phase = PhasePrePause
	s.state.IsTyping = false
	s.state.TypingBuffer = ""
	return PrePause(cur.Role), true
}

func (s *scheduler) enterTyping() (time.Duration, bool) {
	cur, ok := s.current()
	if !ok {
		s.state.Phase = PhaseIdle
		return 0, false
	}
	s.tw = NewTypewriter(cur.Content)
	s.state.Phase = PhaseTyping
	s.state.IsTyping = true
	s.state.TypingRole = cur.Role
	s.state.TypingBuffer = ""
	return TickInterval(cur.Role), true
}

func (s *scheduler) typeTick() (time.Duration, bool) {
	cur, ok := s.current()
	if !ok || s.tw == nil {
		s.state.Phase = PhaseIdle
		s.state.IsTyping = false
		s.state.TypingBuffer = ""
		return 0, false
	}
	prefix, done := s.tw.Advance()
	if !done {
		s.state.TypingBuffer = prefix
		return TickInterval(cur.Role), true
	}
	return s.commit(cur)
}

// commit finalizes the fully typed message: fresh id so replayed loops never
// collide in render keys, timestamp stamped exactly once, cursor advanced.
func (s *scheduler) commit(cur Message) (time.Duration, bool) {
	s.commits++
	committed := Message{
		ID:        fmt.Sprintf("%s#%d.%d", cur.ID, s.loop, s.commits),
		Role:      cur.Role,
		Content:   cur.Content,
		Timestamp: s.now(),
	}
	s.state.Displayed = append(s.state.Displayed, committed)
	s.state.Cursor++
	s.state.IsTyping = false
	s.state.TypingBuffer = ""
	s.tw = nil

	if s.state.Cursor >= len(s.script.Continuation) {
		s.state.Phase = PhaseCooldown
		return loopCooldown, true
	}
	return s.enterPrePause()
}

// resetToSeed truncates the transcript back to the seed and restarts the
// cycle at the first continuation message.
func (s *scheduler) resetToSeed() (time.Duration, bool) {
	s.loop++
	s.state.Displayed = append([]Message(nil), s.script.Seed...)
	s.state.Cursor = 0
	return s.enterPrePause()
}
