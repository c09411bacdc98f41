package playback

import "time"

// Pacing policy. Fixed on purpose: scenario tests pin these values and the
// reveal rhythm is part of the product, not a knob.
const (
	assistantCharTick = 30 * time.Millisecond
	customerCharTick  = 55 * time.Millisecond

	assistantPrePause = 900 * time.Millisecond
	customerPrePause  = 1400 * time.Millisecond

	loopCooldown = 5 * time.Second
)

// TickInterval is the per-character reveal cadence for a role. The assistant
// types faster than the customer.
func TickInterval(role Role) time.Duration {
	if role == RoleAssistant {
		return assistantCharTick
	}
	return customerCharTick
}

// PrePause is the silence inserted before a role starts typing.
func PrePause(role Role) time.Duration {
	if role == RoleAssistant {
		return assistantPrePause
	}
	return customerPrePause
}

// Prefix returns the first ticks runes of content. Negative tick counts
// yield the empty string; counts past the end yield content unchanged.
// Prefixes advance by rune so multi-byte content never splits mid-character.
func Prefix(content string, ticks int) string {
	if ticks <= 0 {
		return ""
	}
	r := []rune(content)
	if ticks >= len(r) {
		return content
	}
	return string(r[:ticks])
}

// Typewriter reveals one message's content a rune at a time. One instance is
// created per message and never reused; a restart means a new Typewriter.
type Typewriter struct {
	content string
	length  int
	ticks   int
}

func NewTypewriter(content string) *Typewriter {
	return &Typewriter{content: content, length: len([]rune(content))}
}

// Advance consumes one tick and returns the revealed prefix plus whether the
// full content has been reached. Once done it keeps returning the full
// content; it never wraps or restarts.
func (t *Typewriter) Advance() (string, bool) {
	if t.ticks < t.length {
		t.ticks++
	}
	return Prefix(t.content, t.ticks), t.ticks >= t.length
}
