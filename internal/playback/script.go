package playback

import "time"

// Role identifies which side of the call produced a message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
)

// Call statuses understood by Classify. Anything unknown is treated as
// terminal and yields a static script.
const (
	StatusCompleted  = "completed"
	StatusMissed     = "missed"
	StatusInProgress = "in_progress"
)

// Message is one conversational turn. Content and Role are fixed at
// construction; Timestamp stays zero until the message is committed into a
// displayed transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

type Kind int

const (
	// KindStatic scripts are fully revealed on bind and never animate.
	KindStatic Kind = iota
	// KindLive scripts replay a fixed continuation after the seed, looping.
	KindLive
)

// Script is the immutable input to a playback session.
//
// For a static script History carries the whole transcript. For a live
// script Seed carries at most the last historical message (absent when the
// call has no transcript yet) and Continuation the fixed demo turns that
// loop after it.
type Script struct {
	CallID       string
	Kind         Kind
	History      []Message
	Seed         []Message
	Continuation []Message
}

// demoContinuation is the fixed in-progress script. It is replayed verbatim
// on every loop; committed copies get fresh ids so loops never collide.
var demoContinuation = []Message{
	{ID: "live-1", Role: RoleCustomer, Content: "Sorry, one more thing — can I still change the delivery address on that order?"},
	{ID: "live-2", Role: RoleAssistant, Content: "Of course. The order hasn't shipped yet, so I can update the address right now. What should it be?"},
	{ID: "live-3", Role: RoleCustomer, Content: "It's 14 Harcourt Road, apartment 3B. Same city."},
	{ID: "live-4", Role: RoleAssistant, Content: "Got it — 14 Harcourt Road, apt 3B. I've updated the order and you'll get a confirmation text in a minute. Anything else?"},
}

// Classify maps a call status onto a script kind.
func Classify(status string) Kind {
	if status == StatusInProgress {
		return KindLive
	}
	return KindStatic
}

// BuildScript classifies a call and assembles the script the engine will
// play. It is pure: no clocks, no side effects. An in-progress call with an
// empty history produces a live script without a seed.
func BuildScript(callID, status string, history []Message) Script {
	s := Script{CallID: callID, Kind: Classify(status)}
	if s.Kind == KindStatic {
		s.History = append([]Message(nil), history...)
		return s
	}
	if n := len(history); n > 0 {
		s.Seed = []Message{history[n-1]}
	}
	s.Continuation = demoContinuation
	return s
}
