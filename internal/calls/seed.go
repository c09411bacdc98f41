package calls

import (
	"context"
	"fmt"
	"time"
)

type demoTurn struct {
	role    string
	content string
}

type demoCall struct {
	id       string
	caller   string
	number   string
	status   string
	age      time.Duration
	duration int64
	turns    []demoTurn
}

var demoCalls = []demoCall{
	{
		id: "call-1042", caller: "Maya Okafor", number: "+1 415 555 0142",
		status: StatusInProgress, age: 2 * time.Minute,
		turns: []demoTurn{
			{"customer", "Hi, I'm calling about order 88231 — it was supposed to arrive yesterday."},
			{"assistant", "Let me pull that up. I can see order 88231 left the warehouse Tuesday and is out for delivery today."},
			{"customer", "Okay, that's a relief. The tracking page hadn't updated in two days."},
			{"assistant", "The carrier's scans were delayed over the weekend; the package itself is on schedule."},
		},
	},
	{
		id: "call-1041", caller: "Dan Whitfield", number: "+1 312 555 0108",
		status: StatusCompleted, age: 3 * time.Hour, duration: 412,
		turns: []demoTurn{
			{"customer", "I'd like to cancel my subscription before the next billing date."},
			{"assistant", "I can help with that. Your next charge is on the 14th — I've cancelled the renewal, and you'll keep access until then."},
			{"customer", "Will I get a confirmation email?"},
			{"assistant", "Yes, it should arrive within a few minutes. Anything else I can do?"},
			{"customer", "No, that's all. Thanks."},
		},
	},
	{
		id: "call-1040", caller: "Priya Raman", number: "+44 20 7946 0011",
		status: StatusCompleted, age: 26 * time.Hour, duration: 238,
		turns: []demoTurn{
			{"customer", "My invoice shows two charges for March."},
			{"assistant", "You're right, I see a duplicate from a retried payment. I've refunded the second charge — it takes 3 to 5 business days to appear."},
			{"customer", "Great, thank you for sorting it so quickly."},
		},
	},
	{
		id: "call-1039", caller: "Unknown", number: "+1 646 555 0199",
		status: StatusMissed, age: 30 * time.Hour,
	},
	{
		id: "call-1038", caller: "Jonas Meier", number: "+49 30 901820",
		status: StatusCompleted, age: 49 * time.Hour, duration: 655,
		turns: []demoTurn{
			{"customer", "The replacement unit you sent has the same fault — it powers off under load."},
			{"assistant", "I'm sorry about that. Two failures in a row points at the power adapter rather than the unit; I'll ship you a new adapter today."},
			{"customer", "And if that doesn't fix it?"},
			{"assistant", "Then we'll refund the order in full, no return needed. I've noted that on your account."},
			{"customer", "Alright, let's try the adapter first."},
			{"assistant", "It'll go out with express shipping — you should have it Thursday."},
		},
	},
}

// SeedDemo loads the bundled demo dataset. Inserts are idempotent, so
// running with -demo repeatedly just refreshes the same calls. Timestamps
// are rewritten relative to now so the in-progress call always looks live.
func (s *Store) SeedDemo(ctx context.Context, now time.Time) error {
	for _, dc := range demoCalls {
		started := now.Add(-dc.age)
		call := Call{
			ID:           dc.id,
			Caller:       dc.caller,
			Number:       dc.number,
			Status:       dc.status,
			StartedTS:    started.Unix(),
			DurationSecs: dc.duration,
		}
		msgs := make([]Message, 0, len(dc.turns))
		for i, turn := range dc.turns {
			msgs = append(msgs, Message{
				Role:    turn.role,
				Content: turn.content,
				TS:      started.Add(time.Duration(i) * 25 * time.Second).Unix(),
			})
		}
		if err := s.InsertCall(ctx, call, msgs); err != nil {
			return fmt.Errorf("seed %s: %w", dc.id, err)
		}
	}
	return nil
}
