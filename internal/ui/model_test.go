package ui

import (
	"strings"
	"testing"
	"time"

	"call-trace/internal/calls"
	"call-trace/internal/playback"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func testModel() Model {
	return Model{
		ctrl:        playback.NewController(func() time.Time { return time.Unix(1760000000, 0) }),
		list:        list.New([]list.Item{}, list.NewDefaultDelegate(), 40, 20),
		keys:        defaultKeys(),
		callsByID:   make(map[string]calls.Call),
		transcripts: make(map[string][]calls.Message),
		rendered:    make(map[string]string),
		matchIndex:  -1,
	}
}

func TestApplyCalls_SelectsFirstAndKeepsSelection(t *testing.T) {
	m := testModel()
	in := []calls.Call{
		{ID: "c1", Caller: "Ada", StartedTS: 30},
		{ID: "c2", Caller: "Bea", StartedTS: 20},
	}
	m.applyCalls(in)
	if m.selectedID != "c1" {
		t.Fatalf("expected first call selected, got %q", m.selectedID)
	}

	m.selectedID = "c2"
	m.applyCalls(in)
	if m.selectedID != "c2" || m.list.Index() != 1 {
		t.Fatalf("existing selection lost: id=%q idx=%d", m.selectedID, m.list.Index())
	}
}

func TestApplyCalls_EmptyUnbindsPlayback(t *testing.T) {
	m := testModel()
	script := playback.BuildScript("c1", playback.StatusInProgress, nil)
	_, next, ok := m.ctrl.Bind(script)
	if !ok {
		t.Fatalf("bind should arm")
	}
	m.playing = true

	m.applyCalls(nil)
	if m.playing {
		t.Fatalf("empty call list should stop playback")
	}
	if _, _, ok := m.ctrl.Tick(next.Gen); ok {
		t.Fatalf("old binding should be dead after applyCalls(nil)")
	}
}

func TestTranscriptMsg_InProgressCallStartsPlayback(t *testing.T) {
	m := testModel()
	call := calls.Call{ID: "c1", Caller: "Ada", Status: calls.StatusInProgress}
	msgs := []calls.Message{{ID: 1, CallID: "c1", Role: "customer", Content: "hello", TS: 100}}
	m.selectedID = "c1"

	updated, cmd := m.Update(transcriptMsg{call: call, msgs: msgs})
	got := updated.(Model)
	if !got.playing {
		t.Fatalf("in-progress call should start playback")
	}
	if cmd == nil {
		t.Fatalf("expected a playback tick command")
	}
	if len(got.playState.Displayed) != 1 || got.playState.Displayed[0].Content != "hello" {
		t.Fatalf("seed not displayed: %+v", got.playState.Displayed)
	}
}

func TestTranscriptMsg_CompletedCallStaysStatic(t *testing.T) {
	m := testModel()
	call := calls.Call{ID: "c1", Caller: "Ada", Status: calls.StatusCompleted}
	msgs := []calls.Message{{ID: 1, CallID: "c1", Role: "customer", Content: "hello"}}
	m.selectedID = "c1"

	updated, _ := m.Update(transcriptMsg{call: call, msgs: msgs})
	got := updated.(Model)
	if got.playing {
		t.Fatalf("completed call must not animate")
	}
	if got.playState.IsTyping {
		t.Fatalf("no typing for static transcript")
	}
}

func TestPlaybackTick_StaleGenerationIgnored(t *testing.T) {
	m := testModel()
	script := playback.BuildScript("c1", playback.StatusInProgress, nil)
	_, nextOld, _ := m.ctrl.Bind(script)

	// A new binding supersedes the old one; the old timer then fires late.
	m.ctrl.Bind(playback.BuildScript("c2", playback.StatusInProgress, nil))
	before := m.ctrl.State()

	updated, cmd := m.Update(playbackTickMsg{gen: nextOld.Gen})
	got := updated.(Model)
	if cmd != nil {
		t.Fatalf("stale tick must not schedule anything")
	}
	after := got.ctrl.State()
	if after.Phase != before.Phase || after.Cursor != before.Cursor {
		t.Fatalf("stale tick mutated playback state")
	}
}

func TestPlaybackTick_CurrentGenerationAdvances(t *testing.T) {
	m := testModel()
	script := playback.BuildScript("c1", playback.StatusInProgress, nil)
	_, next, ok := m.ctrl.Bind(script)
	if !ok {
		t.Fatalf("bind should arm")
	}
	m.playing = true

	updated, cmd := m.Update(playbackTickMsg{gen: next.Gen})
	got := updated.(Model)
	if cmd == nil {
		t.Fatalf("live tick should re-arm the timer")
	}
	if got.playState.Phase != playback.PhaseTyping {
		t.Fatalf("first tick should enter typing, got %v", got.playState.Phase)
	}
}

func TestSelectionChange_KillsOldPlayback(t *testing.T) {
	m := testModel()
	in := []calls.Call{
		{ID: "c1", Caller: "Ada", Status: calls.StatusInProgress, StartedTS: 30},
		{ID: "c2", Caller: "Bea", Status: calls.StatusCompleted, StartedTS: 20},
	}
	m.applyCalls(in)
	m.focusOnList = true

	script := playback.BuildScript("c1", playback.StatusInProgress, nil)
	_, next, _ := m.ctrl.Bind(script)
	m.playing = true

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	got := updated.(Model)
	if got.selectedID != "c2" {
		t.Fatalf("selection did not move: %q", got.selectedID)
	}
	if got.playing {
		t.Fatalf("playback must stop when another call is selected")
	}
	if _, _, ok := got.ctrl.Tick(next.Gen); ok {
		t.Fatalf("old binding still alive after selection change")
	}
}

func TestRenderLiveTranscript(t *testing.T) {
	st := playback.State{
		Displayed: []playback.Message{
			{ID: "m1", Role: playback.RoleAssistant, Content: "How can I help?", Timestamp: time.Unix(1760000000, 0)},
		},
		IsTyping:     true,
		TypingRole:   playback.RoleCustomer,
		TypingBuffer: "I was wonder",
	}
	out := renderLiveTranscript(st, 60)
	if !strings.Contains(out, "How can I help?") {
		t.Fatalf("committed message missing:\n%s", out)
	}
	if !strings.Contains(out, "I was wonder"+typingCursor) {
		t.Fatalf("typing buffer with cursor missing:\n%s", out)
	}
	custIdx := strings.Index(out, "I was wonder")
	agentIdx := strings.Index(out, "How can I help?")
	if agentIdx > custIdx {
		t.Fatalf("typing buffer should render after committed turns")
	}
}

func TestRenderLiveTranscript_EmptyState(t *testing.T) {
	out := renderLiveTranscript(playback.State{}, 60)
	if !strings.Contains(out, "Waiting for the conversation") {
		t.Fatalf("unexpected empty-state output: %q", out)
	}
}

func TestBuildCallSnippet(t *testing.T) {
	call := calls.Call{ID: "c1", Caller: "Ada", Number: "+1 555 0100", Status: calls.StatusCompleted, StartedTS: 1700000000}
	msgs := []calls.Message{
		{Role: "assistant", Content: "hello"},
		{Role: "customer", Content: "my   card was\ncharged twice"},
	}
	out := buildCallSnippet(call, msgs)
	if !strings.Contains(out, "`c1`") {
		t.Fatalf("missing call id:\n%s", out)
	}
	if !strings.Contains(out, "Topic: my card was charged twice") {
		t.Fatalf("topic should be the first customer line, normalized:\n%s", out)
	}
}
