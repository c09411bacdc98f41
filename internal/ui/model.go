package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"call-trace/internal/calls"
	"call-trace/internal/clipboard"
	"call-trace/internal/config"
	"call-trace/internal/export"
	"call-trace/internal/playback"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

type Model struct {
	cfg      config.AppConfig
	store    *calls.Store
	exporter *export.Exporter
	ctrl     *playback.Controller

	list     list.Model
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model
	search   textinput.Model
	keys     keyMap

	width  int
	height int

	loading     bool
	searchMode  bool
	searchQuery string
	focusOnList bool
	rendering   bool
	renderNonce int

	selectedID  string
	callsByID   map[string]calls.Call
	transcripts map[string][]calls.Message
	rendered    map[string]string

	playState playback.State
	playing   bool

	matchLines []int
	matchCount int
	matchIndex int

	status string
	err    error
}

type loadDoneMsg struct{ err error }
type callsMsg struct {
	calls []calls.Call
	err   error
}
type transcriptMsg struct {
	call calls.Call
	msgs []calls.Message
	err  error
}
type renderMsg struct {
	callID   string
	cacheKey string
	rendered string
	nonce    int
	err      error
}
type exportMsg struct {
	path string
	err  error
}
type copyMsg struct {
	err error
}

// playbackTickMsg carries the session generation the timer was armed under.
// Update ignores it when the controller has moved on to a newer binding.
type playbackTickMsg struct {
	gen uint64
}

type callItem struct {
	c calls.Call
}

func (i callItem) Title() string {
	return statusGlyph(i.c.Status) + " " + i.c.Caller
}

func (i callItem) Description() string {
	meta := fmt.Sprintf("%s | %s", i.c.Number, calls.FormatUnix(i.c.StartedTS))
	if i.c.Status == calls.StatusInProgress {
		meta += " | live"
	} else if i.c.DurationSecs > 0 {
		meta += " | " + calls.FormatDuration(i.c.DurationSecs)
	}
	if i.c.Preview == "" {
		return meta
	}
	return meta + " | " + i.c.Preview
}

func (i callItem) FilterValue() string {
	return strings.ToLower(i.c.Caller + " " + i.c.Number + " " + i.c.Preview)
}

func statusGlyph(status string) string {
	switch status {
	case calls.StatusInProgress:
		return liveGlyphStyle.Render("●")
	case calls.StatusMissed:
		return missedGlyphStyle.Render("✗")
	default:
		return completedGlyphStyle.Render("✓")
	}
}

func NewModel(cfg config.AppConfig, store *calls.Store, exp *export.Exporter) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 40, 20)
	l.Title = "Calls"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)
	vp.SetContent("Loading call history...")

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	ti := textinput.New()
	ti.Placeholder = "Search caller, number, or transcript..."
	ti.Prompt = "/ "
	ti.CharLimit = 256

	return Model{
		cfg:      cfg,
		store:    store,
		exporter: exp,
		ctrl:     playback.NewController(nil),
		list:     l,
		viewport: vp,
		help:     h,
		spinner:  sp,
		search:   ti,
		keys:     defaultKeys(),

		loading:     true,
		focusOnList: true,
		callsByID:   make(map[string]calls.Call),
		transcripts: make(map[string][]calls.Message),
		rendered:    make(map[string]string),
		matchIndex:  -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		if m.cfg.Demo {
			if err := m.store.SeedDemo(context.Background(), time.Now()); err != nil {
				return loadDoneMsg{err: err}
			}
		}
		return loadDoneMsg{}
	}
}

func (m Model) callsCmd(query string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.store.ListCalls(query, 500)
		return callsMsg{calls: out, err: err}
	}
}

func (m Model) transcriptCmd(callID string) tea.Cmd {
	if callID == "" {
		return nil
	}
	return func() tea.Msg {
		c, err := m.store.GetCall(callID)
		if err != nil {
			return transcriptMsg{err: err}
		}
		msgs, err := m.store.GetMessages(callID)
		if err != nil {
			return transcriptMsg{err: err}
		}
		return transcriptMsg{call: c, msgs: msgs}
	}
}

func (m Model) exportCmd(callID string) tea.Cmd {
	call, ok := m.callsByID[callID]
	if !ok {
		return nil
	}
	msgs := m.transcripts[callID]
	return func() tea.Msg {
		path, err := m.exporter.Export(call, msgs)
		return exportMsg{path: path, err: err}
	}
}

func (m Model) copyCmd(callID string) tea.Cmd {
	call, ok := m.callsByID[callID]
	if !ok {
		return nil
	}
	msgs := m.transcripts[callID]
	return func() tea.Msg {
		snippet := buildCallSnippet(call, msgs)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := clipboard.Copy(ctx, snippet); err != nil {
			return copyMsg{err: err}
		}
		return copyMsg{}
	}
}

func playbackTickCmd(next playback.Next) tea.Cmd {
	return tea.Tick(next.Delay, func(time.Time) tea.Msg {
		return playbackTickMsg{gen: next.Gen}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		cmds = append(cmds, m.renderSelected(true))

	case loadDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.status = "Load failed: " + msg.err.Error()
		} else {
			cmds = append(cmds, m.callsCmd(m.searchQuery))
		}

	case callsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Call query failed"
			break
		}
		m.applyCalls(msg.calls)
		if m.selectedID != "" {
			cmds = append(cmds, m.transcriptCmd(m.selectedID))
		}

	case transcriptMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Transcript load failed"
			break
		}
		m.callsByID[msg.call.ID] = msg.call
		m.transcripts[msg.call.ID] = msg.msgs
		if m.selectedID == msg.call.ID {
			cmds = append(cmds, m.bindPlayback(msg.call, msg.msgs)...)
		}

	case playbackTickMsg:
		// Ticks from a previous binding die here; the controller would
		// ignore them anyway, but skipping early avoids a pointless render.
		if msg.gen != m.ctrl.Generation() {
			break
		}
		st, next, ok := m.ctrl.Tick(msg.gen)
		m.playState = st
		m.playing = ok
		if ok {
			cmds = append(cmds, playbackTickCmd(next))
		}
		m.setViewportLive(false)

	case renderMsg:
		if msg.nonce != m.renderNonce {
			break
		}
		m.rendering = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Render failed: " + msg.err.Error()
			break
		}
		m.rendered[msg.cacheKey] = msg.rendered
		if m.selectedID == msg.callID {
			m.setViewportStatic(msg.rendered, true)
		}

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, clipboard.ErrToolNotFound) {
				m.status = "Could not copy: clipboard tool not found"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Copied call summary to clipboard"
		}

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg, cmds)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.ctrl.Unbind()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Search):
			m.searchMode = true
			m.search.SetValue(m.searchQuery)
			m.search.CursorEnd()
			m.search.Focus()
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.focusOnList = !m.focusOnList
			return m, nil
		case key.Matches(msg, m.keys.FocusLeft):
			m.focusOnList = true
			return m, nil
		case key.Matches(msg, m.keys.FocusRight):
			m.focusOnList = false
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			if !m.focusOnList {
				m.viewport.HalfViewUp()
			}
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			if !m.focusOnList {
				m.viewport.HalfViewDown()
			}
			return m, nil
		case key.Matches(msg, m.keys.PrevMatch):
			if !m.focusOnList {
				m.jumpToMatch(-1)
			}
			return m, nil
		case key.Matches(msg, m.keys.NextMatch):
			if !m.focusOnList {
				m.jumpToMatch(1)
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			cmds = append(cmds, m.callsCmd(m.searchQuery))
			return m, tea.Batch(cmds...)
		case key.Matches(msg, m.keys.Export):
			if m.selectedID != "" {
				cmds = append(cmds, m.exportCmd(m.selectedID))
			}
			return m, tea.Batch(cmds...)
		case key.Matches(msg, m.keys.Copy):
			if m.selectedID != "" {
				cmds = append(cmds, m.copyCmd(m.selectedID))
			}
			return m, tea.Batch(cmds...)
		}

		if m.focusOnList {
			prev := m.selectedID
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			cmds = append(cmds, cmd)
			m.selectedID = m.currentSelectedID()
			if m.selectedID != prev {
				// Kill the outgoing call's playback before anything async
				// for the new selection is in flight.
				m.ctrl.Unbind()
				m.playing = false
				m.playState = playback.State{}
				cmds = append(cmds, m.transcriptCmd(m.selectedID))
				cmds = append(cmds, m.renderSelected(false))
			}
		} else {
			switch msg.String() {
			case "up", "k":
				m.viewport.LineUp(1)
			case "down", "j":
				m.viewport.LineDown(1)
			}
		}
	}

	if m.loading {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateSearch(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchQuery = ""
		m.search.SetValue("")
		m.search.Blur()
		cmds = append(cmds, m.callsCmd(""))
		return m, tea.Batch(cmds...)
	case "enter":
		m.searchMode = false
		m.search.Blur()
		m.searchQuery = strings.TrimSpace(m.search.Value())
		cmds = append(cmds, m.callsCmd(m.searchQuery))
		return m, tea.Batch(cmds...)
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	cmds = append(cmds, cmd)
	after := strings.TrimSpace(m.search.Value())
	if after != strings.TrimSpace(before) {
		m.searchQuery = after
		cmds = append(cmds, m.callsCmd(after))
	}
	return m, tea.Batch(cmds...)
}

// bindPlayback routes a freshly loaded transcript either into the playback
// engine (in-progress call) or the static glamour pipeline.
func (m *Model) bindPlayback(call calls.Call, msgs []calls.Message) []tea.Cmd {
	if call.Status != calls.StatusInProgress {
		m.ctrl.Unbind()
		m.playing = false
		m.playState = playback.State{}
		if cmd := m.renderSelected(false); cmd != nil {
			return []tea.Cmd{cmd}
		}
		return nil
	}

	script := playback.BuildScript(call.ID, call.Status, toPlaybackMessages(msgs))
	st, next, ok := m.ctrl.Bind(script)
	m.playState = st
	m.playing = ok
	m.setViewportLive(true)
	if ok {
		return []tea.Cmd{playbackTickCmd(next)}
	}
	return nil
}

func toPlaybackMessages(msgs []calls.Message) []playback.Message {
	out := make([]playback.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, playback.Message{
			ID:        fmt.Sprintf("%s-%d", msg.CallID, msg.ID),
			Role:      playback.Role(msg.Role),
			Content:   msg.Content,
			Timestamp: time.Unix(msg.TS, 0),
		})
	}
	return out
}

func (m *Model) applyCalls(in []calls.Call) {
	items := make([]list.Item, 0, len(in))
	m.callsByID = make(map[string]calls.Call, len(in))
	for _, c := range in {
		m.callsByID[c.ID] = c
		items = append(items, callItem{c: c})
	}
	m.list.SetItems(items)

	if len(in) == 0 {
		m.selectedID = ""
		m.ctrl.Unbind()
		m.playing = false
		m.playState = playback.State{}
		if strings.TrimSpace(m.searchQuery) == "" {
			m.viewport.SetContent("No calls recorded.\n\nTip: run with -demo to load the sample dataset.")
		} else {
			m.viewport.SetContent("No calls matched your search.")
		}
		return
	}

	selectIdx := 0
	for idx, c := range in {
		if c.ID == m.selectedID {
			selectIdx = idx
			break
		}
	}
	m.list.Select(selectIdx)
	m.selectedID = in[selectIdx].ID
}

func (m *Model) currentSelectedID() string {
	item, ok := m.list.SelectedItem().(callItem)
	if !ok {
		return ""
	}
	return item.c.ID
}

// renderSelected refreshes the transcript pane for the current selection.
// Live calls are painted synchronously from the playback state; terminal
// calls render through glamour off the update loop, nonce-guarded.
func (m *Model) renderSelected(force bool) tea.Cmd {
	if m.selectedID == "" {
		m.viewport.SetContent("No call selected")
		m.clearMatches()
		return nil
	}

	call, haveCall := m.callsByID[m.selectedID]
	msgs, haveMsgs := m.transcripts[m.selectedID]
	if !haveCall || !haveMsgs {
		m.viewport.SetContent("Loading transcript...")
		m.clearMatches()
		return nil
	}

	if call.Status == calls.StatusInProgress {
		m.setViewportLive(force)
		return nil
	}

	cacheKey := m.renderCacheKey(m.selectedID)
	if !force {
		if rendered, ok := m.rendered[cacheKey]; ok {
			m.setViewportStatic(rendered, false)
			return nil
		}
	}
	m.rendering = true
	m.renderNonce++
	m.viewport.SetContent("Rendering transcript...")
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}
	return renderTranscriptCmd(m.selectedID, cacheKey, msgs, wrap, m.renderNonce)
}

func renderTranscriptCmd(callID, cacheKey string, msgs []calls.Message, wrap, nonce int) tea.Cmd {
	return func() tea.Msg {
		md := export.BuildTranscriptMarkdown(msgs)
		if strings.TrimSpace(md) == "" {
			md = "_No transcript recorded for this call._"
		}

		rendered := md
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(config.DefaultGlamourStyle),
			glamour.WithWordWrap(wrap),
		)
		if err == nil {
			if out, renderErr := r.Render(md); renderErr == nil {
				rendered = out
			}
		}
		return renderMsg{
			callID:   callID,
			cacheKey: cacheKey,
			rendered: rendered,
			nonce:    nonce,
		}
	}
}

func (m Model) renderCacheKey(callID string) string {
	return fmt.Sprintf("%s|w=%d", callID, m.viewport.Width)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 2
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	m.list.SetSize(left-2, bodyHeight-2)
	m.viewport.Width = right - 2
	m.viewport.Height = bodyHeight - 2
}

func (m *Model) paneWidths() (int, int) {
	left := m.width / 3
	if left < 32 {
		left = 32
	}
	if left > m.width-32 {
		left = m.width - 32
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

func buildCallSnippet(call calls.Call, msgs []calls.Message) string {
	var b strings.Builder
	b.WriteString("### Call record\n\n")
	b.WriteString("- Call: `" + strings.TrimSpace(call.ID) + "`\n")
	b.WriteString("- Caller: " + call.Caller + " (" + call.Number + ")\n")
	b.WriteString("- Status: " + call.Status + ", started " + calls.FormatUnix(call.StartedTS) + "\n")
	if note := firstCustomerLine(msgs); note != "" {
		b.WriteString("- Topic: " + note + "\n")
	}
	return b.String()
}

func firstCustomerLine(msgs []calls.Message) string {
	for _, msg := range msgs {
		if msg.Role != "customer" {
			continue
		}
		note := strings.Join(strings.Fields(msg.Content), " ")
		if note != "" {
			return shorten(note, 120)
		}
	}
	return ""
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
