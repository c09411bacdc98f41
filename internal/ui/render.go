package ui

import (
	"fmt"
	"strings"

	"call-trace/internal/calls"
	"call-trace/internal/highlight"
	"call-trace/internal/playback"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const typingCursor = "▌"

// renderLiveTranscript paints the playback projection as chat turns. It runs
// on every typing tick, so it stays plain lipgloss — no glamour pass.
func renderLiveTranscript(st playback.State, width int) string {
	if width < 20 {
		width = 20
	}
	bodyStyle := lipgloss.NewStyle().Width(width).PaddingLeft(2)

	var b strings.Builder
	for _, msg := range st.Displayed {
		b.WriteString(roleLabel(msg.Role))
		if !msg.Timestamp.IsZero() {
			b.WriteString(timeStyle.Render("  " + msg.Timestamp.Local().Format("15:04:05")))
		}
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(msg.Content))
		b.WriteString("\n\n")
	}
	if st.IsTyping {
		b.WriteString(roleLabel(st.TypingRole))
		b.WriteString(timeStyle.Render("  typing"))
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(st.TypingBuffer + typingCursor))
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "Waiting for the conversation to start..."
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func roleLabel(role playback.Role) string {
	if role == playback.RoleAssistant {
		return assistantLabelStyle.Render("Agent")
	}
	return customerLabelStyle.Render("Customer")
}

func (m *Model) setViewportLive(gotoBottom bool) {
	m.clearMatches()
	wrap := m.viewport.Width - 2
	m.viewport.SetContent(renderLiveTranscript(m.playState, wrap))
	if gotoBottom || m.playState.IsTyping {
		m.viewport.GotoBottom()
	}
}

func (m *Model) setViewportStatic(rendered string, gotoTop bool) {
	content := rendered
	query := strings.TrimSpace(m.searchQuery)
	if query != "" {
		res := highlight.Apply(rendered, query, func(s string) string {
			return searchMatchStyle.Render(s)
		})
		content = res.Text
		m.setMatchMeta(res)
	} else {
		m.clearMatches()
	}

	m.viewport.SetContent(content)
	if gotoTop {
		m.viewport.GotoTop()
		if len(m.matchLines) > 0 {
			m.matchIndex = 0
			m.viewport.SetYOffset(m.clampViewportOffset(m.matchLines[0]))
		}
	}
}

func (m *Model) setMatchMeta(res highlight.Result) {
	if res.Count == 0 || len(res.LineIndex) == 0 {
		m.clearMatches()
		return
	}
	m.matchCount = res.Count
	m.matchLines = append(m.matchLines[:0], res.LineIndex...)
	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	}
}

func (m *Model) clearMatches() {
	m.matchLines = nil
	m.matchCount = 0
	m.matchIndex = -1
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchLines) == 0 {
		m.status = "No search matches in transcript"
		return
	}

	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	} else if delta > 0 {
		m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
	} else if delta < 0 {
		m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
	}

	line := m.matchLines[m.matchIndex]
	m.viewport.SetYOffset(m.clampViewportOffset(line))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, m.matchCount)
}

func (m *Model) clampViewportOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	status := m.statusLine()
	left, right := m.paneWidths()
	leftPane := panelStyle(m.focusOnList).Width(left).Height(m.height - 2).Render(m.list.View())
	rightPane := panelStyle(!m.focusOnList).Width(right).Height(m.height - 2).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	helpView := m.help.View(m.keys)
	if m.searchMode {
		helpView = m.search.View() + "  " + helpView
	} else if m.searchQuery != "" {
		helpView = "search: " + m.searchQuery + "  " + helpView
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		body,
		helpView,
	)
}

func (m Model) statusLine() string {
	status := ""
	if m.loading {
		status = m.spinner.View() + " loading..."
	}
	if m.selectedID != "" {
		c := m.callsByID[m.selectedID]
		status = fmt.Sprintf(
			"call=%s  %s  %s  started=%s",
			shorten(c.ID, 18),
			shorten(c.Caller, 24),
			c.Status,
			calls.FormatUnix(c.StartedTS),
		)
	}
	if m.playing {
		status += "  [live replay]"
	}
	if m.searchQuery != "" || m.searchMode {
		status += "  [search]"
		if strings.TrimSpace(m.searchQuery) != "" && m.matchCount > 0 {
			cur := m.matchIndex + 1
			if cur < 1 {
				cur = 1
			}
			status += fmt.Sprintf("  [match %d/%d]", cur, m.matchCount)
		}
	}
	if m.rendering {
		status += "  [rendering]"
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(strings.TrimSpace(m.status), 80)
	}
	if m.err != nil {
		status += "  err=" + m.err.Error()
	}
	if m.width > 4 {
		status = ansi.Truncate(status, m.width-2, "...")
	}
	return statusStyle.Render(status)
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	searchMatchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("220"))
	customerLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))
	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	liveGlyphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40"))
	missedGlyphStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("160"))
	completedGlyphStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	FocusLeft  key.Binding
	FocusRight key.Binding
	Tab        key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	PrevMatch  key.Binding
	NextMatch  key.Binding
	Search     key.Binding
	Esc        key.Binding
	Refresh    key.Binding
	Export     key.Binding
	Copy       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		FocusLeft: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "focus calls"),
		),
		FocusRight: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "focus transcript"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle focus"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn", "page down"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev match"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear search"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export markdown"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy summary"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Tab, k.Search, k.Export, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.FocusLeft, k.FocusRight, k.Tab},
		{k.PageDown, k.PageUp, k.NextMatch, k.PrevMatch, k.Search, k.Esc},
		{k.Refresh, k.Export, k.Copy, k.Quit},
	}
}
