package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type entryKind int

const (
	entryUser entryKind = iota
	entryBot
	entrySilence
	entryRejected
	entryError
)

type logEntry struct {
	kind       entryKind
	author     string
	content    string
	confidence int
}

type stepDoneMsg struct {
	result StepResult
	err    error
}

type model struct {
	ctx    context.Context
	stepFn StepFunc
	info   RoomInfo

	theme     theme
	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	entries   []logEntry
	width     int
	height    int
	isReady   bool
	isLoading bool
	followLog bool
	turns     int
	replies   int
}

func newModel(ctx context.Context, stepFn StepFunc, info RoomInfo) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Say something to the room..."
	in.Focus()
	in.CharLimit = 0

	vp := viewport.New(80, 12)

	return &model{
		ctx:       ctx,
		stepFn:    stepFn,
		info:      info,
		theme:     defaultTheme(),
		spinner:   spin,
		input:     in,
		viewport:  vp,
		width:     100,
		height:    28,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case tea.MouseMsg:
		if m.handleViewportMouse(typed) {
			return m, nil
		}
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

		if m.handleViewportKey(typed) {
			return m, nil
		}

		if typed.String() == "enter" {
			if m.isLoading {
				return m, nil
			}

			message := strings.TrimSpace(m.input.Value())
			if message == "" {
				return m, nil
			}
			if isExitCommand(message) {
				return m, tea.Quit
			}

			m.entries = append(m.entries, logEntry{kind: entryUser, author: "You", content: message})
			m.input.SetValue("")
			m.isLoading = true
			m.followLog = true
			m.turns++
			m.refreshViewport(true)
			return m, tea.Batch(m.spinner.Tick, runStepCmd(m.ctx, m.stepFn, message))
		}
	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case stepDoneMsg:
		m.isLoading = false
		m.entries = append(m.entries, entryFromStep(typed))
		if typed.err == nil && typed.result.Decision.ShouldReply {
			m.replies++
		}
		m.refreshViewport(false)
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func entryFromStep(msg stepDoneMsg) logEntry {
	if msg.err != nil {
		return logEntry{kind: entryError, content: msg.err.Error()}
	}

	result := msg.result
	if !result.Gate.IsValid {
		return logEntry{
			kind:       entryRejected,
			content:    fmt.Sprintf("message rejected (%s)", result.Gate.Category),
			confidence: result.Gate.Confidence,
		}
	}
	if !result.Decision.ShouldReply {
		reason := strings.TrimSpace(result.Decision.Reasoning)
		if reason == "" {
			reason = "nobody felt addressed"
		}
		return logEntry{
			kind:       entrySilence,
			content:    reason,
			confidence: result.Decision.Confidence,
		}
	}

	author := result.Decision.ResponderName
	if author == "" {
		author = result.Decision.ResponderActorID
	}
	return logEntry{
		kind:       entryBot,
		author:     author,
		content:    result.Reply,
		confidence: result.Decision.Confidence,
	}
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}

	header := m.theme.header.Width(m.width - 2).Render("💬 Chorus Room Playground")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"room:%s · vendor:%s · model:%s · bots:%s · turns:%d · replies:%d",
		displayOrNA(m.info.RoomID),
		displayOrNA(m.info.Vendor),
		displayOrNA(m.info.Model),
		displayOrNA(strings.Join(m.info.Bots, ",")),
		m.turns,
		m.replies,
	))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("─", maxInt(8, m.width-2)))

	status := m.theme.status.Render("Enter send · PgUp/PgDn scroll · End jump latest · Ctrl+C/Esc quit")
	if m.isLoading {
		status = m.theme.statusBusy.Render(m.spinner.View() + " deciding who answers...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		status,
		m.theme.inputLabel.Render("You")+" "+m.theme.hint.Render("(type /exit or quit to leave)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

func (m *model) resizeComponents() {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	h := m.height - 10
	if h < 8 {
		h = 8
	}

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset
	var sections []string
	for _, entry := range m.entries {
		sections = append(sections, m.renderEntry(entry))
	}

	m.viewport.SetContent(strings.Join(sections, "\n\n"))
	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	m.viewport.SetYOffset(previousOffset)
}

func (m *model) renderEntry(entry logEntry) string {
	body := strings.TrimSpace(entry.content)

	switch entry.kind {
	case entryUser:
		return m.renderCard(
			m.theme.userTitle.Render("[ You ]"),
			m.theme.userBox.Width(m.viewport.Width).Render(body),
		)
	case entryBot:
		title := fmt.Sprintf("[ 🤖 %s · %d%% ]", entry.author, entry.confidence)
		return m.renderCard(
			m.theme.botTitle.Render(title),
			m.theme.botBox.Width(m.viewport.Width).Render(body),
		)
	case entrySilence:
		note := fmt.Sprintf("room stays quiet · %s (%d%%)", body, entry.confidence)
		return m.theme.silence.Width(m.viewport.Width).Render(note)
	case entryRejected:
		note := fmt.Sprintf("%s (%d%%)", body, entry.confidence)
		return m.theme.rejected.Width(m.viewport.Width).Render(note)
	default:
		return m.renderCard(
			m.theme.errorTitle.Render("[ ERROR ]"),
			m.theme.errorBox.Width(m.viewport.Width).Render(body),
		)
	}
}

func (m *model) renderCard(title string, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func runStepCmd(ctx context.Context, stepFn StepFunc, message string) tea.Cmd {
	return func() tea.Msg {
		result, err := stepFn(ctx, message)
		return stepDoneMsg{result: result, err: err}
	}
}

func displayOrNA(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "n/a"
	}

	return trimmed
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "/exit", "quit", ":q":
		return true
	default:
		return false
	}
}

func maxInt(a int, b int) int {
	if a > b {
		return a
	}

	return b
}
