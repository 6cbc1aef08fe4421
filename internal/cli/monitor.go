package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Color palette for the monitor, matching the web interface.
var (
	lockedColor   = lipgloss.Color("#2D6CDF")
	unlockedColor = lipgloss.Color("#D9822B")
	openColor     = lipgloss.Color("#C0392B")
	closedColor   = lipgloss.Color("#27AE60")
	mutedColor    = lipgloss.Color("#626262")
	textColor     = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Bold(true)

	badgeBase = lipgloss.NewStyle().
			Foreground(textColor).
			Bold(true).
			Padding(0, 2)

	unknownBadgeStyle = badgeBase.Foreground(mutedColor)

	noticeStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

func lockBadge(s string) string {
	switch s {
	case "locked":
		return badgeBase.Background(lockedColor).Render("LOCKED")
	case "unlocked":
		return badgeBase.Background(unlockedColor).Render("UNLOCKED")
	default:
		return unknownBadgeStyle.Render("LOCK ?")
	}
}

func doorBadge(s string) string {
	switch s {
	case "open":
		return badgeBase.Background(openColor).Render("OPEN")
	case "closed":
		return badgeBase.Background(closedColor).Render("CLOSED")
	default:
		return unknownBadgeStyle.Render("DOOR ?")
	}
}

type eventMsg struct {
	ev  Event
	err error
}

// monitorModel is the live view: two state badges, the device's config
// summary, and the latest notice.
type monitorModel struct {
	client *Client
	url    string

	spinner spinner.Model
	events  chan eventMsg

	lock   string
	door   string
	device string
	notice string
	err    error
}

func newMonitorModel(client *Client, url string) monitorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lockedColor)

	return monitorModel{
		client:  client,
		url:     url,
		spinner: sp,
		events:  make(chan eventMsg, 8),
	}
}

func (m monitorModel) readEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m monitorModel) Init() tea.Cmd {
	go func() {
		for {
			ev, err := m.client.Next()
			m.events <- eventMsg{ev: ev, err: err}
			if err != nil {
				return
			}
		}
	}()
	return tea.Batch(m.spinner.Tick, m.readEvents())
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "l":
			m.client.Lock()
			return m, nil
		case "u":
			m.client.Unlock()
			return m, nil
		}
		return m, nil

	case eventMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		switch msg.ev.Kind {
		case EventLock:
			m.lock = msg.ev.Lock.String()
		case EventDoor:
			m.door = msg.ev.Door.String()
		case EventConfig:
			m.device = msg.ev.Config.DeviceName
		case EventNotice:
			m.notice = msg.ev.Notice
		}
		return m, m.readEvents()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	name := m.device
	if name == "" {
		name = m.url
	}
	b.WriteString(titleStyle.Render("doorctl monitor") + "  " + helpStyle.Render(name))
	b.WriteString("\n\n")

	if m.lock == "" && m.door == "" {
		b.WriteString("  " + m.spinner.View() + " waiting for device state\n")
	} else {
		b.WriteString("  " + lockBadge(m.lock) + "  " + doorBadge(m.door) + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n  " + noticeStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  l lock · u unlock · q quit") + "\n")
	return b.String()
}

// Monitor connects to a device and runs the interactive state view
// until the user quits or the connection drops.
func Monitor(ctx context.Context, url string) error {
	client, err := Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	program := tea.NewProgram(newMonitorModel(client, url))
	model, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := model.(monitorModel); ok && m.err != nil {
		return fmt.Errorf("cli: connection lost: %w", m.err)
	}
	return nil
}
