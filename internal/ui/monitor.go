package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusFetcher reads the relay's health once.
type StatusFetcher func(ctx context.Context) (RelayStatus, error)

type statusMsg struct {
	status RelayStatus
	err    error
}

type pollMsg time.Time

// Monitor is a live view that polls a relay until the user quits.
type Monitor struct {
	fetch    StatusFetcher
	interval time.Duration
	spinner  spinner.Model

	last     RelayStatus
	err      error
	polls    int
	quitting bool
}

// NewMonitor creates a monitor polling every interval.
func NewMonitor(fetch StatusFetcher, interval time.Duration) *Monitor {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &Monitor{
		fetch:    fetch,
		interval: interval,
		spinner:  s,
	}
}

// RunMonitor drives a Monitor inline until q, ctrl+c, or ctx ends.
func RunMonitor(ctx context.Context, fetch StatusFetcher, interval time.Duration) error {
	// Inline mode keeps previous terminal output visible
	p := tea.NewProgram(NewMonitor(fetch, interval), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m *Monitor) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.interval)
		defer cancel()
		st, err := m.fetch(ctx)
		return statusMsg{status: st, err: err}
	}
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.polls++
		m.err = msg.err
		if msg.err == nil {
			m.last = msg.status
		}
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return pollMsg(t)
		})

	case pollMsg:
		return m, m.poll()
	}
	return m, nil
}

func (m *Monitor) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s Watching relay every %s (q to quit)\n\n", m.spinner.View(), m.interval)

	switch {
	case m.polls == 0:
		b.WriteString(MutedStyle.Render("Waiting for first response..."))
	case m.last.URL == "":
		b.WriteString(FormatError(m.err))
	default:
		b.WriteString(RelayStatusView(m.last))
		if m.err != nil {
			b.WriteString("\n" + WarningStyle.Render(fmt.Sprintf("%s last poll failed: %v", IconWarning, m.err)))
		}
	}
	b.WriteString("\n")
	return b.String()
}
