package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ventoctl/internal/controller"
)

// Snapshot is one poll of a fan, ready to display.
type Snapshot struct {
	Details []Detail
	// Gauge is the fan speed as a fraction 0-1; negative hides the bar.
	Gauge      float64
	GaugeLabel string
}

// Poller reads the device once. It is called from a tea.Cmd goroutine.
type Poller func(ctx context.Context) (*Snapshot, error)

type pollResultMsg struct {
	snap *Snapshot
	err  error
	at   time.Time
}

type pollTickMsg time.Time

type watchKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Refresh, k.Quit} }

func (k watchKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// WatchModel polls a fan on an interval and shows its latest state. The
// last good state stays on screen while the device is silent.
type WatchModel struct {
	ctx      context.Context
	poll     Poller
	interval time.Duration
	header   *Header

	spinner spinner.Model
	gauge   progress.Model
	help    help.Model
	keys    watchKeyMap

	last    *Snapshot
	lastAt  time.Time
	err     error
	misses  int
	polls   int
	polling bool
}

// NewWatchModel creates a watch screen. ctx bounds every poll.
func NewWatchModel(ctx context.Context, header *Header, interval time.Duration, poll Poller) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		ctx:      ctx,
		poll:     poll,
		interval: interval,
		header:   header,
		spinner:  s,
		gauge:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys: watchKeyMap{
			Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		polling: true,
	}
}

// Init starts the first poll.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pollCmd())
}

func (m WatchModel) pollCmd() tea.Cmd {
	ctx, poll := m.ctx, m.poll
	return func() tea.Msg {
		snap, err := poll(ctx)
		return pollResultMsg{snap: snap, err: err, at: time.Now()}
	}
}

func (m WatchModel) scheduleNext() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return pollTickMsg(t) })
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if !m.polling {
				m.polling = true
				return m, m.pollCmd()
			}
		}

	case tea.WindowSizeMsg:
		m.header.SetWidth(clampWidth(msg.Width))

	case pollResultMsg:
		m.polling = false
		m.polls++
		if msg.err != nil {
			m.err = msg.err
			m.misses++
		} else {
			m.err = nil
			m.misses = 0
			m.last = msg.snap
			m.lastAt = msg.at
		}
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		return m, m.scheduleNext()

	case pollTickMsg:
		if !m.polling {
			m.polling = true
			return m, m.pollCmd()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(m.header.Render())
	b.WriteString("\n\n")

	if m.last != nil {
		for _, line := range renderDetails(m.last.Details, "  ") {
			b.WriteString(line)
			b.WriteString("\n")
		}
		if m.last.Gauge >= 0 {
			b.WriteString("\n  ")
			b.WriteString(m.gauge.ViewAs(m.last.Gauge))
			if m.last.GaugeLabel != "" {
				b.WriteString("  ")
				b.WriteString(m.last.GaugeLabel)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("  ")
	b.WriteString(m.status())
	b.WriteString("\n\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m WatchModel) status() string {
	switch {
	case m.err != nil && controller.IsNoResponse(m.err):
		msg := fmt.Sprintf("%s  No response (%d missed)", WarningMarker, m.misses)
		if m.last != nil {
			msg += fmt.Sprintf(", showing state from %s", m.lastAt.Format("15:04:05"))
		}
		return WarningTitleStyle.Render(msg)
	case m.err != nil:
		return ErrorTitleStyle.Render(FailureMarker + "  " + controller.GetShortErrorMessage(m.err))
	case m.polling:
		return m.spinner.View() + StatusNoteStyle.Render(" polling...")
	case m.last != nil:
		return StatusNoteStyle.Render(fmt.Sprintf("%s  updated %s, every %s",
			SuccessMarker, m.lastAt.Format("15:04:05"), m.interval))
	default:
		return ""
	}
}

// Misses returns the number of consecutive failed polls.
func (m WatchModel) Misses() int { return m.misses }

// RunWatch runs the watch screen until the user quits or ctx ends.
func RunWatch(ctx context.Context, header *Header, interval time.Duration, poll Poller) error {
	p := tea.NewProgram(NewWatchModel(ctx, header, interval, poll), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
