package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/nowplaying/cmd/monitor"
	"github.com/gigurra/nowplaying/cmd/statusline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	playingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")) // Green
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))           // Yellow
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))           // Gray
	sinceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type stateChangedMsg monitor.StateChange

type sourceNotRunningMsg struct{}

type configReloadedMsg struct{}

type tuiModel struct {
	renderer *statusline.Renderer
	change   monitor.StateChange
	since    time.Time
	width    int
}

func newTUIModel(renderer *statusline.Renderer) tuiModel {
	return tuiModel{renderer: renderer, since: time.Now()}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case stateChangedMsg:
		m.change = monitor.StateChange(msg)
		m.since = time.Now()
	case sourceNotRunningMsg:
		m.change = monitor.StateChange{}
		m.since = time.Now()
	case configReloadedMsg:
		// The renderer already holds the new settings; re-rendering is enough.
	}
	return m, nil
}

func (m tuiModel) View() string {
	label := m.renderer.Label(m.change)
	if m.width > 0 {
		label = statusline.TruncateWithEllipsis(label, m.width-2)
	}

	style := idleStyle
	status := "nothing playing"
	if m.change.HasTrack() {
		if m.change.Playing {
			style, status = playingStyle, "playing"
		} else {
			style, status = pausedStyle, "paused"
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Now Playing"))
	b.WriteString("\n\n  ")
	b.WriteString(style.Render(label))
	b.WriteString("\n\n  ")
	b.WriteString(sinceStyle.Render(fmt.Sprintf("%s since %s", status, m.since.Format("15:04:05"))))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

// teaSink forwards monitor events to a running program.
type teaSink struct {
	p *tea.Program
}

func (s teaSink) StateChanged(change monitor.StateChange) {
	s.p.Send(stateChangedMsg(change))
}

func (s teaSink) SourceNotRunning() {
	s.p.Send(sourceNotRunningMsg{})
}

func (r *runner) runTUI(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newTUIModel(r.renderer), tea.WithAltScreen())

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		r.supervise(ctx, teaSink{p: p})
	}()
	go func() {
		defer wg.Done()
		r.watchConfig(ctx, configPath, func() { p.Send(configReloadedMsg{}) })
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	cancel()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
