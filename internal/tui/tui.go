// Package tui provides a Bubble Tea terminal user interface for feed-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/feed-downloader/internal/app"
	"github.com/handiism/feed-downloader/internal/config"
	"github.com/handiism/feed-downloader/internal/download"
	"github.com/handiism/feed-downloader/internal/model"
	"github.com/sirupsen/logrus"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	feedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const maxLogLines = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateRunning
	StateStopping
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   app.Level
}

// Message types
type (
	// EventMsg carries a runner event.
	EventMsg struct {
		Event app.Event
	}

	// ProgressMsg is sent after every finished item.
	ProgressMsg struct {
		Progress download.Progress
	}

	// RunDoneMsg is sent when the run returns.
	RunDoneMsg struct {
		Result *app.Result
		Err    error
	}

	// TickMsg is for periodic byte counter updates.
	TickMsg struct{}
)

// byteMeter sums the bytes currently on disk for every item of a run.
type byteMeter struct {
	mu      sync.Mutex
	perItem map[model.ItemKey]int64
	total   int64
}

func (b *byteMeter) update(item model.MediaItem, written int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.perItem == nil {
		b.perItem = make(map[model.ItemKey]int64)
	}
	key := item.Key()
	b.total += written - b.perItem[key]
	b.perItem[key] = written
}

func (b *byteMeter) load() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// session is the state of one run shared between the model copies Bubble Tea
// passes around and the runner goroutine.
type session struct {
	runner   *app.Runner
	ctx      context.Context
	cancel   context.CancelFunc
	messages chan tea.Msg
	bytes    byteMeter
}

func (s *session) send(msg tea.Msg) {
	select {
	case s.messages <- msg:
	case <-s.ctx.Done():
	}
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	log       logrus.FieldLogger
	logs      []LogEntry
	err       error

	session  *session
	last     download.Progress
	received int64
	result   *app.Result

	// Options
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. settings is copied; option keys change
// only the copy.
func NewModel(settings *config.Settings, log logrus.FieldLogger) Model {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/podcast.xml"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	s := *settings
	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  &s,
		log:       log,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.session != nil {
				m.session.cancel()
			}
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateRunning:
				m.session.runner.Stop()
				m.state = StateStopping
			}
			return m, nil

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateRunning
				cmds = append(cmds, m.startRun(), m.listen(), m.tickProgress(), m.spinner.Tick)
				return m, tea.Batch(cmds...)
			}

		case "up":
			if m.state == StateInput {
				m.settings.Download.MaxParallel++
				return m, nil
			}

		case "down":
			if m.state == StateInput {
				if m.settings.Download.MaxParallel > 1 {
					m.settings.Download.MaxParallel--
				}
				return m, nil
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.settings.Playlist.Create = !m.settings.Playlist.Create
				return m, nil
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EventMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, m.listen())

	case ProgressMsg:
		m.last = msg.Progress
		cmds = append(cmds, m.progress.SetPercent(msg.Progress.Fraction), m.listen())

	case RunDoneMsg:
		m.result = msg.Result
		m.drain()
		m.received = m.session.bytes.load()
		m.session.cancel()
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.session != nil && (m.state == StateRunning || m.state == StateStopping) {
			m.received = m.session.bytes.load()
			cmds = append(cmds, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) addLog(e app.Event) {
	if e.Level == app.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

// drain applies messages the runner queued before it returned.
func (m *Model) drain() {
	for {
		select {
		case msg := <-m.session.messages:
			switch msg := msg.(type) {
			case EventMsg:
				m.addLog(msg.Event)
			case ProgressMsg:
				m.last = msg.Progress
			}
		default:
			return
		}
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.result = nil
	m.session = nil
	m.received = 0
	m.last = download.Progress{}
	m.progress.SetPercent(0)
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// startRun creates the runner and downloads the feed in the background.
func (m *Model) startRun() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		runner:   app.NewRunner(m.settings, m.log),
		ctx:      ctx,
		cancel:   cancel,
		messages: make(chan tea.Msg, 64),
	}
	m.session = s

	s.runner.OnEvent(func(e app.Event) { s.send(EventMsg{Event: e}) })
	s.runner.OnProgress(func(p download.Progress) { s.send(ProgressMsg{Progress: p}) })
	s.runner.OnBytes(func(item model.MediaItem, written, _ int64) { s.bytes.update(item, written) })

	url := strings.TrimSpace(m.textInput.Value())
	return func() tea.Msg {
		defer s.runner.Close()
		result, err := s.runner.Run(ctx, url)
		return RunDoneMsg{Result: result, Err: err}
	}
}

// listen waits for the next runner message.
func (m Model) listen() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-s.messages:
			return msg
		case <-s.ctx.Done():
			return nil
		}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Feed Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download media from RSS feeds and listings"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateRunning, StateStopping:
		b.WriteString(m.viewRunning())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter feed URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Parallel downloads: %d (up/down)\n", m.settings.Download.MaxParallel))
	b.WriteString(fmt.Sprintf("  %s Create playlist (ctrl+p)\n", checkbox(m.settings.Playlist.Create)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.Download.OutputRoot)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewRunning() string {
	var b strings.Builder

	if m.state == StateStopping {
		b.WriteString(warningStyle.Render("Stopping, waiting for in-flight downloads..."))
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Downloading..."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.progress.View())
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Failed: %d | Downloaded: %.2f MB",
		m.last.Succeeded,
		m.last.Total,
		m.last.Failed,
		float64(m.received)/1024/1024,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	title, downloaded, failed, skipped := "", 0, 0, 0
	if m.result != nil {
		if m.result.Feed != nil {
			title = m.result.Feed.Title
		}
		if r := m.result.Report; r != nil {
			downloaded, failed, skipped = r.Succeeded, r.Failed, r.Skipped+r.Aborted
		}
	}

	box := boxStyle.Render(fmt.Sprintf(
		"Download Complete!\n\n"+
			"Feed: %s\n"+
			"Downloaded: %d\n"+
			"Failed: %d\n"+
			"Not started: %d\n"+
			"Size: %.2f MB",
		feedStyle.Render(title),
		downloaded,
		failed,
		skipped,
		float64(m.received)/1024/1024,
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case app.LevelError:
			style = errorStyle
			prefix = "✗"
		case app.LevelWarning:
			style = warningStyle
			prefix = "!"
		case app.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case app.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • up/down: parallel • ctrl+p: playlist • ctrl+v: verbose • esc: quit"
	case StateRunning:
		return "esc: stop after current downloads • ctrl+c: abort"
	case StateStopping:
		return "ctrl+c: abort"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// Run starts the TUI application.
func Run(settings *config.Settings, log logrus.FieldLogger) error {
	p := tea.NewProgram(NewModel(settings, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
