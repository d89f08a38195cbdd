// Package tui provides a Bubble Tea terminal user interface for mixdl.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/mixdl/internal/audio"
	"github.com/handiism/mixdl/internal/catalog"
	"github.com/handiism/mixdl/internal/config"
	"github.com/handiism/mixdl/internal/download"
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

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

var playlistFormats = []audio.PlaylistFormat{audio.FormatM3U, audio.FormatPLS, audio.FormatWPL, audio.FormatZPL}

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc
	events chan download.Event

	// Download progress
	header   string
	current  string
	percent  int
	number   int
	done     int
	skipped  int
	waiting  bool
	session  *download.Session
	playlist int

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model using settings as the base configuration.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "https://8tracks.com/someone/mix-name"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	playlist := 0
	if format, err := audio.ParsePlaylistFormat(settings.PlaylistFormat); err == nil {
		playlist = int(format)
	}

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		playlist:  playlist,
		verbose:   settings.Debug,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// EventMsg carries one pipeline event.
	EventMsg struct {
		Event download.Event
	}

	// EventsClosedMsg is sent once the pipeline stops emitting events.
	EventsClosedMsg struct{}

	// DownloadDoneMsg is sent when the pipeline returns.
	DownloadDoneMsg struct {
		Session *download.Session
		Err     error
	}
)

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
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				return m.startDownload()
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.playlist = (m.playlist + 1) % len(playlistFormats)
			}

		case "ctrl+o":
			if m.state == StateInput {
				m.settings.SaveCoverArtInFolder = !m.settings.SaveCoverArtInFolder
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.settings.ModifyTags = !m.settings.ModifyTags
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				return m.reset(), nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EventMsg:
		cmds = append(cmds, m.handleEvent(msg.Event), waitForEvent(m.events))

	case EventsClosedMsg:
		m.events = nil

	case DownloadDoneMsg:
		m.session = msg.Session
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
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

// handleEvent folds a pipeline event into the model.
func (m *Model) handleEvent(event download.Event) tea.Cmd {
	var cmd tea.Cmd

	switch event.Kind {
	case download.EventSessionStart:
		m.header = event.Message
	case download.EventTrackStart:
		m.waiting = false
		m.percent = 0
		if event.Track != nil {
			m.number = event.Track.Number
			m.current = event.Track.Artist + " - " + event.Track.Title
		}
		cmd = m.progress.SetPercent(0)
	case download.EventTrackProgress:
		m.percent = event.Percent
		return m.progress.SetPercent(float64(event.Percent) / 100)
	case download.EventTrackDone:
		m.done++
	case download.EventSkip:
		m.skipped++
	case download.EventCooldown:
		m.waiting = true
	}

	if event.Level == download.LevelVerbose && !m.verbose {
		return cmd
	}
	m.log(event.Message, event.Level)
	return cmd
}

func (m *Model) log(message string, level download.ProgressLevel) {
	m.logs = append(m.logs, LogEntry{Message: message, Level: level})
	// Keep only last 10 logs
	if len(m.logs) > 10 {
		m.logs = m.logs[len(m.logs)-10:]
	}
}

func (m Model) reset() Model {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.events = nil
	m.header = ""
	m.current = ""
	m.percent = 0
	m.number = 0
	m.done = 0
	m.skipped = 0
	m.waiting = false
	m.session = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// startDownload builds the catalog and pipeline and runs them in the
// background. Events reach the model through m.events.
func (m Model) startDownload() (tea.Model, tea.Cmd) {
	m.settings.PlaylistFormat = playlistFormats[m.playlist].String()

	cat, err := catalog.NewFromSettings(m.settings, nil)
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	events := make(chan download.Event, 64)
	pipeline, err := download.NewPipeline(m.settings, cat, func(event download.Event) {
		events <- event
	})
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	m.state = StateDownloading
	m.events = events

	ctx := m.ctx
	locator := m.textInput.Value()
	root := m.settings.DownloadsPath
	run := func() tea.Msg {
		defer close(events)
		session, err := pipeline.Run(ctx, locator, root)
		return DownloadDoneMsg{Session: session, Err: err}
	}

	return m, tea.Batch(run, waitForEvent(events), m.spinner.Tick)
}

// waitForEvent reads the next event off ch.
func waitForEvent(ch <-chan download.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: event}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎵 mixdl"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download a mix with tags, cover art and a playlist"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
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

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter mix URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Save cover art (ctrl+o)\n", checkbox(m.settings.SaveCoverArtInFolder)))
	b.WriteString(fmt.Sprintf("  %s Write MP3 tags (ctrl+t)\n", checkbox(m.settings.ModifyTags)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString(fmt.Sprintf("  Playlist format: %s (ctrl+p)\n", playlistFormats[m.playlist]))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.header == "" {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Fetching mix info..."))
		b.WriteString("\n\n")
		b.WriteString(m.renderLogs())
		return b.String()
	}

	b.WriteString(successStyle.Render(m.header))
	b.WriteString("\n\n")

	if m.current != "" {
		b.WriteString(trackStyle.Render(fmt.Sprintf("  ♪ %d. %s", m.number, m.current)))
		b.WriteString("\n")
	}
	b.WriteString(m.progress.View())
	b.WriteString("\n")

	status := fmt.Sprintf("Tracks: %d saved | %d skipped", m.done, m.skipped)
	if m.waiting {
		status += " | " + m.spinner.View() + " rate limited, waiting"
	}
	b.WriteString(infoStyle.Render(status))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	summary := fmt.Sprintf("✨ Download Complete!\n\nTracks: %d\nSkipped: %d", m.done, m.skipped)
	if m.session != nil {
		summary += fmt.Sprintf("\nFolder: %s\nPlaylist: %s", m.session.Dir, m.session.PlaylistPath)
	}
	b.WriteString(boxStyle.Render(summary))

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	if m.session != nil && len(m.session.Files) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d tracks kept in %s", len(m.session.Files), m.session.Dir)))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
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
		return "enter: start • ctrl+o: cover • ctrl+t: tags • ctrl+p: playlist • ctrl+v: verbose • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
