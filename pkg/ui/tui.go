package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "trends", "scanner", "notifiers"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys KeyMap
	help help.Model

	opportunities *components.OpportunitiesComponent
	detail        *components.DetailComponent
	summary       *components.SummaryComponent
	status        *components.StatusComponent

	phase        Phase
	welcomeStart time.Time

	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []ErrorEntry
	logs       []string

	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time

	snapshot     *domain.Snapshot
	pending      *domain.Snapshot
	lastScanTime time.Time
	activityFeed []string
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		keys:          DefaultKeyMap(),
		help:          help.New(),
		opportunities: components.NewOpportunitiesComponent(12),
		detail:        components.NewDetailComponent(),
		summary:       components.NewSummaryComponent(),
		status:        components.NewStatusComponent(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		logs:          make([]string, 0, 5),
		errors:        make([]ErrorEntry, 0, 3),
		activityFeed:  make([]string, 0, 6),
		startupSteps: map[string]*StartupStep{
			"config":    {Name: "Loading configuration", Status: "pending"},
			"trends":    {Name: "Connecting trend sources", Status: "pending"},
			"scanner":   {Name: "Starting scanner", Status: "pending"},
			"notifiers": {Name: "Starting notifiers", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd drives the animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// Any other key skips the welcome screen.
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
			m.detail.Set(nil)
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if !m.paused && m.pending != nil {
				m.applySnapshot(m.pending)
				m.pending = nil
			}
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
			m.syncDetail()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
			m.syncDetail()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		return m, tickCmd()

	case ScanMsg:
		if msg.Snapshot == nil {
			return m, nil
		}
		snap := msg.Snapshot
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Scan #%d: %d of %d passed",
			snap.Scan, len(snap.Opportunities), snap.Evaluated))
		for _, src := range snap.Sources {
			m.status.Update(components.ConnectionStatus{Name: src.Name, Connected: src.Connected, LastUpdate: snap.ScannedAt})
		}
		m.lastScanTime = time.Now()
		m.lastUpdate = m.lastScanTime
		m.startupComplete = true
		if m.paused {
			m.pending = snap
			return m, nil
		}
		m.applySnapshot(snap)

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error == nil {
			return m, nil
		}
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.summary.IncErrors()
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Message != "" {
			m.logs = addLog(m.logs, "info", msg.Message)
		}
		allDone := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				allDone = false
				break
			}
		}
		if allDone {
			m.startupComplete = true
		}
	}

	return m, nil
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Called directly since Send must not be used from within Update.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

func (m *Model) applySnapshot(snap *domain.Snapshot) {
	m.snapshot = snap
	m.opportunities.Set(Rows(snap))
	m.summary.Update(StatsFor(snap))
	m.syncDetail()
}

func (m *Model) syncDetail() {
	if m.snapshot == nil || m.opportunities.Len() == 0 {
		m.detail.Set(nil)
		return
	}
	i := m.opportunities.Cursor()
	if i >= len(m.snapshot.Opportunities) {
		m.detail.Set(nil)
		return
	}
	m.detail.Set(DetailFor(&m.snapshot.Opportunities[i]))
}

// addLog adds a log message and keeps the last 5.
func addLog(logs []string, level, message string) []string {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message)
	logs = append(logs, line)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity adds an activity message and keeps the last 6.
func addActivity(feed []string, message string) []string {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Product Scout "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	width := m.width
	if width <= 0 {
		width = 120
	}

	leftCol := m.opportunities.View() + "\n\n" + m.renderActivityFeed()
	rightCol := m.detail.View()

	if width > 140 {
		left := BoxStyle.Width(width*3/5 - 2).Render(leftCol)
		right := BoxStyle.Width(width*2/5 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width - 4).Render(rightCol))
	}
	b.WriteString("\n")
	b.WriteString(BoxStyle.Width(width - 4).Render(m.summary.View()))
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorStyle.Bold(true).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(WarningStyle.Bold(true).Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 && len(m.logs) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for the first scan..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		sb.WriteString(MutedValue.Render("  " + activity))
		sb.WriteString("\n")
	}
	for _, line := range m.logs {
		style := MutedValue
		if strings.Contains(line, "] error:") {
			style = ErrorStyle
		}
		sb.WriteString(style.Render("  " + line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ███████╗ ██████╗ ██████╗ ██╗   ██╗████████╗
   ██╔════╝██╔════╝██╔═══██╗██║   ██║╚══██╔══╝
   ███████╗██║     ██║   ██║██║   ██║   ██║
   ╚════██║██║     ██║   ██║██║   ██║   ██║
   ███████║╚██████╗╚██████╔╝╚██████╔╝   ██║
   ╚══════╝ ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("          P R O D U C T   S C O U T"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("     Trending products worth reselling"))
	sb.WriteString("\n\n\n")
	sb.WriteString(SuccessStyle.Render(fmt.Sprintf("             Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("       Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStartupScreen() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Product Scout"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style
		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", SuccessStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			icon = spinners[int(time.Since(m.startupTime).Milliseconds()/200)%len(spinners)]
			statusText, style = "Connecting...", WarningStyle
		case "failed":
			icon, statusText, style = "✗", "Failed", ErrorStyle
		default:
			icon, statusText, style = "○", "Pending", MutedValue
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n", style.Render(icon), MutedValue.Render(step.Name), style.Render(statusText)))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("  Waiting for the first scan..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastScanTime) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, SuccessStyle.Bold(true).Render(spinners[idx]+" Scanning"))
	}

	if m.snapshot != nil {
		parts = append(parts, fmt.Sprintf("Scan: #%d", m.snapshot.Scan))
	}
	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
