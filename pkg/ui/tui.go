// Package ui provides the Bubble Tea chat TUI for Gas Genie.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	assistantdomain "github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/pkg/ui/components"
)

// Assistant streams answers to queries.
type Assistant interface {
	Assist(ctx context.Context, query, queryID string) <-chan assistantdomain.Fragment
}

// GasProvider refreshes the gas panel. It is optional.
type GasProvider interface {
	FetchAndRecommend(ctx context.Context) (*gasdomain.Recommendation, error)
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome Phase = "welcome" // Initial welcome screen
	PhaseChat    Phase = "chat"    // Conversation view
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const (
	maxTurns        = 50
	gasFetchTimeout = 15 * time.Second
)

// Config describes the backends the TUI talks to.
type Config struct {
	Mode       string // "local" or "remote"
	Endpoint   string // remote WebSocket URL, empty when local
	GasSource  string
	GasRefresh time.Duration // 0 disables periodic refresh
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	config    Config
	assistant Assistant
	gas       GasProvider

	// Components
	transcript *components.TranscriptComponent
	gasPanel   *components.GasComponent
	status     *components.StatusComponent
	stats      *components.StatsComponent

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready    bool
	quitting bool
	width    int
	height   int

	// Stream state
	streaming   bool
	cancel      context.CancelFunc
	streamStart time.Time
	gotFirst    bool
}

// New creates a new TUI model. gas may be nil.
func New(cfg Config, assistant Assistant, gas GasProvider) Model {
	input := textinput.New()
	input.Placeholder = "What's the gas price right now?"
	input.Prompt = "› "
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	status := components.NewStatusComponent()
	assistantDetail := cfg.Mode
	if cfg.Endpoint != "" {
		assistantDetail = cfg.Endpoint
	}
	status.Update(components.ConnectionStatus{Name: "Assistant", Connected: true, Detail: assistantDetail})
	if gas != nil {
		status.Update(components.ConnectionStatus{Name: "Gas", Connected: false, Detail: cfg.GasSource})
	}

	gasSource := cfg.GasSource
	if gasSource == "" {
		gasSource = "n/a"
	}

	return Model{
		config:       cfg,
		assistant:    assistant,
		gas:          gas,
		transcript:   components.NewTranscriptComponent(maxTurns),
		gasPanel:     components.NewGasComponent(gasSource),
		status:       status,
		stats:        components.NewStatsComponent(),
		input:        input,
		viewport:     viewport.New(80, 20),
		spinner:      sp,
		help:         help.New(),
		keys:         DefaultKeyMap(),
		phase:        PhaseWelcome,
		welcomeStart: time.Now(),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), textinput.Blink}
	if m.gas != nil {
		cmds = append(cmds, fetchGasCmd(m.gas))
	}
	return tea.Batch(cmds...)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// startStreamCmd opens the answer stream and waits for its first fragment.
func startStreamCmd(ctx context.Context, a Assistant, query, queryID string) tea.Cmd {
	return func() tea.Msg {
		return nextFragment(a.Assist(ctx, query, queryID))
	}
}

// waitFragmentCmd waits for the next fragment of stream.
func waitFragmentCmd(stream <-chan assistantdomain.Fragment) tea.Cmd {
	return func() tea.Msg {
		return nextFragment(stream)
	}
}

func nextFragment(stream <-chan assistantdomain.Fragment) tea.Msg {
	f, ok := <-stream
	if !ok {
		return StreamEndMsg{}
	}
	return FragmentMsg{Fragment: f, stream: stream}
}

func fetchGasCmd(gas GasProvider) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), gasFetchTimeout)
		defer cancel()
		rec, err := gas.FetchAndRecommend(ctx)
		return GasMsg{Recommendation: rec, Err: err}
	}
}

func scheduleGasRefresh(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return gasRefreshMsg{at: t}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to chat
		if m.phase == PhaseWelcome {
			m.phase = PhaseChat
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Send):
			query := strings.TrimSpace(m.input.Value())
			if m.streaming || query == "" {
				return m, nil
			}
			m.input.SetValue("")
			var cmd tea.Cmd
			m, cmd = m.submit(query)
			return m, tea.Batch(cmd, m.spinner.Tick)
		case key.Matches(msg, m.keys.Stop):
			if m.streaming && m.cancel != nil {
				m.cancel()
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.gas != nil {
				return m, fetchGasCmd(m.gas)
			}
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			if !m.streaming {
				m.transcript.Clear()
				m.refreshTranscript()
			}
			return m, nil
		case key.Matches(msg, m.keys.ScrollUp):
			m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
			return m, nil
		case key.Matches(msg, m.keys.ScrollDn):
			m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case TickMsg:
		// Ticks only drive the welcome animation
		if m.phase != PhaseWelcome {
			return m, nil
		}
		if time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseChat
			return m, nil
		}
		return m, tickCmd()

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case FragmentMsg:
		if !m.gotFirst {
			m.gotFirst = true
			s := m.stats.Stats()
			s.LastFirstByte = time.Since(m.streamStart)
			m.stats.Update(s)
		}
		if msg.Fragment.IsError() {
			s := m.stats.Stats()
			s.Errors++
			m.stats.Update(s)
		}
		m.transcript.Append(msg.Fragment.Content, msg.Fragment.IsError())
		m.refreshTranscript()
		return m, waitFragmentCmd(msg.stream)

	case StreamEndMsg:
		m.streaming = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.transcript.Finish()
		s := m.stats.Stats()
		s.LastDuration = time.Since(m.streamStart)
		m.stats.Update(s)
		m.refreshTranscript()

	case GasMsg:
		if msg.Err != nil {
			m.gasPanel.SetError(msg.Err)
			m.status.Update(components.ConnectionStatus{Name: "Gas", Connected: false, Detail: m.config.GasSource, LastUpdate: time.Now()})
		} else {
			m.gasPanel.Update(msg.Recommendation)
			m.status.Update(components.ConnectionStatus{Name: "Gas", Connected: true, Detail: m.config.GasSource, LastUpdate: time.Now()})
		}
		if m.config.GasRefresh > 0 {
			return m, scheduleGasRefresh(m.config.GasRefresh)
		}

	case gasRefreshMsg:
		if m.gas != nil {
			return m, fetchGasCmd(m.gas)
		}

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Detail:     msg.Detail,
			LastUpdate: time.Now(),
		})
	}

	return m, nil
}

// submit opens a turn for query and returns the command that streams it.
func (m Model) submit(query string) (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.streaming = true
	m.gotFirst = false
	m.streamStart = time.Now()

	s := m.stats.Stats()
	s.Queries++
	m.stats.Update(s)

	m.transcript.Start(query)
	m.refreshTranscript()

	return m, startStreamCmd(ctx, m.assistant, query, uuid.NewString())
}

// layout sizes the viewport and input for the current window.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}

	chatWidth := m.width - 4
	if m.width > 100 {
		chatWidth = m.width*3/5 - 4
	}

	helpLines := 1
	if m.help.ShowAll {
		helpLines = 3
	}
	// title, status, input box and help
	chatHeight := m.height - 9 - helpLines
	if chatHeight < 5 {
		chatHeight = 5
	}

	m.viewport.Width = chatWidth
	m.viewport.Height = chatHeight
	m.input.Width = m.width - 8
	m.help.Width = m.width
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript.View(m.viewport.Width))
	if atBottom || m.streaming {
		m.viewport.GotoBottom()
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	if m.phase == PhaseWelcome {
		return m.renderWelcomeScreen()
	}

	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render(" ⛽ Gas Genie "))
	b.WriteString("  ")
	b.WriteString(m.status.View())
	b.WriteString("\n\n")

	chat := BoxStyle.Render(m.viewport.View())
	side := m.gasPanel.View() + "\n\n" + m.stats.View()

	if m.width > 100 {
		right := BoxStyle.Width(m.width - m.viewport.Width - 10).Render(side)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chat, right))
	} else {
		b.WriteString(chat)
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(m.gasPanel.View()))
	}
	b.WriteString("\n")

	// Input line
	prefix := "  "
	if m.streaming {
		prefix = m.spinner.View() + " "
	}
	b.WriteString(InputStyle.Render(prefix + m.input.View()))
	b.WriteString("\n")

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	goldStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWarning)

	mutedStyle := lipgloss.NewStyle().
		Foreground(ColorMuted)

	greenStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary)

	// Animated dots based on time
	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder

	sb.WriteString("\n\n\n\n")

	logo := `
    ██████╗  █████╗ ███████╗     ██████╗ ███████╗███╗   ██╗██╗███████╗
   ██╔════╝ ██╔══██╗██╔════╝    ██╔════╝ ██╔════╝████╗  ██║██║██╔════╝
   ██║  ███╗███████║███████╗    ██║  ███╗█████╗  ██╔██╗ ██║██║█████╗
   ██║   ██║██╔══██║╚════██║    ██║   ██║██╔══╝  ██║╚██╗██║██║██╔══╝
   ╚██████╔╝██║  ██║███████║    ╚██████╔╝███████╗██║ ╚████║██║███████╗
    ╚═════╝ ╚═╝  ╚═╝╚══════╝     ╚═════╝ ╚══════╝╚═╝  ╚═══╝╚═╝╚══════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	sb.WriteString(mutedStyle.Render("                 E T H E R E U M   G A S   A S S I S T A N T"))
	sb.WriteString("\n\n\n")

	sb.WriteString(goldStyle.Render("                    ⛽  Send when it's cheap  ⛽"))
	sb.WriteString("\n\n\n")

	sb.WriteString(greenStyle.Render(fmt.Sprintf("                         Warming up%s", dots)))
	sb.WriteString("\n\n")

	sb.WriteString(mutedStyle.Render("                 Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(cfg Config, assistant Assistant, gas GasProvider) error {
	program := tea.NewProgram(New(cfg, assistant, gas), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
