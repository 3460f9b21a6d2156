package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/lostcastle/internal/affordance"
	"github.com/tatianab/lostcastle/internal/autopilot"
	"github.com/tatianab/lostcastle/internal/combat"
	"github.com/tatianab/lostcastle/internal/models"
	"github.com/tatianab/lostcastle/internal/oplog"
	"golang.org/x/text/message"
)

type model struct {
	ctrl    *combat.Controller
	log     *oplog.Log
	p       *message.Printer
	chooser autopilot.Chooser

	textInput textinput.Model
	viewport  viewport.Model
	width     int
	height    int

	loading  bool // initial roster load
	busy     bool // start or turn in flight
	auto     bool
	retried  bool // one roster refresh per deferred menu
	logShown int  // operator log entries already rendered
	rendered string
}

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5F5F5F")).
			Strikethrough(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(ctrl *combat.Controller, log *oplog.Log, p *message.Printer, chooser autopilot.Chooser) model {
	ti := textinput.New()
	ti.Placeholder = "/create <name> <role>, /start <p1> <p2>, or an action number..."
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 60

	return model{
		ctrl:      ctrl,
		log:       log,
		p:         p,
		chooser:   chooser,
		textInput: ti,
		loading:   true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshRoster())
}

type rosterRefreshedMsg struct{ err error }

type playerCreatedMsg struct{ err error }

type combatStartedMsg struct{ err error }

type menuFetchedMsg struct {
	menu combat.Menu
	err  error
}

type turnResolvedMsg struct {
	outcome combat.TurnOutcome
	err     error
}

type choiceMsg struct {
	action string
	err    error
}

type savedMsg struct {
	name string
	err  error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.Reset()
			m, cmd = m.handleInput(input)
			m.syncLog()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logWidth := int(float64(msg.Width) * 0.6)
		if m.viewport.Width == 0 {
			m.viewport = viewport.New(logWidth, msg.Height-6)
		} else {
			m.viewport.Width = logWidth
			m.viewport.Height = msg.Height - 6
		}
		// Re-wrap everything at the new width.
		m.logShown = 0
		m.rendered = ""
		m.syncLog()

	case rosterRefreshedMsg:
		m.loading = false
		if m.ctrl.Session() != nil && !m.busy {
			cur := m.ctrl.CurrentMenu()
			if cur.Deferred || len(cur.Options) == 0 {
				cmd = m.fetchMenu()
			}
		}
		m.syncLog()
		return m, cmd

	case playerCreatedMsg, savedMsg:
		if msg, ok := msg.(savedMsg); ok {
			if msg.err != nil {
				m.log.Error(msg.err.Error())
			} else {
				m.log.Info(m.p.Sprintf("tui.saved", msg.name))
			}
		}
		m.syncLog()
		return m, nil

	case combatStartedMsg:
		m.busy = false
		m.retried = false
		if msg.err == nil {
			cmd = m.fetchMenu()
		}
		m.syncLog()
		return m, cmd

	case menuFetchedMsg:
		m.syncLog()
		if msg.err != nil || msg.menu.Stale {
			return m, nil
		}
		if msg.menu.Deferred {
			if m.retried {
				return m, nil
			}
			m.retried = true
			return m, m.refreshRoster()
		}
		m.retried = false
		if m.auto && !m.busy {
			return m, m.choose(msg.menu)
		}
		return m, nil

	case turnResolvedMsg:
		m.busy = false
		m.retried = false
		// Resource failures keep the session: the same attacker picks again.
		if m.ctrl.Session() != nil {
			cmd = m.fetchMenu()
		}
		m.syncLog()
		return m, cmd

	case choiceMsg:
		if msg.err != nil {
			m.log.Error(msg.err.Error())
			m.auto = false
			m.log.Info(m.p.Sprintf("tui.autopilot_off"))
			m.syncLog()
			return m, nil
		}
		if m.busy || m.ctrl.Session() == nil {
			return m, nil
		}
		m.busy = true
		return m, m.submit(msg.action)
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// handleInput runs one command line.
func (m model) handleInput(input string) (model, tea.Cmd) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit":
		return m, tea.Quit

	case "/create":
		if len(fields) != 3 {
			m.log.Error(m.p.Sprintf("tui.usage_create"))
			return m, nil
		}
		return m, m.createPlayer(fields[1], models.Role(strings.ToLower(fields[2])))

	case "/start":
		if len(fields) != 3 {
			m.log.Error(m.p.Sprintf("tui.usage_start"))
			return m, nil
		}
		if m.busy {
			m.log.Error(m.p.Sprintf("combat.turn_pending"))
			return m, nil
		}
		m.busy = true
		return m, m.startCombat(fields[1], fields[2])

	case "/refresh":
		return m, m.refreshRoster()

	case "/auto":
		m.auto = !m.auto
		if !m.auto {
			m.log.Info(m.p.Sprintf("tui.autopilot_off"))
			return m, nil
		}
		m.log.Info(m.p.Sprintf("tui.autopilot_on", m.chooser.Name()))
		if menu := m.ctrl.CurrentMenu(); !m.busy && len(menu.Options) > 0 {
			return m, m.choose(menu)
		}
		return m, nil

	case "/save":
		if len(fields) != 2 {
			m.log.Error(m.p.Sprintf("tui.usage_save"))
			return m, nil
		}
		return m, m.save(fields[1])
	}

	if strings.HasPrefix(input, "/") {
		m.log.Error(m.p.Sprintf("tui.unknown_command", fields[0]))
		return m, nil
	}

	if m.ctrl.Session() == nil {
		m.log.Error(m.p.Sprintf("combat.no_session"))
		return m, nil
	}
	if m.busy {
		m.log.Error(m.p.Sprintf("combat.turn_pending"))
		return m, nil
	}
	menu := m.ctrl.CurrentMenu()
	opt, ok := pickOption(menu.Options, input)
	if !ok || !opt.Enabled {
		m.log.Error(m.p.Sprintf("combat.unknown_action", menu.AttackerName, input))
		return m, nil
	}
	m.busy = true
	return m, m.submit(opt.Action.Name)
}

// pickOption matches a 1-based menu number or an action name.
func pickOption(opts []affordance.Option, input string) (affordance.Option, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(opts) {
			return affordance.Option{}, false
		}
		return opts[n-1], true
	}
	for _, o := range opts {
		if strings.EqualFold(o.Action.Name, input) {
			return o, true
		}
	}
	return affordance.Option{}, false
}

// syncLog renders operator log entries that arrived since the last call into
// the viewport and follows the bottom.
func (m *model) syncLog() {
	if m.viewport.Width == 0 {
		return
	}
	entries := m.log.Since(m.logShown)
	if len(entries) == 0 {
		return
	}
	m.logShown += len(entries)
	m.rendered += m.renderEntries(entries)
	m.viewport.SetContent(m.rendered)
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if m.loading {
		return "\n  Loading players... please wait.\n"
	}

	logView := m.viewport.View()
	stateView := m.renderState()

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		logView,
		stateView,
	)

	help := helpStyle.Render(m.p.Sprintf("tui.help"))

	s := lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		"\n"+m.textInput.View(),
		"\n"+help,
	)
	return "\n" + s + "\n"
}

func (m model) renderState() string {
	// Roster
	roster := titleStyle.Render("PLAYERS") + "\n"
	players := m.ctrl.Players()
	if len(players) == 0 {
		roster += "(none)\n"
	}
	for _, p := range players {
		roster += fmt.Sprintf("%s (%s L%d) HP:%d/%d MP:%d/%d\n", p.Name, p.Role, p.Level, p.HP, p.MaxHP, p.MP, p.MaxMP)
	}
	roster += "\n"

	// Combat
	fight := titleStyle.Render("COMBAT") + "\n"
	if m.ctrl.Session() == nil {
		fight += "-\n"
	} else {
		menu := m.ctrl.CurrentMenu()
		switch {
		case menu.Deferred:
			fight += m.p.Sprintf("tui.waiting_roster", menu.AttackerName) + "\n"
		case m.busy:
			fight += m.p.Sprintf("tui.turn_of", menu.AttackerName, menu.Attacker.MP, menu.Attacker.MaxMP) + "\n"
			fight += m.p.Sprintf("tui.resolving") + "\n"
		default:
			fight += m.p.Sprintf("tui.turn_of", menu.AttackerName, menu.Attacker.MP, menu.Attacker.MaxMP) + "\n"
			fight += renderOptions(menu.Options)
		}
	}
	if m.auto {
		fight += "\n" + helpStyle.Render("autopilot: "+m.chooser.Name()) + "\n"
	}

	content := roster + fight

	stateWidth := int(float64(m.width) * 0.38)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

func renderOptions(opts []affordance.Option) string {
	s := ""
	for i, o := range opts {
		line := fmt.Sprintf("%d. %s (%d MP) [%s, power %d]", i+1, o.Action.Name, o.Action.Cost, o.Action.Type, o.Action.Power)
		if !o.Enabled {
			line = disabledStyle.Render(line)
		}
		s += line + "\n"
	}
	return s
}

func (m model) renderEntries(entries []oplog.Entry) string {
	width := m.viewport.Width
	var b strings.Builder
	for _, e := range entries {
		style := gameStyle
		if e.Level == oplog.LevelError {
			style = errorStyle
		}
		b.WriteString(style.Width(width).Render(e.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) refreshRoster() tea.Cmd {
	return func() tea.Msg {
		return rosterRefreshedMsg{m.ctrl.RefreshRoster(context.Background())}
	}
}

func (m model) createPlayer(name string, role models.Role) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.CreatePlayer(context.Background(), name, role)
		return playerCreatedMsg{err}
	}
}

func (m model) startCombat(p1, p2 string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Start(context.Background(), p1, p2)
		return combatStartedMsg{err}
	}
}

func (m model) fetchMenu() tea.Cmd {
	return func() tea.Msg {
		menu, err := m.ctrl.FetchMenu(context.Background())
		return menuFetchedMsg{menu, err}
	}
}

func (m model) submit(action string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.ctrl.Submit(context.Background(), action)
		return turnResolvedMsg{outcome, err}
	}
}

func (m model) choose(menu combat.Menu) tea.Cmd {
	return func() tea.Msg {
		action, err := m.chooser.Choose(context.Background(), autopilot.TurnFor(m.ctrl, menu))
		return choiceMsg{action, err}
	}
}

func (m model) save(name string) tea.Cmd {
	return func() tea.Msg {
		t := &models.Transcript{
			Saved:   time.Now(),
			Roster:  m.ctrl.Players(),
			Session: m.ctrl.Session(),
			Entries: m.log.Entries(),
		}
		return savedMsg{name, t.Save(name)}
	}
}

func Run(ctrl *combat.Controller, log *oplog.Log, p *message.Printer, chooser autopilot.Chooser) error {
	prog := tea.NewProgram(NewModel(ctrl, log, p, chooser), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
