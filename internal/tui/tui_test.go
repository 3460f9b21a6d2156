package tui

import (
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tatianab/lostcastle/internal/affordance"
	"github.com/tatianab/lostcastle/internal/autopilot"
	"github.com/tatianab/lostcastle/internal/combat"
	"github.com/tatianab/lostcastle/internal/i18n"
	"github.com/tatianab/lostcastle/internal/models"
	"github.com/tatianab/lostcastle/internal/oplog"
	"github.com/tatianab/lostcastle/internal/stub"
	"github.com/tatianab/lostcastle/internal/transport"
)

func TestPickOption(t *testing.T) {
	opts := []affordance.Option{
		{Action: models.Action{Name: "Slash"}, Enabled: true},
		{Action: models.Action{Name: "Fireball"}},
	}
	cases := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"1", "Slash", true},
		{"2", "Fireball", true},
		{"0", "", false},
		{"3", "", false},
		{"fireball", "Fireball", true},
		{"Meteor", "", false},
	}
	for _, tc := range cases {
		got, ok := pickOption(opts, tc.input)
		if ok != tc.wantOK || got.Action.Name != tc.want {
			t.Errorf("pickOption(%q) = %q, %v; want %q, %v", tc.input, got.Action.Name, ok, tc.want, tc.wantOK)
		}
	}
}

func newTestModel(t *testing.T) (model, *stub.Server, *oplog.Log) {
	t.Helper()
	svc := stub.New()
	svc.AddPlayer("Alice", models.RoleMage)
	svc.AddPlayer("Bob", models.RoleArcher)
	srv := httptest.NewServer(svc.Handler("/api/v1"))
	t.Cleanup(srv.Close)

	log := oplog.New()
	ctrl := combat.NewController(transport.NewClient(srv.URL+"/api/v1", log), log)
	m := NewModel(ctrl, log, i18n.Printer("en"), autopilot.Strongest{})

	m, _ = send(t, m, m.refreshRoster()())
	return m, svc, log
}

func send(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func enter(t *testing.T, m model, line string) (model, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(line)
	return send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func lastEntry(log *oplog.Log) string {
	entries := log.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Text
}

func TestCommandValidation(t *testing.T) {
	m, _, log := newTestModel(t)

	cases := []struct {
		line string
		want string
	}{
		{"/create Carol", "Usage: /create <name> <role>"},
		{"/start Alice", "Usage: /start <player1> <player2>"},
		{"/save", "Usage: /save <name>"},
		{"/dance", `Unknown command "/dance".`},
		{"1", "No combat in progress."},
	}
	for _, tc := range cases {
		var cmd tea.Cmd
		m, cmd = enter(t, m, tc.line)
		if cmd != nil {
			t.Errorf("%q returned a command", tc.line)
		}
		if got := lastEntry(log); got != tc.want {
			t.Errorf("%q logged %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestCreatePlayerCommand(t *testing.T) {
	m, svc, log := newTestModel(t)

	m, cmd := enter(t, m, "/create Carol WARRIOR")
	if cmd == nil {
		t.Fatal("no command for /create")
	}
	m, _ = send(t, m, cmd())
	if _, ok := svc.Player("Carol"); !ok {
		t.Fatal("Carol was not created")
	}
	if got := lastEntry(log); got != "Player 'Carol' created." {
		t.Errorf("last log = %q", got)
	}
	if !strings.Contains(m.renderState(), "Carol (warrior L1)") {
		t.Errorf("roster panel missing Carol:\n%s", m.renderState())
	}
}

func TestStartAndSubmit(t *testing.T) {
	m, svc, log := newTestModel(t)

	m, cmd := enter(t, m, "/start Alice Bob")
	if !m.busy || cmd == nil {
		t.Fatalf("busy = %v, cmd = %v after /start", m.busy, cmd)
	}
	m, cmd = send(t, m, cmd())
	if m.busy || cmd == nil {
		t.Fatalf("busy = %v, cmd = %v after start", m.busy, cmd)
	}
	m, cmd = send(t, m, cmd())
	if cmd != nil {
		t.Errorf("menu without autopilot returned a command")
	}

	state := m.renderState()
	for _, want := range []string{"Turn of: Alice (MP: 40/40)", "1. Staff Strike", "3. Fireball"} {
		if !strings.Contains(state, want) {
			t.Errorf("combat panel missing %q:\n%s", want, state)
		}
	}

	m, turn := enter(t, m, "frost lance")
	if turn == nil {
		t.Fatal("no command for an enabled action")
	}
	if !strings.Contains(m.renderState(), "Resolving turn...") {
		t.Errorf("menu still shown while the turn is pending:\n%s", m.renderState())
	}
	m, cmd = enter(t, m, "1")
	if cmd != nil || lastEntry(log) != "A turn is already being resolved." {
		t.Errorf("second submit while pending: cmd = %v, log = %q", cmd, lastEntry(log))
	}

	m, cmd = send(t, m, turn())
	if svc.Hits("POST /api/v1/combat/turn") != 1 {
		t.Errorf("turn calls = %d, want 1", svc.Hits("POST /api/v1/combat/turn"))
	}
	if m.busy || cmd == nil {
		t.Fatalf("busy = %v, cmd = %v after the turn", m.busy, cmd)
	}
	m, _ = send(t, m, cmd())
	if !strings.Contains(m.renderState(), "Turn of: Bob") {
		t.Errorf("turn did not pass to Bob:\n%s", m.renderState())
	}
}

func TestDisabledActionIsNotSubmitted(t *testing.T) {
	m, svc, log := newTestModel(t)

	m, cmd := enter(t, m, "/start Alice Bob")
	m, cmd = send(t, m, cmd())
	m, _ = send(t, m, cmd())

	svc.SetMana("Alice", 5)
	m, cmd = enter(t, m, "/refresh")
	m, _ = send(t, m, cmd())

	m, cmd = enter(t, m, "Fireball")
	if cmd != nil {
		t.Fatal("disabled action was submitted")
	}
	if got := lastEntry(log); got != "Alice cannot use Fireball right now." {
		t.Errorf("last log = %q", got)
	}
	if svc.Hits("POST /api/v1/combat/turn") != 0 {
		t.Errorf("turn calls = %d, want 0", svc.Hits("POST /api/v1/combat/turn"))
	}
	if !strings.Contains(m.renderState(), "MP: 5/40") {
		t.Errorf("refreshed mana not shown:\n%s", m.renderState())
	}
}

func TestAutopilotChoosesWhenMenuArrives(t *testing.T) {
	m, _, log := newTestModel(t)

	m, _ = enter(t, m, "/auto")
	if !m.auto || lastEntry(log) != "Autopilot on (strongest)." {
		t.Fatalf("auto = %v, log = %q", m.auto, lastEntry(log))
	}

	m, cmd := enter(t, m, "/start Alice Bob")
	m, cmd = send(t, m, cmd())
	m, cmd = send(t, m, cmd())
	if cmd == nil {
		t.Fatal("autopilot did not choose")
	}
	msg := cmd()
	choice, ok := msg.(choiceMsg)
	if !ok || choice.action != "Fireball" {
		t.Fatalf("choice = %+v, want Fireball", msg)
	}
	m, cmd = send(t, m, choice)
	if !m.busy || cmd == nil {
		t.Errorf("choice was not submitted")
	}
}

func TestResourceFailureRefetchesSameAttacker(t *testing.T) {
	m, svc, log := newTestModel(t)

	m, cmd := enter(t, m, "/start Alice Bob")
	m, cmd = send(t, m, cmd())
	m, _ = send(t, m, cmd())

	// The cached roster still says 40 MP, so Fireball looks affordable.
	svc.SetMana("Alice", 0)
	rosterCalls := svc.Hits("GET /api/v1/players/")

	m, turn := enter(t, m, "Fireball")
	if turn == nil {
		t.Fatal("Fireball was not submitted")
	}
	m, cmd = send(t, m, turn())
	if m.busy || cmd == nil {
		t.Fatalf("busy = %v, cmd = %v after a rejected turn", m.busy, cmd)
	}
	msg := cmd()
	if _, ok := msg.(menuFetchedMsg); !ok {
		t.Fatalf("next command produced %T, want menuFetchedMsg", msg)
	}
	m, _ = send(t, m, msg)

	if !strings.Contains(m.renderState(), "Turn of: Alice") {
		t.Errorf("attacker changed after a rejected turn:\n%s", m.renderState())
	}
	if got := svc.Hits("GET /api/v1/players/"); got != rosterCalls {
		t.Errorf("roster fetched %d times after a rejected turn, want 0", got-rosterCalls)
	}
	if got := svc.Hits("GET /api/v1/combat/attacks/{attacker}"); got != 2 {
		t.Errorf("menu fetched %d times, want 2", got)
	}
	if !strings.Contains(lastEntry(log), "suficiente maná") {
		t.Errorf("last log = %q, want the mana failure", lastEntry(log))
	}
}

func TestSyncLogRendersNewEntriesOnly(t *testing.T) {
	m, _, log := newTestModel(t)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	log.Info("first")
	m.syncLog()
	shown := m.logShown
	log.Error("second")
	m.syncLog()

	if m.logShown != shown+1 {
		t.Errorf("logShown = %d, want %d", m.logShown, shown+1)
	}
	if strings.Count(m.rendered, "first") != 1 || !strings.Contains(m.rendered, "second") {
		t.Errorf("rendered log = %q", m.rendered)
	}

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	if m.logShown != log.Len() || strings.Count(m.rendered, "first") != 1 {
		t.Errorf("after resize logShown = %d, rendered = %q", m.logShown, m.rendered)
	}
}
