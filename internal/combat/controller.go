// Package combat drives a single combat session against the remote service.
//
// The Controller owns the roster cache and the one active session. The
// service is the only authority on turn order, damage and termination: the
// Controller replays the next_turn and session_ended fields it returns and
// never reads the narrative log for control decisions.
package combat

import (
	"context"
	"strings"
	"sync"

	"github.com/tatianab/lostcastle/internal/affordance"
	"github.com/tatianab/lostcastle/internal/failure"
	"github.com/tatianab/lostcastle/internal/i18n"
	"github.com/tatianab/lostcastle/internal/models"
	"github.com/tatianab/lostcastle/internal/oplog"
	"github.com/tatianab/lostcastle/internal/roster"
	"golang.org/x/text/message"
)

// Service is the remote contract the Controller drives. Errors are expected
// to be classified *failure.Error values; anything else counts as a session
// failure.
type Service interface {
	roster.Source
	CreatePlayer(ctx context.Context, req models.CreatePlayerRequest) (models.Player, error)
	StartCombat(ctx context.Context, req models.StartCombatRequest) (models.StartCombatResponse, error)
	ListAttacks(ctx context.Context, attackerName string) ([]models.Action, error)
	TakeTurn(ctx context.Context, req models.TurnRequest) (models.TurnResult, error)
}

// State is the Controller's position in the session lifecycle.
type State int

const (
	Idle State = iota
	AwaitingActionMenu
	AwaitingTurnResult
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingActionMenu:
		return "awaiting-action-menu"
	case AwaitingTurnResult:
		return "awaiting-turn-result"
	}
	return "unknown"
}

type pendingOp int

const (
	pendingNone pendingOp = iota
	pendingStart
	pendingTurn
)

// Menu is what the operator can choose from on the current turn.
type Menu struct {
	AttackerName string
	Attacker     models.Player
	Options      []affordance.Option
	// Deferred is set when the attacker is not in the roster yet. Nothing is
	// fetched or rendered until it appears.
	Deferred bool
	// Stale is set when the session moved on while the menu was in flight.
	Stale bool
}

// TurnOutcome is the reconciled result of a submitted action.
type TurnOutcome struct {
	Log      []string
	Ended    bool
	NextTurn string
}

type Controller struct {
	svc    Service
	roster *roster.Cache
	log    *oplog.Log
	p      *message.Printer

	mu      sync.Mutex
	session *models.CombatSession
	pending pendingOp
}

type Option func(*Controller)

// WithPrinter sets the printer for operator-facing messages.
func WithPrinter(p *message.Printer) Option {
	return func(c *Controller) { c.p = p }
}

func NewController(svc Service, log *oplog.Log, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		roster: roster.New(svc),
		log:    log,
		p:      i18n.Printer(i18n.BaseLocale),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports where the Controller is in the session lifecycle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.pending == pendingTurn:
		return AwaitingTurnResult
	case c.session != nil:
		return AwaitingActionMenu
	}
	return Idle
}

// Session returns a copy of the active session, or nil.
func (c *Controller) Session() *models.CombatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Busy reports whether a start or a turn is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != pendingNone
}

// Players returns the cached roster sorted by name.
func (c *Controller) Players() []models.Player {
	return c.roster.List()
}

// Player returns one cached player.
func (c *Controller) Player(name string) (models.Player, bool) {
	return c.roster.Get(name)
}

// RefreshRoster reloads the roster. A session failure here also ends the
// active session, since the client can no longer trust its view.
func (c *Controller) RefreshRoster(ctx context.Context) error {
	c.mu.Lock()
	combatID := ""
	if c.session != nil {
		combatID = c.session.CombatID
	}
	c.mu.Unlock()

	if err := c.roster.Refresh(ctx); err != nil {
		c.fail(err, combatID)
		return err
	}
	return nil
}

// CreatePlayer registers a new player and refreshes the roster.
func (c *Controller) CreatePlayer(ctx context.Context, name string, role models.Role) (models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Player{}, c.invalid("player.name_required")
	}
	if !role.Valid() {
		names := make([]string, len(models.Roles))
		for i, r := range models.Roles {
			names[i] = string(r)
		}
		return models.Player{}, c.invalid("player.role_invalid", string(role), strings.Join(names, ", "))
	}

	combatID := c.currentCombatID()
	p, err := c.svc.CreatePlayer(ctx, models.CreatePlayerRequest{Name: name, Role: role})
	if err != nil {
		c.fail(err, combatID)
		return models.Player{}, err
	}
	c.log.Info(c.p.Sprintf("player.created", p.Name))
	return p, c.RefreshRoster(ctx)
}

// Start begins a combat between two distinct players. A successful start
// silently replaces any prior session.
func (c *Controller) Start(ctx context.Context, player1, player2 string) (models.StartCombatResponse, error) {
	player1, player2 = strings.TrimSpace(player1), strings.TrimSpace(player2)
	if player1 == "" || player2 == "" {
		return models.StartCombatResponse{}, c.invalid("combat.pick_players")
	}
	if player1 == player2 {
		return models.StartCombatResponse{}, c.invalid("combat.same_player")
	}

	c.mu.Lock()
	if c.pending != pendingNone {
		c.mu.Unlock()
		return models.StartCombatResponse{}, c.invalid("combat.turn_pending")
	}
	c.pending = pendingStart
	prior := ""
	if c.session != nil {
		prior = c.session.CombatID
	}
	c.mu.Unlock()
	defer c.clearPending()

	c.log.Info(c.p.Sprintf("combat.starting", player1, player2))
	resp, err := c.svc.StartCombat(ctx, models.StartCombatRequest{Player1Name: player1, Player2Name: player2})
	if err != nil {
		c.fail(err, prior)
		return models.StartCombatResponse{}, err
	}
	if resp.AttackerName != player1 && resp.AttackerName != player2 {
		err := failure.Session(0, c.p.Sprintf("combat.bad_next_turn", resp.AttackerName))
		c.log.Error(err.Error())
		c.fail(err, prior)
		return models.StartCombatResponse{}, err
	}

	c.mu.Lock()
	c.session = &models.CombatSession{
		CombatID:     resp.CombatID,
		AttackerName: resp.AttackerName,
		Combatants:   []string{player1, player2},
	}
	c.mu.Unlock()
	if resp.Message != "" {
		c.log.Info(resp.Message)
	}
	return resp, nil
}

// CurrentMenu recomputes the menu from the last fetched actions and the
// latest cached roster, without any network call.
func (c *Controller) CurrentMenu() Menu {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Menu{}
	}
	return c.menuLocked()
}

func (c *Controller) menuLocked() Menu {
	name := c.session.AttackerName
	attacker, ok := c.roster.Get(name)
	if !ok {
		return Menu{AttackerName: name, Deferred: true}
	}
	return Menu{
		AttackerName: name,
		Attacker:     attacker,
		Options:      affordance.Resolve(attacker, c.session.Actions),
	}
}

// FetchMenu requests the current attacker's actions and stores them on the
// session.
func (c *Controller) FetchMenu(ctx context.Context) (Menu, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return Menu{}, c.invalid("combat.no_session")
	}
	if c.pending == pendingTurn {
		c.mu.Unlock()
		return Menu{}, c.invalid("combat.turn_pending")
	}
	combatID, attackerName := c.session.CombatID, c.session.AttackerName
	if _, ok := c.roster.Get(attackerName); !ok {
		c.mu.Unlock()
		return Menu{AttackerName: attackerName, Deferred: true}, nil
	}
	c.mu.Unlock()

	actions, err := c.svc.ListAttacks(ctx, attackerName)
	if err != nil {
		c.fail(err, combatID)
		return Menu{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.CombatID != combatID || c.session.AttackerName != attackerName {
		return Menu{AttackerName: attackerName, Stale: true}, nil
	}
	c.session.Actions = actions
	return c.menuLocked(), nil
}

// Submit sends the chosen action for the current attacker and reconciles the
// service's answer.
//
// A resource failure leaves the session exactly as it was: the same attacker
// chooses again and the roster is not refreshed. A resolved turn refreshes the
// roster once. A session failure discards the session.
func (c *Controller) Submit(ctx context.Context, attackName string) (TurnOutcome, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return TurnOutcome{}, c.invalid("combat.no_session")
	}
	if c.pending != pendingNone {
		c.mu.Unlock()
		return TurnOutcome{}, c.invalid("combat.turn_pending")
	}
	attacker := c.session.AttackerName
	if len(c.session.Actions) == 0 {
		c.mu.Unlock()
		return TurnOutcome{}, c.invalid("combat.no_menu", attacker)
	}
	if !hasAction(c.session.Actions, attackName) {
		c.mu.Unlock()
		return TurnOutcome{}, c.invalid("combat.unknown_action", attacker, attackName)
	}
	sess := c.session.Clone()
	c.pending = pendingTurn
	c.mu.Unlock()

	res, err := c.svc.TakeTurn(ctx, models.TurnRequest{
		CombatID:     sess.CombatID,
		AttackerName: sess.AttackerName,
		AttackName:   attackName,
	})

	c.mu.Lock()
	c.pending = pendingNone
	if err != nil {
		c.failLocked(err, sess.CombatID)
		c.mu.Unlock()
		return TurnOutcome{}, err
	}

	c.log.Lines(res.Log)
	out := TurnOutcome{Log: res.Log}
	current := c.session != nil && c.session.CombatID == sess.CombatID
	switch {
	case !current:
		// Torn down while the turn was in flight.
		out.Ended = true
	case res.SessionEnded:
		c.session = nil
		out.Ended = true
	case !sess.Involves(res.NextTurn):
		c.session = nil
		c.mu.Unlock()
		err := failure.Session(0, c.p.Sprintf("combat.bad_next_turn", res.NextTurn))
		c.log.Error(err.Error())
		return TurnOutcome{Log: res.Log, Ended: true}, err
	default:
		c.session.AttackerName = res.NextTurn
		c.session.Actions = nil
		out.NextTurn = res.NextTurn
	}
	c.mu.Unlock()

	if out.Ended {
		c.log.Info(c.p.Sprintf("combat.ended"))
	}
	if err := c.RefreshRoster(ctx); err != nil {
		if failure.KindOf(err) == failure.KindSession {
			out.Ended = true
			out.NextTurn = ""
		}
		return out, err
	}
	return out, nil
}

func hasAction(actions []models.Action, name string) bool {
	for _, a := range actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (c *Controller) currentCombatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.CombatID
}

func (c *Controller) clearPending() {
	c.mu.Lock()
	c.pending = pendingNone
	c.mu.Unlock()
}

// fail applies a failure to the session it was observed against. Session
// failures discard that session; resource failures leave it alone. The
// failure itself has already been logged by the transport.
func (c *Controller) fail(err error, combatID string) {
	c.mu.Lock()
	c.failLocked(err, combatID)
	c.mu.Unlock()
}

func (c *Controller) failLocked(err error, combatID string) {
	if failure.KindOf(err) != failure.KindSession || combatID == "" {
		return
	}
	if c.session != nil && c.session.CombatID == combatID {
		c.session = nil
	}
}

// invalid logs and returns a local validation failure.
func (c *Controller) invalid(key string, args ...any) error {
	err := failure.Validation("%s", c.p.Sprintf(key, args...))
	c.log.Error(err.Error())
	return err
}
