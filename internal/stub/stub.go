// Package stub is an in-memory stand-in for the remote combat service, for
// local development and tests. Its rules are deliberately trivial: damage
// equals the attack's power and the attacker regains a little mana each turn.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tatianab/lostcastle/internal/models"
)

const manaRegen = 2

type roleStats struct {
	HP      int
	MP      int
	Attacks []models.Action
}

var roles = map[models.Role]roleStats{
	models.RoleWarrior: {HP: 120, MP: 20, Attacks: []models.Action{
		{Name: "Slash", Type: "physical", Power: 12, Cost: 0},
		{Name: "Shield Bash", Type: "physical", Power: 18, Cost: 5},
		{Name: "Whirlwind", Type: "physical", Power: 25, Cost: 12},
	}},
	models.RoleMage: {HP: 80, MP: 40, Attacks: []models.Action{
		{Name: "Staff Strike", Type: "physical", Power: 6, Cost: 0},
		{Name: "Frost Lance", Type: "magical", Power: 20, Cost: 6},
		{Name: "Fireball", Type: "magical", Power: 30, Cost: 10},
	}},
	models.RoleArcher: {HP: 100, MP: 25, Attacks: []models.Action{
		{Name: "Quick Shot", Type: "physical", Power: 10, Cost: 0},
		{Name: "Piercing Arrow", Type: "physical", Power: 20, Cost: 6},
		{Name: "Rain of Arrows", Type: "magical", Power: 28, Cost: 12},
	}},
}

type combat struct {
	ID       string
	Players  [2]string
	Attacker string
}

// Server holds players and running combats.
type Server struct {
	// LegacyErrors drops the structured code from insufficient-mana failures,
	// leaving only the detail text, as older services did.
	LegacyErrors bool

	mu      sync.Mutex
	players map[string]*models.Player
	combats map[string]*combat
	hits    map[string]int
}

func New() *Server {
	return &Server{
		players: make(map[string]*models.Player),
		combats: make(map[string]*combat),
		hits:    make(map[string]int),
	}
}

// Handler routes the service contract under prefix (e.g. "/api/v1").
func (s *Server) Handler(prefix string) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix(prefix).Subrouter()
	api.Use(s.count)
	api.HandleFunc("/players/", s.listPlayers).Methods(http.MethodGet)
	api.HandleFunc("/players/", s.createPlayer).Methods(http.MethodPost)
	api.HandleFunc("/combat/start", s.startCombat).Methods(http.MethodPost)
	api.HandleFunc("/combat/attacks/{attacker}", s.listAttacks).Methods(http.MethodGet)
	api.HandleFunc("/combat/turn", s.takeTurn).Methods(http.MethodPost)
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to LostCastle"})
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				key = r.Method + " " + tpl
			}
		}
		s.mu.Lock()
		s.hits[key]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Hits returns how many requests matched "METHOD template", e.g.
// "POST /api/v1/combat/turn".
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

// AddPlayer seeds a player with full stats for its role.
func (s *Server) AddPlayer(name string, role models.Role) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPlayerLocked(name, role)
}

// SetMana overrides a player's current mana, clamped to its maximum.
func (s *Server) SetMana(name string, mp int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[name]; ok {
		p.MP = max(0, min(mp, p.MaxMP))
	}
}

// Player returns a copy of a player.
func (s *Server) Player(name string) (models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[name]
	if !ok {
		return models.Player{}, false
	}
	return *p, true
}

func (s *Server) addPlayerLocked(name string, role models.Role) (models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Player{}, fmt.Errorf("Player name is required")
	}
	stats, ok := roles[role]
	if !ok {
		return models.Player{}, fmt.Errorf("Invalid role: %s", role)
	}
	if _, exists := s.players[name]; exists {
		return models.Player{}, fmt.Errorf("Player %s already exists", name)
	}
	p := &models.Player{
		Name: name, Role: role, Level: 1,
		HP: stats.HP, MaxHP: stats.HP,
		MP: stats.MP, MaxMP: stats.MP,
	}
	s.players[name] = p
	return *p, nil
}

func (s *Server) listPlayers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]models.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid body", "")
		return
	}
	s.mu.Lock()
	p, err := s.addPlayerLocked(req.Name, req.Role)
	s.mu.Unlock()
	if err != nil {
		status := http.StatusUnprocessableEntity
		if strings.HasSuffix(err.Error(), "already exists") {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) startCombat(w http.ResponseWriter, r *http.Request) {
	var req models.StartCombatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid body", "")
		return
	}
	if req.Player1Name == req.Player2Name {
		writeError(w, http.StatusBadRequest, "A player cannot fight themselves", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p1, ok1 := s.players[req.Player1Name]
	p2, ok2 := s.players[req.Player2Name]
	if !ok1 || !ok2 {
		writeError(w, http.StatusNotFound, "Player not found", "")
		return
	}
	for _, p := range []*models.Player{p1, p2} {
		p.HP, p.MP = p.MaxHP, p.MaxMP
	}
	c := &combat{
		ID:       uuid.NewString(),
		Players:  [2]string{p1.Name, p2.Name},
		Attacker: p1.Name,
	}
	s.combats[c.ID] = c
	writeJSON(w, http.StatusOK, models.StartCombatResponse{
		CombatID:     c.ID,
		AttackerName: c.Attacker,
		Message:      fmt.Sprintf("Combat started: %s vs %s. %s attacks first.", p1.Name, p2.Name, c.Attacker),
	})
}

func (s *Server) listAttacks(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["attacker"]
	s.mu.Lock()
	p, ok := s.players[name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Player not found", "")
		return
	}
	writeJSON(w, http.StatusOK, roles[p.Role].Attacks)
}

func (s *Server) takeTurn(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid body", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.combats[req.CombatID]
	if !ok {
		writeError(w, http.StatusNotFound, "Combat not found", "")
		return
	}
	if req.AttackerName != c.Attacker {
		writeError(w, http.StatusBadRequest, "It is not "+req.AttackerName+"'s turn", "")
		return
	}
	attacker := s.players[c.Attacker]
	defenderName := c.Players[0]
	if defenderName == c.Attacker {
		defenderName = c.Players[1]
	}
	defender := s.players[defenderName]

	var action *models.Action
	for _, a := range roles[attacker.Role].Attacks {
		if a.Name == req.AttackName {
			action = &a
			break
		}
	}
	if action == nil {
		writeError(w, http.StatusNotFound, "Attack not found", "")
		return
	}
	if attacker.MP < action.Cost {
		code := models.CodeInsufficientResource
		if s.LegacyErrors {
			code = ""
		}
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("No tienes suficiente maná para usar %s", action.Name), code)
		return
	}

	attacker.MP -= action.Cost
	defender.HP = max(0, defender.HP-action.Power)
	log := []string{fmt.Sprintf("%s uses %s on %s for %d damage.", attacker.Name, action.Name, defender.Name, action.Power)}

	if defender.HP == 0 {
		attacker.Level++
		attacker.MaxHP += 10
		attacker.MaxMP += 5
		log = append(log,
			fmt.Sprintf("%s has been defeated!", defender.Name),
			fmt.Sprintf("%s reached level %d!", attacker.Name, attacker.Level))
		delete(s.combats, c.ID)
		writeJSON(w, http.StatusOK, models.TurnResult{Log: log, SessionEnded: true})
		return
	}

	attacker.MP = min(attacker.MaxMP, attacker.MP+manaRegen)
	log = append(log, fmt.Sprintf("%s has %d HP remaining.", defender.Name, defender.HP))
	c.Attacker = defender.Name
	writeJSON(w, http.StatusOK, models.TurnResult{Log: log, NextTurn: c.Attacker})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail, code string) {
	writeJSON(w, status, models.ErrorBody{Detail: detail, Code: code})
}
