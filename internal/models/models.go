package models

// Role is a player's class, fixed at creation.
type Role string

const (
	RoleWarrior Role = "warrior"
	RoleMage    Role = "mage"
	RoleArcher  Role = "archer"
)

// Roles lists the roles the service accepts, in display order.
var Roles = []Role{RoleWarrior, RoleMage, RoleArcher}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Player is the service's view of a combatant.
type Player struct {
	Name  string `json:"name" yaml:"name"`
	Role  Role   `json:"role" yaml:"role"`
	Level int    `json:"level" yaml:"level"`
	HP    int    `json:"hp" yaml:"hp"`
	MaxHP int    `json:"max_hp" yaml:"max_hp"`
	MP    int    `json:"mp" yaml:"mp"`
	MaxMP int    `json:"max_mp" yaml:"max_mp"`
}

// Action is an attack available to the current attacker.
type Action struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"` // e.g. "physical", "magical"
	Power int    `json:"power" yaml:"power"`
	Cost  int    `json:"cost" yaml:"cost"` // Mana price
}

// CreatePlayerRequest is the body of POST /players/.
type CreatePlayerRequest struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// StartCombatRequest is the body of POST /combat/start.
type StartCombatRequest struct {
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
}

// StartCombatResponse is returned by POST /combat/start.
type StartCombatResponse struct {
	CombatID     string `json:"combat_id"`
	AttackerName string `json:"attacker_name"`
	Message      string `json:"message"`
}

// TurnRequest is the body of POST /combat/turn.
type TurnRequest struct {
	CombatID     string `json:"combat_id"`
	AttackerName string `json:"attacker_name"`
	AttackName   string `json:"attack_name"`
}

// TurnResult is returned by POST /combat/turn on success.
type TurnResult struct {
	Log          []string `json:"log"`
	SessionEnded bool     `json:"session_ended"`
	NextTurn     string   `json:"next_turn,omitempty"`
}

// ErrorBody is the payload of any non-success response.
type ErrorBody struct {
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

// CodeInsufficientResource marks a turn rejected for lack of mana.
const CodeInsufficientResource = "insufficient_resource"

// CombatSession is the single combat the client is driving.
type CombatSession struct {
	CombatID     string   `yaml:"combat_id"`
	AttackerName string   `yaml:"attacker_name"`
	Combatants   []string `yaml:"combatants"`
	Actions      []Action `yaml:"actions,omitempty"`
}

// Involves reports whether name is one of the two original combatants.
func (s *CombatSession) Involves(name string) bool {
	for _, c := range s.Combatants {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *CombatSession) Clone() *CombatSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Combatants = append([]string(nil), s.Combatants...)
	c.Actions = append([]Action(nil), s.Actions...)
	return &c
}
