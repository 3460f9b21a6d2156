// Package affordance decides which actions the current attacker may choose.
package affordance

import "github.com/tatianab/lostcastle/internal/models"

// Option is an action paired with whether it can be selected right now.
type Option struct {
	Action  models.Action
	Enabled bool
}

// Resolve enables an action iff the attacker's current mana covers its cost.
// Order is preserved.
func Resolve(attacker models.Player, actions []models.Action) []Option {
	out := make([]Option, len(actions))
	for i, a := range actions {
		out[i] = Option{Action: a, Enabled: attacker.MP >= a.Cost}
	}
	return out
}

// Enabled returns only the selectable actions.
func Enabled(opts []Option) []models.Action {
	var out []models.Action
	for _, o := range opts {
		if o.Enabled {
			out = append(out, o.Action)
		}
	}
	return out
}

// Find returns the option named name.
func Find(opts []Option, name string) (Option, bool) {
	for _, o := range opts {
		if o.Action.Name == name {
			return o, true
		}
	}
	return Option{}, false
}
