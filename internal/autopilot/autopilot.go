// Package autopilot picks actions on the operator's behalf.
package autopilot

import (
	"context"
	"errors"
	"fmt"

	"github.com/tatianab/lostcastle/internal/affordance"
	"github.com/tatianab/lostcastle/internal/combat"
	"github.com/tatianab/lostcastle/internal/failure"
	"github.com/tatianab/lostcastle/internal/models"
)

// ErrNoChoice is returned when no action is currently affordable.
var ErrNoChoice = errors.New("no affordable action")

// Turn is what a Chooser sees.
type Turn struct {
	Attacker models.Player
	Opponent models.Player // Zero when not in the roster
	Options  []affordance.Option
}

// Chooser picks the name of one enabled action.
type Chooser interface {
	Name() string
	Choose(ctx context.Context, turn Turn) (string, error)
}

// Strongest picks the enabled action with the most power, the first one on
// ties.
type Strongest struct{}

func (Strongest) Name() string { return "strongest" }

func (Strongest) Choose(_ context.Context, turn Turn) (string, error) {
	var best *models.Action
	for i, o := range turn.Options {
		if !o.Enabled {
			continue
		}
		if best == nil || o.Action.Power > best.Power {
			best = &turn.Options[i].Action
		}
	}
	if best == nil {
		return "", ErrNoChoice
	}
	return best.Name, nil
}

// TurnFor builds the chooser's view of the controller's current menu.
func TurnFor(c *combat.Controller, menu combat.Menu) Turn {
	turn := Turn{Attacker: menu.Attacker, Options: menu.Options}
	if s := c.Session(); s != nil {
		for _, name := range s.Combatants {
			if name != menu.AttackerName {
				turn.Opponent, _ = c.Player(name)
			}
		}
	}
	return turn
}

// Play drives the active session until it ends or maxTurns actions have been
// submitted. Resource failures count as turns and are retried by choosing
// again; any other failure stops play.
func Play(ctx context.Context, c *combat.Controller, ch Chooser, maxTurns int) (int, error) {
	turns := 0
	refreshed := false
	for c.Session() != nil && turns < maxTurns {
		menu, err := c.FetchMenu(ctx)
		if err != nil {
			return turns, err
		}
		if menu.Stale {
			continue
		}
		if menu.Deferred {
			if refreshed {
				return turns, fmt.Errorf("attacker %s is not in the roster", menu.AttackerName)
			}
			refreshed = true
			if err := c.RefreshRoster(ctx); err != nil {
				return turns, err
			}
			continue
		}
		refreshed = false

		pick, err := ch.Choose(ctx, TurnFor(c, menu))
		if err != nil {
			return turns, fmt.Errorf("choose action for %s: %w", menu.AttackerName, err)
		}
		turns++
		if _, err := c.Submit(ctx, pick); err != nil && !errors.Is(err, failure.ErrResource) {
			return turns, err
		}
	}
	return turns, nil
}
