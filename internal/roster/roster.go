// Package roster mirrors the service's player list.
package roster

import (
	"context"
	"sort"
	"sync"

	"github.com/tatianab/lostcastle/internal/models"
)

// Source lists the service's current players.
type Source interface {
	ListPlayers(ctx context.Context) ([]models.Player, error)
}

// Cache is a read-only snapshot of the roster keyed by player name. Each
// successful Refresh replaces the snapshot wholesale; a failed one leaves it
// untouched.
type Cache struct {
	src Source

	mu      sync.RWMutex
	players map[string]models.Player
	started uint64 // refreshes issued
	applied uint64 // generation of the current snapshot
}

func New(src Source) *Cache {
	return &Cache{src: src, players: map[string]models.Player{}}
}

// Refresh fetches the full player list and swaps it in, unless a refresh
// issued later has already landed.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.started++
	gen := c.started
	c.mu.Unlock()

	list, err := c.src.ListPlayers(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]models.Player, len(list))
	for _, p := range list {
		next[p.Name] = p
	}
	c.mu.Lock()
	if gen > c.applied {
		c.players = next
		c.applied = gen
	}
	c.mu.Unlock()
	return nil
}

// Get returns the cached player with the given name.
func (c *Cache) Get(name string) (models.Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.players[name]
	return p, ok
}

// List returns every cached player sorted by name.
func (c *Cache) List() []models.Player {
	c.mu.RLock()
	out := make([]models.Player, 0, len(c.players))
	for _, p := range c.players {
		out = append(out, p)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
