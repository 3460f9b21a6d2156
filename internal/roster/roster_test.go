package roster

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/tatianab/lostcastle/internal/models"
)

type fakeSource struct {
	players []models.Player
	err     error
	calls   int
}

func (f *fakeSource) ListPlayers(context.Context) ([]models.Player, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.players, nil
}

func TestRefreshReplacesWholesale(t *testing.T) {
	src := &fakeSource{players: []models.Player{
		{Name: "Bob", MP: 10},
		{Name: "Alice", MP: 5},
	}}
	c := New(src)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if p, ok := c.Get("Alice"); !ok || p.MP != 5 {
		t.Fatalf("Get(Alice) = %+v, %v", p, ok)
	}

	src.players = []models.Player{{Name: "Carol", MP: 1}}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, ok := c.Get("Alice"); ok {
		t.Errorf("Alice survived a refresh that did not list her")
	}
	if n := len(c.List()); n != 1 {
		t.Errorf("List() has %d players, want 1", n)
	}
}

func TestFailedRefreshKeepsSnapshot(t *testing.T) {
	src := &fakeSource{players: []models.Player{{Name: "Alice", MP: 5}}}
	c := New(src)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("connection refused")
	src.err = boom
	if err := c.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Refresh err = %v, want %v", err, boom)
	}
	if p, ok := c.Get("Alice"); !ok || p.MP != 5 {
		t.Errorf("snapshot changed after failed refresh: %+v, %v", p, ok)
	}
}

func TestListSortedByName(t *testing.T) {
	src := &fakeSource{players: []models.Player{{Name: "Carol"}, {Name: "Alice"}, {Name: "Bob"}}}
	c := New(src)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := c.List()
	want := []string{"Alice", "Bob", "Carol"}
	for i, p := range got {
		if p.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

// gatedSource answers each call with its own player list once released.
type gatedSource struct {
	lists [][]models.Player
	gates []chan struct{}
	next  chan int
}

func (g *gatedSource) ListPlayers(context.Context) ([]models.Player, error) {
	i := <-g.next
	<-g.gates[i]
	return g.lists[i], nil
}

func TestOlderRefreshDoesNotOverwriteNewer(t *testing.T) {
	src := &gatedSource{
		lists: [][]models.Player{
			{{Name: "Alice", MP: 40}},
			{{Name: "Alice", MP: 30}},
		},
		gates: []chan struct{}{make(chan struct{}), make(chan struct{})},
		next:  make(chan int, 2),
	}
	c := New(src)

	src.next <- 0
	first := make(chan error)
	go func() { first <- c.Refresh(context.Background()) }()

	// The first refresh has its generation once it is waiting on its gate.
	for len(src.next) > 0 {
		runtime.Gosched()
	}

	src.next <- 1
	close(src.gates[1])
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	close(src.gates[0])
	if err := <-first; err != nil {
		t.Fatalf("first Refresh: %v", err)
	}

	if p, _ := c.Get("Alice"); p.MP != 30 {
		t.Errorf("Alice MP = %d, want 30 from the newer refresh", p.MP)
	}
}
