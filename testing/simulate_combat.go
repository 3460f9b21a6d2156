package main

import (
	"context"
	"fmt"
	"log"

	"github.com/tatianab/lostcastle/internal/autopilot"
	"github.com/tatianab/lostcastle/internal/combat"
	"github.com/tatianab/lostcastle/internal/config"
	"github.com/tatianab/lostcastle/internal/failure"
	"github.com/tatianab/lostcastle/internal/i18n"
	"github.com/tatianab/lostcastle/internal/models"
	"github.com/tatianab/lostcastle/internal/oplog"
	"github.com/tatianab/lostcastle/internal/transport"
)

const maxTurns = 60

var contenders = []struct {
	name string
	role models.Role
}{
	{"Merlin", models.RoleMage},
	{"Robin", models.RoleArcher},
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	p := i18n.Printer(cfg.Locale)
	opLog := oplog.New()
	client := transport.NewClient(cfg.BaseURL(), opLog, transport.WithTimeout(cfg.HTTPTimeout), transport.WithPrinter(p))
	ctrl := combat.NewController(client, opLog, combat.WithPrinter(p))

	var chooser autopilot.Chooser = autopilot.Strongest{}
	if cfg.GeminiAPIKey != "" {
		g, err := autopilot.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Gemini chooser: %v", err)
		}
		defer g.Close()
		chooser = g
	}

	// 1. Make sure both contenders exist
	fmt.Println("--- Step 1: Loading roster ---")
	if err := ctrl.RefreshRoster(ctx); err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}
	for _, c := range contenders {
		if _, ok := ctrl.Player(c.name); ok {
			continue
		}
		if _, err := ctrl.CreatePlayer(ctx, c.name, c.role); err != nil {
			log.Fatalf("Failed to create %s: %v", c.name, err)
		}
	}

	// 2. Start the combat
	fmt.Println("--- Step 2: Starting combat ---")
	if _, err := ctrl.Start(ctx, contenders[0].name, contenders[1].name); err != nil {
		log.Fatalf("Failed to start combat: %v", err)
	}

	// 3. Play it out
	fmt.Printf("--- Step 3: Playing with %s ---\n", chooser.Name())
	turns, err := autopilot.Play(ctx, ctrl, chooser, maxTurns)
	for _, e := range opLog.Entries() {
		if e.Level == oplog.LevelError {
			fmt.Printf("! %s\n", e.Text)
			continue
		}
		fmt.Println(e.Text)
	}
	fmt.Println()
	if err != nil {
		fmt.Printf("Play stopped after %d turns: %v (%s)\n", turns, err, failure.KindOf(err))
		return
	}
	if ctrl.Session() != nil {
		fmt.Printf("No winner after %d turns.\n", turns)
		return
	}
	fmt.Printf("Combat over after %d turns.\n", turns)
	for _, pl := range ctrl.Players() {
		fmt.Printf("%s (%s L%d) HP:%d/%d MP:%d/%d\n", pl.Name, pl.Role, pl.Level, pl.HP, pl.MaxHP, pl.MP, pl.MaxMP)
	}
}
