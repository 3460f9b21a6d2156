package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tatianab/lostcastle/internal/autopilot"
	"github.com/tatianab/lostcastle/internal/combat"
	"github.com/tatianab/lostcastle/internal/config"
	"github.com/tatianab/lostcastle/internal/i18n"
	"github.com/tatianab/lostcastle/internal/models"
	"github.com/tatianab/lostcastle/internal/oplog"
	"github.com/tatianab/lostcastle/internal/transport"
	"github.com/tatianab/lostcastle/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	models.SaveDir = cfg.SaveDir

	// The alt screen owns stdout, so log lines go to a file or nowhere.
	if cfg.DebugLog != "" {
		f, err := tea.LogToFile(cfg.DebugLog, "lostcastle")
		if err != nil {
			fmt.Printf("Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	p := i18n.Printer(cfg.Locale)
	opLog := oplog.New()
	client := transport.NewClient(cfg.BaseURL(), opLog,
		transport.WithTimeout(cfg.HTTPTimeout),
		transport.WithPrinter(p),
	)
	ctrl := combat.NewController(client, opLog, combat.WithPrinter(p))

	var chooser autopilot.Chooser = autopilot.Strongest{}
	if cfg.GeminiAPIKey != "" {
		g, err := autopilot.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			fmt.Printf("Error creating autopilot: %v\n", err)
			os.Exit(1)
		}
		defer g.Close()
		chooser = g
	}

	if err := tui.Run(ctrl, opLog, p, chooser); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
