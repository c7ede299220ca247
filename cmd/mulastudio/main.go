package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/config"
	"github.com/dolphinheart/mulastudio/internal/core"
	"github.com/dolphinheart/mulastudio/internal/database"
	"github.com/dolphinheart/mulastudio/internal/logging"
	"github.com/dolphinheart/mulastudio/internal/pagestate"
	"github.com/dolphinheart/mulastudio/internal/secrets"
	"github.com/dolphinheart/mulastudio/internal/views"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	// stderr belongs to the alt screen, so default to a file
	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(cfg.Database.Path), "mulastudio.log")
	}
	logger, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, Path: logPath})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closeLog.Close()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	state := pagestate.NewStore(pagestate.NewSQLiteTier(db), pagestate.WithLogger(logger))

	client := api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithTokenSource(func() string {
			token, err := secrets.FetchToken()
			if err != nil {
				logger.Warn("reading stored token", "error", err)
				return ""
			}
			return token
		}),
	)

	set := []core.View{
		views.NewLibraryView(state),
		views.NewStudioView(state),
		views.NewTranscribeView(state),
		views.NewAudioLabView(state),
	}
	keys := core.NewKeyRegistry(core.DefaultBindings())
	model := core.NewModel(ctx, set, keys, client, state, cfg, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}
