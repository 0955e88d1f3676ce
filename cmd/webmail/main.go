package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/nhle/webmail/internal/app"
	"github.com/nhle/webmail/internal/credential"
	"github.com/nhle/webmail/internal/export"
	"github.com/nhle/webmail/internal/gateway"
	"github.com/nhle/webmail/internal/logging"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/state"
	"github.com/nhle/webmail/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "webmail:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	server := flag.String("server", "", "backend base URL (overrides server.base_url)")
	logLevel := flag.String("log-level", "", "log level (overrides log.level)")
	flag.Parse()

	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(*configPath); errors.Is(err, fs.ErrNotExist) {
		if err := model.SaveConfig(*configPath, cfg); err != nil {
			return err
		}
	}
	if *server != "" {
		cfg.Server.BaseURL = *server
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer db.Close()

	opts := []gateway.Option{
		gateway.WithRoutes(gateway.Routes{
			Auth:      cfg.Server.AuthRoute,
			Resources: cfg.Server.ResourcesRoute,
		}),
		gateway.WithSearchRate(cfg.Server.SearchRatePerSec),
		gateway.WithLogger(log),
	}
	if cfg.Server.RememberSession {
		sessions, err := credential.OpenSessionStore(filepath.Dir(cfg.Store.Path))
		if err != nil {
			log.WithError(err).Warn("session will not be remembered")
		} else {
			opts = append(opts, gateway.WithSessionStore(sessions))
		}
	}

	client, err := gateway.NewClient(cfg.Server.BaseURL, cfg.Server.Timeout(), opts...)
	if err != nil {
		return err
	}
	if err := client.RestoreSession(); err != nil {
		log.WithError(err).Warn("ignoring saved session")
	}

	bridge := app.NewBridge()
	thunks := state.NewThunks(state.NewStore(), client, bridge, bridge, log)

	root := app.New(app.Options{
		Thunks:     thunks,
		Bridge:     bridge,
		Store:      db,
		Exporter:   export.NewExporter(cfg.Export.Dir, cfg.Export.Domain),
		Logger:     log,
		DateFormat: cfg.Display.DateFormat,
	})
	defer root.Close()

	log.WithFields(logrus.Fields{
		"server": cfg.Server.BaseURL,
		"config": *configPath,
	}).Info("starting")

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
