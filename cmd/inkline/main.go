package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/xonecas/inkline/config"
	"github.com/xonecas/inkline/engine"
	"github.com/xonecas/inkline/store"
	"github.com/xonecas/inkline/tui"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	storePath := flag.String("store", "", "path to snapshot database (overrides config)")
	docName := flag.String("name", "scratch", "snapshot name to edit")
	flag.Parse()

	if err := run(*configPath, *storePath, *docName); err != nil {
		fmt.Fprintf(os.Stderr, "Error running inkline: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, storePath, docName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dataDir, err := config.EnsureDataDir()
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg, dataDir)
	if err != nil {
		return err
	}
	defer closeLog()

	if storePath == "" {
		storePath = cfg.Store.Path
	}
	if storePath == "" {
		storePath = filepath.Join(dataDir, "inkline.db")
	}
	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	session := engine.NewSession(nil, cfg.EngineOptions(), logger)
	if d, err := st.Load(docName); err != nil {
		return err
	} else if d != nil {
		session.LoadDocument(d)
	}

	p := tea.NewProgram(tui.New(session, st, docName, logger))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// openLogger sets up file-backed logging. The terminal belongs to the TUI,
// so logs never go to stderr.
func openLogger(cfg *config.Config, dataDir string) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.Log.LevelOrDefault())
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level: %w", err)
	}

	path := cfg.Log.Path
	if path == "" {
		path = filepath.Join(dataDir, "inkline.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}
