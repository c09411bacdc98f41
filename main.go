package main

import (
	"fmt"
	"os"

	"call-trace/internal/calls"
	"call-trace/internal/config"
	"call-trace/internal/export"
	"call-trace/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "call-trace:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	store, err := calls.Open(cfg.DBPath, cfg.Reset)
	if err != nil {
		return err
	}
	defer store.Close()

	exporter, err := export.New(cfg.ExportDir)
	if err != nil {
		return err
	}

	m := ui.NewModel(cfg, store, exporter)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
