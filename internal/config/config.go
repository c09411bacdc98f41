package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

const DefaultGlamourStyle = "dark"

type AppConfig struct {
	DBPath    string
	ExportDir string
	Demo      bool
	Reset     bool
}

func Parse() (AppConfig, error) {
	var cfg AppConfig

	flag.StringVar(&cfg.DBPath, "db-path", "", "path to the SQLite call database")
	flag.StringVar(&cfg.ExportDir, "export-dir", "", "override export output directory")
	flag.BoolVar(&cfg.Demo, "demo", false, "load the bundled demo call dataset")
	flag.BoolVar(&cfg.Reset, "reset", false, "drop and recreate the call database")
	flag.Parse()

	if cfg.DBPath == "" {
		path, err := DetectDBPath()
		if err != nil {
			return cfg, err
		}
		cfg.DBPath = path
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return cfg, fmt.Errorf("create db dir: %w", err)
	}

	return cfg, nil
}

func DetectDBPath() (string, error) {
	if fromEnv := os.Getenv("CALL_TRACE_DB"); fromEnv != "" {
		return filepath.Clean(fromEnv), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "call-trace", "calls.sqlite"), nil
}
