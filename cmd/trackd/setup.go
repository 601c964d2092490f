package main

import (
	"fmt"

	"trackd/pkg/config"
)

// setup bundles the resolved paths and loaded configuration every
// subcommand starts from.
type setup struct {
	Paths   *Paths
	Config  *config.Config
	Tracker string // tracker repository directory
}

// loadSetup resolves paths and reads the config file.
func loadSetup() (*setup, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return nil, err
	}
	return &setup{
		Paths:   paths,
		Config:  cfg,
		Tracker: trackerDir(paths, cfg.TrackerRepo),
	}, nil
}
