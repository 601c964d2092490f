// Package config loads the trackd configuration file. All paths and
// thresholds are static per run; there is no dynamic reconfiguration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from either a duration string
// ("90s", "5m") or a bare number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// AgentDir points at one agent's session directory.
type AgentDir struct {
	Name     string `yaml:"name"`
	Sessions string `yaml:"sessions"`
}

// AgentInfo is display metadata for an agent in status output.
type AgentInfo struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Emoji string `yaml:"emoji"`
}

// Config is the trackd configuration, read from config.yaml in the trackd
// home directory.
type Config struct {
	// TrackerRepo is the git repository holding the activity store,
	// metadata records and task queue.
	TrackerRepo string `yaml:"tracker_repo"`

	// SessionsRoot, when set, discovers agent session directories at
	// <root>/<agent>/sessions. Explicit Agents entries are appended.
	SessionsRoot string     `yaml:"sessions_root"`
	Agents       []AgentDir `yaml:"agents"`

	// Repos are git working copies scanned for new commits.
	Repos []string `yaml:"repos"`

	// ProjectNames overrides the project name derived for a repo
	// directory name.
	ProjectNames map[string]string `yaml:"project_names"`

	// Roster is per-agent display metadata.
	Roster map[string]AgentInfo `yaml:"roster"`

	StalenessDays int      `yaml:"staleness_days"`
	Interval      Duration `yaml:"interval"`

	// Push controls the best-effort publish hook after a merge.
	Push   bool   `yaml:"push"`
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StalenessDays: 7,
		Interval:      Duration(5 * time.Minute),
		Remote:        "origin",
		Branch:        "main",
	}
}

// Load reads the config file at path, applying defaults for unset fields.
// A missing file returns the defaults; a malformed file is an error, since
// silently ignoring a broken config would scan the wrong directories.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.StalenessDays <= 0 {
		cfg.StalenessDays = 7
	}
	if cfg.Interval <= 0 {
		cfg.Interval = Duration(5 * time.Minute)
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}

	cfg.TrackerRepo = expandHome(cfg.TrackerRepo)
	cfg.SessionsRoot = expandHome(cfg.SessionsRoot)
	for i := range cfg.Agents {
		cfg.Agents[i].Sessions = expandHome(cfg.Agents[i].Sessions)
	}
	for i := range cfg.Repos {
		cfg.Repos[i] = expandHome(cfg.Repos[i])
	}
	return cfg, nil
}

// SessionDirs resolves the configured agent session directories. With a
// sessions root, each subdirectory is an agent owning <agent>/sessions.
func (c *Config) SessionDirs() []AgentDir {
	var dirs []AgentDir
	if c.SessionsRoot != "" {
		entries, err := os.ReadDir(c.SessionsRoot)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				dirs = append(dirs, AgentDir{
					Name:     e.Name(),
					Sessions: filepath.Join(c.SessionsRoot, e.Name(), "sessions"),
				})
			}
		}
	}
	dirs = append(dirs, c.Agents...)
	return dirs
}

// Staleness returns the staleness threshold as a duration.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.StalenessDays) * 24 * time.Hour
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
