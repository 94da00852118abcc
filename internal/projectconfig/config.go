// Package projectconfig provides the ProjectConfig struct and loader for
// .care.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".care.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultFeedbackDelay   = playback.DefaultFeedbackDelay
	DefaultOverlayDuration = playback.DefaultOverlayDuration
	DefaultSpeed           = 1.0

	DefaultHistoryDB   = ".care/history.db"
	DefaultSessionLogs = ".care/sessions"
	DefaultScriptsDir  = "scripts/"

	DefaultServerPort = 3000
)

// PlaybackConfig holds engine timing and run behavior.
type PlaybackConfig struct {
	FeedbackDelay   time.Duration `yaml:"feedback_delay,omitempty"`
	OverlayDuration time.Duration `yaml:"overlay_duration,omitempty"`
	Speed           float64       `yaml:"speed,omitempty"`
	AutoStop        *bool         `yaml:"auto_stop,omitempty"`
	SessionLog      *bool         `yaml:"session_log,omitempty"`
	CompressLogs    *bool         `yaml:"compress_logs,omitempty"`
}

// PathsConfig holds file locations.
type PathsConfig struct {
	HistoryDB   string `yaml:"history_db,omitempty"`
	SessionLogs string `yaml:"session_logs,omitempty"`
	Scripts     string `yaml:"scripts,omitempty"`
}

// ServerConfig holds web API settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .care.yaml.
type ProjectConfig struct {
	Playback PlaybackConfig `yaml:"playback,omitempty"`
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Agent    models.Agent   `yaml:"agent,omitempty"`
}

// envConfig lists the CARE_* environment overrides. Unset variables leave
// the zero value, which mergeConfig skips.
type envConfig struct {
	FeedbackDelay   time.Duration `env:"CARE_FEEDBACK_DELAY"`
	OverlayDuration time.Duration `env:"CARE_OVERLAY_DURATION"`
	Speed           float64       `env:"CARE_SPEED"`
	AutoStop        *bool         `env:"CARE_AUTO_STOP"`
	SessionLog      *bool         `env:"CARE_SESSION_LOG"`
	CompressLogs    *bool         `env:"CARE_COMPRESS_LOGS"`
	HistoryDB       string        `env:"CARE_HISTORY_DB"`
	SessionLogs     string        `env:"CARE_SESSION_LOGS"`
	Scripts         string        `env:"CARE_SCRIPTS"`
	Port            int           `env:"CARE_PORT"`
	AgentID         string        `env:"CARE_AGENT_ID"`
	AgentName       string        `env:"CARE_AGENT_NAME"`
	AgentBranch     string        `env:"CARE_AGENT_BRANCH"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Playback: PlaybackConfig{
			FeedbackDelay:   DefaultFeedbackDelay,
			OverlayDuration: DefaultOverlayDuration,
			Speed:           DefaultSpeed,
			AutoStop:        boolPtr(false),
			SessionLog:      boolPtr(true),
			CompressLogs:    boolPtr(false),
		},
		Paths: PathsConfig{
			HistoryDB:   DefaultHistoryDB,
			SessionLogs: DefaultSessionLogs,
			Scripts:     DefaultScriptsDir,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Load finds .care.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills in missing fields with defaults and finally applies
// CARE_* environment overrides.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	switch {
	case err == nil:
		var fileCfg ProjectConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
		mergeConfig(cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	overrides, err := parseEnv()
	if err != nil {
		return nil, err
	}
	mergeConfig(cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *ProjectConfig) Validate() error {
	if c.Playback.FeedbackDelay <= 0 {
		return fmt.Errorf("playback.feedback_delay must be positive, got %s", c.Playback.FeedbackDelay)
	}
	if c.Playback.OverlayDuration <= 0 {
		return fmt.Errorf("playback.overlay_duration must be positive, got %s", c.Playback.OverlayDuration)
	}
	if c.Playback.Speed <= 0 {
		return fmt.Errorf("playback.speed must be positive, got %g", c.Playback.Speed)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// EngineConfig returns the playback engine timing.
func (c *ProjectConfig) EngineConfig() playback.Config {
	return playback.Config{
		FeedbackDelay:   c.Playback.FeedbackDelay,
		OverlayDuration: c.Playback.OverlayDuration,
	}
}

// Marshal renders the configuration as .care.yaml content.
func (c *ProjectConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", FileName, err)
	}
	return data, nil
}

func parseEnv() (*ProjectConfig, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &ProjectConfig{
		Playback: PlaybackConfig{
			FeedbackDelay:   e.FeedbackDelay,
			OverlayDuration: e.OverlayDuration,
			Speed:           e.Speed,
			AutoStop:        e.AutoStop,
			SessionLog:      e.SessionLog,
			CompressLogs:    e.CompressLogs,
		},
		Paths: PathsConfig{
			HistoryDB:   e.HistoryDB,
			SessionLogs: e.SessionLogs,
			Scripts:     e.Scripts,
		},
		Server: ServerConfig{Port: e.Port},
		Agent:  models.Agent{ID: e.AgentID, Name: e.AgentName, Branch: e.AgentBranch},
	}, nil
}

// findConfigFile walks up from dir looking for .care.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Playback
	if src.Playback.FeedbackDelay != 0 {
		dst.Playback.FeedbackDelay = src.Playback.FeedbackDelay
	}
	if src.Playback.OverlayDuration != 0 {
		dst.Playback.OverlayDuration = src.Playback.OverlayDuration
	}
	if src.Playback.Speed != 0 {
		dst.Playback.Speed = src.Playback.Speed
	}
	if src.Playback.AutoStop != nil {
		dst.Playback.AutoStop = src.Playback.AutoStop
	}
	if src.Playback.SessionLog != nil {
		dst.Playback.SessionLog = src.Playback.SessionLog
	}
	if src.Playback.CompressLogs != nil {
		dst.Playback.CompressLogs = src.Playback.CompressLogs
	}

	// Paths
	if src.Paths.HistoryDB != "" {
		dst.Paths.HistoryDB = src.Paths.HistoryDB
	}
	if src.Paths.SessionLogs != "" {
		dst.Paths.SessionLogs = src.Paths.SessionLogs
	}
	if src.Paths.Scripts != "" {
		dst.Paths.Scripts = src.Paths.Scripts
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}

	// Agent
	if src.Agent.ID != "" {
		dst.Agent.ID = src.Agent.ID
	}
	if src.Agent.Name != "" {
		dst.Agent.Name = src.Agent.Name
	}
	if src.Agent.Branch != "" {
		dst.Agent.Branch = src.Agent.Branch
	}
}

func boolPtr(b bool) *bool {
	return &b
}
