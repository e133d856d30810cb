// types.go
package config

import "log/slog"

// Settings is the server settings file; mirrors settings.yaml.
type Settings struct {
	Server  ServerConfig `yaml:"server"`
	Sources SourceConfig `yaml:"sources"`
	Engine  EngineConfig `yaml:"engine"`
	Watch   WatchConfig  `yaml:"watch"`
	Log     LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// SourceConfig names the files a snapshot is built from.
type SourceConfig struct {
	StrategyINI string `yaml:"strategy_ini"`
	GameCoreINI string `yaml:"game_core_ini"`
	PerksFile   string `yaml:"perks_file,omitempty"` // optional YAML perk names
}

type EngineConfig struct {
	Seed             *uint64 `yaml:"seed,omitempty"` // nil: crypto-seeded draws
	Section          string  `yaml:"section,omitempty"`
	StrictValidation bool    `yaml:"strict_validation"`
}

type WatchConfig struct {
	Enabled    *bool `yaml:"enabled,omitempty"`
	IntervalMS int   `yaml:"interval_ms"`
}

// On reports whether hot reload is enabled; unset means on.
func (w WatchConfig) On() bool { return w.Enabled == nil || *w.Enabled }

type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel maps the configured level; unknown values fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	if lv, ok := logLevels[l.Level]; ok {
		return lv
	}
	return slog.LevelInfo
}

// Defaults returns the settings used when no file overrides them.
func Defaults() Settings {
	return Settings{
		Server: ServerConfig{HTTPAddr: ":5001", GRPCAddr: ":5002"},
		Sources: SourceConfig{
			StrategyINI: "configs/DefaultStrategyAIMod.ini",
			GameCoreINI: "configs/other/DefaultGameCore.ini",
		},
		Watch: WatchConfig{IntervalMS: 2000},
		Log:   LogConfig{Level: "info"},
	}
}
