package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/xtding233/alienpod-sim/internal/catalog"
	"github.com/xtding233/alienpod-sim/internal/ini"
	"github.com/xtding233/alienpod-sim/internal/mission"
)

// LoadSettings reads a settings file and merges it over Defaults. An empty
// path or a missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	def := Defaults()
	if path == "" {
		return def, nil
	}
	fileCfg, err := readYAML(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	merged := mergeSettings(def, fileCfg)
	if err := ValidateSettings(merged); err != nil {
		return Settings{}, err
	}
	return merged, nil
}

// readYAML loads a YAML file into Settings. Missing files return zero cfg, no error.
func readYAML(path string) (Settings, error) {
	var cfg Settings
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// mergeSettings overlays b on a wherever b is set.
func mergeSettings(a, b Settings) Settings {
	out := a

	if b.Server.HTTPAddr != "" {
		out.Server.HTTPAddr = b.Server.HTTPAddr
	}
	if b.Server.GRPCAddr != "" {
		out.Server.GRPCAddr = b.Server.GRPCAddr
	}

	if b.Sources.StrategyINI != "" {
		out.Sources.StrategyINI = b.Sources.StrategyINI
	}
	if b.Sources.GameCoreINI != "" {
		out.Sources.GameCoreINI = b.Sources.GameCoreINI
	}
	if b.Sources.PerksFile != "" {
		out.Sources.PerksFile = b.Sources.PerksFile
	}

	if b.Engine.Seed != nil {
		seed := *b.Engine.Seed
		out.Engine.Seed = &seed
	}
	if b.Engine.Section != "" {
		out.Engine.Section = b.Engine.Section
	}
	out.Engine.StrictValidation = a.Engine.StrictValidation || b.Engine.StrictValidation

	if b.Watch.Enabled != nil {
		on := *b.Watch.Enabled
		out.Watch.Enabled = &on
	}
	if b.Watch.IntervalMS != 0 {
		out.Watch.IntervalMS = b.Watch.IntervalMS
	}

	if b.Log.Level != "" {
		out.Log.Level = b.Log.Level
	}
	return out
}

// Snapshot is one immutable view of the tuning store and character data.
// Handlers hold a *Snapshot for the length of a request; a reload swaps in a
// new one instead of mutating it.
type Snapshot struct {
	Revision string
	LoadedAt time.Time
	Store    *ini.Store
	Catalog  *catalog.Catalog
	Perks    *catalog.PerkRegistry
	Findings []Finding
	section  string
}

// Section is the tuning section the snapshot's engines read.
func (s *Snapshot) Section() string { return s.section }

// Engine builds a generator over the snapshot's store.
func (s *Snapshot) Engine(opts ...mission.Option) *mission.Engine {
	return s.EngineFor(s.Store, opts...)
}

// EngineFor builds a generator over store with the snapshot's character data.
// Used for draft simulations that never touch disk.
func (s *Snapshot) EngineFor(store *ini.Store, opts ...mission.Option) *mission.Engine {
	opts = append([]mission.Option{mission.WithSection(s.section)}, opts...)
	return mission.New(store, s.Catalog, s.Perks, opts...)
}

// Loader reads the source files into snapshots and caches the last one.
type Loader struct {
	sources SourceConfig
	section string
	strict  bool

	mu     sync.RWMutex
	cached *Snapshot
}

// NewLoader creates a snapshot loader for the given settings.
func NewLoader(s Settings) *Loader {
	section := s.Engine.Section
	if section == "" {
		section = mission.DefaultSection
	}
	return &Loader{sources: s.Sources, section: section, strict: s.Engine.StrictValidation}
}

// Manager returns the store manager for the tuning file.
func (l *Loader) Manager() *ini.Manager { return ini.NewManager(l.sources.StrategyINI) }

// Paths lists the files a snapshot depends on, for the watcher.
func (l *Loader) Paths() []string {
	paths := []string{l.sources.StrategyINI, l.sources.GameCoreINI}
	if l.sources.PerksFile != "" {
		paths = append(paths, l.sources.PerksFile)
	}
	return paths
}

// Current returns the cached snapshot, loading one if needed.
func (l *Loader) Current() (*Snapshot, error) {
	l.mu.RLock()
	snap := l.cached
	l.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return l.Reload()
}

// Reload reads every source file and replaces the cached snapshot. On error
// the previous snapshot stays cached.
func (l *Loader) Reload() (*Snapshot, error) {
	perks := catalog.NewPerkRegistry()
	if l.sources.PerksFile != "" {
		if err := perks.LoadPerkFile(l.sources.PerksFile); err != nil {
			return nil, err
		}
	}
	store, err := l.Manager().Load()
	if err != nil {
		return nil, fmt.Errorf("read strategy config: %w", err)
	}
	cat, err := catalog.LoadFile(l.sources.GameCoreINI, perks)
	if err != nil {
		return nil, fmt.Errorf("read game core: %w", err)
	}

	findings, _ := ValidateStore(store, l.section)
	findings = append(findings, CheckCharacters(store, l.section, cat)...)
	verr := joinFindings(findings)
	for _, f := range findings {
		slog.Warn("config finding", "key", f.Key, "problem", f.Message)
	}
	if verr != nil && l.strict {
		return nil, verr
	}

	snap := &Snapshot{
		Revision: uuid.NewString(),
		LoadedAt: time.Now(),
		Store:    store,
		Catalog:  cat,
		Perks:    perks,
		Findings: findings,
		section:  l.section,
	}
	l.mu.Lock()
	l.cached = snap
	l.mu.Unlock()
	slog.Info("snapshot loaded", "revision", snap.Revision, "characters", len(cat.CharacterTypes()), "findings", len(findings))
	return snap, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}
