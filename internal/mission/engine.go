// Package mission generates alien pod rosters from strategy tuning tables and
// game-core character data. An Engine is built once per configuration
// snapshot and is read-only afterwards.
package mission

import (
	"strconv"
	"strings"

	"github.com/xtding233/alienpod-sim/internal/catalog"
	"github.com/xtding233/alienpod-sim/internal/structtext"
)

// DefaultSection holds every tuning key the engine reads.
const DefaultSection = "XComStrategyAIMutator.XGStrategyAI_Mod"

// ConfigSource is the read contract over the tuning store. Absent keys must
// return def unchanged; indexed keys must come back densified.
type ConfigSource interface {
	Get(section, key string, def []string) []string
}

// Engine generates missions from one configuration snapshot.
type Engine struct {
	cfg     ConfigSource
	catalog *catalog.Catalog
	perks   *catalog.PerkRegistry
	rng     RandomSource
	section string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRNG sets the source used when Generate is called with a nil source.
func WithRNG(rng RandomSource) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSection overrides the tuning section name.
func WithSection(section string) Option {
	return func(e *Engine) { e.section = section }
}

// New builds an engine. cat and perks may be nil for a tuning-only engine, in
// which case every alien uses catalog.DefaultStats.
func New(cfg ConfigSource, cat *catalog.Catalog, perks *catalog.PerkRegistry, opts ...Option) *Engine {
	if cat == nil {
		cat, _ = catalog.Load(strings.NewReader(""), nil)
	}
	if perks == nil {
		perks = catalog.NewPerkRegistry()
	}
	e := &Engine{
		cfg:     cfg,
		catalog: cat,
		perks:   perks,
		rng:     DefaultRNG(),
		section: DefaultSection,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// --- tuning reads ---

func (e *Engine) first(key, def string) string {
	vals := e.cfg.Get(e.section, key, []string{def})
	if len(vals) == 0 {
		return def
	}
	return vals[0]
}

func (e *Engine) boolVal(key string, def bool) bool {
	return strings.EqualFold(e.first(key, strconv.FormatBool(def)), "true")
}

func (e *Engine) intVal(key string, def int) (int, error) {
	raw := e.first(key, strconv.Itoa(def))
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ConfigError{Section: e.section, Key: key, Value: raw, Err: ErrNotNumeric}
	}
	return n, nil
}

func (e *Engine) floatVal(key string, def string) (float64, error) {
	raw := e.first(key, def)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ConfigError{Section: e.section, Key: key, Value: raw, Err: ErrNotNumeric}
	}
	return f, nil
}

func (e *Engine) structs(key string) []structtext.Struct {
	raw := e.cfg.Get(e.section, key, nil)
	out := make([]structtext.Struct, 0, len(raw))
	for _, r := range raw {
		out = append(out, structtext.Parse(r))
	}
	return out
}

// structInt reads an integer field of a struct stored under key.
func (e *Engine) structInt(st structtext.Struct, key, field string, def int) (int, error) {
	raw, ok := st.Get(field)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Section: e.section, Key: key, Field: field, Value: raw, Err: ErrNotNumeric}
	}
	return n, nil
}

// requireInt is structInt for fields that have no default.
func (e *Engine) requireInt(st structtext.Struct, key, field string) (int, error) {
	if !st.Has(field) {
		return 0, &ConfigError{Section: e.section, Key: key, Field: field, Value: st.String(), Err: ErrMissingField}
	}
	return e.structInt(st, key, field, 0)
}

func (e *Engine) requireString(st structtext.Struct, key, field string) (string, error) {
	v, ok := st.Get(field)
	if !ok {
		return "", &ConfigError{Section: e.section, Key: key, Field: field, Value: st.String(), Err: ErrMissingField}
	}
	return v, nil
}
