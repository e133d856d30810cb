// Package catalog indexes the game-core character data the mission engine
// needs: base stats per character type and the ordered list of balance mods.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/xtding233/alienpod-sim/internal/structtext"
)

const (
	characterPrefix = "Characters="
	upgradeMarker   = "BalanceMods_Hard="
)

// BaseStats are the unmodified stats of one character type.
type BaseStats struct {
	HP      int `json:"hp"`
	Offense int `json:"offense"`
	Will    int `json:"will"`
}

// DefaultStats is used for character types missing from the catalog.
var DefaultStats = BaseStats{HP: 1, Offense: 50, Will: 10}

// Upgrade is one balance mod line. Packed carries the legacy iCritHit field,
// which encodes a leader level and a research threshold; PerkID comes from
// the iMobility field.
type Upgrade struct {
	CharType string
	HP       int
	Aim      int
	Will     int
	Damage   int
	Packed   int
	PerkID   int
}

// DecodePacked splits a packed field into level (last two digits) and research
// threshold (the rest). Negative inputs use floored division so that the level
// stays in 0..99.
func DecodePacked(packed int) (level, threshold int) {
	level = packed % 100
	threshold = packed / 100
	if level < 0 {
		level += 100
		threshold--
	}
	return level, threshold
}

// Level is the leader level this upgrade is tied to; 15 and above means "any".
func (u Upgrade) Level() int {
	l, _ := DecodePacked(u.Packed)
	return l
}

// ResearchThreshold is the research needed for an unconditional upgrade.
func (u Upgrade) ResearchThreshold() int {
	_, t := DecodePacked(u.Packed)
	return t
}

// Catalog is immutable after Load.
type Catalog struct {
	stats    map[string]BaseStats
	upgrades []Upgrade
}

// LineError points at the offending game-core line.
type LineError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("game core line %d: field %s=%q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// LoadFile opens path and calls Load.
func LoadFile(path string, perks *PerkRegistry) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, perks)
}

// Load scans game-core text. Character definitions with an iType are recorded
// (the last definition of a type wins). Every balance mod line is kept in
// order; when it carries a comment and a positive iMobility perk id that perks
// does not know yet, the comment up to the first '?' or '.' becomes the perk name.
func Load(r io.Reader, perks *PerkRegistry) (*Catalog, error) {
	c := &Catalog{stats: make(map[string]BaseStats)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if strings.HasPrefix(strings.TrimSpace(line), characterPrefix) {
			_, body, _ := strings.Cut(line, "=")
			st := structtext.Parse(body)
			if typ, ok := st.Get("iType"); ok {
				bs, err := decodeStats(st, lineNo)
				if err != nil {
					return nil, err
				}
				c.stats[typ] = bs
			}
		}

		if _, body, ok := strings.Cut(line, upgradeMarker); ok {
			st := structtext.Parse(body)
			up, err := decodeUpgrade(st, lineNo)
			if err != nil {
				return nil, err
			}
			if _, comment, ok := strings.Cut(line, ";"); ok && perks != nil {
				comment = strings.TrimSpace(comment)
				if comment != "" && st.Has("iMobility") && up.PerkID > 0 && !perks.Has(up.PerkID) {
					if name := perkNameFromComment(comment); name != "" {
						perks.Register(up.PerkID, name)
					}
				}
			}
			c.upgrades = append(c.upgrades, up)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func perkNameFromComment(comment string) string {
	name, _, _ := strings.Cut(comment, "?")
	name, _, _ = strings.Cut(name, ".")
	return strings.TrimSpace(name)
}

func decodeStats(st structtext.Struct, line int) (BaseStats, error) {
	var bs BaseStats
	var err error
	if bs.HP, err = intField(st, "HP", DefaultStats.HP, line); err != nil {
		return bs, err
	}
	if bs.Offense, err = intField(st, "Offense", DefaultStats.Offense, line); err != nil {
		return bs, err
	}
	if bs.Will, err = intField(st, "Will", DefaultStats.Will, line); err != nil {
		return bs, err
	}
	return bs, nil
}

func decodeUpgrade(st structtext.Struct, line int) (Upgrade, error) {
	up := Upgrade{}
	up.CharType, _ = st.Get("eType")
	fields := []struct {
		key string
		dst *int
	}{
		{"iHP", &up.HP},
		{"iAim", &up.Aim},
		{"iWill", &up.Will},
		{"iDamage", &up.Damage},
		{"iCritHit", &up.Packed},
		{"iMobility", &up.PerkID},
	}
	for _, f := range fields {
		v, err := intField(st, f.key, 0, line)
		if err != nil {
			return up, err
		}
		*f.dst = v
	}
	return up, nil
}

func intField(st structtext.Struct, key string, def, line int) (int, error) {
	raw, ok := st.Get(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &LineError{Line: line, Field: key, Value: raw, Err: err}
	}
	return n, nil
}

// Stats returns the base stats for charType, or DefaultStats.
func (c *Catalog) Stats(charType string) BaseStats {
	if bs, ok := c.stats[charType]; ok {
		return bs
	}
	return DefaultStats
}

// Known reports whether charType has a definition.
func (c *Catalog) Known(charType string) bool {
	_, ok := c.stats[charType]
	return ok
}

// Upgrades returns the balance mods in file order. Callers must not modify it.
func (c *Catalog) Upgrades() []Upgrade { return c.upgrades }

// CharacterTypes lists the defined character types, sorted.
func (c *Catalog) CharacterTypes() []string {
	out := make([]string, 0, len(c.stats))
	for t := range c.stats {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
