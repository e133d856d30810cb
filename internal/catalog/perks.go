package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// PerkRegistry maps perk ids to display names. It is filled while the catalog
// loads and must not be modified after it has been handed to an engine.
type PerkRegistry struct {
	names map[int]string
}

var defaultPerks = map[int]string{
	3:   "Squadsight",
	5:   "Low Profile",
	11:  "Executioner",
	23:  "Rapid Reaction",
	24:  "Grenadier",
	31:  "Sprinter",
	32:  "Aggression",
	33:  "Tactical Sense",
	45:  "Regeneration",
	50:  "Muscle Fiber Density",
	94:  "Gunslinger",
	138: "Combined Arms",
}

// NewPerkRegistry returns a registry seeded with the known perks.
func NewPerkRegistry() *PerkRegistry {
	r := &PerkRegistry{names: make(map[int]string, len(defaultPerks))}
	for id, name := range defaultPerks {
		r.names[id] = name
	}
	return r
}

// Has reports whether id already has a name.
func (r *PerkRegistry) Has(id int) bool {
	_, ok := r.names[id]
	return ok
}

// Register sets the name for id, replacing any previous one.
func (r *PerkRegistry) Register(id int, name string) {
	r.names[id] = name
}

// Name returns the display name, or "Perk <id>" for unknown ids.
func (r *PerkRegistry) Name(id int) string {
	if r != nil {
		if n, ok := r.names[id]; ok {
			return n
		}
	}
	return fmt.Sprintf("Perk %d", id)
}

// IDs returns the registered ids in ascending order.
func (r *PerkRegistry) IDs() []int {
	ids := make([]int, 0, len(r.names))
	for id := range r.names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// perkFile is the on-disk shape of an extension file:
//
//	perks:
//	  7: Lightning Reflexes
type perkFile struct {
	Perks map[int]string `yaml:"perks"`
}

// LoadPerkFile merges names from a YAML file into r. A missing file is not an error.
func (r *PerkRegistry) LoadPerkFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var pf perkFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return fmt.Errorf("perk file %s: %w", path, err)
	}
	for id, name := range pf.Perks {
		if id <= 0 || name == "" {
			return fmt.Errorf("perk file %s: invalid entry %d=%q", path, id, name)
		}
		r.Register(id, name)
	}
	return nil
}
