package mission

import (
	"github.com/xtding233/alienpod-sim/internal/structtext"
)

type speciesKeys struct{ base, monthly string }

var categorySpecies = map[string]speciesKeys{
	"EPodTypeMod_Soldier":    {"PossibleSoldiers", "SoldiersMonthlyModifiers"},
	"EPodTypeMod_Terror":     {"PossibleTerrorists", "TerroristsMonthlyModifiers"},
	"EPodTypeMod_Commander":  {"PossibleCommanders", "CommandersMonthlyModifiers"},
	"EPodTypeMod_Elite":      {"PossibleElites", "ElitesMonthlyModifiers"},
	"EPodTypeMod_Special":    {"PossibleSpecial", "SpecialMonthlyModifiers"},
	"EPodTypeMod_Exalt":      {"PossibleExalt", "ExaltMonthlyModifiers"},
	"EPodTypeMod_ExaltElite": {"PossibleExaltElite", "ExaltEliteMonthlyModifiers"},
}

func speciesKeysFor(category string) speciesKeys {
	if k, ok := categorySpecies[category]; ok {
		return k
	}
	return categorySpecies[CategorySoldier]
}

// SpeciesList builds the species groups of a pod category for month. The list
// is rebuilt on every call. Monthly overrides address entries by ID and skip
// fields set to -1 or -2; as with pod numbers, the first override in the
// future ends the scan.
func (e *Engine) SpeciesList(category string, month int) ([]SpeciesGroup, error) {
	keys := speciesKeysFor(category)
	raw := e.structs(keys.base)
	list := make([]structtext.Struct, len(raw))
	for i, st := range raw {
		list[i] = st.Clone()
	}

	for _, m := range e.structs(keys.monthly) {
		at, err := e.requireInt(m, keys.monthly, "Month")
		if err != nil {
			return nil, err
		}
		if at > month {
			break
		}
		idx, err := e.requireInt(m, keys.monthly, "ID")
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(list) {
			id, _ := m.Get("ID")
			return nil, &ConfigError{Section: e.section, Key: keys.monthly, Field: "ID", Value: id, Err: ErrBadIndex}
		}
		for _, f := range m.Fields {
			if f.Key == "ID" || f.Key == "Month" || f.Value == "-1" || f.Value == "-2" {
				continue
			}
			list[idx].Set(f.Key, f.Value)
		}
	}

	groups := make([]SpeciesGroup, len(list))
	for i, st := range list {
		g, err := e.decodeGroup(st, keys.base, i)
		if err != nil {
			return nil, err
		}
		groups[i] = g
	}
	return groups, nil
}

func (e *Engine) decodeGroup(st structtext.Struct, key string, idx int) (SpeciesGroup, error) {
	g := SpeciesGroup{Index: idx}
	g.MainAlien, _ = st.Get("MainAlien")
	g.SupportAlien1 = charNone
	if v, ok := st.Get("SupportAlien1"); ok {
		g.SupportAlien1 = v
	}
	g.SupportAlien2 = charNone
	if v, ok := st.Get("SupportAlien2"); ok {
		g.SupportAlien2 = v
	}
	ints := []struct {
		field string
		def   int
		dst   *int
	}{
		{"MainChance", 100, &g.MainChance},
		{"Support1Chance", 100, &g.Support1Chance},
		{"Support2Chance", 100, &g.Support2Chance},
		{"MinAliens", 1, &g.MinAliens},
		{"MaxAliens", 3, &g.MaxAliens},
		{"PodChance", 0, &g.PodChance},
		{"PodDifficulty", 0, &g.PodDifficulty},
		{"PodLimit", -1, &g.PodLimit},
		{"LeaderLevel", -1, &g.LeaderLevel},
	}
	for _, f := range ints {
		v, err := e.structInt(st, key, f.field, f.def)
		if err != nil {
			return g, err
		}
		*f.dst = v
	}
	return g, nil
}

// gating holds the difficulty gate settings for one generation call.
type gating struct {
	decrease bool
	divisor  int
}

func (e *Engine) readGating() (gating, error) {
	div, err := e.intVal("DiffProbabilityDivisor", 1)
	if err != nil {
		return gating{}, err
	}
	return gating{decrease: e.boolVal("DiffDecreaseProbability", true), divisor: div}, nil
}

// effectiveChance applies the spawn limit and difficulty gate to one group.
func (g gating) effectiveChance(s SpeciesGroup, category string, difficulty int, used PodLimitCounters) int {
	chance := s.PodChance
	switch {
	case s.PodLimit > -1 && used.Uses(category, s.Index) >= s.PodLimit:
		chance = 0
	case s.PodDifficulty > difficulty:
		if g.decrease && g.divisor > 0 {
			chance = floorDiv(chance, g.divisor*(s.PodDifficulty-difficulty))
		} else {
			chance = 0
		}
	}
	return chance
}

// pickSpecies selects a group for one pod and records its use. When every
// group is gated out it falls back to all groups with a base chance; ok is
// false when even that pool is empty.
func (g gating) pickSpecies(rng RandomSource, pool []SpeciesGroup, category string, difficulty int, used PodLimitCounters) (SpeciesGroup, bool) {
	var eligible []SpeciesGroup
	var weights []int
	for _, s := range pool {
		if c := g.effectiveChance(s, category, difficulty, used); c > 0 {
			eligible = append(eligible, s)
			weights = append(weights, c)
		}
	}
	if len(eligible) == 0 {
		for _, s := range pool {
			if s.PodChance > 0 {
				eligible = append(eligible, s)
				weights = append(weights, s.PodChance)
			}
		}
	}
	idx := weightedIndex(rng, weights)
	if idx < 0 {
		return SpeciesGroup{}, false
	}
	picked := eligible[idx]
	used.Add(category, picked.Index)
	return picked, true
}

// RollHeadcount rolls a pod size. resourceBonus is added to the base roll;
// a non-zero crash modifier (percent) then narrows or widens the count
// before it is clamped to [1, 8].
func RollHeadcount(rng RandomSource, s SpeciesGroup, resourceBonus, modifier int) int {
	count := RollInterval(rng, s.MinAliens, s.MaxAliens) + resourceBonus
	if modifier != 0 {
		bound := int(float64(count) * (1 + float64(modifier)/100))
		if modifier < 0 {
			count = RollInterval(rng, bound, count)
		} else {
			count = RollInterval(rng, count, bound)
		}
	}
	return clamp(count, 1, 8)
}

// RollIndividualAliens assigns count individuals to roles. Main is excluded
// from a draw once more than one main has been assigned (or always, when
// excludeMain is set). With AlwaysSpawnAtLeastOneMainAlien on, a pod without a
// main takes one from the larger support role, preferring Support2 on ties.
func (e *Engine) RollIndividualAliens(rng RandomSource, s SpeciesGroup, count int, excludeMain bool) RoleCounts {
	var rc RoleCounts
	for i := 0; i < count; i++ {
		mc := max(s.MainChance, 0)
		if rc.Main > 1 || excludeMain {
			mc = 0
		}
		s1, s2 := max(s.Support1Chance, 0), max(s.Support2Chance, 0)
		if mc == 0 && s1 == 0 && s2 == 0 {
			s1, s2 = 100, 100
		}
		r := rng.IntN(mc + s1 + s2)
		switch {
		case r < mc:
			rc.Main++
		case r < mc+s1:
			rc.Support1++
		default:
			rc.Support2++
		}
	}
	if e.boolVal("AlwaysSpawnAtLeastOneMainAlien", true) && rc.Main == 0 && count > 0 {
		rc.Main = 1
		if rc.Support1 > rc.Support2 {
			rc.Support1--
		} else {
			rc.Support2--
		}
	}
	return rc
}
