package mission

import (
	"fmt"

	"github.com/xtding233/alienpod-sim/internal/structtext"
)

// noMonth sorts after every real month so a modifier without one never applies.
const noMonth = 999

var podNumberKeys = map[MissionType]string{
	Abduction: "AbductionPodNumbers",
	Terror:    "TerrorPodNumbers",
	UFO:       "UFOPodNumbers",
	BigUFO:    "UFOPodNumbers",
	Special:   "SpecialPodNumbers",
}

var podTypeKeys = map[MissionType]string{
	Abduction: "AbductionPodTypes",
	Terror:    "TerrorPodTypes",
	UFO:       "UFOPodTypes",
	BigUFO:    "BigUFOPodTypes",
	Special:   "SpecialPodTypes",
}

// PodRange is the [Min, Max) pod count interval of a mission category.
type PodRange struct {
	Min int
	Max int
}

// PodNumberRange reads the base pod interval for category and applies its
// monthly modifiers. Modifiers are expected in ascending Month order; the
// scan stops at the first one that lies in the future.
func (e *Engine) PodNumberRange(category MissionType, month int) (PodRange, error) {
	key, ok := podNumberKeys[category]
	if !ok {
		return PodRange{}, fmt.Errorf("%w: no pod numbers for category %q", ErrInvalidRequest, category)
	}
	base := structtext.Parse(e.first(key, "(MinPods=1,MaxPods=4)"))
	var pr PodRange
	var err error
	if pr.Min, err = e.structInt(base, key, "MinPods", 1); err != nil {
		return PodRange{}, err
	}
	if pr.Max, err = e.structInt(base, key, "MaxPods", 4); err != nil {
		return PodRange{}, err
	}

	modKey := key + "MonthlyModifiers"
	for _, m := range e.structs(modKey) {
		at, err := e.structInt(m, modKey, "Month", noMonth)
		if err != nil {
			return PodRange{}, err
		}
		if at > month {
			break
		}
		if pr.Min, err = e.structInt(m, modKey, "MinPods", pr.Min); err != nil {
			return PodRange{}, err
		}
		if pr.Max, err = e.structInt(m, modKey, "MaxPods", pr.Max); err != nil {
			return PodRange{}, err
		}
	}
	return pr, nil
}

// RollPodTypes draws count pod categories, with replacement, from the
// category's type chances after monthly modifiers. When every chance is zero
// all pods become soldiers.
func (e *Engine) RollPodTypes(rng RandomSource, category MissionType, count, month int) ([]string, error) {
	key, ok := podTypeKeys[category]
	if !ok {
		return nil, fmt.Errorf("%w: no pod types for category %q", ErrInvalidRequest, category)
	}

	var ids []string
	chances := make(map[string]int)
	setChance := func(st structtext.Struct, k string) error {
		id, err := e.requireString(st, k, "ID")
		if err != nil {
			return err
		}
		c, err := e.requireInt(st, k, "TypeChance")
		if err != nil {
			return err
		}
		if _, seen := chances[id]; !seen {
			ids = append(ids, id)
		}
		chances[id] = c
		return nil
	}

	for _, st := range e.structs(key) {
		if err := setChance(st, key); err != nil {
			return nil, err
		}
	}
	modKey := key + "MonthlyModifiers"
	for _, m := range e.structs(modKey) {
		at, err := e.structInt(m, modKey, "Month", noMonth)
		if err != nil {
			return nil, err
		}
		if at > month {
			break
		}
		if err := setChance(m, modKey); err != nil {
			return nil, err
		}
	}

	weights := make([]int, len(ids))
	total := 0
	for i, id := range ids {
		weights[i] = chances[id]
		total += weights[i]
	}
	pods := make([]string, 0, max(count, 0))
	if total == 0 {
		for i := 0; i < count; i++ {
			pods = append(pods, CategorySoldier)
		}
		return pods, nil
	}
	for i := 0; i < count; i++ {
		idx := weightedIndex(rng, weights)
		if idx < 0 {
			return nil, &ConfigError{Section: e.section, Key: key, Field: "TypeChance", Value: fmt.Sprint(weights), Err: ErrBadWeights}
		}
		pods = append(pods, ids[idx])
	}
	return pods, nil
}
