package mission

import (
	"strings"
)

// plan is the pod layout decided before any species is rolled.
type plan struct {
	categories     []string
	difficulty     int
	aliensModifier int // percent; negative for crashed UFOs
}

// Generate rolls one mission. A nil rng uses the engine's source. Fatal
// configuration problems abort the call with a *ConfigError and no partial
// result; categories without any eligible species are left out of Pods.
func (e *Engine) Generate(req Request, rng RandomSource) (*Result, error) {
	if rng == nil {
		rng = e.rng
	}
	req, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	month := e.StrategicMonth(req.Research)

	var p plan
	if req.MissionType == UFO {
		p, err = e.planUFO(rng, req, month)
	} else {
		p, err = e.planGround(rng, req, month)
	}
	if err != nil {
		return nil, err
	}

	perPod, err := e.floatVal("AdditionalAliensPerPodMultiplier", "0.0075")
	if err != nil {
		return nil, err
	}
	resourceBonus := int(float64(req.Resources) * perPod)
	gate, err := e.readGating()
	if err != nil {
		return nil, err
	}

	res := &Result{
		MissionType: req.MissionType,
		Month:       month,
		Research:    req.Research,
		Resources:   req.Resources,
		PodCount:    len(p.categories),
		Pods:        []PodResult{},
	}
	used := PodLimitCounters{}
	for i, cat := range p.categories {
		pod, ok, err := e.composePod(rng, cat, month, req, p, gate, resourceBonus, used)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		pod.Index = i + 1
		res.Pods = append(res.Pods, pod)
	}
	return res, nil
}

// planUFO sizes a UFO mission by hull. Big hulls use the BigUFO pod types;
// crashed ships lose pods and aliens by the configured survival rates. The
// last pod always becomes the commander pod.
func (e *Engine) planUFO(rng RandomSource, req Request, month int) (plan, error) {
	size := req.ShipType.Size()
	p := plan{difficulty: size}

	smallestBig := ShipType(e.first("SmallestBigUFO", string(ShipSupply)))
	bigFrom := ShipSupply.Size()
	if _, ok := shipSizes[smallestBig]; ok {
		bigFrom = smallestBig.Size()
	}
	category := UFO
	if size >= bigFrom {
		category = BigUFO
	}

	sizeMult, err := e.floatVal("ShipSizeMultiplier", "1.5")
	if err != nil {
		return p, err
	}
	pr, err := e.PodNumberRange(category, month)
	if err != nil {
		return p, err
	}
	pods := RollInterval(rng, pr.Min, pr.Max) + int(float64(size)*sizeMult)

	if !req.Landed {
		podsPct, err := e.intVal("CrashedUFOSurviedPodsPercentage", 70)
		if err != nil {
			return p, err
		}
		aliensPct, err := e.intVal("CrashedUFOSurvedAliensPercentage", 60)
		if err != nil {
			return p, err
		}
		pods = RollInterval(rng, int(float64(pods*podsPct)/100), pods)
		p.aliensModifier = -(100 - aliensPct)
	}

	p.categories, err = e.RollPodTypes(rng, category, pods, month)
	if err != nil {
		return p, err
	}
	if n := len(p.categories); n > 0 {
		p.categories[n-1] = CategoryCommander
	}
	return p, nil
}

// planGround sizes every non-UFO mission; abductions add pods with difficulty.
func (e *Engine) planGround(rng RandomSource, req Request, month int) (plan, error) {
	p := plan{difficulty: req.Difficulty}
	pr, err := e.PodNumberRange(req.MissionType, month)
	if err != nil {
		return p, err
	}
	extra := 0
	if req.MissionType == Abduction {
		mult, err := e.floatVal("PodsDifficultyMultiplier", "0.5")
		if err != nil {
			return p, err
		}
		extra = int(float64(req.Difficulty-1) * mult)
	}
	pods := RollInterval(rng, pr.Min, pr.Max) + extra
	p.categories, err = e.RollPodTypes(rng, req.MissionType, pods, month)
	return p, err
}

func (e *Engine) composePod(rng RandomSource, category string, month int, req Request, p plan, gate gating, resourceBonus int, used PodLimitCounters) (PodResult, bool, error) {
	pool, err := e.SpeciesList(category, month)
	if err != nil {
		return PodResult{}, false, err
	}
	group, ok := gate.pickSpecies(rng, pool, category, p.difficulty, used)
	if !ok {
		return PodResult{}, false, nil
	}
	if group.MainAlien == "" {
		return PodResult{}, false, &ConfigError{
			Section: e.section,
			Key:     speciesKeysFor(category).base,
			Field:   "MainAlien",
			Err:     ErrMissingField,
		}
	}

	count := RollHeadcount(rng, group, resourceBonus, p.aliensModifier)
	roles := e.RollIndividualAliens(rng, group, count, false)
	leader, err := e.RollLeaderLevel(rng, req.Research, group.LeaderLevel)
	if err != nil {
		return PodResult{}, false, err
	}

	return PodResult{
		Category:    strings.ReplaceAll(category, categoryPrefix, ""),
		IsLeaderPod: category == CategoryCommander,
		Aliens:      e.BuildRoster(group, roles, req.Research, leader),
		TotalCount:  count,
		LeaderLevel: leader,
	}, true, nil
}
