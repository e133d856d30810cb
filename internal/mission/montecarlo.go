package mission

import (
	"fmt"
	"math"
	"sort"
)

// TrialGoal selects what the simulation measures per generated mission.
type TrialGoal string

const (
	// Pods that actually spawned (skipped categories excluded).
	GoalPodCount TrialGoal = "pod_count"
	// Aliens across all spawned pods.
	GoalAlienCount TrialGoal = "alien_count"
	// Highest leader level of any pod; 0 when no pod spawned.
	GoalMaxLeaderLevel TrialGoal = "max_leader_level"
	// Aliens carrying at least one perk.
	GoalPerkedAliens TrialGoal = "perked_aliens"
)

// Goals lists every supported goal.
var Goals = []TrialGoal{GoalPodCount, GoalAlienCount, GoalMaxLeaderLevel, GoalPerkedAliens}

const (
	DefaultTrials = 500
	MaxTrials     = 20000
)

// Valid reports whether g is one of Goals.
func (g TrialGoal) Valid() bool {
	for _, known := range Goals {
		if g == known {
			return true
		}
	}
	return false
}

// NormalizeTrials applies the request defaults for a simulation: an empty goal
// means alien count and zero trials means DefaultTrials. Unknown goals and
// trial counts outside 1..MaxTrials wrap ErrInvalidRequest.
func NormalizeTrials(goal TrialGoal, trials int) (TrialGoal, int, error) {
	if goal == "" {
		goal = GoalAlienCount
	}
	if !goal.Valid() {
		return goal, trials, fmt.Errorf("%w: unknown goal %q", ErrInvalidRequest, goal)
	}
	if trials == 0 {
		trials = DefaultTrials
	}
	if trials < 0 || trials > MaxTrials {
		return goal, trials, fmt.Errorf("%w: trials must be in 1..%d", ErrInvalidRequest, MaxTrials)
	}
	return goal, trials, nil
}

// Stats summarizes simulation results.
type Stats struct {
	Goal   TrialGoal `json:"goal"`
	Trials int       `json:"trials"`
	Mean   float64   `json:"mean"`
	Var    float64   `json:"var"`
	StdDev float64   `json:"stddev"`
	Min    int       `json:"min"`
	Max    int       `json:"max"`
	P50    float64   `json:"p50"`
	P90    float64   `json:"p90"`
	P99    float64   `json:"p99"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// Histogram counts how often each sampled value occurred.
func (s Stats) Histogram() map[int]int {
	h := make(map[int]int)
	for _, v := range s.Samples {
		h[v]++
	}
	return h
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Trials:  n,
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		Min:     cp[0],
		Max:     cp[n-1],
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// measure returns the primary metric of one generated mission.
func measure(res *Result, goal TrialGoal) (int, error) {
	switch goal {
	case GoalPodCount:
		return len(res.Pods), nil
	case GoalAlienCount:
		n := 0
		for _, p := range res.Pods {
			for _, a := range p.Aliens {
				n += a.Count
			}
		}
		return n, nil
	case GoalMaxLeaderLevel:
		best := 0
		for _, p := range res.Pods {
			best = max(best, p.LeaderLevel)
		}
		return best, nil
	case GoalPerkedAliens:
		n := 0
		for _, p := range res.Pods {
			for _, a := range p.Aliens {
				if len(a.Perks) > 0 {
					n += a.Count
				}
			}
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: unknown goal %q", ErrInvalidRequest, goal)
}

// RunMonteCarlo generates trials missions for req and returns summary stats
// of goal. All trials share rng; pass a seeded source for replicable output.
func RunMonteCarlo(e *Engine, req Request, goal TrialGoal, trials int, rng RandomSource) (Stats, error) {
	if !goal.Valid() {
		return Stats{}, fmt.Errorf("%w: unknown goal %q", ErrInvalidRequest, goal)
	}
	if trials <= 0 {
		return Stats{Goal: goal}, nil
	}
	if rng == nil {
		rng = e.rng
	}
	samples := make([]int, trials)
	for i := 0; i < trials; i++ {
		res, err := e.Generate(req, rng)
		if err != nil {
			return Stats{}, err
		}
		v, err := measure(res, goal)
		if err != nil {
			return Stats{}, err
		}
		samples[i] = v
	}
	st := calcStats(samples)
	st.Goal = goal
	return st, nil
}
