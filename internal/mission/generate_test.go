package mission

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestGenerateMinimalAbduction(t *testing.T) {
	e := newEngine(t, minimalAbduction, "")
	res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.PodCount != 1 || len(res.Pods) != 1 {
		t.Fatalf("pods planned %d spawned %d", res.PodCount, len(res.Pods))
	}
	pod := res.Pods[0]
	if pod.Index != 1 || pod.Category != "Soldier" || pod.IsLeaderPod || pod.TotalCount != 1 || pod.LeaderLevel != 0 {
		t.Fatalf("pod = %+v", pod)
	}
	want := []AlienResult{{Name: "Sectoid", Count: 1, IsMain: true, HP: 1, Aim: 50, Will: 10, Perks: []string{}}}
	if !reflect.DeepEqual(pod.Aliens, want) {
		t.Fatalf("aliens = %+v", pod.Aliens)
	}
}

func TestGenerateResourceBonus(t *testing.T) {
	e := newEngine(t, minimalAbduction, "")
	// 1000 * 0.0075 = 7 extra, clamped at 8
	res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 1, Resources: 1000}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Pods[0].TotalCount; got != 8 {
		t.Fatalf("headcount = %d", got)
	}
	// mains stop at two; the rest roll as eChar_None supports and are not listed
	if a := res.Pods[0].Aliens; len(a) != 1 || a[0].Count != 2 || !a[0].IsMain {
		t.Fatalf("aliens = %+v", a)
	}
}

func TestGenerateDifficultyAddsAbductionPods(t *testing.T) {
	e := newEngine(t, minimalAbduction, "")
	// (5-1) * 0.5 = 2 extra pods
	res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.PodCount != 3 {
		t.Fatalf("planned pods = %d", res.PodCount)
	}
	terror := newEngine(t, strings.ReplaceAll(minimalAbduction, "Abduction", "Terror"), "")
	res, err = terror.Generate(Request{MissionType: Terror, Difficulty: 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.PodCount != 1 {
		t.Fatalf("terror planned pods = %d", res.PodCount)
	}
}

func TestGeneratePodLimit(t *testing.T) {
	e := newEngine(t, `AbductionPodNumbers=(MinPods=5,MaxPods=5)
AbductionPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=1)
PossibleSoldiers=(MainAlien=eChar_Muton,PodChance=1000,PodLimit=1)
PossibleSoldiers=(MainAlien=eChar_Sectoid,PodChance=1)
`, "")
	for seed := uint64(1); seed <= 50; seed++ {
		res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 1}, NewSeededRNG(seed))
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Pods) != 5 {
			t.Fatalf("seed %d: %d pods", seed, len(res.Pods))
		}
		mutons := 0
		for _, p := range res.Pods {
			if p.Aliens[0].Name == "Muton" {
				mutons++
			}
		}
		if mutons > 1 {
			t.Fatalf("seed %d: limited species used %d times", seed, mutons)
		}
	}
}

func TestGeneratePodLimitFallbackReusesLoneSpecies(t *testing.T) {
	e := newEngine(t, `AbductionPodNumbers=(MinPods=3,MaxPods=3)
AbductionPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=1)
PossibleSoldiers=(MainAlien=eChar_Muton,PodChance=5,PodLimit=1)
`, "")
	res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 1}, NewSeededRNG(3))
	if err != nil {
		t.Fatal(err)
	}
	// once the limit is hit nothing is eligible, and the fallback pool ignores limits
	if len(res.Pods) != 3 {
		t.Fatalf("pods = %d", len(res.Pods))
	}
	for _, p := range res.Pods {
		if p.Aliens[0].Name != "Muton" {
			t.Fatalf("pod %d = %+v", p.Index, p)
		}
	}
}

func TestGenerateSkipsEmptyCategories(t *testing.T) {
	e := newEngine(t, `TerrorPodNumbers=(MinPods=2,MaxPods=2)
TerrorPodTypes=(ID=EPodTypeMod_Terror,TypeChance=1)
`, "")
	res, err := e.Generate(Request{MissionType: Terror, Difficulty: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.PodCount != 2 || len(res.Pods) != 0 {
		t.Fatalf("planned %d spawned %d", res.PodCount, len(res.Pods))
	}
	if res.Pods == nil {
		t.Fatal("pods should be an empty list")
	}
}

const ufoTuning = `UFOPodNumbers=(MinPods=3,MaxPods=3)
UFOPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=1)
BigUFOPodTypes=(ID=EPodTypeMod_Elite,TypeChance=1)
PossibleSoldiers=(MainAlien=eChar_Sectoid,PodChance=1)
PossibleElites=(MainAlien=eChar_Muton,PodChance=1)
PossibleCommanders=(MainAlien=eChar_SectoidCommander,PodChance=1)
`

func TestGenerateUFOCommanderLast(t *testing.T) {
	e := newEngine(t, ufoTuning, "")
	res, err := e.Generate(Request{MissionType: UFO, Difficulty: 1, Landed: true, ShipType: ShipSmallScout}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pods) != 3 {
		t.Fatalf("pods = %d", len(res.Pods))
	}
	for i, p := range res.Pods {
		last := i == len(res.Pods)-1
		if last != p.IsLeaderPod {
			t.Fatalf("pod %d leader flag = %v", p.Index, p.IsLeaderPod)
		}
		if last && (p.Category != "Commander" || p.Aliens[0].Name != "SectoidCommander") {
			t.Fatalf("last pod = %+v", p)
		}
		if !last && p.Category != "Soldier" {
			t.Fatalf("pod %d category %q", p.Index, p.Category)
		}
	}
}

func TestGenerateCrashedScoutWithoutPods(t *testing.T) {
	tuning := strings.Replace(ufoTuning, "(MinPods=3,MaxPods=3)", "(MinPods=1,MaxPods=1)", 1)
	e := newEngine(t, tuning, "")

	landed, err := e.Generate(Request{MissionType: UFO, Difficulty: 1, Landed: true, ShipType: ShipSmallScout}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(landed.Pods) != 1 || !landed.Pods[0].IsLeaderPod {
		t.Fatalf("landed scout pods = %+v", landed.Pods)
	}

	// one planned pod survives a crash as RollInterval(0, 1), which is always 0;
	// the commander replaces a rolled pod and is never added on its own
	for seed := uint64(1); seed <= 20; seed++ {
		res, err := e.Generate(Request{MissionType: UFO, Difficulty: 1, Landed: false, ShipType: ShipSmallScout}, NewSeededRNG(seed))
		if err != nil {
			t.Fatal(err)
		}
		if res.PodCount != 0 || res.Pods == nil || len(res.Pods) != 0 {
			t.Fatalf("seed %d: crashed scout = %+v", seed, res)
		}
	}
}

func TestPlanUFOBigShip(t *testing.T) {
	e := newEngine(t, ufoTuning, "")
	req := Request{MissionType: UFO, Difficulty: 1, Landed: true, ShipType: ShipBattle}
	p, err := e.planUFO(NewSeededRNG(1), req, 0)
	if err != nil {
		t.Fatal(err)
	}
	// 3 + int(4 * 1.5)
	if len(p.categories) != 9 || p.difficulty != 4 || p.aliensModifier != 0 {
		t.Fatalf("plan = %+v", p)
	}
	for _, c := range p.categories[:8] {
		if c != "EPodTypeMod_Elite" {
			t.Fatalf("big ship pod type %q", c)
		}
	}
	if p.categories[8] != CategoryCommander {
		t.Fatalf("last pod %q", p.categories[8])
	}

	small := newEngine(t, ufoTuning+"SmallestBigUFO=eShip_UFOSmallScout\n", "")
	req.ShipType = ShipSmallScout
	p, err = small.planUFO(NewSeededRNG(1), req, 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.categories[0] != "EPodTypeMod_Elite" {
		t.Fatalf("lowered big threshold ignored: %v", p.categories)
	}
}

func TestPlanUFOCrashed(t *testing.T) {
	e := newEngine(t, `UFOPodNumbers=(MinPods=10,MaxPods=10)
CrashedUFOSurviedPodsPercentage=50
`, "")
	req := Request{MissionType: UFO, Difficulty: 1, ShipType: ShipSmallScout}
	rng := NewSeededRNG(4)
	for i := 0; i < 200; i++ {
		p, err := e.planUFO(rng, req, 0)
		if err != nil {
			t.Fatal(err)
		}
		if n := len(p.categories); n < 5 || n > 9 {
			t.Fatalf("crashed pods = %d", n)
		}
		if p.aliensModifier != -40 {
			t.Fatalf("aliens modifier = %d", p.aliensModifier)
		}
	}
}

func TestGenerateConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		tuning string
		key    string
		want   error
	}{
		{"leader multiplier", minimalAbduction + "LeaderLevelProgressionMultiplier=abc\n", "LeaderLevelProgressionMultiplier", ErrNotNumeric},
		{"per pod multiplier", minimalAbduction + "AdditionalAliensPerPodMultiplier=?\n", "AdditionalAliensPerPodMultiplier", ErrNotNumeric},
		{"divisor", minimalAbduction + "DiffProbabilityDivisor=1.5\n", "DiffProbabilityDivisor", ErrNotNumeric},
		{"main alien", strings.ReplaceAll(minimalAbduction, "MainAlien=eChar_Sectoid,", ""), "PossibleSoldiers", ErrMissingField},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEngine(t, c.tuning, "")
			res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 1}, nil)
			if res != nil {
				t.Fatalf("partial result %+v", res)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || !errors.Is(err, c.want) {
				t.Fatalf("err = %v", err)
			}
			if ce.Key != c.key {
				t.Fatalf("error key = %q", ce.Key)
			}
		})
	}
}

func TestGenerateInvalidRequest(t *testing.T) {
	e := newEngine(t, minimalAbduction, "")
	_, err := e.Generate(Request{MissionType: "Raid", Difficulty: 0, Research: -1}, nil)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	for _, frag := range []string{"mission type", "research", "difficulty"} {
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("error %q should mention %s", err, frag)
		}
	}
	_, err = e.Generate(Request{MissionType: UFO, Difficulty: 1, ShipType: "eShip_Blimp"}, nil)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("ship err = %v", err)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	tuning := `AbductionPodNumbers=(MinPods=2,MaxPods=6)
AbductionPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=1)
PossibleSoldiers=(MainAlien=eChar_Sectoid,SupportAlien1=eChar_Drone,MinAliens=1,MaxAliens=5,PodChance=3)
PossibleSoldiers=(MainAlien=eChar_Thinman,SupportAlien2=eChar_Floater,MinAliens=2,MaxAliens=4,PodChance=2)
`
	req := Request{MissionType: Abduction, Difficulty: 3, Research: 300, Resources: 200}
	a, err := newEngine(t, tuning, "").Generate(req, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newEngine(t, tuning, "").Generate(req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed, different missions:\n%+v\n%+v", a, b)
	}
	for _, p := range a.Pods {
		sum := 0
		for _, al := range p.Aliens {
			sum += al.Count
		}
		// roles assigned to eChar_None are rolled but not listed
		if sum > p.TotalCount {
			t.Fatalf("pod %d: aliens sum %d, total %d", p.Index, sum, p.TotalCount)
		}
		if p.LeaderLevel < 0 || p.LeaderLevel > 7 {
			t.Fatalf("pod %d leader level %d", p.Index, p.LeaderLevel)
		}
	}
}

const rosterCore = `Characters=(iType=eChar_Sectoid,HP=3,Offense=65,Will=10)
BalanceMods_Hard=(eType=eChar_Sectoid,iHP=1,iAim=5,iCritHit=1015)
BalanceMods_Hard=(eType=eChar_Sectoid,iDamage=1,iCritHit=3,iMobility=11)
BalanceMods_Hard=(eType=eChar_Sectoid,iWill=7,iCritHit=4)
BalanceMods_Hard=(eType=eChar_Floater,iHP=9,iCritHit=15)
BalanceMods_Hard=(eType=eChar_Floater,iAim=3,iCritHit=3,iMobility=94)
`

func TestBuildRosterUpgrades(t *testing.T) {
	e := newEngine(t, "", rosterCore)
	s := SpeciesGroup{MainAlien: "eChar_Sectoid", SupportAlien1: "eChar_Floater", SupportAlien2: charNone}
	roster := e.BuildRoster(s, RoleCounts{Main: 1, Support1: 2, Support2: 3}, 20, 3)
	want := []AlienResult{
		{Name: "Sectoid", Count: 1, IsMain: true, HP: 4, Aim: 70, Will: 10, DamageBonus: 1, Perks: []string{"Executioner"}},
		// leader upgrades only go to the main type
		{Name: "Floater", Count: 2, HP: 10, Aim: 50, Will: 10, Perks: []string{}},
	}
	if !reflect.DeepEqual(roster, want) {
		t.Fatalf("roster:\n got %+v\nwant %+v", roster, want)
	}

	low := e.BuildRoster(s, RoleCounts{Main: 2}, 5, 0)
	if len(low) != 1 || low[0].HP != 3 || low[0].Aim != 65 || len(low[0].Perks) != 0 || low[0].Perks == nil {
		t.Fatalf("low research roster = %+v", low)
	}
}

func TestBuildRosterNeverEmptyList(t *testing.T) {
	e := newEngine(t, "", "")
	got := e.BuildRoster(SpeciesGroup{MainAlien: "eChar_Sectoid"}, RoleCounts{}, 0, 0)
	if got == nil || len(got) != 0 {
		t.Fatalf("roster = %#v", got)
	}
}

func TestNormalizeTrials(t *testing.T) {
	goal, trials, err := NormalizeTrials("", 0)
	if err != nil || goal != GoalAlienCount || trials != DefaultTrials {
		t.Fatalf("defaults = %q %d %v", goal, trials, err)
	}
	if _, n, err := NormalizeTrials(GoalPodCount, MaxTrials); err != nil || n != MaxTrials {
		t.Fatalf("max trials = %d %v", n, err)
	}
	for _, c := range []struct {
		goal   TrialGoal
		trials int
	}{
		{"tentacles", 10},
		{GoalPodCount, -1},
		{GoalPodCount, MaxTrials + 1},
	} {
		if _, _, err := NormalizeTrials(c.goal, c.trials); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%q/%d: err = %v", c.goal, c.trials, err)
		}
	}
}

func TestRunMonteCarloRejectsGoalBeforeGenerating(t *testing.T) {
	e := newEngine(t, minimalAbduction, "")
	rng := &scriptRNG{}
	if _, err := RunMonteCarlo(e, Request{MissionType: Abduction, Difficulty: 1}, "tentacles", 5, rng); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	if len(rng.asked) != 0 {
		t.Fatalf("generated before checking the goal: %d draws", len(rng.asked))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	e := newEngine(t, minimalAbduction, "")
	req := Request{MissionType: Abduction, Difficulty: 1}
	for _, goal := range []TrialGoal{GoalPodCount, GoalAlienCount} {
		st, err := RunMonteCarlo(e, req, goal, 100, NewSeededRNG(1))
		if err != nil {
			t.Fatal(err)
		}
		if st.Goal != goal || st.Trials != 100 || st.Mean != 1 || st.Var != 0 || st.Min != 1 || st.Max != 1 {
			t.Fatalf("%s stats = %+v", goal, st)
		}
		if h := st.Histogram(); h[1] != 100 {
			t.Fatalf("histogram = %v", h)
		}
	}
	if _, err := RunMonteCarlo(e, req, "tentacles", 3, nil); err == nil {
		t.Fatal("unknown goal should fail")
	}
	if st, err := RunMonteCarlo(e, req, GoalPodCount, 0, nil); err != nil || st.Trials != 0 {
		t.Fatalf("zero trials = %+v, %v", st, err)
	}
	if _, err := RunMonteCarlo(e, Request{MissionType: "Raid"}, GoalPodCount, 5, nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("bad request err = %v", err)
	}
}

func TestCalcStats(t *testing.T) {
	st := calcStats([]int{5, 1, 4, 2, 3})
	if st.Mean != 3 || st.Var != 2 || st.Min != 1 || st.Max != 5 || st.P50 != 3 {
		t.Fatalf("stats = %+v", st)
	}
	if math.Abs(st.P90-4.6) > 1e-9 {
		t.Fatalf("p90 = %v", st.P90)
	}
	if calcStats(nil).Trials != 0 {
		t.Fatal("empty samples should give zero stats")
	}
}

func TestWriteReport(t *testing.T) {
	e := newEngine(t, minimalAbduction, rosterCore)
	res, err := e.Generate(Request{MissionType: Abduction, Difficulty: 1, Research: 20}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteReport(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, frag := range []string{
		"=== SIMULATION: Abduction ===",
		"Strategic Month: 0 (Research: 20, Resources: 0)",
		"Pod 1: [Soldier]",
		"* Sectoid x1 | HP: 4, Aim: 70",
	} {
		if !strings.Contains(out, frag) {
			t.Fatalf("report missing %q:\n%s", frag, out)
		}
	}
}
