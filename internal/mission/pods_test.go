package mission

import (
	"errors"
	"testing"
)

func TestPodNumberRangeDefaults(t *testing.T) {
	e := newEngine(t, "", "")
	pr, err := e.PodNumberRange(Terror, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pr != (PodRange{Min: 1, Max: 4}) {
		t.Fatalf("default range = %+v", pr)
	}
	if _, err := e.PodNumberRange(MissionType("Raid"), 0); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown category err = %v", err)
	}
}

func TestPodNumberRangeMonthlyStopsAtFuture(t *testing.T) {
	e := newEngine(t, `AbductionPodNumbers=(MinPods=1,MaxPods=3)
AbductionPodNumbersMonthlyModifiers=(Month=2,MinPods=2,MaxPods=5)
AbductionPodNumbersMonthlyModifiers=(Month=6,MinPods=4)
AbductionPodNumbersMonthlyModifiers=(Month=3,MaxPods=9)
AbductionPodNumbersMonthlyModifiers=(MinPods=7)
`, "")
	cases := []struct {
		month int
		want  PodRange
	}{
		{0, PodRange{1, 3}},
		{2, PodRange{2, 5}},
		// month 6 entry is in the future, so the later month 3 entry is never reached
		{5, PodRange{2, 5}},
		{6, PodRange{4, 9}},
		{998, PodRange{4, 9}},
		{999, PodRange{7, 9}},
	}
	for _, c := range cases {
		got, err := e.PodNumberRange(Abduction, c.month)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("month %d: got %+v want %+v", c.month, got, c.want)
		}
	}
}

func TestPodNumberRangeBigUFOSharesUFOKey(t *testing.T) {
	e := newEngine(t, "UFOPodNumbers=(MinPods=6,MaxPods=8)\n", "")
	pr, err := e.PodNumberRange(BigUFO, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pr.Min != 6 || pr.Max != 8 {
		t.Fatalf("BigUFO range = %+v", pr)
	}
}

func TestPodNumberRangeNotNumeric(t *testing.T) {
	e := newEngine(t, "TerrorPodNumbers=(MinPods=two,MaxPods=4)\n", "")
	_, err := e.PodNumberRange(Terror, 0)
	var ce *ConfigError
	if !errors.As(err, &ce) || !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("err = %v", err)
	}
	if ce.Key != "TerrorPodNumbers" || ce.Field != "MinPods" || ce.Value != "two" {
		t.Fatalf("error location = %+v", ce)
	}
}

func TestRollPodTypesZeroChancesGiveSoldiers(t *testing.T) {
	for _, tuning := range []string{
		"",
		"TerrorPodTypes=(ID=EPodTypeMod_Terror,TypeChance=0)\n",
	} {
		e := newEngine(t, tuning, "")
		pods, err := e.RollPodTypes(NewSeededRNG(1), Terror, 4, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(pods) != 4 {
			t.Fatalf("got %d pods", len(pods))
		}
		for _, p := range pods {
			if p != CategorySoldier {
				t.Fatalf("pod type %q, want soldier", p)
			}
		}
	}
}

func TestRollPodTypesMonthlyOverride(t *testing.T) {
	e := newEngine(t, `AbductionPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=100)
AbductionPodTypes=(ID=EPodTypeMod_Elite,TypeChance=0)
AbductionPodTypesMonthlyModifiers=(Month=3,ID=EPodTypeMod_Soldier,TypeChance=0)
AbductionPodTypesMonthlyModifiers=(Month=3,ID=EPodTypeMod_Elite,TypeChance=50)
`, "")
	rng := NewSeededRNG(11)
	early, err := e.RollPodTypes(rng, Abduction, 30, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range early {
		if p != CategorySoldier {
			t.Fatalf("month 2 rolled %q", p)
		}
	}
	late, err := e.RollPodTypes(rng, Abduction, 30, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range late {
		if p != "EPodTypeMod_Elite" {
			t.Fatalf("month 3 rolled %q", p)
		}
	}
}

func TestRollPodTypesWeights(t *testing.T) {
	e := newEngine(t, `SpecialPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=3)
SpecialPodTypes=(ID=EPodTypeMod_Special,TypeChance=1)
`, "")
	pods, err := e.RollPodTypes(NewSeededRNG(5), Special, 8000, 0)
	if err != nil {
		t.Fatal(err)
	}
	special := 0
	for _, p := range pods {
		if p == "EPodTypeMod_Special" {
			special++
		}
	}
	// expect ~2000
	if special < 1700 || special > 2300 {
		t.Fatalf("special pods = %d of 8000", special)
	}
}

func TestRollPodTypesErrors(t *testing.T) {
	cases := []struct {
		name   string
		tuning string
		want   error
	}{
		{"missing chance", "TerrorPodTypes=(ID=EPodTypeMod_Terror)\n", ErrMissingField},
		{"missing id", "TerrorPodTypes=(TypeChance=5)\n", ErrMissingField},
		{"not numeric", "TerrorPodTypes=(ID=EPodTypeMod_Terror,TypeChance=lots)\n", ErrNotNumeric},
		{"negative total", "TerrorPodTypes=(ID=EPodTypeMod_Terror,TypeChance=-5)\n", ErrBadWeights},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEngine(t, c.tuning, "")
			pods, err := e.RollPodTypes(NewSeededRNG(1), Terror, 2, 0)
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
			if pods != nil {
				t.Fatalf("partial result %v", pods)
			}
		})
	}
}
