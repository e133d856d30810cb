package mission

import (
	"strings"
	"testing"

	"github.com/xtding233/alienpod-sim/internal/catalog"
	"github.com/xtding233/alienpod-sim/internal/ini"
)

// scriptRNG replays fixed draws (each reduced mod n) and records the ranges asked for.
type scriptRNG struct {
	vals  []int
	asked []int
}

func (s *scriptRNG) IntN(n int) int {
	s.asked = append(s.asked, n)
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

// newEngine builds an engine over tuning lines written without a section
// header, plus optional game-core text.
func newEngine(t *testing.T, tuning, gameCore string) *Engine {
	t.Helper()
	store, err := ini.ParseString("[" + DefaultSection + "]\n" + tuning)
	if err != nil {
		t.Fatal(err)
	}
	perks := catalog.NewPerkRegistry()
	cat, err := catalog.Load(strings.NewReader(gameCore), perks)
	if err != nil {
		t.Fatal(err)
	}
	return New(store, cat, perks, WithRNG(NewSeededRNG(7)))
}

const minimalAbduction = `AbductionPodNumbers=(MinPods=1,MaxPods=1)
AbductionPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=100)
PossibleSoldiers=(MainAlien=eChar_Sectoid,MinAliens=1,MaxAliens=1,MainChance=100,Support1Chance=0,Support2Chance=0,PodChance=1)
`
