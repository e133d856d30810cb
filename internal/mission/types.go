package mission

// MissionType selects the generation branch.
type MissionType string

const (
	Abduction MissionType = "Abduction"
	Terror    MissionType = "Terror"
	UFO       MissionType = "UFO"
	Special   MissionType = "Special"
)

// BigUFO is never requested directly; UFO missions are classified into it by ship size.
const BigUFO MissionType = "BigUFO"

// ShipType is the UFO hull tag used by the game.
type ShipType string

const (
	ShipSmallScout ShipType = "eShip_UFOSmallScout"
	ShipLargeScout ShipType = "eShip_UFOLargeScout"
	ShipAbductor   ShipType = "eShip_UFOAbductor"
	ShipSupply     ShipType = "eShip_UFOSupply"
	ShipBattle     ShipType = "eShip_UFOBattle"
	ShipEthereal   ShipType = "eShip_UFOEthereal"
	ShipOverseer   ShipType = "eShip_UFOOverseer"
)

// ShipTypes lists every accepted ship type.
var ShipTypes = []ShipType{
	ShipSmallScout, ShipLargeScout, ShipAbductor, ShipSupply, ShipBattle, ShipEthereal, ShipOverseer,
}

var shipSizes = map[ShipType]int{
	ShipSmallScout: 0,
	ShipLargeScout: 1,
	ShipAbductor:   2,
	ShipSupply:     3,
	ShipBattle:     4,
}

// Size is the ship's size ordinal; hulls without one count as 0.
func (s ShipType) Size() int { return shipSizes[s] }

// Valid reports whether s is a known ship type.
func (s ShipType) Valid() bool {
	for _, t := range ShipTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Pod categories with special handling.
const (
	CategorySoldier   = "EPodTypeMod_Soldier"
	CategoryCommander = "EPodTypeMod_Commander"

	categoryPrefix = "EPodTypeMod_"
	charPrefix     = "eChar_"
	charNone       = "eChar_None"
)

// Request holds the inputs of one generation call.
type Request struct {
	MissionType MissionType `json:"mission_type"`
	Research    int         `json:"research"`
	Resources   int         `json:"resources"`
	Difficulty  int         `json:"difficulty"`
	Landed      bool        `json:"landed"`
	ShipType    ShipType    `json:"ship_type"`
}

// Result is one generated mission.
type Result struct {
	MissionType MissionType `json:"mission_type"`
	Month       int         `json:"month"`
	Research    int         `json:"research"`
	Resources   int         `json:"resources"`
	PodCount    int         `json:"num_pods"` // planned; Pods may be shorter
	Pods        []PodResult `json:"pods"`
}

// PodResult is one spawned pod.
type PodResult struct {
	Index       int           `json:"index"` // 1-based position in the planned sequence
	Category    string        `json:"category"`
	IsLeaderPod bool          `json:"is_leader_pod"`
	Aliens      []AlienResult `json:"aliens"`
	TotalCount  int           `json:"total_count"`
	LeaderLevel int           `json:"leader_level"`
}

// AlienResult is one role within a pod.
type AlienResult struct {
	Name        string   `json:"name"`
	Count       int      `json:"count"`
	IsMain      bool     `json:"is_main"`
	HP          int      `json:"hp"`
	Aim         int      `json:"aim"`
	Will        int      `json:"will"`
	DamageBonus int      `json:"damage_bonus"`
	Perks       []string `json:"perks"`
}

// SpeciesGroup is one entry of a category's species list after monthly
// overrides have been applied.
type SpeciesGroup struct {
	Index          int
	MainAlien      string
	SupportAlien1  string
	SupportAlien2  string
	MainChance     int
	Support1Chance int
	Support2Chance int
	MinAliens      int
	MaxAliens      int
	PodChance      int
	PodDifficulty  int
	PodLimit       int // -1 means unlimited
	LeaderLevel    int // -1 means roll
}

// RoleCounts is how a pod's headcount is split across roles.
type RoleCounts struct {
	Main     int
	Support1 int
	Support2 int
}

// Total is the sum of all roles.
func (r RoleCounts) Total() int { return r.Main + r.Support1 + r.Support2 }

// PodLimitCounters tracks species usage per category within one generation call.
type PodLimitCounters map[string]map[int]int

// Uses returns how often species idx of category has been picked.
func (c PodLimitCounters) Uses(category string, idx int) int {
	return c[category][idx]
}

// Add records one pick.
func (c PodLimitCounters) Add(category string, idx int) {
	m, ok := c[category]
	if !ok {
		m = make(map[int]int)
		c[category] = m
	}
	m[idx]++
}
