package mission

const (
	researchPerMonth = 28

	maxLeaderLevel = 7
	leaderRange    = 15
)

// StrategicMonth converts research into campaign months. With alien research
// disabled every mission is treated as month 0.
func (e *Engine) StrategicMonth(research int) int {
	if !e.boolVal("EnableAlienResearch", true) {
		return 0
	}
	return research / researchPerMonth
}

// RollLeaderLevel rolls a pod leader level in [0, 7]. A forced level other
// than -1 is returned as is. The roll range grows with research up to 15; a
// draw above 7 is reflected back down by a second, narrower draw, so high
// research piles probability onto the upper levels.
func (e *Engine) RollLeaderLevel(rng RandomSource, research, forced int) (int, error) {
	if !e.boolVal("EnableAlienLeaders", true) {
		return 0, nil
	}
	if forced != -1 {
		return forced, nil
	}
	mult, err := e.floatVal("LeaderLevelProgressionMultiplier", "0.025")
	if err != nil {
		return 0, err
	}
	limit := clamp(int(float64(research)*mult+1), 1, leaderRange)
	r := rng.IntN(limit)
	if r > maxLeaderLevel {
		r = maxLeaderLevel - rng.IntN(leaderRange+1-limit)
	}
	return clamp(r, 0, maxLeaderLevel), nil
}
