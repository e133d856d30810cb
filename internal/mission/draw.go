package mission

// RollInterval returns min when min >= max, otherwise a uniform value in
// [min, max). max itself is never returned.
func RollInterval(rng RandomSource, min, max int) int {
	if min >= max {
		return min
	}
	return min + rng.IntN(max-min)
}

// weightedIndex picks an index with probability weights[i]/sum. Zero and
// negative weights are never picked. It returns -1 when nothing can be picked.
func weightedIndex(rng RandomSource, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	r := rng.IntN(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
