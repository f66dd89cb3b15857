package plan

import "math"

// FindGoal resolves a drill's soft goal reference. The second result is
// false when no goal in goals has the id.
func FindGoal(goals []Goal, id string) (Goal, bool) {
	for _, g := range goals {
		if g.ID == id {
			return g, true
		}
	}
	return Goal{}, false
}

// ProgressPercent is the progress-bar value for a goal:
// min(100, round(current/target*100)). Ratios that are not finite
// (zero or NaN target) show as 0, and the bar never goes below 0.
func ProgressPercent(current, target float64) int {
	ratio := current / target * 100
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	pct := Round(ratio)
	switch {
	case pct > 100:
		return 100
	case pct < 0:
		return 0
	}
	return int(pct)
}
