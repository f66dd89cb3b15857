package plan

import (
	"math"
	"strconv"
)

// Thresholds below which a player is flagged for extra work. Comparisons
// are strict: a value equal to the threshold does not trigger the need.
const (
	PowerThreshold       = 100.0 // max exit velocity, mph
	BatSpeedThreshold    = 54.0  // average bat speed, mph
	ConsistencyThreshold = 45.0  // quality swing count
)

// Needs holds the three predicates every rule in Generate keys off.
type Needs struct {
	Power       bool `json:"power" yaml:"power"`
	BatSpeed    bool `json:"bat_speed" yaml:"bat_speed"`
	Consistency bool `json:"consistency" yaml:"consistency"`
}

// Assess computes the predicates. NaN inputs compare false and therefore
// never raise a need.
func Assess(m Metrics) Needs {
	return Needs{
		Power:       m.MaxExitVelocity < PowerThreshold,
		BatSpeed:    m.AvgBatSpeed < BatSpeedThreshold,
		Consistency: m.SwingCount < ConsistencyThreshold,
	}
}

// Generate builds the development plan for a player. The first argument
// is the player id; no rule depends on it.
func Generate(_ string, m Metrics) Plan {
	needs := Assess(m)
	goals := buildGoals(m, needs)

	return Plan{
		Goals:      goals,
		FocusAreas: buildFocusAreas(needs),
		Milestones: append([]Milestone(nil), milestoneTemplate[:]...),
		Drills:     buildDrills(goals, needs),
		Notes:      append([]Note(nil), seedNotes[:]...),
	}
}

func buildGoals(m Metrics, needs Needs) []Goal {
	goals := make([]Goal, 0, 4)
	add := func(g Goal) {
		g.ID = "g" + strconv.Itoa(len(goals)+1)
		goals = append(goals, g)
	}

	if needs.Power {
		target := m.MaxExitVelocity + 5
		status := StatusNeedsAttention
		// Kept as written: the comparison reduces to maxEV >= 20.
		if m.MaxExitVelocity >= 0.8*target {
			status = StatusOnTrack
		}
		add(Goal{
			Title:   "Increase Max Exit Velocity",
			Metric:  "Max Exit Velocity",
			Current: m.MaxExitVelocity,
			Target:  target,
			Unit:    "mph",
			Status:  status,
		})
	}

	if needs.BatSpeed {
		status := StatusNeedsAttention
		if m.AvgBatSpeed >= 52 {
			status = StatusOnTrack
		}
		add(Goal{
			Title:   "Improve Bat Speed",
			Metric:  "Avg Bat Speed",
			Current: m.AvgBatSpeed,
			Target:  m.AvgBatSpeed + 4,
			Unit:    "mph",
			Status:  status,
		})
	}

	avgStatus := StatusOnTrack
	if m.AvgExitVelocity >= 85 {
		avgStatus = StatusAhead
	}
	add(Goal{
		Title:   "Raise Average Exit Velocity",
		Metric:  "Avg Exit Velocity",
		Current: m.AvgExitVelocity,
		Target:  Round(m.AvgExitVelocity * 1.05),
		Unit:    "mph",
		Status:  avgStatus,
	})

	if needs.Consistency {
		add(Goal{
			Title:   "Increase Quality Swing Count",
			Metric:  "Swing Count",
			Current: m.SwingCount,
			Target:  m.SwingCount + 10,
			Unit:    "swings",
			Status:  StatusOnTrack,
		})
	}

	return goals
}

func buildFocusAreas(needs Needs) []FocusArea {
	areas := append([]FocusArea(nil), focusAreaTemplate[:]...)
	areas[0].Priority = pick(needs.Power, PriorityHigh, PriorityMedium)
	areas[1].Priority = pick(needs.BatSpeed, PriorityHigh, PriorityLow)
	areas[2].Priority = pick(needs.Consistency, PriorityHigh, PriorityMedium)
	return areas
}

// buildDrills wires each drill to a goal id. Some links are literal ids
// and can point at a goal the plan does not contain; FindGoal reports
// those as unresolved.
func buildDrills(goals []Goal, needs Needs) []Drill {
	drills := append([]Drill(nil), drillTemplate[:]...)

	drills[0].LinkedGoal = "g1"
	if len(goals) > 0 {
		drills[0].LinkedGoal = goals[0].ID
	}

	drills[1].LinkedGoal = pick(needs.BatSpeed, "g2", "g1")

	drills[2].LinkedGoal = "g3"
	if len(goals) > 0 {
		drills[2].LinkedGoal = goals[len(goals)-1].ID
	}

	drills[3].LinkedGoal = "g1"
	return drills
}

func pick[T any](cond bool, yes, no T) T {
	if cond {
		return yes
	}
	return no
}

// Encodable reports whether m and every goal target derived from it are
// finite. Plans from other metrics cannot be rendered as JSON.
func (m Metrics) Encodable() bool {
	for _, v := range []float64{
		m.AvgExitVelocity,
		m.MaxExitVelocity,
		m.AvgBatSpeed,
		m.SwingCount,
		m.MaxExitVelocity + 5,
		m.AvgBatSpeed + 4,
		Round(m.AvgExitVelocity * 1.05),
		m.SwingCount + 10,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Round rounds half toward positive infinity, so Round(-2.5) is -2, and
// leaves 0.49999999999999994 and integers above 2^52 alone.
func Round(x float64) float64 {
	f := math.Floor(x)
	if x-f >= 0.5 {
		f++
	}
	return f
}
