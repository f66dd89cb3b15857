// Package plan derives a player development plan from hitting metrics.
//
// Generate is a pure rule-table mapping: the same inputs always yield the
// same plan, with fixed ids and dates. The helpers in this package (goal
// lookup, progress percentage, note prepend) belong to the caller side and
// never mutate a plan they were not handed explicitly.
package plan

// GoalStatus is fixed when a goal is created and never recomputed.
type GoalStatus string

// Goal statuses.
const (
	StatusOnTrack        GoalStatus = "on-track"
	StatusNeedsAttention GoalStatus = "needs-attention"
	StatusAhead          GoalStatus = "ahead"
)

// Priority ranks a focus area.
type Priority string

// Focus area priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Metrics are the four generator inputs. Values are not range checked;
// NaN and negative numbers are accepted.
type Metrics struct {
	AvgExitVelocity float64 `json:"avg_exit_velocity" yaml:"avg_exit_velocity"`
	MaxExitVelocity float64 `json:"max_exit_velocity" yaml:"max_exit_velocity"`
	AvgBatSpeed     float64 `json:"avg_bat_speed" yaml:"avg_bat_speed"`
	SwingCount      float64 `json:"swing_count" yaml:"swing_count"`
}

// Goal is a measurable development target.
type Goal struct {
	ID      string     `json:"id" yaml:"id"`
	Title   string     `json:"title" yaml:"title"`
	Metric  string     `json:"metric" yaml:"metric"`
	Current float64    `json:"current" yaml:"current"`
	Target  float64    `json:"target" yaml:"target"`
	Unit    string     `json:"unit" yaml:"unit"`
	Status  GoalStatus `json:"status" yaml:"status"`
}

// FocusArea is a coaching theme with a derived priority.
type FocusArea struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Priority    Priority `json:"priority" yaml:"priority"`
}

// Milestone is one entry of the fixed development timeline.
type Milestone struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Date     string `json:"date" yaml:"date"`
	Achieved bool   `json:"achieved" yaml:"achieved"`
}

// Drill is a recommended practice routine. LinkedGoal is a soft reference
// to a Goal.ID and may not match any goal in the same plan.
type Drill struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Frequency   string `json:"frequency" yaml:"frequency"`
	LinkedGoal  string `json:"linked_goal" yaml:"linked_goal"`
}

// Note is a coaching note. Notes are kept newest first.
type Note struct {
	ID     string `json:"id" yaml:"id"`
	Date   string `json:"date" yaml:"date"`
	Author string `json:"author" yaml:"author"`
	Text   string `json:"text" yaml:"text"`
}

// Plan is the development plan aggregate. It has no identity of its own:
// a new generation replaces it wholesale, notes included.
type Plan struct {
	Goals      []Goal      `json:"goals" yaml:"goals"`
	FocusAreas []FocusArea `json:"focus_areas" yaml:"focus_areas"`
	Milestones []Milestone `json:"milestones" yaml:"milestones"`
	Drills     []Drill     `json:"drills" yaml:"drills"`
	Notes      []Note      `json:"notes" yaml:"notes"`
}

// Clone returns a deep copy so callers can hand plans across goroutines.
func (p Plan) Clone() Plan {
	return Plan{
		Goals:      append([]Goal(nil), p.Goals...),
		FocusAreas: append([]FocusArea(nil), p.FocusAreas...),
		Milestones: append([]Milestone(nil), p.Milestones...),
		Drills:     append([]Drill(nil), p.Drills...),
		Notes:      append([]Note(nil), p.Notes...),
	}
}

// PrependNote inserts n ahead of the existing notes. The previous backing
// array is left untouched.
func (p *Plan) PrependNote(n Note) {
	notes := make([]Note, 0, len(p.Notes)+1)
	notes = append(notes, n)
	p.Notes = append(notes, p.Notes...)
}

// GoalStatuses lists the status of every goal in order.
func (p Plan) GoalStatuses() []string {
	out := make([]string, len(p.Goals))
	for i, g := range p.Goals {
		out[i] = string(g.Status)
	}
	return out
}
