// Package types contains the read shapes returned by the HTTP API.
package types

import "github.com/okian/swingiq/internal/domain/plan"

// GoalView is a goal plus its progress-bar percentage.
type GoalView struct {
	plan.Goal `yaml:",inline"`
	Progress  int `json:"progress" yaml:"progress"`
}

// DrillView is a drill with its goal link resolved. When Resolved is
// false the drill shows no linked goal.
type DrillView struct {
	plan.Drill `yaml:",inline"`
	Resolved   bool   `json:"resolved" yaml:"resolved"`
	GoalTitle  string `json:"goal_title,omitempty" yaml:"goal_title,omitempty"`
}

// PlanView is the rendered development plan for one player.
type PlanView struct {
	PlayerID   string           `json:"player_id" yaml:"player_id"`
	Analyzing  bool             `json:"analyzing" yaml:"analyzing"`
	Needs      plan.Needs       `json:"needs" yaml:"needs"`
	Goals      []GoalView       `json:"goals" yaml:"goals"`
	FocusAreas []plan.FocusArea `json:"focus_areas" yaml:"focus_areas"`
	Milestones []plan.Milestone `json:"milestones" yaml:"milestones"`
	Drills     []DrillView      `json:"drills" yaml:"drills"`
	Notes      []plan.Note      `json:"notes" yaml:"notes"`
}

// NoteInput is a coaching note submission. IdempotencyKey is optional.
type NoteInput struct {
	Author         string `json:"author"`
	Text           string `json:"text"`
	IdempotencyKey string `json:"-"`
}

// NoteAck answers a note submission.
type NoteAck struct {
	Note      plan.Note `json:"note"`
	Duplicate bool      `json:"duplicate"`
}

// AnalysisAck answers a re-analysis request.
type AnalysisAck struct {
	PlayerID string `json:"player_id"`
	Status   string `json:"status"` // "queued", "pending" or "done"
}

// NewPlanView renders p for display: goal progress is clamped to 0..100
// and each drill's goal link is resolved against the plan's own goals.
func NewPlanView(playerID string, needs plan.Needs, p plan.Plan, analyzing bool) PlanView {
	goals := make([]GoalView, len(p.Goals))
	for i, g := range p.Goals {
		goals[i] = GoalView{Goal: g, Progress: plan.ProgressPercent(g.Current, g.Target)}
	}

	drills := make([]DrillView, len(p.Drills))
	for i, d := range p.Drills {
		v := DrillView{Drill: d}
		if g, ok := plan.FindGoal(p.Goals, d.LinkedGoal); ok {
			v.Resolved = true
			v.GoalTitle = g.Title
		}
		drills[i] = v
	}

	return PlanView{
		PlayerID:   playerID,
		Analyzing:  analyzing,
		Needs:      needs,
		Goals:      goals,
		FocusAreas: append([]plan.FocusArea{}, p.FocusAreas...),
		Milestones: append([]plan.Milestone{}, p.Milestones...),
		Drills:     drills,
		Notes:      append([]plan.Note{}, p.Notes...),
	}
}
