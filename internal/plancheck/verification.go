package plancheck

import (
	"fmt"
	"reflect"

	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/internal/domain/types"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// Expected renders the plan the server should serve for a freshly analyzed
// player.
func Expected(p model.Player) types.PlanView {
	return types.NewPlanView(p.ID, plan.Assess(p.Metrics), plan.Generate(p.ID, p.Metrics), false)
}

// Compare reports every difference between served and the local rendering
// for p. Notes and the analyzing flag are workspace state and are skipped.
func Compare(p model.Player, served types.PlanView) []Mismatch {
	local := Expected(p)
	var out []Mismatch
	add := func(field string, s, l any) {
		out = append(out, Mismatch{
			PlayerID: p.ID,
			Field:    field,
			Served:   fmt.Sprintf("%+v", s),
			Local:    fmt.Sprintf("%+v", l),
		})
	}

	if served.PlayerID != p.ID {
		add("player_id", served.PlayerID, p.ID)
	}
	if served.Needs != local.Needs {
		add("needs", served.Needs, local.Needs)
	}
	compareSlice(add, "goals", served.Goals, local.Goals)
	compareSlice(add, "focus_areas", served.FocusAreas, local.FocusAreas)
	compareSlice(add, "milestones", served.Milestones, local.Milestones)
	compareSlice(add, "drills", served.Drills, local.Drills)
	return out
}

func compareSlice[T any](add func(string, any, any), field string, served, local []T) {
	if len(served) != len(local) {
		add(field+".len", len(served), len(local))
		return
	}
	for i := range served {
		if !reflect.DeepEqual(served[i], local[i]) {
			add(fmt.Sprintf("%s[%d]", field, i), served[i], local[i])
		}
	}
}

// Diff renders a unified diff between the local and the served plan as
// YAML. Notes and the analyzing flag are left out. It returns "" when the
// generated parts agree.
func Diff(p model.Player, served types.PlanView) (string, error) {
	local, err := planYAML(Expected(p))
	if err != nil {
		return "", err
	}
	remote, err := planYAML(served)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(local),
		B:        difflib.SplitLines(remote),
		FromFile: "local/" + p.ID,
		ToFile:   "served/" + p.ID,
		Context:  2,
	})
}

func planYAML(v types.PlanView) (string, error) {
	v.Notes = nil
	v.Analyzing = false
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}
	return string(b), nil
}

// seedNotes reports whether notes are exactly the generator's seed notes,
// which is what a plan holds right after a re-analysis.
func seedNotes(notes []plan.Note) bool {
	seed := plan.Generate("", plan.Metrics{}).Notes
	return reflect.DeepEqual(notes, seed)
}
