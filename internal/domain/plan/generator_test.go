package plan_test

import (
	"math"
	"testing"

	"github.com/okian/swingiq/internal/domain/plan"
	. "github.com/smartystreets/goconvey/convey"
)

func metrics(avgEV, maxEV, batSpeed, swings float64) plan.Metrics {
	return plan.Metrics{
		AvgExitVelocity: avgEV,
		MaxExitVelocity: maxEV,
		AvgBatSpeed:     batSpeed,
		SwingCount:      swings,
	}
}

func goalIDs(goals []plan.Goal) []string {
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}

func goalTitles(goals []plan.Goal) []string {
	titles := make([]string, len(goals))
	for i, g := range goals {
		titles[i] = g.Title
	}
	return titles
}

func linkedGoals(drills []plan.Drill) []string {
	links := make([]string, len(drills))
	for i, d := range drills {
		links[i] = d.LinkedGoal
	}
	return links
}

func TestGenerate_AllNeeds(t *testing.T) {
	Convey("Given a player below every threshold", t, func() {
		p := plan.Generate("p1", metrics(82, 95, 50, 30))

		Convey("Then all four goals are emitted in rule order", func() {
			So(len(p.Goals), ShouldEqual, 4)
			So(goalIDs(p.Goals), ShouldResemble, []string{"g1", "g2", "g3", "g4"})
			So(goalTitles(p.Goals), ShouldResemble, []string{
				"Increase Max Exit Velocity",
				"Improve Bat Speed",
				"Raise Average Exit Velocity",
				"Increase Quality Swing Count",
			})
		})

		Convey("And the power goal targets max exit velocity plus five", func() {
			g := p.Goals[0]
			So(g.Current, ShouldEqual, 95)
			So(g.Target, ShouldEqual, 100)
			So(g.Unit, ShouldEqual, "mph")
			So(g.Status, ShouldEqual, plan.StatusOnTrack)
		})

		Convey("And the bat speed goal needs attention below 52 mph", func() {
			g := p.Goals[1]
			So(g.Target, ShouldEqual, 54)
			So(g.Status, ShouldEqual, plan.StatusNeedsAttention)
		})

		Convey("And the average exit velocity goal is on track below 85 mph", func() {
			g := p.Goals[2]
			So(g.Target, ShouldEqual, 86) // round(82*1.05 = 86.1)
			So(g.Status, ShouldEqual, plan.StatusOnTrack)
		})

		Convey("And the swing count goal is always on track", func() {
			g := p.Goals[3]
			So(g.Target, ShouldEqual, 40)
			So(g.Unit, ShouldEqual, "swings")
			So(g.Status, ShouldEqual, plan.StatusOnTrack)
		})

		Convey("And every focus area is high priority", func() {
			So(len(p.FocusAreas), ShouldEqual, 3)
			for _, f := range p.FocusAreas {
				So(f.Priority, ShouldEqual, plan.PriorityHigh)
			}
		})

		Convey("And drills link to first, g2, last and g1", func() {
			So(linkedGoals(p.Drills), ShouldResemble, []string{"g1", "g2", "g4", "g1"})
		})
	})
}

func TestGenerate_NoNeeds(t *testing.T) {
	Convey("Given a player above every threshold", t, func() {
		p := plan.Generate("p2", metrics(90, 110, 60, 60))

		Convey("Then only the average exit velocity goal is emitted", func() {
			So(len(p.Goals), ShouldEqual, 1)
			g := p.Goals[0]
			So(g.ID, ShouldEqual, "g1")
			So(g.Title, ShouldEqual, "Raise Average Exit Velocity")
			So(g.Target, ShouldEqual, 95)
			So(g.Status, ShouldEqual, plan.StatusAhead)
		})

		Convey("And focus priorities fall back to medium, low, medium", func() {
			So(p.FocusAreas[0].Title, ShouldEqual, "Barrel Control")
			So(p.FocusAreas[0].Priority, ShouldEqual, plan.PriorityMedium)
			So(p.FocusAreas[1].Title, ShouldEqual, "Timing & Rhythm")
			So(p.FocusAreas[1].Priority, ShouldEqual, plan.PriorityLow)
			So(p.FocusAreas[2].Title, ShouldEqual, "Plate Discipline")
			So(p.FocusAreas[2].Priority, ShouldEqual, plan.PriorityMedium)
		})

		Convey("And every drill points at g1", func() {
			So(linkedGoals(p.Drills), ShouldResemble, []string{"g1", "g1", "g1", "g1"})
		})
	})
}

func TestGenerate_ShiftingIDs(t *testing.T) {
	Convey("Given only the consistency need", t, func() {
		p := plan.Generate("p3", metrics(80, 104, 58, 20))

		Convey("Then ids follow emission order, not goal type", func() {
			So(goalIDs(p.Goals), ShouldResemble, []string{"g1", "g2"})
			So(p.Goals[0].Title, ShouldEqual, "Raise Average Exit Velocity")
			So(p.Goals[1].Title, ShouldEqual, "Increase Quality Swing Count")
		})

		Convey("And the last-goal drill follows the last emitted id", func() {
			So(p.Drills[2].LinkedGoal, ShouldEqual, "g2")
		})
	})

	Convey("Given only the bat speed need", t, func() {
		p := plan.Generate("p4", metrics(88, 101, 53, 50))

		Convey("Then the literal g2 link lands on the average exit velocity goal", func() {
			So(goalTitles(p.Goals), ShouldResemble, []string{"Improve Bat Speed", "Raise Average Exit Velocity"})
			So(p.Drills[1].LinkedGoal, ShouldEqual, "g2")
			g, ok := plan.FindGoal(p.Goals, p.Drills[1].LinkedGoal)
			So(ok, ShouldBeTrue)
			So(g.Title, ShouldEqual, "Raise Average Exit Velocity")
		})
	})

	Convey("Given power and bat speed needs", t, func() {
		p := plan.Generate("p5", metrics(70, 90, 50, 50))

		Convey("Then links still resolve within the three emitted goals", func() {
			So(goalIDs(p.Goals), ShouldResemble, []string{"g1", "g2", "g3"})
			So(linkedGoals(p.Drills), ShouldResemble, []string{"g1", "g2", "g3", "g1"})
		})
	})
}

func TestGenerate_Boundaries(t *testing.T) {
	Convey("Given metrics exactly on each threshold", t, func() {
		needs := plan.Assess(metrics(85, 100, 54, 45))

		Convey("Then no need is raised", func() {
			So(needs.Power, ShouldBeFalse)
			So(needs.BatSpeed, ShouldBeFalse)
			So(needs.Consistency, ShouldBeFalse)
		})

		Convey("And 85 mph average exit velocity counts as ahead", func() {
			p := plan.Generate("edge", metrics(85, 100, 54, 45))
			So(len(p.Goals), ShouldEqual, 1)
			So(p.Goals[0].Status, ShouldEqual, plan.StatusAhead)
		})
	})

	Convey("Given metrics just under each threshold", t, func() {
		needs := plan.Assess(metrics(85, 99.99, 53.99, 44.99))

		Convey("Then every need is raised", func() {
			So(needs, ShouldResemble, plan.Needs{Power: true, BatSpeed: true, Consistency: true})
		})
	})

	Convey("Given bat speed exactly 52 mph", t, func() {
		p := plan.Generate("bs", metrics(80, 110, 52, 60))

		Convey("Then the bat speed goal is on track", func() {
			So(p.Goals[0].Title, ShouldEqual, "Improve Bat Speed")
			So(p.Goals[0].Status, ShouldEqual, plan.StatusOnTrack)
		})
	})
}

func TestGenerate_PowerStatusFormula(t *testing.T) {
	Convey("Given the literal power status comparison", t, func() {
		Convey("When max exit velocity is 20 mph", func() {
			p := plan.Generate("x", metrics(50, 20, 60, 60))

			Convey("Then the goal is on track", func() {
				So(p.Goals[0].Status, ShouldEqual, plan.StatusOnTrack)
			})
		})

		Convey("When max exit velocity is 19 mph", func() {
			p := plan.Generate("x", metrics(50, 19, 60, 60))

			Convey("Then the goal needs attention", func() {
				So(p.Goals[0].Status, ShouldEqual, plan.StatusNeedsAttention)
			})
		})
	})
}

func TestGenerate_NonFiniteInputs(t *testing.T) {
	Convey("Given NaN for every metric", t, func() {
		nan := math.NaN()
		p := plan.Generate("nan", metrics(nan, nan, nan, nan))

		Convey("Then every predicate falls through to false", func() {
			So(plan.Assess(metrics(nan, nan, nan, nan)), ShouldResemble, plan.Needs{})
			So(len(p.Goals), ShouldEqual, 1)
			So(p.Goals[0].Status, ShouldEqual, plan.StatusOnTrack)
			So(math.IsNaN(p.Goals[0].Target), ShouldBeTrue)
		})
	})

	Convey("Given negative and infinite metrics", t, func() {
		p := plan.Generate("neg", metrics(math.Inf(1), -10, -1, -5))

		Convey("Then the plan is still produced", func() {
			So(len(p.Goals), ShouldEqual, 4)
			So(p.Goals[0].Status, ShouldEqual, plan.StatusNeedsAttention)
			So(p.Goals[2].Status, ShouldEqual, plan.StatusAhead)
		})
	})
}

func TestGenerate_Determinism(t *testing.T) {
	Convey("Given two calls with identical arguments", t, func() {
		a := plan.Generate("p1", metrics(82, 95, 50, 30))
		b := plan.Generate("p1", metrics(82, 95, 50, 30))

		Convey("Then the plans are identical", func() {
			So(a, ShouldResemble, b)
		})

		Convey("And mutating one does not leak into the next generation", func() {
			a.Milestones[0].Achieved = false
			a.Drills[0].Name = "changed"
			a.FocusAreas[0].Title = "changed"
			a.Notes[0].Text = "changed"
			c := plan.Generate("p1", metrics(82, 95, 50, 30))
			So(c, ShouldResemble, b)
		})
	})

	Convey("Given a grid of inputs", t, func() {
		values := []float64{-1, 0, 19, 20, 44, 45, 52, 53.5, 54, 84, 85, 99, 100, 130}

		Convey("Then the goal count stays between one and four", func() {
			for _, a := range values {
				for _, b := range values {
					p := plan.Generate("grid", metrics(a, b, a, b))
					So(len(p.Goals), ShouldBeBetweenOrEqual, 1, 4)
					So(len(p.FocusAreas), ShouldEqual, 3)
					So(len(p.Milestones), ShouldEqual, 6)
					So(len(p.Drills), ShouldEqual, 4)
					So(len(p.Notes), ShouldEqual, 3)
				}
			}
		})
	})
}

func TestGenerate_FixedTemplates(t *testing.T) {
	Convey("Given any generated plan", t, func() {
		p := plan.Generate("t", metrics(75, 98, 51, 40))

		Convey("Then milestones are the fixed timeline", func() {
			dates := make([]string, len(p.Milestones))
			achieved := make([]bool, len(p.Milestones))
			for i, m := range p.Milestones {
				dates[i] = m.Date
				achieved[i] = m.Achieved
			}
			So(dates[0], ShouldEqual, "2026-01-10")
			So(dates[5], ShouldEqual, "2026-03-15")
			So(achieved, ShouldResemble, []bool{true, true, true, false, false, false})
		})

		Convey("And three seed notes are present newest first", func() {
			So(p.Notes[0].ID, ShouldEqual, "n1")
			So(p.Notes[0].Date > p.Notes[1].Date, ShouldBeTrue)
			So(p.Notes[1].Date > p.Notes[2].Date, ShouldBeTrue)
		})
	})
}

func TestRound(t *testing.T) {
	Convey("Given half values", t, func() {
		So(plan.Round(94.5), ShouldEqual, 95)
		So(plan.Round(2.4), ShouldEqual, 2)
		So(plan.Round(-2.5), ShouldEqual, -2)
		So(plan.Round(-2.6), ShouldEqual, -3)
	})

	Convey("Given values at the edge of float64 precision", t, func() {
		So(plan.Round(0.49999999999999994), ShouldEqual, 0)
		So(plan.Round(4503599627370497), ShouldEqual, 4503599627370497)
		So(plan.Round(-0.5), ShouldEqual, 0)
	})

	Convey("Given non-finite values", t, func() {
		So(math.IsNaN(plan.Round(math.NaN())), ShouldBeTrue)
		So(math.IsInf(plan.Round(math.Inf(1)), 1), ShouldBeTrue)
		So(math.IsInf(plan.Round(math.Inf(-1)), -1), ShouldBeTrue)
	})
}

func TestMetrics_Encodable(t *testing.T) {
	Convey("Given ordinary metrics", t, func() {
		So(metrics(82, 95, 50, 30).Encodable(), ShouldBeTrue)
		So(metrics(-1, 0, 0, 0).Encodable(), ShouldBeTrue)
	})

	Convey("Given a non-finite input", t, func() {
		So(metrics(math.NaN(), 95, 50, 30).Encodable(), ShouldBeFalse)
		So(metrics(82, math.Inf(1), 50, 30).Encodable(), ShouldBeFalse)
		So(metrics(82, 95, 50, math.Inf(-1)).Encodable(), ShouldBeFalse)
	})

	Convey("Given a finite input whose target overflows", t, func() {
		m := metrics(1.75e308, 95, 50, 30)
		So(m.Encodable(), ShouldBeFalse)
		So(math.IsInf(plan.Generate("big", m).Goals[2].Target, 1), ShouldBeTrue)
		So(metrics(1.7e308, 95, 50, 30).Encodable(), ShouldBeTrue)
	})
}
