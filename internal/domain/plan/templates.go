package plan

// Static content shared by every generated plan. Slices here are never
// handed out directly; Generate copies them.

var focusAreaTemplate = [...]FocusArea{
	{
		ID:          "f1",
		Title:       "Barrel Control",
		Description: "Square the barrel through the zone and stay on plane longer to turn contact into hard contact.",
	},
	{
		ID:          "f2",
		Title:       "Timing & Rhythm",
		Description: "Start the load earlier and sync the stride with the pitcher so the swing is on time without rushing.",
	},
	{
		ID:          "f3",
		Title:       "Plate Discipline",
		Description: "Swing at pitches in the hitting zone, take borderline pitches early in the count, and build quality at-bats.",
	},
}

var milestoneTemplate = [...]Milestone{
	{ID: "m1", Title: "Baseline swing assessment", Date: "2026-01-10", Achieved: true},
	{ID: "m2", Title: "Bat speed testing", Date: "2026-01-24", Achieved: true},
	{ID: "m3", Title: "Mid-winter video review", Date: "2026-02-07", Achieved: true},
	{ID: "m4", Title: "Exit velocity re-test", Date: "2026-02-21", Achieved: false},
	{ID: "m5", Title: "Spring training evaluation", Date: "2026-03-01", Achieved: false},
	{ID: "m6", Title: "Pre-season benchmark", Date: "2026-03-15", Achieved: false},
}

var drillTemplate = [...]Drill{
	{
		ID:          "d1",
		Name:        "Top-Hand Tee Work",
		Description: "Short-bat, top-hand-only swings off a tee to groove a direct path to the ball.",
		Frequency:   "4x per week",
	},
	{
		ID:          "d2",
		Name:        "Overload/Underload Bat Training",
		Description: "Alternate heavy and light bats in sets of five to build bat speed without losing mechanics.",
		Frequency:   "3x per week",
	},
	{
		ID:          "d3",
		Name:        "Front Toss Line Drives",
		Description: "Front toss to the middle of the field, scoring each rep on line-drive contact.",
		Frequency:   "Daily",
	},
	{
		ID:          "d4",
		Name:        "Med Ball Rotational Throws",
		Description: "Explosive side throws against a wall to train hip-shoulder separation.",
		Frequency:   "2x per week",
	},
}

var seedNotes = [...]Note{
	{
		ID:     "n1",
		Date:   "2026-02-20",
		Author: "Coach Delgado",
		Text:   "Hands are quicker since the overload work started. Keep the stride short when he gets behind in the count.",
	},
	{
		ID:     "n2",
		Date:   "2026-02-06",
		Author: "Sam Whitaker",
		Text:   "Video shows the barrel dropping under high fastballs. Added top-hand tee work to the weekly block.",
	},
	{
		ID:     "n3",
		Date:   "2026-01-12",
		Author: "Coach Delgado",
		Text:   "Baseline testing done. Strong foundation; the priority this winter is turning contact into hard contact.",
	},
}
