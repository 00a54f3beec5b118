package progress

// Tier names for accumulated point totals. These are the points-derived
// proficiency bands shown on dashboards, unrelated to the self-reported
// learning level on the extended profile.
const (
	TierBeginner     = "Beginner"
	TierIntermediate = "Intermediate"
	TierAdvanced     = "Advanced"
	TierExpert       = "Expert"
)

// milestones is the ascending sequence of point thresholds. 1000 is the
// final milestone: there is no tier above Expert, so any total of 500 or
// more keeps 1000 as its next target. That ceiling is deliberate.
var milestones = []int{100, 300, 500, 1000}

// ClassifyPoints maps an accumulated point total to its tier name and the
// next milestone threshold the student has not yet reached.
func ClassifyPoints(total int) (tier string, nextMilestone int) {
	switch {
	case total < 100:
		tier = TierBeginner
	case total < 300:
		tier = TierIntermediate
	case total < 500:
		tier = TierAdvanced
	default:
		tier = TierExpert
	}

	nextMilestone = milestones[len(milestones)-1]
	for _, m := range milestones {
		if m > total {
			nextMilestone = m
			break
		}
	}

	return tier, nextMilestone
}
