package models

// StudentSnapshot is the derived view of one student's standing at render
// time. It is recomputed from the persisted records on each dashboard view
// and has no lifecycle of its own.
type StudentSnapshot struct {
	StudentID      int64
	Name           string
	TotalPoints    int
	Rank           int // 1-based position among all students by points
	TotalMinutes   int
	WeeklyAverage  int // average minutes per week over the trailing 28 days
	Consistency    int // percent of days practiced so far this month, 0-100
	Tier           string
	NextMilestone  int
	SkippedRecords int // practice rows dropped by sanity checks
}
