package models

import "time"

// PracticeSession represents one logged practice entry for a student.
// Sessions are append-only from the student's perspective; the aggregation
// code only ever reads them.
type PracticeSession struct {
	ID        int64
	StudentID int64
	Date      time.Time // calendar day; clock part is ignored by calculators
	Minutes   int
	StartTime *string // optional "15:04" clock times
	EndTime   *string
	CreatedAt time.Time
}

// PointsEntry is one signed adjustment in a student's points ledger.
// The running total for a student is always derived by summing entries,
// never stored.
type PointsEntry struct {
	ID        int64
	StudentID int64
	Delta     int
	Activity  string
	CreatedAt time.Time
}
