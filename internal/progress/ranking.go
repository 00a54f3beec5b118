package progress

import (
	"sort"

	"melodyhall/internal/models"
)

// Metric selects which snapshot figure a ranking is ordered by
type Metric int

const (
	ByPoints Metric = iota
	ByPracticeMinutes
)

// DefaultTopN is the leaderboard size when the caller does not ask for one
const DefaultTopN = 5

// metricValue reads the selected figure from a snapshot
func metricValue(s models.StudentSnapshot, metric Metric) int {
	if metric == ByPracticeMinutes {
		return s.TotalMinutes
	}
	return s.TotalPoints
}

// TopN returns the top n snapshots ordered descending by the given metric.
// The sort is stable: students with equal values keep their input order.
// Students whose metric is zero are omitted entirely: a student who has
// never practiced does not appear on a practice leaderboard with a 0. A
// negative net point total is nonzero and stays in, sorted below the
// positives. Ranks are 1-based positions in the returned order, not dense
// ranks.
func TopN(snapshots []models.StudentSnapshot, n int, metric Metric) []models.StudentSnapshot {
	if n <= 0 {
		n = DefaultTopN
	}

	ranked := make([]models.StudentSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if metricValue(s, metric) != 0 {
			ranked = append(ranked, s)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return metricValue(ranked[i], metric) > metricValue(ranked[j], metric)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// RankOf returns the 1-based position of a student in the full stable
// descending ordering of all snapshots by the metric, or 0 if the student is
// not present. Unlike TopN it keeps zero-metric students: every enrolled
// student has a rank among their peers.
func RankOf(snapshots []models.StudentSnapshot, studentID int64, metric Metric) int {
	ordered := make([]models.StudentSnapshot, len(snapshots))
	copy(ordered, snapshots)

	sort.SliceStable(ordered, func(i, j int) bool {
		return metricValue(ordered[i], metric) > metricValue(ordered[j], metric)
	})

	for i, s := range ordered {
		if s.StudentID == studentID {
			return i + 1
		}
	}
	return 0
}
