// Package progress contains the pure calculations behind the student
// dashboards: points totals, practice consistency, tier classification and
// top-N rankings. Nothing here touches the database or the clock; records
// and a reference "now" are always passed in, so every figure is reproducible
// in tests.
package progress

import "melodyhall/internal/models"

// TotalPoints returns the signed sum of all ledger entries. An empty ledger
// (including the "unknown student" case, which fetches zero rows) is a
// defined zero, not an error.
func TotalPoints(entries []models.PointsEntry) int {
	total := 0
	for _, entry := range entries {
		total += entry.Delta
	}
	return total
}
