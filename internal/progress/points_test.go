package progress

import (
	"testing"

	"melodyhall/internal/models"
)

func TestTotalPoints(t *testing.T) {
	tests := []struct {
		name     string
		entries  []models.PointsEntry
		expected int
	}{
		{
			name:     "empty ledger",
			entries:  []models.PointsEntry{},
			expected: 0,
		},
		{
			name:     "nil ledger",
			entries:  nil,
			expected: 0,
		},
		{
			name: "single entry",
			entries: []models.PointsEntry{
				{StudentID: 1, Delta: 25, Activity: "lesson attended"},
			},
			expected: 25,
		},
		{
			name: "sum of positive deltas",
			entries: []models.PointsEntry{
				{Delta: 10},
				{Delta: 20},
				{Delta: 30},
			},
			expected: 60,
		},
		{
			name: "signed deltas",
			entries: []models.PointsEntry{
				{Delta: 100, Activity: "recital"},
				{Delta: -30, Activity: "adjustment"},
				{Delta: 5, Activity: "practice streak"},
			},
			expected: 75,
		},
		{
			name: "net negative total",
			entries: []models.PointsEntry{
				{Delta: 10},
				{Delta: -25},
			},
			expected: -15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TotalPoints(tt.entries)
			if result != tt.expected {
				t.Errorf("TotalPoints() = %d, want %d", result, tt.expected)
			}
		})
	}
}
