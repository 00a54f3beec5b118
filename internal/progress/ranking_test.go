package progress

import (
	"testing"

	"melodyhall/internal/models"
)

func snapshot(id int64, name string, points, minutes int) models.StudentSnapshot {
	return models.StudentSnapshot{StudentID: id, Name: name, TotalPoints: points, TotalMinutes: minutes}
}

func TestTopNStableTieBreak(t *testing.T) {
	input := []models.StudentSnapshot{
		snapshot(1, "Anna", 50, 0),
		snapshot(2, "Ben", 50, 0),
		snapshot(3, "Cara", 30, 0),
	}

	top := TopN(input, 2, ByPoints)

	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	// Equal values must keep their input order: Anna before Ben
	if top[0].StudentID != 1 || top[1].StudentID != 2 {
		t.Errorf("tie not stable: got [%d, %d], want [1, 2]", top[0].StudentID, top[1].StudentID)
	}
	if top[0].Rank != 1 || top[1].Rank != 2 {
		t.Errorf("ranks = [%d, %d], want positional [1, 2]", top[0].Rank, top[1].Rank)
	}
}

func TestTopNOmitsZeroValues(t *testing.T) {
	input := []models.StudentSnapshot{
		snapshot(1, "Anna", 0, 120),
		snapshot(2, "Ben", 0, 0), // never practiced
		snapshot(3, "Cara", 0, 45),
	}

	top := TopN(input, 10, ByPracticeMinutes)

	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	for _, s := range top {
		if s.StudentID == 2 {
			t.Error("student with zero minutes must not appear in a practice leaderboard")
		}
	}
	if top[0].StudentID != 1 {
		t.Errorf("top student = %d, want 1", top[0].StudentID)
	}
}

func TestTopNKeepsNegativeTotals(t *testing.T) {
	input := []models.StudentSnapshot{
		snapshot(1, "Anna", -20, 0), // deductions outweigh awards
		snapshot(2, "Ben", 40, 0),
		snapshot(3, "Cara", 0, 0),
	}

	top := TopN(input, 10, ByPoints)

	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].StudentID != 2 {
		t.Errorf("top student = %d, want 2", top[0].StudentID)
	}
	// A negative net total is nonzero: it appears, below the positives
	if top[1].StudentID != 1 || top[1].Rank != 2 {
		t.Errorf("last = student %d rank %d, want student 1 rank 2", top[1].StudentID, top[1].Rank)
	}
}

func TestTopNDefaultsAndLimits(t *testing.T) {
	var input []models.StudentSnapshot
	for i := int64(1); i <= 8; i++ {
		input = append(input, snapshot(i, "s", int(i)*10, 0))
	}

	t.Run("non-positive n falls back to the default", func(t *testing.T) {
		top := TopN(input, 0, ByPoints)
		if len(top) != DefaultTopN {
			t.Errorf("got %d results, want %d", len(top), DefaultTopN)
		}
	})

	t.Run("fewer eligible students than n", func(t *testing.T) {
		top := TopN(input[:3], 10, ByPoints)
		if len(top) != 3 {
			t.Errorf("got %d results, want 3", len(top))
		}
	})

	t.Run("orders descending", func(t *testing.T) {
		top := TopN(input, 3, ByPoints)
		if top[0].TotalPoints != 80 || top[1].TotalPoints != 70 || top[2].TotalPoints != 60 {
			t.Errorf("got points [%d, %d, %d], want [80, 70, 60]",
				top[0].TotalPoints, top[1].TotalPoints, top[2].TotalPoints)
		}
	})
}

func TestRankOf(t *testing.T) {
	input := []models.StudentSnapshot{
		snapshot(1, "Anna", 50, 0),
		snapshot(2, "Ben", 200, 0),
		snapshot(3, "Cara", 0, 0),
		snapshot(4, "Dan", 50, 0),
	}

	tests := []struct {
		name      string
		studentID int64
		expected  int
	}{
		{name: "leader", studentID: 2, expected: 1},
		{name: "first of a tie", studentID: 1, expected: 2},
		{name: "second of a tie keeps input order", studentID: 4, expected: 3},
		{name: "zero points still ranked", studentID: 3, expected: 4},
		{name: "unknown student", studentID: 99, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank := RankOf(input, tt.studentID, ByPoints)
			if rank != tt.expected {
				t.Errorf("RankOf(%d) = %d, want %d", tt.studentID, rank, tt.expected)
			}
		})
	}
}
