package models

import (
	"strings"
	"time"
)

// LearningLevel is the self-reported proficiency a student (or an admin)
// records on the extended profile. Distinct from the points-derived Tier.
type LearningLevel string

const (
	LevelNovice       LearningLevel = "novice"
	LevelBeginner     LearningLevel = "beginner"
	LevelIntermediate LearningLevel = "intermediate"
	LevelAdvanced     LearningLevel = "advanced"
	LevelProfessional LearningLevel = "professional"
)

// Valid reports whether the learning level is one of the defined values
func (l LearningLevel) Valid() bool {
	switch l {
	case LevelNovice, LevelBeginner, LevelIntermediate, LevelAdvanced, LevelProfessional:
		return true
	}
	return false
}

// StudentProfile is the optional one-to-one extension of a Profile with the
// student role. It does not exist until the student (or an admin) first saves
// enrollment details, so lookups must tolerate a missing row.
type StudentProfile struct {
	ID              int64
	UserID          int64
	ParentName      string
	ContactPhone    string
	PreferredCourse string
	LearningLevel   LearningLevel
	TimingSlots     []string // day-part tags, e.g. "weekday-evening"
	HeardFrom       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TimingSlotsString joins the timing slot tags for storage in a single column
func (p *StudentProfile) TimingSlotsString() string {
	return strings.Join(p.TimingSlots, ",")
}

// SplitTimingSlots parses a stored timing slot column back into tags
func SplitTimingSlots(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	slots := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			slots = append(slots, trimmed)
		}
	}
	return slots
}
