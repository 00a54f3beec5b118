package repository

import (
	"context"
	"database/sql"
	"fmt"

	"melodyhall/internal/database"
	"melodyhall/internal/models"
)

// StudentRepository handles database operations for extended student profiles
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetByUserID retrieves the extended profile for a student. Returns nil when
// the student has not filled in enrollment details yet.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	query := `
		SELECT id, user_id, parent_name, contact_phone, preferred_course, learning_level, timing_slots, heard_from, created_at, updated_at
		FROM student_profiles
		WHERE user_id = ?
	`
	profile := &models.StudentProfile{}
	var level, slots string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.ParentName,
		&profile.ContactPhone,
		&profile.PreferredCourse,
		&level,
		&slots,
		&profile.HeardFrom,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}

	profile.LearningLevel = models.LearningLevel(level)
	profile.TimingSlots = models.SplitTimingSlots(slots)

	return profile, nil
}

// Upsert creates the extended profile on first save and updates it afterwards
func (r *StudentRepository) Upsert(ctx context.Context, profile *models.StudentProfile) error {
	if profile.LearningLevel != "" && !profile.LearningLevel.Valid() {
		return fmt.Errorf("invalid learning level %q", profile.LearningLevel)
	}

	existing, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}

	if existing == nil {
		query := `
			INSERT INTO student_profiles (user_id, parent_name, contact_phone, preferred_course, learning_level, timing_slots, heard_from)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		id, err := r.db.InsertReturningID(ctx, query,
			profile.UserID,
			profile.ParentName,
			profile.ContactPhone,
			profile.PreferredCourse,
			string(profile.LearningLevel),
			profile.TimingSlotsString(),
			profile.HeardFrom,
		)
		if err != nil {
			return fmt.Errorf("failed to create student profile: %w", err)
		}
		profile.ID = id
		return nil
	}

	query := `
		UPDATE student_profiles
		SET parent_name = ?, contact_phone = ?, preferred_course = ?, learning_level = ?, timing_slots = ?, heard_from = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		profile.ParentName,
		profile.ContactPhone,
		profile.PreferredCourse,
		string(profile.LearningLevel),
		profile.TimingSlotsString(),
		profile.HeardFrom,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student profile: %w", err)
	}
	profile.ID = existing.ID
	return nil
}

// Delete removes the extended profile for a student
func (r *StudentRepository) Delete(ctx context.Context, userID int64) error {
	query := "DELETE FROM student_profiles WHERE user_id = ?"
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete student profile: %w", err)
	}
	return nil
}
