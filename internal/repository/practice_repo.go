package repository

import (
	"context"
	"fmt"
	"time"

	"melodyhall/internal/database"
	"melodyhall/internal/models"
)

// PracticeRepository handles database operations for practice sessions
type PracticeRepository struct {
	db *database.DB
}

// NewPracticeRepository creates a new practice repository
func NewPracticeRepository(db *database.DB) *PracticeRepository {
	return &PracticeRepository{db: db}
}

// Create inserts a new practice session and fills in its ID
func (r *PracticeRepository) Create(ctx context.Context, session *models.PracticeSession) error {
	query := `
		INSERT INTO practice_sessions (student_id, practice_date, minutes, start_time, end_time)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.InsertReturningID(ctx, query,
		session.StudentID,
		session.Date.Format("2006-01-02"),
		session.Minutes,
		session.StartTime,
		session.EndTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create practice session: %w", err)
	}
	session.ID = id
	return nil
}

// ListByStudent retrieves all practice sessions for a student, newest first
func (r *PracticeRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.PracticeSession, error) {
	query := `
		SELECT id, student_id, practice_date, minutes, start_time, end_time, created_at
		FROM practice_sessions
		WHERE student_id = ?
		ORDER BY practice_date DESC, id DESC
	`
	return r.querySessions(ctx, query, studentID)
}

// StudentIDsWithPracticeSince returns the distinct students that logged at
// least one session on or after the given day.
func (r *PracticeRepository) StudentIDsWithPracticeSince(ctx context.Context, since time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT student_id
		FROM practice_sessions
		WHERE practice_date >= ?
	`
	rows, err := r.db.QueryContext(ctx, query, since.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent practice: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// TotalMinutesByStudent returns per-student practice minute totals for every
// student with at least one session.
func (r *PracticeRepository) TotalMinutesByStudent(ctx context.Context) (map[int64]int, error) {
	query := `
		SELECT student_id, COALESCE(SUM(minutes), 0)
		FROM practice_sessions
		WHERE minutes >= 0
		GROUP BY student_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query practice totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var id int64
		var minutes int
		if err := rows.Scan(&id, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan practice total: %w", err)
		}
		totals[id] = minutes
	}

	return totals, rows.Err()
}

// Delete removes a practice session
func (r *PracticeRepository) Delete(ctx context.Context, id int64) error {
	query := "DELETE FROM practice_sessions WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete practice session: %w", err)
	}
	return nil
}

func (r *PracticeRepository) querySessions(ctx context.Context, query string, args ...interface{}) ([]models.PracticeSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query practice sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PracticeSession
	for rows.Next() {
		var session models.PracticeSession
		if err := rows.Scan(
			&session.ID,
			&session.StudentID,
			&session.Date,
			&session.Minutes,
			&session.StartTime,
			&session.EndTime,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan practice session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
