package repository

import (
	"context"
	"fmt"

	"melodyhall/internal/database"
	"melodyhall/internal/models"
)

// PointsRepository handles database operations for the points ledger
type PointsRepository struct {
	db *database.DB
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(db *database.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Create appends an entry to a student's ledger and fills in its ID
func (r *PointsRepository) Create(ctx context.Context, entry *models.PointsEntry) error {
	query := `
		INSERT INTO points_entries (student_id, delta, activity)
		VALUES (?, ?, ?)
	`
	id, err := r.db.InsertReturningID(ctx, query, entry.StudentID, entry.Delta, entry.Activity)
	if err != nil {
		return fmt.Errorf("failed to create points entry: %w", err)
	}
	entry.ID = id
	return nil
}

// ListByStudent retrieves a student's full ledger, newest first
func (r *PointsRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.PointsEntry, error) {
	query := `
		SELECT id, student_id, delta, activity, created_at
		FROM points_entries
		WHERE student_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points entries: %w", err)
	}
	defer rows.Close()

	var entries []models.PointsEntry
	for rows.Next() {
		var entry models.PointsEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.StudentID,
			&entry.Delta,
			&entry.Activity,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan points entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// TotalForStudent sums a student's ledger server-side. A student with no
// entries totals zero.
func (r *PointsRepository) TotalForStudent(ctx context.Context, studentID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(delta), 0)
		FROM points_entries
		WHERE student_id = ?
	`
	var total int
	if err := r.db.QueryRowContext(ctx, query, studentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}

// TotalsByStudent returns per-student ledger sums for every student with at
// least one entry.
func (r *PointsRepository) TotalsByStudent(ctx context.Context) (map[int64]int, error) {
	query := `
		SELECT student_id, COALESCE(SUM(delta), 0)
		FROM points_entries
		GROUP BY student_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query points totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var id int64
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("failed to scan points total: %w", err)
		}
		totals[id] = total
	}

	return totals, rows.Err()
}
