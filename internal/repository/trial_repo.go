package repository

import (
	"context"
	"database/sql"
	"fmt"

	"melodyhall/internal/database"
	"melodyhall/internal/models"
)

// TrialRepository handles database operations for trial lesson requests
type TrialRepository struct {
	db *database.DB
}

// NewTrialRepository creates a new trial repository
func NewTrialRepository(db *database.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

// Create stores a new trial request and fills in its ID
func (r *TrialRepository) Create(ctx context.Context, request *models.TrialRequest) error {
	query := `
		INSERT INTO trial_requests (name, email, phone, course, message)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.InsertReturningID(ctx, query,
		request.Name,
		request.Email,
		request.Phone,
		request.Course,
		request.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to create trial request: %w", err)
	}
	request.ID = id
	return nil
}

// GetByID retrieves a trial request by ID
func (r *TrialRepository) GetByID(ctx context.Context, id int64) (*models.TrialRequest, error) {
	query := `
		SELECT id, name, email, phone, course, message, contacted, created_at
		FROM trial_requests
		WHERE id = ?
	`
	request := &models.TrialRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.Name,
		&request.Email,
		&request.Phone,
		&request.Course,
		&request.Message,
		&request.Contacted,
		&request.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trial request: %w", err)
	}

	return request, nil
}

// GetAll retrieves all trial requests, newest first
func (r *TrialRepository) GetAll(ctx context.Context) ([]models.TrialRequest, error) {
	query := `
		SELECT id, name, email, phone, course, message, contacted, created_at
		FROM trial_requests
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial requests: %w", err)
	}
	defer rows.Close()

	var requests []models.TrialRequest
	for rows.Next() {
		var request models.TrialRequest
		if err := rows.Scan(
			&request.ID,
			&request.Name,
			&request.Email,
			&request.Phone,
			&request.Course,
			&request.Message,
			&request.Contacted,
			&request.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trial request: %w", err)
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// MarkContacted flags a trial request as handled
func (r *TrialRepository) MarkContacted(ctx context.Context, id int64) error {
	query := "UPDATE trial_requests SET contacted = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, true, id)
	if err != nil {
		return fmt.Errorf("failed to mark trial request contacted: %w", err)
	}
	return nil
}

// Delete removes a trial request
func (r *TrialRepository) Delete(ctx context.Context, id int64) error {
	query := "DELETE FROM trial_requests WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete trial request: %w", err)
	}
	return nil
}
