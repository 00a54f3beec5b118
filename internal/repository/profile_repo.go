package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"melodyhall/internal/database"
	"melodyhall/internal/models"
)

// ProfileRepository handles database operations for profiles and sessions
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, password_hash, name, role, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), COALESCE(photo_filename, ''), created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.Profile, error) {
	profile := &models.Profile{}
	var role string
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Name,
		&role,
		&profile.OAuthProvider,
		&profile.OAuthSubject,
		&profile.PhotoFilename,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("profile %d: %w", profile.ID, err)
	}
	profile.Role = parsed

	return profile, nil
}

// CreateProfile inserts a new profile into the database
func (r *ProfileRepository) CreateProfile(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	// The first account registered becomes the admin
	var profileCount int
	countQuery := "SELECT COUNT(*) FROM users"
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&profileCount); err != nil {
		return nil, fmt.Errorf("failed to count profiles: %w", err)
	}
	if profileCount == 0 {
		role = models.RoleAdmin
	}

	query := `
		INSERT INTO users (email, password_hash, name, role)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.InsertReturningID(ctx, query, email, passwordHash, name, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	profile := &models.Profile{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	return profile, nil
}

// GetProfileByEmail retrieves a profile by email address
func (r *ProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE email = ?
	`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByID retrieves a profile by ID
func (r *ProfileRepository) GetProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id = ?
	`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByOAuth retrieves a profile by OAuth provider and subject
func (r *ProfileRepository) GetProfileByOAuth(ctx context.Context, provider, subject string) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE oauth_provider = ? AND oauth_subject = ?
	`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by oauth: %w", err)
	}
	return profile, nil
}

// LinkOAuthProvider links an existing profile to an OAuth provider
func (r *ProfileRepository) LinkOAuthProvider(ctx context.Context, userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.ExecContext(ctx, query, provider, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}

	return nil
}

// GetAllProfiles retrieves all profiles, newest first
func (r *ProfileRepository) GetAllProfiles(ctx context.Context) ([]models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		ORDER BY created_at DESC
	`
	return r.queryProfiles(ctx, query)
}

// GetStudentProfiles retrieves all profiles carrying the student role
func (r *ProfileRepository) GetStudentProfiles(ctx context.Context) ([]models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE role = ?
		ORDER BY name ASC
	`
	return r.queryProfiles(ctx, query, string(models.RoleStudent))
}

// GetProfilesByIDs retrieves the profiles for a set of IDs. Missing IDs are
// silently absent from the result.
func (r *ProfileRepository) GetProfilesByIDs(ctx context.Context, ids []int64) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := "SELECT " + profileColumns + " FROM users WHERE id IN ("
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		query += "?"
		args[i] = id
	}
	query += ") ORDER BY name ASC"

	return r.queryProfiles(ctx, query, args...)
}

func (r *ProfileRepository) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	return profiles, rows.Err()
}

// UpdateProfile updates a profile's information
func (r *ProfileRepository) UpdateProfile(ctx context.Context, id int64, email, name string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	query := `
		UPDATE users
		SET email = ?, name = ?, role = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, email, name, string(role), id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdatePhoto stores the profile photo filename
func (r *ProfileRepository) UpdatePhoto(ctx context.Context, id int64, filename string) error {
	query := `
		UPDATE users
		SET photo_filename = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, filename, id)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	return nil
}

// DeleteProfile deletes a profile and all associated data
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id int64) error {
	query := "DELETE FROM users WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a profile
func (r *ProfileRepository) CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, sessionID, userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (r *ProfileRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session from the database
func (r *ProfileRepository) DeleteSession(ctx context.Context, sessionID string) error {
	query := "DELETE FROM sessions WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *ProfileRepository) DeleteExpiredSessions(ctx context.Context) error {
	query := "DELETE FROM sessions WHERE expires_at < ?"
	_, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
