package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"melodyhall/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Users      []UserBackup     `json:"users"`
	Students   []StudentBackup  `json:"student_profiles"`
	Practices  []PracticeBackup `json:"practice_sessions"`
	Points     []PointsBackup   `json:"points_entries"`
	Trials     []TrialBackup    `json:"trial_requests"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	PhotoFilename string    `json:"photo_filename"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StudentBackup represents an extended student profile for backup
type StudentBackup struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ParentName      string    `json:"parent_name"`
	ContactPhone    string    `json:"contact_phone"`
	PreferredCourse string    `json:"preferred_course"`
	LearningLevel   string    `json:"learning_level"`
	TimingSlots     string    `json:"timing_slots"`
	HeardFrom       string    `json:"heard_from"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PracticeBackup represents a practice session for backup
type PracticeBackup struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Date      time.Time `json:"practice_date"`
	Minutes   int       `json:"minutes"`
	StartTime *string   `json:"start_time"`
	EndTime   *string   `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// PointsBackup represents a points ledger entry for backup
type PointsBackup struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Delta     int       `json:"delta"`
	Activity  string    `json:"activity"`
	CreatedAt time.Time `json:"created_at"`
}

// TrialBackup represents a trial request for backup
type TrialBackup struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Course    string    `json:"course"`
	Message   string    `json:"message"`
	Contacted bool      `json:"contacted"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(ctx, backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportStudents(ctx, backup); err != nil {
		return fmt.Errorf("failed to export student profiles: %w", err)
	}
	if err := s.exportPractices(ctx, backup); err != nil {
		return fmt.Errorf("failed to export practice sessions: %w", err)
	}
	if err := s.exportPoints(ctx, backup); err != nil {
		return fmt.Errorf("failed to export points entries: %w", err)
	}
	if err := s.exportTrials(ctx, backup); err != nil {
		return fmt.Errorf("failed to export trial requests: %w", err)
	}

	log.Printf("Exported: %d users, %d student profiles, %d practices, %d points entries, %d trials",
		len(backup.Users), len(backup.Students), len(backup.Practices),
		len(backup.Points), len(backup.Trials))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in order of foreign key dependencies
	if err := s.importUsers(ctx, backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importStudents(ctx, backup.Students); err != nil {
		return fmt.Errorf("failed to import student profiles: %w", err)
	}
	if err := s.importPractices(ctx, backup.Practices); err != nil {
		return fmt.Errorf("failed to import practice sessions: %w", err)
	}
	if err := s.importPoints(ctx, backup.Points); err != nil {
		return fmt.Errorf("failed to import points entries: %w", err)
	}
	if err := s.importTrials(ctx, backup.Trials); err != nil {
		return fmt.Errorf("failed to import trial requests: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, role, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), COALESCE(photo_filename, ''), created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.OAuthProvider, &u.OAuthSubject, &u.PhotoFilename, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportStudents(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, user_id, parent_name, contact_phone, preferred_course, learning_level, timing_slots, heard_from, created_at, updated_at FROM student_profiles ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p StudentBackup
		if err := rows.Scan(&p.ID, &p.UserID, &p.ParentName, &p.ContactPhone, &p.PreferredCourse, &p.LearningLevel, &p.TimingSlots, &p.HeardFrom, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		backup.Students = append(backup.Students, p)
	}
	return rows.Err()
}

func (s *BackupService) exportPractices(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, student_id, practice_date, minutes, start_time, end_time, created_at FROM practice_sessions ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p PracticeBackup
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Date, &p.Minutes, &p.StartTime, &p.EndTime, &p.CreatedAt); err != nil {
			return err
		}
		backup.Practices = append(backup.Practices, p)
	}
	return rows.Err()
}

func (s *BackupService) exportPoints(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, student_id, delta, activity, created_at FROM points_entries ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p PointsBackup
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Delta, &p.Activity, &p.CreatedAt); err != nil {
			return err
		}
		backup.Points = append(backup.Points, p)
	}
	return rows.Err()
}

func (s *BackupService) exportTrials(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, name, email, phone, course, message, contacted, created_at FROM trial_requests ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t TrialBackup
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.Course, &t.Message, &t.Contacted, &t.CreatedAt); err != nil {
			return err
		}
		backup.Trials = append(backup.Trials, t)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(ctx context.Context, users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, name, role, oauth_provider, oauth_subject, photo_filename, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.OAuthProvider, u.OAuthSubject, u.PhotoFilename, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importStudents(ctx context.Context, students []StudentBackup) error {
	log.Printf("Importing %d student profiles...", len(students))
	for _, p := range students {
		query := "INSERT INTO student_profiles (id, user_id, parent_name, contact_phone, preferred_course, learning_level, timing_slots, heard_from, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.ExecContext(ctx, query, p.ID, p.UserID, p.ParentName, p.ContactPhone, p.PreferredCourse, p.LearningLevel, p.TimingSlots, p.HeardFrom, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import student profile %d: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importPractices(ctx context.Context, practices []PracticeBackup) error {
	log.Printf("Importing %d practice sessions...", len(practices))
	for _, p := range practices {
		query := "INSERT INTO practice_sessions (id, student_id, practice_date, minutes, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.ExecContext(ctx, query, p.ID, p.StudentID, p.Date.Format("2006-01-02"), p.Minutes, p.StartTime, p.EndTime, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import practice session %d: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importPoints(ctx context.Context, points []PointsBackup) error {
	log.Printf("Importing %d points entries...", len(points))
	for _, p := range points {
		query := "INSERT INTO points_entries (id, student_id, delta, activity, created_at) VALUES (?, ?, ?, ?, ?)"
		_, err := s.db.ExecContext(ctx, query, p.ID, p.StudentID, p.Delta, p.Activity, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import points entry %d: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importTrials(ctx context.Context, trials []TrialBackup) error {
	log.Printf("Importing %d trial requests...", len(trials))
	for _, t := range trials {
		query := "INSERT INTO trial_requests (id, name, email, phone, course, message, contacted, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.ExecContext(ctx, query, t.ID, t.Name, t.Email, t.Phone, t.Course, t.Message, t.Contacted, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import trial request %d: %w", t.ID, err)
		}
	}
	return nil
}
