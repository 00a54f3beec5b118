package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"melodyhall/internal/models"
	"melodyhall/internal/progress"
	"melodyhall/internal/validation"
)

var (
	// ErrDataUnavailable wraps any storage failure during snapshot
	// assembly so handlers can show a degraded dashboard instead of a 500
	ErrDataUnavailable = errors.New("progress data unavailable")

	ErrStudentNotFound = errors.New("student not found")
)

// The progress service reads through narrow interfaces so tests can swap in
// in-memory fakes.

type profileReader interface {
	GetProfileByID(ctx context.Context, id int64) (*models.Profile, error)
	GetStudentProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfilesByIDs(ctx context.Context, ids []int64) ([]models.Profile, error)
}

type practiceStore interface {
	Create(ctx context.Context, session *models.PracticeSession) error
	ListByStudent(ctx context.Context, studentID int64) ([]models.PracticeSession, error)
	StudentIDsWithPracticeSince(ctx context.Context, since time.Time) ([]int64, error)
	TotalMinutesByStudent(ctx context.Context) (map[int64]int, error)
}

type pointsStore interface {
	Create(ctx context.Context, entry *models.PointsEntry) error
	ListByStudent(ctx context.Context, studentID int64) ([]models.PointsEntry, error)
	TotalForStudent(ctx context.Context, studentID int64) (int, error)
	TotalsByStudent(ctx context.Context) (map[int64]int, error)
}

// cachedSnapshot tags a snapshot with the calendar day it was computed on.
// Consistency and weekly average are functions of "today", so an entry is
// only good for the day it was built.
type cachedSnapshot struct {
	snapshot models.StudentSnapshot
	day      string
}

// ProgressService is the single entry point for everything derived from the
// points ledger and the practice log. Snapshots are cached per student with
// the day they were computed on; ledger and practice writes flush the whole
// cache because Rank depends on every student's ledger, and a computation
// that raced with a write is discarded rather than cached.
type ProgressService struct {
	profiles profileReader
	practice practiceStore
	points   pointsStore
	now      func() time.Time

	mu    sync.Mutex
	cache map[int64]cachedSnapshot
	gen   uint64
}

// NewProgressService creates a new progress service
func NewProgressService(profiles profileReader, practice practiceStore, points pointsStore) *ProgressService {
	return &ProgressService{
		profiles: profiles,
		practice: practice,
		points:   points,
		now:      time.Now,
		cache:    make(map[int64]cachedSnapshot),
	}
}

// Invalidate drops the cached snapshot for one student. Use this for changes
// that only affect that student's own view, such as a profile edit.
func (s *ProgressService) Invalidate(studentID int64) {
	s.mu.Lock()
	s.gen++
	delete(s.cache, studentID)
	s.mu.Unlock()
}

// InvalidateAll flushes every cached snapshot. Any write to a points ledger
// or practice log can shift peer ranks, so those paths flush everything.
func (s *ProgressService) InvalidateAll() {
	s.mu.Lock()
	s.gen++
	s.cache = make(map[int64]cachedSnapshot)
	s.mu.Unlock()
}

// LogPractice records a practice session for a student
func (s *ProgressService) LogPractice(ctx context.Context, session *models.PracticeSession) error {
	if err := validation.ValidatePracticeMinutes(session.Minutes); err != nil {
		return err
	}
	if session.Date.IsZero() {
		session.Date = s.now()
	}
	if err := s.practice.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to log practice: %w", err)
	}
	s.InvalidateAll()
	return nil
}

// AwardPoints appends a signed entry to a student's ledger
func (s *ProgressService) AwardPoints(ctx context.Context, studentID int64, delta int, activity string) error {
	if delta == 0 {
		return errors.New("points delta must be non-zero")
	}
	entry := &models.PointsEntry{StudentID: studentID, Delta: delta, Activity: activity}
	if err := s.points.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}
	s.InvalidateAll()
	return nil
}

// TotalPointsForStudent returns the ledger sum for a student. A zero ID
// identifies a record that was never persisted, which by definition has an
// empty ledger.
func (s *ProgressService) TotalPointsForStudent(ctx context.Context, studentID int64) (int, error) {
	if studentID == 0 {
		return 0, nil
	}
	total, err := s.points.TotalForStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return total, nil
}

// PracticeHistory returns a student's logged sessions, newest first
func (s *ProgressService) PracticeHistory(ctx context.Context, studentID int64) ([]models.PracticeSession, error) {
	sessions, err := s.practice.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return sessions, nil
}

// PointsHistory returns a student's ledger entries, newest first
func (s *ProgressService) PointsHistory(ctx context.Context, studentID int64) ([]models.PointsEntry, error) {
	entries, err := s.points.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return entries, nil
}

// BuildSnapshot assembles the full progress view for one student. The
// practice log and the points ledger are fetched concurrently.
func (s *ProgressService) BuildSnapshot(ctx context.Context, studentID int64) (*models.StudentSnapshot, error) {
	today := s.now().Format("2006-01-02")

	s.mu.Lock()
	if cached, ok := s.cache[studentID]; ok && cached.day == today {
		s.mu.Unlock()
		snapshot := cached.snapshot
		return &snapshot, nil
	}
	gen := s.gen
	s.mu.Unlock()

	profile, err := s.profiles.GetProfileByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if profile == nil {
		return nil, ErrStudentNotFound
	}

	var (
		wg          sync.WaitGroup
		sessions    []models.PracticeSession
		entries     []models.PointsEntry
		sessionsErr error
		entriesErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions, sessionsErr = s.practice.ListByStudent(ctx, studentID)
	}()
	go func() {
		defer wg.Done()
		entries, entriesErr = s.points.ListByStudent(ctx, studentID)
	}()
	wg.Wait()

	if sessionsErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, sessionsErr)
	}
	if entriesErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, entriesErr)
	}

	total := progress.TotalPoints(entries)
	stats := progress.CalculatePracticeStats(sessions, s.now())
	tier, nextMilestone := progress.ClassifyPoints(total)

	rank, err := s.rankByPoints(ctx, studentID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.StudentSnapshot{
		StudentID:      studentID,
		Name:           profile.Name,
		TotalPoints:    total,
		Rank:           rank,
		TotalMinutes:   stats.TotalMinutes,
		WeeklyAverage:  stats.WeeklyAverage,
		Consistency:    stats.Consistency,
		Tier:           tier,
		NextMilestone:  nextMilestone,
		SkippedRecords: stats.Skipped,
	}

	// Cache only if no write landed while we were computing
	s.mu.Lock()
	if s.gen == gen {
		s.cache[studentID] = cachedSnapshot{snapshot: *snapshot, day: today}
	}
	s.mu.Unlock()

	return snapshot, nil
}

// rankByPoints computes the student's 1-based standing among all students,
// using the server-side ledger aggregates.
func (s *ProgressService) rankByPoints(ctx context.Context, studentID int64) (int, error) {
	snapshots, err := s.pointsStandings(ctx)
	if err != nil {
		return 0, err
	}
	return progress.RankOf(snapshots, studentID, progress.ByPoints), nil
}

// pointsStandings builds minimal snapshots (ID, name, total points) for all
// students, ordered deterministically by name for stable tie-breaking.
func (s *ProgressService) pointsStandings(ctx context.Context) ([]models.StudentSnapshot, error) {
	students, err := s.profiles.GetStudentProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	totals, err := s.points.TotalsByStudent(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	snapshots := make([]models.StudentSnapshot, 0, len(students))
	for _, student := range students {
		snapshots = append(snapshots, models.StudentSnapshot{
			StudentID:   student.ID,
			Name:        student.Name,
			TotalPoints: totals[student.ID],
		})
	}
	return snapshots, nil
}

// Leaderboard returns the top n students by the given metric. Students with
// a zero metric value never appear.
func (s *ProgressService) Leaderboard(ctx context.Context, n int, metric progress.Metric) ([]models.StudentSnapshot, error) {
	snapshots, err := s.standings(ctx)
	if err != nil {
		return nil, err
	}
	return progress.TopN(snapshots, n, metric), nil
}

// standings builds leaderboard rows for all students with both aggregate
// metrics filled in.
func (s *ProgressService) standings(ctx context.Context) ([]models.StudentSnapshot, error) {
	students, err := s.profiles.GetStudentProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var (
		wg         sync.WaitGroup
		points     map[int64]int
		minutes    map[int64]int
		pointsErr  error
		minutesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		points, pointsErr = s.points.TotalsByStudent(ctx)
	}()
	go func() {
		defer wg.Done()
		minutes, minutesErr = s.practice.TotalMinutesByStudent(ctx)
	}()
	wg.Wait()

	if pointsErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, pointsErr)
	}
	if minutesErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, minutesErr)
	}

	snapshots := make([]models.StudentSnapshot, 0, len(students))
	for _, student := range students {
		snapshots = append(snapshots, models.StudentSnapshot{
			StudentID:    student.ID,
			Name:         student.Name,
			TotalPoints:  points[student.ID],
			TotalMinutes: minutes[student.ID],
		})
	}
	return snapshots, nil
}

// ActiveStudents returns the students that logged practice within the last
// seven days. The recent session IDs are fetched first and the matching
// profiles second, so students without recent practice are never loaded.
func (s *ProgressService) ActiveStudents(ctx context.Context) ([]models.Profile, error) {
	since := s.now().AddDate(0, 0, -7)
	ids, err := s.practice.StudentIDsWithPracticeSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	profiles, err := s.profiles.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return profiles, nil
}
