package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"melodyhall/internal/models"
	"melodyhall/internal/progress"
)

// fakeStore backs the progress service with in-memory data and implements
// all three reader interfaces.
type fakeStore struct {
	mu       sync.Mutex
	profiles map[int64]models.Profile
	sessions map[int64][]models.PracticeSession
	entries  map[int64][]models.PointsEntry

	failReads bool

	listSessionCalls int
	listEntryCalls   int

	// invoked during ListByStudent on sessions, used to simulate a write
	// racing a snapshot computation
	onListSessions func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[int64]models.Profile),
		sessions: make(map[int64][]models.PracticeSession),
		entries:  make(map[int64][]models.PointsEntry),
	}
}

var errFakeDown = errors.New("fake store down")

func (f *fakeStore) addStudent(id int64, name string) {
	f.profiles[id] = models.Profile{ID: id, Name: name, Role: models.RoleStudent}
}

func (f *fakeStore) GetProfileByID(_ context.Context, id int64) (*models.Profile, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeStore) GetStudentProfiles(_ context.Context) ([]models.Profile, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Profile
	for _, p := range f.profiles {
		if p.Role == models.RoleStudent {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetProfilesByIDs(_ context.Context, ids []int64) ([]models.Profile, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Profile
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByStudent(_ context.Context, studentID int64) ([]models.PracticeSession, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	f.listSessionCalls++
	hook := f.onListSessions
	sessions := f.sessions[studentID]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return sessions, nil
}

func (f *fakeStore) StudentIDsWithPracticeSince(_ context.Context, since time.Time) ([]int64, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for id, sessions := range f.sessions {
		for _, s := range sessions {
			if !s.Date.Before(since) && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (f *fakeStore) TotalMinutesByStudent(_ context.Context) (map[int64]int, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := make(map[int64]int)
	for id, sessions := range f.sessions {
		for _, s := range sessions {
			if s.Minutes >= 0 {
				totals[id] += s.Minutes
			}
		}
	}
	return totals, nil
}

// pointsView adapts the fake to the pointsStore interface
type pointsView struct{ *fakeStore }

func (f pointsView) Create(_ context.Context, entry *models.PointsEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.StudentID] = append(f.entries[entry.StudentID], *entry)
	return nil
}

func (f pointsView) ListByStudent(_ context.Context, studentID int64) ([]models.PointsEntry, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listEntryCalls++
	return f.entries[studentID], nil
}

func (f pointsView) TotalForStudent(_ context.Context, studentID int64) (int, error) {
	if f.failReads {
		return 0, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, e := range f.entries[studentID] {
		total += e.Delta
	}
	return total, nil
}

func (f pointsView) TotalsByStudent(_ context.Context) (map[int64]int, error) {
	if f.failReads {
		return nil, errFakeDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := make(map[int64]int)
	for id, entries := range f.entries {
		for _, e := range entries {
			totals[id] += e.Delta
		}
	}
	return totals, nil
}

// practiceView adapts the fake to the practiceStore interface
type practiceView struct{ *fakeStore }

func (f practiceView) Create(_ context.Context, session *models.PracticeSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.StudentID] = append(f.sessions[session.StudentID], *session)
	return nil
}

func newTestService(store *fakeStore) *ProgressService {
	return NewProgressService(store, practiceView{store}, pointsView{store})
}

func TestBuildSnapshot(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	store.addStudent(2, "Bram")
	store.entries[1] = []models.PointsEntry{
		{StudentID: 1, Delta: 200},
		{StudentID: 1, Delta: 150},
		{StudentID: 1, Delta: -30},
	}
	store.entries[2] = []models.PointsEntry{
		{StudentID: 2, Delta: 500},
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.sessions[1] = []models.PracticeSession{
		{StudentID: 1, Date: now.AddDate(0, 0, -1), Minutes: 40},
		{StudentID: 1, Date: now.AddDate(0, 0, -2), Minutes: 30},
	}

	svc := newTestService(store)
	svc.now = func() time.Time { return now }

	snapshot, err := svc.BuildSnapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	if snapshot.Name != "Aino" {
		t.Errorf("Name = %q, want Aino", snapshot.Name)
	}
	if snapshot.TotalPoints != 320 {
		t.Errorf("TotalPoints = %d, want 320", snapshot.TotalPoints)
	}
	if snapshot.Tier != progress.TierAdvanced {
		t.Errorf("Tier = %q, want %q", snapshot.Tier, progress.TierAdvanced)
	}
	if snapshot.NextMilestone != 500 {
		t.Errorf("NextMilestone = %d, want 500", snapshot.NextMilestone)
	}
	if snapshot.Rank != 2 {
		t.Errorf("Rank = %d, want 2 (behind Bram's 500)", snapshot.Rank)
	}
	if snapshot.TotalMinutes != 70 {
		t.Errorf("TotalMinutes = %d, want 70", snapshot.TotalMinutes)
	}
}

func TestBuildSnapshotEmptyLedger(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")

	svc := newTestService(store)
	snapshot, err := svc.BuildSnapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	if snapshot.TotalPoints != 0 {
		t.Errorf("TotalPoints = %d, want 0", snapshot.TotalPoints)
	}
	if snapshot.Tier != progress.TierBeginner {
		t.Errorf("Tier = %q, want %q", snapshot.Tier, progress.TierBeginner)
	}
	if snapshot.NextMilestone != 100 {
		t.Errorf("NextMilestone = %d, want 100", snapshot.NextMilestone)
	}
	// Zero points still ranks; the only student is first
	if snapshot.Rank != 1 {
		t.Errorf("Rank = %d, want 1", snapshot.Rank)
	}
}

func TestBuildSnapshotUnknownStudent(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.BuildSnapshot(context.Background(), 42)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("error = %v, want ErrStudentNotFound", err)
	}
}

func TestBuildSnapshotDataUnavailable(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	store.failReads = true

	svc := newTestService(store)
	_, err := svc.BuildSnapshot(context.Background(), 1)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("error = %v, want ErrDataUnavailable", err)
	}
}

func TestSnapshotCaching(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")

	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.BuildSnapshot(ctx, 1); err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	first := store.listSessionCalls

	if _, err := svc.BuildSnapshot(ctx, 1); err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if store.listSessionCalls != first {
		t.Errorf("cached snapshot hit the store: %d calls, want %d", store.listSessionCalls, first)
	}
}

func TestWriteInvalidatesSnapshot(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")

	svc := newTestService(store)
	ctx := context.Background()

	before, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if before.TotalPoints != 0 {
		t.Fatalf("TotalPoints = %d, want 0", before.TotalPoints)
	}

	if err := svc.AwardPoints(ctx, 1, 120, "recital"); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}

	after, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if after.TotalPoints != 120 {
		t.Errorf("TotalPoints = %d, want 120 after award", after.TotalPoints)
	}
	if after.Tier != progress.TierIntermediate {
		t.Errorf("Tier = %q, want %q", after.Tier, progress.TierIntermediate)
	}
}

func TestPeerAwardRecomputesRank(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	store.addStudent(2, "Bram")
	store.entries[1] = []models.PointsEntry{{StudentID: 1, Delta: 100}}
	store.entries[2] = []models.PointsEntry{{StudentID: 2, Delta: 50}}

	svc := newTestService(store)
	ctx := context.Background()

	before, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if before.Rank != 1 {
		t.Fatalf("Rank = %d, want 1 before peer award", before.Rank)
	}

	// The award goes to student 2, but it changes student 1's standing
	if err := svc.AwardPoints(ctx, 2, 100, "recital"); err != nil {
		t.Fatalf("AwardPoints() error = %v", err)
	}

	after, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if after.Rank != 2 {
		t.Errorf("Rank = %d, want 2 after peer overtakes", after.Rank)
	}
}

func TestSnapshotRecomputedOnNewDay(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.sessions[1] = []models.PracticeSession{
		{StudentID: 1, Date: day1, Minutes: 30},
	}

	svc := newTestService(store)
	svc.now = func() time.Time { return day1 }
	ctx := context.Background()

	first, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if first.Consistency != 100 {
		t.Fatalf("Consistency = %d, want 100 on day 1", first.Consistency)
	}

	// Nineteen days pass with no writes; the cached figure from day 1
	// must not be served
	svc.now = func() time.Time { return day1.AddDate(0, 0, 19) }

	later, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if later.Consistency != 5 {
		t.Errorf("Consistency = %d, want 5 (1 of 20 days)", later.Consistency)
	}
}

func TestStaleComputationNotCached(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")

	svc := newTestService(store)
	ctx := context.Background()

	// A write lands while the snapshot is being computed; the stale
	// result must not end up in the cache.
	store.onListSessions = func() {
		store.onListSessions = nil
		svc.Invalidate(1)
	}

	if _, err := svc.BuildSnapshot(ctx, 1); err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	calls := store.listSessionCalls

	if _, err := svc.BuildSnapshot(ctx, 1); err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if store.listSessionCalls == calls {
		t.Error("stale snapshot was served from cache")
	}
}

func TestTotalPointsForUnsavedStudent(t *testing.T) {
	store := newFakeStore()
	store.failReads = true // must not be touched at all

	svc := newTestService(store)
	total, err := svc.TotalPointsForStudent(context.Background(), 0)
	if err != nil {
		t.Fatalf("TotalPointsForStudent(0) error = %v", err)
	}
	if total != 0 {
		t.Errorf("TotalPointsForStudent(0) = %d, want 0", total)
	}
}

func TestSnapshotMatchesServerAggregate(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	store.entries[1] = []models.PointsEntry{
		{StudentID: 1, Delta: 75},
		{StudentID: 1, Delta: -25},
		{StudentID: 1, Delta: 10},
	}

	svc := newTestService(store)
	ctx := context.Background()

	snapshot, err := svc.BuildSnapshot(ctx, 1)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	aggregate, err := svc.TotalPointsForStudent(ctx, 1)
	if err != nil {
		t.Fatalf("TotalPointsForStudent() error = %v", err)
	}

	if snapshot.TotalPoints != aggregate {
		t.Errorf("client-side sum %d != server aggregate %d", snapshot.TotalPoints, aggregate)
	}
}

func TestLeaderboard(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	store.addStudent(2, "Bram")
	store.addStudent(3, "Chen")
	store.entries[1] = []models.PointsEntry{{StudentID: 1, Delta: 50}}
	store.entries[2] = []models.PointsEntry{{StudentID: 2, Delta: 80}}
	// Chen has no points and must not appear

	svc := newTestService(store)
	top, err := svc.Leaderboard(context.Background(), 5, progress.ByPoints)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}

	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].StudentID != 2 || top[0].Rank != 1 {
		t.Errorf("first = student %d rank %d, want student 2 rank 1", top[0].StudentID, top[0].Rank)
	}
	if top[1].StudentID != 1 || top[1].Rank != 2 {
		t.Errorf("second = student %d rank %d, want student 1 rank 2", top[1].StudentID, top[1].Rank)
	}
}

func TestActiveStudents(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")
	store.addStudent(2, "Bram")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.sessions[1] = []models.PracticeSession{
		{StudentID: 1, Date: now.AddDate(0, 0, -2), Minutes: 20},
	}
	store.sessions[2] = []models.PracticeSession{
		{StudentID: 2, Date: now.AddDate(0, 0, -10), Minutes: 20},
	}

	svc := newTestService(store)
	svc.now = func() time.Time { return now }

	active, err := svc.ActiveStudents(context.Background())
	if err != nil {
		t.Fatalf("ActiveStudents() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != 1 {
		t.Errorf("active = %v, want only student 1", active)
	}
}

func TestActiveStudentsNoneRecent(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")

	svc := newTestService(store)
	active, err := svc.ActiveStudents(context.Background())
	if err != nil {
		t.Fatalf("ActiveStudents() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active = %v, want empty", active)
	}
}

func TestLogPracticeRejectsBadMinutes(t *testing.T) {
	store := newFakeStore()
	store.addStudent(1, "Aino")

	svc := newTestService(store)
	err := svc.LogPractice(context.Background(), &models.PracticeSession{StudentID: 1, Minutes: -5})
	if err == nil {
		t.Error("LogPractice() accepted negative minutes")
	}
}
