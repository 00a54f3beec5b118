package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"melodyhall/internal/models"
	"melodyhall/internal/repository"
	"melodyhall/internal/security"
	"melodyhall/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthEvent describes a sign-in or sign-out as seen by subscribers
type AuthEvent struct {
	UserID   int64
	SignedIn bool
}

// AuthService handles authentication business logic. Validated sessions are
// cached in memory so that the per-request auth check normally costs no
// database round trip; sign-out and expiry evict the cache entry.
type AuthService struct {
	profileRepo     *repository.ProfileRepository
	sessionDuration time.Duration

	mu          sync.RWMutex
	cache       map[string]cachedSession
	subscribers []func(AuthEvent)
}

type cachedSession struct {
	profile   *models.Profile
	expiresAt time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(profileRepo *repository.ProfileRepository, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		profileRepo:     profileRepo,
		sessionDuration: sessionDuration,
		cache:           make(map[string]cachedSession),
	}
}

// Subscribe registers a callback invoked on every sign-in and sign-out.
// Callbacks run synchronously and must not block.
func (s *AuthService) Subscribe(fn func(AuthEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *AuthService) notify(event AuthEvent) {
	s.mu.RLock()
	subscribers := s.subscribers
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// Register creates a new account with the student role
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.Profile, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.profileRepo.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile, err := s.profileRepo.CreateProfile(ctx, email, passwordHash, name, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// Login authenticates a profile and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, *models.Profile, error) {
	profile, err := s.profileRepo.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, profile.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, profile)
}

func (s *AuthService) startSession(ctx context.Context, profile *models.Profile) (*models.Session, *models.Profile, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.profileRepo.CreateSession(ctx, sessionID, profile.ID, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.mu.Lock()
	s.cache[sessionID] = cachedSession{profile: profile, expiresAt: expiresAt}
	s.mu.Unlock()

	s.notify(AuthEvent{UserID: profile.ID, SignedIn: true})

	return session, profile, nil
}

// ValidateSession checks if a session is valid and returns the associated profile
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.Profile, error) {
	s.mu.RLock()
	cached, ok := s.cache[sessionID]
	s.mu.RUnlock()
	if ok {
		if time.Now().Before(cached.expiresAt) {
			return cached.profile, nil
		}
		s.mu.Lock()
		delete(s.cache, sessionID)
		s.mu.Unlock()
	}

	session, err := s.profileRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.profileRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	profile, err := s.profileRepo.GetProfileByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	s.cache[sessionID] = cachedSession{profile: profile, expiresAt: session.ExpiresAt}
	s.mu.Unlock()

	return profile, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	cached, ok := s.cache[sessionID]
	delete(s.cache, sessionID)
	s.mu.Unlock()

	if err := s.profileRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	if ok {
		s.notify(AuthEvent{UserID: cached.profile.ID, SignedIn: false})
	}

	return nil
}

// EvictProfile drops any cached sessions for a profile, forcing the next
// request to re-read it. Used after role or name changes.
func (s *AuthService) EvictProfile(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cached := range s.cache {
		if cached.profile.ID == userID {
			delete(s.cache, id)
		}
	}
}

// CleanupExpiredSessions removes expired sessions from the database and cache
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	s.mu.Lock()
	now := time.Now()
	for id, cached := range s.cache {
		if now.After(cached.expiresAt) {
			delete(s.cache, id)
		}
	}
	s.mu.Unlock()

	if err := s.profileRepo.DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// OAuthLogin authenticates or creates a profile using an OAuth provider
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Session, *models.Profile, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	profile, err := s.profileRepo.GetProfileByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth profile: %w", err)
	}

	if profile == nil {
		existing, err := s.profileRepo.GetProfileByEmail(ctx, email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing profile: %w", err)
		}
		if existing != nil {
			if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			if err := s.profileRepo.LinkOAuthProvider(ctx, existing.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			profile = existing
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			// OAuth accounts never log in with a password, so store an
			// unguessable hash
			randomPasswordHash, err := security.HashPassword(security.GenerateSessionID())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
			}
			created, err := s.profileRepo.CreateProfile(ctx, email, randomPasswordHash, name, models.RoleStudent)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth profile: %w", err)
			}
			if err := s.profileRepo.LinkOAuthProvider(ctx, created.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			profile = created
		}
	}

	return s.startSession(ctx, profile)
}
