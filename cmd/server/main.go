package main

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"melodyhall/internal/config"
	"melodyhall/internal/database"
	"melodyhall/internal/handlers"
	"melodyhall/internal/repository"
	"melodyhall/internal/security"
	"melodyhall/internal/service"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	ctx := context.Background()
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	trialRepo := repository.NewTrialRepository(db)

	// Initialize services
	authService := service.NewAuthService(profileRepo, cfg.SessionDuration)
	progressService := service.NewProgressService(profileRepo, practiceRepo, pointsRepo)
	backupService := service.NewBackupService(db)

	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, "MelodyHall Music Academy", cfg.AdminEmail, cfg.OAuthRedirectBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	photoService, err := service.NewPhotoService(cfg.PhotosPath, cfg.UploadMaxSize)
	if err != nil {
		log.Fatalf("Failed to initialize photo service: %v", err)
	}

	// A fresh sign-in should never see a dashboard computed before the
	// student's latest activity
	authService.Subscribe(func(event service.AuthEvent) {
		if event.SignedIn {
			progressService.Invalidate(event.UserID)
		}
	})

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{
				"response_mode": "query",
			},
		},
	}

	// Initialize handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, csrf, limiter)
	siteHandler := handlers.NewSiteHandler(authService, progressService, templates)
	trialHandler := handlers.NewTrialHandler(trialRepo, emailService, templates)
	authHandler := handlers.NewAuthHandler(authService, emailService, templates, oauthProviders, cfg.OAuthRedirectBaseURL)
	studentHandler := handlers.NewStudentHandler(progressService, studentRepo, profileRepo, photoService, middleware, templates, cfg.UploadMaxSize)
	adminHandler := handlers.NewAdminHandler(progressService, authService, profileRepo, studentRepo, trialRepo, backupService, middleware, templates)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Public routes
	mux.HandleFunc("GET /", siteHandler.Home)
	mux.HandleFunc("GET /programs", siteHandler.Programs)
	mux.HandleFunc("GET /trial", trialHandler.ShowForm)
	mux.HandleFunc("POST /trial", middleware.RateLimit(trialHandler.Submit))
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Student portal
	mux.HandleFunc("GET /student/dashboard", middleware.RequireAuth(studentHandler.Dashboard))
	mux.HandleFunc("POST /student/practice", middleware.RequireAuth(middleware.CSRFProtect(studentHandler.LogPractice)))
	mux.HandleFunc("GET /student/profile", middleware.RequireAuth(studentHandler.ShowProfile))
	mux.HandleFunc("POST /student/profile", middleware.RequireAuth(middleware.CSRFProtect(studentHandler.UpdateProfile)))
	mux.HandleFunc("POST /student/profile/photo", middleware.RequireAuth(middleware.CSRFProtectMultipart(studentHandler.UploadPhoto)))

	// Staff portal
	mux.HandleFunc("GET /admin/dashboard", middleware.RequireStaff(adminHandler.Dashboard))
	mux.HandleFunc("GET /admin/students", middleware.RequireStaff(adminHandler.ShowStudents))
	mux.HandleFunc("POST /admin/students", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.CreateStudent)))
	mux.HandleFunc("GET /admin/students/{id}", middleware.RequireStaff(adminHandler.StudentDetail))
	mux.HandleFunc("POST /admin/students/{id}/update", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.UpdateStudent)))
	mux.HandleFunc("POST /admin/students/{id}/delete", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.DeleteStudent)))
	mux.HandleFunc("POST /admin/students/{id}/points", middleware.RequireStaff(middleware.CSRFProtect(adminHandler.AwardPoints)))
	mux.HandleFunc("GET /admin/trials", middleware.RequireStaff(adminHandler.ShowTrials))
	mux.HandleFunc("POST /admin/trials/{id}/contacted", middleware.RequireStaff(middleware.CSRFProtect(adminHandler.MarkTrialContacted)))
	mux.HandleFunc("GET /admin/export", middleware.RequireAdmin(adminHandler.ExportBackup))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go cleanupExpiredSessions(cleanupCtx, authService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// loadTemplates loads all template files
func loadTemplates(templatesPath string) (*template.Template, error) {
	pattern := filepath.Join(templatesPath, "*.tmpl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesPath)
	}

	// Define template functions
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"div": func(a, b int) int {
			if b == 0 {
				return 0
			}
			return a / b
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			} else {
				log.Println("Expired sessions cleaned up")
			}
		}
	}
}
