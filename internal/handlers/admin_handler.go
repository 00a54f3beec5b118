package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"melodyhall/internal/models"
	"melodyhall/internal/progress"
	"melodyhall/internal/repository"
	"melodyhall/internal/service"
)

const leaderboardSize = 5

// AdminHandler serves the staff portal: the academy dashboard, student
// management, trial request triage and data export.
type AdminHandler struct {
	progress    *service.ProgressService
	authService *service.AuthService
	profiles    *repository.ProfileRepository
	students    *repository.StudentRepository
	trials      *repository.TrialRepository
	backup      *service.BackupService
	middleware  *Middleware
	templates   *template.Template
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(progress *service.ProgressService, authService *service.AuthService, profiles *repository.ProfileRepository, students *repository.StudentRepository, trials *repository.TrialRepository, backup *service.BackupService, middleware *Middleware, templates *template.Template) *AdminHandler {
	return &AdminHandler{
		progress:    progress,
		authService: authService,
		profiles:    profiles,
		students:    students,
		trials:      trials,
		backup:      backup,
		middleware:  middleware,
		templates:   templates,
	}
}

// Dashboard renders the academy overview with leaderboards and recent activity
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())

	data := AdminDashboardViewData{
		Title:     "Academy Dashboard - MelodyHall",
		Profile:   profile,
		CSRFToken: h.middleware.CSRFToken(r),
	}

	topByPoints, err := h.progress.Leaderboard(r.Context(), leaderboardSize, progress.ByPoints)
	if err != nil {
		log.Printf("Failed to build points leaderboard: %v", err)
		data.DataUnavailable = true
	} else {
		data.TopByPoints = topByPoints
	}

	if !data.DataUnavailable {
		topByMinutes, err := h.progress.Leaderboard(r.Context(), leaderboardSize, progress.ByPracticeMinutes)
		if err != nil {
			log.Printf("Failed to build practice leaderboard: %v", err)
			data.DataUnavailable = true
		} else {
			data.TopByMinutes = topByMinutes
		}
	}

	active, err := h.progress.ActiveStudents(r.Context())
	if err != nil {
		log.Printf("Failed to load active students: %v", err)
	} else {
		data.ActiveStudents = active
	}

	trials, err := h.trials.GetAll(r.Context())
	if err != nil {
		log.Printf("Failed to load trial requests: %v", err)
	} else {
		for _, trial := range trials {
			if !trial.Contacted {
				data.PendingTrials++
			}
		}
	}

	if err := h.templates.ExecuteTemplate(w, "admin_dashboard.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering admin dashboard", err)
	}
}

// ShowStudents lists every student account
func (h *AdminHandler) ShowStudents(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())

	students, err := h.profiles.GetStudentProfiles(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load students", err)
		return
	}

	data := AdminStudentsViewData{
		Title:     "Students - MelodyHall",
		Profile:   profile,
		Students:  students,
		CSRFToken: h.middleware.CSRFToken(r),
		Error:     r.URL.Query().Get("error"),
	}

	if err := h.templates.ExecuteTemplate(w, "admin_students.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering student list", err)
	}
}

// CreateStudent registers a student account on a student's behalf
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")

	if _, err := h.authService.Register(r.Context(), email, password, name); err != nil {
		http.Redirect(w, r, "/admin/students?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
}

// StudentDetail renders one student's full record and progress
func (h *AdminHandler) StudentDetail(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())

	studentID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid student id", "", err)
		return
	}

	student, err := h.profiles.GetProfileByID(r.Context(), studentID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load student", err)
		return
	}
	if student == nil {
		respondWithError(w, http.StatusNotFound, "Student not found", "", nil)
		return
	}

	extended, err := h.students.GetByUserID(r.Context(), studentID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load student details", err)
		return
	}

	data := AdminStudentDetailViewData{
		Title:     student.Name + " - MelodyHall",
		Profile:   profile,
		Student:   student,
		Extended:  extended,
		CSRFToken: h.middleware.CSRFToken(r),
		Error:     r.URL.Query().Get("error"),
	}

	snapshot, err := h.progress.BuildSnapshot(r.Context(), studentID)
	if err != nil && !errors.Is(err, service.ErrDataUnavailable) && !errors.Is(err, service.ErrStudentNotFound) {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to build progress snapshot", err)
		return
	}
	data.Snapshot = snapshot

	if sessions, err := h.progress.PracticeHistory(r.Context(), studentID); err == nil {
		data.Sessions = sessions
	} else {
		log.Printf("Failed to load practice history for student %d: %v", studentID, err)
	}
	if ledger, err := h.progress.PointsHistory(r.Context(), studentID); err == nil {
		data.Ledger = ledger
	} else {
		log.Printf("Failed to load points ledger for student %d: %v", studentID, err)
	}

	if err := h.templates.ExecuteTemplate(w, "admin_student_detail.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering student detail", err)
	}
}

// UpdateStudent edits a student's account details
func (h *AdminHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid student id", "", err)
		return
	}

	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	role, err := models.ParseRole(strings.TrimSpace(r.FormValue("role")))
	if err != nil {
		h.redirectStudentDetail(w, r, studentID, "error", "Unknown role")
		return
	}

	if err := h.profiles.UpdateProfile(r.Context(), studentID, email, name, role); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to update student", err)
		return
	}

	// Any cached session must pick up the edited name and role, and the
	// snapshot carries the name too
	h.authService.EvictProfile(studentID)
	h.progress.Invalidate(studentID)

	http.Redirect(w, r, fmt.Sprintf("/admin/students/%d", studentID), http.StatusSeeOther)
}

// DeleteStudent removes a student account and everything attached to it
func (h *AdminHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid student id", "", err)
		return
	}

	if err := h.profiles.DeleteProfile(r.Context(), studentID); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete student", err)
		return
	}

	// Removing a ledger shifts every remaining student's rank
	h.authService.EvictProfile(studentID)
	h.progress.InvalidateAll()

	http.Redirect(w, r, "/admin/students", http.StatusSeeOther)
}

// AwardPoints appends a signed adjustment to a student's ledger
func (h *AdminHandler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid student id", "", err)
		return
	}

	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	delta, err := strconv.Atoi(strings.TrimSpace(r.FormValue("delta")))
	if err != nil {
		h.redirectStudentDetail(w, r, studentID, "error", "Points must be a number")
		return
	}
	activity := strings.TrimSpace(r.FormValue("activity"))

	if err := h.progress.AwardPoints(r.Context(), studentID, delta, activity); err != nil {
		h.redirectStudentDetail(w, r, studentID, "error", err.Error())
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/students/%d", studentID), http.StatusSeeOther)
}

// ShowTrials lists trial lesson requests, newest first
func (h *AdminHandler) ShowTrials(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())

	trials, err := h.trials.GetAll(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load trial requests", err)
		return
	}

	data := AdminTrialsViewData{
		Title:     "Trial Requests - MelodyHall",
		Profile:   profile,
		Trials:    trials,
		CSRFToken: h.middleware.CSRFToken(r),
	}

	if err := h.templates.ExecuteTemplate(w, "admin_trials.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering trial requests", err)
	}
}

// MarkTrialContacted flags a trial request as handled
func (h *AdminHandler) MarkTrialContacted(w http.ResponseWriter, r *http.Request) {
	trialID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid trial id", "", err)
		return
	}

	if err := h.trials.MarkContacted(r.Context(), trialID); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to mark trial as contacted", err)
		return
	}

	http.Redirect(w, r, "/admin/trials", http.StatusSeeOther)
}

// ExportBackup streams a JSON backup of every table
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("melodyhall-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := h.backup.ExportToWriter(r.Context(), w); err != nil {
		log.Printf("Failed to export backup: %v", err)
	}
}

func (h *AdminHandler) redirectStudentDetail(w http.ResponseWriter, r *http.Request, studentID int64, key, message string) {
	http.Redirect(w, r, fmt.Sprintf("/admin/students/%d?%s=%s", studentID, key, url.QueryEscape(message)), http.StatusSeeOther)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
