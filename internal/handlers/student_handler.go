package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"melodyhall/internal/models"
	"melodyhall/internal/repository"
	"melodyhall/internal/service"
	"melodyhall/internal/validation"
)

const recentHistoryLimit = 10

// StudentHandler serves the student portal: the progress dashboard, practice
// logging and the extended profile.
type StudentHandler struct {
	progress      *service.ProgressService
	students      *repository.StudentRepository
	profiles      *repository.ProfileRepository
	photos        *service.PhotoService
	middleware    *Middleware
	templates     *template.Template
	uploadMaxSize int64
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(progress *service.ProgressService, students *repository.StudentRepository, profiles *repository.ProfileRepository, photos *service.PhotoService, middleware *Middleware, templates *template.Template, uploadMaxSize int64) *StudentHandler {
	return &StudentHandler{
		progress:      progress,
		students:      students,
		profiles:      profiles,
		photos:        photos,
		middleware:    middleware,
		templates:     templates,
		uploadMaxSize: uploadMaxSize,
	}
}

// Dashboard renders the student's progress view. Storage failures degrade to
// a dashboard without numbers instead of an error page.
func (h *StudentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())
	if profile == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := StudentDashboardViewData{
		Title:     "My Progress - MelodyHall",
		Profile:   profile,
		CSRFToken: h.middleware.CSRFToken(r),
		Error:     r.URL.Query().Get("error"),
		Success:   r.URL.Query().Get("success"),
	}

	snapshot, err := h.progress.BuildSnapshot(r.Context(), profile.ID)
	switch {
	case errors.Is(err, service.ErrDataUnavailable):
		log.Printf("Progress data unavailable for student %d: %v", profile.ID, err)
		data.DataUnavailable = true
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to build progress snapshot", err)
		return
	default:
		data.Snapshot = snapshot
	}

	if !data.DataUnavailable {
		sessions, err := h.progress.PracticeHistory(r.Context(), profile.ID)
		if err != nil {
			log.Printf("Failed to load practice history for student %d: %v", profile.ID, err)
		} else {
			data.RecentSessions = truncateSessions(sessions, recentHistoryLimit)
		}

		entries, err := h.progress.PointsHistory(r.Context(), profile.ID)
		if err != nil {
			log.Printf("Failed to load points history for student %d: %v", profile.ID, err)
		} else {
			data.RecentPoints = truncateEntries(entries, recentHistoryLimit)
		}
	}

	if err := h.templates.ExecuteTemplate(w, "student_dashboard.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering student dashboard", err)
	}
}

// LogPractice records a practice session for the signed-in student
func (h *StudentHandler) LogPractice(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())
	if profile == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(r.FormValue("minutes")))
	if err != nil {
		h.redirectDashboard(w, r, "error", "Minutes must be a number")
		return
	}

	session := &models.PracticeSession{
		StudentID: profile.ID,
		Minutes:   minutes,
	}

	if dateValue := strings.TrimSpace(r.FormValue("date")); dateValue != "" {
		date, err := time.Parse("2006-01-02", dateValue)
		if err != nil {
			h.redirectDashboard(w, r, "error", "Invalid practice date")
			return
		}
		session.Date = date
	}

	if start := strings.TrimSpace(r.FormValue("start_time")); start != "" {
		session.StartTime = &start
	}
	if end := strings.TrimSpace(r.FormValue("end_time")); end != "" {
		session.EndTime = &end
	}

	if err := h.progress.LogPractice(r.Context(), session); err != nil {
		var vErr validation.ValidationError
		if errors.As(err, &vErr) {
			h.redirectDashboard(w, r, "error", vErr.Message)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to log practice session", err)
		return
	}

	h.redirectDashboard(w, r, "success", "Practice session logged")
}

// ShowProfile renders the extended profile form. The extended row may not
// exist yet for a new student.
func (h *StudentHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())
	if profile == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	student, err := h.students.GetByUserID(r.Context(), profile.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load student profile", err)
		return
	}

	data := StudentProfileViewData{
		Title:     "My Profile - MelodyHall",
		Profile:   profile,
		Student:   student,
		CSRFToken: h.middleware.CSRFToken(r),
		Error:     r.URL.Query().Get("error"),
		Success:   r.URL.Query().Get("success"),
	}

	if err := h.templates.ExecuteTemplate(w, "student_profile.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering student profile", err)
	}
}

// UpdateProfile saves the extended profile details
func (h *StudentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())
	if profile == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	student := &models.StudentProfile{
		UserID:          profile.ID,
		ParentName:      strings.TrimSpace(r.FormValue("parent_name")),
		ContactPhone:    strings.TrimSpace(r.FormValue("contact_phone")),
		PreferredCourse: strings.TrimSpace(r.FormValue("preferred_course")),
		LearningLevel:   models.LearningLevel(strings.TrimSpace(r.FormValue("learning_level"))),
		TimingSlots:     r.Form["timing_slots"],
		HeardFrom:       strings.TrimSpace(r.FormValue("heard_from")),
	}

	if err := validation.ValidatePhone(student.ContactPhone); err != nil {
		h.redirectProfile(w, r, "error", err.Error())
		return
	}
	if student.LearningLevel != "" && !student.LearningLevel.Valid() {
		h.redirectProfile(w, r, "error", "Unknown learning level")
		return
	}

	if err := h.students.Upsert(r.Context(), student); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to save student profile", err)
		return
	}

	h.progress.Invalidate(profile.ID)
	h.redirectProfile(w, r, "success", "Profile saved")
}

// UploadPhoto replaces the student's profile photo
func (h *StudentHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	profile := GetProfileFromContext(r.Context())
	if profile == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		h.redirectProfile(w, r, "error", "Photo upload too large")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		h.redirectProfile(w, r, "error", "No photo provided")
		return
	}
	defer file.Close()

	filename, err := h.photos.Save(header.Filename, file)
	switch {
	case errors.Is(err, service.ErrPhotoTooLarge):
		h.redirectProfile(w, r, "error", "Photo exceeds the maximum size")
		return
	case errors.Is(err, service.ErrPhotoBadFormat):
		h.redirectProfile(w, r, "error", "Photo must be a JPG, PNG or WebP image")
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to store photo", err)
		return
	}

	oldPhoto := profile.PhotoFilename
	if err := h.profiles.UpdatePhoto(r.Context(), profile.ID, filename); err != nil {
		if removeErr := h.photos.Remove(filename); removeErr != nil {
			log.Printf("Failed to remove orphaned photo %s: %v", filename, removeErr)
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to update photo", err)
		return
	}

	if oldPhoto != "" {
		if err := h.photos.Remove(oldPhoto); err != nil {
			log.Printf("Failed to remove old photo %s: %v", oldPhoto, err)
		}
	}

	h.redirectProfile(w, r, "success", "Photo updated")
}

func (h *StudentHandler) redirectDashboard(w http.ResponseWriter, r *http.Request, key, message string) {
	http.Redirect(w, r, "/student/dashboard?"+key+"="+url.QueryEscape(message), http.StatusSeeOther)
}

func (h *StudentHandler) redirectProfile(w http.ResponseWriter, r *http.Request, key, message string) {
	http.Redirect(w, r, "/student/profile?"+key+"="+url.QueryEscape(message), http.StatusSeeOther)
}

func truncateSessions(sessions []models.PracticeSession, limit int) []models.PracticeSession {
	if len(sessions) > limit {
		return sessions[:limit]
	}
	return sessions
}

func truncateEntries(entries []models.PointsEntry, limit int) []models.PointsEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
