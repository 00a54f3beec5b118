package handlers

import (
	"html/template"
	"log"
	"net/http"

	"melodyhall/internal/progress"
	"melodyhall/internal/service"
)

// SiteHandler serves the public marketing pages
type SiteHandler struct {
	authService *service.AuthService
	progress    *service.ProgressService
	templates   *template.Template
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(authService *service.AuthService, progressService *service.ProgressService, templates *template.Template) *SiteHandler {
	return &SiteHandler{
		authService: authService,
		progress:    progressService,
		templates:   templates,
	}
}

// defaultPrograms is the course catalogue shown on the programs page
var defaultPrograms = []Program{
	{Name: "Piano Foundations", Instrument: "piano", Description: "Classical technique and sight reading for beginners and returners."},
	{Name: "Guitar Studio", Instrument: "guitar", Description: "Acoustic and electric guitar, from first chords to performance."},
	{Name: "Violin Ensemble", Instrument: "violin", Description: "Solo technique plus weekly ensemble playing."},
	{Name: "Vocal Coaching", Instrument: "voice", Description: "Breathing, pitch and stage presence in individual lessons."},
	{Name: "Drums & Rhythm", Instrument: "drums", Description: "Groove, coordination and band playing on a full kit."},
}

// Home renders the landing page. A valid session skips the marketing page
// and goes straight to the role's dashboard.
func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	// The catch-all "/" pattern also matches unknown paths
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if profile, err := h.authService.ValidateSession(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, dashboardPath(profile), http.StatusSeeOther)
			return
		}
	}

	data := HomeViewData{
		Title: "MelodyHall Music Academy",
	}

	// The top-students strip is decoration; the landing page still renders
	// when the aggregates cannot be read
	if top, err := h.progress.Leaderboard(r.Context(), 3, progress.ByPoints); err == nil {
		data.TopStudents = top
	} else {
		log.Printf("Failed to load top students for home page: %v", err)
	}

	if err := h.templates.ExecuteTemplate(w, "home.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering home template", err)
	}
}

// Programs renders the course catalogue page
func (h *SiteHandler) Programs(w http.ResponseWriter, r *http.Request) {
	data := ProgramsViewData{
		Title:    "Programs - MelodyHall",
		Programs: defaultPrograms,
	}

	if err := h.templates.ExecuteTemplate(w, "programs.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering programs template", err)
	}
}
