package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"melodyhall/internal/models"
	"melodyhall/internal/repository"
	"melodyhall/internal/service"
	"melodyhall/internal/validation"
)

// TrialHandler handles the public trial lesson request form
type TrialHandler struct {
	trialRepo    *repository.TrialRepository
	emailService *service.EmailService
	templates    *template.Template
}

// NewTrialHandler creates a new trial handler
func NewTrialHandler(trialRepo *repository.TrialRepository, emailService *service.EmailService, templates *template.Template) *TrialHandler {
	return &TrialHandler{
		trialRepo:    trialRepo,
		emailService: emailService,
		templates:    templates,
	}
}

// ShowForm renders the trial request form
func (h *TrialHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, TrialViewData{Title: "Book a Trial Lesson - MelodyHall"})
}

// Submit handles a trial request submission
func (h *TrialHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	request := &models.TrialRequest{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Course:  strings.TrimSpace(r.FormValue("course")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}

	data := TrialViewData{
		Title:   "Book a Trial Lesson - MelodyHall",
		Name:    request.Name,
		Email:   request.Email,
		Phone:   request.Phone,
		Course:  request.Course,
		Message: request.Message,
	}

	if err := validation.ValidateName(request.Name); err != nil {
		data.Error = err.Error()
		h.render(w, data)
		return
	}
	if err := validation.ValidateEmail(request.Email); err != nil {
		data.Error = err.Error()
		h.render(w, data)
		return
	}
	if err := validation.ValidatePhone(request.Phone); err != nil {
		data.Error = err.Error()
		h.render(w, data)
		return
	}

	if err := h.trialRepo.Create(r.Context(), request); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to store trial request", err)
		return
	}

	// Notify the academy without blocking the response
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.emailService.SendTrialRequestNotification(ctx, request); err != nil {
			log.Printf("Failed to send trial notification for request %d: %v", request.ID, err)
		}
	}()

	h.render(w, TrialViewData{
		Title:   "Book a Trial Lesson - MelodyHall",
		Success: "Thanks! We received your request and will be in touch shortly.",
	})
}

func (h *TrialHandler) render(w http.ResponseWriter, data TrialViewData) {
	if err := h.templates.ExecuteTemplate(w, "trial.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering trial template", err)
	}
}
