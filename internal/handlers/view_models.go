package handlers

import (
	"melodyhall/internal/models"
)

type HomeViewData struct {
	Title       string
	Profile     *models.Profile
	TopStudents []models.StudentSnapshot
}

type ProgramsViewData struct {
	Title    string
	Profile  *models.Profile
	Programs []Program
}

// Program is a course offering shown on the marketing pages
type Program struct {
	Name        string
	Description string
	Instrument  string
}

type TrialViewData struct {
	Title   string
	Error   string
	Success string
	Name    string
	Email   string
	Phone   string
	Course  string
	Message string
}

type LoginViewData struct {
	Title          string
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
}

type RegisterViewData struct {
	Title          string
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Name           string
}

type StudentDashboardViewData struct {
	Title           string
	Profile         *models.Profile
	Snapshot        *models.StudentSnapshot
	RecentSessions  []models.PracticeSession
	RecentPoints    []models.PointsEntry
	DataUnavailable bool
	CSRFToken       string
	Error           string
	Success         string
}

type StudentProfileViewData struct {
	Title     string
	Profile   *models.Profile
	Student   *models.StudentProfile
	CSRFToken string
	Error     string
	Success   string
}

type AdminDashboardViewData struct {
	Title           string
	Profile         *models.Profile
	TopByPoints     []models.StudentSnapshot
	TopByMinutes    []models.StudentSnapshot
	ActiveStudents  []models.Profile
	PendingTrials   int
	DataUnavailable bool
	CSRFToken       string
}

type AdminStudentsViewData struct {
	Title     string
	Profile   *models.Profile
	Students  []models.Profile
	CSRFToken string
	Error     string
}

type AdminStudentDetailViewData struct {
	Title     string
	Profile   *models.Profile
	Student   *models.Profile
	Extended  *models.StudentProfile
	Snapshot  *models.StudentSnapshot
	Sessions  []models.PracticeSession
	Ledger    []models.PointsEntry
	CSRFToken string
	Error     string
}

type AdminTrialsViewData struct {
	Title     string
	Profile   *models.Profile
	Trials    []models.TrialRequest
	CSRFToken string
}
