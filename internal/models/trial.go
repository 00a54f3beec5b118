package models

import "time"

// TrialRequest is a lead captured from the public trial-lesson form
type TrialRequest struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Course    string
	Message   string
	Contacted bool
	CreatedAt time.Time
}
