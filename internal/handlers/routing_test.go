package handlers

import (
	"testing"

	"golang.org/x/oauth2"

	"melodyhall/internal/models"
)

func TestDashboardPath(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		want string
	}{
		{name: "student", role: models.RoleStudent, want: "/student/dashboard"},
		{name: "teacher", role: models.RoleTeacher, want: "/admin/dashboard"},
		{name: "admin", role: models.RoleAdmin, want: "/admin/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.Profile{ID: 1, Role: tt.role}
			if got := dashboardPath(profile); got != tt.want {
				t.Errorf("dashboardPath(%s) = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestOAuthProviderViewsSkipsUnconfigured(t *testing.T) {
	h := &AuthHandler{
		oauthProviders: map[string]OAuthProvider{
			"google": {
				Name:   "google",
				Label:  "Google",
				Config: &oauth2.Config{ClientID: "id", ClientSecret: "secret"},
			},
			"facebook": {
				Name:   "facebook",
				Label:  "Facebook",
				Config: &oauth2.Config{},
			},
			"apple": {
				Name:  "apple",
				Label: "Apple",
			},
		},
	}

	views := h.oauthProviderViews()
	if len(views) != 1 {
		t.Fatalf("oauthProviderViews() returned %d providers, want 1", len(views))
	}
	if views[0].Name != "google" {
		t.Errorf("oauthProviderViews()[0].Name = %q, want %q", views[0].Name, "google")
	}
	if views[0].URL != "/auth/google/start" {
		t.Errorf("oauthProviderViews()[0].URL = %q, want %q", views[0].URL, "/auth/google/start")
	}
}
