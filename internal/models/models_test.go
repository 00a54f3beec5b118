package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{name: "student", input: "student", want: RoleStudent},
		{name: "teacher", input: "teacher", want: RoleTeacher},
		{name: "admin", input: "admin", want: RoleAdmin},
		{name: "unknown role", input: "superuser", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "wrong case", input: "Admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	valid := []Role{RoleStudent, RoleTeacher, RoleAdmin}
	for _, role := range valid {
		if !role.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", role)
		}
	}
	if Role("parent").Valid() {
		t.Error("Role(\"parent\").Valid() = true, want false")
	}
}

func TestLearningLevelValid(t *testing.T) {
	valid := []LearningLevel{LevelNovice, LevelBeginner, LevelIntermediate, LevelAdvanced, LevelProfessional}
	for _, level := range valid {
		if !level.Valid() {
			t.Errorf("LearningLevel(%q).Valid() = false, want true", level)
		}
	}
	if LearningLevel("virtuoso").Valid() {
		t.Error("LearningLevel(\"virtuoso\").Valid() = true, want false")
	}
}

func TestTimingSlotsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		slots  []string
		stored string
	}{
		{
			name:   "multiple slots",
			slots:  []string{"weekday-evening", "weekend-morning"},
			stored: "weekday-evening,weekend-morning",
		},
		{
			name:   "single slot",
			slots:  []string{"weekend-afternoon"},
			stored: "weekend-afternoon",
		},
		{
			name:   "no slots",
			slots:  nil,
			stored: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := StudentProfile{TimingSlots: tt.slots}
			if got := profile.TimingSlotsString(); got != tt.stored {
				t.Errorf("TimingSlotsString() = %q, want %q", got, tt.stored)
			}

			back := SplitTimingSlots(tt.stored)
			if len(back) != len(tt.slots) {
				t.Fatalf("SplitTimingSlots(%q) = %v, want %v", tt.stored, back, tt.slots)
			}
			for i := range back {
				if back[i] != tt.slots[i] {
					t.Errorf("SplitTimingSlots(%q)[%d] = %q, want %q", tt.stored, i, back[i], tt.slots[i])
				}
			}
		})
	}
}

func TestSplitTimingSlotsTrimsBlanks(t *testing.T) {
	got := SplitTimingSlots(" weekday-evening , ,weekend-morning ")
	want := []string{"weekday-evening", "weekend-morning"}
	if len(got) != len(want) {
		t.Fatalf("SplitTimingSlots() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("SplitTimingSlots()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
