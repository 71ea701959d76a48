package sync

import (
	"reflect"
	"testing"
	"time"

	"courtcue/internal/models"
)

func TestMergeUserData(t *testing.T) {
	localDone := models.UserProfile{
		Level:                  models.LevelAdvanced,
		ActiveCueIDs:           []string{"fh-1", "srv-2"},
		QuizAnswers:            []models.QuizAnswer{{QuestionID: "experience", AnswerID: "exp-4", Points: 3}},
		HasCompletedOnboarding: true,
	}
	cloudDone := models.UserProfile{
		Level:                  models.LevelBeginner,
		ActiveCueIDs:           []string{"bh-1"},
		QuizAnswers:            []models.QuizAnswer{{QuestionID: "experience", AnswerID: "exp-1", Points: 0}},
		HasCompletedOnboarding: true,
	}
	fresh := models.UserProfile{}

	tests := []struct {
		name       string
		local      models.UserProfile
		cloud      models.UserProfile
		want       models.UserProfile
		wantSource Source
	}{
		{
			name:       "local completed wins outright over completed cloud",
			local:      localDone,
			cloud:      cloudDone,
			want:       localDone,
			wantSource: SourceLocal,
		},
		{
			name:       "cloud completed wins over fresh local",
			local:      fresh,
			cloud:      cloudDone,
			want:       cloudDone,
			wantSource: SourceCloud,
		},
		{
			name:       "neither completed keeps local",
			local:      fresh,
			cloud:      models.UserProfile{Level: models.LevelBeginner},
			want:       fresh,
			wantSource: SourceLocal,
		},
		{
			name:       "local completed wins over empty cloud",
			local:      localDone,
			cloud:      fresh,
			want:       localDone,
			wantSource: SourceLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeUserData(tt.local, tt.cloud)
			if got.Source != tt.wantSource {
				t.Errorf("source = %q, want %q", got.Source, tt.wantSource)
			}
			// Whole-object precedence: the winner is taken exactly, never
			// field-merged
			if !reflect.DeepEqual(got.Profile, tt.want) {
				t.Errorf("profile = %+v, want %+v", got.Profile, tt.want)
			}
		})
	}
}

func TestMergeSessionsLocalWinsOnCollision(t *testing.T) {
	date := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	local := []models.PracticeSession{
		{ID: "s1", Date: date, Notes: "A", CueRatings: []models.CueRating{{CueID: "fh-1", Rating: 3}}},
	}
	cloud := []models.PracticeSession{
		{ID: "s1", Date: date, Notes: "B", CueRatings: []models.CueRating{{CueID: "fh-1", Rating: 1}}},
	}

	merged := MergeSessions(local, cloud)
	if len(merged) != 1 {
		t.Fatalf("expected 1 session, got %d", len(merged))
	}
	if merged[0].Notes != "A" {
		t.Errorf("notes = %q, want local copy A", merged[0].Notes)
	}
}

func TestMergeSessionsUnion(t *testing.T) {
	t1 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC)

	local := []models.PracticeSession{
		{ID: "s1", Date: t1},
		{ID: "s3", Date: t3},
	}
	cloud := []models.PracticeSession{
		{ID: "s2", Date: t2},
	}

	merged := MergeSessions(local, cloud)
	if len(merged) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(merged))
	}

	// Sorted by date descending
	wantOrder := []string{"s3", "s2", "s1"}
	for i, want := range wantOrder {
		if merged[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, merged[i].ID, want)
		}
	}
}

func TestMergeSessionsEmptySides(t *testing.T) {
	sessions := []models.PracticeSession{
		{ID: "s1", Date: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
	}

	if got := MergeSessions(nil, sessions); len(got) != 1 {
		t.Errorf("empty local: got %d sessions, want 1", len(got))
	}
	if got := MergeSessions(sessions, nil); len(got) != 1 {
		t.Errorf("empty cloud: got %d sessions, want 1", len(got))
	}
	if got := MergeSessions(nil, nil); len(got) != 0 {
		t.Errorf("both empty: got %d sessions, want 0", len(got))
	}
}
