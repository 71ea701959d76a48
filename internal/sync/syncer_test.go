package sync

import (
	"os"
	"testing"
	"time"

	"courtcue/internal/database"
	"courtcue/internal/models"
	"courtcue/internal/repository"
	"courtcue/internal/store"
)

// memRepo is an in-memory snapshot repository standing in for the local
// persistence layer
type memRepo struct {
	snapshot []byte
}

func (m *memRepo) Load() ([]byte, bool, error) {
	if m.snapshot == nil {
		return nil, false, nil
	}
	return m.snapshot, true, nil
}

func (m *memRepo) Save(snapshot []byte) error {
	m.snapshot = append([]byte(nil), snapshot...)
	return nil
}

func newTestDB(t *testing.T, name string) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Cleanup(func() { os.Remove(name) })

	db, err := database.Initialize(name)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func newTestSyncer(t *testing.T, db *database.DB) (*Syncer, *store.ProfileStore, *store.SessionStore) {
	t.Helper()

	profiles, err := store.NewProfileStore(&memRepo{})
	if err != nil {
		t.Fatalf("NewProfileStore failed: %v", err)
	}
	sessions, err := store.NewSessionStore(&memRepo{})
	if err != nil {
		t.Fatalf("NewSessionStore failed: %v", err)
	}

	syncer := NewSyncer(profiles, sessions,
		repository.NewProfileRepository(db),
		repository.NewSessionRepository(db))
	return syncer, profiles, sessions
}

func createTestUser(t *testing.T, db *database.DB, id string) {
	t.Helper()
	userRepo := repository.NewUserRepository(db)
	if _, err := userRepo.CreateUser(id, id+"@example.com", "hash"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
}

func TestMergeAndSyncFreshLocalAdoptsCloud(t *testing.T) {
	db := newTestDB(t, "test_sync_adopt.db")
	createTestUser(t, db, "user-1")

	// Seed the remote side as if another device completed onboarding
	profileRepo := repository.NewProfileRepository(db)
	err := profileRepo.UpsertProfile("user-1", repository.RemoteProfile{
		Level:                  models.LevelIntermediate,
		HasCompletedOnboarding: true,
	})
	if err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}
	if _, err := profileRepo.ReplaceActiveCues("user-1", []string{"fh-1", "srv-2"}); err != nil {
		t.Fatalf("ReplaceActiveCues failed: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(db)
	cloudSession := models.PracticeSession{
		ID:         "cloud-s1",
		Date:       time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		CueRatings: []models.CueRating{{CueID: "fh-1", Rating: 4}},
	}
	if err := sessionRepo.InsertSessionIfAbsent("user-1", cloudSession); err != nil {
		t.Fatalf("InsertSessionIfAbsent failed: %v", err)
	}

	syncer, profiles, sessions := newTestSyncer(t, db)

	outcome := syncer.MergeAndSync("user-1")
	if outcome.Status != StatusSynced {
		t.Fatalf("status = %v, problems = %v", outcome.Status, outcome.Problems)
	}

	got := profiles.Profile()
	if !got.HasCompletedOnboarding || got.Level != models.LevelIntermediate {
		t.Errorf("local profile after sync = %+v", got)
	}
	if len(got.ActiveCueIDs) != 2 {
		t.Errorf("active cues after sync = %v", got.ActiveCueIDs)
	}
	if len(sessions.Sessions()) != 1 {
		t.Errorf("expected 1 local session after sync, got %d", len(sessions.Sessions()))
	}
}

func TestMergeAndSyncPushesLocalState(t *testing.T) {
	db := newTestDB(t, "test_sync_push.db")
	createTestUser(t, db, "user-1")

	syncer, profiles, sessions := newTestSyncer(t, db)

	// Local device completed onboarding and logged a session while remote
	// holds nothing
	err := profiles.Replace(models.UserProfile{
		Level:                  models.LevelAdvanced,
		ActiveCueIDs:           []string{"bh-3"},
		QuizAnswers:            []models.QuizAnswer{{QuestionID: "experience", AnswerID: "exp-4", Points: 3}},
		HasCompletedOnboarding: true,
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	local, err := sessions.AddSession([]models.CueRating{{CueID: "bh-3", Rating: 5}}, "first outing")
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}

	outcome := syncer.MergeAndSync("user-1")
	if outcome.Status != StatusSynced {
		t.Fatalf("status = %v, problems = %v", outcome.Status, outcome.Problems)
	}

	profileRepo := repository.NewProfileRepository(db)
	remote, err := profileRepo.FetchProfile("user-1")
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}
	if remote.Level != models.LevelAdvanced || !remote.HasCompletedOnboarding {
		t.Errorf("remote profile after sync = %+v", remote)
	}

	cues, err := profileRepo.FetchActiveCues("user-1")
	if err != nil {
		t.Fatalf("FetchActiveCues failed: %v", err)
	}
	if len(cues) != 1 || cues[0] != "bh-3" {
		t.Errorf("remote active cues = %v", cues)
	}

	sessionRepo := repository.NewSessionRepository(db)
	remoteSessions, err := sessionRepo.FetchSessions("user-1")
	if err != nil {
		t.Fatalf("FetchSessions failed: %v", err)
	}
	if len(remoteSessions) != 1 || remoteSessions[0].ID != local.ID {
		t.Errorf("remote sessions = %+v", remoteSessions)
	}
}

func TestMergeAndSyncUnionsBothSides(t *testing.T) {
	db := newTestDB(t, "test_sync_union.db")
	createTestUser(t, db, "user-1")

	sessionRepo := repository.NewSessionRepository(db)
	cloudSession := models.PracticeSession{
		ID:         "cloud-s1",
		Date:       time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		CueRatings: []models.CueRating{{CueID: "fh-1", Rating: 2}},
	}
	if err := sessionRepo.InsertSessionIfAbsent("user-1", cloudSession); err != nil {
		t.Fatalf("InsertSessionIfAbsent failed: %v", err)
	}

	syncer, _, sessions := newTestSyncer(t, db)
	if _, err := sessions.AddSession([]models.CueRating{{CueID: "fh-1", Rating: 4}}, ""); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}

	outcome := syncer.MergeAndSync("user-1")
	if outcome.Status != StatusSynced {
		t.Fatalf("status = %v, problems = %v", outcome.Status, outcome.Problems)
	}

	// Both sides end up holding both sessions
	if got := len(sessions.Sessions()); got != 2 {
		t.Errorf("local sessions after sync = %d, want 2", got)
	}
	remoteSessions, err := sessionRepo.FetchSessions("user-1")
	if err != nil {
		t.Fatalf("FetchSessions failed: %v", err)
	}
	if len(remoteSessions) != 2 {
		t.Errorf("remote sessions after sync = %d, want 2", len(remoteSessions))
	}

	// Running it again changes nothing
	outcome = syncer.MergeAndSync("user-1")
	if outcome.Status != StatusSynced {
		t.Fatalf("second sync status = %v, problems = %v", outcome.Status, outcome.Problems)
	}
	if got := len(sessions.Sessions()); got != 2 {
		t.Errorf("local sessions after second sync = %d, want 2", got)
	}
}

func TestDeletedSessionDoesNotResurrect(t *testing.T) {
	db := newTestDB(t, "test_sync_delete.db")
	createTestUser(t, db, "user-1")

	syncer, _, sessions := newTestSyncer(t, db)
	session, err := sessions.AddSession([]models.CueRating{{CueID: "fh-1", Rating: 3}}, "")
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}

	outcome := syncer.MergeAndSync("user-1")
	if outcome.Status != StatusSynced {
		t.Fatalf("status = %v, problems = %v", outcome.Status, outcome.Problems)
	}

	// Delete on both sides, the way the app does for a signed-in user
	if err := sessions.DeleteSession(session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	sessionRepo := repository.NewSessionRepository(db)
	if err := sessionRepo.DeleteSession("user-1", session.ID); err != nil {
		t.Fatalf("remote DeleteSession failed: %v", err)
	}

	outcome = syncer.MergeAndSync("user-1")
	if outcome.Status != StatusSynced {
		t.Fatalf("post-delete sync status = %v, problems = %v", outcome.Status, outcome.Problems)
	}
	if got := len(sessions.Sessions()); got != 0 {
		t.Errorf("local sessions after delete and sync = %d, want 0", got)
	}
	remoteSessions, err := sessionRepo.FetchSessions("user-1")
	if err != nil {
		t.Fatalf("FetchSessions failed: %v", err)
	}
	if len(remoteSessions) != 0 {
		t.Errorf("remote sessions after delete and sync = %d, want 0", len(remoteSessions))
	}
}
