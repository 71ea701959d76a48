package sync

import (
	"fmt"

	"courtcue/internal/models"
	"courtcue/internal/repository"
	"courtcue/internal/store"
)

// Status classifies the result of a reconciliation run
type Status int

const (
	// StatusSynced means every step completed cleanly
	StatusSynced Status = iota
	// StatusPartial means the merge landed but a recoverable step failed,
	// such as the delete half of a replace; rerunning the sync repairs it
	StatusPartial
	// StatusFailed means the remote could not be read or written and local
	// state was left as it was
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome reports how a reconciliation run went, with the problems that
// made it partial or failed
type Outcome struct {
	Status   Status
	Problems []string
}

// Syncer coordinates the local stores and the remote gateway. It is not
// reentrant-safe; callers must not run two reconciliations for the same
// user at once.
type Syncer struct {
	profiles    *store.ProfileStore
	sessions    *store.SessionStore
	profileRepo *repository.ProfileRepository
	sessionRepo *repository.SessionRepository
}

// NewSyncer creates a syncer over the given stores and gateway repositories
func NewSyncer(profiles *store.ProfileStore, sessions *store.SessionStore,
	profileRepo *repository.ProfileRepository, sessionRepo *repository.SessionRepository) *Syncer {
	return &Syncer{
		profiles:    profiles,
		sessions:    sessions,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
	}
}

// MergeAndSync reconciles local and remote state for the user: fetch the
// remote copies, merge them against local state, overwrite local with the
// result, then push the result back out. Invoked after login and on a
// manual sync.
func (s *Syncer) MergeAndSync(userID string) Outcome {
	// Step 1: read the remote copies
	cloudProfile, err := s.fetchCloudProfile(userID)
	if err != nil {
		return Outcome{Status: StatusFailed, Problems: []string{err.Error()}}
	}
	cloudSessions, err := s.sessionRepo.FetchSessions(userID)
	if err != nil {
		return Outcome{Status: StatusFailed, Problems: []string{err.Error()}}
	}

	// Step 2: merge, no I/O
	profileMerge := MergeUserData(s.profiles.Profile(), cloudProfile)
	mergedSessions := MergeSessions(s.sessions.Sessions(), cloudSessions)

	// Step 3: overwrite local state with the merge result
	if err := s.profiles.Replace(profileMerge.Profile); err != nil {
		return Outcome{Status: StatusFailed, Problems: []string{err.Error()}}
	}
	if err := s.sessions.ReplaceAll(mergedSessions); err != nil {
		return Outcome{Status: StatusFailed, Problems: []string{err.Error()}}
	}

	// Step 4: push the merge result to the remote store
	return s.push(userID, profileMerge.Profile, mergedSessions)
}

func (s *Syncer) fetchCloudProfile(userID string) (models.UserProfile, error) {
	profile, err := s.profileRepo.FetchProfile(userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	activeCues, err := s.profileRepo.FetchActiveCues(userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("fetch active cues: %w", err)
	}
	answers, err := s.profileRepo.FetchQuizAnswers(userID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("fetch quiz answers: %w", err)
	}

	return models.UserProfile{
		Level:                  profile.Level,
		ActiveCueIDs:           activeCues,
		QuizAnswers:            answers,
		HasCompletedOnboarding: profile.HasCompletedOnboarding,
	}, nil
}

func (s *Syncer) push(userID string, profile models.UserProfile, sessions []models.PracticeSession) Outcome {
	var problems []string
	partial := false

	err := s.profileRepo.UpsertProfile(userID, repository.RemoteProfile{
		Level:                  profile.Level,
		HasCompletedOnboarding: profile.HasCompletedOnboarding,
	})
	if err != nil {
		return Outcome{Status: StatusFailed, Problems: []string{err.Error()}}
	}

	deleteFailed, err := s.profileRepo.ReplaceActiveCues(userID, profile.ActiveCueIDs)
	if err != nil {
		return Outcome{Status: StatusFailed, Problems: append(problems, err.Error())}
	}
	if deleteFailed {
		partial = true
		problems = append(problems, "active cue delete failed; stale rows may remain")
	}

	deleteFailed, err = s.profileRepo.ReplaceQuizAnswers(userID, profile.QuizAnswers)
	if err != nil {
		return Outcome{Status: StatusFailed, Problems: append(problems, err.Error())}
	}
	if deleteFailed {
		partial = true
		problems = append(problems, "quiz answer delete failed; stale rows may remain")
	}

	for _, session := range sessions {
		if err := s.sessionRepo.InsertSessionIfAbsent(userID, session); err != nil {
			return Outcome{Status: StatusFailed, Problems: append(problems, err.Error())}
		}
	}

	if partial {
		return Outcome{Status: StatusPartial, Problems: problems}
	}
	return Outcome{Status: StatusSynced}
}
