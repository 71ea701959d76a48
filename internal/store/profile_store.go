package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"courtcue/internal/models"
)

// ProfileStore holds the authenticated user's onboarding, quiz and
// active-cue state. Every mutation is written through to the repository
// before it returns.
type ProfileStore struct {
	mu      sync.Mutex
	profile models.UserProfile
	repo    Repository
}

// NewProfileStore creates a profile store, loading any previously persisted
// state. A missing snapshot yields fresh-install defaults.
func NewProfileStore(repo Repository) (*ProfileStore, error) {
	s := &ProfileStore{repo: repo}

	snapshot, ok, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if ok {
		if err := json.Unmarshal(snapshot, &s.profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile snapshot: %w", err)
		}
	}

	return s, nil
}

// Profile returns a copy of the current profile state
func (s *ProfileStore) Profile() models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProfile(s.profile)
}

// SetLevel unconditionally overwrites the skill level
func (s *ProfileStore) SetLevel(level models.SkillLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Level = level
	return s.persist()
}

// SetQuizAnswers overwrites the full answer sequence. The caller supplies
// the complete, deduplicated-by-question sequence; this is not a merge.
func (s *ProfileStore) SetQuizAnswers(answers []models.QuizAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.QuizAnswers = append([]models.QuizAnswer(nil), answers...)
	return s.persist()
}

// CompleteOnboarding sets the completion flag; idempotent
func (s *ProfileStore) CompleteOnboarding() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.HasCompletedOnboarding = true
	return s.persist()
}

// ToggleActiveCue removes the cue from the active set if present, otherwise
// adds it. The id is not validated against the cue library.
func (s *ProfileStore) ToggleActiveCue(cueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.HasActiveCue(cueID) {
		s.removeActiveCueLocked(cueID)
	} else {
		s.profile.ActiveCueIDs = append(s.profile.ActiveCueIDs, cueID)
	}
	return s.persist()
}

// AddActiveCue adds the cue to the active set if not already present
func (s *ProfileStore) AddActiveCue(cueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.HasActiveCue(cueID) {
		return nil
	}
	s.profile.ActiveCueIDs = append(s.profile.ActiveCueIDs, cueID)
	return s.persist()
}

// RemoveActiveCue removes the cue from the active set; no-op if absent
func (s *ProfileStore) RemoveActiveCue(cueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeActiveCueLocked(cueID)
	return s.persist()
}

// ResetOnboarding restores fresh-install defaults so the user can retake
// the assessment. Session history lives in a separate store and is not
// touched.
func (s *ProfileStore) ResetOnboarding() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = models.UserProfile{}
	return s.persist()
}

// Replace overwrites the whole profile with a merge result
func (s *ProfileStore) Replace(profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = copyProfile(profile)
	return s.persist()
}

func (s *ProfileStore) removeActiveCueLocked(cueID string) {
	filtered := s.profile.ActiveCueIDs[:0]
	for _, id := range s.profile.ActiveCueIDs {
		if id != cueID {
			filtered = append(filtered, id)
		}
	}
	s.profile.ActiveCueIDs = filtered
}

func (s *ProfileStore) persist() error {
	snapshot, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.repo.Save(snapshot); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

func copyProfile(p models.UserProfile) models.UserProfile {
	c := p
	c.ActiveCueIDs = append([]string(nil), p.ActiveCueIDs...)
	c.QuizAnswers = append([]models.QuizAnswer(nil), p.QuizAnswers...)
	return c
}
