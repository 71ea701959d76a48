package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"courtcue/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNoRatings       = errors.New("session requires at least one rating")
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore holds the practice session history, newest first. Sessions
// are created whole and never edited afterward; the only other mutation is
// an explicit delete.
type SessionStore struct {
	mu       sync.Mutex
	sessions []models.PracticeSession
	repo     Repository
}

type sessionSnapshot struct {
	Sessions []models.PracticeSession `json:"sessions"`
}

// NewSessionStore creates a session store, loading any previously persisted
// history
func NewSessionStore(repo Repository) (*SessionStore, error) {
	s := &SessionStore{repo: repo}

	snapshot, ok, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if ok {
		var state sessionSnapshot
		if err := json.Unmarshal(snapshot, &state); err != nil {
			return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
		}
		s.sessions = state.Sessions
	}

	return s, nil
}

// AddSession creates a session with a fresh id and the current timestamp
// and prepends it to the history. An empty rating set is rejected. A cue
// rated more than once in the same call keeps only the last rating; the
// remote store holds one rating per cue per session.
func (s *SessionStore) AddSession(cueRatings []models.CueRating, notes string) (*models.PracticeSession, error) {
	if len(cueRatings) == 0 {
		return nil, ErrNoRatings
	}

	session := models.PracticeSession{
		ID:         uuid.New().String(),
		Date:       time.Now().UTC(),
		CueRatings: dedupeRatings(cueRatings),
		Notes:      notes,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]models.PracticeSession{session}, s.sessions...)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes the matching session; no-op if absent
func (s *SessionStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.sessions[:0]
	for _, session := range s.sessions {
		if session.ID != id {
			filtered = append(filtered, session)
		}
	}
	s.sessions = filtered
	return s.persist()
}

// GetSessionByID returns the session or ErrSessionNotFound
func (s *SessionStore) GetSessionByID(id string) (*models.PracticeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.ID == id {
			c := session
			return &c, nil
		}
	}
	return nil, ErrSessionNotFound
}

// Sessions returns a copy of the full history, newest first
func (s *SessionStore) Sessions() []models.PracticeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PracticeSession(nil), s.sessions...)
}

// GetRecentSessions returns up to limit sessions, newest first. A limit
// below zero reads as zero.
func (s *SessionStore) GetRecentSessions(limit int) []models.PracticeSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > len(s.sessions) {
		limit = len(s.sessions)
	}
	return append([]models.PracticeSession(nil), s.sessions[:limit]...)
}

// GetCueProgress returns the rating history for one cue in chronological
// order, oldest first, the reverse of the store's own ordering, because
// progress views read left to right as time forward.
func (s *SessionStore) GetCueProgress(cueID string) []models.CueProgressPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	var points []models.CueProgressPoint
	for i := len(s.sessions) - 1; i >= 0; i-- {
		if rating, ok := s.sessions[i].RatingForCue(cueID); ok {
			points = append(points, models.CueProgressPoint{
				Date:   s.sessions[i].Date,
				Rating: rating,
			})
		}
	}
	return points
}

// ReplaceAll overwrites the history with a merge result, which is already
// sorted newest first
func (s *SessionStore) ReplaceAll(sessions []models.PracticeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]models.PracticeSession(nil), sessions...)
	return s.persist()
}

// dedupeRatings keeps one rating per cue, last value winning, preserving
// the position of each cue's first appearance
func dedupeRatings(ratings []models.CueRating) []models.CueRating {
	deduped := make([]models.CueRating, 0, len(ratings))
	seen := make(map[string]int, len(ratings))
	for _, r := range ratings {
		if i, ok := seen[r.CueID]; ok {
			deduped[i] = r
			continue
		}
		seen[r.CueID] = len(deduped)
		deduped = append(deduped, r)
	}
	return deduped
}

func (s *SessionStore) persist() error {
	snapshot, err := json.Marshal(sessionSnapshot{Sessions: s.sessions})
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	if err := s.repo.Save(snapshot); err != nil {
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	return nil
}
