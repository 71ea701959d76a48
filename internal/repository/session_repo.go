package repository

import (
	"fmt"
	"time"

	"courtcue/internal/database"
	"courtcue/internal/models"
)

// SessionRepository handles remote practice-session rows and their nested
// cue ratings
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSessionIfAbsent pushes a session to the remote store unless a row
// with the same id already exists. Remote sessions are immutable once
// created, so an existing row is skipped, never updated. The session row
// and its ratings land in one transaction.
func (r *SessionRepository) InsertSessionIfAbsent(userID string, session models.PracticeSession) error {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", session.ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check session %s: %w", session.ID, err)
	}
	if count > 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO sessions (id, user_id, date, notes) VALUES (?, ?, ?, ?)"
	if _, err := tx.Exec(query, session.ID, userID, session.Date.UTC(), session.Notes); err != nil {
		return fmt.Errorf("failed to insert session %s: %w", session.ID, err)
	}

	for _, rating := range session.CueRatings {
		ratingQuery := "INSERT INTO session_cue_ratings (session_id, cue_id, rating) VALUES (?, ?, ?)"
		if _, err := tx.Exec(ratingQuery, session.ID, rating.CueID, rating.Rating); err != nil {
			return fmt.Errorf("failed to insert rating for session %s: %w", session.ID, err)
		}
	}
	return tx.Commit()
}

// FetchSessions retrieves all of a user's sessions ordered by date
// descending, each with its rating rows
func (r *SessionRepository) FetchSessions(userID string) ([]models.PracticeSession, error) {
	query := `
		SELECT id, date, COALESCE(notes, '')
		FROM sessions
		WHERE user_id = ?
		ORDER BY date DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PracticeSession
	for rows.Next() {
		var session models.PracticeSession
		var date time.Time
		if err := rows.Scan(&session.ID, &date, &session.Notes); err != nil {
			return nil, err
		}
		session.Date = date.UTC()
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		ratings, err := r.fetchRatings(sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].CueRatings = ratings
	}
	return sessions, nil
}

// DeleteSession removes a session row and its ratings in one transaction;
// no-op if absent
func (r *SessionRepository) DeleteSession(userID, sessionID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM session_cue_ratings WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete ratings for session %s: %w", sessionID, err)
	}
	query := "DELETE FROM sessions WHERE id = ? AND user_id = ?"
	if _, err := tx.Exec(query, sessionID, userID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return tx.Commit()
}

func (r *SessionRepository) fetchRatings(sessionID string) ([]models.CueRating, error) {
	query := "SELECT cue_id, rating FROM session_cue_ratings WHERE session_id = ?"
	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.CueRating
	for rows.Next() {
		var rating models.CueRating
		if err := rows.Scan(&rating.CueID, &rating.Rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}
