package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"courtcue/internal/database"
	"courtcue/internal/models"
)

// ProfileRepository handles remote profile, active-cue and quiz-answer rows
// for the sync gateway
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// RemoteProfile is the profile state as held by the remote store
type RemoteProfile struct {
	Level                  models.SkillLevel
	HasCompletedOnboarding bool
}

// UpsertProfile writes the profile row for a user, creating it on first
// sync. Existence is checked first so the statement stays portable across
// dialects.
func (r *ProfileRepository) UpsertProfile(userID string, profile RemoteProfile) error {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM profiles WHERE id = ?", userID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}

	if count > 0 {
		query := `
			UPDATE profiles
			SET level = ?, has_completed_onboarding = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = r.db.Exec(query, string(profile.Level), profile.HasCompletedOnboarding, time.Now().UTC(), userID)
	} else {
		query := `
			INSERT INTO profiles (id, level, has_completed_onboarding, updated_at)
			VALUES (?, ?, ?, ?)
		`
		_, err = r.db.Exec(query, userID, string(profile.Level), profile.HasCompletedOnboarding, time.Now().UTC())
	}
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// FetchProfile retrieves the profile row for a user. A missing row is not an
// error; it reads as empty defaults.
func (r *ProfileRepository) FetchProfile(userID string) (RemoteProfile, error) {
	query := `
		SELECT COALESCE(level, ''), has_completed_onboarding
		FROM profiles
		WHERE id = ?
	`
	var profile RemoteProfile
	var level string
	err := r.db.QueryRow(query, userID).Scan(&level, &profile.HasCompletedOnboarding)
	if err == sql.ErrNoRows {
		return RemoteProfile{}, nil
	}
	if err != nil {
		return RemoteProfile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	profile.Level = models.SkillLevel(level)
	return profile, nil
}

// ReplaceActiveCues replaces the user's active-cue rows with the given set,
// as delete-all-then-insert-all. A failed delete is logged and reported as
// recoverable; the inserts are still attempted so new data gets through.
// Not safe against two devices syncing the same user concurrently.
func (r *ProfileRepository) ReplaceActiveCues(userID string, cueIDs []string) (deleteFailed bool, err error) {
	if _, err := r.db.Exec("DELETE FROM user_active_cues WHERE user_id = ?", userID); err != nil {
		log.Printf("Error deleting active cues for %s: %v", userID, err)
		deleteFailed = true
	}

	// Conflict-tolerant inserts, so rows that survived a failed delete do
	// not turn the recoverable outcome into a hard failure
	query := r.db.Dialect.InsertIgnoreQuery("INSERT INTO user_active_cues (user_id, cue_id) VALUES (?, ?)")
	for _, cueID := range cueIDs {
		if _, err := r.db.Exec(query, userID, cueID); err != nil {
			return deleteFailed, fmt.Errorf("failed to insert active cue %s: %w", cueID, err)
		}
	}
	return deleteFailed, nil
}

// FetchActiveCues retrieves the user's active cue ids
func (r *ProfileRepository) FetchActiveCues(userID string) ([]string, error) {
	rows, err := r.db.Query("SELECT cue_id FROM user_active_cues WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active cues: %w", err)
	}
	defer rows.Close()

	var cueIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		cueIDs = append(cueIDs, id)
	}
	return cueIDs, rows.Err()
}

// ReplaceQuizAnswers replaces the user's quiz-answer rows, same
// delete-then-insert pattern as active cues
func (r *ProfileRepository) ReplaceQuizAnswers(userID string, answers []models.QuizAnswer) (deleteFailed bool, err error) {
	if _, err := r.db.Exec("DELETE FROM quiz_answers WHERE user_id = ?", userID); err != nil {
		log.Printf("Error deleting quiz answers for %s: %v", userID, err)
		deleteFailed = true
	}

	query := r.db.Dialect.InsertIgnoreQuery("INSERT INTO quiz_answers (user_id, question_id, answer_id, points) VALUES (?, ?, ?, ?)")
	for _, answer := range answers {
		if _, err := r.db.Exec(query, userID, answer.QuestionID, answer.AnswerID, answer.Points); err != nil {
			return deleteFailed, fmt.Errorf("failed to insert quiz answer %s: %w", answer.QuestionID, err)
		}
	}
	return deleteFailed, nil
}

// FetchQuizAnswers retrieves the user's quiz answers
func (r *ProfileRepository) FetchQuizAnswers(userID string) ([]models.QuizAnswer, error) {
	query := "SELECT question_id, answer_id, points FROM quiz_answers WHERE user_id = ?"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quiz answers: %w", err)
	}
	defer rows.Close()

	var answers []models.QuizAnswer
	for rows.Next() {
		var a models.QuizAnswer
		if err := rows.Scan(&a.QuestionID, &a.AnswerID, &a.Points); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
