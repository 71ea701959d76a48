// Package backup exports and restores the remote store as a portable JSON
// file, covering accounts and all synced user data. Auth sessions and
// reset tokens are deliberately excluded; users re-authenticate after a
// restore.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"courtcue/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Users      []UserBackup    `json:"users"`
	Profiles   []ProfileBackup `json:"profiles"`
	Sessions   []SessionBackup `json:"sessions"`
}

// UserBackup represents an account record for backup
type UserBackup struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileBackup represents one user's synced profile with its child rows
type ProfileBackup struct {
	UserID                 string             `json:"user_id"`
	Level                  string             `json:"level"`
	HasCompletedOnboarding bool               `json:"has_completed_onboarding"`
	ActiveCueIDs           []string           `json:"active_cue_ids"`
	QuizAnswers            []QuizAnswerBackup `json:"quiz_answers"`
}

// QuizAnswerBackup represents one assessment answer for backup
type QuizAnswerBackup struct {
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
	Points     int    `json:"points"`
}

// SessionBackup represents a practice session with its ratings
type SessionBackup struct {
	ID      string         `json:"id"`
	UserID  string         `json:"user_id"`
	Date    time.Time      `json:"date"`
	Notes   string         `json:"notes"`
	Ratings []RatingBackup `json:"ratings"`
}

// RatingBackup represents one cue rating inside a session
type RatingBackup struct {
	CueID  string `json:"cue_id"`
	Rating int    `json:"rating"`
}

// Service handles database backup and restore operations
type Service struct {
	db *database.DB
}

// NewService creates a new backup service
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// Export creates a complete backup of the database to a file
func (s *Service) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportProfiles(backup); err != nil {
		return fmt.Errorf("failed to export profiles: %w", err)
	}
	if err := s.exportSessions(backup); err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d profiles, %d sessions",
		len(backup.Users), len(backup.Profiles), len(backup.Sessions))

	return nil
}

// Import restores a database from a backup file
func (s *Service) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.importFrom(file)
}

// ImportFromReader restores a database from a backup reader
func (s *Service) ImportFromReader(reader io.Reader) error {
	log.Println("Starting database import from reader...")
	return s.importFrom(reader)
}

func (s *Service) importFrom(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in order of dependencies
	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importProfiles(backup.Profiles); err != nil {
		return fmt.Errorf("failed to import profiles: %w", err)
	}
	if err := s.importSessions(backup.Sessions); err != nil {
		return fmt.Errorf("failed to import sessions: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *Service) exportUsers(backup *BackupData) error {
	query := "SELECT id, email, password_hash, created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *Service) exportProfiles(backup *BackupData) error {
	query := "SELECT id, COALESCE(level, ''), has_completed_onboarding FROM profiles ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProfileBackup
		if err := rows.Scan(&p.UserID, &p.Level, &p.HasCompletedOnboarding); err != nil {
			return err
		}
		backup.Profiles = append(backup.Profiles, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range backup.Profiles {
		p := &backup.Profiles[i]

		cueRows, err := s.db.Query("SELECT cue_id FROM user_active_cues WHERE user_id = ? ORDER BY cue_id", p.UserID)
		if err != nil {
			return err
		}
		for cueRows.Next() {
			var cueID string
			if err := cueRows.Scan(&cueID); err != nil {
				cueRows.Close()
				return err
			}
			p.ActiveCueIDs = append(p.ActiveCueIDs, cueID)
		}
		cueRows.Close()

		answerRows, err := s.db.Query("SELECT question_id, answer_id, points FROM quiz_answers WHERE user_id = ? ORDER BY question_id", p.UserID)
		if err != nil {
			return err
		}
		for answerRows.Next() {
			var a QuizAnswerBackup
			if err := answerRows.Scan(&a.QuestionID, &a.AnswerID, &a.Points); err != nil {
				answerRows.Close()
				return err
			}
			p.QuizAnswers = append(p.QuizAnswers, a)
		}
		answerRows.Close()
	}
	return nil
}

func (s *Service) exportSessions(backup *BackupData) error {
	query := "SELECT id, user_id, date, COALESCE(notes, '') FROM sessions ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var session SessionBackup
		if err := rows.Scan(&session.ID, &session.UserID, &session.Date, &session.Notes); err != nil {
			return err
		}
		backup.Sessions = append(backup.Sessions, session)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range backup.Sessions {
		session := &backup.Sessions[i]

		ratingRows, err := s.db.Query("SELECT cue_id, rating FROM session_cue_ratings WHERE session_id = ? ORDER BY cue_id", session.ID)
		if err != nil {
			return err
		}
		for ratingRows.Next() {
			var r RatingBackup
			if err := ratingRows.Scan(&r.CueID, &r.Rating); err != nil {
				ratingRows.Close()
				return err
			}
			session.Ratings = append(session.Ratings, r)
		}
		ratingRows.Close()
	}
	return nil
}

func (s *Service) importUsers(users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %s: %w", u.ID, err)
		}
	}
	return nil
}

func (s *Service) importProfiles(profiles []ProfileBackup) error {
	log.Printf("Importing %d profiles...", len(profiles))
	for _, p := range profiles {
		query := "INSERT INTO profiles (id, level, has_completed_onboarding) VALUES (?, ?, ?)"
		_, err := s.db.Exec(query, p.UserID, p.Level, p.HasCompletedOnboarding)
		if err != nil {
			return fmt.Errorf("failed to import profile %s: %w", p.UserID, err)
		}

		for _, cueID := range p.ActiveCueIDs {
			cueQuery := "INSERT INTO user_active_cues (user_id, cue_id) VALUES (?, ?)"
			if _, err := s.db.Exec(cueQuery, p.UserID, cueID); err != nil {
				return fmt.Errorf("failed to import active cue %s for user %s: %w", cueID, p.UserID, err)
			}
		}

		for _, a := range p.QuizAnswers {
			answerQuery := "INSERT INTO quiz_answers (user_id, question_id, answer_id, points) VALUES (?, ?, ?, ?)"
			if _, err := s.db.Exec(answerQuery, p.UserID, a.QuestionID, a.AnswerID, a.Points); err != nil {
				return fmt.Errorf("failed to import quiz answer %s for user %s: %w", a.QuestionID, p.UserID, err)
			}
		}
	}
	return nil
}

func (s *Service) importSessions(sessions []SessionBackup) error {
	log.Printf("Importing %d sessions...", len(sessions))
	for _, session := range sessions {
		query := "INSERT INTO sessions (id, user_id, date, notes) VALUES (?, ?, ?, ?)"
		_, err := s.db.Exec(query, session.ID, session.UserID, session.Date, session.Notes)
		if err != nil {
			return fmt.Errorf("failed to import session %s: %w", session.ID, err)
		}

		for _, r := range session.Ratings {
			ratingQuery := "INSERT INTO session_cue_ratings (session_id, cue_id, rating) VALUES (?, ?, ?)"
			if _, err := s.db.Exec(ratingQuery, session.ID, r.CueID, r.Rating); err != nil {
				return fmt.Errorf("failed to import rating %s for session %s: %w", r.CueID, session.ID, err)
			}
		}
	}
	return nil
}
