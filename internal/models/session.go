package models

import "time"

// CueRating is a single 1-5 star rating for one cue within a session
type CueRating struct {
	CueID  string `json:"cueId"`
	Rating int    `json:"rating"`
}

// PracticeSession represents one logged practice occasion. Sessions are
// immutable once created; merge correctness relies on that.
type PracticeSession struct {
	ID         string      `json:"id"`
	Date       time.Time   `json:"date"`
	CueRatings []CueRating `json:"cueRatings"`
	Notes      string      `json:"notes,omitempty"`
}

// RatingForCue returns the rating this session recorded for the cue,
// or false if the cue was not rated
func (s PracticeSession) RatingForCue(cueID string) (int, bool) {
	for _, r := range s.CueRatings {
		if r.CueID == cueID {
			return r.Rating, true
		}
	}
	return 0, false
}

// CueProgressPoint is one chronological data point in a cue's rating history
type CueProgressPoint struct {
	Date   time.Time `json:"date"`
	Rating int       `json:"rating"`
}
