package models

// SkillLevel is a player's self-assessed ability tier
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
)

// IsValid reports whether the level is one of the three known tiers
func (l SkillLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// QuizAnswer records the option a user picked for one assessment question
type QuizAnswer struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
	Points     int    `json:"points"`
}

// UserProfile holds the onboarding, quiz and active-cue state for one user.
// A zero-value profile (no level, nothing selected, onboarding incomplete)
// is the state of a fresh install.
type UserProfile struct {
	Level                  SkillLevel   `json:"level,omitempty"`
	ActiveCueIDs           []string     `json:"activeCueIds"`
	QuizAnswers            []QuizAnswer `json:"quizAnswers"`
	HasCompletedOnboarding bool         `json:"hasCompletedOnboarding"`
}

// HasActiveCue reports whether the cue is in the active selection
func (p UserProfile) HasActiveCue(cueID string) bool {
	for _, id := range p.ActiveCueIDs {
		if id == cueID {
			return true
		}
	}
	return false
}

// TotalQuizPoints sums the points across all recorded answers
func (p UserProfile) TotalQuizPoints() int {
	total := 0
	for _, a := range p.QuizAnswers {
		total += a.Points
	}
	return total
}
