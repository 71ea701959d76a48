package content

import "courtcue/internal/models"

// CalculateLevel maps a quiz point total to a skill level.
// Max possible total is 18 (6 questions, 3 points each).
func CalculateLevel(totalPoints int) models.SkillLevel {
	if totalPoints <= 6 {
		return models.LevelBeginner
	}
	if totalPoints <= 12 {
		return models.LevelIntermediate
	}
	return models.LevelAdvanced
}
