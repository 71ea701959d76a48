// Package content holds the static coaching reference data: the cue library
// and the skill assessment quiz. The data is embedded at build time and never
// changes at runtime.
package content

import (
	"embed"
	"encoding/json"
	"log"

	"courtcue/internal/models"
)

//go:embed cues.json quiz.json
var dataFS embed.FS

var (
	cues      []models.Cue
	cuesByID  map[string]models.Cue
	questions []models.QuizQuestion
)

func init() {
	if err := load(); err != nil {
		log.Fatalf("Failed to load embedded content: %v", err)
	}
}

func load() error {
	cueData, err := dataFS.ReadFile("cues.json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(cueData, &cues); err != nil {
		return err
	}

	cuesByID = make(map[string]models.Cue, len(cues))
	for _, c := range cues {
		cuesByID[c.ID] = c
	}

	quizData, err := dataFS.ReadFile("quiz.json")
	if err != nil {
		return err
	}
	return json.Unmarshal(quizData, &questions)
}

// Cues returns the full cue library
func Cues() []models.Cue {
	return cues
}

// CueByID looks up a cue by id. Unknown ids resolve to a placeholder cue
// rather than an error, so stale references never break a caller.
func CueByID(id string) models.Cue {
	if c, ok := cuesByID[id]; ok {
		return c
	}
	return models.Cue{
		ID:               id,
		Title:            "Unknown",
		ShortDescription: "This cue is no longer available",
	}
}

// KnownCue reports whether the id exists in the cue library
func KnownCue(id string) bool {
	_, ok := cuesByID[id]
	return ok
}

// QuizQuestions returns the assessment question bank
func QuizQuestions() []models.QuizQuestion {
	return questions
}

// CuesByLevel returns all cues for a skill level, in library order
func CuesByLevel(level models.SkillLevel) []models.Cue {
	var result []models.Cue
	for _, c := range cues {
		if c.Level == level {
			result = append(result, c)
		}
	}
	return result
}

// CuesByStrokeType returns all cues for a stroke type, in library order
func CuesByStrokeType(stroke models.StrokeType) []models.Cue {
	var result []models.Cue
	for _, c := range cues {
		if c.StrokeType == stroke {
			result = append(result, c)
		}
	}
	return result
}

// CuesBySkillArea returns all cues for a skill area, in library order
func CuesBySkillArea(area models.SkillArea) []models.Cue {
	var result []models.Cue
	for _, c := range cues {
		if c.SkillArea == area {
			result = append(result, c)
		}
	}
	return result
}
