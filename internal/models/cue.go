package models

// StrokeType categorizes a cue by the shot it applies to
type StrokeType string

const (
	StrokeForehand StrokeType = "forehand"
	StrokeBackhand StrokeType = "backhand"
	StrokeServe    StrokeType = "serve"
	StrokeReturn   StrokeType = "return"
	StrokeVolley   StrokeType = "volley"
	StrokeOverhead StrokeType = "overhead"
	StrokeGeneral  StrokeType = "general"
	StrokeApproach StrokeType = "approach"
	StrokeDropShot StrokeType = "drop-shot"
	StrokeLob      StrokeType = "lob"
	StrokeSlice    StrokeType = "slice"
)

// SkillArea categorizes a cue by the aspect of play it trains
type SkillArea string

const (
	AreaFootwork      SkillArea = "footwork"
	AreaPreparation   SkillArea = "preparation"
	AreaContact       SkillArea = "contact"
	AreaFollowThrough SkillArea = "follow-through"
	AreaTiming        SkillArea = "timing"
	AreaMental        SkillArea = "mental"
	AreaRecovery      SkillArea = "recovery"
	AreaTactics       SkillArea = "tactics"
)

// Cue is a single coaching tip. Cues are static reference data; they are
// never created or modified at runtime.
type Cue struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"shortDescription"`
	FullDescription  string     `json:"fullDescription"`
	StrokeType       StrokeType `json:"strokeType"`
	SkillArea        SkillArea  `json:"skillArea"`
	Level            SkillLevel `json:"level"`
}

// QuizOption is one selectable answer for an assessment question
type QuizOption struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// QuizQuestion is one question in the skill assessment
type QuizQuestion struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Options  []QuizOption `json:"options"`
}
