package interview

import "time"

// Type is the kind of interview requested from the backend.
type Type string

const (
	TypeTechnical    Type = "technical"
	TypeBehavioral   Type = "behavioral"
	TypeCoding       Type = "coding"
	TypeSystemDesign Type = "system_design"
	TypeMixed        Type = "mixed"
)

// Types lists every accepted interview type in display order.
var Types = []Type{TypeTechnical, TypeBehavioral, TypeCoding, TypeSystemDesign, TypeMixed}

// Difficulty is the requested question difficulty.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert}

// Durations lists the accepted session lengths in minutes.
var Durations = []int{30, 45, 60, 90}

// Config describes the interview a user wants to practice
type Config struct {
	InterviewType   Type       `json:"interview_type" yaml:"interview_type"`
	Difficulty      Difficulty `json:"difficulty" yaml:"difficulty"`
	DurationMinutes int        `json:"duration_minutes" yaml:"duration_minutes"`
	Position        string     `json:"position" yaml:"position"`
	Experience      string     `json:"experience" yaml:"experience"`
	Industry        string     `json:"industry" yaml:"industry"`
	Skills          []string   `json:"skills" yaml:"skills"`
	CustomQuestions []string   `json:"custom_questions,omitempty" yaml:"custom_questions,omitempty"`
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Skills = append([]string(nil), c.Skills...)
	if c.CustomQuestions != nil {
		out.CustomQuestions = append([]string(nil), c.CustomQuestions...)
	}
	return out
}

// Feedback is the backend's assessment of a single answer
type Feedback struct {
	Score             *float64 `json:"score,omitempty"`
	Strengths         []string `json:"strengths,omitempty"`
	Improvements      []string `json:"improvements,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
	OverallAssessment string   `json:"overall_assessment,omitempty"`
}

// QA is one answered question. Entries are appended once and never changed.
type QA struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Feedback   *Feedback `json:"feedback,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Progress is how far into a session the user is.
type Progress struct {
	Current int `json:"current_question"`
	Total   int `json:"total_questions"`
}

// Session is the client-side view of a running interview
type Session struct {
	ID           string    `json:"session_id"`
	Progress     Progress  `json:"progress"`
	Question     string    `json:"question"`
	RunningScore float64   `json:"running_score"`
	History      []QA      `json:"history"`
	StartedAt    time.Time `json:"started_at"`
}

// Report is the read-only record kept after a session completes.
type Report struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Config      Config    `json:"config"`
	History     []QA      `json:"history"`
	FinalScore  float64   `json:"final_score"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
