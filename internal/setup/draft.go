package setup

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"InterviewCoach/internal/interview"
)

var (
	// ErrIncomplete is returned when a required field is missing.
	ErrIncomplete = errors.New("interview setup is incomplete")
	// ErrFrozen is returned for edits after the draft has been built.
	ErrFrozen = errors.New("interview setup is locked once the session starts")
)

// Field names accepted by SetField.
const (
	FieldType       = "interview_type"
	FieldDifficulty = "difficulty"
	FieldDuration   = "duration_minutes"
	FieldPosition   = "position"
	FieldExperience = "experience"
	FieldIndustry   = "industry"
)

// FieldError reports a rejected or missing field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Draft collects interview parameters before a session starts.
type Draft struct {
	cfg    interview.Config
	frozen bool
}

// NewDraft returns a draft with the setup screen defaults.
func NewDraft() *Draft {
	return &Draft{cfg: interview.Config{
		InterviewType:   interview.TypeTechnical,
		Difficulty:      interview.DifficultyIntermediate,
		DurationMinutes: 60,
	}}
}

// FromConfig seeds a draft with an existing config. Skills are deduplicated.
func FromConfig(cfg interview.Config) (*Draft, error) {
	d := NewDraft()
	if cfg.InterviewType != "" {
		if err := d.SetField(FieldType, string(cfg.InterviewType)); err != nil {
			return nil, err
		}
	}
	if cfg.Difficulty != "" {
		if err := d.SetField(FieldDifficulty, string(cfg.Difficulty)); err != nil {
			return nil, err
		}
	}
	if cfg.DurationMinutes != 0 {
		if err := d.SetField(FieldDuration, strconv.Itoa(cfg.DurationMinutes)); err != nil {
			return nil, err
		}
	}
	d.cfg.Position = cfg.Position
	d.cfg.Experience = cfg.Experience
	d.cfg.Industry = cfg.Industry
	for _, s := range cfg.Skills {
		d.AddSkill(s)
	}
	for _, q := range cfg.CustomQuestions {
		d.AddCustomQuestion(q)
	}
	return d, nil
}

// LoadFile reads a YAML draft such as:
//
//	interview_type: technical
//	position: Backend Developer
//	skills: [Python, Django]
func LoadFile(filename string) (*Draft, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file %s: %w", filename, err)
	}

	var cfg interview.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse draft file %s: %w", filename, err)
	}

	return FromConfig(cfg)
}

// SetField merges a single value into the draft.
func (d *Draft) SetField(name, value string) error {
	if d.frozen {
		return ErrFrozen
	}
	value = strings.TrimSpace(value)

	switch name {
	case FieldType:
		t := interview.Type(value)
		if !slices.Contains(interview.Types, t) {
			return &FieldError{Field: name, Reason: fmt.Sprintf("unknown interview type %q", value)}
		}
		d.cfg.InterviewType = t
	case FieldDifficulty:
		lvl := interview.Difficulty(value)
		if !slices.Contains(interview.Difficulties, lvl) {
			return &FieldError{Field: name, Reason: fmt.Sprintf("unknown difficulty %q", value)}
		}
		d.cfg.Difficulty = lvl
	case FieldDuration:
		minutes, err := strconv.Atoi(strings.TrimSuffix(value, "m"))
		if err != nil || !slices.Contains(interview.Durations, minutes) {
			return &FieldError{Field: name, Reason: fmt.Sprintf("duration must be one of %v minutes", interview.Durations)}
		}
		d.cfg.DurationMinutes = minutes
	case FieldPosition:
		d.cfg.Position = value
	case FieldExperience:
		d.cfg.Experience = value
	case FieldIndustry:
		d.cfg.Industry = value
	default:
		return &FieldError{Field: name, Reason: "unknown field"}
	}
	return nil
}

// AddSkill adds s unless it is blank or already present.
func (d *Draft) AddSkill(s string) bool {
	s = strings.TrimSpace(s)
	if d.frozen || s == "" || slices.Contains(d.cfg.Skills, s) {
		return false
	}
	d.cfg.Skills = append(d.cfg.Skills, s)
	return true
}

// RemoveSkill removes s if present.
func (d *Draft) RemoveSkill(s string) bool {
	if d.frozen {
		return false
	}
	i := slices.Index(d.cfg.Skills, strings.TrimSpace(s))
	if i < 0 {
		return false
	}
	d.cfg.Skills = slices.Delete(d.cfg.Skills, i, i+1)
	return true
}

// AddCustomQuestion appends q. Duplicates are kept; order is what the
// backend presents.
func (d *Draft) AddCustomQuestion(q string) bool {
	q = strings.TrimSpace(q)
	if d.frozen || q == "" {
		return false
	}
	d.cfg.CustomQuestions = append(d.cfg.CustomQuestions, q)
	return true
}

// RemoveCustomQuestion drops the question at index.
func (d *Draft) RemoveCustomQuestion(index int) error {
	if d.frozen {
		return ErrFrozen
	}
	if index < 0 || index >= len(d.cfg.CustomQuestions) {
		return fmt.Errorf("custom question %d does not exist", index)
	}
	d.cfg.CustomQuestions = slices.Delete(d.cfg.CustomQuestions, index, index+1)
	return nil
}

// CanStart reports whether the draft has every required field.
func (d *Draft) CanStart() bool {
	return Validate(d.cfg) == nil
}

// Config returns a copy of the current draft.
func (d *Draft) Config() interview.Config {
	return d.cfg.Clone()
}

// Frozen reports whether Build has been called.
func (d *Draft) Frozen() bool {
	return d.frozen
}

// Build validates the draft and locks it against further edits.
func (d *Draft) Build() (interview.Config, error) {
	if err := Validate(d.cfg); err != nil {
		return interview.Config{}, err
	}
	d.frozen = true
	return d.cfg.Clone(), nil
}

// Validate checks the fields required before a session may start.
func Validate(cfg interview.Config) error {
	var missing []error
	if strings.TrimSpace(cfg.Position) == "" {
		missing = append(missing, &FieldError{Field: FieldPosition, Reason: "required"})
	}
	if strings.TrimSpace(cfg.Experience) == "" {
		missing = append(missing, &FieldError{Field: FieldExperience, Reason: "required"})
	}
	if strings.TrimSpace(cfg.Industry) == "" {
		missing = append(missing, &FieldError{Field: FieldIndustry, Reason: "required"})
	}
	if len(cfg.Skills) == 0 {
		missing = append(missing, &FieldError{Field: "skills", Reason: "at least one skill is required"})
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIncomplete, errors.Join(missing...))
}
