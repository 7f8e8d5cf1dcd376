package models

import (
	"slices"

	"github.com/google/uuid"
)

// The type of question being asked.
type QuestionType string

const (
	Choice         QuestionType = "CHOICE"
	Input          QuestionType = "INPUT"
	Number         QuestionType = "NUMBER"
	Rate           QuestionType = "RATE"
	Emoji          QuestionType = "EMOJI"
	Date           QuestionType = "DATE"
	Textarea       QuestionType = "TEXTAREA"
	Company        QuestionType = "COMPANY"
	Section        QuestionType = "SECTION"
	SectionBreaker QuestionType = "SECTION_BREAKER"
)

var questionTypes = []QuestionType{
	Choice, Input, Number, Rate, Emoji, Date, Textarea, Company, Section, SectionBreaker,
}

// QuestionTypes lists every known question type.
func QuestionTypes() []QuestionType {
	return slices.Clone(questionTypes)
}

func (t QuestionType) IsValid() bool {
	return slices.Contains(questionTypes, t)
}

// IsStructural reports whether the type is a layout marker without an answer.
func (t QuestionType) IsStructural() bool {
	return t == Section || t == SectionBreaker
}

// How a logic path compares the submitted answer against its selected option.
type ComparisonType string

const (
	Equal       ComparisonType = "EQUAL"
	GreaterThan ComparisonType = "GREATER_THAN"
	LessThan    ComparisonType = "LESS_THAN"
	Submitted   ComparisonType = "SUBMITTED"
)

func (c ComparisonType) IsValid() bool {
	switch c {
	case Equal, GreaterThan, LessThan, Submitted:
		return true
	}
	return false
}

// EndOfSurvey is the NextQuestionID sentinel that finishes the survey.
const EndOfSurvey = "END_OF_SURVEY"

// LogicPath is a conditional jump attached to a question.
//
// Zero values mean "not set yet": a freshly added path is empty and is
// filled in field by field while the survey is being authored.
type LogicPath struct {
	ComparisonType ComparisonType `json:"comparisonType,omitempty"`
	SelectedOption string         `json:"selectedOption,omitempty"`
	NextQuestionID string         `json:"nextQuestionId,omitempty"`
}

// IsComplete reports whether the path can be persisted.
func (p LogicPath) IsComplete() bool {
	if p.ComparisonType == "" || p.NextQuestionID == "" {
		return false
	}
	return p.ComparisonType == Submitted || p.SelectedOption != ""
}

// EndsSurvey reports whether following the path finishes the survey.
func (p LogicPath) EndsSurvey() bool {
	return p.NextQuestionID == EndOfSurvey
}

// The Question object.
//
// ID is the client generated draft id while authoring and the storage id
// once persisted.
type Question struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Type              QuestionType `json:"type"`
	IsRequired        bool         `json:"isRequired"`
	Options           []string     `json:"options,omitempty"`
	SelectedCompanies []string     `json:"selectedCompanies,omitempty"`
	Description       string       `json:"description,omitempty"`
	Order             int          `json:"order"`
	LogicPaths        []LogicPath  `json:"logicPaths"`
}

// Clone returns a deep copy so callers can mutate slices freely.
func (q Question) Clone() Question {
	c := q
	c.Options = slices.Clone(q.Options)
	c.SelectedCompanies = slices.Clone(q.SelectedCompanies)
	c.LogicPaths = slices.Clone(q.LogicPaths)
	return c
}

// HasEmptyOption reports whether any option value is blank.
func (q Question) HasEmptyOption() bool {
	return slices.Contains(q.Options, "")
}

// HasIncompleteLogicPath reports whether any path is missing required fields.
func (q Question) HasIncompleteLogicPath() bool {
	return slices.ContainsFunc(q.LogicPaths, func(p LogicPath) bool {
		return !p.IsComplete()
	})
}

// NewQuestion returns a question of the given type filled with the defaults
// shown when a block is added to a draft.
func NewQuestion(t QuestionType) Question {
	q := Question{
		ID:         uuid.NewString(),
		Type:       t,
		IsRequired: !t.IsStructural(),
		LogicPaths: []LogicPath{},
	}

	switch t {
	case Emoji:
		q.Title = "How are you feeling today?"
		q.Options = []string{
			":rage:",
			":slightly_frowning_face:",
			":slightly_smiling_face:",
			":smiley:",
		}
	case Input:
		q.Title = "Tell us more"
	case Choice:
		q.Title = "Are you happy?"
		q.Options = []string{"Ya", "Tidak"}
	case Rate:
		q.Title = "How do you rate the process?"
	case Number:
		q.Title = "How many?"
	case Section:
		q.Title = "Section Title"
	case SectionBreaker:
		q.Title = "Step Break"
	case Date:
		q.Title = "Select a date"
	case Textarea:
		q.Title = "Describe your experience"
	case Company:
		q.Title = "Select your company"
		q.Options = []string{}
		q.SelectedCompanies = []string{}
	}

	return q
}

// CountType returns how many questions have the given type.
func CountType(questions []Question, t QuestionType) int {
	n := 0
	for _, q := range questions {
		if q.Type == t {
			n++
		}
	}
	return n
}
