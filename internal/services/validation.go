package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// Limits bounds what a survey payload and an answer submission may hold.
type Limits struct {
	MaxTitleLength    int `yaml:"max_title_length"`
	MaxQuestionLength int `yaml:"max_question_length"`
	MaxLogicPaths     int `yaml:"max_logic_paths"`
	MinQuestions      int `yaml:"min_questions"`
	MaxQuestions      int `yaml:"max_questions"`
	MaxAnswerLength   int `yaml:"max_answer_length"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxTitleLength:    250,
		MaxQuestionLength: 250,
		MaxLogicPaths:     10,
		MinQuestions:      1,
		MaxQuestions:      100,
		MaxAnswerLength:   2000,
	}
}

// ValidatePayload checks a survey payload before it is persisted. The
// returned error wraps fault.ErrInvalidSurvey, or
// fault.ErrDuplicateCompanyQuestion for a second company question.
func ValidatePayload(p models.CreateEditSurveyPayload, limits Limits) error {
	if models.CountType(payloadQuestions(p), models.Company) > 1 {
		return fault.NewClientError("invalid survey", fault.ErrDuplicateCompanyQuestion)
	}

	if strings.TrimSpace(p.Title) == "" {
		return invalid("title is required")
	}
	if utf8.RuneCountInString(p.Title) > limits.MaxTitleLength {
		return invalid(fmt.Sprintf("title is longer than %d characters", limits.MaxTitleLength))
	}

	if n := len(p.Questions); n < limits.MinQuestions || n > limits.MaxQuestions {
		return invalid(fmt.Sprintf("survey must have between %d and %d questions", limits.MinQuestions, limits.MaxQuestions))
	}

	for i, q := range p.Questions {
		if !q.Type.IsValid() {
			return invalid(fmt.Sprintf("question %d has unknown type %q", i, q.Type))
		}
		if strings.TrimSpace(q.Title) == "" && !q.Type.IsStructural() {
			return invalid(fmt.Sprintf("question %d has no title", i))
		}
		if utf8.RuneCountInString(q.Title) > limits.MaxQuestionLength {
			return invalid(fmt.Sprintf("question %d is longer than %d characters", i, limits.MaxQuestionLength))
		}
		if len(q.LogicPaths) > limits.MaxLogicPaths {
			return invalid(fmt.Sprintf("question %d has more than %d logic paths", i, limits.MaxLogicPaths))
		}
	}

	return nil
}

// ValidateSubmission rejects answers longer than the configured bound.
func ValidateSubmission(s models.AnswerSubmission, limits Limits) error {
	for _, entry := range s.AnswersData {
		if entry.Answer != nil && utf8.RuneCountInString(*entry.Answer) > limits.MaxAnswerLength {
			return fault.NewClientError(fmt.Sprintf("answer to %s is too long", entry.QuestionID), fault.ErrAnswerTooLong)
		}
	}
	return nil
}

func invalid(msg string) error {
	return fault.NewClientError(msg, fault.ErrInvalidSurvey)
}

func payloadQuestions(p models.CreateEditSurveyPayload) []models.Question {
	questions := make([]models.Question, len(p.Questions))
	for i, q := range p.Questions {
		questions[i] = models.Question{Type: q.Type}
	}
	return questions
}
