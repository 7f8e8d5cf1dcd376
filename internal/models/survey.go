package models

import (
	"encoding/json"
	"log/slog"
	"time"
)

// SurveyOptions controls how a published survey is presented.
type SurveyOptions struct {
	OneQuestionPerStep bool   `json:"oneQuestionPerStep"`
	DisplayTitle       bool   `json:"displayTitle"`
	HideProgressBar    bool   `json:"hideProgressBar"`
	AccentColor        string `json:"accentColor"`
	DisplayLogo        bool   `json:"displayLogo"`
}

// The option names accepted by SurveyOptions.Set.
const (
	OptionOneQuestionPerStep = "oneQuestionPerStep"
	OptionDisplayTitle       = "displayTitle"
	OptionHideProgressBar    = "hideProgressBar"
	OptionAccentColor        = "accentColor"
	OptionDisplayLogo        = "displayLogo"
)

const DefaultAccentColor = "#7E00C3"

func DefaultSurveyOptions() SurveyOptions {
	return SurveyOptions{
		OneQuestionPerStep: true,
		AccentColor:        DefaultAccentColor,
		DisplayLogo:        true,
	}
}

// Set updates a single option by name. It reports false when the name is
// unknown or the value has the wrong type for that option.
func (o *SurveyOptions) Set(name string, value any) bool {
	if name == OptionAccentColor {
		s, ok := value.(string)
		if !ok {
			return false
		}
		o.AccentColor = s
		return true
	}

	b, ok := value.(bool)
	if !ok {
		return false
	}

	switch name {
	case OptionOneQuestionPerStep:
		o.OneQuestionPerStep = b
	case OptionDisplayTitle:
		o.DisplayTitle = b
	case OptionHideProgressBar:
		o.HideProgressBar = b
	case OptionDisplayLogo:
		o.DisplayLogo = b
	default:
		return false
	}
	return true
}

// The Survey object as persisted, questions ordered by Order.
type Survey struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
	SurveyOptions
	ShowDisclaimer      bool           `json:"showDisclaimer"`
	DisclaimerTitle     string         `json:"disclaimerTitle"`
	DisclaimerBody      string         `json:"disclaimerBody"`
	ThankYouLogic       []ThankYouRule `json:"thankYouLogic"`
	AssociatedCompanies []string       `json:"associatedCompanies"`
	Questions           []Question     `json:"questions"`
	CreatedAt           time.Time      `json:"createdAt"`
}

// QuestionByID returns the question with the given id.
func (s *Survey) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Organization is a company a survey can be restricted to.
type Organization struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ParseCompanyIDs reads the associated companies column, which may hold a
// JSON array, a JSON encoded string of an array, or garbage. Anything that
// is not a list of strings yields an empty set.
func ParseCompanyIDs(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		if ids == nil {
			return []string{}
		}
		return ids
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &ids); err == nil && ids != nil {
			return ids
		}
	}

	slog.Warn("malformed associated companies", slog.String("raw", string(raw)))
	return []string{}
}

// LogicPathPayload crosses the persistence boundary by position: the store
// resolves NextQuestionOrder to a stored question id once all questions of
// the survey exist. A negative order ends the survey.
type LogicPathPayload struct {
	ComparisonType    ComparisonType `json:"comparisonType"`
	SelectedOption    string         `json:"selectedOption"`
	NextQuestionOrder int            `json:"nextQuestionOrder"`
}

type QuestionPayload struct {
	DraftID           string             `json:"draftId,omitempty"`
	Title             string             `json:"title"`
	Type              QuestionType       `json:"type"`
	Description       string             `json:"description,omitempty"`
	IsRequired        bool               `json:"isRequired"`
	Options           []string           `json:"options"`
	SelectedCompanies []string           `json:"selectedCompanies,omitempty"`
	LogicPaths        []LogicPathPayload `json:"logicPaths,omitempty"`
}

// CreateEditSurveyPayload is the wire shape used to create or replace a survey.
type CreateEditSurveyPayload struct {
	Title               string            `json:"title"`
	Description         string            `json:"description,omitempty"`
	Questions           []QuestionPayload `json:"questions"`
	OneQuestionPerStep  bool              `json:"oneQuestionPerStep"`
	DisplayTitle        bool              `json:"displayTitle"`
	HideProgressBar     bool              `json:"hideProgressBar"`
	AccentColor         string            `json:"accentColor"`
	DisplayLogo         *bool             `json:"displayLogo,omitempty"`
	ShowDisclaimer      *bool             `json:"showDisclaimer,omitempty"`
	DisclaimerTitle     string            `json:"disclaimerTitle,omitempty"`
	DisclaimerBody      string            `json:"disclaimerBody,omitempty"`
	ThankYouLogic       []ThankYouRule    `json:"thankYouLogic,omitempty"`
	AssociatedCompanies []string          `json:"associatedCompanies,omitempty"`
}

// AnswerEntry holds the answer given to one question. A nil Answer means the
// question was left blank.
type AnswerEntry struct {
	QuestionID string  `json:"questionId"`
	Answer     *string `json:"answer,omitempty"`
}

// AnswerSubmission is the payload stored when a respondent completes a survey.
type AnswerSubmission struct {
	AnswersData []AnswerEntry `json:"answersData"`
}

// Answer is one stored submission.
type Answer struct {
	ID         string        `json:"id"`
	SurveyID   string        `json:"surveyId"`
	UserID     string        `json:"userId,omitempty"`
	CompanyID  string        `json:"companyId,omitempty"`
	AnswerData []AnswerEntry `json:"answerData"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Value returns the provided answer for a question.
func (a Answer) Value(questionID string) (string, bool) {
	for _, d := range a.AnswerData {
		if d.QuestionID == questionID && d.Answer != nil {
			return *d.Answer, true
		}
	}
	return "", false
}

// SurveyWithAnswers is the results read model.
type SurveyWithAnswers struct {
	Survey
	Answers []Answer `json:"answers"`
}

// SurveySummary is a row of a creator's survey list.
type SurveySummary struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	QuestionCount int       `db:"question_count" json:"questionCount"`
	AnswerCount   int       `db:"answer_count" json:"answerCount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
