package services

import (
	"strings"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/compare"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// Holds the state of the respondent on a one-question-per-step survey.
//
// Typically what question they are on when they paused or left it.
type SurveySession struct {
	ID        string            `json:"id"`
	SurveyID  string            `json:"surveyId"`
	Answers   map[string]string `json:"answers"`
	CurrentID string            `json:"currentId"`
	Completed bool              `json:"completed"`
}

// Handles the question sequencing of one-question-per-step surveys.
type SurveyService interface {
	// Records the answer and moves the session to the next question. A nil
	// question with a nil error means the survey is finished.
	AnswerQuestion(session *SurveySession, questionID string, answer string, survey models.Survey) (*models.Question, error)
	// Returns the first logic path of the question matching the answer.
	GetNextQuestionWithLogic(question models.Question, answer string) (models.LogicPath, bool)
	// Returns the index of the question shown after questions[current].
	NextQuestionIndex(questions []models.Question, current int, answers map[string]string) (next int, finished bool)
}

type surveyServiceImpl struct{}

// Instantiate the SurveyService.
func NewSurveyService() SurveyService {
	return &surveyServiceImpl{}
}

func (s *surveyServiceImpl) AnswerQuestion(session *SurveySession, questionID string, answer string, survey models.Survey) (*models.Question, error) {
	if session.Completed {
		return nil, fault.NewClientError("survey already completed", nil)
	}

	current := indexOfQuestion(survey.Questions, questionID)
	if current < 0 {
		return nil, fault.NewClientError("invalid question", ErrUnknownQuestion)
	}

	if session.Answers == nil {
		session.Answers = make(map[string]string)
	}
	session.Answers[questionID] = answer

	next, finished := s.NextQuestionIndex(survey.Questions, current, session.Answers)
	if finished {
		session.Completed = true
		session.CurrentID = ""
		return nil, nil
	}

	nextQuestion := survey.Questions[next]
	session.CurrentID = nextQuestion.ID
	return &nextQuestion, nil
}

// First match wins. Incomplete paths, including those whose target was
// removed, never match.
func (s *surveyServiceImpl) GetNextQuestionWithLogic(question models.Question, answer string) (models.LogicPath, bool) {
	answered := strings.TrimSpace(answer) != ""
	if !answered {
		return models.LogicPath{}, false
	}

	for _, path := range question.LogicPaths {
		if !path.IsComplete() {
			continue
		}
		if pathMatches(path, answer) {
			return path, true
		}
	}

	return models.LogicPath{}, false
}

func (s *surveyServiceImpl) NextQuestionIndex(questions []models.Question, current int, answers map[string]string) (int, bool) {
	if current < 0 || current >= len(questions) {
		return 0, true
	}

	question := questions[current]
	if path, ok := s.GetNextQuestionWithLogic(question, answers[question.ID]); ok {
		if path.EndsSurvey() {
			return 0, true
		}
		if target := indexOfQuestion(questions, path.NextQuestionID); target >= 0 {
			return firstContentFrom(questions, target)
		}
	}

	return firstContentFrom(questions, current+1)
}

func pathMatches(path models.LogicPath, answer string) bool {
	switch path.ComparisonType {
	case models.Submitted:
		return true
	case models.Equal:
		return compare.Strings("==", strings.TrimSpace(answer), strings.TrimSpace(path.SelectedOption))
	case models.GreaterThan, models.LessThan:
		left, ok := compare.ParseNumber(answer)
		if !ok {
			return false
		}
		right, ok := compare.ParseNumber(path.SelectedOption)
		if !ok {
			return false
		}
		op := ">"
		if path.ComparisonType == models.LessThan {
			op = "<"
		}
		return compare.Numbers(op, left, right)
	default:
		return false
	}
}

// Section breakers carry no content and are stepped over.
func firstContentFrom(questions []models.Question, i int) (int, bool) {
	for ; i < len(questions); i++ {
		if questions[i].Type != models.SectionBreaker {
			return i, false
		}
	}
	return 0, true
}

func indexOfQuestion(questions []models.Question, id string) int {
	if id == "" {
		return -1
	}
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
