package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// Viewer identifies who is answering or reading a survey.
type Viewer struct {
	UserID      string
	CompanyID   string
	CompanyName string
}

// Receipt is returned after a successful submission.
type Receipt struct {
	Answer   *models.Answer `json:"answer"`
	Messages []string       `json:"messages"`
}

type ResponseService interface {
	// SubmitAnswers stores one completed survey and evaluates the thank-you
	// rules against it.
	SubmitAnswers(ctx context.Context, surveyID string, viewer Viewer, sub models.AnswerSubmission) (*Receipt, error)
}

type responseServiceImpl struct {
	repo   SurveyRepository
	limits Limits
}

func NewResponseService(repo SurveyRepository, limits Limits) ResponseService {
	return &responseServiceImpl{repo: repo, limits: limits}
}

func (s *responseServiceImpl) SubmitAnswers(ctx context.Context, surveyID string, viewer Viewer, sub models.AnswerSubmission) (*Receipt, error) {
	if err := ValidateSubmission(sub, s.limits); err != nil {
		return nil, err
	}

	survey, err := s.repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.IsActive {
		return nil, fault.NewClientError("survey is closed", fault.ErrInactiveSurvey)
	}

	answers := Answers{}
	for _, entry := range sub.AnswersData {
		q, ok := survey.QuestionByID(entry.QuestionID)
		if !ok || q.Type.IsStructural() {
			return nil, fault.NewClientError(fmt.Sprintf("question %s is not part of the survey", entry.QuestionID), ErrUnknownQuestion)
		}
		if entry.Answer != nil {
			answers[entry.QuestionID] = *entry.Answer
		}
	}

	answer, err := s.repo.CreateAnswer(ctx, surveyID, viewer.UserID, viewer.CompanyID, sub)
	if err != nil {
		slog.Error("store answer failed", slog.String("survey_id", surveyID), slog.Any("error", err))
		return nil, err
	}

	return &Receipt{
		Answer:   answer,
		Messages: EvaluateRules(survey.ThankYouLogic, answers),
	}, nil
}
