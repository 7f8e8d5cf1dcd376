package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// RespondentStep is what a respondent sees after each call.
type RespondentStep struct {
	Session  *SurveySession   `json:"session"`
	Question *models.Question `json:"question,omitempty"`
	Receipt  *Receipt         `json:"receipt,omitempty"`
}

// RespondentService walks a respondent through a one-question-per-step
// survey. Progress is kept in a scratch store so a respondent can leave and
// come back to the same question.
type RespondentService interface {
	Start(ctx context.Context, surveyID string) (*RespondentStep, error)
	Resume(ctx context.Context, sessionID string) (*RespondentStep, error)
	// Answer records the answer to the current question. Answering the last
	// step submits the survey and the step carries the receipt.
	Answer(ctx context.Context, sessionID, answer string, viewer Viewer) (*RespondentStep, error)
}

type respondentServiceImpl struct {
	repo      SurveyGateway
	resolver  SurveyService
	responses ResponseService
	sessions  ScratchStore
	limits    Limits
}

func NewRespondentService(repo SurveyGateway, resolver SurveyService, responses ResponseService, sessions ScratchStore, limits Limits) RespondentService {
	return &respondentServiceImpl{
		repo:      repo,
		resolver:  resolver,
		responses: responses,
		sessions:  sessions,
		limits:    limits,
	}
}

func (s *respondentServiceImpl) Start(ctx context.Context, surveyID string) (*RespondentStep, error) {
	survey, err := s.stepSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.IsActive {
		return nil, fault.NewClientError("survey is closed", fault.ErrInactiveSurvey)
	}

	session := &SurveySession{
		ID:       uuid.NewString(),
		SurveyID: surveyID,
		Answers:  map[string]string{},
	}
	first, finished := firstContentFrom(survey.Questions, 0)
	if finished {
		return nil, fault.NewClientError("survey has no questions", fault.ErrInvalidSurvey)
	}
	session.CurrentID = survey.Questions[first].ID

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	slog.Info("respondent session started", slog.String("survey_id", surveyID), slog.String("session_id", session.ID))
	return &RespondentStep{Session: session, Question: &survey.Questions[first]}, nil
}

func (s *respondentServiceImpl) Resume(ctx context.Context, sessionID string) (*RespondentStep, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	survey, err := s.stepSurvey(ctx, session.SurveyID)
	if err != nil {
		return nil, err
	}

	q, ok := survey.QuestionByID(session.CurrentID)
	if !ok {
		// the survey was edited under the respondent
		return nil, fault.NewClientError("survey has changed, please start again", ErrUnknownQuestion)
	}
	return &RespondentStep{Session: session, Question: &q}, nil
}

func (s *respondentServiceImpl) Answer(ctx context.Context, sessionID, answer string, viewer Viewer) (*RespondentStep, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	survey, err := s.stepSurvey(ctx, session.SurveyID)
	if err != nil {
		return nil, err
	}

	current, ok := survey.QuestionByID(session.CurrentID)
	if ok && current.IsRequired && !current.Type.IsStructural() && strings.TrimSpace(answer) == "" {
		return nil, fault.NewClientError("this question is required", fault.ErrInvalidSurvey)
	}

	// checked before the session moves on so the respondent can retry
	entry := models.AnswerEntry{QuestionID: session.CurrentID, Answer: &answer}
	if err := ValidateSubmission(models.AnswerSubmission{AnswersData: []models.AnswerEntry{entry}}, s.limits); err != nil {
		return nil, err
	}

	next, err := s.resolver.AnswerQuestion(session, session.CurrentID, answer, *survey)
	if err != nil {
		return nil, err
	}

	if next != nil {
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return &RespondentStep{Session: session, Question: next}, nil
	}

	receipt, err := s.responses.SubmitAnswers(ctx, survey.ID, viewer, submissionOf(*survey, session.Answers))
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		slog.Warn("could not clear respondent session", slog.String("session_id", session.ID), slog.Any("error", err))
	}
	return &RespondentStep{Session: session, Receipt: receipt}, nil
}

func (s *respondentServiceImpl) stepSurvey(ctx context.Context, surveyID string) (*models.Survey, error) {
	survey, err := s.repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.OneQuestionPerStep {
		return nil, fault.NewClientError("survey is not shown one question per step", fault.ErrInvalidSurvey)
	}
	return survey, nil
}

func (s *respondentServiceImpl) load(ctx context.Context, sessionID string) (*SurveySession, error) {
	data, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var session SurveySession
	if err := json.Unmarshal(data, &session); err != nil {
		slog.Warn("discarding unreadable respondent session", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, fault.ErrNotFound
	}
	return &session, nil
}

func (s *respondentServiceImpl) save(ctx context.Context, session *SurveySession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.sessions.Put(ctx, session.ID, data); err != nil {
		return fmt.Errorf("save respondent session: %w", err)
	}
	return nil
}

// submissionOf lists the answers in question order. Structural questions
// and questions skipped by a logic path are left out.
func submissionOf(survey models.Survey, answers map[string]string) models.AnswerSubmission {
	sub := models.AnswerSubmission{AnswersData: []models.AnswerEntry{}}
	for _, q := range survey.Questions {
		if q.Type.IsStructural() {
			continue
		}
		if answer, ok := answers[q.ID]; ok {
			sub.AnswersData = append(sub.AnswersData, models.AnswerEntry{QuestionID: q.ID, Answer: &answer})
		}
	}
	return sub
}
