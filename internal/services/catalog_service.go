package services

import (
	"context"
	"log/slog"
	"slices"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/paginator"
	"github.com/paulexconde/surveyengine/internal/pkg/store"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// SurveyRepository is the storage the published surveys live in.
type SurveyRepository interface {
	SurveyGateway
	SetActive(ctx context.Context, ownerID, surveyID string, active bool) error
	DeleteSurvey(ctx context.Context, ownerID, surveyID string) error
	Summaries() store.Datastorer[models.SurveySummary]
	ListAccessible(ctx context.Context, userID, companyID string) ([]models.SurveySummary, error)
	GetCompany(ctx context.Context, id string) (*models.Organization, error)
	CreateCompany(ctx context.Context, name string) (*models.Organization, error)
	CreateAnswer(ctx context.Context, surveyID, userID, companyID string, sub models.AnswerSubmission) (*models.Answer, error)
	ListAnswers(ctx context.Context, surveyID string) ([]models.Answer, error)
}

// SurveyCatalogService is the persistence boundary with validation in front
// of it. Drafts publish through it.
type SurveyCatalogService interface {
	SurveyGateway
	ListSurveys(ctx context.Context, ownerID string, page, limit int) (*paginator.PaginatedResponse[models.SurveySummary], error)
	// ListAccessible returns the active surveys the viewer owns or whose
	// associated companies include the viewer's company, newest first.
	ListAccessible(ctx context.Context, viewer Viewer) ([]models.SurveySummary, error)
	SetActive(ctx context.Context, ownerID, surveyID string, active bool) error
	DeleteSurvey(ctx context.Context, ownerID, surveyID string) error
	CreateCompany(ctx context.Context, name string) (*models.Organization, error)
}

type surveyCatalogServiceImpl struct {
	repo   SurveyRepository
	limits Limits
}

func NewSurveyCatalogService(repo SurveyRepository, limits Limits) SurveyCatalogService {
	return &surveyCatalogServiceImpl{repo: repo, limits: limits}
}

func (s *surveyCatalogServiceImpl) CreateSurvey(ctx context.Context, ownerID string, payload models.CreateEditSurveyPayload) (string, error) {
	if err := ValidatePayload(payload, s.limits); err != nil {
		return "", err
	}

	if len(payload.AssociatedCompanies) == 0 {
		payload.AssociatedCompanies = companiesOf(payload)
	}

	return s.repo.CreateSurvey(ctx, ownerID, payload)
}

func (s *surveyCatalogServiceImpl) UpdateSurvey(ctx context.Context, ownerID, surveyID string, payload models.CreateEditSurveyPayload) (string, error) {
	if err := ValidatePayload(payload, s.limits); err != nil {
		return "", err
	}

	id, err := s.repo.UpdateSurvey(ctx, ownerID, surveyID, payload)
	if err != nil {
		slog.Error("update survey failed", slog.String("survey_id", surveyID), slog.Any("error", err))
		return "", err
	}
	return id, nil
}

func (s *surveyCatalogServiceImpl) GetSurvey(ctx context.Context, surveyID string) (*models.Survey, error) {
	return s.repo.GetSurvey(ctx, surveyID)
}

func (s *surveyCatalogServiceImpl) ListCompanies(ctx context.Context) ([]models.Organization, error) {
	return s.repo.ListCompanies(ctx)
}

func (s *surveyCatalogServiceImpl) CreateCompany(ctx context.Context, name string) (*models.Organization, error) {
	if name == "" {
		return nil, fault.NewClientError("company name is required", nil)
	}
	return s.repo.CreateCompany(ctx, name)
}

func (s *surveyCatalogServiceImpl) ListSurveys(ctx context.Context, ownerID string, page, limit int) (*paginator.PaginatedResponse[models.SurveySummary], error) {
	return paginator.NewPaginator(s.repo.Summaries()).
		PaginateQuery(ctx, store.SurveyListQuery, []any{ownerID}, page, limit)
}

func (s *surveyCatalogServiceImpl) ListAccessible(ctx context.Context, viewer Viewer) ([]models.SurveySummary, error) {
	if viewer.UserID == "" && viewer.CompanyID == "" {
		return nil, fault.ErrForbidden
	}
	return s.repo.ListAccessible(ctx, viewer.UserID, viewer.CompanyID)
}

func (s *surveyCatalogServiceImpl) SetActive(ctx context.Context, ownerID, surveyID string, active bool) error {
	return s.repo.SetActive(ctx, ownerID, surveyID, active)
}

func (s *surveyCatalogServiceImpl) DeleteSurvey(ctx context.Context, ownerID, surveyID string) error {
	return s.repo.DeleteSurvey(ctx, ownerID, surveyID)
}

// companiesOf returns the companies selected on the company question.
func companiesOf(p models.CreateEditSurveyPayload) []string {
	for _, q := range p.Questions {
		if q.Type == models.Company {
			return slices.Clone(q.SelectedCompanies)
		}
	}
	return nil
}
