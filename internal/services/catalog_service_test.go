package services

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/store"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

type fakeRepo struct {
	*fakeGateway
	answers   map[string][]models.Answer
	companies map[string]models.Organization
	active    map[string]bool
	deleted   []string
	summaries []models.SurveySummary
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		fakeGateway: newFakeGateway(),
		answers:     map[string][]models.Answer{},
		companies:   map[string]models.Organization{"c1": {ID: "c1", Name: "Acme"}},
		active:      map[string]bool{},
	}
}

func (r *fakeRepo) SetActive(_ context.Context, _ string, id string, active bool) error {
	if _, ok := r.surveys[id]; !ok {
		return fault.ErrNotFound
	}
	r.active[id] = active
	return nil
}

func (r *fakeRepo) DeleteSurvey(_ context.Context, _ string, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) Summaries() store.Datastorer[models.SurveySummary] {
	return &fakeSummaries{items: r.summaries}
}

func (r *fakeRepo) ListAccessible(_ context.Context, userID, companyID string) ([]models.SurveySummary, error) {
	items := []models.SurveySummary{}
	for _, s := range r.surveys {
		if !s.IsActive {
			continue
		}
		if (userID != "" && s.UserID == userID) || (companyID != "" && slices.Contains(s.AssociatedCompanies, companyID)) {
			items = append(items, models.SurveySummary{ID: s.ID, Title: s.Title, IsActive: true, CreatedAt: s.CreatedAt})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *fakeRepo) GetCompany(_ context.Context, id string) (*models.Organization, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, fault.ErrNotFound
	}
	return &c, nil
}

func (r *fakeRepo) CreateCompany(_ context.Context, name string) (*models.Organization, error) {
	c := models.Organization{ID: "c-" + name, Name: name}
	r.companies[c.ID] = c
	return &c, nil
}

func (r *fakeRepo) CreateAnswer(_ context.Context, surveyID, userID, companyID string, sub models.AnswerSubmission) (*models.Answer, error) {
	a := models.Answer{ID: "a1", SurveyID: surveyID, UserID: userID, CompanyID: companyID, AnswerData: sub.AnswersData}
	r.answers[surveyID] = append(r.answers[surveyID], a)
	return &a, nil
}

func (r *fakeRepo) ListAnswers(_ context.Context, surveyID string) ([]models.Answer, error) {
	return r.answers[surveyID], nil
}

type fakeSummaries struct {
	items []models.SurveySummary
}

func (f *fakeSummaries) QueryRow(context.Context, string, ...any) (any, error) {
	return int64(len(f.items)), nil
}

func (f *fakeSummaries) Get(context.Context, string, ...any) (*models.SurveySummary, error) {
	return nil, fault.ErrNotFound
}

func (f *fakeSummaries) Select(context.Context, string, ...any) ([]models.SurveySummary, error) {
	return f.items, nil
}

func (f *fakeSummaries) Base() *sqlx.DB { return nil }

func validPayload() models.CreateEditSurveyPayload {
	return models.CreateEditSurveyPayload{
		Title: "Feedback",
		Questions: []models.QuestionPayload{
			{Title: "Company", Type: models.Company, SelectedCompanies: []string{"c1", "c2"}},
			{Title: "Happy?", Type: models.Choice, Options: []string{"Yes", "No"}},
		},
	}
}

func TestCatalog_CreateSurvey(t *testing.T) {
	tests := []struct {
		name      string
		payload   func() models.CreateEditSurveyPayload
		wantErr   error
		companies []string
	}{
		{
			name:      "derives associated companies",
			payload:   validPayload,
			companies: []string{"c1", "c2"},
		},
		{
			name: "keeps explicit associated companies",
			payload: func() models.CreateEditSurveyPayload {
				p := validPayload()
				p.AssociatedCompanies = []string{"c9"}
				return p
			},
			companies: []string{"c9"},
		},
		{
			name: "rejects blank title",
			payload: func() models.CreateEditSurveyPayload {
				p := validPayload()
				p.Title = "  "
				return p
			},
			wantErr: fault.ErrInvalidSurvey,
		},
		{
			name: "rejects second company question",
			payload: func() models.CreateEditSurveyPayload {
				p := validPayload()
				p.Questions = append(p.Questions, models.QuestionPayload{Title: "Again", Type: models.Company})
				return p
			},
			wantErr: fault.ErrDuplicateCompanyQuestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := NewSurveyCatalogService(repo, DefaultLimits())

			id, err := svc.CreateSurvey(context.Background(), "user-1", tt.payload())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !fault.IsClientError(err) {
					t.Fatalf("expected client error wrapping %v, got %v", tt.wantErr, err)
				}
				if len(repo.created) != 0 {
					t.Error("invalid payload must not reach the repository")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != "survey-1" {
				t.Errorf("unexpected id %s", id)
			}
			got := repo.created[0].AssociatedCompanies
			if strings.Join(got, ",") != strings.Join(tt.companies, ",") {
				t.Errorf("expected companies %v, got %v", tt.companies, got)
			}
		})
	}
}

func TestCatalog_UpdateValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewSurveyCatalogService(repo, DefaultLimits())

	p := validPayload()
	p.Questions = nil
	if _, err := svc.UpdateSurvey(context.Background(), "user-1", "s1", p); !errors.Is(err, fault.ErrInvalidSurvey) {
		t.Errorf("expected ErrInvalidSurvey, got %v", err)
	}

	if _, err := svc.UpdateSurvey(context.Background(), "user-1", "s1", validPayload()); err != nil {
		t.Fatalf("UpdateSurvey failed: %v", err)
	}
	if _, ok := repo.updated["s1"]; !ok {
		t.Error("expected update to reach the repository")
	}
}

func TestCatalog_ListSurveys(t *testing.T) {
	repo := newFakeRepo()
	repo.summaries = []models.SurveySummary{{ID: "s1", Title: "One"}, {ID: "s2", Title: "Two"}}
	svc := NewSurveyCatalogService(repo, DefaultLimits())

	res, err := svc.ListSurveys(context.Background(), "user-1", 1, 10)
	if err != nil {
		t.Fatalf("ListSurveys failed: %v", err)
	}
	if res.TotalItems != 2 || res.TotalPages != 1 || len(res.Items) != 2 {
		t.Errorf("unexpected page %+v", res)
	}
}

func TestCatalog_SetActiveAndDelete(t *testing.T) {
	repo := newFakeRepo()
	repo.surveys["s1"] = &models.Survey{ID: "s1"}
	svc := NewSurveyCatalogService(repo, DefaultLimits())
	ctx := context.Background()

	if err := svc.SetActive(ctx, "user-1", "s1", false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if repo.active["s1"] {
		t.Error("expected survey to be inactive")
	}
	if err := svc.SetActive(ctx, "user-1", "missing", true); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := svc.DeleteSurvey(ctx, "user-1", "s1"); err != nil {
		t.Fatalf("DeleteSurvey failed: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Error("expected delete to reach the repository")
	}
}

func TestCatalog_CreateCompany(t *testing.T) {
	svc := NewSurveyCatalogService(newFakeRepo(), DefaultLimits())

	if _, err := svc.CreateCompany(context.Background(), ""); !fault.IsClientError(err) {
		t.Errorf("expected client error, got %v", err)
	}
	c, err := svc.CreateCompany(context.Background(), "Initech")
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	if c.Name != "Initech" {
		t.Errorf("unexpected company %+v", c)
	}
}

func TestListAccessible(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.surveys["own"] = &models.Survey{ID: "own", UserID: "u1", IsActive: true, AssociatedCompanies: []string{"c1"}, CreatedAt: base}
	repo.surveys["shared"] = &models.Survey{ID: "shared", UserID: "u2", IsActive: true, AssociatedCompanies: []string{"c1"}, CreatedAt: base.Add(time.Hour)}
	repo.surveys["closed"] = &models.Survey{ID: "closed", UserID: "u1", IsActive: false, CreatedAt: base.Add(2 * time.Hour)}
	repo.surveys["other"] = &models.Survey{ID: "other", UserID: "u3", IsActive: true, AssociatedCompanies: []string{"c2"}, CreatedAt: base.Add(3 * time.Hour)}
	svc := NewSurveyCatalogService(repo, DefaultLimits())

	tests := []struct {
		name    string
		viewer  Viewer
		want    []string
		wantErr error
	}{
		{name: "owner and company", viewer: Viewer{UserID: "u1", CompanyID: "c1"}, want: []string{"shared", "own"}},
		{name: "owner only", viewer: Viewer{UserID: "u1"}, want: []string{"own"}},
		{name: "company only", viewer: Viewer{CompanyID: "c2"}, want: []string{"other"}},
		{name: "anonymous", viewer: Viewer{}, wantErr: fault.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListAccessible(context.Background(), tt.viewer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			ids := []string{}
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}
