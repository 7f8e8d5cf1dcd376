package services

import (
	"context"
	"slices"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// Satisfaction summarises the answers to a RATE question.
type Satisfaction struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
	Score      int `json:"score"`
}

// QuestionResult holds every answer provided to one question.
type QuestionResult struct {
	QuestionID   string              `json:"questionId"`
	Title        string              `json:"title"`
	Type         models.QuestionType `json:"type"`
	Options      []string            `json:"options"`
	Answers      []string            `json:"answers"`
	Satisfaction *Satisfaction       `json:"satisfaction,omitempty"`
}

type SurveyResults struct {
	models.SurveyWithAnswers
	Questions []QuestionResult `json:"results"`
}

type ResultsService interface {
	GetResults(ctx context.Context, surveyID string, viewer Viewer) (*SurveyResults, error)
}

type resultsServiceImpl struct {
	repo SurveyRepository
}

func NewResultsService(repo SurveyRepository) ResultsService {
	return &resultsServiceImpl{repo: repo}
}

// GetResults returns the answers the viewer may see. The creator sees all of
// them; a member of an associated company sees the answers given for that
// company while the survey is active.
func (s *resultsServiceImpl) GetResults(ctx context.Context, surveyID string, viewer Viewer) (*SurveyResults, error) {
	survey, err := s.repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	answers, err := s.repo.ListAnswers(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	switch {
	case viewer.UserID != "" && viewer.UserID == survey.UserID:
	case viewer.CompanyID != "" && survey.IsActive && slices.Contains(survey.AssociatedCompanies, viewer.CompanyID):
		name := viewer.CompanyName
		if name == "" {
			company, err := s.repo.GetCompany(ctx, viewer.CompanyID)
			if err != nil {
				return nil, err
			}
			name = company.Name
		}
		answers = answersForCompany(*survey, answers, name)
	default:
		return nil, fault.ErrForbidden
	}

	return &SurveyResults{
		SurveyWithAnswers: models.SurveyWithAnswers{Survey: *survey, Answers: answers},
		Questions:         MapAnswers(survey.Questions, answers),
	}, nil
}

// MapAnswers groups the provided answers by question. Structural questions
// are left out.
func MapAnswers(questions []models.Question, answers []models.Answer) []QuestionResult {
	results := make([]QuestionResult, 0, len(questions))
	for _, q := range questions {
		if q.Type.IsStructural() {
			continue
		}

		r := QuestionResult{
			QuestionID: q.ID,
			Title:      q.Title,
			Type:       q.Type,
			Options:    q.Options,
			Answers:    []string{},
		}
		if r.Options == nil {
			r.Options = []string{}
		}
		for _, a := range answers {
			if v, ok := a.Value(q.ID); ok {
				r.Answers = append(r.Answers, v)
			}
		}
		if q.Type == models.Rate {
			r.Satisfaction = RateSatisfaction(r.Answers)
		}
		results = append(results, r)
	}
	return results
}

// RateSatisfaction summarises the answers of a RATE question.
func RateSatisfaction(ratings []string) *Satisfaction {
	var nps NPS
	for _, raw := range ratings {
		nps.Add(raw)
	}

	// the buckets never exceed the total
	score, _ := nps.CalculateNPS()
	return &Satisfaction{
		Promoters:  nps.Promoters,
		Passives:   nps.Passives,
		Detractors: nps.Detractors,
		Score:      score,
	}
}

// answersForCompany keeps the answers that picked the viewer's company.
// Without a company question nothing can be attributed, so nothing is shown.
func answersForCompany(survey models.Survey, answers []models.Answer, companyName string) []models.Answer {
	companyQuestion := ""
	for _, q := range survey.Questions {
		if q.Type == models.Company {
			companyQuestion = q.ID
			break
		}
	}

	filtered := []models.Answer{}
	if companyQuestion == "" {
		return filtered
	}
	for _, a := range answers {
		if v, ok := a.Value(companyQuestion); ok && v == companyName {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
