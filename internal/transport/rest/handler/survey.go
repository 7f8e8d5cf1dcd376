package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/services"
	"github.com/paulexconde/surveyengine/internal/transport/rest/middleware"
)

// SurveyHandler handles published survey endpoints
type SurveyHandler struct {
	catalog   services.SurveyCatalogService
	responses services.ResponseService
	results   services.ResultsService
	resolver  services.SurveyService
}

func NewSurveyHandler(catalog services.SurveyCatalogService, responses services.ResponseService, results services.ResultsService, resolver services.SurveyService) *SurveyHandler {
	return &SurveyHandler{
		catalog:   catalog,
		responses: responses,
		results:   results,
		resolver:  resolver,
	}
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEditSurveyPayload
	if !decode(w, r, &req) {
		return
	}

	id, err := h.catalog.CreateSurvey(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Update handles PUT /v1/surveys/{surveyId}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEditSurveyPayload
	if !decode(w, r, &req) {
		return
	}

	id, err := h.catalog.UpdateSurvey(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], req)
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	survey, err := h.catalog.GetSurvey(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// List handles GET /v1/surveys?page=&limit=
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ListSurveys(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Accessible handles GET /v1/surveys/accessible
func (h *SurveyHandler) Accessible(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.catalog.ListAccessible(r.Context(), middleware.GetViewer(r.Context()))
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, surveys)
}

// Delete handles DELETE /v1/surveys/{surveyId}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSurvey(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"]); err != nil {
		writeFault(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// SetActive handles PATCH /v1/surveys/{surveyId}/active
func (h *SurveyHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decode(w, r, &req) {
		return
	}

	surveyID := mux.Vars(r)["surveyId"]
	if err := h.catalog.SetActive(r.Context(), middleware.GetUserID(r.Context()), surveyID, req.IsActive); err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": surveyID, "isActive": req.IsActive})
}

// Layout handles GET /v1/surveys/{surveyId}/layout
func (h *SurveyHandler) Layout(w http.ResponseWriter, r *http.Request) {
	survey, err := h.catalog.GetSurvey(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	layout := services.Partition(survey.Questions, survey.SurveyOptions)
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":  layout.Mode.String(),
		"pages": layout.Pages,
	})
}

type nextRequest struct {
	Current int               `json:"current"`
	Answers map[string]string `json:"answers"`
}

type nextResponse struct {
	Finished bool             `json:"finished"`
	Index    int              `json:"index"`
	Question *models.Question `json:"question,omitempty"`
}

// Next handles POST /v1/surveys/{surveyId}/next
func (h *SurveyHandler) Next(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if !decode(w, r, &req) {
		return
	}

	survey, err := h.catalog.GetSurvey(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	next, finished := h.resolver.NextQuestionIndex(survey.Questions, req.Current, req.Answers)
	if finished {
		writeJSON(w, http.StatusOK, nextResponse{Finished: true})
		return
	}

	q := survey.Questions[next]
	writeJSON(w, http.StatusOK, nextResponse{Index: next, Question: &q})
}

// ThankYou handles POST /v1/surveys/{surveyId}/thank-you
func (h *SurveyHandler) ThankYou(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if !decode(w, r, &req) {
		return
	}

	survey, err := h.catalog.GetSurvey(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{
		"messages": services.EvaluateRules(survey.ThankYouLogic, services.Answers(req.Answers)),
	})
}

// SubmitAnswers handles POST /v1/surveys/{surveyId}/answers
func (h *SurveyHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerSubmission
	if !decode(w, r, &req) {
		return
	}

	receipt, err := h.responses.SubmitAnswers(r.Context(), mux.Vars(r)["surveyId"], middleware.GetViewer(r.Context()), req)
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// Results handles GET /v1/surveys/{surveyId}/answers
func (h *SurveyHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.GetResults(r.Context(), mux.Vars(r)["surveyId"], middleware.GetViewer(r.Context()))
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// Companies handles GET /v1/companies
func (h *SurveyHandler) Companies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.catalog.ListCompanies(r.Context())
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, companies)
}

// CreateCompany handles POST /v1/companies
func (h *SurveyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	company, err := h.catalog.CreateCompany(r.Context(), req.Name)
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, company)
}
