package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/services"
	"github.com/paulexconde/surveyengine/internal/transport/rest/middleware"
)

// DraftHandler exposes the authoring actions of a draft session.
type DraftHandler struct {
	drafts *services.DraftRegistry
}

func NewDraftHandler(drafts *services.DraftRegistry) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

type draftResponse struct {
	SessionID string              `json:"sessionId"`
	State     services.DraftState `json:"state"`
}

// draft resolves the session of the request, writing the error response
// when it does not exist.
func (h *DraftHandler) draft(w http.ResponseWriter, r *http.Request) (*services.DraftManager, bool) {
	d, err := h.drafts.Get(middleware.GetUserID(r.Context()), mux.Vars(r)["sessionId"])
	if err != nil {
		writeFault(w, r, err)
		return nil, false
	}
	return d, true
}

// apply runs a mutation and answers with the resulting state.
func (h *DraftHandler) apply(w http.ResponseWriter, r *http.Request, fn func(d *services.DraftManager) error) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	if err := fn(d); err != nil {
		writeFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{SessionID: mux.Vars(r)["sessionId"], State: d.State()})
}

// Open handles POST /v1/drafts
func (h *DraftHandler) Open(w http.ResponseWriter, r *http.Request) {
	sessionID, d, err := h.drafts.Open(middleware.GetUserID(r.Context()), r.URL.Query().Get("session"))
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, draftResponse{SessionID: sessionID, State: d.State()})
}

// OpenEdit handles POST /v1/surveys/{surveyId}/draft
func (h *DraftHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	sessionID, d, err := h.drafts.OpenEdit(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, draftResponse{SessionID: sessionID, State: d.State()})
}

// Get handles GET /v1/drafts/{sessionId}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(*services.DraftManager) error { return nil })
}

// Close handles DELETE /v1/drafts/{sessionId}
func (h *DraftHandler) Close(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.draft(w, r); !ok {
		return
	}
	h.drafts.Close(mux.Vars(r)["sessionId"])
	w.WriteHeader(http.StatusNoContent)
}

// Recover handles POST /v1/drafts/{sessionId}/recover
func (h *DraftHandler) Recover(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	recovered, err := d.RecoverDraft(r.Context())
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recovered": recovered, "state": d.State()})
}

// SetTitle handles PUT /v1/drafts/{sessionId}/title
func (h *DraftHandler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		d.SetTitle(req.Title)
		return nil
	})
}

// Template handles PUT /v1/drafts/{sessionId}/template
func (h *DraftHandler) Template(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string            `json:"title"`
		Questions []models.Question `json:"questions"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		d.SelectTemplate(req.Title, req.Questions)
		return nil
	})
}

// AddQuestion handles POST /v1/drafts/{sessionId}/questions
func (h *DraftHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type models.QuestionType `json:"type"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		_, err := d.AddQuestionOfType(req.Type)
		return err
	})
}

type questionPatchRequest struct {
	Title             *string              `json:"title"`
	Type              *models.QuestionType `json:"type"`
	IsRequired        *bool                `json:"isRequired"`
	Options           []string             `json:"options"`
	SelectedCompanies []string             `json:"selectedCompanies"`
	Description       *string              `json:"description"`
	LogicPaths        []models.LogicPath   `json:"logicPaths"`
}

// UpdateQuestion handles PATCH /v1/drafts/{sessionId}/questions/{index}
func (h *DraftHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	var req questionPatchRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.UpdateQuestionData(index, services.QuestionPatch{
			Title:             req.Title,
			Type:              req.Type,
			IsRequired:        req.IsRequired,
			Options:           req.Options,
			SelectedCompanies: req.SelectedCompanies,
			Description:       req.Description,
			LogicPaths:        req.LogicPaths,
		})
	})
}

// RemoveQuestion handles DELETE /v1/drafts/{sessionId}/questions/{index}
func (h *DraftHandler) RemoveQuestion(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.RemoveQuestion(index)
	})
}

// MoveQuestion handles POST /v1/drafts/{sessionId}/questions/{index}/move
func (h *DraftHandler) MoveQuestion(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	var req struct {
		To int `json:"to"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.ReorderQuestion(index, req.To)
	})
}

// AddOption handles POST /v1/drafts/{sessionId}/questions/{index}/options
func (h *DraftHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	var req struct {
		Value          string `json:"value"`
		BlockDuplicate bool   `json:"blockDuplicate"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.AddOption(index, req.Value, req.BlockDuplicate)
	})
}

// AddLogicPath handles POST /v1/drafts/{sessionId}/questions/{index}/logic-paths
func (h *DraftHandler) AddLogicPath(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.AddLogicPath(index)
	})
}

// UpdateLogicPath handles PATCH /v1/drafts/{sessionId}/questions/{index}/logic-paths/{path}
func (h *DraftHandler) UpdateLogicPath(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	path, ok := indexVar(w, r, "path")
	if !ok {
		return
	}
	var req struct {
		ComparisonType *models.ComparisonType `json:"comparisonType"`
		SelectedOption *string                `json:"selectedOption"`
		NextQuestionID *string                `json:"nextQuestionId"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.UpdateLogicPath(index, path, services.LogicPathPatch{
			ComparisonType: req.ComparisonType,
			SelectedOption: req.SelectedOption,
			NextQuestionID: req.NextQuestionID,
		})
	})
}

// UpdateOption handles PUT /v1/drafts/{sessionId}/questions/{index}/options/{option}
func (h *DraftHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	option, ok := indexVar(w, r, "option")
	if !ok {
		return
	}
	var req struct {
		Value          string `json:"value"`
		BlockDuplicate bool   `json:"blockDuplicate"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.UpdateOption(index, option, req.Value, req.BlockDuplicate)
	})
}

// RemoveOption handles DELETE /v1/drafts/{sessionId}/questions/{index}/options/{option}
func (h *DraftHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	option, ok := indexVar(w, r, "option")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.RemoveOption(index, option)
	})
}

// RemoveLogicPath handles DELETE /v1/drafts/{sessionId}/questions/{index}/logic-paths/{path}
func (h *DraftHandler) RemoveLogicPath(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	path, ok := indexVar(w, r, "path")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.RemoveLogicPath(index, path)
	})
}

// ToggleRequired handles POST /v1/drafts/{sessionId}/questions/{index}/required
func (h *DraftHandler) ToggleRequired(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.ToggleQuestionRequired(index)
	})
}

// ToggleExpanded handles POST /v1/drafts/{sessionId}/questions/{index}/expanded
func (h *DraftHandler) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	index, ok := indexVar(w, r, "index")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		if r.URL.Query().Get("section") == "advanced" {
			return d.ToggleAdvancedSettings(index)
		}
		return d.ToggleExpanded(index)
	})
}

// Disclaimer handles PUT /v1/drafts/{sessionId}/disclaimer
func (h *DraftHandler) Disclaimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Show  *bool   `json:"show"`
		Title *string `json:"title"`
		Body  *string `json:"body"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		if req.Show != nil {
			d.SetShowDisclaimer(*req.Show)
		}
		if req.Title != nil {
			d.SetDisclaimerTitle(*req.Title)
		}
		if req.Body != nil {
			d.SetDisclaimerBody(*req.Body)
		}
		return nil
	})
}

// CompanyVisibility handles PUT /v1/drafts/{sessionId}/companies
func (h *DraftHandler) CompanyVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled   bool     `json:"enabled"`
		Companies []string `json:"companies"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		d.SetCompanyVisibility(req.Enabled, req.Companies)
		return nil
	})
}

// Companies handles GET /v1/drafts/{sessionId}/companies
func (h *DraftHandler) Companies(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	companies, err := d.Companies(r.Context())
	if err != nil {
		writeFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

// AddRule handles POST /v1/drafts/{sessionId}/thank-you/rules
func (h *DraftHandler) AddRule(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(d *services.DraftManager) error {
		d.AddThankYouRule()
		return nil
	})
}

// UpdateRule handles PUT /v1/drafts/{sessionId}/thank-you/rules/{rule}
func (h *DraftHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := indexVar(w, r, "rule")
	if !ok {
		return
	}
	var req models.ThankYouRule
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.UpdateThankYouRule(rule, req)
	})
}

// RemoveRule handles DELETE /v1/drafts/{sessionId}/thank-you/rules/{rule}
func (h *DraftHandler) RemoveRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := indexVar(w, r, "rule")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.RemoveThankYouRule(rule)
	})
}

// RuleMessage handles PUT /v1/drafts/{sessionId}/thank-you/rules/{rule}/message
func (h *DraftHandler) RuleMessage(w http.ResponseWriter, r *http.Request) {
	rule, ok := indexVar(w, r, "rule")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.SetThankYouMessage(rule, req.Message)
	})
}

// AddCondition handles POST /v1/drafts/{sessionId}/thank-you/rules/{rule}/conditions
func (h *DraftHandler) AddCondition(w http.ResponseWriter, r *http.Request) {
	rule, ok := indexVar(w, r, "rule")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.AddCondition(rule)
	})
}

// UpdateCondition handles PATCH /v1/drafts/{sessionId}/thank-you/rules/{rule}/conditions/{condition}
func (h *DraftHandler) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	rule, ok := indexVar(w, r, "rule")
	if !ok {
		return
	}
	condition, ok := indexVar(w, r, "condition")
	if !ok {
		return
	}
	var req struct {
		Question  *string  `json:"question"`
		Questions []string `json:"questions"`
		Operator  *string  `json:"operator"`
		Value     *string  `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.UpdateCondition(rule, condition, models.ConditionPatch{
			Question:  req.Question,
			Questions: req.Questions,
			Operator:  req.Operator,
			Value:     req.Value,
		})
	})
}

// RemoveCondition handles DELETE /v1/drafts/{sessionId}/thank-you/rules/{rule}/conditions/{condition}
func (h *DraftHandler) RemoveCondition(w http.ResponseWriter, r *http.Request) {
	rule, ok := indexVar(w, r, "rule")
	if !ok {
		return
	}
	condition, ok := indexVar(w, r, "condition")
	if !ok {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.RemoveCondition(rule, condition)
	})
}

// UpdateSurveyOption handles PATCH /v1/drafts/{sessionId}/options
func (h *DraftHandler) UpdateSurveyOption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		return d.UpdateSurveyOption(req.Name, req.Value)
	})
}

// SetThankYouLogic handles PUT /v1/drafts/{sessionId}/thank-you
func (h *DraftHandler) SetThankYouLogic(w http.ResponseWriter, r *http.Request) {
	var rules []models.ThankYouRule
	if !decode(w, r, &rules) {
		return
	}
	h.apply(w, r, func(d *services.DraftManager) error {
		d.SetThankYouLogic(rules)
		return nil
	})
}

// Validate handles POST /v1/drafts/{sessionId}/validate
func (h *DraftHandler) Validate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	report := d.Validate()
	writeJSON(w, http.StatusOK, map[string]any{"valid": report.Valid(), "report": report})
}

// Publish handles POST /v1/drafts/{sessionId}/publish
func (h *DraftHandler) Publish(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	id, err := d.Publish(r.Context())
	if err != nil {
		writeFault(w, r, err)
		return
	}

	h.drafts.Close(mux.Vars(r)["sessionId"])
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
