package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paulexconde/surveyengine/internal/services"
	"github.com/paulexconde/surveyengine/internal/transport/rest/middleware"
)

// RespondentHandler serves one-question-per-step answering sessions.
type RespondentHandler struct {
	respondents services.RespondentService
}

func NewRespondentHandler(respondents services.RespondentService) *RespondentHandler {
	return &RespondentHandler{respondents: respondents}
}

// Start handles POST /v1/surveys/{surveyId}/sessions
func (h *RespondentHandler) Start(w http.ResponseWriter, r *http.Request) {
	step, err := h.respondents.Start(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, step)
}

// Resume handles GET /v1/sessions/{sessionId}
func (h *RespondentHandler) Resume(w http.ResponseWriter, r *http.Request) {
	step, err := h.respondents.Resume(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, step)
}

// Answer handles POST /v1/sessions/{sessionId}/answer
func (h *RespondentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if !decode(w, r, &req) {
		return
	}

	step, err := h.respondents.Answer(r.Context(), mux.Vars(r)["sessionId"], req.Answer, middleware.GetViewer(r.Context()))
	if err != nil {
		writeFault(w, r, err)
		return
	}

	status := http.StatusOK
	if step.Receipt != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, step)
}
