package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paulexconde/surveyengine/internal/services"
	"github.com/paulexconde/surveyengine/internal/transport/rest/handler"
	"github.com/paulexconde/surveyengine/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	Catalog     services.SurveyCatalogService
	Responses   services.ResponseService
	Results     services.ResultsService
	Resolver    services.SurveyService
	Respondents services.RespondentService
	Drafts      *services.DraftRegistry
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging, middleware.Identify)

	surveyHandler := handler.NewSurveyHandler(c.Catalog, c.Responses, c.Results, c.Resolver)
	draftHandler := handler.NewDraftHandler(c.Drafts)
	respondentHandler := handler.NewRespondentHandler(c.Respondents)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Respondent routes
	v1.HandleFunc("/surveys/accessible", surveyHandler.Accessible).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/layout", surveyHandler.Layout).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/next", surveyHandler.Next).Methods("POST")
	v1.HandleFunc("/surveys/{surveyId}/thank-you", surveyHandler.ThankYou).Methods("POST")
	v1.HandleFunc("/surveys/{surveyId}/answers", surveyHandler.SubmitAnswers).Methods("POST")
	v1.HandleFunc("/surveys/{surveyId}/answers", surveyHandler.Results).Methods("GET")
	v1.HandleFunc("/companies", surveyHandler.Companies).Methods("GET")
	v1.HandleFunc("/surveys/{surveyId}/sessions", respondentHandler.Start).Methods("POST")
	v1.HandleFunc("/sessions/{sessionId}", respondentHandler.Resume).Methods("GET")
	v1.HandleFunc("/sessions/{sessionId}/answer", respondentHandler.Answer).Methods("POST")

	// Creator routes
	creator := v1.NewRoute().Subrouter()
	creator.Use(middleware.RequireUser)

	creator.HandleFunc("/companies", surveyHandler.CreateCompany).Methods("POST")
	creator.HandleFunc("/surveys", surveyHandler.List).Methods("GET")
	creator.HandleFunc("/surveys", surveyHandler.Create).Methods("POST")
	creator.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT")
	creator.HandleFunc("/surveys/{surveyId}", surveyHandler.Delete).Methods("DELETE")
	creator.HandleFunc("/surveys/{surveyId}/active", surveyHandler.SetActive).Methods("PATCH")
	creator.HandleFunc("/surveys/{surveyId}/draft", draftHandler.OpenEdit).Methods("POST")

	creator.HandleFunc("/drafts", draftHandler.Open).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}", draftHandler.Get).Methods("GET")
	creator.HandleFunc("/drafts/{sessionId}", draftHandler.Close).Methods("DELETE")
	creator.HandleFunc("/drafts/{sessionId}/recover", draftHandler.Recover).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/title", draftHandler.SetTitle).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/template", draftHandler.Template).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/options", draftHandler.UpdateSurveyOption).Methods("PATCH")
	creator.HandleFunc("/drafts/{sessionId}/disclaimer", draftHandler.Disclaimer).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/companies", draftHandler.Companies).Methods("GET")
	creator.HandleFunc("/drafts/{sessionId}/companies", draftHandler.CompanyVisibility).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/thank-you", draftHandler.SetThankYouLogic).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules", draftHandler.AddRule).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules/{rule}", draftHandler.UpdateRule).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules/{rule}", draftHandler.RemoveRule).Methods("DELETE")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules/{rule}/message", draftHandler.RuleMessage).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules/{rule}/conditions", draftHandler.AddCondition).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules/{rule}/conditions/{condition}", draftHandler.UpdateCondition).Methods("PATCH")
	creator.HandleFunc("/drafts/{sessionId}/thank-you/rules/{rule}/conditions/{condition}", draftHandler.RemoveCondition).Methods("DELETE")
	creator.HandleFunc("/drafts/{sessionId}/questions", draftHandler.AddQuestion).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}", draftHandler.UpdateQuestion).Methods("PATCH")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}", draftHandler.RemoveQuestion).Methods("DELETE")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/move", draftHandler.MoveQuestion).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/required", draftHandler.ToggleRequired).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/expanded", draftHandler.ToggleExpanded).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/options", draftHandler.AddOption).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/options/{option}", draftHandler.UpdateOption).Methods("PUT")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/options/{option}", draftHandler.RemoveOption).Methods("DELETE")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/logic-paths", draftHandler.AddLogicPath).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/logic-paths/{path}", draftHandler.UpdateLogicPath).Methods("PATCH")
	creator.HandleFunc("/drafts/{sessionId}/questions/{index}/logic-paths/{path}", draftHandler.RemoveLogicPath).Methods("DELETE")
	creator.HandleFunc("/drafts/{sessionId}/validate", draftHandler.Validate).Methods("POST")
	creator.HandleFunc("/drafts/{sessionId}/publish", draftHandler.Publish).Methods("POST")

	return r
}
