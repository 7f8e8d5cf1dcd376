package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/workerpool"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// DefaultSurveyTitle is the title of a freshly created draft.
const DefaultSurveyTitle = "My survey"

// TitleRequired is the draft error shown when the survey title is blank.
const TitleRequired = "Title is required"

var ErrOutOfRange = errors.New("index out of range")

// ScratchStore keeps the autosaved draft of an authoring session.
// Get returns fault.ErrNotFound when nothing is stored under key.
type ScratchStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// SurveyGateway is the persistence boundary a draft publishes to.
type SurveyGateway interface {
	CreateSurvey(ctx context.Context, ownerID string, payload models.CreateEditSurveyPayload) (string, error)
	UpdateSurvey(ctx context.Context, ownerID, surveyID string, payload models.CreateEditSurveyPayload) (string, error)
	GetSurvey(ctx context.Context, surveyID string) (*models.Survey, error)
	ListCompanies(ctx context.Context) ([]models.Organization, error)
}

type JobSubmitter interface {
	Submit(job workerpool.Job) bool
}

type DraftConfig struct {
	SessionID string
	OwnerID   string
	Scratch   ScratchStore
	Gateway   SurveyGateway
	// Optional. When set the scratch store is cleared in the background
	// after a publish.
	Jobs        JobSubmitter
	SaveTimeout time.Duration
	// Drafts idle for longer are dropped by the registry. Zero keeps them.
	IdleTTL time.Duration
}

// DraftSnapshot is what gets autosaved and recovered.
type DraftSnapshot struct {
	Title         string               `json:"title"`
	Questions     []models.Question    `json:"questions"`
	SurveyOptions models.SurveyOptions `json:"surveyOptions"`
}

// DraftState is the read model of a draft.
type DraftState struct {
	SurveyID            string                `json:"surveyId,omitempty"`
	Title               string                `json:"title"`
	Error               string                `json:"error,omitempty"`
	Questions           []models.Question     `json:"questions"`
	SurveyOptions       models.SurveyOptions  `json:"surveyOptions"`
	ShowDisclaimer      bool                  `json:"showDisclaimer"`
	DisclaimerTitle     string                `json:"disclaimerTitle"`
	DisclaimerBody      string                `json:"disclaimerBody"`
	ThankYouLogic       []models.ThankYouRule `json:"thankYouLogic"`
	AssociatedCompanies []string              `json:"associatedCompanies"`
	EditMode            bool                  `json:"editMode"`
	Submitted           bool                  `json:"submitted"`
	// Ids of the questions the editor should expand, in question order.
	Expanded                 []string `json:"expanded"`
	AdvancedSettingsExpanded []string `json:"advancedSettingsExpanded"`
}

// ValidationReport lists what blocks a draft from being published.
type ValidationReport struct {
	TitleMissing             bool     `json:"titleMissing"`
	UntitledQuestions        []string `json:"untitledQuestions"`
	Expanded                 []string `json:"expanded"`
	AdvancedSettingsExpanded []string `json:"advancedSettingsExpanded"`
}

func (r ValidationReport) Valid() bool {
	return !r.TitleMissing &&
		len(r.UntitledQuestions) == 0 &&
		len(r.Expanded) == 0 &&
		len(r.AdvancedSettingsExpanded) == 0
}

// QuestionPatch holds the question fields to overwrite. Nil fields are kept.
type QuestionPatch struct {
	Title             *string
	Type              *models.QuestionType
	IsRequired        *bool
	Options           []string
	SelectedCompanies []string
	Description       *string
	LogicPaths        []models.LogicPath
}

type LogicPathPatch struct {
	ComparisonType *models.ComparisonType
	SelectedOption *string
	NextQuestionID *string
}

// DraftManager owns a survey while it is being authored. Every method is a
// complete state transition; concurrent calls are serialised.
type DraftManager struct {
	mu  sync.Mutex
	cfg DraftConfig

	surveyID string
	editMode bool

	title               string
	err                 string
	questions           []models.Question
	options             models.SurveyOptions
	showDisclaimer      bool
	disclaimerTitle     string
	disclaimerBody      string
	thankYou            []models.ThankYouRule
	associatedCompanies []string
	submitted           bool

	expanded map[string]bool
	advanced map[string]bool
}

// NewDraftManager starts an empty draft in create mode.
func NewDraftManager(cfg DraftConfig) *DraftManager {
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 2 * time.Second
	}
	return &DraftManager{
		cfg:                 cfg,
		title:               DefaultSurveyTitle,
		questions:           []models.Question{},
		options:             models.DefaultSurveyOptions(),
		thankYou:            []models.ThankYouRule{},
		associatedCompanies: []string{},
		expanded:            map[string]bool{},
		advanced:            map[string]bool{},
	}
}

// NewEditDraftManager starts a draft from a persisted survey. Autosave is
// off in edit mode.
func NewEditDraftManager(cfg DraftConfig, survey models.Survey) *DraftManager {
	d := NewDraftManager(cfg)
	d.editMode = true
	d.surveyID = survey.ID
	d.title = survey.Title
	d.options = survey.SurveyOptions
	d.showDisclaimer = survey.ShowDisclaimer
	d.disclaimerTitle = survey.DisclaimerTitle
	d.disclaimerBody = survey.DisclaimerBody

	if survey.ThankYouLogic != nil {
		d.thankYou = slices.Clone(survey.ThankYouLogic)
	}
	if survey.AssociatedCompanies != nil {
		d.associatedCompanies = slices.Clone(survey.AssociatedCompanies)
	}

	d.questions = make([]models.Question, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		d.questions = append(d.questions, editableQuestion(q))
	}
	return d
}

// OpenDraftForEdit loads the survey through the gateway and starts an edit
// mode draft for it.
func OpenDraftForEdit(ctx context.Context, cfg DraftConfig, surveyID string) (*DraftManager, error) {
	survey, err := cfg.Gateway.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.UserID != cfg.OwnerID {
		return nil, fault.ErrNotFound
	}
	return NewEditDraftManager(cfg, *survey), nil
}

func editableQuestion(q models.Question) models.Question {
	e := q.Clone()
	if !e.Type.IsValid() {
		e.Type = models.Input
	}
	if e.LogicPaths == nil {
		e.LogicPaths = []models.LogicPath{}
	}
	return e
}

func (d *DraftManager) State() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()

	questions := make([]models.Question, len(d.questions))
	for i, q := range d.questions {
		questions[i] = q.Clone()
	}

	return DraftState{
		SurveyID:                 d.surveyID,
		Title:                    d.title,
		Error:                    d.err,
		Questions:                questions,
		SurveyOptions:            d.options,
		ShowDisclaimer:           d.showDisclaimer,
		DisclaimerTitle:          d.disclaimerTitle,
		DisclaimerBody:           d.disclaimerBody,
		ThankYouLogic:            cloneRules(d.thankYou),
		AssociatedCompanies:      slices.Clone(d.associatedCompanies),
		EditMode:                 d.editMode,
		Submitted:                d.submitted,
		Expanded:                 d.flagged(d.expanded),
		AdvancedSettingsExpanded: d.flagged(d.advanced),
	}
}

// Questions

func (d *DraftManager) SetTitle(title string) {
	_ = d.mutate(func() error {
		d.err = ""
		d.title = title
		return nil
	})
}

// AddQuestion appends q. A second company question is rejected without
// touching the draft.
func (d *DraftManager) AddQuestion(q models.Question) error {
	return d.mutate(func() error {
		if q.Type == models.Company && models.CountType(d.questions, models.Company) > 0 {
			return fault.NewClientError("Only one Company question is allowed per survey", fault.ErrDuplicateCompanyQuestion)
		}
		d.questions = append(d.questions, editableQuestion(q))
		d.submitted = false
		d.err = ""
		return nil
	})
}

// AddQuestionOfType appends a question with the defaults of its type.
func (d *DraftManager) AddQuestionOfType(t models.QuestionType) (models.Question, error) {
	if !t.IsValid() {
		return models.Question{}, fault.NewClientError(fmt.Sprintf("unknown question type %q", t), fault.ErrInvalidSurvey)
	}
	q := models.NewQuestion(t)
	if err := d.AddQuestion(q); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// RemoveQuestion drops the question and unlinks every logic path that
// pointed at it.
func (d *DraftManager) RemoveQuestion(index int) error {
	return d.mutate(func() error {
		if index < 0 || index >= len(d.questions) {
			return outOfRange("question", index)
		}

		removed := d.questions[index].ID
		d.questions = slices.Delete(d.questions, index, index+1)

		for i := range d.questions {
			for j := range d.questions[i].LogicPaths {
				if d.questions[i].LogicPaths[j].NextQuestionID == removed {
					d.questions[i].LogicPaths[j].NextQuestionID = ""
				}
			}
		}

		delete(d.expanded, removed)
		delete(d.advanced, removed)
		return nil
	})
}

func (d *DraftManager) UpdateQuestionTitle(index int, title string) error {
	return d.updateQuestion(index, func(q *models.Question) error {
		q.Title = trimStart(title)
		return nil
	})
}

// UpdateQuestionData merges patch into the question.
func (d *DraftManager) UpdateQuestionData(index int, patch QuestionPatch) error {
	return d.updateQuestion(index, func(q *models.Question) error {
		if patch.Type != nil {
			if !patch.Type.IsValid() {
				return fault.NewClientError(fmt.Sprintf("unknown question type %q", *patch.Type), fault.ErrInvalidSurvey)
			}
			if *patch.Type == models.Company && q.Type != models.Company && models.CountType(d.questions, models.Company) > 0 {
				return fault.NewClientError("Only one Company question is allowed per survey", fault.ErrDuplicateCompanyQuestion)
			}
			q.Type = *patch.Type
		}
		if patch.Title != nil {
			q.Title = *patch.Title
		}
		if patch.IsRequired != nil {
			q.IsRequired = *patch.IsRequired
		}
		if patch.Options != nil {
			q.Options = slices.Clone(patch.Options)
		}
		if patch.SelectedCompanies != nil {
			q.SelectedCompanies = slices.Clone(patch.SelectedCompanies)
		}
		if patch.Description != nil {
			q.Description = *patch.Description
		}
		if patch.LogicPaths != nil {
			q.LogicPaths = slices.Clone(patch.LogicPaths)
		}
		return nil
	})
}

func (d *DraftManager) ToggleQuestionRequired(index int) error {
	return d.updateQuestion(index, func(q *models.Question) error {
		q.IsRequired = !q.IsRequired
		return nil
	})
}

func (d *DraftManager) UpdateQuestionDescription(index int, description string) error {
	return d.updateQuestion(index, func(q *models.Question) error {
		q.Description = description
		return nil
	})
}

// ReorderQuestion moves the question at from to position to.
func (d *DraftManager) ReorderQuestion(from, to int) error {
	return d.mutate(func() error {
		if from < 0 || from >= len(d.questions) {
			return outOfRange("question", from)
		}
		if to < 0 || to >= len(d.questions) {
			return outOfRange("question", to)
		}
		q := d.questions[from]
		d.questions = slices.Delete(d.questions, from, from+1)
		d.questions = slices.Insert(d.questions, to, q)
		return nil
	})
}

// ToggleExpanded flips the editor expansion of a question.
func (d *DraftManager) ToggleExpanded(index int) error {
	return d.toggleFlag(index, d.expanded)
}

func (d *DraftManager) ToggleAdvancedSettings(index int) error {
	return d.toggleFlag(index, d.advanced)
}

// Options

// AddOption appends an option. With blockDuplicate a value that is already
// present is rejected.
func (d *DraftManager) AddOption(questionIndex int, value string, blockDuplicate bool) error {
	return d.updateQuestion(questionIndex, func(q *models.Question) error {
		if blockDuplicate && slices.Contains(q.Options, value) {
			return duplicateOption(value)
		}
		q.Options = append(q.Options, value)
		return nil
	})
}

// UpdateOption replaces an option value. Logic paths selecting the old value
// are reset.
func (d *DraftManager) UpdateOption(questionIndex, optionIndex int, value string, blockDuplicate bool) error {
	return d.updateQuestion(questionIndex, func(q *models.Question) error {
		if optionIndex < 0 || optionIndex >= len(q.Options) {
			return outOfRange("option", optionIndex)
		}
		value = trimStart(value)
		if blockDuplicate && slices.Contains(q.Options, value) {
			return duplicateOption(value)
		}

		old := q.Options[optionIndex]
		if old != value {
			clearSelectedOption(q, old)
		}
		q.Options[optionIndex] = value
		return nil
	})
}

// RemoveOption drops an option and resets logic paths that selected it.
func (d *DraftManager) RemoveOption(questionIndex, optionIndex int) error {
	return d.updateQuestion(questionIndex, func(q *models.Question) error {
		if optionIndex < 0 || optionIndex >= len(q.Options) {
			return outOfRange("option", optionIndex)
		}
		clearSelectedOption(q, q.Options[optionIndex])
		q.Options = slices.Delete(q.Options, optionIndex, optionIndex+1)
		return nil
	})
}

func clearSelectedOption(q *models.Question, value string) {
	for i := range q.LogicPaths {
		if q.LogicPaths[i].SelectedOption == value {
			q.LogicPaths[i].SelectedOption = ""
		}
	}
}

// Logic paths

// AddLogicPath appends an empty path to be filled in.
func (d *DraftManager) AddLogicPath(questionIndex int) error {
	return d.updateQuestion(questionIndex, func(q *models.Question) error {
		q.LogicPaths = append(q.LogicPaths, models.LogicPath{})
		return nil
	})
}

func (d *DraftManager) RemoveLogicPath(questionIndex, pathIndex int) error {
	return d.updateQuestion(questionIndex, func(q *models.Question) error {
		if pathIndex < 0 || pathIndex >= len(q.LogicPaths) {
			return outOfRange("logic path", pathIndex)
		}
		q.LogicPaths = slices.Delete(q.LogicPaths, pathIndex, pathIndex+1)
		return nil
	})
}

func (d *DraftManager) UpdateLogicPath(questionIndex, pathIndex int, patch LogicPathPatch) error {
	return d.updateQuestion(questionIndex, func(q *models.Question) error {
		if pathIndex < 0 || pathIndex >= len(q.LogicPaths) {
			return outOfRange("logic path", pathIndex)
		}
		path := &q.LogicPaths[pathIndex]
		if patch.ComparisonType != nil {
			path.ComparisonType = *patch.ComparisonType
		}
		if patch.SelectedOption != nil {
			path.SelectedOption = *patch.SelectedOption
		}
		if patch.NextQuestionID != nil {
			path.NextQuestionID = *patch.NextQuestionID
		}
		return nil
	})
}

// Survey settings

func (d *DraftManager) UpdateSurveyOption(name string, value any) error {
	return d.mutate(func() error {
		opts := d.options
		if !opts.Set(name, value) {
			return fault.NewClientError(fmt.Sprintf("cannot set survey option %q to %v", name, value), fault.ErrInvalidSurvey)
		}
		d.options = opts
		return nil
	})
}

func (d *DraftManager) SetShowDisclaimer(show bool) {
	_ = d.mutate(func() error {
		d.showDisclaimer = show
		return nil
	})
}

func (d *DraftManager) SetDisclaimerTitle(title string) {
	_ = d.mutate(func() error {
		d.disclaimerTitle = title
		return nil
	})
}

func (d *DraftManager) SetDisclaimerBody(body string) {
	_ = d.mutate(func() error {
		d.disclaimerBody = body
		return nil
	})
}

// SetCompanyVisibility restricts the survey to the given companies. Disabling
// it clears the set.
func (d *DraftManager) SetCompanyVisibility(enabled bool, companyIDs []string) {
	_ = d.mutate(func() error {
		if !enabled || companyIDs == nil {
			d.associatedCompanies = []string{}
			return nil
		}
		d.associatedCompanies = slices.Clone(companyIDs)
		return nil
	})
}

// SelectTemplate replaces the title and questions wholesale. Only the first
// company question of the template is kept.
func (d *DraftManager) SelectTemplate(title string, questions []models.Question) {
	_ = d.mutate(func() error {
		d.title = title
		d.questions = editableQuestions(d.cfg.SessionID, questions)
		d.expanded = map[string]bool{}
		d.advanced = map[string]bool{}
		return nil
	})
}

// Thank-you rules

func (d *DraftManager) SetThankYouLogic(rules []models.ThankYouRule) {
	_ = d.mutate(func() error {
		d.thankYou = cloneRules(rules)
		return nil
	})
}

func (d *DraftManager) AddThankYouRule() {
	_ = d.mutate(func() error {
		d.thankYou = append(d.thankYou, models.NewThankYouRule())
		return nil
	})
}

func (d *DraftManager) RemoveThankYouRule(index int) error {
	return d.mutate(func() error {
		if index < 0 || index >= len(d.thankYou) {
			return outOfRange("rule", index)
		}
		d.thankYou = slices.Delete(d.thankYou, index, index+1)
		return nil
	})
}

// UpdateThankYouRule replaces the rule, conditions included.
func (d *DraftManager) UpdateThankYouRule(index int, rule models.ThankYouRule) error {
	return d.updateRule(index, func(r *models.ThankYouRule) error {
		*r = models.ThankYouRule{
			Conditions: slices.Clone(rule.Conditions),
			Message:    rule.Message,
		}
		return nil
	})
}

func (d *DraftManager) AddCondition(ruleIndex int) error {
	return d.updateRule(ruleIndex, func(r *models.ThankYouRule) error {
		r.Conditions = append(r.Conditions, models.NewScalarCondition())
		return nil
	})
}

func (d *DraftManager) RemoveCondition(ruleIndex, conditionIndex int) error {
	return d.updateRule(ruleIndex, func(r *models.ThankYouRule) error {
		if conditionIndex < 0 || conditionIndex >= len(r.Conditions) {
			return outOfRange("condition", conditionIndex)
		}
		r.Conditions = slices.Delete(r.Conditions, conditionIndex, conditionIndex+1)
		return nil
	})
}

// UpdateCondition merges patch into a condition. Switching between a sum and
// a scalar operator converts the condition to the matching variant.
func (d *DraftManager) UpdateCondition(ruleIndex, conditionIndex int, patch models.ConditionPatch) error {
	return d.updateRule(ruleIndex, func(r *models.ThankYouRule) error {
		if conditionIndex < 0 || conditionIndex >= len(r.Conditions) {
			return outOfRange("condition", conditionIndex)
		}
		r.Conditions[conditionIndex] = models.ApplyConditionPatch(r.Conditions[conditionIndex], patch)
		return nil
	})
}

func (d *DraftManager) SetThankYouMessage(ruleIndex int, message string) error {
	return d.updateRule(ruleIndex, func(r *models.ThankYouRule) error {
		r.Message = message
		return nil
	})
}

// Lifecycle

// Validate checks the draft before it is published. Offending questions
// are flagged for expansion; nothing else changes.
func (d *DraftManager) Validate() ValidationReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.validate()
}

func (d *DraftManager) validate() ValidationReport {
	d.submitted = true

	report := ValidationReport{
		UntitledQuestions:        []string{},
		Expanded:                 []string{},
		AdvancedSettingsExpanded: []string{},
	}

	if strings.TrimSpace(d.title) == "" {
		report.TitleMissing = true
		d.err = TitleRequired
	}

	for _, q := range d.questions {
		if q.HasEmptyOption() {
			report.Expanded = append(report.Expanded, q.ID)
		}
		if q.HasIncompleteLogicPath() {
			if !slices.Contains(report.Expanded, q.ID) {
				report.Expanded = append(report.Expanded, q.ID)
			}
			report.AdvancedSettingsExpanded = append(report.AdvancedSettingsExpanded, q.ID)
		}
		if strings.TrimSpace(q.Title) == "" && !q.Type.IsStructural() {
			report.UntitledQuestions = append(report.UntitledQuestions, q.ID)
		}
	}

	for _, id := range report.Expanded {
		d.expanded[id] = true
	}
	for _, id := range report.AdvancedSettingsExpanded {
		d.advanced[id] = true
	}

	return report
}

// Payload serialises the draft for persistence. Logic path targets are
// sent as question positions; END_OF_SURVEY and unknown targets become -1.
func (d *DraftManager) Payload() models.CreateEditSurveyPayload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.payload()
}

func (d *DraftManager) payload() models.CreateEditSurveyPayload {
	displayLogo := d.options.DisplayLogo
	showDisclaimer := d.showDisclaimer

	questions := make([]models.QuestionPayload, 0, len(d.questions))
	for _, q := range d.questions {
		paths := make([]models.LogicPathPayload, 0, len(q.LogicPaths))
		for _, p := range q.LogicPaths {
			paths = append(paths, models.LogicPathPayload{
				ComparisonType:    p.ComparisonType,
				SelectedOption:    p.SelectedOption,
				NextQuestionOrder: indexOfQuestion(d.questions, p.NextQuestionID),
			})
		}

		options := slices.Clone(q.Options)
		if options == nil {
			options = []string{}
		}
		companies := slices.Clone(q.SelectedCompanies)
		if companies == nil {
			companies = []string{}
		}

		questions = append(questions, models.QuestionPayload{
			DraftID:           q.ID,
			Title:             q.Title,
			Type:              q.Type,
			Description:       q.Description,
			IsRequired:        q.IsRequired,
			Options:           options,
			SelectedCompanies: companies,
			LogicPaths:        paths,
		})
	}

	return models.CreateEditSurveyPayload{
		Title:               d.title,
		Questions:           questions,
		OneQuestionPerStep:  d.options.OneQuestionPerStep,
		DisplayTitle:        d.options.DisplayTitle,
		HideProgressBar:     d.options.HideProgressBar,
		AccentColor:         d.options.AccentColor,
		DisplayLogo:         &displayLogo,
		ShowDisclaimer:      &showDisclaimer,
		DisclaimerTitle:     d.disclaimerTitle,
		DisclaimerBody:      d.disclaimerBody,
		ThankYouLogic:       cloneRules(d.thankYou),
		AssociatedCompanies: slices.Clone(d.associatedCompanies),
	}
}

// Publish validates the draft and creates or updates the survey. On a
// successful create the autosaved draft is cleared.
func (d *DraftManager) Publish(ctx context.Context) (string, error) {
	d.mu.Lock()
	if report := d.validate(); !report.Valid() {
		d.mu.Unlock()
		return "", fault.NewClientError("fill in the required fields", fault.ErrInvalidSurvey)
	}
	payload := d.payload()
	editMode, surveyID := d.editMode, d.surveyID
	d.mu.Unlock()

	if editMode {
		id, err := d.cfg.Gateway.UpdateSurvey(ctx, d.cfg.OwnerID, surveyID, payload)
		if err != nil {
			return "", err
		}
		return id, nil
	}

	id, err := d.cfg.Gateway.CreateSurvey(ctx, d.cfg.OwnerID, payload)
	if err != nil {
		return "", err
	}

	d.clearScratch(ctx)
	return id, nil
}

// RecoverDraft restores the autosaved title, questions and options. It
// reports false when there was nothing to recover.
func (d *DraftManager) RecoverDraft(ctx context.Context) (bool, error) {
	if d.cfg.Scratch == nil {
		return false, nil
	}

	data, err := d.cfg.Scratch.Get(ctx, d.cfg.SessionID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	var snapshot DraftSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		slog.Warn("discarding unreadable draft", slog.String("session_id", d.cfg.SessionID), slog.String("error", err.Error()))
		return false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.title = snapshot.Title
	d.options = snapshot.SurveyOptions
	d.questions = editableQuestions(d.cfg.SessionID, snapshot.Questions)
	return true, nil
}

// Companies lists the companies a company question can select from.
func (d *DraftManager) Companies(ctx context.Context) ([]models.Organization, error) {
	return d.cfg.Gateway.ListCompanies(ctx)
}

func (d *DraftManager) mutate(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	d.autosave()
	return nil
}

func (d *DraftManager) updateQuestion(index int, fn func(q *models.Question) error) error {
	return d.mutate(func() error {
		if index < 0 || index >= len(d.questions) {
			return outOfRange("question", index)
		}
		q := d.questions[index].Clone()
		if err := fn(&q); err != nil {
			return err
		}
		d.questions[index] = q
		return nil
	})
}

func (d *DraftManager) updateRule(index int, fn func(r *models.ThankYouRule) error) error {
	return d.mutate(func() error {
		if index < 0 || index >= len(d.thankYou) {
			return outOfRange("rule", index)
		}
		r := models.ThankYouRule{
			Conditions: slices.Clone(d.thankYou[index].Conditions),
			Message:    d.thankYou[index].Message,
		}
		if err := fn(&r); err != nil {
			return err
		}
		d.thankYou[index] = r
		return nil
	})
}

func (d *DraftManager) toggleFlag(index int, flags map[string]bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.questions) {
		return outOfRange("question", index)
	}
	id := d.questions[index].ID
	if flags[id] {
		delete(flags, id)
	} else {
		flags[id] = true
	}
	return nil
}

func (d *DraftManager) flagged(flags map[string]bool) []string {
	ids := []string{}
	for _, q := range d.questions {
		if flags[q.ID] {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// Mirrors the draft to the scratch store. Only create mode drafts with at
// least one question are saved and failures are only logged.
func (d *DraftManager) autosave() {
	if d.editMode || d.cfg.Scratch == nil || len(d.questions) == 0 {
		return
	}

	data, err := json.Marshal(DraftSnapshot{
		Title:         d.title,
		Questions:     d.questions,
		SurveyOptions: d.options,
	})
	if err != nil {
		slog.Error("encode draft", slog.String("session_id", d.cfg.SessionID), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SaveTimeout)
	defer cancel()

	if err := d.cfg.Scratch.Put(ctx, d.cfg.SessionID, data); err != nil {
		slog.Warn("autosave draft", slog.String("session_id", d.cfg.SessionID), slog.String("error", err.Error()))
	}
}

func (d *DraftManager) clearScratch(ctx context.Context) {
	if d.cfg.Scratch == nil {
		return
	}

	key := d.cfg.SessionID
	discard := func(ctx context.Context) error {
		return d.cfg.Scratch.Delete(ctx, key)
	}

	if d.cfg.Jobs != nil && d.cfg.Jobs.Submit(workerpool.WithRetry(3, 500*time.Millisecond, discard)) {
		return
	}

	if err := discard(ctx); err != nil {
		slog.Warn("clear draft", slog.String("session_id", key), slog.String("error", err.Error()))
	}
}

func cloneRules(rules []models.ThankYouRule) []models.ThankYouRule {
	out := make([]models.ThankYouRule, len(rules))
	for i, r := range rules {
		out[i] = models.ThankYouRule{Conditions: slices.Clone(r.Conditions), Message: r.Message}
	}
	return out
}

// editableQuestions prepares a replacement question list, dropping every
// company question after the first.
func editableQuestions(sessionID string, questions []models.Question) []models.Question {
	out := make([]models.Question, 0, len(questions))
	seenCompany := false
	for _, q := range questions {
		if q.Type == models.Company {
			if seenCompany {
				slog.Warn("dropping extra company question", slog.String("session_id", sessionID), slog.String("question_id", q.ID))
				continue
			}
			seenCompany = true
		}
		out = append(out, editableQuestion(q))
	}
	return out
}

func trimStart(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func outOfRange(what string, index int) error {
	return fault.NewClientError(fmt.Sprintf("no %s at index %d", what, index), ErrOutOfRange)
}

func duplicateOption(value string) error {
	return fault.NewClientError(fmt.Sprintf("option %q is already picked", value), fault.ErrDuplicateOption)
}
