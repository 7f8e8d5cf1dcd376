package services

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/scratch"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

type fakeGateway struct {
	created  []models.CreateEditSurveyPayload
	updated  map[string]models.CreateEditSurveyPayload
	surveys  map[string]*models.Survey
	failWith error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		updated: map[string]models.CreateEditSurveyPayload{},
		surveys: map[string]*models.Survey{},
	}
}

func (g *fakeGateway) CreateSurvey(_ context.Context, _ string, p models.CreateEditSurveyPayload) (string, error) {
	if g.failWith != nil {
		return "", g.failWith
	}
	g.created = append(g.created, p)
	return "survey-1", nil
}

func (g *fakeGateway) UpdateSurvey(_ context.Context, _ string, id string, p models.CreateEditSurveyPayload) (string, error) {
	if g.failWith != nil {
		return "", g.failWith
	}
	g.updated[id] = p
	return id, nil
}

func (g *fakeGateway) GetSurvey(_ context.Context, id string) (*models.Survey, error) {
	s, ok := g.surveys[id]
	if !ok {
		return nil, fault.ErrNotFound
	}
	return s, nil
}

func (g *fakeGateway) ListCompanies(context.Context) ([]models.Organization, error) {
	return []models.Organization{{ID: "c1", Name: "Acme"}}, nil
}

func newTestDraft(t *testing.T) (*DraftManager, *scratch.MemoryStore, *fakeGateway) {
	t.Helper()
	store := scratch.NewMemoryStore()
	gateway := newFakeGateway()
	d := NewDraftManager(DraftConfig{
		SessionID: "sess-1",
		OwnerID:   "user-1",
		Scratch:   store,
		Gateway:   gateway,
	})
	return d, store, gateway
}

func ptr[T any](v T) *T {
	return &v
}

func TestDraft_Defaults(t *testing.T) {
	d, _, _ := newTestDraft(t)
	state := d.State()

	if state.Title != "My survey" {
		t.Errorf("expected default title, got %q", state.Title)
	}
	if !reflect.DeepEqual(state.SurveyOptions, models.DefaultSurveyOptions()) {
		t.Errorf("unexpected default options %+v", state.SurveyOptions)
	}
	if state.EditMode {
		t.Error("expected create mode")
	}
}

func TestDraft_OnlyOneCompanyQuestion(t *testing.T) {
	d, _, _ := newTestDraft(t)

	if _, err := d.AddQuestionOfType(models.Company); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := d.AddQuestionOfType(models.Company)
	if !errors.Is(err, fault.ErrDuplicateCompanyQuestion) || !fault.IsClientError(err) {
		t.Fatalf("expected duplicate company client error, got %v", err)
	}

	if _, err := d.AddQuestionOfType(models.Input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = d.UpdateQuestionData(1, QuestionPatch{Type: ptr(models.Company)})
	if !errors.Is(err, fault.ErrDuplicateCompanyQuestion) {
		t.Fatalf("expected type change to be rejected, got %v", err)
	}

	state := d.State()
	if got := models.CountType(state.Questions, models.Company); got != 1 {
		t.Errorf("expected exactly one company question, got %d", got)
	}
	if state.Questions[1].Type != models.Input {
		t.Errorf("expected rejected patch to leave the question alone, got %s", state.Questions[1].Type)
	}
}

func TestDraft_RemoveQuestionUnlinksPaths(t *testing.T) {
	d, _, _ := newTestDraft(t)

	d.SelectTemplate("Checkup", []models.Question{
		{ID: "q1", Title: "Q1", Type: models.Choice, Options: []string{"Ya", "Tidak"}, LogicPaths: []models.LogicPath{
			{ComparisonType: models.Equal, SelectedOption: "Ya", NextQuestionID: "q3"},
			{ComparisonType: models.Equal, SelectedOption: "Tidak", NextQuestionID: models.EndOfSurvey},
		}},
		{ID: "q2", Title: "Q2", Type: models.Input, LogicPaths: []models.LogicPath{
			{ComparisonType: models.Submitted, NextQuestionID: "q3"},
		}},
		{ID: "q3", Title: "Q3", Type: models.Input},
	})

	if err := d.RemoveQuestion(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := d.State()
	if len(state.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(state.Questions))
	}
	if got := state.Questions[0].LogicPaths[0].NextQuestionID; got != "" {
		t.Errorf("expected path to removed question to be unlinked, got %q", got)
	}
	if got := state.Questions[0].LogicPaths[1].NextQuestionID; got != models.EndOfSurvey {
		t.Errorf("expected end of survey path to be kept, got %q", got)
	}
	if got := state.Questions[1].LogicPaths[0].NextQuestionID; got != "" {
		t.Errorf("expected path on q2 to be unlinked, got %q", got)
	}

	if err := d.RemoveQuestion(5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestDraft_OptionChangesResetPaths(t *testing.T) {
	d, _, _ := newTestDraft(t)

	d.SelectTemplate("Checkup", []models.Question{
		{ID: "q1", Title: "Q1", Type: models.Choice, Options: []string{"Ya", "Tidak", "Mungkin"}, LogicPaths: []models.LogicPath{
			{ComparisonType: models.Equal, SelectedOption: "Ya", NextQuestionID: "q2"},
			{ComparisonType: models.Equal, SelectedOption: "Tidak", NextQuestionID: "q2"},
			{ComparisonType: models.Equal, SelectedOption: "Mungkin", NextQuestionID: "q2"},
		}},
		{ID: "q2", Title: "Q2", Type: models.Input},
	})

	if err := d.UpdateOption(0, 0, "  Yes", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.RemoveOption(0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.UpdateOption(0, 1, "Mungkin", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := d.State().Questions[0]
	if !reflect.DeepEqual(q.Options, []string{"Yes", "Mungkin"}) {
		t.Errorf("unexpected options %v", q.Options)
	}
	wantSelected := []string{"", "", "Mungkin"}
	for i, p := range q.LogicPaths {
		if p.SelectedOption != wantSelected[i] {
			t.Errorf("path %d: expected selected option %q, got %q", i, wantSelected[i], p.SelectedOption)
		}
	}
}

func TestDraft_EmojiDuplicateGuard(t *testing.T) {
	d, _, _ := newTestDraft(t)

	if _, err := d.AddQuestionOfType(models.Emoji); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := d.AddOption(0, ":rage:", true)
	if !errors.Is(err, fault.ErrDuplicateOption) {
		t.Fatalf("expected duplicate option error, got %v", err)
	}
	err = d.UpdateOption(0, 1, ":smiley:", true)
	if !errors.Is(err, fault.ErrDuplicateOption) {
		t.Fatalf("expected duplicate option error, got %v", err)
	}
	if err := d.AddOption(0, ":heart:", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(d.State().Questions[0].Options); got != 5 {
		t.Errorf("expected 5 emoji options, got %d", got)
	}
}

func TestDraft_UpdateOptionTrimsBeforeDuplicateCheck(t *testing.T) {
	d, _, _ := newTestDraft(t)

	d.SelectTemplate("Checkup", []models.Question{
		{ID: "q1", Title: "Q1", Type: models.Choice, Options: []string{"Ya", "Tidak"}},
	})

	err := d.UpdateOption(0, 1, " Ya", true)
	if !errors.Is(err, fault.ErrDuplicateOption) {
		t.Fatalf("expected duplicate option error, got %v", err)
	}
	if got := d.State().Questions[0].Options; !reflect.DeepEqual(got, []string{"Ya", "Tidak"}) {
		t.Errorf("expected options to be untouched, got %v", got)
	}
}

func TestDraft_SingleCompanyQuestionOnReplace(t *testing.T) {
	d, store, gateway := newTestDraft(t)
	ctx := context.Background()

	d.SelectTemplate("Checkup", []models.Question{
		{ID: "c1", Title: "Company", Type: models.Company},
		{ID: "q1", Title: "Q1", Type: models.Input},
		{ID: "c2", Title: "Company again", Type: models.Company},
	})

	ids := []string{}
	for _, q := range d.State().Questions {
		ids = append(ids, q.ID)
	}
	if !reflect.DeepEqual(ids, []string{"c1", "q1"}) {
		t.Errorf("expected the second company question to be dropped, got %v", ids)
	}

	snapshot, err := json.Marshal(DraftSnapshot{
		Title: "Saved",
		Questions: []models.Question{
			{ID: "c1", Title: "Company", Type: models.Company},
			{ID: "c2", Title: "Company again", Type: models.Company},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put(ctx, "sess-2", snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recovered := NewDraftManager(DraftConfig{SessionID: "sess-2", Scratch: store, Gateway: gateway})
	if ok, err := recovered.RecoverDraft(ctx); err != nil || !ok {
		t.Fatalf("expected draft to be recovered, got ok=%v err=%v", ok, err)
	}
	if got := recovered.State().Questions; len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("expected a single company question after recovery, got %+v", got)
	}
}

func TestDraft_QuestionEdits(t *testing.T) {
	d, _, _ := newTestDraft(t)

	a, _ := d.AddQuestionOfType(models.Input)
	b, _ := d.AddQuestionOfType(models.Rate)
	c, _ := d.AddQuestionOfType(models.Date)

	if err := d.UpdateQuestionTitle(0, "   What happened?  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.ToggleQuestionRequired(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.UpdateQuestionDescription(2, "Pick any day"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.ReorderQuestion(2, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := d.State()
	ids := []string{state.Questions[0].ID, state.Questions[1].ID, state.Questions[2].ID}
	if !reflect.DeepEqual(ids, []string{c.ID, a.ID, b.ID}) {
		t.Errorf("unexpected order %v", ids)
	}
	if state.Questions[1].Title != "What happened?  " {
		t.Errorf("expected leading spaces to be trimmed, got %q", state.Questions[1].Title)
	}
	if state.Questions[2].IsRequired {
		t.Error("expected required flag to be toggled off")
	}
	if state.Questions[0].Description != "Pick any day" {
		t.Errorf("unexpected description %q", state.Questions[0].Description)
	}
}

func TestDraft_LogicPathEdits(t *testing.T) {
	d, _, _ := newTestDraft(t)
	_, _ = d.AddQuestionOfType(models.Number)
	target, _ := d.AddQuestionOfType(models.Input)

	_ = d.AddLogicPath(0)
	_ = d.AddLogicPath(0)
	err := d.UpdateLogicPath(0, 0, LogicPathPatch{
		ComparisonType: ptr(models.GreaterThan),
		SelectedOption: ptr("5"),
		NextQuestionID: ptr(target.ID),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.RemoveLogicPath(0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paths := d.State().Questions[0].LogicPaths
	want := []models.LogicPath{{ComparisonType: models.GreaterThan, SelectedOption: "5", NextQuestionID: target.ID}}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("unexpected paths %+v", paths)
	}

	if err := d.UpdateLogicPath(0, 3, LogicPathPatch{}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestDraft_ValidateFlagsQuestions(t *testing.T) {
	d, _, _ := newTestDraft(t)

	d.SelectTemplate("", []models.Question{
		{ID: "q1", Title: "Q1", Type: models.Choice, Options: []string{"Ya", ""}},
		{ID: "q2", Title: "Q2", Type: models.Input, LogicPaths: []models.LogicPath{{ComparisonType: models.Equal, NextQuestionID: "q3"}}},
		{ID: "q3", Title: "", Type: models.Input},
		{ID: "s1", Title: "", Type: models.Section},
		{ID: "q4", Title: "Q4", Type: models.Input, LogicPaths: []models.LogicPath{{ComparisonType: models.Submitted, NextQuestionID: models.EndOfSurvey}}},
	})

	report := d.Validate()
	if report.Valid() {
		t.Fatal("expected draft to be invalid")
	}
	if !report.TitleMissing {
		t.Error("expected missing title")
	}
	if !reflect.DeepEqual(report.Expanded, []string{"q1", "q2"}) {
		t.Errorf("unexpected expanded %v", report.Expanded)
	}
	if !reflect.DeepEqual(report.AdvancedSettingsExpanded, []string{"q2"}) {
		t.Errorf("unexpected advanced settings %v", report.AdvancedSettingsExpanded)
	}
	if !reflect.DeepEqual(report.UntitledQuestions, []string{"q3"}) {
		t.Errorf("unexpected untitled questions %v", report.UntitledQuestions)
	}

	state := d.State()
	if state.Error != TitleRequired || !state.Submitted {
		t.Errorf("unexpected state error=%q submitted=%v", state.Error, state.Submitted)
	}
	if !reflect.DeepEqual(state.Expanded, []string{"q1", "q2"}) {
		t.Errorf("expected flags to be kept on the draft, got %v", state.Expanded)
	}
	if len(state.Questions) != 5 || state.Questions[0].Options[1] != "" {
		t.Error("expected validation to leave the questions untouched")
	}

	d.SetTitle("Checkup")
	if d.State().Error != "" {
		t.Error("expected title change to clear the error")
	}
}

func TestDraft_PayloadTranslatesTargets(t *testing.T) {
	d, _, _ := newTestDraft(t)

	d.SelectTemplate("Checkup", []models.Question{
		{ID: "q1", Title: "Q1", Type: models.Choice, Options: []string{"Ya", "Tidak"}, IsRequired: true, LogicPaths: []models.LogicPath{
			{ComparisonType: models.Equal, SelectedOption: "Ya", NextQuestionID: "q3"},
			{ComparisonType: models.Equal, SelectedOption: "Tidak", NextQuestionID: models.EndOfSurvey},
		}},
		{ID: "q2", Title: "Q2", Type: models.Input},
		{ID: "q3", Title: "Q3", Type: models.Company, SelectedCompanies: []string{"c1"}},
	})
	d.SetShowDisclaimer(true)
	d.SetDisclaimerTitle("Privacy")
	d.SetDisclaimerBody("<p>We keep it safe</p>")
	d.SetCompanyVisibility(true, []string{"c1", "c2"})
	if err := d.UpdateSurveyOption(models.OptionAccentColor, "#111111"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := d.Payload()

	if p.Title != "Checkup" || p.AccentColor != "#111111" || !p.OneQuestionPerStep {
		t.Errorf("unexpected survey fields %+v", p)
	}
	if p.ShowDisclaimer == nil || !*p.ShowDisclaimer || p.DisclaimerTitle != "Privacy" {
		t.Errorf("unexpected disclaimer fields %+v", p)
	}
	if !reflect.DeepEqual(p.AssociatedCompanies, []string{"c1", "c2"}) {
		t.Errorf("unexpected associated companies %v", p.AssociatedCompanies)
	}

	paths := p.Questions[0].LogicPaths
	if paths[0].NextQuestionOrder != 2 || paths[1].NextQuestionOrder != -1 {
		t.Errorf("unexpected path orders %+v", paths)
	}
	if p.Questions[1].Options == nil || len(p.Questions[1].Options) != 0 {
		t.Errorf("expected empty options list, got %v", p.Questions[1].Options)
	}
	if p.Questions[0].DraftID != "q1" {
		t.Errorf("expected draft id to be sent, got %q", p.Questions[0].DraftID)
	}

	d.SetCompanyVisibility(false, []string{"c1"})
	if got := d.Payload().AssociatedCompanies; len(got) != 0 {
		t.Errorf("expected visibility to be cleared, got %v", got)
	}
}

func TestDraft_AutosaveAndRecover(t *testing.T) {
	d, store, gateway := newTestDraft(t)
	ctx := context.Background()

	d.SetTitle("Nothing yet")
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected no autosave without questions, got %v", err)
	}

	q, _ := d.AddQuestionOfType(models.Choice)
	_ = d.UpdateSurveyOption(models.OptionOneQuestionPerStep, false)

	data, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("expected autosaved draft, got %v", err)
	}
	var snapshot DraftSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.Title != "Nothing yet" || len(snapshot.Questions) != 1 || snapshot.SurveyOptions.OneQuestionPerStep {
		t.Errorf("unexpected snapshot %+v", snapshot)
	}

	recovered := NewDraftManager(DraftConfig{SessionID: "sess-1", Scratch: store, Gateway: gateway})
	ok, err := recovered.RecoverDraft(ctx)
	if err != nil || !ok {
		t.Fatalf("expected draft to be recovered, got ok=%v err=%v", ok, err)
	}
	state := recovered.State()
	if state.Title != "Nothing yet" || state.Questions[0].ID != q.ID {
		t.Errorf("unexpected recovered state %+v", state)
	}

	empty := NewDraftManager(DraftConfig{SessionID: "other", Scratch: store, Gateway: gateway})
	if ok, err := empty.RecoverDraft(ctx); ok || err != nil {
		t.Errorf("expected nothing to recover, got ok=%v err=%v", ok, err)
	}
}

func TestDraft_PublishCreate(t *testing.T) {
	d, store, gateway := newTestDraft(t)
	ctx := context.Background()

	_, _ = d.AddQuestionOfType(models.Input)
	_ = d.AddLogicPath(0)

	_, err := d.Publish(ctx)
	if !errors.Is(err, fault.ErrInvalidSurvey) {
		t.Fatalf("expected invalid survey error, got %v", err)
	}
	if len(gateway.created) != 0 {
		t.Fatal("expected nothing to be published")
	}

	_ = d.RemoveLogicPath(0, 0)

	gateway.failWith = errors.New("connection refused")
	if _, err := d.Publish(ctx); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); err != nil {
		t.Fatalf("expected draft to survive a failed publish, got %v", err)
	}

	gateway.failWith = nil
	id, err := d.Publish(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "survey-1" || len(gateway.created) != 1 {
		t.Errorf("unexpected publish result id=%q created=%d", id, len(gateway.created))
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected draft to be cleared after publish, got %v", err)
	}
}

func TestDraft_EditMode(t *testing.T) {
	store := scratch.NewMemoryStore()
	gateway := newFakeGateway()
	gateway.surveys["s1"] = &models.Survey{
		ID:            "s1",
		UserID:        "user-1",
		Title:         "Persisted",
		SurveyOptions: models.SurveyOptions{DisplayTitle: true, AccentColor: "#000000"},
		Questions: []models.Question{
			{ID: "q1", Title: "Q1", Type: models.QuestionType("LEGACY"), LogicPaths: []models.LogicPath{
				{ComparisonType: models.Submitted, NextQuestionID: models.EndOfSurvey},
			}},
		},
		AssociatedCompanies: []string{"c1"},
	}
	cfg := DraftConfig{SessionID: "sess-2", OwnerID: "user-1", Scratch: store, Gateway: gateway}
	ctx := context.Background()

	d, err := OpenDraftForEdit(ctx, cfg, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := d.State()
	if !state.EditMode || state.Title != "Persisted" || !state.SurveyOptions.DisplayTitle {
		t.Errorf("unexpected edit state %+v", state)
	}
	if state.Questions[0].Type != models.Input {
		t.Errorf("expected unknown type to become INPUT, got %s", state.Questions[0].Type)
	}

	_ = d.UpdateQuestionTitle(0, "Q1 edited")
	if _, err := store.Get(ctx, "sess-2"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected no autosave in edit mode, got %v", err)
	}

	id, err := d.Publish(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "s1" || gateway.updated["s1"].Questions[0].Title != "Q1 edited" {
		t.Errorf("expected survey s1 to be updated, got %q %+v", id, gateway.updated["s1"])
	}

	cfg.OwnerID = "someone-else"
	if _, err := OpenDraftForEdit(ctx, cfg, "s1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected other users to be turned away, got %v", err)
	}
}

func TestDraft_ThankYouRules(t *testing.T) {
	d, _, _ := newTestDraft(t)

	d.AddThankYouRule()
	d.AddThankYouRule()
	if err := d.AddCondition(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.UpdateCondition(0, 0, models.ConditionPatch{Question: ptr("q1"), Value: ptr("1")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.UpdateCondition(0, 1, models.ConditionPatch{Questions: []string{"q1", "q2"}, Operator: ptr("sum>="), Value: ptr("3")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.SetThankYouMessage(0, "Great"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.RemoveThankYouRule(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rules := d.State().ThankYouLogic
	if len(rules) != 1 || rules[0].Message != "Great" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if _, ok := rules[0].Conditions[1].(models.SumCondition); !ok {
		t.Errorf("expected the second condition to become a sum, got %T", rules[0].Conditions[1])
	}

	if err := d.RemoveCondition(0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.UpdateThankYouRule(0, models.ThankYouRule{Message: "Replaced"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rules = d.State().ThankYouLogic
	if rules[0].Message != "Replaced" || len(rules[0].Conditions) != 0 {
		t.Errorf("expected rule to be replaced wholesale, got %+v", rules[0])
	}

	if err := d.RemoveCondition(3, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestDraft_ToggleFlags(t *testing.T) {
	d, _, _ := newTestDraft(t)
	q, _ := d.AddQuestionOfType(models.Input)

	_ = d.ToggleExpanded(0)
	_ = d.ToggleAdvancedSettings(0)
	state := d.State()
	if !reflect.DeepEqual(state.Expanded, []string{q.ID}) || !reflect.DeepEqual(state.AdvancedSettingsExpanded, []string{q.ID}) {
		t.Errorf("unexpected flags %v %v", state.Expanded, state.AdvancedSettingsExpanded)
	}

	_ = d.ToggleExpanded(0)
	if got := d.State().Expanded; len(got) != 0 {
		t.Errorf("expected expansion to be toggled off, got %v", got)
	}
}

func TestDraft_UpdateSurveyOptionRejectsUnknown(t *testing.T) {
	d, _, _ := newTestDraft(t)
	if err := d.UpdateSurveyOption("fontSize", 12); !fault.IsClientError(err) {
		t.Errorf("expected client error, got %v", err)
	}
}
