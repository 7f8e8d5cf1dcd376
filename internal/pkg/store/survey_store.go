package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// SurveyListQuery lists the surveys of one owner, newest first. It is meant
// to be wrapped by the paginator with the owner id as its only argument.
const SurveyListQuery = `
	SELECT s.id, s.title, s.is_active, s.created_at,
		(SELECT COUNT(*) FROM questions q WHERE q.survey_id = s.id) AS question_count,
		(SELECT COUNT(*) FROM answers a WHERE a.survey_id = s.id) AS answer_count
	FROM surveys s
	WHERE s.user_id = $1
	ORDER BY s.created_at DESC`

// SurveyAccessibleQuery lists the active surveys a viewer may answer or read:
// their own and those associated with their company. Takes the user id and
// the company id.
const SurveyAccessibleQuery = `
	SELECT s.id, s.title, s.is_active, s.created_at,
		(SELECT COUNT(*) FROM questions q WHERE q.survey_id = s.id) AS question_count,
		(SELECT COUNT(*) FROM answers a WHERE a.survey_id = s.id) AS answer_count
	FROM surveys s
	WHERE s.is_active AND (s.user_id = $1 OR s.associated_companies ? $2)
	ORDER BY s.created_at DESC`

const surveyColumns = `id, user_id, title, description, is_active, one_question_per_step,
	display_title, hide_progress_bar, accent_color, display_logo, show_disclaimer,
	disclaimer_title, disclaimer_body, thank_you_logic, associated_companies, created_at`

const questionColumns = `id, survey_id, type, title, description, is_required, options,
	selected_companies, position, logic_paths`

type surveyRow struct {
	ID                  string    `db:"id"`
	UserID              string    `db:"user_id"`
	Title               string    `db:"title"`
	Description         string    `db:"description"`
	IsActive            bool      `db:"is_active"`
	OneQuestionPerStep  bool      `db:"one_question_per_step"`
	DisplayTitle        bool      `db:"display_title"`
	HideProgressBar     bool      `db:"hide_progress_bar"`
	AccentColor         string    `db:"accent_color"`
	DisplayLogo         bool      `db:"display_logo"`
	ShowDisclaimer      bool      `db:"show_disclaimer"`
	DisclaimerTitle     string    `db:"disclaimer_title"`
	DisclaimerBody      string    `db:"disclaimer_body"`
	ThankYouLogic       []byte    `db:"thank_you_logic"`
	AssociatedCompanies []byte    `db:"associated_companies"`
	CreatedAt           time.Time `db:"created_at"`
}

type questionRow struct {
	ID                string         `db:"id"`
	SurveyID          string         `db:"survey_id"`
	Type              string         `db:"type"`
	Title             string         `db:"title"`
	Description       string         `db:"description"`
	IsRequired        bool           `db:"is_required"`
	Options           pq.StringArray `db:"options"`
	SelectedCompanies pq.StringArray `db:"selected_companies"`
	Position          int            `db:"position"`
	LogicPaths        []byte         `db:"logic_paths"`
}

type answerRow struct {
	ID         string    `db:"id"`
	SurveyID   string    `db:"survey_id"`
	UserID     string    `db:"user_id"`
	CompanyID  string    `db:"company_id"`
	AnswerData []byte    `db:"answer_data"`
	CreatedAt  time.Time `db:"created_at"`
}

// storedPath is the JSON form of a logic path inside questions.logic_paths.
type storedPath struct {
	ComparisonType models.ComparisonType `json:"comparisonType"`
	SelectedOption string                `json:"selectedOption,omitempty"`
	NextQuestionID string                `json:"nextQuestionId,omitempty"`
	EndSurvey      bool                  `json:"endSurvey,omitempty"`
}

type SurveyStore struct {
	db        *sqlx.DB
	surveys   Datastorer[surveyRow]
	questions Datastorer[questionRow]
	answers   Datastorer[answerRow]
	companies Datastorer[models.Organization]
	summaries Datastorer[models.SurveySummary]
}

func NewSurveyStore(db *sqlx.DB) *SurveyStore {
	return &SurveyStore{
		db:        db,
		surveys:   NewDataStore[surveyRow](db),
		questions: NewDataStore[questionRow](db),
		answers:   NewDataStore[answerRow](db),
		companies: NewDataStore[models.Organization](db),
		summaries: NewDataStore[models.SurveySummary](db),
	}
}

// Summaries exposes the survey list rows for pagination.
func (s *SurveyStore) Summaries() Datastorer[models.SurveySummary] {
	return s.summaries
}

// CreateSurvey stores a survey and its questions in one transaction and
// returns the new survey id. Question ids are generated up front so logic
// path positions can be resolved before any row is written.
func (s *SurveyStore) CreateSurvey(ctx context.Context, ownerID string, p models.CreateEditSurveyPayload) (string, error) {
	surveyID := uuid.NewString()

	ids := make([]string, len(p.Questions))
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		row, err := newSurveyRow(p, ids)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO surveys (`+surveyColumns+`)
			VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14::jsonb, NOW())`,
			surveyID, ownerID, row.Title, row.Description, row.OneQuestionPerStep,
			row.DisplayTitle, row.HideProgressBar, row.AccentColor, row.DisplayLogo, row.ShowDisclaimer,
			row.DisclaimerTitle, row.DisclaimerBody, string(row.ThankYouLogic), string(row.AssociatedCompanies),
		)
		if err != nil {
			return err
		}

		for i, q := range p.Questions {
			if err := insertQuestion(ctx, tx, surveyID, ids[i], i, q, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("survey created", slog.String("survey_id", surveyID), slog.Int("questions", len(ids)))
	return surveyID, nil
}

// UpdateSurvey replaces the survey content. Questions whose draft id matches
// a stored question keep that id, new ones are inserted and the rest are
// removed.
func (s *SurveyStore) UpdateSurvey(ctx context.Context, ownerID, surveyID string, p models.CreateEditSurveyPayload) (string, error) {
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var existing []string
		if err := tx.SelectContext(ctx, &existing, `SELECT id FROM questions WHERE survey_id = $1`, surveyID); err != nil {
			return err
		}

		ids := make([]string, len(p.Questions))
		for i, q := range p.Questions {
			if q.DraftID != "" && slices.Contains(existing, q.DraftID) && !slices.Contains(ids[:i], q.DraftID) {
				ids[i] = q.DraftID
			} else {
				ids[i] = uuid.NewString()
			}
		}

		row, err := newSurveyRow(p, ids)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE surveys SET title = $1, description = $2, one_question_per_step = $3,
				display_title = $4, hide_progress_bar = $5, accent_color = $6, display_logo = $7,
				show_disclaimer = $8, disclaimer_title = $9, disclaimer_body = $10,
				thank_you_logic = $11::jsonb, associated_companies = $12::jsonb
			WHERE id = $13 AND user_id = $14`,
			row.Title, row.Description, row.OneQuestionPerStep, row.DisplayTitle, row.HideProgressBar,
			row.AccentColor, row.DisplayLogo, row.ShowDisclaimer, row.DisclaimerTitle, row.DisclaimerBody,
			string(row.ThankYouLogic), string(row.AssociatedCompanies), surveyID, ownerID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fault.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM questions WHERE survey_id = $1 AND NOT (id = ANY($2))`,
			surveyID, pq.Array(ids),
		); err != nil {
			return err
		}

		for i, q := range p.Questions {
			if !slices.Contains(existing, ids[i]) {
				if err := insertQuestion(ctx, tx, surveyID, ids[i], i, q, ids); err != nil {
					return err
				}
				continue
			}

			paths, err := encodePaths(ResolveLogicPaths(q.LogicPaths, ids))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE questions SET type = $1, title = $2, description = $3, is_required = $4,
					options = $5, selected_companies = $6, position = $7, logic_paths = $8::jsonb
				WHERE id = $9`,
				string(q.Type), q.Title, q.Description, q.IsRequired, pq.StringArray(nonNil(q.Options)),
				pq.StringArray(nonNil(q.SelectedCompanies)), i, paths, ids[i],
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("survey updated", slog.String("survey_id", surveyID))
	return surveyID, nil
}

// GetSurvey loads a survey with its questions ordered by position.
func (s *SurveyStore) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	row, err := s.surveys.Get(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	qrows, err := s.questions.Select(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE survey_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}

	survey := row.toModel()
	survey.Questions = make([]models.Question, 0, len(qrows))
	for _, q := range qrows {
		survey.Questions = append(survey.Questions, q.toModel())
	}
	return &survey, nil
}

// SetActive opens or closes a survey for new answers.
func (s *SurveyStore) SetActive(ctx context.Context, ownerID, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE surveys SET is_active = $1 WHERE id = $2 AND user_id = $3`, active, id, ownerID)
	if err != nil {
		return mapError(err)
	}
	return expectRow(res.RowsAffected())
}

// DeleteSurvey removes a survey together with its questions and answers.
func (s *SurveyStore) DeleteSurvey(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return mapError(err)
	}
	return expectRow(res.RowsAffected())
}

// ListAccessible returns the active surveys owned by userID or associated
// with companyID, newest first. Either id may be empty.
func (s *SurveyStore) ListAccessible(ctx context.Context, userID, companyID string) ([]models.SurveySummary, error) {
	return s.summaries.Select(ctx, SurveyAccessibleQuery, userID, companyID)
}

func (s *SurveyStore) ListCompanies(ctx context.Context) ([]models.Organization, error) {
	return s.companies.Select(ctx, `SELECT id, name FROM companies ORDER BY name`)
}

func (s *SurveyStore) GetCompany(ctx context.Context, id string) (*models.Organization, error) {
	return s.companies.Get(ctx, `SELECT id, name FROM companies WHERE id = $1`, id)
}

func (s *SurveyStore) CreateCompany(ctx context.Context, name string) (*models.Organization, error) {
	c := models.Organization{ID: uuid.NewString(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO companies (id, name) VALUES ($1, $2)`, c.ID, c.Name); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// CreateAnswer stores one submission.
func (s *SurveyStore) CreateAnswer(ctx context.Context, surveyID, userID, companyID string, sub models.AnswerSubmission) (*models.Answer, error) {
	data := sub.AnswersData
	if data == nil {
		data = []models.AnswerEntry{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	a := models.Answer{
		ID:         uuid.NewString(),
		SurveyID:   surveyID,
		UserID:     userID,
		CompanyID:  companyID,
		AnswerData: data,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (id, survey_id, user_id, company_id, answer_data, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		a.ID, a.SurveyID, a.UserID, a.CompanyID, string(raw), a.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

// ListAnswers returns every submission of a survey, newest first.
func (s *SurveyStore) ListAnswers(ctx context.Context, surveyID string) ([]models.Answer, error) {
	rows, err := s.answers.Select(ctx, `
		SELECT id, survey_id, user_id, company_id, answer_data, created_at
		FROM answers WHERE survey_id = $1 ORDER BY created_at DESC`, surveyID)
	if err != nil {
		return nil, err
	}

	answers := make([]models.Answer, 0, len(rows))
	for _, r := range rows {
		var data []models.AnswerEntry
		if err := json.Unmarshal(r.AnswerData, &data); err != nil {
			slog.Warn("skipping malformed answer", slog.String("answer_id", r.ID), slog.Any("error", err))
			continue
		}
		answers = append(answers, models.Answer{
			ID:         r.ID,
			SurveyID:   r.SurveyID,
			UserID:     r.UserID,
			CompanyID:  r.CompanyID,
			AnswerData: data,
			CreatedAt:  r.CreatedAt,
		})
	}
	return answers, nil
}

// ResolveLogicPaths turns positional targets into question ids. A target
// outside the list, or a negative one, ends the survey.
func ResolveLogicPaths(paths []models.LogicPathPayload, ids []string) []models.LogicPath {
	resolved := make([]models.LogicPath, 0, len(paths))
	for _, p := range paths {
		next := models.EndOfSurvey
		if p.NextQuestionOrder >= 0 && p.NextQuestionOrder < len(ids) {
			next = ids[p.NextQuestionOrder]
		}
		resolved = append(resolved, models.LogicPath{
			ComparisonType: p.ComparisonType,
			SelectedOption: p.SelectedOption,
			NextQuestionID: next,
		})
	}
	return resolved
}

func insertQuestion(ctx context.Context, tx *sqlx.Tx, surveyID, id string, position int, q models.QuestionPayload, ids []string) error {
	paths, err := encodePaths(ResolveLogicPaths(q.LogicPaths, ids))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)`,
		id, surveyID, string(q.Type), q.Title, q.Description, q.IsRequired,
		pq.StringArray(nonNil(q.Options)), pq.StringArray(nonNil(q.SelectedCompanies)), position, paths,
	)
	return err
}

// newSurveyRow builds the survey columns. Thank-you rules written against
// draft ids are pointed at the stored question ids.
func newSurveyRow(p models.CreateEditSurveyPayload, ids []string) (surveyRow, error) {
	row := surveyRow{
		Title:              p.Title,
		Description:        p.Description,
		OneQuestionPerStep: p.OneQuestionPerStep,
		DisplayTitle:       p.DisplayTitle,
		HideProgressBar:    p.HideProgressBar,
		AccentColor:        p.AccentColor,
		DisplayLogo:        true,
		DisclaimerTitle:    p.DisclaimerTitle,
		DisclaimerBody:     p.DisclaimerBody,
	}
	if row.AccentColor == "" {
		row.AccentColor = models.DefaultAccentColor
	}
	if p.DisplayLogo != nil {
		row.DisplayLogo = *p.DisplayLogo
	}
	if p.ShowDisclaimer != nil {
		row.ShowDisclaimer = *p.ShowDisclaimer
	}

	drafts := map[string]string{}
	for i, q := range p.Questions {
		if q.DraftID != "" {
			drafts[q.DraftID] = ids[i]
		}
	}
	rules := models.RemapRuleQuestions(p.ThankYouLogic, drafts)
	var err error
	if row.ThankYouLogic, err = json.Marshal(rules); err != nil {
		return row, err
	}
	if row.AssociatedCompanies, err = json.Marshal(nonNil(p.AssociatedCompanies)); err != nil {
		return row, err
	}
	return row, nil
}

func (r surveyRow) toModel() models.Survey {
	return models.Survey{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		IsActive:    r.IsActive,
		SurveyOptions: models.SurveyOptions{
			OneQuestionPerStep: r.OneQuestionPerStep,
			DisplayTitle:       r.DisplayTitle,
			HideProgressBar:    r.HideProgressBar,
			AccentColor:        r.AccentColor,
			DisplayLogo:        r.DisplayLogo,
		},
		ShowDisclaimer:      r.ShowDisclaimer,
		DisclaimerTitle:     r.DisclaimerTitle,
		DisclaimerBody:      r.DisclaimerBody,
		ThankYouLogic:       models.ParseThankYouLogic(r.ThankYouLogic),
		AssociatedCompanies: models.ParseCompanyIDs(r.AssociatedCompanies),
		CreatedAt:           r.CreatedAt,
	}
}

func (r questionRow) toModel() models.Question {
	return models.Question{
		ID:                r.ID,
		Title:             r.Title,
		Type:              models.QuestionType(r.Type),
		IsRequired:        r.IsRequired,
		Options:           []string(r.Options),
		SelectedCompanies: []string(r.SelectedCompanies),
		Description:       r.Description,
		Order:             r.Position,
		LogicPaths:        decodePaths(r.ID, r.LogicPaths),
	}
}

func encodePaths(paths []models.LogicPath) (string, error) {
	stored := make([]storedPath, 0, len(paths))
	for _, p := range paths {
		sp := storedPath{ComparisonType: p.ComparisonType, SelectedOption: p.SelectedOption}
		if p.EndsSurvey() {
			sp.EndSurvey = true
		} else {
			sp.NextQuestionID = p.NextQuestionID
		}
		stored = append(stored, sp)
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodePaths(questionID string, raw []byte) []models.LogicPath {
	paths := []models.LogicPath{}
	if len(raw) == 0 {
		return paths
	}

	var stored []storedPath
	if err := json.Unmarshal(raw, &stored); err != nil {
		slog.Warn("malformed logic paths", slog.String("question_id", questionID), slog.Any("error", err))
		return paths
	}

	for _, sp := range stored {
		next := sp.NextQuestionID
		if sp.EndSurvey {
			next = models.EndOfSurvey
		}
		paths = append(paths, models.LogicPath{
			ComparisonType: sp.ComparisonType,
			SelectedOption: sp.SelectedOption,
			NextQuestionID: next,
		})
	}
	return paths
}

func expectRow(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return fault.ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
