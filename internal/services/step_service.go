package services

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/paulexconde/surveyengine/internal/models"
)

// DisplayMode is how a survey is paginated for respondents.
type DisplayMode int

const (
	OneQuestionPerStep DisplayMode = iota + 1
	MultiStep
	SinglePage
)

func (m DisplayMode) String() string {
	switch m {
	case OneQuestionPerStep:
		return "one_question_per_step"
	case MultiStep:
		return "multi_step"
	case SinglePage:
		return "single_page"
	default:
		return "unknown"
	}
}

// Layout groups question indexes into pages.
type Layout struct {
	Mode  DisplayMode
	Pages [][]int
}

// TotalPages is never less than one.
func (l Layout) TotalPages() int {
	return max(len(l.Pages), 1)
}

// Progress of a respondent through the pages.
type Progress struct {
	Step    int `json:"step"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// ProgressAt reports the 1-based step and completion percentage for page.
func (l Layout) ProgressAt(page int) Progress {
	total := l.TotalPages()
	page = min(max(page, 0), total-1)
	return Progress{
		Step:    page + 1,
		Total:   total,
		Percent: int(math.Round(float64(page+1) / float64(total) * 100)),
	}
}

// SelectMode picks the display mode. One question per step wins, then any
// section breaker turns on multi-step mode.
func SelectMode(questions []models.Question, opts models.SurveyOptions) DisplayMode {
	if opts.OneQuestionPerStep {
		return OneQuestionPerStep
	}
	if models.CountType(questions, models.SectionBreaker) > 0 {
		return MultiStep
	}
	return SinglePage
}

// Partition groups the questions into pages for the selected mode.
func Partition(questions []models.Question, opts models.SurveyOptions) Layout {
	mode := SelectMode(questions, opts)

	switch mode {
	case OneQuestionPerStep:
		pages := [][]int{}
		for i, q := range questions {
			if q.Type != models.SectionBreaker {
				pages = append(pages, []int{i})
			}
		}
		return Layout{Mode: mode, Pages: pages}
	case MultiStep:
		return Layout{Mode: mode, Pages: GroupBySectionBreakers(questions)}
	default:
		return Layout{Mode: mode, Pages: [][]int{allIndexes(len(questions))}}
	}
}

// GroupBySectionBreakers splits the questions at every section breaker.
// Breakers are not part of any group and empty groups are dropped; when no
// group is left everything ends up in a single group.
func GroupBySectionBreakers(questions []models.Question) [][]int {
	steps := [][]int{}
	current := []int{}

	for i, q := range questions {
		if q.Type == models.SectionBreaker {
			if len(current) > 0 {
				steps = append(steps, current)
				current = []int{}
			}
			continue
		}
		current = append(current, i)
	}

	if len(current) > 0 {
		steps = append(steps, current)
	}

	if len(steps) == 0 {
		return [][]int{allIndexes(len(questions))}
	}
	return steps
}

// IsPageValid reports whether every required answerable question on the
// page has a non-blank answer.
func IsPageValid(questions []models.Question, page []int, answers Answers) bool {
	for _, i := range page {
		if i < 0 || i >= len(questions) {
			continue
		}
		q := questions[i]
		if q.Type.IsStructural() || !q.IsRequired {
			continue
		}
		if strings.TrimSpace(answers[q.ID]) == "" {
			return false
		}
	}
	return true
}

func allIndexes(n int) []int {
	indexes := make([]int, n)
	for i := 0; i < n; i++ {
		indexes[i] = i
	}
	return indexes
}

var (
	ErrPageIncomplete  = errors.New("required questions on this page are not answered")
	ErrNotLastPage     = errors.New("survey can only be submitted from the last page")
	ErrSurveyFinished  = errors.New("survey already finished")
	ErrUnknownQuestion = errors.New("question does not belong to this survey")
)

// DisplaySession owns the answers and navigation state of one respondent.
type DisplaySession struct {
	survey   models.Survey
	layout   Layout
	resolver SurveyService

	answers         Answers
	page            int
	history         []int
	validationError bool
	finished        bool
}

func NewDisplaySession(survey models.Survey, resolver SurveyService) *DisplaySession {
	if resolver == nil {
		resolver = NewSurveyService()
	}
	return &DisplaySession{
		survey:   survey,
		layout:   Partition(survey.Questions, survey.SurveyOptions),
		resolver: resolver,
		answers:  Answers{},
	}
}

func (d *DisplaySession) Mode() DisplayMode {
	return d.layout.Mode
}

func (d *DisplaySession) Layout() Layout {
	return d.layout
}

func (d *DisplaySession) Finished() bool {
	return d.finished
}

func (d *DisplaySession) ValidationError() bool {
	return d.validationError
}

func (d *DisplaySession) Progress() Progress {
	return d.layout.ProgressAt(d.page)
}

func (d *DisplaySession) Answers() Answers {
	out := make(Answers, len(d.answers))
	for k, v := range d.answers {
		out[k] = v
	}
	return out
}

// SetAnswer records an answer and clears the validation error once the
// current page is complete.
func (d *DisplaySession) SetAnswer(questionID, answer string) error {
	if d.finished {
		return ErrSurveyFinished
	}
	if _, ok := d.survey.QuestionByID(questionID); !ok {
		return ErrUnknownQuestion
	}

	d.answers[questionID] = answer

	if d.validationError && d.currentPageValid() {
		d.validationError = false
	}
	return nil
}

// CurrentPage returns the questions to render right now.
func (d *DisplaySession) CurrentPage() []models.Question {
	if d.page >= len(d.layout.Pages) {
		return []models.Question{}
	}
	page := d.layout.Pages[d.page]
	out := make([]models.Question, 0, len(page))
	for _, i := range page {
		out = append(out, d.survey.Questions[i])
	}
	return out
}

// CurrentQuestion returns the single question shown in one-question-per-step
// mode.
func (d *DisplaySession) CurrentQuestion() (models.Question, bool) {
	if d.layout.Mode != OneQuestionPerStep || d.finished {
		return models.Question{}, false
	}
	page := d.CurrentPage()
	if len(page) == 0 {
		return models.Question{}, false
	}
	return page[0], true
}

func (d *DisplaySession) IsLastPage() bool {
	return d.page >= d.layout.TotalPages()-1
}

// Next advances to the following page. In one-question-per-step mode the
// logic paths of the current question decide where to go and may finish
// the survey.
func (d *DisplaySession) Next() error {
	if d.finished {
		return ErrSurveyFinished
	}

	switch d.layout.Mode {
	case OneQuestionPerStep:
		return d.nextQuestion()
	case MultiStep:
		if !d.currentPageValid() {
			d.validationError = true
			return ErrPageIncomplete
		}
		d.validationError = false
		if d.page < d.layout.TotalPages()-1 {
			d.history = append(d.history, d.page)
			d.page++
		}
		return nil
	default:
		return nil
	}
}

func (d *DisplaySession) nextQuestion() error {
	if len(d.layout.Pages) == 0 {
		d.finished = true
		return nil
	}

	current := d.layout.Pages[d.page][0]
	next, finished := d.resolver.NextQuestionIndex(d.survey.Questions, current, d.answers)
	if finished {
		d.finished = true
		return nil
	}

	target := slices.IndexFunc(d.layout.Pages, func(p []int) bool { return p[0] == next })
	if target < 0 {
		d.finished = true
		return nil
	}

	d.history = append(d.history, d.page)
	d.page = target
	return nil
}

// Previous returns to the page shown before the current one.
func (d *DisplaySession) Previous() {
	d.validationError = false
	if len(d.history) == 0 {
		return
	}
	d.page = d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]
}

// Submit finishes the survey and returns the answers to store.
func (d *DisplaySession) Submit() (models.AnswerSubmission, error) {
	if d.layout.Mode == MultiStep {
		if !d.IsLastPage() {
			return models.AnswerSubmission{}, ErrNotLastPage
		}
		if !d.currentPageValid() {
			d.validationError = true
			return models.AnswerSubmission{}, ErrPageIncomplete
		}
	}

	d.validationError = false
	d.finished = true
	return d.submission(), nil
}

// ThankYouMessages returns the closing messages once the survey is finished.
func (d *DisplaySession) ThankYouMessages() []string {
	if !d.finished {
		return []string{}
	}
	return EvaluateRules(d.survey.ThankYouLogic, d.answers)
}

func (d *DisplaySession) submission() models.AnswerSubmission {
	data := []models.AnswerEntry{}
	for _, q := range d.survey.Questions {
		if q.Type.IsStructural() {
			continue
		}
		entry := models.AnswerEntry{QuestionID: q.ID}
		if answer, ok := d.answers[q.ID]; ok && strings.TrimSpace(answer) != "" {
			a := answer
			entry.Answer = &a
		}
		data = append(data, entry)
	}
	return models.AnswerSubmission{AnswersData: data}
}

func (d *DisplaySession) currentPageValid() bool {
	if d.page >= len(d.layout.Pages) {
		return true
	}
	return IsPageValid(d.survey.Questions, d.layout.Pages[d.page], d.answers)
}
