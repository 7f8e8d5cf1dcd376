package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// Operators accepted by a scalar thank-you condition.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpPlus         = "+"
	OpMinus        = "-"
	OpContains     = "contains"
)

// SumPrefix marks an operator that aggregates several questions.
const SumPrefix = "sum"

// ConditionKind discriminates the Condition variants.
type ConditionKind int

const (
	ScalarKind ConditionKind = iota + 1
	SumKind
)

// Condition is either a ScalarCondition or a SumCondition.
type Condition interface {
	Kind() ConditionKind
	raw() rawCondition
}

// ScalarCondition compares the answer of a single question.
type ScalarCondition struct {
	Question string
	Operator string
	Value    string
}

func (ScalarCondition) Kind() ConditionKind { return ScalarKind }

func (c ScalarCondition) raw() rawCondition {
	return rawCondition{
		Question: questionRef{ids: []string{c.Question}},
		Operator: c.Operator,
		Value:    looseString(c.Value),
	}
}

// SumCondition compares the sum of the coerced answers of several questions.
// Comparison is the operator without its "sum" prefix.
type SumCondition struct {
	Questions  []string
	Comparison string
	Value      string
}

func (SumCondition) Kind() ConditionKind { return SumKind }

// Operator returns the wire operator, e.g. "sum>=".
func (c SumCondition) Operator() string {
	return SumPrefix + c.Comparison
}

func (c SumCondition) raw() rawCondition {
	ids := c.Questions
	if ids == nil {
		ids = []string{}
	}
	return rawCondition{
		Question: questionRef{ids: ids, multi: true},
		Operator: c.Operator(),
		Value:    looseString(c.Value),
	}
}

// ThankYouRule contributes Message when every condition holds.
type ThankYouRule struct {
	Conditions []Condition
	Message    string
}

// NewThankYouRule returns the rule added by the "add rule" action.
func NewThankYouRule() ThankYouRule {
	return ThankYouRule{
		Conditions: []Condition{NewScalarCondition()},
	}
}

// NewScalarCondition returns the blank condition added to a rule.
func NewScalarCondition() Condition {
	return ScalarCondition{Operator: OpEqual}
}

// ConditionPatch holds the fields to change on a condition. Nil fields are
// left untouched. Question and Questions both set the referenced questions;
// the variant chosen by Operator decides which shape is kept.
type ConditionPatch struct {
	Question  *string
	Questions []string
	Operator  *string
	Value     *string
}

// ApplyConditionPatch merges patch into c and re-normalises the result, so
// switching between a sum and a scalar operator converts the question refs.
func ApplyConditionPatch(c Condition, patch ConditionPatch) Condition {
	r := c.raw()
	if patch.Question != nil {
		r.Question = questionRef{ids: []string{*patch.Question}}
	}
	if patch.Questions != nil {
		r.Question = questionRef{ids: slices.Clone(patch.Questions), multi: true}
	}
	if patch.Operator != nil {
		r.Operator = *patch.Operator
	}
	if patch.Value != nil {
		r.Value = looseString(*patch.Value)
	}
	return r.normalize()
}

// Wire shapes.

type rawCondition struct {
	Question questionRef `json:"question"`
	Operator string      `json:"operator"`
	Value    looseString `json:"value"`
}

type rawRule struct {
	Conditions []rawCondition `json:"conditions"`
	Message    string         `json:"message"`
}

// normalize picks the variant from the operator family and fixes legacy
// shapes: a single ref on a sum becomes a one element list, a list on a
// scalar keeps its first element.
func (r rawCondition) normalize() Condition {
	if strings.HasPrefix(r.Operator, SumPrefix) {
		ids := make([]string, 0, len(r.Question.ids))
		for _, id := range r.Question.ids {
			if id != "" {
				ids = append(ids, id)
			}
		}
		return SumCondition{
			Questions:  ids,
			Comparison: strings.TrimPrefix(r.Operator, SumPrefix),
			Value:      string(r.Value),
		}
	}

	question := ""
	if len(r.Question.ids) > 0 {
		question = r.Question.ids[0]
	}
	return ScalarCondition{
		Question: question,
		Operator: r.Operator,
		Value:    string(r.Value),
	}
}

func (r ThankYouRule) MarshalJSON() ([]byte, error) {
	out := rawRule{
		Conditions: make([]rawCondition, 0, len(r.Conditions)),
		Message:    r.Message,
	}
	for _, c := range r.Conditions {
		if c == nil {
			continue
		}
		out.Conditions = append(out.Conditions, c.raw())
	}
	return json.Marshal(out)
}

func (r *ThankYouRule) UnmarshalJSON(data []byte) error {
	var in rawRule
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Message = in.Message
	r.Conditions = make([]Condition, 0, len(in.Conditions))
	for _, c := range in.Conditions {
		r.Conditions = append(r.Conditions, c.normalize())
	}
	return nil
}

// ParseThankYouLogic decodes a stored rule list. Entries that are not rule
// objects are skipped and an unreadable document yields no rules.
func ParseThankYouLogic(data []byte) []ThankYouRule {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return []ThankYouRule{}
	}

	rules := make([]ThankYouRule, 0, len(items))
	for _, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			continue
		}
		var rule ThankYouRule
		if err := json.Unmarshal(item, &rule); err != nil {
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// questionRef accepts a single id or a list of ids.
type questionRef struct {
	ids   []string
	multi bool
}

func (q questionRef) MarshalJSON() ([]byte, error) {
	if q.multi {
		return json.Marshal(q.ids)
	}
	if len(q.ids) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(q.ids[0])
}

func (q *questionRef) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		q.ids, q.multi = list, true
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		q.ids, q.multi = []string{single}, false
		return nil
	}

	q.ids, q.multi = nil, false
	return nil
}

// looseString decodes strings and numbers alike.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = looseString(num.String())
		return nil
	}

	*s = ""
	return nil
}

// RemapRuleQuestions rewrites the question references of rules through ids.
// References missing from ids are kept as they are.
func RemapRuleQuestions(rules []ThankYouRule, ids map[string]string) []ThankYouRule {
	lookup := func(id string) string {
		if mapped, ok := ids[id]; ok {
			return mapped
		}
		return id
	}

	out := make([]ThankYouRule, 0, len(rules))
	for _, r := range rules {
		conditions := make([]Condition, 0, len(r.Conditions))
		for _, c := range r.Conditions {
			switch c := c.(type) {
			case ScalarCondition:
				c.Question = lookup(c.Question)
				conditions = append(conditions, c)
			case SumCondition:
				questions := make([]string, len(c.Questions))
				for i, q := range c.Questions {
					questions[i] = lookup(q)
				}
				c.Questions = questions
				conditions = append(conditions, c)
			default:
				conditions = append(conditions, c)
			}
		}
		out = append(out, ThankYouRule{Conditions: conditions, Message: r.Message})
	}
	return out
}
