package services

import (
	"strings"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/compare"
)

// Answers maps a question id to the raw answer given. A missing key means
// the question was never answered.
type Answers map[string]string

// Fixed scores for the frequency scale used by screening questionnaires.
var phraseScores = map[string]float64{
	"ya":                          1,
	"yes":                         1,
	"tidak":                       0,
	"no":                          0,
	"tidak sama sekali":           0,
	"kurang dari 1 (satu) minggu": 1,
	"lebih dari 1 (satu) minggu":  2,
	"hampir setiap hari":          3,
}

var sumComparisons = map[string]bool{
	"==": true,
	"!=": true,
	">":  true,
	"<":  true,
	">=": true,
	"<=": true,
}

var numericOperators = map[string]bool{
	models.OpGreater:      true,
	models.OpLess:         true,
	models.OpGreaterEqual: true,
	models.OpLessEqual:    true,
	models.OpPlus:         true,
	models.OpMinus:        true,
}

// MapAnswerToValue turns a raw answer into a number. Blank answers and
// anything it cannot read count as zero.
func MapAnswerToValue(answer string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return 0
	}

	if score, ok := phraseScores[normalized]; ok {
		return score
	}

	if n, ok := compare.ParseNumber(normalized); ok {
		return n
	}

	return 0
}

// EvalCondition reports whether a single condition holds for the answers.
func EvalCondition(cond models.Condition, answers Answers) bool {
	switch c := cond.(type) {
	case models.SumCondition:
		return evalSum(c, answers)
	case models.ScalarCondition:
		return evalScalar(c, answers)
	default:
		return false
	}
}

func evalSum(c models.SumCondition, answers Answers) bool {
	if !sumComparisons[c.Comparison] {
		return false
	}

	var sum float64
	for _, id := range c.Questions {
		sum += MapAnswerToValue(answers[id])
	}

	return compare.Numbers(c.Comparison, sum, compare.Number(c.Value))
}

func evalScalar(c models.ScalarCondition, answers Answers) bool {
	answer, answered := answers[c.Question]

	if numericOperators[c.Operator] {
		return compare.Numbers(c.Operator, MapAnswerToValue(answer), compare.Number(c.Value))
	}

	switch c.Operator {
	case models.OpEqual:
		if !answered {
			return false
		}
		left := strings.ToLower(strings.TrimSpace(answer))
		right := strings.ToLower(strings.TrimSpace(c.Value))
		if right == "1" && left == "ya" || right == "0" && left == "tidak" {
			return true
		}
		return compare.Strings("==", left, right)
	case models.OpNotEqual:
		if !answered {
			return true
		}
		return compare.Strings("!=", answer, c.Value)
	case models.OpContains:
		if !answered {
			return false
		}
		return compare.Strings("contains", answer, c.Value)
	default:
		return false
	}
}

// RuleMatches reports whether every condition of the rule holds.
func RuleMatches(rule models.ThankYouRule, answers Answers) bool {
	for _, cond := range rule.Conditions {
		if !EvalCondition(cond, answers) {
			return false
		}
	}
	return true
}

// EvaluateRules returns the messages of all matching rules in declaration
// order. Every rule is checked; empty messages are dropped.
func EvaluateRules(rules []models.ThankYouRule, answers Answers) []string {
	messages := []string{}
	for _, rule := range rules {
		if rule.Message == "" {
			continue
		}
		if RuleMatches(rule, answers) {
			messages = append(messages, rule.Message)
		}
	}
	return messages
}
