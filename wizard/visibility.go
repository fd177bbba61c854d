// Package wizard implements the multi-step form engine: per-field
// visibility conditions evaluated against the live answer set, step
// navigation (including conditional jumps), per-field validation and the
// final submit handoff.
package wizard

import (
	"strconv"
	"strings"

	"github.com/formflow/formflow/model"
)

// An evalFunc compares an answer against a condition value. answer is nil
// when the referenced field was never answered.
type evalFunc func(answer, want any) bool

// One handler per operator. Operators missing from this table fail open:
// a field with a malformed condition stays visible rather than being
// hidden unexpectedly.
var operators = map[model.Operator]evalFunc{
	model.OpEquals:      evalEquals,
	model.OpNotEquals:   func(a, w any) bool { return !evalEquals(a, w) },
	model.OpContains:    evalContains,
	model.OpGreaterThan: func(a, w any) bool { return evalCompare(a, w, 1) },
	model.OpLessThan:    func(a, w any) bool { return evalCompare(a, w, -1) },
}

// IsVisible reports whether a field should be rendered (and therefore
// validated) given the current answers. A field with no conditions is
// visible; otherwise every condition must hold. jump_to_step conditions
// drive navigation, not visibility, and are skipped here.
//
// Pure function of its inputs: callers re-evaluate on every render so
// visibility always tracks the latest answers.
func IsVisible(field model.Field, answers model.AnswerSet) bool {
	for _, cond := range field.Conditions {
		if cond.Action == model.ActionJumpToStep {
			continue
		}
		if !conditionHolds(cond, answers) {
			return false
		}
	}
	return true
}

func conditionHolds(cond model.Condition, answers model.AnswerSet) bool {
	eval, ok := operators[cond.Operator]
	if !ok {
		// a malformed condition never constrains visibility, whatever
		// its action says
		return true
	}
	matched := eval(answers[cond.FieldID], cond.Value)
	if cond.Action == model.ActionHide {
		// hide means: matching makes the field invisible
		return !matched
	}
	return matched
}

// Matches evaluates the condition's operator against the referenced
// field's current answer. An unanswered field yields a nil answer, which
// never panics: it simply fails to match any concrete value. An unknown
// operator never matches, so a malformed jump condition cannot redirect
// navigation.
func Matches(cond model.Condition, answers model.AnswerSet) bool {
	eval, ok := operators[cond.Operator]
	if !ok {
		return false
	}
	return eval(answers[cond.FieldID], cond.Value)
}

func evalEquals(answer, want any) bool {
	if answer == nil || want == nil {
		return answer == nil && want == nil
	}
	switch a := answer.(type) {
	case string:
		w, ok := want.(string)
		return ok && a == w
	case bool:
		w, ok := want.(bool)
		return ok && a == w
	default:
		// numbers arrive as float64 from JSON but may be typed ints when
		// built in memory; compare numerically when both sides coerce
		an, aok := numeric(answer)
		wn, wok := numeric(want)
		if aok && wok {
			return an == wn
		}
		return false
	}
}

func evalContains(answer, want any) bool {
	return strings.Contains(text(answer), text(want))
}

// evalCompare coerces both sides to numbers; sign selects the operator
// (1 for greater_than, -1 for less_than). Non-numeric operands fail
// closed, matching NaN comparison semantics.
func evalCompare(answer, want any, sign int) bool {
	an, aok := numeric(answer)
	wn, wok := numeric(want)
	if !aok || !wok {
		return false
	}
	if sign > 0 {
		return an > wn
	}
	return an < wn
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// text renders an answer for substring matching. Checkbox answers join
// their selections so "contains" can match a single selected option.
func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case []string:
		return strings.Join(s, ",")
	case []any:
		parts := make([]string, len(s))
		for i, e := range s {
			parts[i] = text(e)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}
