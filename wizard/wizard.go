package wizard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/formflow/formflow/model"
	"github.com/formflow/formflow/transport"
)

// Session states.
const (
	StateEditing      = "editing"
	StateSubmitting   = "submitting"
	StateSubmitted    = "submitted"
	StateSubmitFailed = "submit_failed"
)

var (
	ErrNoSteps          = errors.New("wizard: form has no steps")
	ErrFirstStep        = errors.New("wizard: already at the first step")
	ErrLastStep         = errors.New("wizard: already at the last step")
	ErrNotLastStep      = errors.New("wizard: submit is only allowed on the last step")
	ErrSubmitInFlight   = errors.New("wizard: a submit is already in flight")
	ErrAlreadySubmitted = errors.New("wizard: form was already submitted")
)

// Transport hands the final answer set to the collection endpoint.
// *transport.Client satisfies it.
type Transport interface {
	Submit(ctx context.Context, formID string, answers model.AnswerSet) (*transport.Result, error)
}

// Wizard is a single respondent's session over one form: the current step,
// the live answer set and the submit handoff. It owns its answer set
// exclusively; a Wizard must not be shared across sessions.
type Wizard struct {
	form  *model.Form
	steps []model.Step

	mu      sync.Mutex
	current int
	history []int
	answers model.AnswerSet
	state   string
	result  *transport.Result

	transport Transport
}

// New starts a session at step 0 with an empty answer set. Steps are
// ordered by their declared order; the form itself is treated as
// read-only for the whole session.
func New(form *model.Form, t Transport) (*Wizard, error) {
	if form == nil || len(form.Steps) == 0 {
		return nil, ErrNoSteps
	}
	steps := make([]model.Step, len(form.Steps))
	copy(steps, form.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	return &Wizard{
		form:      form,
		steps:     steps,
		answers:   model.AnswerSet{},
		state:     StateEditing,
		transport: t,
	}, nil
}

func (w *Wizard) Form() *model.Form { return w.form }

func (w *Wizard) StepCount() int { return len(w.steps) }

func (w *Wizard) State() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// StepIndex returns the current step's position in navigation order.
func (w *Wizard) StepIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Step returns the current step.
func (w *Wizard) Step() model.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps[w.current]
}

// VisibleFields filters the current step's fields through the visibility
// evaluator against the latest answers.
func (w *Wizard) VisibleFields() []model.Field {
	w.mu.Lock()
	defer w.mu.Unlock()

	var fields []model.Field
	for _, f := range w.steps[w.current].Fields {
		if IsVisible(f, w.answers) {
			fields = append(fields, f)
		}
	}
	return fields
}

// SetAnswer records the respondent's value for a field. Answers survive
// step transitions and failed submits; only Reset discards them.
func (w *Wizard) SetAnswer(fieldID string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateEditing, StateSubmitFailed:
		w.answers[fieldID] = value
		return nil
	case StateSubmitting:
		return ErrSubmitInFlight
	default:
		return ErrAlreadySubmitted
	}
}

// Answer returns the recorded value for a field, nil if unanswered.
func (w *Wizard) Answer(fieldID string) any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.answers[fieldID]
}

// Answers returns a snapshot of the answer set.
func (w *Wizard) Answers() model.AnswerSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Wizard) snapshot() model.AnswerSet {
	snap := make(model.AnswerSet, len(w.answers))
	for k, v := range w.answers {
		snap[k] = v
	}
	return snap
}

// Next advances the session. A jump_to_step condition on a visible field
// of the current step takes precedence over sequential advance; otherwise
// the next step in order is entered. At the last step, with no jump
// matching, Next is disallowed.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateEditing {
		return ErrAlreadySubmitted
	}

	target := w.jumpTarget()
	if target < 0 {
		if w.current >= len(w.steps)-1 {
			return ErrLastStep
		}
		target = w.current + 1
	}

	w.history = append(w.history, w.current)
	w.current = target
	return nil
}

// jumpTarget scans the current step's visible fields for a jump_to_step
// condition matching the current answers. Returns the target step index,
// or -1 for sequential navigation. A target naming an unknown step is
// ignored, like an unknown operator.
func (w *Wizard) jumpTarget() int {
	for _, field := range w.steps[w.current].Fields {
		if !IsVisible(field, w.answers) {
			continue
		}
		for _, cond := range field.Conditions {
			if cond.Action != model.ActionJumpToStep {
				continue
			}
			if !Matches(cond, w.answers) {
				continue
			}
			for i, step := range w.steps {
				if step.ID == cond.Target && i != w.current {
					return i
				}
			}
		}
	}
	return -1
}

// visitedSteps returns the navigation path actually taken, ending at
// the current step. A step skipped by a jump was never presented, so
// its fields carry no obligations at submit time.
func (w *Wizard) visitedSteps() []model.Step {
	steps := make([]model.Step, 0, len(w.history)+1)
	for _, i := range w.history {
		steps = append(steps, w.steps[i])
	}
	return append(steps, w.steps[w.current])
}

// Previous retraces the actual path taken, so a conditional jump is
// undone to the step it came from, not to the numerically prior one.
func (w *Wizard) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateEditing && w.state != StateSubmitFailed {
		return ErrAlreadySubmitted
	}
	if len(w.history) == 0 {
		return ErrFirstStep
	}

	w.current = w.history[len(w.history)-1]
	w.history = w.history[:len(w.history)-1]
	w.state = StateEditing
	return nil
}

// Submit packages the answer set and hands it to the transport. Allowed
// only on the last step, with every visible required field on the steps
// actually visited populated and valid. Exactly one transport call is
// issued per invocation; a second
// Submit while one is outstanding fails with ErrSubmitInFlight.
//
// On transport failure the session returns to an editable state at the
// same step with answers intact, so the respondent can retry.
func (w *Wizard) Submit(ctx context.Context) (*transport.Result, error) {
	w.mu.Lock()
	switch w.state {
	case StateSubmitting:
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateSubmitted:
		w.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if w.current != len(w.steps)-1 {
		w.mu.Unlock()
		return nil, ErrNotLastStep
	}
	if errs := ValidateAll(w.visitedSteps(), w.answers); len(errs) > 0 {
		w.mu.Unlock()
		return nil, errs
	}

	w.state = StateSubmitting
	answers := w.snapshot()
	formID := w.form.ID
	w.mu.Unlock()

	result, err := w.transport.Submit(ctx, formID, answers)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateSubmitFailed
		return nil, err
	}
	w.state = StateSubmitted
	w.result = result
	return result, nil
}

// Result returns the transport result after a successful submit.
func (w *Wizard) Result() *transport.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Reset returns to step 0 with a cleared answer set.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = 0
	w.history = nil
	w.answers = model.AnswerSet{}
	w.state = StateEditing
	w.result = nil
}
