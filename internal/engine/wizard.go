package engine

import (
	"errors"

	"github.com/dta-platform/assessment-engine/internal/models"
)

var (
	// ErrWizardAtStart is returned when Back is invoked at the first step
	// of the first module.
	ErrWizardAtStart = errors.New("wizard is at the first step")
	// ErrWizardCompleted is returned when Next or Back is invoked after
	// the terminal transition.
	ErrWizardCompleted = errors.New("wizard already completed")
	// ErrSubmissionPending guards against overlapping submissions for the
	// same session.
	ErrSubmissionPending = errors.New("a submission is already in flight")
	// ErrWizardEmpty is returned when a wizard is built over a tree with
	// no steps.
	ErrWizardEmpty = errors.New("wizard has no steps")
)

// Wizard drives respondent navigation over a grouped definition tree.
// AssessmentIndex is carried for forward compatibility with
// multi-assessment sequences and is always 0 in the current scope.
type Wizard struct {
	groups [][]Step

	AssessmentIndex int
	ModuleIndex     int
	StepIndex       int

	completed bool
	pending   bool
}

// NewWizard builds a wizard over a grouped tree.
func NewWizard(groups []ModuleGroup) (*Wizard, error) {
	if TotalSteps(groups) == 0 {
		return nil, ErrWizardEmpty
	}
	steps := make([][]Step, len(groups))
	for i, g := range groups {
		steps[i] = g.Steps
	}
	return &Wizard{groups: steps}, nil
}

// Restore rebuilds a wizard at a previously saved position.
func Restore(groups []ModuleGroup, moduleIndex, stepIndex int, completed bool) (*Wizard, error) {
	w, err := NewWizard(groups)
	if err != nil {
		return nil, err
	}
	if moduleIndex < 0 || moduleIndex >= len(w.groups) {
		return nil, errors.New("restored module index out of range")
	}
	if stepIndex < 0 || stepIndex >= len(w.groups[moduleIndex]) {
		return nil, errors.New("restored step index out of range")
	}
	w.ModuleIndex = moduleIndex
	w.StepIndex = stepIndex
	w.completed = completed
	return w, nil
}

// CurrentQuestions returns the question set of the current step.
func (w *Wizard) CurrentQuestions() []models.Question {
	return w.groups[w.ModuleIndex][w.StepIndex].Questions
}

// Completed reports whether the terminal transition has fired.
func (w *Wizard) Completed() bool {
	return w.completed
}

// Next advances one step. The terminal transition on the final step of the
// final module marks the wizard completed and returns done=true; scoring is
// the caller's next move.
func (w *Wizard) Next() (done bool, err error) {
	if w.completed {
		return false, ErrWizardCompleted
	}
	if w.pending {
		return false, ErrSubmissionPending
	}
	if w.StepIndex < len(w.groups[w.ModuleIndex])-1 {
		w.StepIndex++
		return false, nil
	}
	if w.ModuleIndex < len(w.groups)-1 {
		w.ModuleIndex++
		w.StepIndex = 0
		return false, nil
	}
	w.completed = true
	return true, nil
}

// Back moves one step backwards; stepping back across a module boundary
// lands on the last step of the previous module. Back from the terminal
// state is not defined in this engine.
func (w *Wizard) Back() error {
	if w.completed {
		return ErrWizardCompleted
	}
	if w.StepIndex > 0 {
		w.StepIndex--
		return nil
	}
	if w.ModuleIndex > 0 {
		w.ModuleIndex--
		w.StepIndex = len(w.groups[w.ModuleIndex]) - 1
		return nil
	}
	return ErrWizardAtStart
}

// CanGoBack reports whether Back is enabled at the current position.
func (w *Wizard) CanGoBack() bool {
	return !w.completed && (w.StepIndex > 0 || w.ModuleIndex > 0)
}

// Progress returns the display percentage
// (moduleIndex + stepIndex/stepsInModule) / totalModules. Monotonically
// non-decreasing under Next, non-increasing under Back.
func (w *Wizard) Progress() float64 {
	if w.completed {
		return 100
	}
	stepsInModule := float64(len(w.groups[w.ModuleIndex]))
	fraction := (float64(w.ModuleIndex) + float64(w.StepIndex)/stepsInModule) / float64(len(w.groups))
	return fraction * 100
}

// BeginSubmission sets the in-flight guard; further Next calls fail until
// EndSubmission runs.
func (w *Wizard) BeginSubmission() error {
	if w.pending {
		return ErrSubmissionPending
	}
	w.pending = true
	return nil
}

// EndSubmission clears the in-flight guard, whether the submission
// succeeded or failed.
func (w *Wizard) EndSubmission() {
	w.pending = false
}

// Pending reports whether a submission is in flight.
func (w *Wizard) Pending() bool {
	return w.pending
}
