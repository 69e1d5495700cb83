package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wizardFixture(t *testing.T) *Wizard {
	t.Helper()
	groups := Group(testQuestions(), testModules())
	w, err := NewWizard(groups)
	require.NoError(t, err)
	return w
}

func TestNewWizard_EmptyTree(t *testing.T) {
	_, err := NewWizard(nil)
	assert.ErrorIs(t, err, ErrWizardEmpty)
}

func TestWizard_NextWalksToCompletion(t *testing.T) {
	w := wizardFixture(t)

	done, err := w.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, w.ModuleIndex)
	assert.Equal(t, 1, w.StepIndex)

	done, err = w.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, w.ModuleIndex)
	assert.Equal(t, 0, w.StepIndex)

	done, err = w.Next()
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, w.Completed())

	_, err = w.Next()
	assert.ErrorIs(t, err, ErrWizardCompleted)
}

func TestWizard_ProgressMonotonicUnderNext(t *testing.T) {
	w := wizardFixture(t)

	previous := w.Progress()
	assert.Equal(t, float64(0), previous)
	for {
		done, err := w.Next()
		require.NoError(t, err)
		current := w.Progress()
		assert.GreaterOrEqual(t, current, previous)
		previous = current
		if done {
			break
		}
	}
	assert.Equal(t, float64(100), w.Progress())
}

func TestWizard_BackIsExactInverseOfNext(t *testing.T) {
	w := wizardFixture(t)

	type position struct{ module, step int }
	var trail []position

	// Walk forward to the last step, recording every position.
	trail = append(trail, position{w.ModuleIndex, w.StepIndex})
	for i := 0; i < 2; i++ {
		_, err := w.Next()
		require.NoError(t, err)
		trail = append(trail, position{w.ModuleIndex, w.StepIndex})
	}

	// Walk backward and compare against the recorded trail in reverse.
	for i := len(trail) - 2; i >= 0; i-- {
		require.NoError(t, w.Back())
		assert.Equal(t, trail[i].module, w.ModuleIndex)
		assert.Equal(t, trail[i].step, w.StepIndex)
	}

	assert.ErrorIs(t, w.Back(), ErrWizardAtStart)
}

func TestWizard_BackAcrossModuleBoundary(t *testing.T) {
	w := wizardFixture(t)
	_, err := w.Next()
	require.NoError(t, err)
	_, err = w.Next()
	require.NoError(t, err)
	require.Equal(t, 1, w.ModuleIndex)

	require.NoError(t, w.Back())
	assert.Equal(t, 0, w.ModuleIndex)
	assert.Equal(t, 1, w.StepIndex, "must land on the last step of the previous module")
}

func TestWizard_CanGoBack(t *testing.T) {
	w := wizardFixture(t)
	assert.False(t, w.CanGoBack())

	_, err := w.Next()
	require.NoError(t, err)
	assert.True(t, w.CanGoBack())
}

func TestWizard_SubmissionGuard(t *testing.T) {
	w := wizardFixture(t)

	require.NoError(t, w.BeginSubmission())
	assert.True(t, w.Pending())
	assert.ErrorIs(t, w.BeginSubmission(), ErrSubmissionPending)

	_, err := w.Next()
	assert.ErrorIs(t, err, ErrSubmissionPending)

	w.EndSubmission()
	assert.False(t, w.Pending())
	_, err = w.Next()
	assert.NoError(t, err)
}

func TestRestore(t *testing.T) {
	groups := Group(testQuestions(), testModules())

	w, err := Restore(groups, 1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, w.ModuleIndex)
	assert.Equal(t, "q3", w.CurrentQuestions()[0].ID)

	_, err = Restore(groups, 5, 0, false)
	assert.Error(t, err)
	_, err = Restore(groups, 0, 9, false)
	assert.Error(t, err)
}
