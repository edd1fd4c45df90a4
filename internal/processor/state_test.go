package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menulens/internal/menu"
)

func TestStateTrackerLifecycle(t *testing.T) {
	tracker := NewStateTracker()

	tracker.Create("run-1", func() {}, nil)

	state, ok := tracker.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, menu.StageUpload, state.Stage)
	assert.Zero(t, state.Progress)
	assert.Empty(t, state.Errors)
	assert.False(t, state.StartTime.IsZero())

	tracker.Remove("run-1")
	_, ok = tracker.Get("run-1")
	assert.False(t, ok, "removed runs are indistinguishable from unknown ones")
}

func TestStateTrackerMonotoneProgress(t *testing.T) {
	tracker := NewStateTracker()
	tracker.Create("run-1", func() {}, nil)

	tracker.Update("run-1", menu.StageExtracting, 30)
	tracker.Update("run-1", menu.StageExtracting, 10)

	state, _ := tracker.Get("run-1")
	assert.Equal(t, 30, state.Progress, "progress must never decrease")

	tracker.Update("run-1", menu.StageEnriching, 150)
	state, _ = tracker.Get("run-1")
	assert.Equal(t, 100, state.Progress, "progress is clamped to 100")
}

func TestStateTrackerForwardOnlyStages(t *testing.T) {
	tracker := NewStateTracker()
	tracker.Create("run-1", func() {}, nil)

	tracker.Update("run-1", menu.StageEnriching, 50)
	tracker.Update("run-1", menu.StageExtracting, 60)

	state, _ := tracker.Get("run-1")
	assert.Equal(t, menu.StageEnriching, state.Stage, "stage transitions are forward-only")
	assert.Equal(t, 60, state.Progress, "progress still advances when the stage update is stale")
}

func TestStateTrackerAppendError(t *testing.T) {
	tracker := NewStateTracker()
	tracker.Create("run-1", func() {}, nil)

	tracker.AppendError("run-1", menu.NewProcessingError(menu.ErrorTypeImageSearch, "no images"))
	tracker.AppendError("run-1", menu.NewFatalError(menu.ErrorTypeParsing, "no dishes"))

	errs := tracker.Errors("run-1")
	require.Len(t, errs, 2)
	assert.True(t, errs[0].Recoverable)
	assert.False(t, errs[1].Recoverable)

	// Appending to an unknown run is a no-op.
	tracker.AppendError("missing", menu.NewProcessingError(menu.ErrorTypeOCR, "x"))
	assert.Nil(t, tracker.Errors("missing"))
}

func TestStateTrackerSnapshotIsolation(t *testing.T) {
	tracker := NewStateTracker()
	tracker.Create("run-1", func() {}, nil)
	tracker.AppendError("run-1", menu.NewProcessingError(menu.ErrorTypeOCR, "first"))

	state, _ := tracker.Get("run-1")
	state.Errors[0].Message = "mutated"

	fresh, _ := tracker.Get("run-1")
	assert.Equal(t, "first", fresh.Errors[0].Message, "snapshots must not alias tracker state")
}

func TestStateTrackerCallbacks(t *testing.T) {
	tracker := NewStateTracker()

	var snapshots []menu.ProcessingState
	tracker.Create("run-1", func() {}, func(id string, state menu.ProcessingState) {
		assert.Equal(t, "run-1", id)
		snapshots = append(snapshots, state)
	})

	tracker.Update("run-1", menu.StageExtracting, 10)
	tracker.Update("run-1", menu.StageComplete, 100)

	require.Len(t, snapshots, 3, "create and each update notify the callback")
	assert.Equal(t, menu.StageUpload, snapshots[0].Stage)
	assert.Equal(t, 100, snapshots[2].Progress)
}

func TestStateTrackerCallbackPanicContained(t *testing.T) {
	tracker := NewStateTracker()
	tracker.Create("run-1", func() {}, func(string, menu.ProcessingState) {
		panic("bad callback")
	})

	assert.NotPanics(t, func() {
		tracker.Update("run-1", menu.StageExtracting, 10)
	})

	state, ok := tracker.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, 10, state.Progress, "the update lands even when the callback panics")
}

func TestStateTrackerCancel(t *testing.T) {
	tracker := NewStateTracker()

	cancelled := false
	var final menu.ProcessingState
	tracker.Create("run-1", func() { cancelled = true }, func(id string, state menu.ProcessingState) {
		final = state
	})

	assert.True(t, tracker.Cancel("run-1"))
	assert.True(t, cancelled, "cancelling must invoke the run's cancel function")

	_, ok := tracker.Get("run-1")
	assert.False(t, ok, "cancel removes the state immediately")

	require.Len(t, final.Errors, 1, "the final snapshot carries the cancellation error")
	assert.False(t, final.Errors[0].Recoverable)

	assert.False(t, tracker.Cancel("unknown"))
	assert.False(t, tracker.Cancel("run-1"), "a removed run can no longer be cancelled")
}

func TestStateTrackerCreateRejectsDuplicateID(t *testing.T) {
	tracker := NewStateTracker()

	firstCancelled := false
	require.True(t, tracker.Create("run-1", func() { firstCancelled = true }, nil))
	tracker.Update("run-1", menu.StageExtracting, 10)

	assert.False(t, tracker.Create("run-1", func() {}, nil))

	state, ok := tracker.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, 10, state.Progress, "the existing run is untouched by the rejected create")

	require.True(t, tracker.Cancel("run-1"))
	assert.True(t, firstCancelled, "the original cancel function stays wired")
}

func TestStateTrackerActiveCount(t *testing.T) {
	tracker := NewStateTracker()
	assert.Zero(t, tracker.ActiveCount())

	tracker.Create("a", func() {}, nil)
	tracker.Create("b", func() {}, nil)
	assert.Equal(t, 2, tracker.ActiveCount())

	tracker.Remove("a")
	assert.Equal(t, 1, tracker.ActiveCount())
}
