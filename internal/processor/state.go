package processor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"menulens/internal/logger"
	"menulens/internal/menu"
)

// ProgressCallback receives a snapshot of the processing state after each
// change. Callbacks run outside the tracker's lock and must not assume they
// are called from any particular goroutine.
type ProgressCallback func(processingID string, state menu.ProcessingState)

// trackedRun is the tracker's record of one in-flight request.
type trackedRun struct {
	state    menu.ProcessingState
	cancel   context.CancelFunc
	callback ProgressCallback
}

// StateTracker owns the mutable per-request processing state. All reads hand
// out snapshot copies; the internal state is only mutated under the lock.
// Progress is monotonically non-decreasing and stage transitions are
// forward-only; violating updates are clamped, not errored.
type StateTracker struct {
	mu   sync.Mutex
	runs map[string]*trackedRun
	log  zerolog.Logger

	// notifyMu serializes snapshot-plus-delivery so callbacks observe
	// updates in the order they were applied, even under concurrent
	// enrichment workers. It is never held while mu is acquired by a
	// callback, so callbacks may safely call Get.
	notifyMu sync.Mutex
}

// NewStateTracker creates an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{
		runs: make(map[string]*trackedRun),
		log:  logger.WithComponent("state-tracker"),
	}
}

// Create registers a new run at the upload stage. The cancel function is
// invoked when the run is cancelled through Cancel. It returns false, leaving
// the existing run untouched, when the ID is already tracked.
func (t *StateTracker) Create(processingID string, cancel context.CancelFunc, callback ProgressCallback) bool {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if _, exists := t.runs[processingID]; exists {
		t.mu.Unlock()
		return false
	}
	run := &trackedRun{
		state: menu.ProcessingState{
			Stage:     menu.StageUpload,
			Progress:  0,
			Errors:    []menu.ProcessingError{},
			StartTime: time.Now(),
		},
		cancel:   cancel,
		callback: callback,
	}
	t.runs[processingID] = run
	snapshot := snapshotState(run.state)
	t.mu.Unlock()

	t.notify(processingID, callback, snapshot)
	return true
}

// Update advances the run to the given stage and progress. Backward stage
// transitions and progress decreases are ignored in favor of the current
// values, so concurrent completion updates can never roll the state back.
func (t *StateTracker) Update(processingID string, stage menu.Stage, progress int) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	run, ok := t.runs[processingID]
	if !ok {
		t.mu.Unlock()
		return
	}
	if run.state.Stage.Before(stage) {
		run.state.Stage = stage
	}
	if progress > run.state.Progress {
		if progress > 100 {
			progress = 100
		}
		run.state.Progress = progress
	}
	snapshot := snapshotState(run.state)
	callback := run.callback
	t.mu.Unlock()

	t.notify(processingID, callback, snapshot)
}

// AppendError records a failure against the run. Missing runs are ignored;
// errors observed after cleanup have nowhere to go.
func (t *StateTracker) AppendError(processingID string, procErr menu.ProcessingError) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	run, ok := t.runs[processingID]
	if !ok {
		t.mu.Unlock()
		return
	}
	run.state.Errors = append(run.state.Errors, procErr)
	snapshot := snapshotState(run.state)
	callback := run.callback
	t.mu.Unlock()

	t.notify(processingID, callback, snapshot)
}

// Get returns a snapshot of the run's state. The second return is false when
// the run is unknown, which covers both never-started and already-cleaned-up
// requests; the tracker keeps no history.
func (t *StateTracker) Get(processingID string) (menu.ProcessingState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, ok := t.runs[processingID]
	if !ok {
		return menu.ProcessingState{}, false
	}
	return snapshotState(run.state), true
}

// Errors returns a snapshot of the errors recorded so far for the run.
func (t *StateTracker) Errors(processingID string) []menu.ProcessingError {
	t.mu.Lock()
	defer t.mu.Unlock()
	run, ok := t.runs[processingID]
	if !ok {
		return nil
	}
	return append([]menu.ProcessingError(nil), run.state.Errors...)
}

// Cancel aborts the run: it appends a non-recoverable cancellation error,
// delivers the final snapshot to the callback, removes the state, and cancels
// the run's context. It reports whether an active run was found. After Cancel
// returns true, Get for the same ID returns false; the processing goroutine
// observes the cancelled context and finishes on its own.
func (t *StateTracker) Cancel(processingID string) bool {
	t.notifyMu.Lock()
	t.mu.Lock()
	run, ok := t.runs[processingID]
	var (
		cancel   context.CancelFunc
		callback ProgressCallback
		snapshot menu.ProcessingState
	)
	if ok {
		run.state.Errors = append(run.state.Errors,
			menu.NewFatalError(menu.ErrorTypeNetwork, "processing cancelled by caller"))
		snapshot = snapshotState(run.state)
		callback = run.callback
		cancel = run.cancel
		delete(t.runs, processingID)
	}
	t.mu.Unlock()
	if ok {
		t.notify(processingID, callback, snapshot)
	}
	t.notifyMu.Unlock()

	if !ok {
		return false
	}
	if cancel != nil {
		cancel()
	}
	t.log.Info().Str("processing_id", processingID).Msg("Processing cancelled")
	return true
}

// Remove drops the run's state. Safe to call for unknown IDs.
func (t *StateTracker) Remove(processingID string) {
	t.mu.Lock()
	delete(t.runs, processingID)
	t.mu.Unlock()
}

// ActiveCount returns the number of runs currently tracked.
func (t *StateTracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.runs)
}

// notify invokes the callback outside the lock, recovering panics so a
// misbehaving callback cannot take down the pipeline.
func (t *StateTracker) notify(processingID string, callback ProgressCallback, state menu.ProcessingState) {
	if callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().
				Str("processing_id", processingID).
				Interface("panic", r).
				Msg("Progress callback panicked")
		}
	}()
	callback(processingID, state)
}

// snapshotState deep-copies the error slice so callers cannot observe later
// mutations.
func snapshotState(state menu.ProcessingState) menu.ProcessingState {
	state.Errors = append([]menu.ProcessingError(nil), state.Errors...)
	return state
}
