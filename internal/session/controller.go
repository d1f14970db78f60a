package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/fsm"
)

var (
	// ErrUploadInFlight indicates an analysis upload is still outstanding.
	ErrUploadInFlight = errors.New("an upload is still in progress")
	// ErrFinishInFlight indicates a finalize call is still outstanding.
	ErrFinishInFlight = errors.New("finish already in progress")
	// ErrRecordingActive indicates the current question is still recording.
	ErrRecordingActive = errors.New("a recording is in progress; stop or cancel it first")
	// ErrIncomplete indicates finish was requested before every question was answered.
	ErrIncomplete = errors.New("all questions must be answered before finishing")
	// ErrNoAnswers indicates finish was requested with nothing committed.
	ErrNoAnswers = errors.New("finish requires at least one committed answer")
	// ErrSessionClosed indicates the session was torn down.
	ErrSessionClosed = errors.New("session is closed")
)

// Recorder is the controller-facing subset of the media capture unit.
type Recorder interface {
	Acquire(ctx context.Context) error
	Start(ctx context.Context) error
	Stop() (capture.Clip, error)
	Release()
	State() capture.State
}

// Indicator is the session-facing subset of progress display behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowUploading(context.Context)
	ShowAggregating(context.Context)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) ShowUploading(context.Context)     {}
func (noopIndicator) ShowAggregating(context.Context)   {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) Hide(context.Context)              {}

// Status is one observable snapshot of session progress.
type Status struct {
	Question  int
	Total     int
	State     fsm.State
	Answered  int
	Watermark int
	Uploading bool
	Finishing bool
	Reviewed  bool
}

// Controller serializes every state transition for one assessment session. It
// is the only component that decides when recording may start, when an upload
// may proceed, and when the session may be finished.
type Controller struct {
	logger    *slog.Logger
	store     *Store
	recorder  Recorder
	analyzer  Analyzer
	finalizer Finalizer
	indicator Indicator

	mu        sync.Mutex
	states    []fsm.State
	uploading int // question index with an in-flight upload, -1 when none
	finishing bool
	reviewed  bool
	closed    bool
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	store *Store,
	recorder Recorder,
	analyzer Analyzer,
	finalizer Finalizer,
	indicator Indicator,
) *Controller {
	if analyzer == nil {
		analyzer = placeholderAnalyzer{}
	}
	if finalizer == nil {
		finalizer = placeholderFinalizer{}
	}
	if indicator == nil {
		indicator = noopIndicator{}
	}

	states := make([]fsm.State, store.Len())
	for i := range states {
		states[i] = fsm.StateUnanswered
	}

	return &Controller{
		logger:    logger,
		store:     store,
		recorder:  recorder,
		analyzer:  analyzer,
		finalizer: finalizer,
		indicator: indicator,
		states:    states,
		uploading: -1,
	}
}

// Store exposes the session state for read-only rendering.
func (c *Controller) Store() *Store {
	return c.store
}

// QuestionState returns the lifecycle state of one question.
func (c *Controller) QuestionState(index int) fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.states) {
		return fsm.StateUnanswered
	}
	return c.states[index]
}

// Snapshot returns the observable session status.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.store.Current()
	return Status{
		Question:  current,
		Total:     c.store.Len(),
		State:     c.states[current],
		Answered:  c.store.AnsweredCount(),
		Watermark: c.store.Watermark(),
		Uploading: c.uploading != -1,
		Finishing: c.finishing,
		Reviewed:  c.reviewed,
	}
}

// Reviewed reports whether the session reached its terminal state.
func (c *Controller) Reviewed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reviewed
}

// StartRecording acquires the device and begins recording the current
// question. Redoing an answered question is permitted; its stored feedback
// survives until a new upload commits.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSessionClosed
	}
	if c.finishing {
		return ErrFinishInFlight
	}
	if c.uploading != -1 {
		return ErrUploadInFlight
	}

	index := c.store.Current()
	next, err := fsm.Transition(c.states[index], fsm.EventRecord)
	if err != nil {
		return err
	}

	if err := c.recorder.Acquire(ctx); err != nil {
		c.indicator.ShowError(ctx, "Unable to access camera or microphone")
		return err
	}
	if err := c.recorder.Start(ctx); err != nil {
		c.recorder.Release()
		c.indicator.ShowError(ctx, "Unable to start recording")
		return err
	}

	c.states[index] = next
	c.indicator.ShowRecording(ctx)
	c.logInfo("recording started", "question", index)
	return nil
}

// CancelRecording discards the active recording and releases the device.
func (c *Controller) CancelRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := c.store.Current()
	next, err := fsm.Transition(c.states[index], fsm.EventCancel)
	if err != nil {
		return err
	}

	c.recorder.Release()
	c.states[index] = next
	c.indicator.Hide(ctx)
	c.logInfo("recording cancelled", "question", index)
	return nil
}

// CloseCamera releases an acquired-but-not-recording device. It is the clean
// synchronous path for backing out of the camera view while idle.
func (c *Controller) CloseCamera(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recorder.State() != capture.StateDeviceActive {
		return
	}
	c.recorder.Release()
	c.indicator.Hide(ctx)
}

// StopAndSubmit finalizes the active recording and uploads the clip for
// analysis. On success the feedback is committed and the question becomes
// answered; on failure the clip is discarded, the question rolls back to
// unanswered, and the caller may retry. The device is released on every path.
func (c *Controller) StopAndSubmit(ctx context.Context) (feedback.Feedback, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return feedback.Feedback{}, ErrSessionClosed
	}

	index := c.store.Current()
	next, err := fsm.Transition(c.states[index], fsm.EventStop)
	if err != nil {
		c.mu.Unlock()
		return feedback.Feedback{}, err
	}

	clip, err := c.recorder.Stop()
	c.recorder.Release()
	if err != nil {
		c.states[index] = fsm.StateUnanswered
		c.mu.Unlock()
		c.indicator.ShowError(ctx, "Recording could not be finalized")
		return feedback.Feedback{}, err
	}
	if clip.Empty() {
		c.states[index] = fsm.StateUnanswered
		c.mu.Unlock()
		c.indicator.ShowError(ctx, "No media captured")
		return feedback.Feedback{}, capture.ErrEmptyClip
	}

	question, err := c.store.Question(index)
	if err != nil {
		c.states[index] = fsm.StateUnanswered
		c.mu.Unlock()
		return feedback.Feedback{}, err
	}
	quizID := c.store.QuizID()

	c.states[index] = next
	c.uploading = index
	c.mu.Unlock()

	c.indicator.ShowUploading(ctx)
	started := time.Now()
	fb, analyzeErr := c.analyzer.Analyze(ctx, clip, question, quizID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = -1

	if c.closed {
		// The session was torn down while the upload was in flight; the
		// result must not land anywhere.
		return feedback.Feedback{}, ErrSessionClosed
	}

	if analyzeErr != nil {
		c.states[index], _ = fsm.Transition(c.states[index], fsm.EventFail)
		c.indicator.ShowError(ctx, "Analysis failed; you may retry this question")
		c.logError("analysis failed", analyzeErr, "question", index, "upload_ms", time.Since(started).Milliseconds())
		return feedback.Feedback{}, analyzeErr
	}

	c.states[index], _ = fsm.Transition(c.states[index], fsm.EventUploaded)
	if err := c.store.CommitFeedback(index, fb); err != nil {
		return feedback.Feedback{}, err
	}
	c.indicator.Hide(ctx)
	c.logInfo("feedback committed",
		"question", index,
		"watermark", c.store.Watermark(),
		"clip_bytes", len(clip.Audio)+len(clip.Video),
		"upload_ms", time.Since(started).Milliseconds(),
	)
	return fb, nil
}

// NavigateTo moves to another question. Navigation is refused while a
// recording or upload is active so no device handle or submission is orphaned.
func (c *Controller) NavigateTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSessionClosed
	}
	if c.uploading != -1 {
		return ErrUploadInFlight
	}
	if c.states[c.store.Current()] == fsm.StateRecording {
		return ErrRecordingActive
	}
	return c.store.NavigateTo(index)
}

// Next advances to the following question.
func (c *Controller) Next() error {
	return c.NavigateTo(c.store.Current() + 1)
}

// Prev returns to the preceding question.
func (c *Controller) Prev() error {
	return c.NavigateTo(c.store.Current() - 1)
}

// Finish aggregates all committed answers into the final report and moves the
// session to its terminal reviewed state. Aggregation failure leaves every
// answer intact; finishing may be retried without re-uploading any clip.
func (c *Controller) Finish(ctx context.Context) (feedback.FinalReport, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return feedback.FinalReport{}, ErrSessionClosed
	}
	if c.reviewed {
		report, _ := c.store.FinalReport()
		c.mu.Unlock()
		return report, nil
	}
	if c.finishing {
		c.mu.Unlock()
		return feedback.FinalReport{}, ErrFinishInFlight
	}
	if c.uploading != -1 {
		c.mu.Unlock()
		return feedback.FinalReport{}, ErrUploadInFlight
	}
	if c.states[c.store.Current()] == fsm.StateRecording {
		c.mu.Unlock()
		return feedback.FinalReport{}, ErrRecordingActive
	}
	if c.store.AnsweredCount() == 0 {
		c.mu.Unlock()
		return feedback.FinalReport{}, ErrNoAnswers
	}
	if !c.store.AllAnswered() {
		c.mu.Unlock()
		return feedback.FinalReport{}, fmt.Errorf("%w: %d of %d answered", ErrIncomplete, c.store.AnsweredCount(), c.store.Len())
	}

	answers := c.store.Answers()
	quizID := c.store.QuizID()
	c.finishing = true
	c.mu.Unlock()

	c.indicator.ShowAggregating(ctx)
	report, err := c.finalizer.Finalize(ctx, quizID, answers)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishing = false

	if c.closed {
		return feedback.FinalReport{}, ErrSessionClosed
	}
	if err != nil {
		c.indicator.ShowError(ctx, "Final report generation failed; you may retry")
		c.logError("finalize failed", err, "answers", len(answers))
		return feedback.FinalReport{}, err
	}

	c.store.SetFinalReport(report)
	c.reviewed = true
	c.indicator.Hide(ctx)
	c.logInfo("session reviewed", "quiz_id", quizID, "answers", len(answers))
	return report, nil
}

// Close tears the session down: the device is released and any upload still in
// flight has its result discarded. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.recorder.Release()
	c.logInfo("session closed", "answered", c.store.AnsweredCount(), "reviewed", c.reviewed)
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, args...)
}

func (c *Controller) logError(msg string, err error, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Error(msg, append(args, "error", err.Error())...)
}
