package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/fsm"
)

type fakeRecorder struct {
	state        capture.State
	acquireErr   error
	startErr     error
	stopErr      error
	clip         capture.Clip
	acquireCalls int
	releaseCalls int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		state: capture.StateIdle,
		clip: capture.Clip{
			Video: []byte{0xFF, 0xD8, 0xFF, 0xD9},
			Audio: []byte{1, 2, 3, 4},
		},
	}
}

func (r *fakeRecorder) Acquire(context.Context) error {
	r.acquireCalls++
	if r.acquireErr != nil {
		return r.acquireErr
	}
	r.state = capture.StateDeviceActive
	return nil
}

func (r *fakeRecorder) Start(context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.state = capture.StateRecording
	return nil
}

func (r *fakeRecorder) Stop() (capture.Clip, error) {
	r.state = capture.StateStopped
	return r.clip, r.stopErr
}

func (r *fakeRecorder) Release() {
	r.releaseCalls++
	r.state = capture.StateIdle
}

func (r *fakeRecorder) State() capture.State { return r.state }

func newTestController(t *testing.T, questions []string, analyzer Analyzer, finalizer Finalizer) (*Controller, *fakeRecorder) {
	t.Helper()
	store, err := NewStore("quiz-1", questions)
	require.NoError(t, err)
	recorder := newFakeRecorder()
	return NewController(nil, store, recorder, analyzer, finalizer, nil), recorder
}

func echoAnalyzer() Analyzer {
	return AnalyzeFunc(func(_ context.Context, _ capture.Clip, question, _ string) (feedback.Feedback, error) {
		return feedback.Feedback{Transcript: "answer to " + question}, nil
	})
}

func TestFullTwoQuestionSession(t *testing.T) {
	finalizer := FinalizeFunc(func(_ context.Context, quizID string, answers []Answer) (feedback.FinalReport, error) {
		require.Equal(t, "quiz-1", quizID)
		require.Len(t, answers, 2)
		return feedback.FinalReport{
			OverallFeedback: feedback.OverallFeedback{Summary: "well done"},
		}, nil
	})
	ctrl, recorder := newTestController(t, []string{"Q0", "Q1"}, echoAnalyzer(), finalizer)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	require.Equal(t, fsm.StateRecording, ctrl.QuestionState(0))

	fb, err := ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)
	require.Equal(t, "answer to Q0", fb.Transcript)
	require.Equal(t, fsm.StateAnswered, ctrl.QuestionState(0))
	require.Equal(t, capture.StateIdle, recorder.State())

	require.NoError(t, ctrl.Next())
	require.NoError(t, ctrl.StartRecording(ctx))
	_, err = ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)

	report, err := ctrl.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, "well done", report.OverallFeedback.Summary)
	require.True(t, ctrl.Reviewed())

	status := ctrl.Snapshot()
	require.Equal(t, 2, status.Answered)
	require.Equal(t, 1, status.Watermark)
}

func TestSubmitFailureRevertsAndAllowsRetry(t *testing.T) {
	analyzeErr := errors.New("network unreachable")
	calls := 0
	analyzer := AnalyzeFunc(func(_ context.Context, _ capture.Clip, question, _ string) (feedback.Feedback, error) {
		calls++
		if calls == 1 {
			return feedback.Feedback{}, analyzeErr
		}
		return feedback.Feedback{Transcript: "answer to " + question}, nil
	})
	ctrl, recorder := newTestController(t, []string{"Q0"}, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err := ctrl.StopAndSubmit(ctx)
	require.ErrorIs(t, err, analyzeErr)

	// Failed upload leaves no trace: unanswered state, no feedback, device
	// released.
	require.Equal(t, fsm.StateUnanswered, ctrl.QuestionState(0))
	require.Equal(t, -1, ctrl.Store().Watermark())
	_, committed := ctrl.Store().Feedback(0)
	require.False(t, committed)
	require.Equal(t, capture.StateIdle, recorder.State())

	// The same question can be recorded and submitted again.
	require.NoError(t, ctrl.StartRecording(ctx))
	fb, err := ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)
	require.Equal(t, "answer to Q0", fb.Transcript)
	require.Equal(t, fsm.StateAnswered, ctrl.QuestionState(0))
}

func TestDoubleStartRecordingFails(t *testing.T) {
	ctrl, recorder := newTestController(t, []string{"Q0"}, echoAnalyzer(), nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	err := ctrl.StartRecording(ctx)
	require.Error(t, err)

	// The first recording is untouched by the rejected second start.
	require.Equal(t, fsm.StateRecording, ctrl.QuestionState(0))
	require.Equal(t, capture.StateRecording, recorder.State())
	require.Equal(t, 1, recorder.acquireCalls)
}

func TestStartRecordingReleasesDeviceOnStartFailure(t *testing.T) {
	ctrl, recorder := newTestController(t, []string{"Q0"}, echoAnalyzer(), nil)
	recorder.startErr = errors.New("stream refused")

	err := ctrl.StartRecording(context.Background())
	require.Error(t, err)
	require.Equal(t, fsm.StateUnanswered, ctrl.QuestionState(0))
	require.Equal(t, 1, recorder.releaseCalls)
}

func TestCancelRecordingDiscardsAndReleases(t *testing.T) {
	analyzer := AnalyzeFunc(func(context.Context, capture.Clip, string, string) (feedback.Feedback, error) {
		t.Fatal("cancel must not upload")
		return feedback.Feedback{}, nil
	})
	ctrl, recorder := newTestController(t, []string{"Q0"}, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	require.NoError(t, ctrl.CancelRecording(ctx))
	require.Equal(t, fsm.StateUnanswered, ctrl.QuestionState(0))
	require.Equal(t, capture.StateIdle, recorder.State())
	require.Equal(t, 1, recorder.releaseCalls)
}

func TestEmptyClipNeverUploads(t *testing.T) {
	analyzer := AnalyzeFunc(func(context.Context, capture.Clip, string, string) (feedback.Feedback, error) {
		t.Fatal("empty clip must not upload")
		return feedback.Feedback{}, nil
	})
	ctrl, recorder := newTestController(t, []string{"Q0"}, analyzer, nil)
	recorder.clip = capture.Clip{}
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err := ctrl.StopAndSubmit(ctx)
	require.ErrorIs(t, err, capture.ErrEmptyClip)
	require.Equal(t, fsm.StateUnanswered, ctrl.QuestionState(0))
	require.Equal(t, capture.StateIdle, recorder.State())
}

func TestFinishGuards(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"Q0", "Q1"}, echoAnalyzer(), nil)
	ctx := context.Background()

	_, err := ctrl.Finish(ctx)
	require.ErrorIs(t, err, ErrNoAnswers)

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err = ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)

	_, err = ctrl.Finish(ctx)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestNavigationBlockedDuringUpload(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	analyzer := AnalyzeFunc(func(context.Context, capture.Clip, string, string) (feedback.Feedback, error) {
		close(entered)
		<-release
		return feedback.Feedback{Transcript: "late"}, nil
	})
	ctrl, _ := newTestController(t, []string{"Q0", "Q1"}, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	done := make(chan error, 1)
	go func() {
		_, err := ctrl.StopAndSubmit(ctx)
		done <- err
	}()
	<-entered

	require.ErrorIs(t, ctrl.NavigateTo(1), ErrUploadInFlight)
	require.ErrorIs(t, ctrl.StartRecording(ctx), ErrUploadInFlight)
	_, err := ctrl.Finish(ctx)
	require.ErrorIs(t, err, ErrUploadInFlight)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, ctrl.NavigateTo(1))
}

func TestCloseDiscardsInFlightResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	analyzer := AnalyzeFunc(func(context.Context, capture.Clip, string, string) (feedback.Feedback, error) {
		close(entered)
		<-release
		return feedback.Feedback{Transcript: "stale"}, nil
	})
	ctrl, _ := newTestController(t, []string{"Q0"}, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	done := make(chan error, 1)
	go func() {
		_, err := ctrl.StopAndSubmit(ctx)
		done <- err
	}()
	<-entered

	ctrl.Close()
	close(release)
	require.ErrorIs(t, <-done, ErrSessionClosed)

	// The stale result never lands in the store.
	_, committed := ctrl.Store().Feedback(0)
	require.False(t, committed)
	require.Equal(t, -1, ctrl.Store().Watermark())
}

func TestFinishRetryAfterAggregationFailure(t *testing.T) {
	finalizeErr := errors.New("aggregation backend down")
	calls := 0
	finalizer := FinalizeFunc(func(_ context.Context, _ string, answers []Answer) (feedback.FinalReport, error) {
		calls++
		if calls == 1 {
			return feedback.FinalReport{}, finalizeErr
		}
		require.Len(t, answers, 1)
		return feedback.FinalReport{
			OverallFeedback: feedback.OverallFeedback{Summary: "second attempt"},
		}, nil
	})
	ctrl, _ := newTestController(t, []string{"Q0"}, echoAnalyzer(), finalizer)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err := ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)

	_, err = ctrl.Finish(ctx)
	require.ErrorIs(t, err, finalizeErr)
	require.False(t, ctrl.Reviewed())

	// Answers survive the failed aggregation; no re-upload is needed.
	require.Equal(t, 1, ctrl.Store().AnsweredCount())
	report, err := ctrl.Finish(ctx)
	require.NoError(t, err)
	require.Equal(t, "second attempt", report.OverallFeedback.Summary)
	require.True(t, ctrl.Reviewed())
}

func TestRedoAnsweredQuestionReplacesFeedback(t *testing.T) {
	calls := 0
	analyzer := AnalyzeFunc(func(context.Context, capture.Clip, string, string) (feedback.Feedback, error) {
		calls++
		if calls == 1 {
			return feedback.Feedback{Transcript: "first take"}, nil
		}
		return feedback.Feedback{Transcript: "second take"}, nil
	})
	ctrl, _ := newTestController(t, []string{"Q0"}, analyzer, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err := ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)

	require.NoError(t, ctrl.StartRecording(ctx))
	fb, err := ctrl.StopAndSubmit(ctx)
	require.NoError(t, err)
	require.Equal(t, "second take", fb.Transcript)

	stored, ok := ctrl.Store().Feedback(0)
	require.True(t, ok)
	require.Equal(t, "second take", stored.Transcript)
}

func TestClosedControllerRefusesEverything(t *testing.T) {
	ctrl, recorder := newTestController(t, []string{"Q0"}, echoAnalyzer(), nil)
	ctx := context.Background()

	ctrl.Close()
	ctrl.Close() // idempotent
	require.Equal(t, 1, recorder.releaseCalls)

	require.ErrorIs(t, ctrl.StartRecording(ctx), ErrSessionClosed)
	require.ErrorIs(t, ctrl.NavigateTo(0), ErrSessionClosed)
	_, err := ctrl.Finish(ctx)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestPlaceholderClientsFailCleanly(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"Q0"}, nil, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err := ctrl.StopAndSubmit(ctx)
	require.ErrorIs(t, err, ErrClientUnavailable)
	require.Equal(t, fsm.StateUnanswered, ctrl.QuestionState(0))
}
