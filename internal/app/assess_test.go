package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/config"
	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/history"
	"github.com/sgoswami/eloq/internal/ipc"
	"github.com/sgoswami/eloq/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type loopRecorder struct {
	state capture.State
}

func (r *loopRecorder) Acquire(context.Context) error {
	r.state = capture.StateDeviceActive
	return nil
}

func (r *loopRecorder) Start(context.Context) error {
	r.state = capture.StateRecording
	return nil
}

func (r *loopRecorder) Stop() (capture.Clip, error) {
	r.state = capture.StateStopped
	return capture.Clip{Video: []byte{0xFF, 0xD8}, Audio: []byte{1, 2}}, nil
}

func (r *loopRecorder) Release() { r.state = capture.StateIdle }

func (r *loopRecorder) State() capture.State { return r.state }

type fakeExporter struct {
	document []byte
	err      error
	calls    int
}

func (f *fakeExporter) ExportReport(context.Context, feedback.FinalReport, []feedback.Feedback, []string) ([]byte, error) {
	f.calls++
	return f.document, f.err
}

func newLoopController(t *testing.T, questions []string) *session.Controller {
	t.Helper()
	store, err := session.NewStore("quiz-loop", questions)
	require.NoError(t, err)

	analyzer := session.AnalyzeFunc(func(_ context.Context, _ capture.Clip, question, _ string) (feedback.Feedback, error) {
		return feedback.Feedback{
			Transcript:      "answer to " + question,
			GeneralFeedback: "feedback for " + question,
		}, nil
	})
	finalizer := session.FinalizeFunc(func(context.Context, string, []session.Answer) (feedback.FinalReport, error) {
		return feedback.FinalReport{
			OverallFeedback: feedback.OverallFeedback{Summary: "great session"},
		}, nil
	})
	return session.NewController(nil, store, &loopRecorder{state: capture.StateIdle}, analyzer, finalizer, nil)
}

func newTestLoop(t *testing.T, questions []string, stdin string, exporter *fakeExporter, cfg config.Config) (*assessLoop, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	loop := &assessLoop{
		runner: Runner{
			Stdin:  strings.NewReader(stdin),
			Stdout: &stdout,
			Stderr: &bytes.Buffer{},
		},
		controller: newLoopController(t, questions),
		client:     exporter,
		cfg:        cfg,
		actions:    make(chan string, 4),
	}
	return loop, &stdout
}

func TestAssessLoopFullSession(t *testing.T) {
	stdin := "record\n\nnext\nrecord\n\nfinish\n"
	loop, stdout := newTestLoop(t, []string{"Q-alpha", "Q-beta"}, stdin, &fakeExporter{}, config.Default())

	require.NoError(t, loop.run(context.Background()))

	out := stdout.String()
	require.Contains(t, out, "Question 1/2")
	require.Contains(t, out, "Q-alpha")
	require.Contains(t, out, "feedback for Q-alpha")
	require.Contains(t, out, "Question 2/2")
	require.Contains(t, out, "all questions answered")
	require.Contains(t, out, "=== Final Report ===")
	require.Contains(t, out, "great session")
	require.True(t, loop.controller.Reviewed())
}

func TestAssessLoopBlocksLockedNavigation(t *testing.T) {
	stdin := "goto 2\nquit\n"
	loop, stdout := newTestLoop(t, []string{"Q-alpha", "Q-beta"}, stdin, &fakeExporter{}, config.Default())

	require.NoError(t, loop.run(context.Background()))
	require.Contains(t, stdout.String(), "locked")
}

func TestAssessLoopCancelDiscardsRecording(t *testing.T) {
	stdin := "record\ncancel\nview\nquit\n"
	loop, stdout := newTestLoop(t, []string{"Q-alpha"}, stdin, &fakeExporter{}, config.Default())

	require.NoError(t, loop.run(context.Background()))

	out := stdout.String()
	require.Contains(t, out, "recording discarded")
	require.Contains(t, out, "no feedback yet")
}

func TestAssessLoopFinishRequiresAllAnswers(t *testing.T) {
	stdin := "finish\nquit\n"
	loop, stdout := newTestLoop(t, []string{"Q-alpha"}, stdin, &fakeExporter{}, config.Default())

	require.NoError(t, loop.run(context.Background()))
	require.Contains(t, stdout.String(), "at least one committed answer")
}

func TestAssessLoopExportsAfterFinish(t *testing.T) {
	exportDir := t.TempDir()
	cfg := config.Default()
	cfg.Export.Dir = exportDir

	exporter := &fakeExporter{document: []byte("%PDF-1.7 session export")}
	stdin := "record\n\nfinish\n"
	loop, stdout := newTestLoop(t, []string{"Q-alpha"}, stdin, exporter, cfg)
	loop.logger = discardLogger()

	require.NoError(t, loop.run(context.Background()))

	require.Equal(t, 1, exporter.calls)
	written, err := os.ReadFile(filepath.Join(exportDir, "report-quiz-loop.pdf"))
	require.NoError(t, err)
	require.Equal(t, exporter.document, written)
	require.Contains(t, stdout.String(), "report saved to")
}

func TestAssessLoopUnknownCommand(t *testing.T) {
	stdin := "bogus\nquit\n"
	loop, stdout := newTestLoop(t, []string{"Q-alpha"}, stdin, &fakeExporter{}, config.Default())

	require.NoError(t, loop.run(context.Background()))
	require.Contains(t, stdout.String(), `unknown command "bogus"`)
}

func TestSessionHandlerCommands(t *testing.T) {
	controller := newLoopController(t, []string{"Q-alpha", "Q-beta"})
	handler := sessionHandler(controller)
	ctx := context.Background()

	resp := handler.Handle(ctx, ipc.Request{Command: ipc.CommandStatus})
	require.True(t, resp.OK)
	require.Equal(t, "unanswered", resp.State)
	require.Equal(t, 2, resp.Total)

	// Stop without a recording is an error, not a crash.
	resp = handler.Handle(ctx, ipc.Request{Command: ipc.CommandStop})
	require.False(t, resp.OK)
	require.NotEmpty(t, resp.Error)

	require.NoError(t, controller.StartRecording(ctx))
	resp = handler.Handle(ctx, ipc.Request{Command: ipc.CommandStatus})
	require.Equal(t, "recording", resp.State)

	resp = handler.Handle(ctx, ipc.Request{Command: ipc.CommandStop})
	require.True(t, resp.OK)
	require.Equal(t, "answer submitted", resp.Message)

	resp = handler.Handle(ctx, ipc.Request{Command: "bogus"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
}

func TestSessionHandlerCancel(t *testing.T) {
	controller := newLoopController(t, []string{"Q-alpha"})
	handler := sessionHandler(controller)
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	resp := handler.Handle(ctx, ipc.Request{Command: ipc.CommandCancel})
	require.True(t, resp.OK)
	require.Equal(t, "recording discarded", resp.Message)

	_, committed := controller.Store().Feedback(0)
	require.False(t, committed)
}

func TestSessionContentsDeterministicOrder(t *testing.T) {
	archiveJSON := `{
		"history": {"quiz-1": {
			"B question": ["https://cdn/b", {"transcript": "tb"}],
			"A question": ["https://cdn/a", {"transcript": "ta"}]
		}},
		"final_feedbacks": {}
	}`
	archive := decodeArchive(t, archiveJSON)

	questions, feedbacks := sessionContents(archive, "quiz-1")
	require.Equal(t, []string{"A question", "B question"}, questions)
	require.Equal(t, "ta", feedbacks[0].Transcript)
	require.Equal(t, "tb", feedbacks[1].Transcript)

	missingQ, missingF := sessionContents(archive, "quiz-x")
	require.Nil(t, missingQ)
	require.Nil(t, missingF)
}

func decodeArchive(t *testing.T, raw string) history.Archive {
	t.Helper()
	var archive history.Archive
	require.NoError(t, json.Unmarshal([]byte(raw), &archive))
	return archive
}

func TestCaptureOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Input = "usb-mic"
	cfg.Audio.Fallback = "built-in"
	cfg.Video.Device = "/dev/video2"
	cfg.Video.Width = 1280
	cfg.Video.Height = 720

	opts := captureOptions(cfg)
	require.Equal(t, "usb-mic", opts.AudioInput)
	require.Equal(t, "built-in", opts.AudioFallback)
	require.Equal(t, "/dev/video2", opts.VideoDevice)
	require.Equal(t, uint32(1280), opts.VideoWidth)
	require.Equal(t, uint32(720), opts.VideoHeight)
}

func TestAssessLoopEOFEndsSession(t *testing.T) {
	loop, stdout := newTestLoop(t, []string{"Q-alpha"}, "", &fakeExporter{}, config.Default())
	require.NoError(t, loop.run(context.Background()))
	require.Contains(t, stdout.String(), "session ended")
}
