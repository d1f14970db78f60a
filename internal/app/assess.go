package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/config"
	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/fsm"
	"github.com/sgoswami/eloq/internal/indicator"
	"github.com/sgoswami/eloq/internal/ipc"
	"github.com/sgoswami/eloq/internal/session"
)

const assessHelp = `Session commands:
  record | r        Start recording the current question
  <Enter>           Stop recording and submit for analysis
  cancel            Discard the active recording
  next | n          Go to the next question
  prev | p          Go to the previous question
  goto N            Jump to question N
  view | v          Show feedback for the current question
  finish | f        Generate the final report (all questions answered)
  quit | q          Leave the session
  help | ?          Show this help`

func (r Runner) commandAssess(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: another assessment session is already running")
		} else {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		}
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	client, err := newBackendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if err := client.Health(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: backend is not reachable: %v\n", err)
		fmt.Fprintln(r.Stderr, "run eloq doctor for diagnostics")
		return 1
	}

	fmt.Fprintln(r.Stdout, "Generating questions…")
	set, err := client.GenerateQuestions(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("generate questions failed", "error", err.Error())
		return 1
	}

	store, err := session.NewStore(set.QuizID, set.Questions)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	devices := capture.NewDevices(captureOptions(cfg), logger)
	recorder := capture.NewRecorder(devices, logger)
	term := indicator.NewTerminal(cfg.Indicator, r.Stderr, logger)
	analyzer := backendAnalyzer{client: client, debug: cfg.Debug, logger: logger}
	finalizer := backendFinalizer{client: client}

	controller := session.NewController(logger, store, recorder, analyzer, finalizer, term)
	defer controller.Close()

	logger.Info("assessment started", "quiz_id", set.QuizID, "questions", len(set.Questions))

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, sessionHandler(controller))
	}()

	loop := &assessLoop{
		runner:     r,
		controller: controller,
		client:     client,
		cfg:        cfg,
		logger:     logger,
		actions:    make(chan string, 4),
	}
	loopErr := loop.run(ctx)

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", loopErr)
		return 1
	}
	return 0
}

// captureOptions maps the configured device selection onto the capture layer.
// Config dimensions are plain ints; V4L2 frame sizes are uint32.
func captureOptions(cfg config.Config) capture.Options {
	return capture.Options{
		AudioInput:    cfg.Audio.Input,
		AudioFallback: cfg.Audio.Fallback,
		VideoDevice:   cfg.Video.Device,
		VideoWidth:    uint32(cfg.Video.Width),
		VideoHeight:   uint32(cfg.Video.Height),
	}
}

// sessionHandler exposes a live session over the control socket.
func sessionHandler(controller *session.Controller) ipc.Handler {
	return ipc.HandlerFunc(func(ctx context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case ipc.CommandStatus:
			status := controller.Snapshot()
			state := string(status.State)
			if status.Uploading {
				state = string(fsm.StateUploading)
			}
			return ipc.Response{
				OK:       true,
				State:    state,
				Question: status.Question,
				Total:    status.Total,
				Answered: status.Answered,
			}
		case ipc.CommandStop:
			if _, err := controller.StopAndSubmit(ctx); err != nil {
				return ipc.Response{OK: false, Error: err.Error()}
			}
			return ipc.Response{OK: true, Message: "answer submitted"}
		case ipc.CommandCancel:
			if err := controller.CancelRecording(ctx); err != nil {
				return ipc.Response{OK: false, Error: err.Error()}
			}
			return ipc.Response{OK: true, Message: "recording discarded"}
		default:
			return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
		}
	})
}

// assessLoop drives the interactive question/answer flow from stdin lines and
// internally generated actions (such as the max-duration auto stop).
type assessLoop struct {
	runner     Runner
	controller *session.Controller
	client     reportExporter
	cfg        config.Config
	logger     *slog.Logger
	actions    chan string
	stopTimer  *time.Timer
}

// reportExporter is the backend surface the loop still needs after setup.
type reportExporter interface {
	ExportReport(ctx context.Context, report feedback.FinalReport, feedbacks []feedback.Feedback, questions []string) ([]byte, error)
}

func (l *assessLoop) run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.runner.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	l.printQuestion()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case action := <-l.actions:
			done, err := l.handleLine(ctx, action)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(l.runner.Stdout, "session ended")
				return nil
			}
			done, err := l.handleLine(ctx, line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (l *assessLoop) handleLine(ctx context.Context, line string) (bool, error) {
	out := l.runner.Stdout
	trimmed := strings.TrimSpace(line)

	// While recording, Enter (or stop) finalizes and submits.
	if l.controller.Snapshot().State == fsm.StateRecording {
		switch trimmed {
		case "", "stop":
			l.cancelStopTimer()
			l.submit(ctx)
			return false, nil
		case "cancel":
			l.cancelStopTimer()
			if err := l.controller.CancelRecording(ctx); err != nil {
				l.printErr(err)
			} else {
				fmt.Fprintln(out, "recording discarded")
			}
			return false, nil
		default:
			fmt.Fprintln(out, "recording… press Enter to stop, or type cancel")
			return false, nil
		}
	}

	fields := strings.Fields(trimmed)
	command := ""
	if len(fields) > 0 {
		command = fields[0]
	}

	switch command {
	case "", "help", "?":
		fmt.Fprintln(out, assessHelp)
	case "record", "r":
		if err := l.controller.StartRecording(ctx); err != nil {
			l.printErr(err)
			return false, nil
		}
		l.armStopTimer()
	case "next", "n":
		if err := l.controller.Next(); err != nil {
			l.printErr(err)
			return false, nil
		}
		l.printQuestion()
	case "prev", "p":
		if err := l.controller.Prev(); err != nil {
			l.printErr(err)
			return false, nil
		}
		l.printQuestion()
	case "goto":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: goto N")
			return false, nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintln(out, "usage: goto N")
			return false, nil
		}
		if err := l.controller.NavigateTo(n - 1); err != nil {
			l.printErr(err)
			return false, nil
		}
		l.printQuestion()
	case "view", "v":
		l.printFeedback()
	case "finish", "f":
		return l.finish(ctx), nil
	case "quit", "q":
		fmt.Fprintln(out, "session ended")
		return true, nil
	default:
		fmt.Fprintf(out, "unknown command %q (try help)\n", trimmed)
	}
	return false, nil
}

func (l *assessLoop) submit(ctx context.Context) {
	fb, err := l.controller.StopAndSubmit(ctx)
	if err != nil {
		l.printErr(err)
		return
	}

	fmt.Fprintln(l.runner.Stdout)
	renderFeedback(l.runner.Stdout, fb)

	status := l.controller.Snapshot()
	if status.Answered < status.Total {
		fmt.Fprintln(l.runner.Stdout, "\ntype next for the following question, or record to redo")
	} else {
		fmt.Fprintln(l.runner.Stdout, "\nall questions answered; type finish for your final report")
	}
}

func (l *assessLoop) finish(ctx context.Context) bool {
	report, err := l.controller.Finish(ctx)
	if err != nil {
		l.printErr(err)
		return false
	}

	fmt.Fprintln(l.runner.Stdout)
	renderFinalReport(l.runner.Stdout, report)
	l.exportAfterFinish(ctx)
	return true
}

// exportAfterFinish writes the report document when an export dir is set.
func (l *assessLoop) exportAfterFinish(ctx context.Context) {
	if strings.TrimSpace(l.cfg.Export.Dir) == "" {
		return
	}

	store := l.controller.Store()
	report, ok := store.FinalReport()
	if !ok {
		return
	}

	document, err := l.client.ExportReport(ctx, report, store.Feedbacks(), store.Questions())
	if err != nil {
		fmt.Fprintf(l.runner.Stderr, "warning: export failed: %v\n", err)
		l.logger.Warn("report export failed", "error", err.Error())
		return
	}

	name := fmt.Sprintf("report-%s.pdf", store.QuizID())
	path, err := writeExport(l.cfg.Export, name, document)
	if err != nil {
		fmt.Fprintf(l.runner.Stderr, "warning: export failed: %v\n", err)
		return
	}
	fmt.Fprintf(l.runner.Stdout, "report saved to %s\n", path)
}

func (l *assessLoop) printQuestion() {
	store := l.controller.Store()
	index := store.Current()
	question, err := store.Question(index)
	if err != nil {
		return
	}

	state := l.controller.QuestionState(index)
	marker := ""
	if state == fsm.StateAnswered {
		marker = " (answered)"
	}
	fmt.Fprintf(l.runner.Stdout, "\nQuestion %d/%d%s\n%s\n", index+1, store.Len(), marker, question)
	fmt.Fprintln(l.runner.Stdout, "type record to answer")
}

func (l *assessLoop) printFeedback() {
	store := l.controller.Store()
	fb, ok := store.Feedback(store.Current())
	if !ok {
		fmt.Fprintln(l.runner.Stdout, "no feedback yet; answer this question first")
		return
	}
	renderFeedback(l.runner.Stdout, fb)
}

// armStopTimer schedules the max-duration auto stop for the active recording.
func (l *assessLoop) armStopTimer() {
	maxClip := time.Duration(l.cfg.Capture.MaxClipSeconds) * time.Second
	if maxClip <= 0 {
		return
	}
	l.stopTimer = time.AfterFunc(maxClip, func() {
		select {
		case l.actions <- "":
		default:
		}
	})
}

func (l *assessLoop) cancelStopTimer() {
	if l.stopTimer != nil {
		l.stopTimer.Stop()
		l.stopTimer = nil
	}
}

// printErr maps sentinel errors to user-facing guidance.
func (l *assessLoop) printErr(err error) {
	out := l.runner.Stdout
	switch {
	case errors.Is(err, session.ErrLocked):
		fmt.Fprintln(out, "that question is locked; answer the earlier ones first")
	case errors.Is(err, session.ErrOutOfRange):
		fmt.Fprintln(out, "no such question")
	case errors.Is(err, session.ErrUploadInFlight):
		fmt.Fprintln(out, "an upload is still in progress; wait for it to finish")
	case errors.Is(err, session.ErrRecordingActive):
		fmt.Fprintln(out, "stop or cancel the active recording first")
	case errors.Is(err, session.ErrIncomplete), errors.Is(err, session.ErrNoAnswers):
		fmt.Fprintf(out, "%v\n", err)
	case errors.Is(err, capture.ErrPermissionDenied):
		fmt.Fprintln(out, "camera or microphone access was denied; check device permissions")
	case errors.Is(err, capture.ErrDeviceUnavailable):
		fmt.Fprintln(out, "capture device unavailable; is another application using it?")
	case errors.Is(err, capture.ErrEmptyClip):
		fmt.Fprintln(out, "nothing was captured; try recording again")
	default:
		fmt.Fprintf(out, "error: %v\n", err)
	}
}
