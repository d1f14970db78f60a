// Package app wires configuration, logging, clients, and commands into the
// eloq binary entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/sgoswami/eloq/internal/api"
	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/cli"
	"github.com/sgoswami/eloq/internal/config"
	"github.com/sgoswami/eloq/internal/doctor"
	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/history"
	"github.com/sgoswami/eloq/internal/ipc"
	"github.com/sgoswami/eloq/internal/logging"
	"github.com/sgoswami/eloq/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("eloq"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("eloq"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New(os.Getenv("ELOQ_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, logger)
	case cli.CommandExport:
		return r.commandExport(ctx, cfgLoaded.Config, parsed.Arg, logger)
	case cli.CommandAssess:
		return r.commandAssess(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// newBackendClient resolves the credential and builds the HTTP client.
func newBackendClient(cfg config.Config, logger *slog.Logger) (*api.Client, error) {
	token, err := config.ResolveToken(cfg.Auth)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Server.TimeoutMS) * time.Millisecond
	return api.NewClient(cfg.Server.BaseURL, token, timeout, logger), nil
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := capture.ListAudioDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		if resp.Total > 0 {
			fmt.Fprintf(r.Stdout, "%s (question %d/%d, %d answered)\n",
				resp.State, resp.Question+1, resp.Total, resp.Answered)
		} else {
			fmt.Fprintln(r.Stdout, resp.State)
		}
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active eloq session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	client, err := newBackendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	archive, err := client.History(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	renderHistory(r.Stdout, archive)
	return 0
}

func (r Runner) commandExport(ctx context.Context, cfg config.Config, reportID string, logger *slog.Logger) int {
	client, err := newBackendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	archive, err := client.History(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	id := strings.TrimSpace(reportID)
	if id == "last" {
		ids := archive.ReportIDs()
		if len(ids) == 0 {
			fmt.Fprintln(r.Stderr, "error: no final reports available")
			return 1
		}
		id = ids[len(ids)-1]
	}

	report, ok := archive.Reports[id]
	if !ok {
		fmt.Fprintf(r.Stderr, "error: unknown report %q\n", id)
		return 1
	}

	questions, feedbacks := sessionContents(archive, id)
	document, err := client.ExportReport(ctx, report, feedbacks, questions)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	path, err := writeExport(cfg.Export, fmt.Sprintf("report-%s.pdf", id), document)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "wrote %s (%d bytes)\n", path, len(document))
	logger.Info("report exported", "report_id", id, "path", path, "bytes", len(document))
	return 0
}

// sessionContents extracts the question/feedback pairs recorded under a
// session key, in deterministic order. Missing sessions yield empty slices;
// the backend renders the report body from the report payload alone.
func sessionContents(archive history.Archive, id string) ([]string, []feedback.Feedback) {
	recordings, ok := archive.Sessions[id]
	if !ok {
		return nil, nil
	}

	questions := make([]string, 0, len(recordings))
	for question := range recordings {
		questions = append(questions, question)
	}
	sort.Strings(questions)

	feedbacks := make([]feedback.Feedback, 0, len(questions))
	for _, question := range questions {
		feedbacks = append(feedbacks, recordings[question].Feedback)
	}
	return questions, feedbacks
}

// writeExport resolves the export directory and writes the document.
func writeExport(cfg config.ExportConfig, name string, document []byte) (string, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, document, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
