// Package indicator renders session progress states on the terminal.
package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sgoswami/eloq/internal/config"
)

const clearLine = "\r\033[2K"

// Terminal is the concrete indicator implementation used by runtime sessions.
// Transient states occupy a single rewritable line; errors are printed as
// their own persistent lines so they survive the next state change.
type Terminal struct {
	cfg    config.IndicatorConfig
	out    io.Writer
	logger *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewTerminal creates an indicator from config writing to out.
func NewTerminal(cfg config.IndicatorConfig, out io.Writer, logger *slog.Logger) *Terminal {
	return &Terminal{
		cfg:    cfg,
		out:    out,
		logger: logger,
	}
}

// ShowRecording signals an active recording.
func (t *Terminal) ShowRecording(context.Context) {
	t.show("● " + indicatorMessagesFromEnv().recording)
}

// ShowUploading signals an in-flight clip analysis.
func (t *Terminal) ShowUploading(context.Context) {
	t.show("↑ " + indicatorMessagesFromEnv().uploading)
}

// ShowAggregating signals final report generation.
func (t *Terminal) ShowAggregating(context.Context) {
	t.show("⧗ " + indicatorMessagesFromEnv().aggregating)
}

// ShowError prints a persistent error line.
func (t *Terminal) ShowError(_ context.Context, text string) {
	if !t.cfg.Enable {
		return
	}
	if text == "" {
		text = indicatorMessagesFromEnv().errorText
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	prefix := ""
	if t.active {
		prefix = clearLine
		t.active = false
	}
	t.write(prefix + "✗ " + text + "\n")
}

// Hide clears the transient indicator line.
func (t *Terminal) Hide(context.Context) {
	if !t.cfg.Enable {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	t.write(clearLine)
}

func (t *Terminal) show(text string) {
	if !t.cfg.Enable {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.write(clearLine + text)
}

func (t *Terminal) write(text string) {
	if _, err := fmt.Fprint(t.out, text); err != nil && t.logger != nil {
		t.logger.Debug("indicator write failed", "error", err.Error())
	}
}
