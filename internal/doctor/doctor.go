// Package doctor runs runtime readiness diagnostics for config, credentials,
// capture devices, and the assessment backend.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkToken(cfg.Config.Auth))
	checks = append(checks, checkBackendHealth(cfg.Config.Server))
	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkVideoDevice(cfg.Config.Video))

	return Report{Checks: checks}
}

// checkToken verifies a backend credential resolves without printing it.
func checkToken(auth config.AuthConfig) Check {
	token, err := config.ResolveToken(auth)
	if err != nil {
		return Check{Name: "auth.token", Pass: false, Message: err.Error()}
	}
	return Check{Name: "auth.token", Pass: true, Message: fmt.Sprintf("credential resolved (%d chars)", len(token))}
}

// checkBackendHealth probes the configured backend health endpoint.
func checkBackendHealth(server config.ServerConfig) Check {
	base := strings.TrimSpace(server.BaseURL)
	if base == "" {
		return Check{Name: "server.health", Pass: false, Message: "server.base_url is empty"}
	}

	url := strings.TrimRight(base, "/") + server.HealthPath
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: "server.health", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "server.health", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "server.health", Pass: true, Message: fmt.Sprintf("healthy at %s", url)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := capture.SelectAudioDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkVideoDevice verifies the camera device node exists and is a char device.
func checkVideoDevice(video config.VideoConfig) Check {
	info, err := os.Stat(video.Device)
	if err != nil {
		return Check{Name: "video.device", Pass: false, Message: fmt.Sprintf("stat %s: %v", video.Device, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Check{Name: "video.device", Pass: false, Message: fmt.Sprintf("%s is not a character device", video.Device)}
	}
	return Check{Name: "video.device", Pass: true, Message: fmt.Sprintf("%s present (%dx%d requested)", video.Device, video.Width, video.Height)}
}
