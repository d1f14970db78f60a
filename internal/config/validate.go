package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.Server.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("server.base_url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("server.base_url %q must be an absolute http(s) URL", base)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server.base_url scheme must be http or https")
	}
	if cfg.Server.TimeoutMS <= 0 {
		return nil, fmt.Errorf("server.timeout_ms must be > 0")
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.Server.HealthPath), "/") {
		return nil, fmt.Errorf("server.health_path must start with '/'")
	}

	if strings.TrimSpace(cfg.Auth.Token) == "" && strings.TrimSpace(cfg.Auth.TokenEnv) == "" {
		return nil, fmt.Errorf("auth.token or auth.token_env must be set")
	}

	if strings.TrimSpace(cfg.Video.Device) == "" {
		return nil, fmt.Errorf("video.device must not be empty")
	}
	if cfg.Video.Width <= 0 || cfg.Video.Height <= 0 {
		return nil, fmt.Errorf("video.width and video.height must be > 0")
	}

	if cfg.Capture.MaxClipSeconds <= 0 {
		return nil, fmt.Errorf("capture.max_clip_seconds must be > 0")
	}
	if cfg.Capture.MaxClipSeconds > 1800 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("capture.max_clip_seconds=%d is unusually long; uploads may be rejected", cfg.Capture.MaxClipSeconds),
		})
	}

	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	return warnings, nil
}
