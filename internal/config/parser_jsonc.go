package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Server    *jsoncServer    `json:"server"`
	Auth      *jsoncAuth      `json:"auth"`
	Audio     *jsoncAudio     `json:"audio"`
	Video     *jsoncVideo     `json:"video"`
	Capture   *jsoncCapture   `json:"capture"`
	Export    *jsoncExport    `json:"export"`
	Indicator *jsoncIndicator `json:"indicator"`
	Debug     *jsoncDebug     `json:"debug"`
}

type jsoncServer struct {
	BaseURL    *string `json:"base_url"`
	TimeoutMS  *int    `json:"timeout_ms"`
	HealthPath *string `json:"health_path"`
}

type jsoncAuth struct {
	Token    *string `json:"token"`
	TokenEnv *string `json:"token_env"`
	EnvFile  *string `json:"env_file"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncVideo struct {
	Device *string `json:"device"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
}

type jsoncCapture struct {
	MaxClipSeconds *int `json:"max_clip_seconds"`
}

type jsoncExport struct {
	Dir *string `json:"dir"`
}

type jsoncIndicator struct {
	Enable         *bool `json:"enable"`
	ErrorTimeoutMS *int  `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
	HTTPDump  *bool `json:"http_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Server != nil {
		if payload.Server.BaseURL != nil {
			cfg.Server.BaseURL = strings.TrimSpace(*payload.Server.BaseURL)
		}
		if payload.Server.TimeoutMS != nil {
			cfg.Server.TimeoutMS = *payload.Server.TimeoutMS
		}
		if payload.Server.HealthPath != nil {
			cfg.Server.HealthPath = strings.TrimSpace(*payload.Server.HealthPath)
		}
	}

	if payload.Auth != nil {
		if payload.Auth.Token != nil {
			cfg.Auth.Token = strings.TrimSpace(*payload.Auth.Token)
		}
		if payload.Auth.TokenEnv != nil {
			cfg.Auth.TokenEnv = strings.TrimSpace(*payload.Auth.TokenEnv)
		}
		if payload.Auth.EnvFile != nil {
			cfg.Auth.EnvFile = strings.TrimSpace(*payload.Auth.EnvFile)
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Video != nil {
		if payload.Video.Device != nil {
			cfg.Video.Device = strings.TrimSpace(*payload.Video.Device)
		}
		if payload.Video.Width != nil {
			cfg.Video.Width = *payload.Video.Width
		}
		if payload.Video.Height != nil {
			cfg.Video.Height = *payload.Video.Height
		}
	}

	if payload.Capture != nil && payload.Capture.MaxClipSeconds != nil {
		cfg.Capture.MaxClipSeconds = *payload.Capture.MaxClipSeconds
	}

	if payload.Export != nil && payload.Export.Dir != nil {
		cfg.Export.Dir = strings.TrimSpace(*payload.Export.Dir)
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Debug != nil {
		if payload.Debug.AudioDump != nil {
			cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
		}
		if payload.Debug.HTTPDump != nil {
			cfg.Debug.EnableHTTPDump = *payload.Debug.HTTPDump
		}
	}
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
