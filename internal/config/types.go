// Package config resolves, parses, validates, and defaults eloq configuration.
package config

// Config is the fully materialized runtime configuration used by eloq.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Audio     AudioConfig
	Video     VideoConfig
	Capture   CaptureConfig
	Export    ExportConfig
	Indicator IndicatorConfig
	Debug     DebugConfig
}

// ServerConfig locates the assessment backend.
type ServerConfig struct {
	BaseURL    string
	TimeoutMS  int
	HealthPath string
}

// AuthConfig controls how the backend bearer token is resolved. Token takes
// precedence; TokenEnv names an environment variable; EnvFile is an optional
// dotenv file loaded before the variable is read.
type AuthConfig struct {
	Token    string
	TokenEnv string
	EnvFile  string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// VideoConfig selects the camera device and capture geometry.
type VideoConfig struct {
	Device string
	Width  int
	Height int
}

// CaptureConfig bounds recording behavior.
type CaptureConfig struct {
	MaxClipSeconds int
}

// ExportConfig controls where exported report documents land.
type ExportConfig struct {
	Dir string
}

// IndicatorConfig controls terminal progress indicator behavior.
type IndicatorConfig struct {
	Enable         bool
	ErrorTimeoutMS int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	EnableHTTPDump  bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
