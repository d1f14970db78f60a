package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:    "http://127.0.0.1:8000",
			TimeoutMS:  60000,
			HealthPath: "/health",
		},
		Auth: AuthConfig{
			TokenEnv: "ELOQ_TOKEN",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Video: VideoConfig{
			Device: "/dev/video0",
			Width:  640,
			Height: 480,
		},
		Capture: CaptureConfig{
			MaxClipSeconds: 300,
		},
		Export: ExportConfig{},
		Indicator: IndicatorConfig{
			Enable:         true,
			ErrorTimeoutMS: 1600,
		},
		Debug: DebugConfig{},
	}
}
