package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNoToken indicates no backend credential could be resolved.
var ErrNoToken = errors.New("no backend token configured")

// ResolveToken returns the bearer token for the assessment backend. A literal
// auth.token wins; otherwise auth.env_file is loaded (if set) and
// auth.token_env is read from the environment. Already-set environment
// variables are never overwritten by the dotenv file.
func ResolveToken(cfg AuthConfig) (string, error) {
	if token := strings.TrimSpace(cfg.Token); token != "" {
		return token, nil
	}

	if envFile := strings.TrimSpace(cfg.EnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("load env file %q: %w", envFile, err)
			}
		}
	}

	name := strings.TrimSpace(cfg.TokenEnv)
	if name == "" {
		return "", ErrNoToken
	}
	if token := strings.TrimSpace(os.Getenv(name)); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("%w: environment variable %s is empty", ErrNoToken, name)
}
