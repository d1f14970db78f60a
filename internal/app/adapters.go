package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sgoswami/eloq/internal/api"
	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/config"
	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/session"
)

// backendAnalyzer bridges the session controller to the upload/analysis
// endpoint and optionally dumps debug artifacts per submission.
type backendAnalyzer struct {
	client *api.Client
	debug  config.DebugConfig
	logger *slog.Logger
}

func (a backendAnalyzer) Analyze(ctx context.Context, clip capture.Clip, question, quizID string) (feedback.Feedback, error) {
	a.dumpAudio(clip)

	result, err := a.client.SubmitRecording(ctx, clip, question, quizID)
	if err != nil {
		return feedback.Feedback{}, err
	}

	a.dumpFeedback(question, result)
	return result.Feedback, nil
}

func (a backendAnalyzer) dumpAudio(clip capture.Clip) {
	if !a.debug.EnableAudioDump {
		return
	}
	path, err := debugArtifactPath(fmt.Sprintf("clip-%d.wav", time.Now().UnixMilli()))
	if err == nil {
		err = os.WriteFile(path, clip.Audio, 0o600)
	}
	if err != nil {
		a.log("audio debug dump failed", err)
		return
	}
	a.logInfo("audio debug dump written", "path", path, "bytes", len(clip.Audio))
}

func (a backendAnalyzer) dumpFeedback(question string, result api.SubmitResult) {
	if !a.debug.EnableHTTPDump {
		return
	}
	payload, err := json.MarshalIndent(map[string]any{
		"question": question,
		"url":      result.URL,
		"feedback": result.Feedback,
	}, "", "  ")
	if err != nil {
		a.log("feedback debug dump failed", err)
		return
	}
	path, err := debugArtifactPath(fmt.Sprintf("feedback-%d.json", time.Now().UnixMilli()))
	if err == nil {
		err = os.WriteFile(path, payload, 0o600)
	}
	if err != nil {
		a.log("feedback debug dump failed", err)
		return
	}
	a.logInfo("feedback debug dump written", "path", path)
}

func (a backendAnalyzer) log(msg string, err error) {
	if a.logger != nil {
		a.logger.Debug(msg, "error", err.Error())
	}
}

func (a backendAnalyzer) logInfo(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

// backendFinalizer bridges the session controller to the aggregation endpoint.
type backendFinalizer struct {
	client *api.Client
}

func (f backendFinalizer) Finalize(ctx context.Context, quizID string, answers []session.Answer) (feedback.FinalReport, error) {
	pairs := make([]api.QuestionFeedback, 0, len(answers))
	for _, answer := range answers {
		pairs = append(pairs, api.QuestionFeedback{
			Question: answer.Question,
			Feedback: answer.Feedback,
		})
	}
	return f.client.Finalize(ctx, quizID, pairs)
}

// debugArtifactPath resolves a file location under the state debug dir.
func debugArtifactPath(name string) (string, error) {
	var root string
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		root = filepath.Join(xdg, "eloq", "debug")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		root = filepath.Join(home, ".local", "state", "eloq", "debug")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}
