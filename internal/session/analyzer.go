package session

import (
	"context"
	"errors"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/feedback"
)

// ErrClientUnavailable indicates runtime backend client wiring is missing.
var ErrClientUnavailable = errors.New("assessment backend client not configured")

// Analyzer submits one finished clip for per-question analysis.
type Analyzer interface {
	Analyze(ctx context.Context, clip capture.Clip, question, quizID string) (feedback.Feedback, error)
}

// AnalyzeFunc adapts a function to the Analyzer interface.
type AnalyzeFunc func(ctx context.Context, clip capture.Clip, question, quizID string) (feedback.Feedback, error)

func (f AnalyzeFunc) Analyze(ctx context.Context, clip capture.Clip, question, quizID string) (feedback.Feedback, error) {
	return f(ctx, clip, question, quizID)
}

// Finalizer aggregates all committed answers into a final report.
type Finalizer interface {
	Finalize(ctx context.Context, quizID string, answers []Answer) (feedback.FinalReport, error)
}

// FinalizeFunc adapts a function to the Finalizer interface.
type FinalizeFunc func(ctx context.Context, quizID string, answers []Answer) (feedback.FinalReport, error)

func (f FinalizeFunc) Finalize(ctx context.Context, quizID string, answers []Answer) (feedback.FinalReport, error) {
	return f(ctx, quizID, answers)
}

// placeholderAnalyzer preserves controller flow when no client is wired.
type placeholderAnalyzer struct{}

func (placeholderAnalyzer) Analyze(context.Context, capture.Clip, string, string) (feedback.Feedback, error) {
	return feedback.Feedback{}, ErrClientUnavailable
}

// placeholderFinalizer preserves controller flow when no client is wired.
type placeholderFinalizer struct{}

func (placeholderFinalizer) Finalize(context.Context, string, []Answer) (feedback.FinalReport, error) {
	return feedback.FinalReport{}, ErrClientUnavailable
}
