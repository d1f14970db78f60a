package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sgoswami/eloq/internal/feedback"
)

// QuestionFeedback pairs one question with its committed feedback for
// aggregation.
type QuestionFeedback struct {
	Question string            `json:"question"`
	Feedback feedback.Feedback `json:"feedback"`
}

type finalizeRequest struct {
	FeedbackWithQuestions []QuestionFeedback `json:"feedbackWithQuestions"`
	QuizID                string             `json:"quizId"`
}

// Finalize sends every committed feedback for aggregation into a final report.
// The aggregation contract is undefined for an empty set, so an empty call is
// rejected before any network traffic.
func (c *Client) Finalize(ctx context.Context, quizID string, pairs []QuestionFeedback) (feedback.FinalReport, error) {
	if len(pairs) == 0 {
		return feedback.FinalReport{}, errors.New("finalize requires at least one question feedback")
	}

	payload, err := json.Marshal(finalizeRequest{FeedbackWithQuestions: pairs, QuizID: quizID})
	if err != nil {
		return feedback.FinalReport{}, fmt.Errorf("encode finalize request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/final-feedback", bytes.NewReader(payload), "application/json")
	if err != nil {
		return feedback.FinalReport{}, err
	}

	var report feedback.FinalReport
	if err := c.doJSON(req, &report); err != nil {
		return feedback.FinalReport{}, err
	}
	return report, nil
}
