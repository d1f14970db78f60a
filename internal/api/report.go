package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sgoswami/eloq/internal/feedback"
)

type reportRequest struct {
	FeedbackData feedback.FinalReport `json:"feedbackData"`
	Feedbacks    []feedback.Feedback  `json:"feedbacks"`
	Questions    []string             `json:"questions"`
}

// ExportReport asks the backend to render the session report and returns the
// resulting document bytes verbatim. Rendering stays backend-owned.
func (c *Client) ExportReport(ctx context.Context, report feedback.FinalReport, feedbacks []feedback.Feedback, questions []string) ([]byte, error) {
	payload, err := json.Marshal(reportRequest{
		FeedbackData: report,
		Feedbacks:    feedbacks,
		Questions:    questions,
	})
	if err != nil {
		return nil, fmt.Errorf("encode report request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/generate-report", bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	document, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read report document: %w", err)
	}
	if len(document) == 0 {
		return nil, fmt.Errorf("%w: report document is empty", ErrServer)
	}
	return document, nil
}
