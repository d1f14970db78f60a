package api

import (
	"context"
	"fmt"
	"net/http"
)

// QuestionSet is one generated assessment: an opaque quiz id plus the fixed,
// ordered question sequence for the session.
type QuestionSet struct {
	QuizID    string   `json:"quiz_id"`
	Questions []string `json:"questions"`
}

// GenerateQuestions asks the backend for a fresh question set. A session is
// only constructed from a successful, non-empty response.
func (c *Client) GenerateQuestions(ctx context.Context) (QuestionSet, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/generate-questions", nil, "")
	if err != nil {
		return QuestionSet{}, err
	}

	var set QuestionSet
	if err := c.doJSON(req, &set); err != nil {
		return QuestionSet{}, err
	}
	if set.QuizID == "" {
		return QuestionSet{}, fmt.Errorf("%w: question set is missing quiz_id", ErrServer)
	}
	if len(set.Questions) == 0 {
		return QuestionSet{}, fmt.Errorf("%w: question set is empty", ErrServer)
	}
	return set, nil
}
