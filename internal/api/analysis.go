package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/sgoswami/eloq/internal/capture"
	"github.com/sgoswami/eloq/internal/feedback"
)

// SubmitResult is the analysis service's answer for one uploaded clip.
type SubmitResult struct {
	URL      string            `json:"url"`
	Feedback feedback.Feedback `json:"feedback"`
}

// SubmitRecording uploads one finished clip plus its question context for
// analysis. This is the only operation that moves raw media off-device. A
// failed submit has no partial effect; the caller may retry with a new clip.
func (c *Client) SubmitRecording(ctx context.Context, clip capture.Clip, question, quizID string) (SubmitResult, error) {
	if clip.Empty() {
		return SubmitResult{}, fmt.Errorf("refusing to submit empty clip: %w", capture.ErrEmptyClip)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	videoPart, err := writer.CreateFormFile("video_file", "recording.mjpeg")
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create video part: %w", err)
	}
	if _, err := videoPart.Write(clip.Video); err != nil {
		return SubmitResult{}, fmt.Errorf("write video part: %w", err)
	}

	audioPart, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create audio part: %w", err)
	}
	if _, err := audioPart.Write(clip.Audio); err != nil {
		return SubmitResult{}, fmt.Errorf("write audio part: %w", err)
	}

	if err := writer.WriteField("question", question); err != nil {
		return SubmitResult{}, fmt.Errorf("write question field: %w", err)
	}
	if err := writer.WriteField("quiz_id", quizID); err != nil {
		return SubmitResult{}, fmt.Errorf("write quiz_id field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return SubmitResult{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/save-video", &body, writer.FormDataContentType())
	if err != nil {
		return SubmitResult{}, err
	}

	var result SubmitResult
	if err := c.doJSON(req, &result); err != nil {
		return SubmitResult{}, err
	}
	return result, nil
}
