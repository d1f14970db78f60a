// Package history decodes the backend's read-only assessment archive.
//
// The archive is reconstructed server-side; nothing here feeds back into a
// live session controller.
package history

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sgoswami/eloq/internal/feedback"
)

// Recording is one stored answer: the uploaded clip's URL plus its feedback.
// The backend encodes it as a two-element array [videoUrl, Feedback].
type Recording struct {
	VideoURL string
	Feedback feedback.Feedback
}

func (r *Recording) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("recording is not an array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("recording array has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.VideoURL); err != nil {
		return fmt.Errorf("recording video url: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Feedback); err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	return nil
}

func (r Recording) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.VideoURL, r.Feedback})
}

// Archive is the full history payload: per-quiz recordings keyed by question,
// and finished final reports keyed by feedback id.
type Archive struct {
	Sessions map[string]map[string]Recording `json:"history"`
	Reports  map[string]feedback.FinalReport `json:"final_feedbacks"`
}

// QuizIDs returns session keys in deterministic order for rendering.
func (a Archive) QuizIDs() []string {
	ids := make([]string, 0, len(a.Sessions))
	for id := range a.Sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReportIDs returns report keys in deterministic order for rendering.
func (a Archive) ReportIDs() []string {
	ids := make([]string, 0, len(a.Reports))
	for id := range a.Reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
