package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgoswami/eloq/internal/feedback"
)

func TestRecordingUnmarshalPair(t *testing.T) {
	payload := `["https://cdn.example.com/v1.webm", {"transcript": "hello there", "general_feedback": "solid opening"}]`

	var rec Recording
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	require.Equal(t, "https://cdn.example.com/v1.webm", rec.VideoURL)
	require.Equal(t, "hello there", rec.Feedback.Transcript)
	require.Equal(t, "solid opening", rec.Feedback.GeneralFeedback)
}

func TestRecordingUnmarshalRejectsWrongArity(t *testing.T) {
	var rec Recording
	err := json.Unmarshal([]byte(`["only-url"]`), &rec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "want 2")
}

func TestRecordingUnmarshalRejectsNonArray(t *testing.T) {
	var rec Recording
	require.Error(t, json.Unmarshal([]byte(`{"url": "x"}`), &rec))
}

func TestRecordingMarshalRoundTrip(t *testing.T) {
	in := Recording{
		VideoURL: "https://cdn.example.com/v2.webm",
		Feedback: feedback.Feedback{Transcript: "answer two"},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Recording
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in.VideoURL, out.VideoURL)
	require.Equal(t, in.Feedback.Transcript, out.Feedback.Transcript)
}

func TestArchiveDecode(t *testing.T) {
	payload := `{
		"history": {
			"quiz-2": {"Tell me about a challenge.": ["https://cdn/2.webm", {"transcript": "b"}]},
			"quiz-1": {"Introduce yourself.": ["https://cdn/1.webm", {"transcript": "a"}]}
		},
		"final_feedbacks": {
			"fb-1": {"overall_feedback": {"summary": "strong session"}}
		}
	}`

	var archive Archive
	require.NoError(t, json.Unmarshal([]byte(payload), &archive))
	require.Equal(t, []string{"quiz-1", "quiz-2"}, archive.QuizIDs())
	require.Equal(t, []string{"fb-1"}, archive.ReportIDs())
	require.Equal(t, "strong session", archive.Reports["fb-1"].OverallFeedback.Summary)
	require.Equal(t, "a", archive.Sessions["quiz-1"]["Introduce yourself."].Feedback.Transcript)
}
