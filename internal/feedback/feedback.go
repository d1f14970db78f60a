// Package feedback defines the analysis result models exchanged with the assessment backend.
package feedback

// AdvancedParameters are the qualitative speech dimensions scored per answer.
type AdvancedParameters struct {
	Articulation    string `json:"articulation"`
	Enunciation     string `json:"enunciation"`
	Intelligibility string `json:"intelligibility"`
	Tone            string `json:"tone"`
}

// SpeakingRate carries the measured words-per-minute figure plus commentary.
type SpeakingRate struct {
	Comment string  `json:"comment"`
	Rate    float64 `json:"rate"`
}

// FillerWordUsage counts filler words detected in one answer.
type FillerWordUsage struct {
	Comment string `json:"comment"`
	Count   int    `json:"count"`
}

// PausePattern counts notable pauses detected in one answer.
type PausePattern struct {
	Comment string `json:"comment"`
	Count   int    `json:"count"`
}

// TimestampedFeedback is one moment-specific remark within an answer.
type TimestampedFeedback struct {
	Feedback string `json:"feedback"`
	Time     string `json:"time"`
}

// Feedback is the immutable per-question analysis result. It is produced once
// by the analysis service and never modified by this client.
type Feedback struct {
	Transcript                    string                `json:"transcript"`
	GeneralFeedback               string                `json:"general_feedback"`
	AdvancedParameters            AdvancedParameters    `json:"advanced_parameters"`
	SentenceStructuringAndGrammar string                `json:"sentence_structuring_and_grammar"`
	SpeakingRate                  SpeakingRate          `json:"speaking_rate"`
	FillerWordUsage               FillerWordUsage       `json:"filler_word_usage"`
	PausePattern                  PausePattern          `json:"pause_pattern"`
	TimestampedFeedback           []TimestampedFeedback `json:"timestamped_feedback"`
}
