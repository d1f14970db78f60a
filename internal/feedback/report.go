package feedback

// OverallFeedback is the narrative section of a final report.
type OverallFeedback struct {
	Summary            string   `json:"summary"`
	KeyStrengths       []string `json:"key_strengths"`
	AreasOfImprovement []string `json:"areas_of_improvement"`
}

// Recommendation pairs an observed reason with a concrete suggestion.
type Recommendation struct {
	Reason         string `json:"reason"`
	Recommendation string `json:"recommendation"`
}

// PersonalizedExample rewrites one spoken line with targeted feedback.
type PersonalizedExample struct {
	Line     string `json:"line"`
	Feedback string `json:"feedback"`
}

// AdvancedMetrics aggregates the per-dimension metrics across a whole session.
type AdvancedMetrics struct {
	Articulation                  string          `json:"articulation"`
	Enunciation                   string          `json:"enunciation"`
	Intelligibility               string          `json:"intelligibility"`
	Tone                          string          `json:"tone"`
	SentenceStructuringAndGrammar string          `json:"sentence_structuring_and_grammar"`
	SpeakingRate                  SpeakingRate    `json:"speaking_rate"`
	FillerWordUsage               FillerWordUsage `json:"filler_word_usage"`
	PausePattern                  PausePattern    `json:"pause_pattern"`
}

// FinalReport is the session-level aggregate produced by the aggregation
// service from every committed Feedback. Immutable once set on a session.
type FinalReport struct {
	OverallFeedback      OverallFeedback       `json:"overall_feedback"`
	AdvancedParameters   AdvancedMetrics       `json:"advanced_parameters"`
	Recommendations      []Recommendation      `json:"recommendations"`
	PersonalizedExamples []PersonalizedExample `json:"personalized_examples"`
}
