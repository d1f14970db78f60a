package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sgoswami/eloq/internal/feedback"
	"github.com/sgoswami/eloq/internal/history"
)

func renderFeedback(w io.Writer, fb feedback.Feedback) {
	if fb.Transcript != "" {
		fmt.Fprintf(w, "Transcript: %s\n", fb.Transcript)
	}
	if fb.GeneralFeedback != "" {
		fmt.Fprintf(w, "\n%s\n", fb.GeneralFeedback)
	}

	fmt.Fprintln(w)
	renderMetricLine(w, "Articulation", fb.AdvancedParameters.Articulation)
	renderMetricLine(w, "Enunciation", fb.AdvancedParameters.Enunciation)
	renderMetricLine(w, "Intelligibility", fb.AdvancedParameters.Intelligibility)
	renderMetricLine(w, "Tone", fb.AdvancedParameters.Tone)
	renderMetricLine(w, "Grammar", fb.SentenceStructuringAndGrammar)

	if fb.SpeakingRate.Rate > 0 || fb.SpeakingRate.Comment != "" {
		fmt.Fprintf(w, "  Speaking rate: %.0f wpm", fb.SpeakingRate.Rate)
		if fb.SpeakingRate.Comment != "" {
			fmt.Fprintf(w, " (%s)", fb.SpeakingRate.Comment)
		}
		fmt.Fprintln(w)
	}
	if fb.FillerWordUsage.Count > 0 || fb.FillerWordUsage.Comment != "" {
		fmt.Fprintf(w, "  Filler words: %d", fb.FillerWordUsage.Count)
		if fb.FillerWordUsage.Comment != "" {
			fmt.Fprintf(w, " (%s)", fb.FillerWordUsage.Comment)
		}
		fmt.Fprintln(w)
	}
	if fb.PausePattern.Count > 0 || fb.PausePattern.Comment != "" {
		fmt.Fprintf(w, "  Pauses: %d", fb.PausePattern.Count)
		if fb.PausePattern.Comment != "" {
			fmt.Fprintf(w, " (%s)", fb.PausePattern.Comment)
		}
		fmt.Fprintln(w)
	}

	if len(fb.TimestampedFeedback) > 0 {
		fmt.Fprintln(w, "\nMoments:")
		for _, moment := range fb.TimestampedFeedback {
			fmt.Fprintf(w, "  [%s] %s\n", moment.Time, moment.Feedback)
		}
	}
}

func renderMetricLine(w io.Writer, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", label, value)
}

func renderFinalReport(w io.Writer, report feedback.FinalReport) {
	fmt.Fprintln(w, "=== Final Report ===")
	if report.OverallFeedback.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", report.OverallFeedback.Summary)
	}

	if len(report.OverallFeedback.KeyStrengths) > 0 {
		fmt.Fprintln(w, "\nKey strengths:")
		for _, item := range report.OverallFeedback.KeyStrengths {
			fmt.Fprintf(w, "  + %s\n", item)
		}
	}
	if len(report.OverallFeedback.AreasOfImprovement) > 0 {
		fmt.Fprintln(w, "\nAreas of improvement:")
		for _, item := range report.OverallFeedback.AreasOfImprovement {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}

	fmt.Fprintln(w)
	renderMetricLine(w, "Articulation", report.AdvancedParameters.Articulation)
	renderMetricLine(w, "Enunciation", report.AdvancedParameters.Enunciation)
	renderMetricLine(w, "Intelligibility", report.AdvancedParameters.Intelligibility)
	renderMetricLine(w, "Tone", report.AdvancedParameters.Tone)
	renderMetricLine(w, "Grammar", report.AdvancedParameters.SentenceStructuringAndGrammar)

	if len(report.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(w, "  * %s\n", rec.Recommendation)
			if rec.Reason != "" {
				fmt.Fprintf(w, "    why: %s\n", rec.Reason)
			}
		}
	}

	if len(report.PersonalizedExamples) > 0 {
		fmt.Fprintln(w, "\nExamples from your answers:")
		for _, example := range report.PersonalizedExamples {
			fmt.Fprintf(w, "  %q\n    %s\n", example.Line, example.Feedback)
		}
	}
}

func renderHistory(w io.Writer, archive history.Archive) {
	quizIDs := archive.QuizIDs()
	if len(quizIDs) == 0 && len(archive.Reports) == 0 {
		fmt.Fprintln(w, "no past sessions")
		return
	}

	for _, quizID := range quizIDs {
		recordings := archive.Sessions[quizID]
		fmt.Fprintf(w, "session %s (%d answers)\n", quizID, len(recordings))
		for _, question := range sortedKeys(recordings) {
			rec := recordings[question]
			fmt.Fprintf(w, "  %s\n", question)
			if rec.Feedback.GeneralFeedback != "" {
				fmt.Fprintf(w, "    %s\n", rec.Feedback.GeneralFeedback)
			}
			if rec.VideoURL != "" {
				fmt.Fprintf(w, "    video: %s\n", rec.VideoURL)
			}
		}
	}

	reportIDs := archive.ReportIDs()
	if len(reportIDs) > 0 {
		fmt.Fprintln(w, "\nfinal reports:")
		for _, id := range reportIDs {
			report := archive.Reports[id]
			fmt.Fprintf(w, "  %s: %s\n", id, firstLine(report.OverallFeedback.Summary))
		}
	}
}

func sortedKeys(m map[string]history.Recording) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
