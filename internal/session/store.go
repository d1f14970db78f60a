// Package session holds assessment state and orchestrates the answer lifecycle
// for one quiz: recording, upload, feedback commit, navigation, and the final
// report.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sgoswami/eloq/internal/feedback"
)

var (
	// ErrLocked indicates navigation past the answered watermark.
	ErrLocked = errors.New("question locked until earlier answers are committed")
	// ErrOutOfRange indicates a question index outside the session's sequence.
	ErrOutOfRange = errors.New("question index out of range")
	// ErrNoQuestions indicates a session cannot be built without questions.
	ErrNoQuestions = errors.New("session requires at least one question")
)

// Answer pairs one question with its committed feedback, in question order.
type Answer struct {
	Question string
	Feedback feedback.Feedback
}

// Store is the per-session state: the fixed question sequence, the cursor, the
// answered watermark, committed feedback, and the final report. One store is
// freshly constructed per session; nothing crosses session boundaries.
//
// Invariants held after every operation: feedback keys are a subset of
// [0, watermark], and the cursor stays within [0, len(questions)).
type Store struct {
	mu        sync.RWMutex
	quizID    string
	questions []string
	current   int
	watermark int
	feedback  map[int]feedback.Feedback
	report    *feedback.FinalReport
}

// NewStore builds a fresh session store for one generated question set.
func NewStore(quizID string, questions []string) (*Store, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Store{
		quizID:    quizID,
		questions: append([]string(nil), questions...),
		current:   0,
		watermark: -1,
		feedback:  make(map[int]feedback.Feedback),
	}, nil
}

// Reset reinitializes the store for a new question set, clearing all feedback
// and the report. The caller must ensure no recording or upload is in flight.
func (s *Store) Reset(quizID string, questions []string) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizID = quizID
	s.questions = append([]string(nil), questions...)
	s.current = 0
	s.watermark = -1
	s.feedback = make(map[int]feedback.Feedback)
	s.report = nil
	return nil
}

// QuizID returns the opaque session token issued by the question service.
func (s *Store) QuizID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quizID
}

// Len returns the number of questions in the session.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

// Current returns the cursor position.
func (s *Store) Current() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Question returns the prompt at index.
func (s *Store) Question(index int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.questions) {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	return s.questions[index], nil
}

// Questions returns a copy of the full prompt sequence.
func (s *Store) Questions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.questions...)
}

// NavigateTo moves the cursor. Reachable indices are the answered prefix plus
// the first unanswered question directly above the watermark; anything beyond
// fails with ErrLocked and leaves the cursor untouched.
func (s *Store) NavigateTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if index > s.watermark+1 {
		return fmt.Errorf("%w: index %d, watermark %d", ErrLocked, index, s.watermark)
	}
	s.current = index
	return nil
}

// CommitFeedback stores feedback for one question and raises the watermark.
// Re-committing an index replaces the prior value; the watermark never
// decreases.
func (s *Store) CommitFeedback(index int, fb feedback.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	s.feedback[index] = fb
	if index > s.watermark {
		s.watermark = index
	}
	return nil
}

// Feedback returns the committed feedback for one question, if any.
func (s *Store) Feedback(index int) (feedback.Feedback, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fb, ok := s.feedback[index]
	return fb, ok
}

// Watermark returns the highest index with committed feedback, -1 when none.
func (s *Store) Watermark() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark
}

// AnsweredCount returns how many questions have committed feedback.
func (s *Store) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback)
}

// AllAnswered reports whether every question has committed feedback.
func (s *Store) AllAnswered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback) == len(s.questions)
}

// Answers returns all committed (question, feedback) pairs in question order.
func (s *Store) Answers() []Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indices := make([]int, 0, len(s.feedback))
	for index := range s.feedback {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	answers := make([]Answer, 0, len(indices))
	for _, index := range indices {
		answers = append(answers, Answer{
			Question: s.questions[index],
			Feedback: s.feedback[index],
		})
	}
	return answers
}

// Feedbacks returns committed feedback in question order.
func (s *Store) Feedbacks() []feedback.Feedback {
	answers := s.Answers()
	out := make([]feedback.Feedback, 0, len(answers))
	for _, a := range answers {
		out = append(out, a.Feedback)
	}
	return out
}

// SetFinalReport stores the aggregate report. Last write wins; in normal flow
// the session is discarded after the first.
func (s *Store) SetFinalReport(report feedback.FinalReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &report
}

// FinalReport returns the aggregate report, if set.
func (s *Store) FinalReport() (feedback.FinalReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return feedback.FinalReport{}, false
	}
	return *s.report, true
}
