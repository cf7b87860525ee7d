package quiz

import (
	"errors"
	"fmt"
	"time"

	"github.com/quizdash/quizdash/internal/model"
)

// Guard rails for quiz transitions.
var (
	ErrNoQuestions        = errors.New("question bank is empty")
	ErrQuizFinished       = errors.New("quiz is already finished")
	ErrQuizNotFinished    = errors.New("quiz is not finished yet")
	ErrNoPreviousQuestion = errors.New("already at the first question")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrUnknownOption      = errors.New("option does not belong to the current question")
	ErrAnswerRequired     = errors.New("an answer is required to continue")
	ErrNotAllAnswered     = errors.New("every question must be answered or skipped first")
	ErrSessionMismatch    = errors.New("session does not match the question bank")
)

// Session is the transient progress of one player through the quiz.
// Answers, Completed and Skipped are indexed by question position.
type Session struct {
	ID         string     `json:"id"`
	Current    int        `json:"current"`
	Answers    []string   `json:"answers"`
	Completed  []bool     `json:"completed"`
	Skipped    []bool     `json:"skipped"`
	Finished   bool       `json:"finished"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	// Deadline is when the countdown of the current question runs out.
	// Nil while the countdown is stopped.
	Deadline  *time.Time `json:"deadline,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Quiz owns the fixed question bank and applies transitions to sessions.
// It holds no per-session state and is safe for concurrent use.
type Quiz struct {
	questions []model.Question
	timeLimit time.Duration
}

// New creates a Quiz over questions with the given per-question countdown.
func New(questions []model.Question, timeLimit time.Duration) (*Quiz, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if timeLimit <= 0 {
		return nil, fmt.Errorf("time limit must be positive, got %s", timeLimit)
	}
	for i, q := range questions {
		if !q.HasOption(q.CorrectOption) {
			return nil, fmt.Errorf("question %d: correct option %q is not one of its options", i+1, q.CorrectOption)
		}
	}

	qs := make([]model.Question, len(questions))
	copy(qs, questions)
	return &Quiz{questions: qs, timeLimit: timeLimit}, nil
}

// NewSession starts a session at the first question with the countdown armed.
func (q *Quiz) NewSession(id string, now time.Time) *Session {
	n := len(q.questions)
	s := &Session{
		ID:        id,
		Answers:   make([]string, n),
		Completed: make([]bool, n),
		Skipped:   make([]bool, n),
		StartedAt: now,
		UpdatedAt: now,
	}
	q.arm(s, now)
	return s
}

// Validate checks that a stored session still fits the question bank.
func (q *Quiz) Validate(s *Session) error {
	n := len(q.questions)
	if len(s.Answers) != n || len(s.Completed) != n || len(s.Skipped) != n {
		return ErrSessionMismatch
	}
	if s.Current < 0 || s.Current >= n {
		return ErrSessionMismatch
	}
	return nil
}

// SelectAnswer records option as the answer of the current question.
func (q *Quiz) SelectAnswer(s *Session, option string, now time.Time) error {
	if s.Finished {
		return ErrQuizFinished
	}
	if !q.questions[s.Current].HasOption(option) {
		return ErrUnknownOption
	}
	s.Answers[s.Current] = option
	s.UpdatedAt = now
	return nil
}

// Next completes the current question and moves forward.
// On the last question it behaves like Submit, so it is gated by CanSubmit
// and fails with ErrNotAllAnswered while any question is still untouched.
func (q *Quiz) Next(s *Session, now time.Time) error {
	if s.Finished {
		return ErrQuizFinished
	}
	if !CanGoNext(s) {
		return ErrAnswerRequired
	}
	if q.isLast(s) {
		return q.Submit(s, now)
	}

	q.complete(s)
	s.Current++
	q.arm(s, now)
	s.UpdatedAt = now
	return nil
}

// Previous steps back one question.
func (q *Quiz) Previous(s *Session, now time.Time) error {
	if s.Finished {
		return ErrQuizFinished
	}
	if !CanGoPrevious(s) {
		return ErrNoPreviousQuestion
	}
	s.Current--
	q.arm(s, now)
	s.UpdatedAt = now
	return nil
}

// Skip marks the current question skipped, clears its answer and moves forward.
// On the last question the index stays put and the countdown stops.
func (q *Quiz) Skip(s *Session, now time.Time) error {
	if s.Finished {
		return ErrQuizFinished
	}
	q.skipAt(s, now)
	s.UpdatedAt = now
	return nil
}

// Submit completes the current question and reveals the results.
func (q *Quiz) Submit(s *Session, now time.Time) error {
	if s.Finished {
		return ErrQuizFinished
	}
	if !CanSubmit(s) {
		return ErrNotAllAnswered
	}
	q.complete(s)
	s.Finished = true
	s.FinishedAt = &now
	s.Deadline = nil
	s.UpdatedAt = now
	return nil
}

// Jump moves to question index from the navigation strip.
func (q *Quiz) Jump(s *Session, index int, now time.Time) error {
	if s.Finished {
		return ErrQuizFinished
	}
	if index < 0 || index >= len(q.questions) {
		return ErrQuestionOutOfRange
	}
	s.Current = index
	q.arm(s, now)
	s.UpdatedAt = now
	return nil
}

// Expire applies every countdown that ran out before now, each one exactly
// like a manual Skip. It returns how many questions were skipped.
func (q *Quiz) Expire(s *Session, now time.Time) int {
	skipped := 0
	for !s.Finished && s.Deadline != nil && !now.Before(*s.Deadline) {
		at := *s.Deadline
		q.skipAt(s, at)
		s.UpdatedAt = at
		skipped++
	}
	return skipped
}

// Remaining returns the countdown left on the current question, rounded up to
// whole seconds. ok is false while the countdown is stopped.
func (q *Quiz) Remaining(s *Session, now time.Time) (seconds int, ok bool) {
	if s.Finished || s.Deadline == nil {
		return 0, false
	}
	left := s.Deadline.Sub(now)
	if left <= 0 {
		return 0, true
	}
	return int((left + time.Second - 1) / time.Second), true
}

// Status derives the state of question i. Completed and skipped are exclusive;
// completed wins if a stale record ever carries both.
func Status(s *Session, i int) model.QuestionStatus {
	switch {
	case s.Completed[i]:
		return model.QuestionStatusCompleted
	case s.Skipped[i]:
		return model.QuestionStatusSkipped
	case s.Answers[i] != "":
		return model.QuestionStatusAnswered
	default:
		return model.QuestionStatusUnanswered
	}
}

// CanGoPrevious reports whether Previous is allowed.
func CanGoPrevious(s *Session) bool {
	return !s.Finished && s.Current > 0
}

// CanGoNext reports whether Next is allowed: the current question has a
// selection or was already completed or skipped.
func CanGoNext(s *Session) bool {
	if s.Finished {
		return false
	}
	i := s.Current
	return s.Answers[i] != "" || s.Completed[i] || s.Skipped[i]
}

// CanSubmit reports whether every question is completed, skipped or answered.
func CanSubmit(s *Session) bool {
	if s.Finished {
		return false
	}
	for i := range s.Answers {
		if !s.Completed[i] && !s.Skipped[i] && s.Answers[i] == "" {
			return false
		}
	}
	return true
}

func (q *Quiz) isLast(s *Session) bool {
	return s.Current == len(q.questions)-1
}

func (q *Quiz) arm(s *Session, now time.Time) {
	deadline := now.Add(q.timeLimit)
	s.Deadline = &deadline
}

// complete marks the current question completed when it carries an answer.
// A skipped question advanced with no selection stays skipped.
func (q *Quiz) complete(s *Session) {
	i := s.Current
	if s.Answers[i] == "" {
		return
	}
	s.Completed[i] = true
	s.Skipped[i] = false
}

func (q *Quiz) skipAt(s *Session, at time.Time) {
	i := s.Current
	s.Skipped[i] = true
	s.Completed[i] = false
	s.Answers[i] = ""

	if q.isLast(s) {
		s.Deadline = nil
		return
	}
	s.Current++
	q.arm(s, at)
}
