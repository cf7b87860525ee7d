package model

import "time"

// QuestionStatus is the derived state of a single question within a session.
type QuestionStatus string

const (
	QuestionStatusUnanswered QuestionStatus = "UNANSWERED"
	QuestionStatusAnswered   QuestionStatus = "ANSWERED"
	QuestionStatusCompleted  QuestionStatus = "COMPLETED"
	QuestionStatusSkipped    QuestionStatus = "SKIPPED"
)

// NavItem is one control of the question navigation strip.
type NavItem struct {
	Index   int            `json:"index"`
	Number  int            `json:"number"`
	Status  QuestionStatus `json:"status"`
	Current bool           `json:"current"`
}

// QuizView is everything a client needs to render the quiz screen.
type QuizView struct {
	SessionID        string            `json:"session_id"`
	Index            int               `json:"index"`
	Total            int               `json:"total"`
	Question         QuestionForPlayer `json:"question"`
	SelectedAnswer   string            `json:"selected_answer"`
	RemainingSeconds int               `json:"remaining_seconds"`
	CountdownActive  bool              `json:"countdown_active"`
	Progress         float64           `json:"progress"`
	Nav              []NavItem         `json:"nav"`
	CanGoPrevious    bool              `json:"can_go_previous"`
	CanGoNext        bool              `json:"can_go_next"`
	CanSubmit        bool              `json:"can_submit"`
	IsLastQuestion   bool              `json:"is_last_question"`
	Finished         bool              `json:"finished"`
	Results          *QuizResults      `json:"results,omitempty"`
}

// OptionOutcome classifies an option on the results screen.
type OptionOutcome string

const (
	OptionOutcomeCorrect   OptionOutcome = "CORRECT"
	OptionOutcomeIncorrect OptionOutcome = "INCORRECT"
	OptionOutcomeNeutral   OptionOutcome = "NEUTRAL"
)

// OptionResult is one option of a graded question.
type OptionResult struct {
	Text    string        `json:"text"`
	Outcome OptionOutcome `json:"outcome"`
}

// QuestionResult is a graded question.
type QuestionResult struct {
	Number  int            `json:"number"`
	Prompt  string         `json:"prompt"`
	Answer  string         `json:"answer"`
	Correct bool           `json:"correct"`
	Status  QuestionStatus `json:"status"`
	Options []OptionResult `json:"options"`
}

// QuizResults is the aggregate outcome of a finished session.
type QuizResults struct {
	Questions []QuestionResult `json:"questions"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Skipped   int              `json:"skipped"`
}

// Attempt is the archived summary of a finished quiz session.
type Attempt struct {
	SessionID  string    `json:"session_id"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Skipped    int       `json:"skipped"`
	Answers    []string  `json:"answers"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
