package model

// Question is a single multiple-choice question of the quiz bank.
type Question struct {
	ID            int      `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// QuestionForPlayer is a question without the correct answer, sent to players.
type QuestionForPlayer struct {
	ID      int      `json:"id"`
	Number  int      `json:"number"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// SelectAnswerRequest is the payload for choosing an option on the current question.
type SelectAnswerRequest struct {
	Answer string `json:"answer" form:"answer" binding:"required,notblank,max=255"`
}
