package quiz

import (
	"time"

	"github.com/quizdash/quizdash/internal/model"
)

// Nav builds the navigation strip for s.
func (q *Quiz) Nav(s *Session) []model.NavItem {
	items := make([]model.NavItem, len(q.questions))
	for i := range q.questions {
		items[i] = model.NavItem{
			Index:   i,
			Number:  i + 1,
			Status:  Status(s, i),
			Current: i == s.Current,
		}
	}
	return items
}

// Results grades every stored answer. Score is derived from the answers at
// call time, so revisiting a question never counts it twice.
func (q *Quiz) Results(s *Session) *model.QuizResults {
	res := &model.QuizResults{
		Questions: make([]model.QuestionResult, len(q.questions)),
		Total:     len(q.questions),
	}

	for i, question := range q.questions {
		answer := s.Answers[i]
		qr := model.QuestionResult{
			Number:  i + 1,
			Prompt:  question.Prompt,
			Answer:  answer,
			Correct: answer != "" && answer == question.CorrectOption,
			Status:  Status(s, i),
			Options: make([]model.OptionResult, len(question.Options)),
		}
		for j, option := range question.Options {
			qr.Options[j] = model.OptionResult{Text: option, Outcome: outcome(question, option, answer)}
		}

		if qr.Correct {
			res.Score++
		}
		if s.Skipped[i] {
			res.Skipped++
		}
		res.Questions[i] = qr
	}

	return res
}

// View renders the full screen state of s at now.
func (q *Quiz) View(s *Session, now time.Time) *model.QuizView {
	question := q.questions[s.Current]
	remaining, active := q.Remaining(s, now)

	v := &model.QuizView{
		SessionID: s.ID,
		Index:     s.Current,
		Total:     len(q.questions),
		Question: model.QuestionForPlayer{
			ID:      question.ID,
			Number:  s.Current + 1,
			Prompt:  question.Prompt,
			Options: append([]string(nil), question.Options...),
		},
		SelectedAnswer:   s.Answers[s.Current],
		RemainingSeconds: remaining,
		CountdownActive:  active,
		Progress:         float64(s.Current) / float64(len(q.questions)) * 100,
		Nav:              q.Nav(s),
		CanGoPrevious:    CanGoPrevious(s),
		CanGoNext:        CanGoNext(s),
		CanSubmit:        CanSubmit(s),
		IsLastQuestion:   q.isLast(s),
		Finished:         s.Finished,
	}
	if s.Finished {
		v.Results = q.Results(s)
	}
	return v
}

// Attempt summarises a finished session for archiving.
func (q *Quiz) Attempt(s *Session) (*model.Attempt, error) {
	if !s.Finished || s.FinishedAt == nil {
		return nil, ErrQuizNotFinished
	}
	res := q.Results(s)
	return &model.Attempt{
		SessionID:  s.ID,
		Score:      res.Score,
		Total:      res.Total,
		Skipped:    res.Skipped,
		Answers:    append([]string(nil), s.Answers...),
		StartedAt:  s.StartedAt,
		FinishedAt: *s.FinishedAt,
	}, nil
}

func outcome(question model.Question, option, answer string) model.OptionOutcome {
	switch {
	case option == question.CorrectOption:
		return model.OptionOutcomeCorrect
	case option == answer:
		return model.OptionOutcomeIncorrect
	default:
		return model.OptionOutcomeNeutral
	}
}
