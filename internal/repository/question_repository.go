package repository

import (
	"context"

	"github.com/quizdash/quizdash/internal/model"
)

// defaultQuestions is the fixed bank served by every quiz session.
var defaultQuestions = []model.Question{
	{
		ID:            1,
		Prompt:        "What is the capital of France?",
		Options:       []string{"London", "Berlin", "Paris", "Madrid"},
		CorrectOption: "Paris",
	},
	{
		ID:            2,
		Prompt:        "Which planet is known as the Red Planet?",
		Options:       []string{"Mars", "Venus", "Jupiter", "Saturn"},
		CorrectOption: "Mars",
	},
	{
		ID:            3,
		Prompt:        "What is the largest mammal?",
		Options:       []string{"Elephant", "Blue Whale", "Giraffe", "Hippopotamus"},
		CorrectOption: "Blue Whale",
	},
	{
		ID:            4,
		Prompt:        "Who painted the Mona Lisa?",
		Options:       []string{"Vincent van Gogh", "Leonardo da Vinci", "Pablo Picasso", "Michelangelo"},
		CorrectOption: "Leonardo da Vinci",
	},
	{
		ID:            5,
		Prompt:        "What is the chemical symbol for gold?",
		Options:       []string{"Au", "Ag", "Fe", "Cu"},
		CorrectOption: "Au",
	},
}

// QuestionRepository serves the immutable question bank.
type QuestionRepository struct {
	questions []model.Question
}

// NewQuestionRepository creates a repository over the built-in bank.
func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{questions: defaultQuestions}
}

// List returns a deep copy of the bank, ordered by position.
func (r *QuestionRepository) List(_ context.Context) ([]model.Question, error) {
	out := make([]model.Question, len(r.questions))
	for i, q := range r.questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}
