package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/middleware"
	"github.com/quizdash/quizdash/internal/model"
	"github.com/quizdash/quizdash/internal/quiz"
	"github.com/quizdash/quizdash/internal/repository"
	"github.com/quizdash/quizdash/internal/response"
	"github.com/quizdash/quizdash/internal/service"
	"github.com/quizdash/quizdash/internal/validator"
)

// QuizHandler exposes the quiz session over JSON.
type QuizHandler struct {
	quizService  *service.QuizService
	tokenService *service.TokenService
	log          zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, tokenService *service.TokenService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService:  quizService,
		tokenService: tokenService,
		log:          log.With().Str("component", "quiz_handler").Logger(),
	}
}

// GetSession godoc
// GET /api/v1/quiz/session
// Returns the current question, countdown, navigation strip and button states.
func (h *QuizHandler) GetSession(c *gin.Context) {
	view, err := h.quizService.Get(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SelectAnswer godoc
// POST /api/v1/quiz/answer
// Records the chosen option for the current question.
func (h *QuizHandler) SelectAnswer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.apply(c, service.Action{Name: service.ActionSelect, Answer: req.Answer})
}

// Next godoc
// POST /api/v1/quiz/next
func (h *QuizHandler) Next(c *gin.Context) {
	h.apply(c, service.Action{Name: service.ActionNext})
}

// Previous godoc
// POST /api/v1/quiz/previous
func (h *QuizHandler) Previous(c *gin.Context) {
	h.apply(c, service.Action{Name: service.ActionPrevious})
}

// Skip godoc
// POST /api/v1/quiz/skip
func (h *QuizHandler) Skip(c *gin.Context) {
	h.apply(c, service.Action{Name: service.ActionSkip})
}

// Submit godoc
// POST /api/v1/quiz/submit
// Finishes the quiz; the response carries the graded results.
func (h *QuizHandler) Submit(c *gin.Context) {
	h.apply(c, service.Action{Name: service.ActionSubmit})
}

// Jump godoc
// POST /api/v1/quiz/jump/:index
// Moves to a question from the navigation strip. index is zero-based.
func (h *QuizHandler) Jump(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	h.apply(c, service.Action{Name: service.ActionJump, Index: index})
}

// GetResults godoc
// GET /api/v1/quiz/results
func (h *QuizHandler) GetResults(c *gin.Context) {
	results, err := h.quizService.Results(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, results)
}

// Restart godoc
// DELETE /api/v1/quiz/session
// Discards the session and starts over with a new token.
func (h *QuizHandler) Restart(c *gin.Context) {
	view, err := h.quizService.Restart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := middleware.IssueSession(c, h.tokenService, view.SessionID); err != nil {
		h.log.Error().Err(err).Msg("Issue session token failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *QuizHandler) apply(c *gin.Context, action service.Action) {
	view, err := h.quizService.Apply(c.Request.Context(), middleware.GetSessionID(c), action)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *QuizHandler) fail(c *gin.Context, err error) {
	status, code := quizErrorCode(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("session_id", middleware.GetSessionID(c)).Msg("Quiz request failed")
	}
	response.Fail(c, status, code)
}

// quizErrorCode maps quiz and store errors to an HTTP status and error code.
func quizErrorCode(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, quiz.ErrQuizFinished):
		return http.StatusConflict, response.ErrQuizFinished
	case errors.Is(err, quiz.ErrQuizNotFinished):
		return http.StatusConflict, response.ErrQuizNotFinished
	case errors.Is(err, quiz.ErrNoPreviousQuestion):
		return http.StatusConflict, response.ErrNoPreviousQuestion
	case errors.Is(err, quiz.ErrAnswerRequired):
		return http.StatusConflict, response.ErrAnswerRequired
	case errors.Is(err, quiz.ErrNotAllAnswered):
		return http.StatusConflict, response.ErrNotAllAnswered
	case errors.Is(err, quiz.ErrQuestionOutOfRange):
		return http.StatusBadRequest, response.ErrQuestionOutOfRange
	case errors.Is(err, quiz.ErrUnknownOption):
		return http.StatusBadRequest, response.ErrUnknownOption
	case errors.Is(err, service.ErrUnknownAction):
		return http.StatusBadRequest, response.ErrUnknownAction
	case errors.Is(err, repository.ErrSessionNotFound), errors.Is(err, quiz.ErrSessionMismatch):
		return http.StatusGone, response.ErrSessionExpired
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
