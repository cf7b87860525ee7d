package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/middleware"
	"github.com/quizdash/quizdash/internal/model"
	"github.com/quizdash/quizdash/internal/repository"
	"github.com/quizdash/quizdash/internal/response"
	"github.com/quizdash/quizdash/internal/service"
)

const quizPath = "/quiz"

// PageHandler renders the server-side HTML pages. Quiz forms follow
// post/redirect/get so a reload never replays an action.
type PageHandler struct {
	landingService *service.LandingService
	quizService    *service.QuizService
	tokenService   *service.TokenService
	log            zerolog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(
	landingService *service.LandingService,
	quizService *service.QuizService,
	tokenService *service.TokenService,
	log zerolog.Logger,
) *PageHandler {
	return &PageHandler{
		landingService: landingService,
		quizService:    quizService,
		tokenService:   tokenService,
		log:            log.With().Str("component", "page_handler").Logger(),
	}
}

// QuizPage is the template data of quiz.html.
type QuizPage struct {
	View  *model.QuizView
	Error string
}

// Landing godoc
// GET /
func (h *PageHandler) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing.html", h.landingService.Page())
}

// Quiz godoc
// GET /quiz
func (h *PageHandler) Quiz(c *gin.Context) {
	view, err := h.quizService.Get(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Evicted between middleware and handler; the next load starts over.
			c.Redirect(http.StatusSeeOther, quizPath)
			return
		}
		h.log.Error().Err(err).Msg("Load quiz page failed")
		c.String(http.StatusInternalServerError, response.GetMessage(response.ErrInternal))
		return
	}

	page := QuizPage{View: view}
	if code := c.Query("error"); code != "" {
		page.Error = response.GetMessage(response.ErrCode(code))
	}
	c.HTML(http.StatusOK, "quiz.html", page)
}

// PostAnswer godoc
// POST /quiz/answer
func (h *PageHandler) PostAnswer(c *gin.Context) {
	h.run(c, service.Action{Name: service.ActionSelect, Answer: c.PostForm("answer")})
}

// PostNext godoc
// POST /quiz/next
// A radio selection posted with the form is recorded before moving on.
func (h *PageHandler) PostNext(c *gin.Context) {
	h.run(c, h.selection(c), service.Action{Name: service.ActionNext})
}

// PostPrevious godoc
// POST /quiz/previous
func (h *PageHandler) PostPrevious(c *gin.Context) {
	h.run(c, h.selection(c), service.Action{Name: service.ActionPrevious})
}

// PostSkip godoc
// POST /quiz/skip
func (h *PageHandler) PostSkip(c *gin.Context) {
	h.run(c, service.Action{Name: service.ActionSkip})
}

// PostSubmit godoc
// POST /quiz/submit
func (h *PageHandler) PostSubmit(c *gin.Context) {
	h.run(c, h.selection(c), service.Action{Name: service.ActionSubmit})
}

// PostJump godoc
// POST /quiz/jump/:index
func (h *PageHandler) PostJump(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		redirectWithError(c, response.ErrInvalidID)
		return
	}
	h.run(c, h.selection(c), service.Action{Name: service.ActionJump, Index: index})
}

// PostRestart godoc
// POST /quiz/restart
func (h *PageHandler) PostRestart(c *gin.Context) {
	view, err := h.quizService.Restart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Restart quiz failed")
		redirectWithError(c, response.ErrInternal)
		return
	}
	if err := middleware.IssueSession(c, h.tokenService, view.SessionID); err != nil {
		h.log.Error().Err(err).Msg("Issue session token failed")
		redirectWithError(c, response.ErrInternal)
		return
	}
	c.Redirect(http.StatusSeeOther, quizPath)
}

// selection returns a select action for the posted radio value, or an empty
// action when nothing was posted.
func (h *PageHandler) selection(c *gin.Context) service.Action {
	answer := c.PostForm("answer")
	if answer == "" {
		return service.Action{}
	}
	return service.Action{Name: service.ActionSelect, Answer: answer}
}

func (h *PageHandler) run(c *gin.Context, actions ...service.Action) {
	ctx := c.Request.Context()
	sessionID := middleware.GetSessionID(c)

	for _, action := range actions {
		if action.Name == "" {
			continue
		}
		if _, err := h.quizService.Apply(ctx, sessionID, action); err != nil {
			_, code := quizErrorCode(err)
			if code == response.ErrInternal {
				h.log.Error().Err(err).Str("action", action.Name).Msg("Quiz form action failed")
			}
			redirectWithError(c, code)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, quizPath)
}

func redirectWithError(c *gin.Context, code response.ErrCode) {
	c.Redirect(http.StatusSeeOther, quizPath+"?error="+url.QueryEscape(string(code)))
}
