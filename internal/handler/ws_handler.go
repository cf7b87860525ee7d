package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/middleware"
	"github.com/quizdash/quizdash/internal/model"
	"github.com/quizdash/quizdash/internal/quiz"
	"github.com/quizdash/quizdash/internal/response"
	"github.com/quizdash/quizdash/internal/service"
	ws "github.com/quizdash/quizdash/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the question countdown and accepts quiz actions over a
// WebSocket.
type WSHandler struct {
	quizService *service.QuizService
	scheduler   quiz.Scheduler
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. A nil scheduler uses real timers.
func NewWSHandler(quizService *service.QuizService, scheduler quiz.Scheduler, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		scheduler:   scheduler,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream
// Sends the quiz state on connect and after every action, a tick every
// second while the countdown runs, and an expired event when it hits zero.
func (h *WSHandler) QuizStream(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	// A session created by the middleware must reach the client with the
	// handshake; headers set on the gin writer are not sent by Upgrade.
	var respHeader http.Header
	if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
		respHeader = http.Header{"Set-Cookie": cookies}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &quizStream{
		h:         h,
		ctx:       ctx,
		conn:      ws.NewConn(conn),
		sessionID: sessionID,
		log:       h.log.With().Str("session_id", sessionID).Logger(),
	}
	s.countdown = quiz.NewCountdown(h.scheduler, s.onTick, s.onExpire)

	defer func() {
		s.countdown.Stop()
		cancel()
		s.conn.Close()
	}()

	s.log.Info().Msg("Player connected")
	s.run()
}

// quizStream is the state of one WebSocket connection.
type quizStream struct {
	h         *WSHandler
	ctx       context.Context
	conn      *ws.Conn
	sessionID string
	log       zerolog.Logger
	countdown *quiz.Countdown

	mu    sync.Mutex
	index int
}

func (s *quizStream) run() {
	view, err := s.h.quizService.Get(s.ctx, s.sessionID)
	if err != nil {
		s.writeError(err)
		return
	}
	s.publish(view)

	for {
		var msg ws.RequestPayload
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			s.conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionSelect:
			s.apply(service.Action{Name: service.ActionSelect, Answer: msg.Answer})
		case ws.ActionNext:
			s.apply(service.Action{Name: service.ActionNext})
		case ws.ActionPrevious:
			s.apply(service.Action{Name: service.ActionPrevious})
		case ws.ActionSkip:
			s.apply(service.Action{Name: service.ActionSkip})
		case ws.ActionSubmit:
			s.apply(service.Action{Name: service.ActionSubmit})
		case ws.ActionJump:
			if msg.Index == nil {
				s.conn.WriteError(string(response.ErrValidation), "index is required")
				continue
			}
			s.apply(service.Action{Name: service.ActionJump, Index: *msg.Index})
		default:
			s.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			s.conn.WriteError(string(response.ErrUnknownAction), "unknown action: "+string(msg.Action))
		}
	}
}

func (s *quizStream) apply(action service.Action) {
	view, err := s.h.quizService.Apply(s.ctx, s.sessionID, action)
	if err != nil {
		s.writeError(err)
		return
	}
	s.publish(view)
}

// publish sends view and restarts the countdown to match it.
func (s *quizStream) publish(view *model.QuizView) {
	s.mu.Lock()
	s.index = view.Index
	s.mu.Unlock()

	if view.CountdownActive {
		s.countdown.Start(view.RemainingSeconds)
	} else {
		s.countdown.Stop()
	}

	if err := s.conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view}); err != nil {
		s.log.Debug().Err(err).Msg("Write state failed")
	}
}

func (s *quizStream) onTick(remaining int) {
	s.mu.Lock()
	index := s.index
	s.mu.Unlock()

	s.conn.WriteTyped(ws.TickResponse{Event: ws.EventTick, Index: index, Remaining: remaining})
}

func (s *quizStream) onExpire() {
	s.mu.Lock()
	index := s.index
	s.mu.Unlock()

	view, expired, err := s.h.quizService.TimeoutQuestion(s.ctx, s.sessionID, index)
	if err != nil {
		if s.ctx.Err() == nil {
			s.writeError(err)
		}
		return
	}

	if expired {
		s.conn.WriteTyped(ws.ExpiredResponse{Event: ws.EventExpired, Index: index})
	}
	s.publish(view)
}

func (s *quizStream) writeError(err error) {
	status, code := quizErrorCode(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Quiz stream action failed")
	}
	s.conn.WriteError(string(code), response.GetMessage(code))
}
