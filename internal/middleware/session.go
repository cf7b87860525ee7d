package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizdash/quizdash/internal/response"
	"github.com/quizdash/quizdash/internal/service"
)

const (
	// ContextKeySessionID is the Gin context key for the quiz session id.
	ContextKeySessionID = "quiz_session_id"

	// SessionCookie carries the signed session token for browsers.
	SessionCookie = "quiz_session"

	// SessionHeader returns a freshly issued token to API clients.
	SessionHeader = "X-Quiz-Session"
)

// QuizSession resolves the player's quiz session from the cookie, a bearer
// token or ?token=... (WebSocket). A missing, invalid or expired session is
// replaced by a fresh one and a new token is issued.
func QuizSession(tokens *service.TokenService, quizService *service.QuizService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := ""
		if claims, err := tokens.Validate(extractToken(c)); err == nil {
			sessionID = claims.SessionID()
		}

		resolved, started, err := quizService.Ensure(c.Request.Context(), sessionID)
		if err != nil {
			log.Error().Err(err).Msg("Resolve quiz session failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if started {
			if err := IssueSession(c, tokens, resolved); err != nil {
				log.Error().Err(err).Msg("Issue session token failed")
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
				return
			}
		}

		c.Set(ContextKeySessionID, resolved)
		c.Next()
	}
}

// IssueSession signs a token for sessionID and hands it to the client both as
// a cookie and a response header.
func IssueSession(c *gin.Context, tokens *service.TokenService, sessionID string) error {
	token, err := tokens.Issue(sessionID)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(tokens.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	c.Header(SessionHeader, token)
	c.Set(ContextKeySessionID, sessionID)
	return nil
}

// GetSessionID retrieves the quiz session id from the Gin context.
func GetSessionID(c *gin.Context) string {
	return c.GetString(ContextKeySessionID)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	// Browsers cannot set headers on a WebSocket handshake.
	return c.Query("token")
}
