package router

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/quizdash/quizdash/internal/model"
	ws "github.com/quizdash/quizdash/internal/websocket"
)

type streamEvent struct {
	Event     ws.Event        `json:"event"`
	Index     int             `json:"index"`
	Remaining int             `json:"remaining"`
	State     *model.QuizView `json:"state"`
	Code      string          `json:"code"`
}

func dialStream(t *testing.T, questionTime time.Duration) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(helperRouterWithQuestionTime(t, questionTime))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/quiz/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) streamEvent {
	t.Helper()

	var ev streamEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntilState returns the events up to and including the next state.
func readUntilState(t *testing.T, conn *websocket.Conn) []streamEvent {
	t.Helper()

	var events []streamEvent
	for {
		ev := readEvent(t, conn)
		require.NotEqual(t, ws.EventError, ev.Event, "error event %s", ev.Code)
		events = append(events, ev)
		if ev.Event == ws.EventState {
			return events
		}
	}
}

func TestQuizStreamCountdownExpirySkips(t *testing.T) {
	conn := dialStream(t, time.Second)

	first := readEvent(t, conn)
	require.Equal(t, ws.EventState, first.Event)
	require.Equal(t, 0, first.State.Index)
	require.True(t, first.State.CountdownActive)
	require.Equal(t, 1, first.State.RemainingSeconds)

	for index := 0; index < 2; index++ {
		events := readUntilState(t, conn)
		require.GreaterOrEqual(t, len(events), 3)

		n := len(events)
		tick, expired, state := events[n-3], events[n-2], events[n-1]
		require.Equal(t, ws.EventTick, tick.Event)
		require.Equal(t, index, tick.Index)
		require.Equal(t, 0, tick.Remaining)
		require.Equal(t, ws.EventExpired, expired.Event)
		require.Equal(t, index, expired.Index)

		require.Equal(t, index+1, state.State.Index)
		require.Equal(t, model.QuestionStatusSkipped, state.State.Nav[index].Status)
		require.Nil(t, state.State.Results)
	}
}

func TestQuizStreamExpiryFollowsNavigation(t *testing.T) {
	conn := dialStream(t, time.Second)

	first := readEvent(t, conn)
	require.Equal(t, ws.EventState, first.Event)
	require.Equal(t, 0, first.State.Index)

	// The countdown started for question 0 must not skip it once the
	// player has moved on.
	jump := 3
	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionJump, Index: &jump}))

	events := readUntilState(t, conn)
	require.Equal(t, 3, events[len(events)-1].State.Index)

	events = readUntilState(t, conn)
	n := len(events)
	require.GreaterOrEqual(t, n, 2)
	require.Equal(t, ws.EventExpired, events[n-2].Event)
	require.Equal(t, 3, events[n-2].Index)

	state := events[n-1].State
	require.Equal(t, 4, state.Index)
	require.Equal(t, model.QuestionStatusSkipped, state.Nav[3].Status)
	require.Equal(t, model.QuestionStatusUnanswered, state.Nav[0].Status)
	for _, ev := range events[:n-1] {
		require.Equal(t, 3, ev.Index, "%s event for an abandoned question", ev.Event)
	}
}
