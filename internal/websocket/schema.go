package websocket

import "github.com/quizdash/quizdash/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionSkip     Action = "skip"
	ActionSubmit   Action = "submit"
	ActionJump     Action = "jump"
	ActionPing     Action = "ping"
)

// RequestPayload is a single client message. Answer is set for select,
// Index for jump.
type RequestPayload struct {
	Action Action `json:"action"`
	Answer string `json:"answer,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState   Event = "state"
	EventTick    Event = "tick"
	EventExpired Event = "expired"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// StateResponse carries the full quiz view after connect and every action.
type StateResponse struct {
	Event Event           `json:"event"`
	State *model.QuizView `json:"state"`
}

// TickResponse is sent once per second while the countdown runs.
type TickResponse struct {
	Event     Event `json:"event"`
	Index     int   `json:"index"`
	Remaining int   `json:"remaining"`
}

// ExpiredResponse announces that question Index ran out of time and was skipped.
type ExpiredResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
