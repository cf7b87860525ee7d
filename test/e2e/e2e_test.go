//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/quizdash/quizdash/internal/model"
)

const (
	defaultBaseURL = "http://localhost:8080"
	sessionHeader  = "X-Quiz-Session"
)

var (
	baseURL     string
	dbURL       string
	token       string
	sessionID   string
	bankAnswers = []string{"Paris", "Mars", "Blue Whale", "Leonardo da Vinci", "Au"}
)

type envelope struct {
	Data  model.QuizView `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = strings.TrimRight(os.Getenv("BASE_URL"), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	dbURL = os.Getenv("DATABASE_URL")

	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		fmt.Printf("Server not reachable at %s: %v\n", baseURL, err)
		os.Exit(1)
	}
	resp.Body.Close()

	os.Exit(m.Run())
}

func TestE2EFlow(t *testing.T) {
	// Step 1: Start a session
	t.Run("StartSession", func(t *testing.T) {
		status, env := call(t, http.MethodGet, "/api/v1/quiz/session", nil)
		if status != http.StatusOK {
			t.Fatalf("status %d", status)
		}
		if token == "" {
			t.Fatal("session token missing")
		}
		if env.Data.Total != len(bankAnswers) {
			t.Fatalf("expected %d questions, got %d", len(bankAnswers), env.Data.Total)
		}
		sessionID = env.Data.SessionID
		t.Logf("Session started: %s", sessionID)
	})

	// Step 2: Next without an answer is refused
	t.Run("NextRequiresAnswer", func(t *testing.T) {
		status, env := call(t, http.MethodPost, "/api/v1/quiz/next", nil)
		if status != http.StatusConflict || env.Error == nil || env.Error.Code != "ANSWER_REQUIRED" {
			t.Fatalf("expected 409 ANSWER_REQUIRED, got %d %+v", status, env.Error)
		}
	})

	// Step 3: Answer every question
	t.Run("AnswerAll", func(t *testing.T) {
		for i, answer := range bankAnswers {
			status, env := call(t, http.MethodPost, "/api/v1/quiz/answer", map[string]string{"answer": answer})
			if status != http.StatusOK {
				t.Fatalf("answer %d: status %d", i, status)
			}
			if env.Data.SelectedAnswer != answer {
				t.Fatalf("answer %d: selected %q", i, env.Data.SelectedAnswer)
			}
			if i < len(bankAnswers)-1 {
				if status, _ := call(t, http.MethodPost, "/api/v1/quiz/next", nil); status != http.StatusOK {
					t.Fatalf("next %d: status %d", i, status)
				}
			}
		}
	})

	// Step 4: Submit
	t.Run("Submit", func(t *testing.T) {
		status, env := call(t, http.MethodPost, "/api/v1/quiz/submit", nil)
		if status != http.StatusOK {
			t.Fatalf("status %d", status)
		}
		if !env.Data.Finished || env.Data.Results == nil {
			t.Fatal("quiz not finished after submit")
		}
		if env.Data.Results.Score != len(bankAnswers) {
			t.Fatalf("expected full score, got %d", env.Data.Results.Score)
		}
	})

	// Step 5: Results stay readable
	t.Run("Results", func(t *testing.T) {
		var body struct {
			Data model.QuizResults `json:"data"`
		}
		status := getJSON(t, "/api/v1/quiz/results", &body)
		if status != http.StatusOK || body.Data.Score != len(bankAnswers) {
			t.Fatalf("unexpected results %d %+v", status, body.Data)
		}
	})

	// Step 6: The attempt reaches the archive
	t.Run("Archived", func(t *testing.T) {
		if dbURL == "" {
			t.Skip("DATABASE_URL not set")
		}
		ctx := context.Background()
		conn, err := pgx.Connect(ctx, dbURL)
		if err != nil {
			t.Fatalf("db connect: %v", err)
		}
		defer conn.Close(ctx)

		deadline := time.Now().Add(10 * time.Second)
		for {
			var score int
			err := conn.QueryRow(ctx, `SELECT score FROM quiz_attempts WHERE session_id = $1`, sessionID).Scan(&score)
			if err == nil {
				if score != len(bankAnswers) {
					t.Fatalf("archived score %d", score)
				}
				return
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				t.Fatalf("query attempt: %v", err)
			}
			if time.Now().After(deadline) {
				t.Fatal("attempt was not archived")
			}
			time.Sleep(250 * time.Millisecond)
		}
	})

	// Step 7: Restart hands out a new session
	t.Run("Restart", func(t *testing.T) {
		status, env := call(t, http.MethodDelete, "/api/v1/quiz/session", nil)
		if status != http.StatusOK {
			t.Fatalf("status %d", status)
		}
		if env.Data.SessionID == sessionID || env.Data.Finished {
			t.Fatal("restart kept the finished session")
		}
		sessionID = env.Data.SessionID
	})
}

func TestE2EWebSocket(t *testing.T) {
	if token == "" {
		if status, _ := call(t, http.MethodGet, "/api/v1/quiz/session", nil); status != http.StatusOK {
			t.Fatalf("start session: status %d", status)
		}
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws/v1/quiz/stream"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	header := http.Header{}
	header.Set("Origin", baseURL)
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var first map[string]json.RawMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if string(first["event"]) != `"state"` {
		t.Fatalf("expected state event first, got %s", first["event"])
	}

	if err := conn.WriteJSON(map[string]string{"action": "select", "answer": bankAnswers[0]}); err != nil {
		t.Fatalf("write select: %v", err)
	}

	// Ticks may interleave; wait for the state carrying the selection.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var msg struct {
			Event string          `json:"event"`
			State *model.QuizView `json:"state"`
		}
		conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Event == "state" && msg.State != nil && msg.State.SelectedAnswer == bankAnswers[0] {
			return
		}
	}
	t.Fatal("no state update after select")
}

// ─── Helpers ────────────────────────────────────────────────────────

func call(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if tok := resp.Header.Get(sessionHeader); tok != "" {
		token = tok
	}

	var env envelope
	raw := readBody(resp)
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
	}
	return resp.StatusCode, env
}

func getJSON(t *testing.T, path string, v interface{}) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
