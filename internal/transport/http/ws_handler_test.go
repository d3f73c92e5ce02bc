package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

func TestWebSocketStatusAndAnswerFlow(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	sessionID, err := engine.StartSession(ctx, 1, 1, 0)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	playerID, err := engine.Join(ctx, sessionID, "Ann")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	wsHandler := NewWSHandler(engine, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?playerId=" + strconv.Itoa(playerID)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, payload := readNext(conn, t, "status")
	if payload["state"] != string(domain.StateLobby) {
		t.Fatalf("expected LOBBY status first, got %v", payload["state"])
	}

	if err := engine.Action(ctx, sessionID, domain.ActionNextQuestion); err != nil {
		t.Fatalf("next question: %v", err)
	}
	if err := engine.Action(ctx, sessionID, domain.ActionSkipCountdown); err != nil {
		t.Fatalf("skip countdown: %v", err)
	}
	waitForState(conn, t, domain.StateQuestionOpen)

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"position":  1,
			"answerIds": []int{1},
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	accepted := false
	for i := 0; i < 5 && !accepted; i++ {
		typ, _ := readNext(conn, t, "")
		if typ == "error" {
			t.Fatalf("answer rejected")
		}
		accepted = typ == "answerAccepted"
	}
	if !accepted {
		t.Fatalf("expected answerAccepted")
	}
}

func TestWebSocketRejectsUnknownPlayer(t *testing.T) {
	engine := newTestEngine(t)
	wsHandler := NewWSHandler(engine, nil)
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?playerId=404"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

func waitForState(conn *websocket.Conn, t *testing.T, want domain.SessionState) {
	t.Helper()
	for i := 0; i < 10; i++ {
		_, payload := readNext(conn, t, "status")
		if payload["state"] == string(want) {
			return
		}
	}
	t.Fatalf("state %s never observed", want)
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newTestEngine(t *testing.T) *app.Engine {
	t.Helper()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	opts := app.DefaultOptions()
	opts.Countdown = time.Hour
	engine := app.NewEngine(memory.NewSessionStore(), quizzes, opts)
	t.Cleanup(engine.Close)
	return engine
}

func sampleQuizzes() map[int]domain.Quiz {
	return map[int]domain.Quiz{
		1: {
			ID:   1,
			Name: "Arithmetic",
			Questions: []domain.Question{
				{
					ID:       10,
					Text:     "What is 2 + 2?",
					Duration: 600,
					Points:   5,
					Answers: []domain.Answer{
						{ID: 1, Text: "4", Correct: true},
						{ID: 2, Text: "5"},
					},
				},
			},
		},
		2: {ID: 2, Name: "Empty"},
	}
}
