package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

type WSHandler struct {
	engine   *app.Engine
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Position  int   `json:"position"`
	AnswerIDs []int `json:"answerIds"`
}

type answerAccepted struct {
	Position int `json:"position"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades a player's connection and streams the phase of their session.
// Players may submit answers over the same socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.Atoi(r.URL.Query().Get("playerId"))
	if err != nil {
		http.Error(w, "missing or invalid playerId", http.StatusBadRequest)
		return
	}
	sessionID, err := h.engine.SessionOf(playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	updates, cancel, err := h.engine.Subscribe(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Int("player_id", playerID), zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// A single writer goroutine owns the connection's write side.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Int("player_id", playerID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case status, ok := <-updates:
				if !ok {
					// Engine shut down; unblock the reader.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), deadline())
					_ = conn.Close()
					return
				}
				msg := outboundMessage[any]{Type: "status", Payload: domain.PlayerStatus{
					State:        status.State,
					NumQuestions: status.NumQuestions,
					AtQuestion:   status.AtQuestion,
				}}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := h.engine.SubmitAnswer(r.Context(), playerID, payload.Position, payload.AnswerIDs); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerAccepted", Payload: answerAccepted{Position: payload.Position}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}
