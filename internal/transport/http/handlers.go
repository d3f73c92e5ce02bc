package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

// Handler serves the REST API on top of the session engine.
type Handler struct {
	engine    *app.Engine
	log       *zap.Logger
	publicURL string
}

type startSessionRequest struct {
	HostID       int `json:"hostId"`
	AutoStartNum int `json:"autoStartNum"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type answerRequest struct {
	AnswerIDs []int `json:"answerIds"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req startSessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sessionID, err := h.engine.StartSession(r.Context(), req.HostID, quizID, req.AutoStartNum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sessionId": sessionID})
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizId")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ListSessions(r.Context(), quizID))
}

func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathInt(r, "sessionId")
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := h.engine.SessionStatus(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) SessionAction(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathInt(r, "sessionId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req actionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	action, err := domain.ParseAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.Action(r.Context(), sessionID, action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) SessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathInt(r, "sessionId")
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.engine.FinalResults(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// SessionQR renders a PNG QR code pointing players at the session's join link.
func (h *Handler) SessionQR(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathInt(r, "sessionId")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.engine.SessionStatus(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	link := fmt.Sprintf("%s/join?sessionId=%d", h.publicURL, sessionID)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		h.log.Error("encode qr", zap.Int("session_id", sessionID), zap.Error(err))
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathInt(r, "sessionId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	playerID, err := h.engine.Join(r.Context(), sessionID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"playerId": playerID})
}

func (h *Handler) PlayerStatus(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerId")
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := h.engine.Status(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) QuestionInfo(w http.ResponseWriter, r *http.Request) {
	playerID, position, err := playerAndPosition(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.engine.QuestionInfo(r.Context(), playerID, position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	playerID, position, err := playerAndPosition(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req answerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.SubmitAnswer(r.Context(), playerID, position, req.AnswerIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) QuestionResults(w http.ResponseWriter, r *http.Request) {
	playerID, position, err := playerAndPosition(r)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.engine.QuestionResults(r.Context(), playerID, position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) PlayerResults(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerId")
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.engine.PlayerFinalResults(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", errBadParam, name)
	}
	return v, nil
}

func playerAndPosition(r *http.Request) (int, int, error) {
	playerID, err := pathInt(r, "playerId")
	if err != nil {
		return 0, 0, err
	}
	position, err := pathInt(r, "position")
	if err != nil {
		return 0, 0, err
	}
	return playerID, position, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
