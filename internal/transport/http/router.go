package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quiz-session-service/internal/app"
)

// RouterConfig carries the router's collaborators. RateLimit and RateBurst apply per
// client address; a zero RateLimit disables limiting.
type RouterConfig struct {
	Engine    *app.Engine
	Logger    *zap.Logger
	Observer  RequestObserver
	Metrics   http.Handler
	RateLimit float64
	RateBurst int
	PublicURL string
}

// NewRouter creates the API router with all endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Handler{engine: cfg.Engine, log: cfg.Logger, publicURL: cfg.PublicURL}
	ws := NewWSHandler(cfg.Engine, cfg.Logger)

	r := mux.NewRouter()
	r.Use(requestLogger(cfg.Logger, cfg.Observer))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	if cfg.RateLimit > 0 {
		v1.Use(rateLimit(newClientLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	v1.HandleFunc("/quizzes/{quizId}/sessions", h.StartSession).Methods(http.MethodPost)
	v1.HandleFunc("/quizzes/{quizId}/sessions", h.ListSessions).Methods(http.MethodGet)

	v1.HandleFunc("/sessions/{sessionId}", h.SessionStatus).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{sessionId}/action", h.SessionAction).Methods(http.MethodPut)
	v1.HandleFunc("/sessions/{sessionId}/results", h.SessionResults).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{sessionId}/qr", h.SessionQR).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{sessionId}/players", h.Join).Methods(http.MethodPost)

	v1.HandleFunc("/players/{playerId}", h.PlayerStatus).Methods(http.MethodGet)
	v1.HandleFunc("/players/{playerId}/questions/{position}", h.QuestionInfo).Methods(http.MethodGet)
	v1.HandleFunc("/players/{playerId}/questions/{position}/answer", h.SubmitAnswer).Methods(http.MethodPut)
	v1.HandleFunc("/players/{playerId}/questions/{position}/results", h.QuestionResults).Methods(http.MethodGet)
	v1.HandleFunc("/players/{playerId}/results", h.PlayerResults).Methods(http.MethodGet)

	return r
}
