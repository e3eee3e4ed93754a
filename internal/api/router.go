package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/soaringjerry/moodtrack/internal/logger"
	"github.com/soaringjerry/moodtrack/internal/middleware"
	"github.com/soaringjerry/moodtrack/internal/services"
	"github.com/soaringjerry/moodtrack/internal/utils"
)

const maxBodyBytes = 1 << 20

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Repo      *services.StudyRepository
	Consent   *services.ConsentService
	PHQ       *services.PHQService
	EMA       *services.EMAService
	Report    *services.ReportService
	Screening *services.ScreeningService
	Chat      *services.ChatService
	History   *services.HistoryLog
	Auth      *services.AuthService
	Log       *logger.Logger
	Commit    string
}

type Router struct {
	Deps
}

func NewRouter(d Deps) *Router {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Log = d.Log.With("component", "api")
	return &Router{Deps: d}
}

func (rt *Router) Register(mux *http.ServeMux) {
	participant := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(services.RoleParticipant, h)
	}
	mux.HandleFunc("/health", rt.handleHealth)                        // GET
	mux.HandleFunc("/api/enroll", rt.handleEnroll)                    // POST
	mux.Handle("/api/consent", participant(rt.handleConsent))         // POST
	mux.Handle("/api/study", participant(rt.handleStudy))             // GET
	mux.Handle("/api/phq", participant(rt.handlePHQ))                 // POST
	mux.Handle("/api/ema", participant(rt.handleEMA))                 // GET, POST
	mux.Handle("/api/ema/today", participant(rt.handleEMAToday))      // GET
	mux.Handle("/api/report", participant(rt.handleReport))           // GET ?format=json|text|csv
	mux.Handle("/api/predict", participant(rt.handlePredict))         // POST
	mux.Handle("/api/chat", participant(rt.handleChat))               // POST
	mux.Handle("/api/history", participant(rt.handleHistory))         // GET ?type=, DELETE
	mux.HandleFunc("/api/researcher/login", rt.handleResearcherLogin) // POST
	mux.Handle("/api/researcher/export", middleware.RequireRole(services.RoleResearcher,
		http.HandlerFunc(rt.handleResearcherExport))) // GET ?kind=ema|phq
}

// GET /health
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	analysis := "ok"
	if rt.Screening == nil {
		analysis = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := rt.Screening.Health(ctx); err != nil {
			rt.Log.Warn("analysis service unreachable", "error", err)
			analysis = "unreachable"
		}
	}
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   utils.T(locale, "health.ok"),
		"commit":   rt.Commit,
		"analysis": analysis,
	})
}

func participantID(r *http.Request) string {
	pid, _ := middleware.SubjectFromContext(r.Context())
	return pid
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// decodeBody reads a JSON body; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return services.NewInvalidError("invalid JSON body")
	}
	return nil
}

var statusByCode = map[services.ErrorCode]int{
	services.ErrorInvalid:      http.StatusBadRequest,
	services.ErrorForbidden:    http.StatusForbidden,
	services.ErrorNotFound:     http.StatusNotFound,
	services.ErrorConflict:     http.StatusConflict,
	services.ErrorUnauthorized: http.StatusUnauthorized,
	services.ErrorBadGateway:   http.StatusBadGateway,
}

// writeError maps service errors to a status and a localized message; anything
// else is logged and hidden behind a 500.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.Log.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal", "message": "internal error"})
		return
	}
	status, ok := statusByCode[se.Code]
	if !ok {
		status = http.StatusBadRequest
	}
	if se.Err != nil {
		rt.Log.Warn("upstream failure", "path", r.URL.Path, "error", se.Err)
	}
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, status, map[string]string{"error": string(se.Code), "message": utils.T(locale, se.Message)})
}
