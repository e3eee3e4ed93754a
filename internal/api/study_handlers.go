package api

import (
	"net/http"

	"github.com/soaringjerry/moodtrack/internal/models"
	"github.com/soaringjerry/moodtrack/internal/services"
)

// POST /api/enroll
func (rt *Router) handleEnroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	res, err := rt.Auth.Enroll()
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":         res.Token,
		"participantId": res.ParticipantID,
		"role":          res.Role,
		"expiresIn":     int(rt.Auth.TokenTTL().Seconds()),
	})
}

// POST /api/consent {evidence}
func (rt *Router) handleConsent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Evidence string `json:"evidence"`
	}
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	c, err := rt.Consent.Give(r.Context(), participantID(r), req.Evidence)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GET /api/study
func (rt *Router) handleStudy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pid := participantID(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"studyData": rt.Repo.Load(r.Context(), pid),
		"studyDay":  rt.EMA.StudyDay(r.Context(), pid),
	})
}

// POST /api/phq {day: 0|14, responses: {"1": 0..3, ...}}
func (rt *Router) handlePHQ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Day       int         `json:"day"`
		Responses map[int]int `json:"responses"`
	}
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.PHQ.Submit(r.Context(), participantID(r), req.Day, req.Responses)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"assessment": a,
		"severity":   services.SeverityLabel(a.TotalScore),
	})
}

// GET /api/ema lists entries; POST /api/ema {responses, compositeResponse} submits today's.
func (rt *Router) handleEMA(w http.ResponseWriter, r *http.Request) {
	pid := participantID(r)
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"entries": rt.EMA.List(r.Context(), pid)})
	case http.MethodPost:
		var req struct {
			Responses         map[int]int `json:"responses"`
			CompositeResponse string      `json:"compositeResponse"`
		}
		if err := decodeBody(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		e, err := rt.EMA.Submit(r.Context(), pid, services.EMASubmission{
			Responses:         req.Responses,
			CompositeResponse: req.CompositeResponse,
		})
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	default:
		methodNotAllowed(w)
	}
}

// GET /api/ema/today
func (rt *Router) handleEMAToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pid := participantID(r)
	e := rt.EMA.Today(r.Context(), pid)
	writeJSON(w, http.StatusOK, map[string]any{
		"completed": e != nil,
		"entry":     e,
		"studyDay":  rt.EMA.StudyDay(r.Context(), pid),
	})
}

// GET /api/report?format=json|text|csv
func (rt *Router) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pid := participantID(r)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json", "text":
		sum, err := rt.Report.Summary(r.Context(), pid)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		if format != "text" {
			writeJSON(w, http.StatusOK, sum)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=study-report.txt")
		_, _ = w.Write([]byte(rt.Report.RenderText(sum)))
	case "csv":
		b, err := rt.Report.ExportCSV(r.Context(), pid)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=ema.csv")
		_, _ = w.Write(b)
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
	}
}

// POST /api/predict {text, moodData?}
func (rt *Router) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Text     string           `json:"text"`
		MoodData *models.MoodData `json:"moodData"`
	}
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.Screening.Analyze(r.Context(), participantID(r), req.Text, req.MoodData)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/chat {message, history}
func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Message string               `json:"message"`
		History []models.ChatMessage `json:"history"`
	}
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.Chat.Send(r.Context(), participantID(r), req.Message, req.History)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/history?type=all|screening|chat; DELETE clears it.
func (rt *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	pid := participantID(r)
	switch r.Method {
	case http.MethodGet:
		t := models.HistoryType(r.URL.Query().Get("type"))
		writeJSON(w, http.StatusOK, map[string]any{"entries": rt.History.Filter(r.Context(), pid, t)})
	case http.MethodDelete:
		if err := rt.History.Clear(r.Context(), pid); err != nil {
			rt.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
