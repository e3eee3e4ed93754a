package api

import (
	"net/http"
	"time"
)

// POST /api/researcher/login {email, password}
func (rt *Router) handleResearcherLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.Auth.ResearcherLogin(req.Email, req.Password)
	if err != nil {
		rt.Log.Warn("researcher login rejected", "email", req.Email)
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     res.Token,
		"role":      res.Role,
		"expiresIn": int(rt.Auth.TokenTTL().Seconds()),
	})
}

// GET /api/researcher/export?kind=ema|phq
func (rt *Router) handleResearcherExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "ema"
	}
	if kind != "ema" && kind != "phq" {
		http.Error(w, "unsupported kind", http.StatusBadRequest)
		return
	}
	emaCSV, phqCSV, err := rt.Report.ExportAll(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	body := emaCSV
	if kind == "phq" {
		body = phqCSV
	}
	name := kind + "-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	_, _ = w.Write(body)
}
