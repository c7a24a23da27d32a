package api

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/prefs"
)

type Admin struct {
	Prefs    *prefs.Manager
	AdminKey string
	Logger   *zap.Logger
}

func NewAdmin(manager *prefs.Manager, key string, logger *zap.Logger) *Admin {
	return &Admin{Prefs: manager, AdminKey: key, Logger: logger}
}

// PrefsApply is the POST /admin/prefs body.
type PrefsApply struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
	// Apply sends session-set and closes the dialog; otherwise the values
	// are only staged on the form.
	Apply bool `json:"apply"`
}

func (a *Admin) auth(w http.ResponseWriter, r *http.Request) bool {
	got := r.Header.Get("x-admin-key")
	if a.AdminKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.AdminKey)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// GET|POST|DELETE /admin/prefs
func (a *Admin) HandlePrefs(w http.ResponseWriter, r *http.Request) {
	if !a.auth(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.openPrefs(w)
	case http.MethodPost:
		a.applyPrefs(w, r)
	case http.MethodDelete:
		a.closePrefs(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *Admin) openPrefs(w http.ResponseWriter) {
	d, err := a.Prefs.Open()
	if errors.Is(err, prefs.ErrNoSession) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *Admin) applyPrefs(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	_ = r.Body.Close()
	started := LogRequest(a.Logger, "admin_prefs", r, body)

	var req PrefsApply
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil || req.ID == "" {
		a.respond(w, http.StatusBadRequest, map[string]any{"error": "bad json"}, started)
		return
	}

	d, err := a.Prefs.Edit(req.ID, req.Values)
	switch {
	case errors.Is(err, prefs.ErrNotCurrent):
		a.respond(w, http.StatusConflict, map[string]any{"error": err.Error()}, started)
		return
	case err != nil:
		a.respond(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "dialog": d}, started)
		return
	}
	if !req.Apply {
		a.respond(w, http.StatusOK, d, started)
		return
	}

	if err := a.Prefs.Respond(r.Context(), req.ID, true); err != nil {
		a.respond(w, http.StatusBadGateway, map[string]any{"error": err.Error()}, started)
		return
	}
	a.respond(w, http.StatusOK, map[string]any{"status": "applied"}, started)
}

func (a *Admin) closePrefs(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := a.Prefs.Respond(r.Context(), id, false); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "closed"})
}

func (a *Admin) respond(w http.ResponseWriter, code int, v any, started time.Time) {
	b, _ := json.Marshal(v)
	LogResponse(a.Logger, "admin_prefs", code, b, started)
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
