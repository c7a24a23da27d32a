package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/peers"
	"github.com/shuliakovsky/trg-remote/pkg/registry"
)

type Public struct {
	Model  *peers.Model
	Reg    *registry.Registry
	Logger *zap.Logger
}

func NewPublic(model *peers.Model, reg *registry.Registry, logger *zap.Logger) *Public {
	return &Public{Model: model, Reg: reg, Logger: logger}
}

// GET /peers
func (p *Public) Peers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t, err := p.Model.Table(r.Context())
	if err != nil {
		p.modelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GET /torrents
func (p *Public) Torrents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sel, err := p.Model.Selected(r.Context())
	if err != nil {
		p.modelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selected": sel,
		"torrents": p.Reg.All(),
	})
}

// POST /torrents/{id}/select
func (p *Public) Select(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/torrents/"), "/"), "/")
	if len(parts) != 2 || parts[1] != "select" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad torrent id", http.StatusBadRequest)
		return
	}
	if !p.Reg.Has(id) {
		http.Error(w, "unknown torrent", http.StatusNotFound)
		return
	}
	if err := p.Model.Select(r.Context(), id); err != nil {
		p.modelError(w, err)
		return
	}
	p.Logger.Info("api_torrent_selected", zap.Int64("torrent_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"selected": id})
}

func (p *Public) modelError(w http.ResponseWriter, err error) {
	if errors.Is(err, peers.ErrStopped) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	p.Logger.Warn("api_model_error", zap.Error(err))
	http.Error(w, "request cancelled", http.StatusServiceUnavailable)
}
