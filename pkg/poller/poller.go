package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/metrics"
	"github.com/shuliakovsky/trg-remote/pkg/peers"
	"github.com/shuliakovsky/trg-remote/pkg/prefs"
	"github.com/shuliakovsky/trg-remote/pkg/registry"
	"github.com/shuliakovsky/trg-remote/pkg/rpc"
)

const DefaultInterval = 3 * time.Second

// Daemon is the part of rpc.Client the poller needs.
type Daemon interface {
	TorrentGet(ctx context.Context, ids []int64, fields []string) ([]rpc.Torrent, error)
	SessionGet(ctx context.Context) (json.RawMessage, error)
}

type Config struct {
	Interval time.Duration
	// TorrentID is selected on startup when the daemon has it.
	TorrentID int64
}

// Status is what /healthz reports about the update cycle.
type Status struct {
	LastSuccess time.Time `json:"lastSuccess"`
	LastError   string    `json:"lastError,omitempty"`
	FailCount   int       `json:"failCount"`
	Serial      int64     `json:"serial"`
}

type Poller struct {
	daemon  Daemon
	model   *peers.Model
	reg     *registry.Registry
	session *prefs.Cache
	cfg     Config
	logger  *zap.Logger
	serial  int64
	cycle   sync.Mutex

	mu     sync.RWMutex
	status Status
}

func New(daemon Daemon, model *peers.Model, reg *registry.Registry, session *prefs.Cache, cfg Config, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{daemon: daemon, model: model, reg: reg, session: session, cfg: cfg, logger: logger}
}

// Run polls immediately and then on every interval until ctx is done.
// Failed cycles are logged and counted; they never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.cfg.Interval)
	defer t.Stop()
	for {
		if err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("poll_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Tick runs one update cycle: torrent list, peers of the selected torrent,
// session settings.
func (p *Poller) Tick(ctx context.Context) error {
	p.cycle.Lock()
	defer p.cycle.Unlock()

	if err := p.tick(ctx); err != nil {
		metrics.PollFailures.Inc()
		p.mu.Lock()
		p.status.FailCount++
		p.status.LastError = err.Error()
		p.mu.Unlock()
		return err
	}
	p.mu.Lock()
	p.status.LastSuccess = time.Now()
	p.status.LastError = ""
	p.status.Serial = p.serial
	p.mu.Unlock()
	return nil
}

func (p *Poller) tick(ctx context.Context) error {
	list, err := p.daemon.TorrentGet(ctx, nil, rpc.ListFields)
	if err != nil {
		return fmt.Errorf("torrent list: %w", err)
	}
	p.reg.Replace(list)

	sel, err := p.ensureSelection(ctx)
	if err != nil {
		return err
	}
	if sel != 0 {
		if err := p.updatePeers(ctx, sel); err != nil {
			return err
		}
	}

	raw, err := p.daemon.SessionGet(ctx)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s, err := prefs.DecodeSettings(raw)
	if err != nil {
		return fmt.Errorf("session: decode: %w", err)
	}
	p.session.Store(s)
	return nil
}

// ensureSelection keeps the current torrent while the daemon still has it,
// otherwise falls back to the configured torrent and then the lowest id.
func (p *Poller) ensureSelection(ctx context.Context) (int64, error) {
	sel, err := p.model.Selected(ctx)
	if err != nil {
		return 0, err
	}
	if sel != 0 && p.reg.Has(sel) {
		return sel, nil
	}

	next, ok := p.cfg.TorrentID, p.reg.Has(p.cfg.TorrentID)
	if !ok {
		next, ok = p.reg.First()
	}
	if !ok {
		next = 0
	}
	if next == sel {
		return sel, nil
	}
	if err := p.model.Select(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (p *Poller) updatePeers(ctx context.Context, id int64) error {
	ts, err := p.daemon.TorrentGet(ctx, []int64{id}, rpc.PeerFields)
	if err != nil {
		return fmt.Errorf("torrent %d peers: %w", id, err)
	}
	if len(ts) == 0 {
		// removed between the list call and this one; next cycle reselects
		p.logger.Info("poll_torrent_vanished", zap.Int64("torrent_id", id))
		return nil
	}

	p.serial++
	res, err := p.model.Update(ctx, peers.Snapshot{TorrentID: id, Peers: ts[0].Peers, Serial: p.serial})
	if err != nil {
		return fmt.Errorf("torrent %d reconcile: %w", id, err)
	}
	if res.Skipped > 0 || res.Duplicates > 0 {
		p.logger.Warn("poll_snapshot_irregular",
			zap.Int64("torrent_id", id),
			zap.Int64("serial", p.serial),
			zap.Int("skipped", res.Skipped),
			zap.Int("duplicates", res.Duplicates),
		)
	}
	return nil
}

func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
