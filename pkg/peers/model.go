package peers

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/metrics"
)

var ErrStopped = errors.New("peer model stopped")

type ChangeKind string

const (
	ChangeReconciled ChangeKind = "reconciled"
	ChangeHostname   ChangeKind = "hostname"
	ChangeSelected   ChangeKind = "selected"
)

type Change struct {
	Kind      ChangeKind `json:"kind"`
	TorrentID int64      `json:"torrentId"`
	Serial    int64      `json:"serial"`
	Address   string     `json:"address,omitempty"`
	Result    *Result    `json:"result,omitempty"`
}

type update struct {
	snap  Snapshot
	reply chan updateReply
}

type updateReply struct {
	res Result
	err error
}

// Model owns a Store and serialises every access to it through Run: snapshot
// passes, hostname write-backs, selection changes and reads all execute on
// the Run goroutine.
type Model struct {
	store       *Store
	rec         *Reconciler
	completions <-chan Completion
	logger      *zap.Logger

	updates chan update
	ops     chan func()
	done    chan struct{}

	// touched only by Run
	torrentID int64
	serial    int64
	needFirst bool

	subsMu sync.Mutex
	subs   map[string]chan Change
}

func NewModel(store *Store, rec *Reconciler, completions <-chan Completion, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		store:       store,
		rec:         rec,
		completions: completions,
		logger:      logger,
		updates:     make(chan update),
		ops:         make(chan func()),
		done:        make(chan struct{}),
		needFirst:   true,
		subs:        make(map[string]chan Change),
	}
}

func (m *Model) Run(ctx context.Context) error {
	defer func() {
		close(m.done)
		m.closeSubscribers()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-m.updates:
			res, err := m.apply(u.snap)
			u.reply <- updateReply{res: res, err: err}
		case c, ok := <-m.completions:
			if !ok {
				m.completions = nil
				continue
			}
			m.writeBack(c)
		case op := <-m.ops:
			op()
		}
	}
}

// Update runs one reconciliation pass and returns its outcome.
func (m *Model) Update(ctx context.Context, snap Snapshot) (Result, error) {
	u := update{snap: snap, reply: make(chan updateReply, 1)}
	select {
	case m.updates <- u:
	case <-m.done:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	r := <-u.reply
	return r.res, r.err
}

// Select switches the table to another torrent. The store is emptied and the
// next pass for torrentID is a first load.
func (m *Model) Select(ctx context.Context, torrentID int64) error {
	return m.do(ctx, func() {
		if torrentID == m.torrentID && !m.needFirst {
			return
		}
		m.torrentID = torrentID
		m.serial = 0
		m.needFirst = true
		m.store.Clear()
		metrics.PeerRows.Set(0)
		m.logger.Info("peers_torrent_selected", zap.Int64("torrent_id", torrentID))
		m.notify(Change{Kind: ChangeSelected, TorrentID: torrentID})
	})
}

func (m *Model) Selected(ctx context.Context) (int64, error) {
	var id int64
	err := m.do(ctx, func() { id = m.torrentID })
	return id, err
}

func (m *Model) Table(ctx context.Context) (Table, error) {
	var t Table
	err := m.do(ctx, func() { t = newTable(m.torrentID, m.serial, m.store.Rows()) })
	return t, err
}

// Do runs fn on the owner goroutine with exclusive access to the store.
func (m *Model) Do(ctx context.Context, fn func(*Store)) error {
	return m.do(ctx, func() { fn(m.store) })
}

func (m *Model) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		fn()
		close(finished)
	}
	select {
	case m.ops <- op:
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Subscribe registers for change events. Delivery is best effort: a
// subscriber that falls behind loses events, not the model.
func (m *Model) Subscribe() (string, <-chan Change, func()) {
	id := uuid.NewString()
	ch := make(chan Change, 16)
	m.subsMu.Lock()
	m.subs[id] = ch
	m.subsMu.Unlock()
	return id, ch, func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

func (m *Model) apply(snap Snapshot) (Result, error) {
	if snap.TorrentID != m.torrentID {
		m.logger.Debug("peers_snapshot_ignored",
			zap.Int64("torrent_id", snap.TorrentID),
			zap.Int64("selected", m.torrentID),
		)
		return Result{}, nil
	}
	first := snap.First || m.needFirst
	res, err := m.rec.Reconcile(m.store, snap.Peers, snap.Serial, first)
	metrics.PeerRows.Set(float64(m.store.Len()))
	if err != nil {
		m.needFirst = true
		m.logger.Error("peers_reconcile_failed", zap.Int64("serial", snap.Serial), zap.Error(err))
		return res, err
	}
	m.needFirst = false
	m.serial = snap.Serial

	kind := "incremental"
	if first {
		kind = "first"
	}
	metrics.ReconcilePasses.WithLabelValues(kind).Inc()
	metrics.PeersEvicted.Add(float64(res.Removed))
	metrics.PeersSkipped.Add(float64(res.Skipped))

	m.logger.Debug("peers_reconciled",
		zap.Int64("torrent_id", snap.TorrentID),
		zap.Int64("serial", snap.Serial),
		zap.Bool("first", first),
		zap.Int("appended", res.Appended),
		zap.Int("updated", res.Updated),
		zap.Int("removed", res.Removed),
	)
	m.notify(Change{Kind: ChangeReconciled, TorrentID: m.torrentID, Serial: m.serial, Result: &res})
	return res, nil
}

func (m *Model) writeBack(c Completion) {
	if c.Err != nil {
		metrics.Resolutions.WithLabelValues("failed").Inc()
		m.logger.Debug("peers_rdns_failed", zap.String("address", c.Address), zap.Error(c.Err))
		return
	}
	row, ok := m.store.Resolve(c.Ref)
	if !ok || row.Address != c.Address {
		metrics.Resolutions.WithLabelValues("vanished").Inc()
		return
	}
	m.store.SetHostname(c.Ref, c.Hostname)
	metrics.Resolutions.WithLabelValues("ok").Inc()
	m.notify(Change{Kind: ChangeHostname, TorrentID: m.torrentID, Serial: m.serial, Address: c.Address})
}

func (m *Model) notify(c Change) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (m *Model) closeSubscribers() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}
