package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/peers"
	"github.com/shuliakovsky/trg-remote/pkg/prefs"
	"github.com/shuliakovsky/trg-remote/pkg/registry"
	"github.com/shuliakovsky/trg-remote/pkg/rpc"
)

type fakeDaemon struct {
	mu       sync.Mutex
	torrents []rpc.Torrent
	err      error
	peerIDs  [][]int64
}

func (d *fakeDaemon) TorrentGet(_ context.Context, ids []int64, _ []string) ([]rpc.Torrent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if ids == nil {
		return append([]rpc.Torrent(nil), d.torrents...), nil
	}
	d.peerIDs = append(d.peerIDs, ids)
	var out []rpc.Torrent
	for _, t := range d.torrents {
		if t.ID == ids[0] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *fakeDaemon) SessionGet(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"download-dir":"/data","peer-port":51413}`), nil
}

func (d *fakeDaemon) set(ts ...rpc.Torrent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.torrents = ts
}

func peer(addr string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"address":%q,"flagStr":"D","progress":0.5,"rateToClient":10,"rateToPeer":0}`, addr))
}

func torrent(id int64, addrs ...string) rpc.Torrent {
	t := rpc.Torrent{ID: id, Name: fmt.Sprintf("t%d", id)}
	for _, a := range addrs {
		t.Peers = append(t.Peers, peer(a))
	}
	return t
}

func startPoller(t *testing.T, d *fakeDaemon, cfg Config) (*Poller, *peers.Model, *prefs.Cache) {
	t.Helper()
	m := peers.NewModel(peers.NewStore(0), &peers.Reconciler{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	cache := &prefs.Cache{}
	return New(d, m, registry.New(), cache, cfg, zap.NewNop()), m, cache
}

func addresses(t *testing.T, m *peers.Model) []string {
	t.Helper()
	tbl, err := m.Table(context.Background())
	require.NoError(t, err)
	var out []string
	for _, r := range tbl.Rows {
		for i, c := range tbl.Columns {
			if c == peers.ColAddress {
				out = append(out, r[i].(string))
			}
		}
	}
	return out
}

func TestTick_SelectsFirstTorrentAndLoadsPeers(t *testing.T) {
	d := &fakeDaemon{}
	d.set(torrent(9, "x"), torrent(4, "a", "b"))
	p, m, cache := startPoller(t, d, Config{})
	ctx := context.Background()

	require.NoError(t, p.Tick(ctx))

	sel, err := m.Selected(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), sel)
	require.Equal(t, []string{"a", "b"}, addresses(t, m))

	s, ok := cache.Load()
	require.True(t, ok)
	require.Equal(t, "/data", s.DownloadDir)

	st := p.Status()
	require.Equal(t, int64(1), st.Serial)
	require.False(t, st.LastSuccess.IsZero())
}

func TestTick_PrefersConfiguredTorrent(t *testing.T) {
	d := &fakeDaemon{}
	d.set(torrent(1, "a"), torrent(2, "b"))
	p, m, _ := startPoller(t, d, Config{TorrentID: 2})

	require.NoError(t, p.Tick(context.Background()))
	require.Equal(t, []string{"b"}, addresses(t, m))
}

func TestTick_EvictsAbsentPeers(t *testing.T) {
	d := &fakeDaemon{}
	d.set(torrent(1, "a", "b", "c"))
	p, m, _ := startPoller(t, d, Config{})
	ctx := context.Background()

	require.NoError(t, p.Tick(ctx))
	d.set(torrent(1, "c", "d"))
	require.NoError(t, p.Tick(ctx))

	require.Equal(t, []string{"c", "d"}, addresses(t, m))
	require.Equal(t, int64(2), p.Status().Serial)
}

func TestTick_FailureKeepsTableAndCounts(t *testing.T) {
	d := &fakeDaemon{}
	d.set(torrent(1, "a"))
	p, m, _ := startPoller(t, d, Config{})
	ctx := context.Background()
	require.NoError(t, p.Tick(ctx))

	d.mu.Lock()
	d.err = errors.New("connection refused")
	d.mu.Unlock()
	require.Error(t, p.Tick(ctx))
	require.Error(t, p.Tick(ctx))

	st := p.Status()
	require.Equal(t, 2, st.FailCount)
	require.Contains(t, st.LastError, "connection refused")
	require.Equal(t, []string{"a"}, addresses(t, m))

	d.mu.Lock()
	d.err = nil
	d.mu.Unlock()
	d.set(torrent(1, "b"))
	require.NoError(t, p.Tick(ctx))
	require.Equal(t, []string{"b"}, addresses(t, m))
	require.Empty(t, p.Status().LastError)
}

func TestTick_ReselectsWhenTorrentRemoved(t *testing.T) {
	d := &fakeDaemon{}
	d.set(torrent(1, "a"), torrent(2, "b"))
	p, m, _ := startPoller(t, d, Config{})
	ctx := context.Background()
	require.NoError(t, p.Tick(ctx))

	d.set(torrent(2, "b"))
	require.NoError(t, p.Tick(ctx))
	sel, err := m.Selected(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), sel)
	require.Equal(t, []string{"b"}, addresses(t, m))

	d.set()
	require.NoError(t, p.Tick(ctx))
	sel, err = m.Selected(ctx)
	require.NoError(t, err)
	require.Zero(t, sel)
	require.Empty(t, addresses(t, m))
}

func TestTick_UserSelectionIsKept(t *testing.T) {
	d := &fakeDaemon{}
	d.set(torrent(1, "a"), torrent(2, "b"))
	p, m, _ := startPoller(t, d, Config{})
	ctx := context.Background()
	require.NoError(t, p.Tick(ctx))

	require.NoError(t, m.Select(ctx, 2))
	require.Empty(t, addresses(t, m))
	require.NoError(t, p.Tick(ctx))
	require.Equal(t, []string{"b"}, addresses(t, m))

	d.mu.Lock()
	last := d.peerIDs[len(d.peerIDs)-1]
	d.mu.Unlock()
	require.Equal(t, []int64{2}, last)
}
