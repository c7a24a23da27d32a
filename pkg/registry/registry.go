package registry

import (
	"sort"
	"time"

	"github.com/shuliakovsky/trg-remote/pkg/rpc"
)

func New() *Registry { return &Registry{torrents: map[int64]rpc.Torrent{}} }

// Replace swaps the cached list for ts.
func (r *Registry) Replace(ts []rpc.Torrent) {
	next := make(map[int64]rpc.Torrent, len(ts))
	for _, t := range ts {
		t.Peers = nil
		next[t.ID] = t
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.torrents = next
	r.updatedAt = time.Now()
}

// All returns the cached torrents ordered by id.
func (r *Registry) All() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.torrents))
	for _, t := range r.torrents {
		out = append(out, summarize(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Get(id int64) (Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.torrents[id]
	if !ok {
		return Summary{}, false
	}
	return summarize(t), true
}

func (r *Registry) Has(id int64) bool {
	_, ok := r.Get(id)
	return ok
}

// First is the lowest id in the list, used when nothing is selected yet.
func (r *Registry) First() (int64, bool) {
	all := r.All()
	if len(all) == 0 {
		return 0, false
	}
	return all[0].ID, true
}

func (r *Registry) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

func summarize(t rpc.Torrent) Summary {
	return Summary{
		ID:             t.ID,
		Name:           t.Name,
		PeersConnected: t.PeersConnected,
		RateDownload:   t.RateDownload,
		RateUpload:     t.RateUpload,
		PercentDone:    t.PercentDone,
	}
}
