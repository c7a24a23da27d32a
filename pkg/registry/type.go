package registry

import (
	"sync"
	"time"

	"github.com/shuliakovsky/trg-remote/pkg/rpc"
)

// Registry caches the daemon's torrent list between polls.
type Registry struct {
	mu        sync.RWMutex
	torrents  map[int64]rpc.Torrent
	updatedAt time.Time
}

// Summary is the torrents table row; peer lists are never kept here.
type Summary struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	PeersConnected int     `json:"peersConnected"`
	RateDownload   int64   `json:"rateDownload"`
	RateUpload     int64   `json:"rateUpload"`
	PercentDone    float64 `json:"percentDone"`
}
