package profiles

import "time"

// Profile describes one daemon the client can connect to.
type Profile struct {
	Name              string `yaml:"-" json:"name"`
	URL               string `yaml:"url" json:"url"`
	UpdateIntervalSec int    `yaml:"updateIntervalSec" json:"updateIntervalSec"`
	TimeoutMs         int    `yaml:"timeoutMs" json:"timeoutMs"`
	Socks5            string `yaml:"socks5" json:"socks5,omitempty"`
	MaxPeers          int    `yaml:"maxPeers" json:"maxPeers"`
	TorrentID         int64  `yaml:"torrentId" json:"torrentId,omitempty"`
}

func (p Profile) UpdateInterval() time.Duration {
	return time.Duration(p.UpdateIntervalSec) * time.Second
}

func (p Profile) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}
