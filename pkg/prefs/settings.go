package prefs

import (
	"encoding/json"
	"sync"
)

// Daemon session keys bound by the form.
const (
	KeyDownloadDir               = "download-dir"
	KeyIncompleteDir             = "incomplete-dir"
	KeyIncompleteDirEnabled      = "incomplete-dir-enabled"
	KeyDoneScriptEnabled         = "script-torrent-done-enabled"
	KeyDoneScriptFilename        = "script-torrent-done-filename"
	KeyCacheSizeMB               = "cache-size-mb"
	KeyRenamePartialFiles        = "rename-partial-files"
	KeyTrashOriginalTorrentFiles = "trash-original-torrent-files"
	KeyStartAddedTorrents        = "start-added-torrents"
	KeyEncryption                = "encryption"
	KeyPeerPort                  = "peer-port"
	KeyPeerPortRandomOnStart     = "peer-port-random-on-start"
	KeyPortForwardingEnabled     = "port-forwarding-enabled"
	KeyPexEnabled                = "pex-enabled"
	KeyLpdEnabled                = "lpd-enabled"
	KeySpeedLimitDownEnabled     = "speed-limit-down-enabled"
	KeySpeedLimitDown            = "speed-limit-down"
	KeySpeedLimitUpEnabled       = "speed-limit-up-enabled"
	KeySpeedLimitUp              = "speed-limit-up"
	KeySeedRatioLimited          = "seedRatioLimited"
	KeySeedRatioLimit            = "seedRatioLimit"
	KeyPeerLimitGlobal           = "peer-limit-global"
	KeyPeerLimitPerTorrent       = "peer-limit-per-torrent"
)

// Settings is the subset of session-get the preferences form edits.
type Settings struct {
	DownloadDir               string  `json:"download-dir"`
	IncompleteDir             string  `json:"incomplete-dir"`
	IncompleteDirEnabled      bool    `json:"incomplete-dir-enabled"`
	DoneScriptEnabled         bool    `json:"script-torrent-done-enabled"`
	DoneScriptFilename        string  `json:"script-torrent-done-filename"`
	CacheSizeMB               int64   `json:"cache-size-mb"`
	RenamePartialFiles        bool    `json:"rename-partial-files"`
	TrashOriginalTorrentFiles bool    `json:"trash-original-torrent-files"`
	StartAddedTorrents        bool    `json:"start-added-torrents"`
	Encryption                string  `json:"encryption"`
	PeerPort                  int64   `json:"peer-port"`
	PeerPortRandomOnStart     bool    `json:"peer-port-random-on-start"`
	PortForwardingEnabled     bool    `json:"port-forwarding-enabled"`
	PexEnabled                bool    `json:"pex-enabled"`
	LpdEnabled                bool    `json:"lpd-enabled"`
	SpeedLimitDownEnabled     bool    `json:"speed-limit-down-enabled"`
	SpeedLimitDown            int64   `json:"speed-limit-down"`
	SpeedLimitUpEnabled       bool    `json:"speed-limit-up-enabled"`
	SpeedLimitUp              int64   `json:"speed-limit-up"`
	SeedRatioLimited          bool    `json:"seedRatioLimited"`
	SeedRatioLimit            float64 `json:"seedRatioLimit"`
	PeerLimitGlobal           int64   `json:"peer-limit-global"`
	PeerLimitPerTorrent       int64   `json:"peer-limit-per-torrent"`
	Version                   string  `json:"version,omitempty"`
}

func DecodeSettings(raw json.RawMessage) (Settings, error) {
	var s Settings
	err := json.Unmarshal(raw, &s)
	return s, err
}

// Cache holds the latest session-get reply.
type Cache struct {
	mu  sync.RWMutex
	s   Settings
	set bool
}

func (c *Cache) Store(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s, c.set = s, true
}

func (c *Cache) Load() (Settings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s, c.set
}
