package peers

import (
	"encoding/json"
	"errors"
)

// FirstLoadSerial is the serial a first-load pass may carry; RemoveStale ignores it.
const FirstLoadSerial int64 = 0

var (
	ErrStoreFull        = errors.New("peer store is full")
	ErrMalformedPeer    = errors.New("malformed peer entry")
	ErrDuplicateAddress = errors.New("peer address already stored")
)

// Ref is a weak handle to one store row. It stays comparable after the row
// is moved or removed; Store.Resolve tells whether it still points at a live row.
type Ref struct {
	slot int
	gen  uint64
}

type Row struct {
	Address      string  `json:"address"`
	Hostname     string  `json:"hostname,omitempty"`
	CountryName  string  `json:"country,omitempty"`
	ClientName   string  `json:"clientName,omitempty"`
	Port         int     `json:"port,omitempty"`
	Encrypted    bool    `json:"encrypted"`
	Incoming     bool    `json:"incoming"`
	Flags        string  `json:"flags"`
	Progress     float64 `json:"progress"`
	DownloadRate int64   `json:"rateDownload"`
	UploadRate   int64   `json:"rateUpload"`
	UpdateSerial int64   `json:"updateSerial"`
}

// Fields are the columns a reconciliation pass refreshes on an existing row.
// An empty ClientName leaves the stored one alone.
type Fields struct {
	ClientName   string
	Flags        string
	Progress     float64
	DownloadRate int64
	UploadRate   int64
	UpdateSerial int64
}

// Peer is one entry of the daemon's torrent "peers" array.
type Peer struct {
	Address      *string  `json:"address"`
	FlagStr      *string  `json:"flagStr"`
	Progress     *float64 `json:"progress"`
	RateToClient *int64   `json:"rateToClient"`
	RateToPeer   *int64   `json:"rateToPeer"`

	ClientName  string `json:"clientName"`
	Port        int    `json:"port"`
	IsEncrypted bool   `json:"isEncrypted"`
	IsIncoming  bool   `json:"isIncoming"`
}

// Snapshot is one torrent-get result for the selected torrent.
type Snapshot struct {
	TorrentID int64
	Peers     []json.RawMessage
	Serial    int64
	First     bool
}

// Completion is the outcome of one reverse lookup issued for a new row.
type Completion struct {
	Ref      Ref
	Address  string
	Hostname string
	Err      error
}

type slot struct {
	row  Row
	gen  uint64
	live bool
}

type Store struct {
	slots   []slot
	free    []int
	order   []int
	index   map[string]int
	maxRows int
}
