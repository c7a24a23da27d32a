package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	MethodTorrentGet = "torrent-get"
	MethodSessionGet = "session-get"
	MethodSessionSet = "session-set"

	SessionIDHeader = "X-Transmission-Session-Id"
)

var ErrSessionConflict = errors.New("daemon kept rejecting the session id")

// PeerFields is what the peer table needs from torrent-get.
var PeerFields = []string{"id", "name", "peers"}

// ListFields backs the torrents table.
var ListFields = []string{"id", "name", "peersConnected", "rateDownload", "rateUpload", "percentDone"}

type Request struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
	Tag       int64  `json:"tag,omitempty"`
}

type Response struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
	Tag       int64           `json:"tag"`
}

// Error is a daemon reply whose result is anything but "success".
type Error struct {
	Method string
	Result string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: daemon replied %q", e.Method, e.Result)
}

type Torrent struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	PeersConnected int               `json:"peersConnected"`
	RateDownload   int64             `json:"rateDownload"`
	RateUpload     int64             `json:"rateUpload"`
	PercentDone    float64           `json:"percentDone"`
	Peers          []json.RawMessage `json:"peers,omitempty"`
}

type torrentGetArgs struct {
	IDs    []int64  `json:"ids,omitempty"`
	Fields []string `json:"fields"`
}

type torrentGetResult struct {
	Torrents []Torrent `json:"torrents"`
}
