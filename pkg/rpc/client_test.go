package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	c, err := New(url, Options{}, logger)
	require.NoError(t, err)
	return c
}

func TestCall_RenewsSessionIDOn409(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get(SessionIDHeader) != "sid-1" {
			w.Header().Set(SessionIDHeader, "sid-1")
			w.WriteHeader(http.StatusConflict)
			return
		}
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, MethodSessionGet, req.Method)
		_, _ = w.Write([]byte(`{"result":"success","arguments":{"peer-port":51413}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	raw, err := c.SessionGet(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"peer-port":51413}`, string(raw))
	require.Equal(t, int32(2), hits.Load())

	_, err = c.SessionGet(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), hits.Load(), "session id should be reused")
}

func TestCall_PersistentConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(SessionIDHeader, "rotating")
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Call(context.Background(), MethodSessionGet, nil, nil)
	require.ErrorIs(t, err, ErrSessionConflict)
}

func TestCall_DaemonError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":"invalid argument","arguments":{}}`))
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).SessionSet(context.Background(), map[string]any{"peer-port": -1})
	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, "invalid argument", rpcErr.Result)
}

func TestTorrentGet_DecodesPeers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method    string         `json:"method"`
			Arguments torrentGetArgs `json:"arguments"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []int64{3}, req.Arguments.IDs)
		require.Equal(t, PeerFields, req.Arguments.Fields)
		_, _ = w.Write([]byte(`{"result":"success","arguments":{"torrents":[
			{"id":3,"name":"debian.iso","peers":[
				{"address":"192.0.2.1","flagStr":"TE","progress":0.5,"rateToClient":10,"rateToPeer":0}
			]}
		]}}`))
	}))
	defer srv.Close()

	ts, err := newTestClient(t, srv.URL).TorrentGet(context.Background(), []int64{3}, PeerFields)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	require.Equal(t, "debian.iso", ts[0].Name)
	require.Len(t, ts[0].Peers, 1)
}

func TestCall_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Call(context.Background(), MethodSessionGet, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "http 500")
}
