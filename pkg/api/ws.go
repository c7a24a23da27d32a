package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/metrics"
	"github.com/shuliakovsky/trg-remote/pkg/peers"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = wsPongWait * 9 / 10
)

// KindInitial marks the first message on a stream.
const KindInitial peers.ChangeKind = "initial"

type WSMessage struct {
	Kind    peers.ChangeKind `json:"kind"`
	Address string           `json:"address,omitempty"`
	Table   peers.Table      `json:"table"`
}

type WS struct {
	Model  *peers.Model
	Logger *zap.Logger
}

func NewWS(model *peers.Model, logger *zap.Logger) *WS {
	return &WS{Model: model, Logger: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS streams the peer table: the current table on connect, then the
// table again after every change the model reports.
func (s *WS) ServeWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		metrics.WSError.Inc()
		return
	}
	defer conn.Close()

	id, events, cancel := s.Model.Subscribe()
	defer cancel()
	metrics.WSConnected.Inc()
	s.Logger.Info("ws_subscribed", zap.String("subscriber", id), zap.String("remote", r.RemoteAddr))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !s.push(conn, id, WSMessage{Kind: KindInitial}, r) {
		return
	}

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			s.Logger.Info("ws_client_gone", zap.String("subscriber", id))
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				metrics.WSError.Inc()
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			if !s.push(conn, id, WSMessage{Kind: ev.Kind, Address: ev.Address}, r) {
				return
			}
		}
	}
}

func (s *WS) push(conn *websocket.Conn, id string, msg WSMessage, r *http.Request) bool {
	t, err := s.Model.Table(r.Context())
	if err != nil {
		return false
	}
	msg.Table = t
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		s.Logger.Warn("ws_write_error", zap.String("subscriber", id), zap.Error(err))
		metrics.WSError.Inc()
		return false
	}
	return true
}
