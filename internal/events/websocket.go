package events

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/sakila-admin/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Upgrader returns the websocket upgrader used for the event stream.
// allowed lists accepted Origin values; an empty list accepts same-origin
// and non-browser clients only.
func Upgrader(allowed ...string) websocket.Upgrader {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || set[origin] {
				return true
			}
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

// Stream subscribes conn to b until either side closes.  It blocks.
func Stream(b *Bus, conn *websocket.Conn) {
	events, unsubscribe := b.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go readPump(conn, closed)
	writePump(conn, events, closed)
}

// readPump discards client frames and keeps the read deadline fresh.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug().Err(err).Msg("event stream closed unexpectedly")
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, events <-chan Event, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case e, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
