package bridge

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer; requests are small.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkLocalOrigin,
}

// checkLocalOrigin admits peers without an Origin header (non-browser
// clients) and browsers served from this machine; cross-origin pages
// are refused because the bridge only talks to local presentations
func checkLocalOrigin(r *http.Request) bool {

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	return false
}

// wsChannel adapts a websocket connection to the Channel interface
type wsChannel struct {
	conn *websocket.Conn
}

// NewWsChannel wraps an established websocket connection
func NewWsChannel(conn *websocket.Conn) Channel {
	conn.SetReadLimit(maxMessageSize)
	return &wsChannel{conn: conn}
}

func (c *wsChannel) Send(ctx context.Context, m Message) error {

	data, err := Encode(m)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsChannel) Receive(ctx context.Context) (Message, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

// Router returns the http routes serving the bridge: one websocket
// endpoint per presentation peer
func Router(ctx context.Context, b *Bridge) *mux.Router {

	r := mux.NewRouter()

	r.HandleFunc("/bridge", func(w http.ResponseWriter, req *http.Request) {

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.WithField("error", err.Error()).Error("bridge upgrade failed")
			return
		}

		log.WithField("peer", req.RemoteAddr).Info("presentation peer connected")

		go b.Serve(ctx, NewWsChannel(conn))
	})

	return r
}
