// Package websocket exposes the two socket surfaces of the server: the
// bridge endpoint the logic side connects to, and a Socket.IO hub where
// spectators observe live sessions.
package websocket

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"canvaslink/liveview"
	"canvaslink/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     allowLocalOrigin,
}

func allowLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (the logic-side runtime) send no origin.
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "[::1]", "::1":
		return true
	}
	return false
}

// HandleBridge upgrades the logic-side connection and attaches it to the
// dispatcher. A new connection supersedes the previous session.
func HandleBridge(dispatcher *liveview.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("bridge upgrade failed")
			return
		}

		sessionID := dispatcher.Attach(transport.Wrap(conn))
		logrus.WithFields(logrus.Fields{
			"session": sessionID,
			"remote":  r.RemoteAddr,
		}).Info("logic side connected")
	}
}
