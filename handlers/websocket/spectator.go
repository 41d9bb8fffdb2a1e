package websocket

import (
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

var (
	activeSessions = make(map[string]int)
	sessionsMutex  sync.RWMutex
)

// GetActiveSessions returns the spectator count per observed session.
func GetActiveSessions() map[string]int {
	sessionsMutex.RLock()
	defer sessionsMutex.RUnlock()

	sessions := make(map[string]int, len(activeSessions))
	for k, v := range activeSessions {
		sessions[k] = v
	}
	return sessions
}

// Hub is the spectator fan-out: every envelope the dispatcher applies is
// re-broadcast to the Socket.IO room named after the session, so browser
// observers can render the scene as it evolves.
type Hub struct {
	srv *socketio.Server
}

// Server exposes the underlying Socket.IO server for HTTP mounting.
func (h *Hub) Server() *socketio.Server { return h.srv }

// Broadcast implements liveview.Mirror.
func (h *Hub) Broadcast(sessionID string, frame []byte) {
	if sessionID == "" {
		return
	}
	if err := h.srv.In(socketio.Room(sessionID)).Emit("scene-update", string(frame)); err != nil {
		logrus.WithFields(logrus.Fields{
			"session": sessionID,
			"error":   err,
		}).Debug("spectator broadcast failed")
	}
}

// SetupSocketIO builds the spectator hub. Spectators join a session by id
// and receive every scene envelope applied after joining.
func SetupSocketIO() *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin:      []any{localhostOrigin},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := socket.Id()
		_ = socket.Emit("init-session")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-session", func(datas ...any) {
			if len(datas) == 0 {
				_ = socket.Emit("join-error", "session id is required")
				return
			}
			sessionID, ok := datas[0].(string)
			if !ok || sessionID == "" {
				_ = socket.Emit("join-error", "invalid session id")
				return
			}

			room := socketio.Room(sessionID)
			socket.Join(room)
			logrus.WithFields(logrus.Fields{
				"socket":  me,
				"session": sessionID,
			}).Debug("spectator joined session")

			srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, fetchErr error) {
				if fetchErr != nil {
					_ = socket.Emit("join-error", fetchErr.Error())
					return
				}

				sessionsMutex.Lock()
				activeSessions[sessionID] = len(users)
				sessionsMutex.Unlock()

				_ = socket.Emit("session-joined", sessionID)
				srv.In(room).Emit("spectator-count", len(users))
			})
		})

		socket.On("disconnecting", func(datas ...any) {
			for _, currentRoom := range socket.Rooms().Keys() {
				sessionID := string(currentRoom)
				srv.In(currentRoom).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
					remaining := 0
					for _, user := range users {
						if user.Id() != me {
							remaining++
						}
					}

					sessionsMutex.Lock()
					if remaining == 0 {
						delete(activeSessions, sessionID)
					} else {
						activeSessions[sessionID] = remaining
					}
					sessionsMutex.Unlock()

					if remaining > 0 {
						srv.In(currentRoom).Emit("spectator-count", remaining)
					}
				})
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return &Hub{srv: srv}
}
