package transport

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// wsChannel adapts a websocket connection to the Channel interface. Each
// frame travels as one text message.
type wsChannel struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	in      chan []byte

	closeOnce sync.Once
	closeErr  error
}

// Dial connects the logic side to a live view host, e.g.
// ws://host:3002/bridge.
func Dial(url string) (Channel, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return Wrap(conn), nil
}

// Wrap turns an established websocket connection into a Channel. The host
// bridge uses this after upgrading an incoming request.
func Wrap(conn *websocket.Conn) Channel {
	c := &wsChannel{
		conn: conn,
		in:   make(chan []byte, inprocBuffer),
	}
	go c.readLoop()
	return c
}

func (c *wsChannel) readLoop() {
	defer close(c.in)
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Debug("bridge websocket closed unexpectedly")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		c.in <- data
	}
}

func (c *wsChannel) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func (c *wsChannel) Receive() <-chan []byte {
	return c.in
}

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
