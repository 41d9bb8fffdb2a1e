// Package transport provides the bidirectional channels that carry encoded
// protocol envelopes between the logic side and the presentation side. A
// Channel is ordered and reliable; the concrete carrier (in-process queue,
// websocket) is interchangeable.
package transport

import "errors"

// ErrClosed is returned by Send after a channel has been closed.
var ErrClosed = errors.New("transport: channel closed")

// Channel is one end of a bidirectional message pipe. Frames are opaque to
// the transport; each frame carries exactly one encoded protocol envelope.
//
// Receive returns a channel that is closed when the peer goes away or Close
// is called. Delivery order matches send order; frames are never dropped
// while the channel is open.
type Channel interface {
	Send(frame []byte) error
	Receive() <-chan []byte
	Close() error
}
