package transport

import "sync"

// inprocBuffer is how many frames each direction can hold before Send blocks.
const inprocBuffer = 256

type inprocChannel struct {
	out chan<- []byte
	in  <-chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Pair returns two connected in-process channels: frames sent on one are
// received on the other. Used by tests and by the embedded single-process
// host mode.
func Pair() (Channel, Channel) {
	ab := make(chan []byte, inprocBuffer)
	ba := make(chan []byte, inprocBuffer)
	a := &inprocChannel{out: ab, in: ba, done: make(chan struct{})}
	b := &inprocChannel{out: ba, in: ab, done: make(chan struct{})}
	return a, b
}

func (c *inprocChannel) Send(frame []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	select {
	case c.out <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *inprocChannel) Receive() <-chan []byte {
	return c.in
}

func (c *inprocChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	close(c.out)
	return nil
}
