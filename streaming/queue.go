package streaming

import "sync"

// outboundMessage is one unit of pending outbound data: either a raw audio
// chunk (binary frame) or a control message (JSON text frame).
type outboundMessage struct {
	audio   []byte
	control any
}

// messageQueue is an unbounded thread-safe FIFO of outbound messages.
// Producers (Stream, SetParams, ForceEndpoint, Disconnect) never block;
// the write loop is the single consumer, which preserves enqueue order on
// the wire.
type messageQueue struct {
	mu     sync.Mutex
	items  []outboundMessage
	notify chan struct{}
}

func newMessageQueue() *messageQueue {
	return &messageQueue{
		notify: make(chan struct{}, 1),
	}
}

func (q *messageQueue) push(msg outboundMessage) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *messageQueue) pop() (outboundMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return outboundMessage{}, false
	}

	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}

func (q *messageQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
