package extras

import (
	"sync"
)

// RingBuffer is a fixed-capacity byte buffer for decoupling an audio
// producer from a streaming sender. Writes that exceed the remaining space
// are truncated rather than blocking, so a slow consumer drops audio instead
// of stalling capture. Safe for concurrent use.
type RingBuffer struct {
	mu     sync.RWMutex
	buffer []byte
	size   int
	read   int
	write  int
}

// NewRingBuffer creates a ring buffer holding up to size-1 bytes.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
}

// Write copies data into the buffer, returning the number of bytes stored.
// When the buffer fills, the remainder of data is discarded.
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for i := 0; i < len(data); i++ {
		if (rb.write+1)%rb.size == rb.read {
			break
		}
		rb.buffer[rb.write] = data[i]
		rb.write = (rb.write + 1) % rb.size
		written++
	}
	return written
}

// Read copies buffered bytes into data, returning the number copied.
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(data); i++ {
		if rb.read == rb.write {
			break
		}
		data[i] = rb.buffer[rb.read]
		rb.read = (rb.read + 1) % rb.size
		read++
	}
	return read
}

// Available returns the number of bytes ready to read.
func (rb *RingBuffer) Available() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.available()
}

// Space returns the number of bytes that can be written without truncation.
func (rb *RingBuffer) Space() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size - rb.available() - 1
}

func (rb *RingBuffer) available() int {
	if rb.write >= rb.read {
		return rb.write - rb.read
	}
	return rb.size - rb.read + rb.write
}

// Clear discards all buffered bytes.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.read = 0
	rb.write = 0
}

// IsEmpty reports whether the buffer holds no bytes.
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.read == rb.write
}
