// ABOUTME: Byte ring buffer between a device callback and blocking reads
// ABOUTME: Thread-safe circular buffer that drops incoming bytes when full
package capture

import "sync"

// RingBuffer provides thread-safe circular buffer for captured bytes
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	size     int
	count    int
	overruns int
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity in bytes
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, capacity),
		size:   capacity,
	}
}

// Write adds bytes to the ring buffer and returns how many fit. Bytes that do
// not fit are dropped and counted as an overrun.
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	if free := rb.size - rb.count; n > free {
		n = free
		rb.overruns++
	}

	for written := 0; written < n; {
		chunk := copy(rb.buffer[rb.writePos:], p[written:n])
		rb.writePos = (rb.writePos + chunk) % rb.size
		written += chunk
	}
	rb.count += n
	return n
}

// Read moves up to len(p) bytes out of the ring buffer
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	if n > rb.count {
		n = rb.count
	}

	for read := 0; read < n; {
		end := rb.size
		if rb.readPos+(n-read) < end {
			end = rb.readPos + (n - read)
		}
		chunk := copy(p[read:], rb.buffer[rb.readPos:end])
		rb.readPos = (rb.readPos + chunk) % rb.size
		read += chunk
	}
	rb.count -= n
	return n
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Overruns returns how many writes were truncated
func (rb *RingBuffer) Overruns() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.overruns
}
