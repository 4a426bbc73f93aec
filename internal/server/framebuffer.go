package server

import (
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent annotated frame as encoded JPEG bytes.
// The main loop publishes into it once per frame; stream handlers read the
// latest frame without ever touching the frame source.
type FrameBuffer struct {
	mu   sync.RWMutex
	data []byte
	seq  uint64
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Publish encodes the frame as JPEG and stores it as the latest frame.
func (b *FrameBuffer) Publish(frame gocv.Mat) error {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	b.mu.Lock()
	b.data = data
	b.seq++
	b.mu.Unlock()

	return nil
}

// Latest returns the newest JPEG frame and its sequence number. The returned
// slice must not be modified. A zero sequence means nothing was published yet.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data, b.seq
}
