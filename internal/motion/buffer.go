package motion

import (
	"fmt"
	"image"
	"sync"
)

// Buffer is a single-slot Source fed by a remote client. The last pushed
// frame wins; there is no queue.
type Buffer struct {
	mu    sync.Mutex
	frame *image.RGBA
}

// Push replaces the current frame.
func (b *Buffer) Push(f *image.RGBA) {
	b.mu.Lock()
	b.frame = f
	b.mu.Unlock()
}

// PushRGBA replaces the current frame with raw RGBA pixel data.
func (b *Buffer) PushRGBA(w, h int, pix []byte) error {
	if w <= 0 || h <= 0 || len(pix) != w*h*4 {
		return fmt.Errorf("motion: bad frame payload: %dx%d with %d bytes", w, h, len(pix))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	b.Push(img)
	return nil
}

// Frame returns the latest frame, or nil if none has arrived.
func (b *Buffer) Frame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}
