// Package motion computes a proctoring motion signal from a sampled video
// feed: the percentage of pixels whose color changed beyond a threshold
// between two consecutive samples.
package motion

import (
	"context"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the sampling cadence.
const DefaultInterval = 100 * time.Millisecond

// channelThreshold is the per-channel delta (0-255) above which a pixel
// counts as changed.
const channelThreshold = 20

// Source supplies the current video frame. Frame returns nil when no frame is
// available yet; that sample is skipped.
type Source interface {
	Frame() *image.RGBA
}

// Detector samples a Source at a fixed cadence and exposes the latest motion
// percentage. Only the latest value is retained. Without a source it degrades
// to a constant zero and performs no sampling work.
type Detector struct {
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	latest  float64
	prev    *image.RGBA
	cancel  context.CancelFunc
	running bool
}

// NewDetector constructs a stopped detector sampling at DefaultInterval.
func NewDetector(log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{interval: DefaultInterval, log: log}
}

// Start begins sampling src. A nil src is the degraded camera-unavailable
// state: the detector reports zero and spawns no loop. Calling Start while
// running restarts with the new source.
func (d *Detector) Start(src Source) {
	d.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = 0
	d.prev = nil
	if src == nil {
		d.log.Info("motion detector degraded: no video source")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.running = true
	go d.loop(ctx, src)
}

// Stop halts sampling; idempotent.
func (d *Detector) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.running = false
	d.prev = nil
	d.latest = 0
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Latest returns the most recent motion percentage in [0,100].
func (d *Detector) Latest() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

func (d *Detector) loop(ctx context.Context, src Source) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := src.Frame()
			if frame == nil {
				continue
			}
			d.sample(frame)
		}
	}
}

// sample downsamples the frame and compares it with the previous sample. The
// first frame seeds the buffer and reports zero; the previous frame is then
// replaced, not averaged.
func (d *Detector) sample(frame *image.RGBA) {
	small := downsample(frame)

	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.prev
	d.prev = small
	if prev == nil || !prev.Rect.Eq(small.Rect) {
		d.latest = 0
		return
	}
	d.latest = diffPercent(prev, small)
}

// downsample halves the frame's width and height with nearest-neighbor picks.
func downsample(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx()/2, b.Dy()/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			so := src.PixOffset(b.Min.X+x*2, b.Min.Y+y*2)
			do := dst.PixOffset(x, y)
			copy(dst.Pix[do:do+4], src.Pix[so:so+4])
		}
	}
	return dst
}

// diffPercent counts pixels where any color channel delta exceeds the
// threshold. Alpha is ignored. The result is clamped to [0,100].
func diffPercent(prev, cur *image.RGBA) float64 {
	total := len(cur.Pix) / 4
	if total == 0 {
		return 0
	}
	changed := 0
	for i := 0; i+3 < len(cur.Pix); i += 4 {
		if absDiff(cur.Pix[i], prev.Pix[i]) > channelThreshold ||
			absDiff(cur.Pix[i+1], prev.Pix[i+1]) > channelThreshold ||
			absDiff(cur.Pix[i+2], prev.Pix[i+2]) > channelThreshold {
			changed++
		}
	}
	pct := float64(changed) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
