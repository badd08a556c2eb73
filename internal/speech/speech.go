// Package speech adapts external speech engines into the two capabilities the
// session controller needs: one-shot capture of a spoken utterance into text,
// and interruptible playback of synthesized speech.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// ErrCaptureBusy is returned when a capture is started while one is already
// outstanding. Captures fail fast, they never queue.
var ErrCaptureBusy = errors.New("speech: capture already in progress")

// CaptureError collapses every capture failure cause (timeout, no speech,
// permission, transport) into one category; callers treat them identically.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return fmt.Sprintf("speech capture: %v", e.Err) }
func (e *CaptureError) Unwrap() error { return e.Err }

// IsCaptureError reports whether err is a capture failure.
func IsCaptureError(err error) bool {
	var ce *CaptureError
	return errors.As(err, &ce)
}

// Capturer performs single-shot, non-continuous speech capture.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// Speaker plays text as speech. Speak cancels any currently playing utterance
// first, so at most one is audible; done is invoked exactly once when the new
// utterance plays to completion, and never for superseded or cancelled ones.
type Speaker interface {
	Speak(text string, done func())
	Cancel()
}

// PCMSink consumes synthesized PCM bytes and delivers them to the listener.
// Reset drops anything queued, for immediate interruption.
type PCMSink interface {
	WritePCM(pcm []byte)
	Reset()
}

// NopSink discards audio; used when no listener is attached.
type NopSink struct{}

func (NopSink) WritePCM([]byte) {}
func (NopSink) Reset()          {}
