package speech

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// blockingSynth holds every utterance until its release channel fires or the
// context is cancelled.
type blockingSynth struct {
	release chan struct{}
	started chan string
}

func (b *blockingSynth) Synthesize(ctx context.Context, text string, sink PCMSink) error {
	select {
	case b.started <- text:
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.release:
		sink.WritePCM([]byte{1, 0})
		return nil
	}
}

type countingSink struct {
	writes int32
	resets int32
}

func (s *countingSink) WritePCM([]byte) { atomic.AddInt32(&s.writes, 1) }
func (s *countingSink) Reset()          { atomic.AddInt32(&s.resets, 1) }

func waitDone(t *testing.T, what string, c *int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(c) == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("%s: got %d want %d", what, atomic.LoadInt32(c), want)
}

func TestSpeak_DoneFiresOnCompletion(t *testing.T) {
	synth := &blockingSynth{release: make(chan struct{}), started: make(chan string, 2)}
	sink := &countingSink{}
	sp := NewSerialSpeaker(synth, sink, nil)

	var dones int32
	sp.Speak("hello", func() { atomic.AddInt32(&dones, 1) })
	close(synth.release)
	waitDone(t, "done callbacks", &dones, 1)
	if atomic.LoadInt32(&sink.writes) == 0 {
		t.Fatalf("no audio reached the sink")
	}
}

func TestSpeak_SupersededUtteranceNeverSignals(t *testing.T) {
	synth := &blockingSynth{release: make(chan struct{}), started: make(chan string, 2)}
	sink := &countingSink{}
	sp := NewSerialSpeaker(synth, sink, nil)

	var firstDone, secondDone int32
	sp.Speak("first", func() { atomic.AddInt32(&firstDone, 1) })
	<-synth.started
	sp.Speak("second", func() { atomic.AddInt32(&secondDone, 1) })
	<-synth.started

	close(synth.release)
	waitDone(t, "second done", &secondDone, 1)
	// Give the superseded goroutine time to finish wrongly, if it were going to.
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&firstDone) != 0 {
		t.Fatalf("superseded utterance must not signal done")
	}
	if atomic.LoadInt32(&sink.resets) < 2 {
		t.Fatalf("each utterance should reset queued audio, resets=%d", sink.resets)
	}
}

func TestCancel_DropsUtteranceSilently(t *testing.T) {
	synth := &blockingSynth{release: make(chan struct{}), started: make(chan string, 2)}
	sink := &countingSink{}
	sp := NewSerialSpeaker(synth, sink, nil)

	var dones int32
	sp.Speak("hello", func() { atomic.AddInt32(&dones, 1) })
	<-synth.started
	sp.Cancel()
	close(synth.release)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&dones) != 0 {
		t.Fatalf("cancelled utterance must not signal done")
	}
}

func TestSpeak_HeadlessCompletesImmediately(t *testing.T) {
	sp := NewSerialSpeaker(nil, nil, nil)
	var dones int32
	sp.Speak("hello", func() { atomic.AddInt32(&dones, 1) })
	if atomic.LoadInt32(&dones) != 1 {
		t.Fatalf("headless speak should complete synchronously")
	}
	sp.Cancel()
}

// failingSynth returns an error after consuming the utterance.
type failingSynth struct{}

func (failingSynth) Synthesize(ctx context.Context, text string, sink PCMSink) error {
	return errors.New("engine unavailable")
}

func TestSpeak_SynthFailureStillCompletesTurn(t *testing.T) {
	sp := NewSerialSpeaker(failingSynth{}, nil, nil)
	var dones int32
	sp.Speak("hello", func() { atomic.AddInt32(&dones, 1) })
	waitDone(t, "done after synth failure", &dones, 1)
}
