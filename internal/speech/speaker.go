package speech

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Synthesizer streams synthesized audio for text into sink until the
// utterance completes or ctx is cancelled.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, sink PCMSink) error
}

// SerialSpeaker serializes playback over a Synthesizer: a new Speak cancels
// the current utterance and drops its queued audio before the new one starts.
type SerialSpeaker struct {
	synth Synthesizer
	sink  PCMSink
	log   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// NewSerialSpeaker constructs a speaker over synth writing to sink.
func NewSerialSpeaker(synth Synthesizer, sink PCMSink, log *zap.Logger) *SerialSpeaker {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SerialSpeaker{synth: synth, sink: sink, log: log}
}

// Speak starts playing text, cancelling any current utterance. done fires
// exactly once if this utterance runs to completion; a superseded or
// cancelled utterance signals nothing.
func (s *SerialSpeaker) Speak(text string, done func()) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.sink.Reset()

	if s.synth == nil {
		// Headless: complete immediately so the turn still advances.
		if s.finish(gen, cancel) && done != nil {
			done()
		}
		return
	}

	go func() {
		err := s.synth.Synthesize(ctx, text, s.sink)
		interrupted := ctx.Err() != nil
		current := s.finish(gen, cancel)
		if interrupted || !current {
			return
		}
		if err != nil {
			s.log.Warn("speech synthesis failed", zap.Error(err))
		}
		if done != nil {
			done()
		}
	}()
}

// finish clears the cancel func if this utterance is still the current one.
func (s *SerialSpeaker) finish(gen uint64, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if s.gen != gen {
		return false
	}
	s.cancel = nil
	return true
}

// Cancel stops the current utterance and drops queued audio. Used on session
// end, restart and logout so audio never outlives the session.
func (s *SerialSpeaker) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.gen++
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.sink.Reset()
}
