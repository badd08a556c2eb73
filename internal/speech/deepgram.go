package speech

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
	"go.uber.org/zap"
)

// DeepgramSynthesizer streams synthesized linear16 PCM for a text over the
// Deepgram speak websocket.
type DeepgramSynthesizer struct {
	apiKey     string
	model      string
	sampleRate int
	encoding   string
	log        *zap.Logger
}

// NewDeepgramSynthesizer constructs a synthesizer with a default voice model.
func NewDeepgramSynthesizer(apiKey, model string, log *zap.Logger) *DeepgramSynthesizer {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DeepgramSynthesizer{apiKey: apiKey, model: model, sampleRate: 48000, encoding: "linear16", log: log}
}

// Synthesize streams audio for text into sink until the utterance completes,
// the stream goes idle, or ctx is cancelled.
func (d *DeepgramSynthesizer) Synthesize(ctx context.Context, text string, sink PCMSink) error {
	if d.apiKey == "" {
		return fmt.Errorf("deepgram: api key missing")
	}
	if text == "" {
		return nil
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var lastRecvUnix int64
	var seenAudio int32

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		if ctx.Err() == nil {
			b := make([]byte, len(data))
			copy(b, data)
			sink.WritePCM(b)
		}
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return fmt.Errorf("deepgram: create ws client: %w", err)
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return fmt.Errorf("deepgram: connect failed")
	}

	if err := dg.SpeakWithText(text); err != nil {
		return fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := dg.Flush(); err != nil {
		d.log.Warn("deepgram flush failed", zap.Error(err))
	}

	// The speak websocket does not signal utterance end; treat a quiet stream
	// as complete once audio has been seen, bounded by a hard deadline.
	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(20 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if time.Since(last) > idleWindow {
					return nil
				}
			}
			if time.Now().After(deadline) {
				return nil
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
