package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AudioSource supplies PCM 16kHz little-endian mono chunks for one utterance.
// io.EOF marks the end of the candidate's input.
type AudioSource interface {
	ReadPCM(ctx context.Context) ([]byte, error)
}

// RecognizerConfig configures the streaming recognition endpoint.
type RecognizerConfig struct {
	URL     string // wss endpoint of the realtime STT service
	APIKey  string
	Timeout time.Duration // overall capture deadline
}

// Recognizer performs one-shot speech capture against a realtime STT
// websocket: it streams mic audio up and returns the first finalized
// utterance. Only one capture may be outstanding; a second fails fast.
type Recognizer struct {
	cfg    RecognizerConfig
	source AudioSource
	dialer *websocket.Dialer
	log    *zap.Logger
	busy   atomic.Bool
}

type recognizerTurn struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	EndOfTurn  bool   `json:"end_of_turn"`
}

type recognizerError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// NewRecognizer constructs a recognizer reading candidate audio from source.
func NewRecognizer(cfg RecognizerConfig, source AudioSource, log *zap.Logger) *Recognizer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recognizer{
		cfg:    cfg,
		source: source,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log,
	}
}

// Capture streams audio to the recognition service until an utterance is
// finalized and returns its text. Every failure cause is reported as a
// CaptureError; the caller does not distinguish them.
func (r *Recognizer) Capture(ctx context.Context) (string, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return "", ErrCaptureBusy
	}
	defer r.busy.Store(false)

	if r.cfg.URL == "" || r.cfg.APIKey == "" {
		return "", &CaptureError{Err: errors.New("recognition endpoint not configured")}
	}
	if r.source == nil {
		return "", &CaptureError{Err: errors.New("no audio source attached")}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	header := http.Header{"Authorization": {r.cfg.APIKey}}
	conn, resp, err := r.dialer.DialContext(ctx, r.cfg.URL, header)
	if err != nil {
		if resp != nil {
			r.log.Warn("recognizer dial failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		}
		return "", &CaptureError{Err: fmt.Errorf("connect: %w", err)}
	}
	defer func() {
		_ = conn.WriteJSON(map[string]string{"type": "Terminate"})
		_ = conn.Close()
	}()

	// Pump mic audio up until the source ends or the capture resolves.
	go func() {
		for {
			pcm, rerr := r.source.ReadPCM(ctx)
			if rerr != nil {
				if !errors.Is(rerr, io.EOF) && ctx.Err() == nil {
					r.log.Warn("mic read failed", zap.Error(rerr))
				}
				_ = conn.WriteJSON(map[string]string{"type": "Terminate"})
				return
			}
			if len(pcm) == 0 {
				continue
			}
			if werr := conn.WriteMessage(websocket.BinaryMessage, pcm); werr != nil {
				return
			}
		}
	}()

	type outcome struct {
		text string
		err  error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		lastTranscript := ""
		for {
			_, message, rerr := conn.ReadMessage()
			if rerr != nil {
				resultCh <- outcome{err: fmt.Errorf("read: %w", rerr)}
				return
			}
			var base struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(message, &base) != nil {
				continue
			}
			switch base.Type {
			case "Turn":
				var turn recognizerTurn
				if json.Unmarshal(message, &turn) != nil {
					continue
				}
				if turn.Transcript != "" {
					lastTranscript = turn.Transcript
				}
				if turn.EndOfTurn && lastTranscript != "" {
					resultCh <- outcome{text: lastTranscript}
					return
				}
			case "Termination":
				if lastTranscript != "" {
					resultCh <- outcome{text: lastTranscript}
				} else {
					resultCh <- outcome{err: errors.New("no speech recognized")}
				}
				return
			case "Error":
				var em recognizerError
				_ = json.Unmarshal(message, &em)
				resultCh <- outcome{err: fmt.Errorf("service error: %s", em.Error)}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return "", &CaptureError{Err: ctx.Err()}
	case out := <-resultCh:
		if out.err != nil {
			return "", &CaptureError{Err: out.err}
		}
		return out.text, nil
	}
}
