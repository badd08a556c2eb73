package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/speech"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// The bearer token gates the route; origin is not the trust boundary.
		return true
	},
}

// wsClientMessage is a control frame from the browser. Binary frames on the
// same socket carry mic PCM.
type wsClientMessage struct {
	Type   string `json:"type"` // frame, video_on, video_off, mic_end, bye
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Data   []byte `json:"data,omitempty"` // base64 RGBA pixels for type=frame
}

type wsStateEvent struct {
	Type   string  `json:"type"`
	Phase  string  `json:"phase"`
	Motion float64 `json:"motion"`
}

// handleSessionWS attaches a client to a session's media plumbing: mic PCM
// and camera frames flow up, phase/motion events and synthesized audio flow
// down.
func (s *Server) handleSessionWS(c echo.Context) error {
	ls, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return nil
	}
	defer func() { _ = conn.Close() }()

	connID := uuid.NewString()
	s.log.Info("media channel attached",
		zap.String("session_id", c.Param("id")),
		zap.String("conn_id", connID))
	defer s.log.Info("media channel detached", zap.String("conn_id", connID))

	audioCh := make(chan []byte, 512)
	ls.sink.Attach(&chanSink{ch: audioCh})
	defer ls.sink.Detach()
	defer ls.detector.Stop()

	done := make(chan struct{})
	go s.writePump(conn, ls, audioCh, done)
	defer close(done)

	for {
		mt, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return nil
		}
		switch mt {
		case websocket.BinaryMessage:
			ls.mic.Push(data)
		case websocket.TextMessage:
			var msg wsClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "frame":
				if err := ls.frames.PushRGBA(msg.Width, msg.Height, msg.Data); err != nil {
					s.log.Debug("bad frame dropped", zap.Error(err))
				}
			case "video_on":
				ls.detector.Start(ls.frames)
			case "video_off":
				ls.detector.Stop()
			case "mic_end":
				ls.mic.EndUtterance()
			case "bye":
				return nil
			}
		}
	}
}

// writePump is the single writer for the socket: periodic state events plus
// synthesized audio.
func (s *Server) writePump(conn *websocket.Conn, ls *liveSession, audioCh <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case pcm := <-audioCh:
			if err := conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
				return
			}
		case <-ticker.C:
			snap := ls.co.Snapshot()
			ev := wsStateEvent{Type: "state", Phase: snap.Phase.String(), Motion: ls.detector.Latest()}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// micStream feeds candidate mic audio from the websocket into a speech
// capture. A nil chunk marks end of utterance.
type micStream struct {
	ch chan []byte
}

func newMicStream() *micStream {
	return &micStream{ch: make(chan []byte, 256)}
}

// Push enqueues a mic chunk, dropping it when the buffer is full.
func (m *micStream) Push(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	select {
	case m.ch <- pcm:
	default:
	}
}

// EndUtterance marks the end of the candidate's input.
func (m *micStream) EndUtterance() {
	select {
	case m.ch <- nil:
	default:
	}
}

func (m *micStream) ReadPCM(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case b := <-m.ch:
		if b == nil {
			return nil, io.EOF
		}
		return b, nil
	}
}

// relaySink forwards synthesized PCM to the currently attached websocket.
// With no client attached audio is discarded, not queued.
type relaySink struct {
	mu     sync.Mutex
	target speech.PCMSink
}

func newRelaySink() *relaySink { return &relaySink{} }

func (r *relaySink) Attach(t speech.PCMSink) {
	r.mu.Lock()
	r.target = t
	r.mu.Unlock()
}

func (r *relaySink) Detach() {
	r.mu.Lock()
	r.target = nil
	r.mu.Unlock()
}

func (r *relaySink) WritePCM(pcm []byte) {
	r.mu.Lock()
	t := r.target
	r.mu.Unlock()
	if t != nil {
		t.WritePCM(pcm)
	}
}

func (r *relaySink) Reset() {
	r.mu.Lock()
	t := r.target
	r.mu.Unlock()
	if t != nil {
		t.Reset()
	}
}

// chanSink buffers audio toward the write pump; Reset drops the queue for
// immediate interruption.
type chanSink struct {
	ch chan []byte
}

func (s *chanSink) WritePCM(pcm []byte) {
	select {
	case s.ch <- pcm:
	default:
	}
}

func (s *chanSink) Reset() {
	for {
		select {
		case <-s.ch:
		default:
			return
		}
	}
}
