package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/interview"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/motion"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/speech"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/store"
)

type startSessionRequest struct {
	Role      string `json:"role" validate:"required"`
	TechStack string `json:"techStack" validate:"required"`
}

type submitAnswerRequest struct {
	Text string `json:"text"`
}

type sessionResponse struct {
	Session interview.Session `json:"session"`
	Phase   interview.Phase   `json:"phase"`
	Motion  float64           `json:"motion"`
}

func (s *Server) handleStartSession(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return s.writeError(c, err)
	}

	ls := s.newLiveSession(userName(c))
	snap, err := ls.co.StartSession(c.Request().Context(), req.Role, req.TechStack)
	if err != nil {
		ls.close()
		return s.writeError(c, err)
	}
	s.sessions.put(snap.Session.ID, ls)

	return c.JSON(http.StatusCreated, sessionResponse{Session: snap.Session, Phase: snap.Phase})
}

// newLiveSession wires the per-session media plumbing around a coordinator.
func (s *Server) newLiveSession(candidateName string) *liveSession {
	detector := motion.NewDetector(s.log)
	frames := &motion.Buffer{}
	mic := newMicStream()
	sink := newRelaySink()

	var synth speech.Synthesizer
	if s.cfg.DeepgramAPIKey != "" {
		synth = speech.NewDeepgramSynthesizer(s.cfg.DeepgramAPIKey, s.cfg.DeepgramVoice, s.log)
	}
	speaker := speech.NewSerialSpeaker(synth, sink, s.log)

	var capturer interview.Capturer
	if s.cfg.RecognizerURL != "" && s.cfg.RecognizerKey != "" {
		capturer = speech.NewRecognizer(speech.RecognizerConfig{
			URL:    s.cfg.RecognizerURL,
			APIKey: s.cfg.RecognizerKey,
		}, mic, s.log)
	}

	co := interview.NewCoordinator(interview.Config{
		Store:         s.store,
		Generator:     s.gen,
		Speaker:       speaker,
		Capturer:      capturer,
		Motion:        detector,
		CandidateName: candidateName,
		Logger:        s.log,
	})

	return &liveSession{co: co, detector: detector, frames: frames, mic: mic, sink: sink}
}

func (s *Server) handleGetSession(c echo.Context) error {
	ls, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	snap := ls.co.Snapshot()
	return c.JSON(http.StatusOK, sessionResponse{
		Session: snap.Session,
		Phase:   snap.Phase,
		Motion:  ls.detector.Latest(),
	})
}

func (s *Server) handleSubmitAnswer(c echo.Context) error {
	ls, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	var req submitAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ls.co.SubmitAnswer(c.Request().Context(), req.Text); err != nil {
		return s.writeError(c, err)
	}
	snap := ls.co.Snapshot()
	return c.JSON(http.StatusOK, sessionResponse{Session: snap.Session, Phase: snap.Phase, Motion: ls.detector.Latest()})
}

func (s *Server) handleListen(c echo.Context) error {
	ls, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err := ls.co.StartListening(c.Request().Context()); err != nil {
		return s.writeError(c, err)
	}
	snap := ls.co.Snapshot()
	return c.JSON(http.StatusOK, sessionResponse{Session: snap.Session, Phase: snap.Phase, Motion: ls.detector.Latest()})
}

func (s *Server) handleEndSession(c echo.Context) error {
	ls, ok := s.sessions.get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err := ls.co.EndSession(c.Request().Context()); err != nil {
		return s.writeError(c, err)
	}
	snap := ls.co.Snapshot()
	return c.JSON(http.StatusOK, sessionResponse{Session: snap.Session, Phase: snap.Phase})
}

func (s *Server) handleRestart(c echo.Context) error {
	id := c.Param("id")
	ls, ok := s.sessions.get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	ls.co.Restart()
	s.sessions.remove(id)
	return c.JSON(http.StatusOK, map[string]string{"phase": interview.PhaseSetup.String()})
}

// writeError maps the error taxonomy onto status codes. Nothing here is fatal
// to the process; upstream divergence is surfaced, not rolled back.
func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case interview.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "sign-in required")
	case errors.Is(err, interview.ErrNoSession):
		return echo.NewHTTPError(http.StatusNotFound, "no active session")
	case errors.Is(err, speech.ErrCaptureBusy):
		return echo.NewHTTPError(http.StatusConflict, "already listening")
	case speech.IsCaptureError(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "speech recognition error, please try again")
	default:
		s.log.Warn("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
