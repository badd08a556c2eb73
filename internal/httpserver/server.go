// Package httpserver exposes the session controller over HTTP and a session
// websocket carrying mic audio and camera frames up, and phase, motion and
// synthesized audio down.
package httpserver

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/config"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/interview"
)

// Server bundles the echo router, the session registry and the shared
// collaborators injected into every coordinator.
type Server struct {
	echo     *echo.Echo
	log      *zap.Logger
	cfg      config.Config
	store    interview.Store
	gen      interview.Generator
	sessions *registry
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return &interview.ValidationError{Msg: "please select a role and tech stack"}
	}
	return nil
}

// New constructs the HTTP server with routes and middleware.
func New(cfg config.Config, st interview.Store, gen interview.Generator, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Validator = &requestValidator{validate: validator.New()}

	s := &Server{
		echo:     e,
		log:      log,
		cfg:      cfg,
		store:    st,
		gen:      gen,
		sessions: newRegistry(log),
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	api := e.Group("/api", jwtMiddleware(cfg.JWTSecret))
	api.POST("/sessions", s.handleStartSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.POST("/sessions/:id/answers", s.handleSubmitAnswer)
	api.POST("/sessions/:id/listen", s.handleListen)
	api.POST("/sessions/:id/end", s.handleEndSession)
	api.POST("/sessions/:id/restart", s.handleRestart)
	api.GET("/sessions/:id/ws", s.handleSessionWS)

	return s
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start begins serving on addr and blocks until the listener fails.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains connections and tears down every live session so no
// sampling loop or playback outlives the process intent.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.closeAll()
	return s.echo.Shutdown(ctx)
}
