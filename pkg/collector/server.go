package collector

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
	"github.com/agentops-ai/agentops-go/pkg/transport"
)

const maxBodyBytes = "10M"

type Server struct {
	e      *echo.Echo
	store  Store
	apiKey string
	logger *slog.Logger
}

type Opt func(*Server)

// WithAPIKey makes the collector accept only key. Without it any non-empty
// key is accepted.
func WithAPIKey(key string) Opt {
	return func(s *Server) { s.apiKey = key }
}

// WithLogger sets the logger for requests and store events. It defaults to
// slog.Default() at the time New is called.
func WithLogger(l *slog.Logger) Opt {
	return func(s *Server) { s.logger = l }
}

func New(store Store, opts ...Opt) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{e: e, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
			}
			s.logger.LogAttrs(c.Request().Context(), level, "Request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.Any("error", v.Error),
			)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(maxBodyBytes))

	auth := middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + transport.HeaderAuth,
		Validator: func(key string, _ echo.Context) (bool, error) {
			return key != "" && (s.apiKey == "" || key == s.apiKey), nil
		},
	})

	// Ingest, as called by the SDK
	e.POST(transport.SessionsPath, s.upsertSession, auth)
	e.POST(transport.EventsPath, s.appendEvents, auth)

	// Inspection
	e.GET("/sessions", s.listSessions)
	e.GET("/sessions/:id", s.getSession)
	e.GET("/sessions/:id/events", s.listEvents)

	e.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

// Handler exposes the routes, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for up to five seconds.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("Failed to start collector", "error", err)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) upsertSession(c echo.Context) error {
	var req transport.SessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session payload")
	}
	if req.Session.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session.session_id is required")
	}
	if req.Session.Tags == nil {
		req.Session.Tags = []string{}
	}
	if req.Session.EndState != "" && !req.Session.EndState.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_state")
	}

	if err := s.store.UpsertSession(c.Request().Context(), req.Session); err != nil {
		return err
	}

	s.logger.Debug("Session upserted", "session_id", req.Session.SessionID, "end_state", req.Session.EndState)
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "session_id": req.Session.SessionID})
}

type eventsPayload struct {
	Events []json.RawMessage `json:"events"`
}

func (s *Server) appendEvents(c echo.Context) error {
	var req eventsPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid events payload")
	}

	events := make([]Event, 0, len(req.Events))
	for i, raw := range req.Events {
		var meta struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil || meta.SessionID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, map[string]any{"error": "event is missing session_id", "index": i})
		}
		if _, err := event.Decode(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, map[string]any{"error": err.Error(), "index": i})
		}
		events = append(events, Event{SessionID: meta.SessionID, Data: raw})
	}

	if err := s.store.AppendEvents(c.Request().Context(), events); err != nil {
		return err
	}

	s.logger.Debug("Events stored", "count", len(events))
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "count": len(events)})
}

func (s *Server) listSessions(c echo.Context) error {
	sessions, err := s.store.ListSessions(c.Request().Context())
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []session.Snapshot{}
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) getSession(c echo.Context) error {
	snap, err := s.store.GetSession(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) listEvents(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := s.store.GetSession(ctx, id); errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	} else if err != nil {
		return err
	}

	events, err := s.store.ListEvents(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}
