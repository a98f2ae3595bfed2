// Package api serves the HTTP management interface of the gateway.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"github.com/haveachin/gatekeeper/pkg/event"
	"go.uber.org/zap"
)

const shutdownTimeout = time.Second

type Config struct {
	Enable         bool     `mapstructure:"enable"`
	Bind           string   `mapstructure:"bind"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	AllowedMethods []string `mapstructure:"allowedMethods"`
	AllowedHeaders []string `mapstructure:"allowedHeaders"`
}

// PlayerRegistry is the view on the online players the API works with.
type PlayerRegistry interface {
	Online() int
	Get(username string) (java.Session, bool)
	Players(usernameRegex string) ([]java.Session, error)
	Kick(username string) error
}

type ReloadFunc func() error

type Server struct {
	Config  Config
	Players PlayerRegistry
	// Metrics is mounted at /metrics if set.
	Metrics http.Handler
	// Reload is called by POST /v1/configs/reload if set.
	Reload ReloadFunc
	// EventBus is streamed by GET /v1/events if set.
	EventBus event.Bus
	Logger   *zap.Logger
}

func (s Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ListenAndServe serves the API on Config.Bind until ctx is done.
func (s Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.Config.Bind)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s Server) Serve(ctx context.Context, l net.Listener) error {
	srv := http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger().Info("started api server", zap.String("bind", l.Addr().String()))
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Config.AllowedOrigins,
		AllowedMethods:   s.Config.AllowedMethods,
		AllowedHeaders:   s.Config.AllowedHeaders,
		AllowCredentials: false,
	}))

	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/players", func(r chi.Router) {
			r.Get("/", getPlayersHandler(s.Players))
			r.Get("/{username}", getPlayerHandler(s.Players))
			r.Delete("/{username}", deletePlayerHandler(s.Players))
		})

		if s.EventBus != nil {
			r.Get("/events", eventsHandler(s.EventBus, s.Config.AllowedOrigins, s.logger()))
		}

		if s.Reload != nil {
			r.Post("/configs/reload", reloadConfigHandler(s.Reload, s.logger()))
		}
	})
	return r
}
