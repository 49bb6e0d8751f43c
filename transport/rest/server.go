package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type roomDirectory interface {
	CreateRoom(ctx context.Context, hostID string) (*entity.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*entity.Room, error)
	GetRoomByID(ctx context.Context, id string) (*entity.Room, error)
	JoinRoom(ctx context.Context, code, guestID string) (*entity.Room, error)
	FinishRoom(ctx context.Context, roomID string, state *entity.GameState) (*entity.Room, error)
}

type presenceRegistry interface {
	Add(ctx context.Context, roomID string, record entity.PresenceRecord) error
	Remove(ctx context.Context, roomID, participantID string) error
	Members(ctx context.Context, roomID string) ([]entity.PresenceRecord, error)
}

// Server exposes the room directory and the presence registry over HTTP.
type Server struct {
	logger    *slog.Logger
	directory roomDirectory
	presence  presenceRegistry
}

func New(logger *slog.Logger, directory roomDirectory, presence presenceRegistry) *Server {
	return &Server{
		logger:    logger.With("component", "rest"),
		directory: directory,
		presence:  presence,
	}
}

func (that *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(that.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", that.handlePing)

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", that.handleCreateRoom)
		r.Get("/{code}", that.handleGetRoomByCode)
		r.Post("/{code}/join", that.handleJoinRoom)

		r.Route("/id/{id}", func(r chi.Router) {
			r.Get("/", that.handleGetRoomByID)
			r.Post("/finish", that.handleFinishRoom)
			r.Get("/presence", that.handleListPresence)
			r.Put("/presence", that.handleAddPresence)
			r.Delete("/presence/{participantID}", that.handleRemovePresence)
		})
	})

	return r
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			that.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// fail - writes err with its mapped status; unexpected errors are logged and hidden.
func (that *Server) fail(w http.ResponseWriter, method string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		writeError(w, status, "internal error")
		return
	}

	writeError(w, status, err.Error())
}
