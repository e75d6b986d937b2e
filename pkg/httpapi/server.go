// Package httpapi serves the task collection as JSON and the Gantt chart as
// an HTML page.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

// TaskService is the part of *tasks.Manager the server needs.
type TaskService interface {
	Tasks() []model.Task
	Get(id string) (model.Task, bool)
	CreateTask(ctx context.Context, t model.Task) error
	EditTask(ctx context.Context, t model.Task) error
	DeleteTask(ctx context.Context, id string) error
}

type Server struct {
	tasks  TaskService
	logger logging.Logger
	mode   timeline.ViewMode
	locale timeline.Locale
	today  func() model.Date
	router chi.Router
}

type Option func(*Server)

func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDefaultMode sets the view used when a request has no ?mode=.
func WithDefaultMode(m timeline.ViewMode) Option {
	return func(s *Server) { s.mode = m }
}

func WithLocale(l timeline.Locale) Option {
	return func(s *Server) { s.locale = l }
}

func WithClock(today func() model.Date) Option {
	return func(s *Server) { s.today = today }
}

func NewServer(svc TaskService, opts ...Option) *Server {
	s := &Server{
		tasks:  svc,
		logger: logging.Nop(),
		mode:   timeline.DefaultMode,
		locale: timeline.DefaultLocale,
		today:  model.Today,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(exposeRequestID)
	r.Use(requestLogging(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Put("/tasks/{id}", s.handleUpdateTask)
		r.Delete("/tasks/{id}", s.handleDeleteTask)
		r.Get("/timeline", s.handleTimeline)
	})

	r.Get("/", s.handlePage)
	r.Post("/tasks", s.handleFormCreate)
	r.Post("/tasks/{id}", s.handleFormEdit)
	r.Post("/tasks/{id}/delete", s.handleFormDelete)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the handler with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
