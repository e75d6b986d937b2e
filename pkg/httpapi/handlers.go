package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// taskRequest is the writable part of a task.
type taskRequest struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Start    model.Date `json:"start"`
	End      model.Date `json:"end"`
	Progress int        `json:"progress"`
}

func (req taskRequest) task() model.Task {
	return model.Task{
		ID:       strings.TrimSpace(req.ID),
		Name:     strings.TrimSpace(req.Name),
		Start:    req.Start,
		End:      req.End,
		Progress: req.Progress,
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.tasks.Tasks()

	if v := r.URL.Query().Get("done"); v != "" {
		want, err := parseBoolStrict(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "done must be true or false")
			return
		}
		tasks = filterByDone(tasks, want)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(tasks),
		"items": tasks,
	})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := req.task()
	if t.ID == "" {
		t.ID = model.NewID()
	}
	if err := t.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.tasks.CreateTask(r.Context(), t); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := req.task()
	t.ID = id
	if err := t.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}
	if _, ok := s.tasks.Get(id); !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err := s.tasks.EditTask(r.Context(), t); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleDeleteTask is idempotent unless the service is strict.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	layout, err := s.layout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// layout computes the chart for the ?mode= and ?locale= of r, falling back
// to the server defaults.
func (s *Server) layout(r *http.Request) (timeline.Layout, error) {
	q := r.URL.Query()

	mode := s.mode
	if v := q.Get("mode"); v != "" {
		m, err := timeline.ParseViewMode(v)
		if err != nil {
			return timeline.Layout{}, err
		}
		mode = m
	}

	locale := s.locale
	if v := q.Get("locale"); v != "" {
		l, err := timeline.ParseLocale(v)
		if err != nil {
			return timeline.Layout{}, err
		}
		locale = l
	}

	return timeline.Compute(s.tasks.Tasks(), mode, s.today(), locale), nil
}

func filterByDone(tasks []model.Task, done bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Done() == done {
			out = append(out, t)
		}
	}
	return out
}

func parseBoolStrict(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.New("not a bool")
	}
}
