package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harrisonrobin/gantta/pkg/colors"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/tasks"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("gantt.html").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"color": colors.ColorID,
}).ParseFS(templateFS, "templates/gantt.html"))

var viewModes = []timeline.ViewMode{timeline.HalfDay, timeline.Day, timeline.Week, timeline.Month}

type modeLink struct {
	Mode   timeline.ViewMode
	Active bool
}

type pageData struct {
	Layout timeline.Layout
	Modes  []modeLink
	Today  model.Date
	Error  string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	layout, err := s.layout(r)
	if err != nil {
		s.renderPage(w, http.StatusBadRequest, timeline.Compute(nil, s.mode, s.today(), s.locale), err.Error())
		return
	}
	s.renderPage(w, http.StatusOK, layout, "")
}

func (s *Server) renderPage(w http.ResponseWriter, status int, layout timeline.Layout, msg string) {
	data := pageData{Layout: layout, Today: s.today(), Error: msg}
	for _, m := range viewModes {
		data.Modes = append(data.Modes, modeLink{Mode: m, Active: m == layout.Mode})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("could not render page", "error", err)
	}
}

// taskFromForm reads the create and edit forms. Progress may be left empty.
func taskFromForm(r *http.Request) (model.Task, error) {
	if err := r.ParseForm(); err != nil {
		return model.Task{}, err
	}
	start, err := model.ParseDate(r.PostForm.Get("start"))
	if err != nil {
		return model.Task{}, err
	}
	end, err := model.ParseDate(r.PostForm.Get("end"))
	if err != nil {
		return model.Task{}, err
	}
	progress := 0
	if v := strings.TrimSpace(r.PostForm.Get("progress")); v != "" {
		if progress, err = strconv.Atoi(v); err != nil {
			return model.Task{}, fmt.Errorf("progress must be a number: %w", err)
		}
	}
	t := model.Task{
		Name:     strings.TrimSpace(r.PostForm.Get("name")),
		Start:    start,
		End:      end,
		Progress: progress,
	}
	return t, t.Validate()
}

func (s *Server) handleFormCreate(w http.ResponseWriter, r *http.Request) {
	t, err := taskFromForm(r)
	if err == nil {
		t.ID = model.NewID()
		err = s.tasks.CreateTask(r.Context(), t)
	}
	s.finishForm(w, r, err)
}

func (s *Server) handleFormEdit(w http.ResponseWriter, r *http.Request) {
	t, err := taskFromForm(r)
	if err == nil {
		t.ID = chi.URLParam(r, "id")
		if _, ok := s.tasks.Get(t.ID); !ok {
			err = fmt.Errorf("%w: %s", tasks.ErrNotFound, t.ID)
		} else {
			err = s.tasks.EditTask(r.Context(), t)
		}
	}
	s.finishForm(w, r, err)
}

func (s *Server) handleFormDelete(w http.ResponseWriter, r *http.Request) {
	s.finishForm(w, r, s.tasks.DeleteTask(r.Context(), chi.URLParam(r, "id")))
}

// finishForm redirects back to the chart in the view the form was posted
// from, or re-renders it with the error.
func (s *Server) finishForm(w http.ResponseWriter, r *http.Request, err error) {
	mode := s.mode
	if v := r.FormValue("mode"); v != "" {
		if m, perr := timeline.ParseViewMode(v); perr == nil {
			mode = m
		}
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.renderPage(w, status, timeline.Compute(s.tasks.Tasks(), mode, s.today(), s.locale), err.Error())
		return
	}
	http.Redirect(w, r, "/?mode="+url.QueryEscape(string(mode)), http.StatusSeeOther)
}
