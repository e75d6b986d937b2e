// Package orgmode reads TODO and DONE headings from Org files as tasks.
package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/model"
)

var (
	headingRegex  = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s+(?:\[#[A-Z]\]\s*)?(.*?)(?:\s+(:[\w@:]+:))?\s*$`)
	cookieRegex   = regexp.MustCompile(`\s*\[(\d{1,3})%\]`)
	planningRegex = regexp.MustCompile(`(SCHEDULED|DEADLINE):\s*<(\d{4}-\d{2}-\d{2})[^>]*>`)
	idRegex       = regexp.MustCompile(`^:ID:\s+(\S+)`)
	anyHeading    = regexp.MustCompile(`^\*+\s`)
)

// entry accumulates one heading until the next heading starts.
type entry struct {
	task      model.Task
	scheduled model.Date
	deadline  model.Date
}

func (e *entry) finish() (model.Task, bool) {
	t := e.task
	t.Start, t.End = e.scheduled, e.deadline
	switch {
	case t.Start.IsZero() && t.End.IsZero():
		return model.Task{}, false
	case t.Start.IsZero():
		t.Start = t.End
	case t.End.IsZero():
		t.End = t.Start
	}
	if t.End.Before(t.Start) {
		t.Start = t.End
	}
	return t, t.Name != ""
}

// ParseFiles parses multiple Org-mode files and returns their tasks in order.
func ParseFiles(filePaths []string) ([]model.Task, error) {
	var allTasks []model.Task
	for _, filePath := range filePaths {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, err
		}
		tasks, err := Parse(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		allTasks = append(allTasks, tasks...)
	}
	return allTasks, nil
}

// Parse returns one task per TODO or DONE heading that has a SCHEDULED or
// DEADLINE date. SCHEDULED is the start and DEADLINE the end; with only one
// of them the bar is a single day. DONE headings are 100% complete, others
// take a [NN%] statistics cookie as progress. An :ID: property becomes the
// task id; without one the id is left empty.
func Parse(r io.Reader) ([]model.Task, error) {
	scanner := bufio.NewScanner(r)
	tasks := []model.Task{}
	var current *entry

	flush := func() {
		if current == nil {
			return
		}
		if t, ok := current.finish(); ok {
			tasks = append(tasks, t)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if anyHeading.MatchString(line) {
			flush()
			matches := headingRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &entry{}
			title := matches[2]
			if m := cookieRegex.FindStringSubmatch(title); m != nil {
				p, _ := strconv.Atoi(m[1])
				current.task.Progress = min(p, 100)
				title = cookieRegex.ReplaceAllString(title, "")
			}
			current.task.Name = strings.TrimSpace(title)
			if matches[1] == "DONE" {
				current.task.Progress = 100
			}
			continue
		}
		if current == nil {
			continue
		}

		for _, m := range planningRegex.FindAllStringSubmatch(line, -1) {
			d, err := model.ParseDate(m[2])
			if err != nil {
				continue
			}
			if m[1] == "SCHEDULED" {
				current.scheduled = d
			} else {
				current.deadline = d
			}
		}
		if m := idRegex.FindStringSubmatch(line); m != nil {
			current.task.ID = m[1]
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
