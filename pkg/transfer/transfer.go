// Package transfer moves task collections in and out of gantta as JSON, YAML
// or TOML documents, and reads Taskwarrior exports and Org files.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/orgmode"
	"github.com/harrisonrobin/gantta/pkg/taskwarrior"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"

	// Import-only formats.
	Taskwarrior Format = "taskwarrior"
	Org         Format = "org"
)

var (
	ErrUnknownFormat = errors.New("unknown format")
	ErrImportOnly    = errors.New("format can only be imported")
)

// ParseFormat accepts a format name; yml is an alias of yaml and tw of
// taskwarrior.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	case "taskwarrior", "tw":
		return Taskwarrior, nil
	case "org":
		return Org, nil
	}
	return "", fmt.Errorf("%w %q (want json, yaml, toml, taskwarrior or org)", ErrUnknownFormat, s)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// document is the YAML and TOML envelope; JSON is a bare array, the same
// layout the store uses.
type document struct {
	Tasks []model.Task `yaml:"tasks" toml:"tasks"`
}

func Encode(w io.Writer, tasks []model.Task, format Format) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Tasks: tasks}); err != nil {
			return err
		}
		return enc.Close()
	case TOML:
		return toml.NewEncoder(w).Encode(document{Tasks: tasks})
	case Taskwarrior, Org:
		return fmt.Errorf("%w: %s", ErrImportOnly, format)
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

func Decode(r io.Reader, format Format) ([]model.Task, error) {
	var tasks []model.Task
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&tasks); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	case YAML:
		var doc document
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
		tasks = doc.Tasks
	case TOML:
		var doc document
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding toml: %w", err)
		}
		tasks = doc.Tasks
	case Taskwarrior:
		tw, err := taskwarrior.ParseTasks(r)
		if err != nil {
			return nil, err
		}
		tasks = taskwarrior.Convert(tw)
	case Org:
		parsed, err := orgmode.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("reading org: %w", err)
		}
		tasks = parsed
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
