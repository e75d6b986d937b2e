package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrisonrobin/gantta/pkg/model"
)

// Target is the part of the task manager an import writes through.
type Target interface {
	Get(id string) (model.Task, bool)
	CreateTask(ctx context.Context, t model.Task) error
	EditTask(ctx context.Context, t model.Task) error
}

type ImportResult struct {
	Created int
	Updated int
}

// Import validates every incoming task and then upserts them: an id that
// already exists is edited, anything else is created. Tasks without an id
// get a new one. Nothing is written when any task is invalid.
func Import(ctx context.Context, target Target, incoming []model.Task) (ImportResult, error) {
	var errs []error
	for i, t := range incoming {
		if err := t.Validate(); err != nil {
			label := t.ID
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			errs = append(errs, fmt.Errorf("task %s: %w", label, err))
		}
	}
	if len(errs) > 0 {
		return ImportResult{}, errors.Join(errs...)
	}

	var result ImportResult
	for _, t := range incoming {
		if t.ID == "" {
			t.ID = model.NewID()
		}
		if _, exists := target.Get(t.ID); exists {
			if err := target.EditTask(ctx, t); err != nil {
				return result, fmt.Errorf("task %s: %w", t.ID, err)
			}
			result.Updated++
			continue
		}
		if err := target.CreateTask(ctx, t); err != nil {
			return result, fmt.Errorf("task %s: %w", t.ID, err)
		}
		result.Created++
	}
	return result, nil
}
