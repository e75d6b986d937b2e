package tasks

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/storage"
)

// ManagerBDDTestContext holds state shared across the steps of one scenario.
type ManagerBDDTestContext struct {
	ctx       context.Context
	store     kv.Store
	adapter   *storage.Adapter
	manager   *Manager
	logger    *logging.Recorder
	publisher *recordingPublisher
	strict    bool
	lastError error
}

func (c *ManagerBDDTestContext) reset() {
	c.ctx = context.Background()
	c.store = kv.NewMemoryStore(0)
	c.adapter = storage.NewAdapter(c.store, storage.DefaultKey)
	c.manager = nil
	c.logger = &logging.Recorder{}
	c.publisher = &recordingPublisher{}
	c.strict = false
	c.lastError = nil
}

// ensureManager starts the manager on first use so Given steps can seed the
// store before it loads.
func (c *ManagerBDDTestContext) ensureManager() *Manager {
	if c.manager == nil {
		c.manager = NewManager(c.adapter,
			WithLogger(c.logger),
			WithPublisher(c.publisher),
			WithStrict(c.strict))
		c.manager.Initialize(c.ctx)
	}
	return c.manager
}

func newBDDTask(id, name, start, end string) (model.Task, error) {
	s, err := model.ParseDate(start)
	if err != nil {
		return model.Task{}, err
	}
	e, err := model.ParseDate(end)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{ID: id, Name: name, Start: s, End: e}, nil
}

func (c *ManagerBDDTestContext) anEmptyTaskStore() error {
	c.reset()
	return nil
}

func (c *ManagerBDDTestContext) theStoreAlreadyHoldsTask(id, name, start, end string) error {
	t, err := newBDDTask(id, name, start, end)
	if err != nil {
		return err
	}
	current, err := c.adapter.Load(c.ctx)
	if err != nil {
		return err
	}
	c.manager = nil
	return c.adapter.Save(c.ctx, append(current, t))
}

func (c *ManagerBDDTestContext) theStoreHoldsTheRawValue(value string) error {
	c.manager = nil
	return c.store.Set(c.ctx, storage.DefaultKey, value)
}

func (c *ManagerBDDTestContext) theStoreRejectsWrites() error {
	c.store = kv.NewMemoryStore(1)
	c.adapter = storage.NewAdapter(c.store, storage.DefaultKey)
	c.manager = nil
	return nil
}

func (c *ManagerBDDTestContext) theManagerRunsInStrictMode() error {
	c.strict = true
	c.manager = nil
	return nil
}

func (c *ManagerBDDTestContext) theManagerStarts() error {
	c.manager = nil
	c.ensureManager()
	return nil
}

func (c *ManagerBDDTestContext) iCreateTask(id, name, start, end string) error {
	t, err := newBDDTask(id, name, start, end)
	if err != nil {
		return err
	}
	c.lastError = c.ensureManager().CreateTask(c.ctx, t)
	return nil
}

func (c *ManagerBDDTestContext) iSetTheProgressOfTask(id string, progress int) error {
	m := c.ensureManager()
	t, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	t.Progress = progress
	c.lastError = m.EditTask(c.ctx, t)
	return nil
}

func (c *ManagerBDDTestContext) iRenameTask(id, name string) error {
	c.lastError = c.ensureManager().EditTask(c.ctx, model.Task{ID: id, Name: name})
	return nil
}

func (c *ManagerBDDTestContext) iDeleteTask(id string) error {
	c.lastError = c.ensureManager().DeleteTask(c.ctx, id)
	return nil
}

func (c *ManagerBDDTestContext) theManagerShouldHoldTasks(n int) error {
	if got := len(c.ensureManager().Tasks()); got != n {
		return fmt.Errorf("expected %d tasks in the manager, got %d", n, got)
	}
	return nil
}

func (c *ManagerBDDTestContext) theStoreShouldHoldTasks(n int) error {
	stored, err := c.adapter.Load(c.ctx)
	if err != nil {
		return err
	}
	if len(stored) != n {
		return fmt.Errorf("expected %d stored tasks, got %d", n, len(stored))
	}
	return nil
}

func (c *ManagerBDDTestContext) taskInTheStoreShouldBe(pos int, name string) error {
	stored, err := c.adapter.Load(c.ctx)
	if err != nil {
		return err
	}
	if pos < 1 || pos > len(stored) {
		return fmt.Errorf("no stored task at position %d", pos)
	}
	if stored[pos-1].Name != name {
		return fmt.Errorf("expected stored task %d to be %q, got %q", pos, name, stored[pos-1].Name)
	}
	return nil
}

func (c *ManagerBDDTestContext) taskShouldHaveProgress(id string, progress int) error {
	t, ok := c.ensureManager().Get(id)
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	if t.Progress != progress {
		return fmt.Errorf("expected progress %d, got %d", progress, t.Progress)
	}
	return nil
}

func (c *ManagerBDDTestContext) noErrorShouldBeReturned() error {
	if c.lastError != nil {
		return fmt.Errorf("unexpected error: %w", c.lastError)
	}
	return nil
}

func (c *ManagerBDDTestContext) theErrorShouldBe(msg string) error {
	if c.lastError == nil {
		return fmt.Errorf("expected error %q, got none", msg)
	}
	if c.lastError.Error() != msg {
		return fmt.Errorf("expected error %q, got %q", msg, c.lastError.Error())
	}
	return nil
}

func (c *ManagerBDDTestContext) aWarningShouldBeLogged() error {
	if c.logger.Count("warn") == 0 {
		return fmt.Errorf("no warning logged")
	}
	return nil
}

func (c *ManagerBDDTestContext) anErrorShouldBeLogged() error {
	if c.logger.Count("error") == 0 {
		return fmt.Errorf("no error logged")
	}
	return nil
}

func (c *ManagerBDDTestContext) eventsShouldBePublished(n int) error {
	if got := len(c.publisher.events); got != n {
		return fmt.Errorf("expected %d events, got %d", n, got)
	}
	return nil
}

func (c *ManagerBDDTestContext) eventShouldHaveType(pos int, eventType string) error {
	if pos < 1 || pos > len(c.publisher.events) {
		return fmt.Errorf("no event at position %d", pos)
	}
	if got := c.publisher.events[pos-1].Type(); got != eventType {
		return fmt.Errorf("expected event %d of type %q, got %q", pos, eventType, got)
	}
	return nil
}

func TestManagerFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			testCtx := &ManagerBDDTestContext{}
			testCtx.reset()

			// Background and setup
			ctx.Step(`^an empty task store$`, testCtx.anEmptyTaskStore)
			ctx.Step(`^the store already holds task "([^"]*)" named "([^"]*)" from "([^"]*)" to "([^"]*)"$`, testCtx.theStoreAlreadyHoldsTask)
			ctx.Step(`^the store holds the raw value "([^"]*)"$`, testCtx.theStoreHoldsTheRawValue)
			ctx.Step(`^the store rejects writes$`, testCtx.theStoreRejectsWrites)
			ctx.Step(`^the manager runs in strict mode$`, testCtx.theManagerRunsInStrictMode)
			ctx.Step(`^the manager starts$`, testCtx.theManagerStarts)

			// Actions
			ctx.Step(`^I create task "([^"]*)" named "([^"]*)" from "([^"]*)" to "([^"]*)"$`, testCtx.iCreateTask)
			ctx.Step(`^I set the progress of task "([^"]*)" to (\d+)$`, testCtx.iSetTheProgressOfTask)
			ctx.Step(`^I rename task "([^"]*)" to "([^"]*)"$`, testCtx.iRenameTask)
			ctx.Step(`^I delete task "([^"]*)"$`, testCtx.iDeleteTask)

			// Assertions
			ctx.Step(`^the manager should hold (\d+) tasks$`, testCtx.theManagerShouldHoldTasks)
			ctx.Step(`^the store should hold (\d+) tasks$`, testCtx.theStoreShouldHoldTasks)
			ctx.Step(`^task (\d+) in the store should be "([^"]*)"$`, testCtx.taskInTheStoreShouldBe)
			ctx.Step(`^task "([^"]*)" should have progress (\d+)$`, testCtx.taskShouldHaveProgress)
			ctx.Step(`^no error should be returned$`, testCtx.noErrorShouldBeReturned)
			ctx.Step(`^the error should be "([^"]*)"$`, testCtx.theErrorShouldBe)
			ctx.Step(`^a warning should be logged$`, testCtx.aWarningShouldBeLogged)
			ctx.Step(`^an error should be logged$`, testCtx.anErrorShouldBeLogged)
			ctx.Step(`^(\d+) events should be published$`, testCtx.eventsShouldBePublished)
			ctx.Step(`^event (\d+) should have type "([^"]*)"$`, testCtx.eventShouldHaveType)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
