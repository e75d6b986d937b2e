package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/overdue"
	"github.com/harrisonrobin/gantta/pkg/tasks"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

type taskFlags struct {
	id       string
	name     string
	start    string
	end      string
	progress int
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "task name")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.progress, "progress", 0, "progress percentage (0-100)")
}

// apply copies the flags that were set on cmd onto t.
func (f *taskFlags) apply(cmd *cobra.Command, t *model.Task) error {
	if cmd.Flags().Changed("name") {
		t.Name = strings.TrimSpace(f.name)
	}
	if cmd.Flags().Changed("start") {
		d, err := model.ParseDate(f.start)
		if err != nil {
			return err
		}
		t.Start = d
	}
	if cmd.Flags().Changed("end") {
		d, err := model.ParseDate(f.end)
		if err != nil {
			return err
		}
		t.End = d
	}
	if cmd.Flags().Changed("progress") {
		t.Progress = f.progress
	}
	return nil
}

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Create, edit, delete and list tasks",
	}
	cmd.AddCommand(a.taskAddCmd(), a.taskEditCmd(), a.taskRemoveCmd(), a.taskListCmd())
	return cmd
}

func (a *app) taskAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := model.Task{ID: strings.TrimSpace(f.id)}
			if err := f.apply(cmd, &t); err != nil {
				return err
			}
			if t.ID == "" {
				t.ID = model.NewID()
			}
			if err := t.Validate(); err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				if err := m.CreateTask(cmd.Context(), t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.id, "id", "", "task id (generated when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) taskEditCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				t, ok := m.Get(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", tasks.ErrNotFound, args[0])
				}
				if err := f.apply(cmd, &t); err != nil {
					return err
				}
				if err := t.Validate(); err != nil {
					return err
				}
				if err := m.EditTask(cmd.Context(), t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", t.ID)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) taskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				for _, id := range args {
					if err := m.DeleteTask(cmd.Context(), id); err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
				}
				return nil
			})
		},
	}
}

func (a *app) taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks in creation order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				all := m.Tasks()
				if len(all) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
					return nil
				}
				today := model.Today()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTART\tEND\tDAYS\tPROGRESS\tSTATE")
				for _, t := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d%%\t%s\n",
						t.ID, t.Name, t.Start, t.End,
						timeline.Duration(t.Start, t.End), t.Progress, state(t, today))
				}
				return w.Flush()
			})
		},
	}
}

func state(t model.Task, today model.Date) string {
	switch {
	case t.Done():
		return "done"
	case overdue.IsOverdue(t, today):
		return "overdue"
	case t.Progress > 0:
		return "in progress"
	default:
		return "pending"
	}
}
