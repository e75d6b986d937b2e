package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/taskwarrior"
	"github.com/harrisonrobin/gantta/pkg/tasks"
	"github.com/harrisonrobin/gantta/pkg/transfer"
)

// resolveFormat prefers an explicit --format, then the file extension, then JSON.
func resolveFormat(flag, path string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	if path != "" && path != "-" {
		return transfer.FormatFromPath(path)
	}
	return transfer.JSON, nil
}

func (a *app) exportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task as JSON, YAML or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					file, err := os.Create(output)
					if err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				return transfer.Encode(w, m.Tasks(), f)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, yaml or toml (default from the file extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var (
		format   string
		fromTask bool
	)
	cmd := &cobra.Command{
		Use:   "import <file> | --from-task [filter...]",
		Short: "Create or update tasks from an exported file",
		Long: `Import reads a JSON, YAML or TOML task list, a Taskwarrior export or an
Org file. Tasks whose id already exists are replaced, the rest are created.
Nothing is written when any task in the input is invalid. Use - to read stdin.

With --from-task the tasks come from running "task <filter> export".`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromTask {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				incoming []model.Task
				err      error
			)
			if fromTask {
				incoming, err = exportTaskwarrior(cmd.Context(), args)
			} else {
				incoming, err = readTasks(cmd.InOrStdin(), format, args[0])
			}
			if err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				res, err := transfer.Import(cmd.Context(), m, incoming)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks: %d created, %d updated\n",
					res.Created+res.Updated, res.Created, res.Updated)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, yaml, toml, taskwarrior or org (default from the file extension)")
	cmd.Flags().BoolVar(&fromTask, "from-task", false, "import from the task command instead of a file")
	return cmd
}

func readTasks(stdin io.Reader, format, path string) ([]model.Task, error) {
	f, err := resolveFormat(format, path)
	if err != nil {
		return nil, err
	}
	r := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	return transfer.Decode(r, f)
}

func exportTaskwarrior(ctx context.Context, filter []string) ([]model.Task, error) {
	tw, err := taskwarrior.NewClient().Export(ctx, filter...)
	if err != nil {
		return nil, err
	}
	return taskwarrior.Convert(tw), nil
}
