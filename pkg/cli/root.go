// Package cli is the gantta command line: task editing, the terminal chart,
// the web server and Google Calendar export.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/config"
	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/storage"
	"github.com/harrisonrobin/gantta/pkg/tasks"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger logging.Logger
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gantta",
		Short: "Gantta - a Gantt chart task manager",
		Long: `Gantta keeps a list of dated tasks and draws them as a Gantt chart,
in the terminal or in the browser, and can mirror them to Google Calendar.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.config/gantta/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(a.taskCmd())
	root.AddCommand(a.timelineCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.calendarCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.configCmd())
	root.AddCommand(versionCmd(version))

	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) openStore(ctx context.Context) (kv.Store, error) {
	store, err := kv.Open(ctx, a.cfg.KVOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Store.Backend, err)
	}
	return store, nil
}

// openManager loads the task collection from store.
func (a *app) openManager(ctx context.Context, store kv.Store, opts ...tasks.Option) *tasks.Manager {
	opts = append([]tasks.Option{
		tasks.WithLogger(a.logger),
		tasks.WithStrict(a.cfg.Strict),
	}, opts...)
	m := tasks.NewManager(storage.NewAdapter(store, a.cfg.Store.Key), opts...)
	m.Initialize(ctx)
	return m
}

// withManager opens the store, runs fn and closes the store.
func (a *app) withManager(ctx context.Context, fn func(*tasks.Manager) error) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(a.openManager(ctx, store))
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gantta %s\n", version)
		},
	}
}
