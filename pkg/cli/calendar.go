package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/auth"
	"github.com/harrisonrobin/gantta/pkg/config"
	"github.com/harrisonrobin/gantta/pkg/google"
	"github.com/harrisonrobin/gantta/pkg/index"
	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/overdue"
	"github.com/harrisonrobin/gantta/pkg/tasks"
)

func (a *app) calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Export tasks to Google Calendar",
	}
	cmd.AddCommand(a.calendarAuthCmd(), a.calendarSyncCmd(), a.calendarSweepCmd(), a.calendarSetCmd())
	return cmd
}

func (a *app) authFlow(cmd *cobra.Command) (*auth.Flow, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("could not find path to configuration file: %w", err)
	}
	return &auth.Flow{Dir: dir, Out: cmd.OutOrStdout(), Logger: a.logger}, nil
}

// syncer connects to the configured calendar. Its event index and overdue
// table live in store next to the tasks.
func (a *app) syncer(ctx context.Context, cmd *cobra.Command, store kv.Store) (*google.Syncer, error) {
	flow, err := a.authFlow(cmd)
	if err != nil {
		return nil, err
	}
	srv, err := flow.CalendarService(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := index.NewEventIndex(ctx, store, index.DefaultKey)
	if err != nil {
		return nil, err
	}
	table, err := overdue.NewTable(ctx, store, overdue.DefaultKey)
	if err != nil {
		return nil, err
	}
	return google.NewClient(ctx, srv, a.cfg.Calendar.Name, idx,
		google.WithLogger(logging.With(a.logger, "component", "calendar")),
		google.WithOverdueTable(table))
}

func (a *app) calendarAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := a.authFlow(cmd)
			if err != nil {
				return err
			}
			if err := flow.Reset(); err != nil {
				return err
			}
			if _, err := flow.CalendarService(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", flow.TokenPath())
			return nil
		},
	}
}

func (a *app) calendarSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror every dated task to the calendar and remove stale events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withCalendar(cmd, func(m *tasks.Manager, s *google.Syncer) error {
				report, err := s.SyncAll(cmd.Context(), m.Tasks())
				fmt.Fprintf(cmd.OutOrStdout(), "synced %d, skipped %d, deleted %d, failed %d\n",
					report.Synced, report.Skipped, report.Deleted, report.Failed)
				return err
			})
		},
	}
}

func (a *app) calendarSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Re-sync tasks that became overdue since their last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withCalendar(cmd, func(m *tasks.Manager, s *google.Syncer) error {
				n, err := s.Sweep(cmd.Context(), m.Tasks())
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d overdue\n", n)
				return err
			})
		},
	}
}

func (a *app) withCalendar(cmd *cobra.Command, fn func(*tasks.Manager, *google.Syncer) error) error {
	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := a.syncer(ctx, cmd, store)
	if err != nil {
		return err
	}
	return fn(a.openManager(ctx, store), s)
}

func (a *app) calendarSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <calendar name>",
		Short: "Set the Google Calendar tasks are exported to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Calendar.Name = args[0]
			a.cfg.Calendar.Enabled = true
			if err := config.Save(a.configPath, a.cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
			return nil
		},
	}
}
