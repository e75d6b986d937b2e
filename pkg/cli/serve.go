package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/events"
	"github.com/harrisonrobin/gantta/pkg/google"
	"github.com/harrisonrobin/gantta/pkg/httpapi"
	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/tasks"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Gantt chart and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.HTTP.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command, addr string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	subject := events.NewSubject(logging.With(a.logger, "component", "events"))
	subject.Register(events.LogObserver{Logger: a.logger})
	manager := a.openManager(ctx, store, tasks.WithPublisher(subject))

	if fs, ok := store.(*kv.FileStore); ok {
		if err := fs.Watch(ctx, a.cfg.Store.Key, func() { manager.Reload(ctx) }); err != nil {
			a.logger.Warn("not watching the task file for outside changes", "error", err)
		}
	}

	if a.cfg.Calendar.Enabled {
		s, err := a.syncer(ctx, cmd, store)
		if err != nil {
			a.logger.Warn("calendar export disabled", "calendar", a.cfg.Calendar.Name, "error", err)
		} else {
			if a.cfg.Calendar.SyncOnChange {
				subject.Register(s)
				defer subject.Unregister(google.ObserverID)
			}
			sched, err := newScheduler(ctx, logging.With(a.logger, "component", "scheduler"), s, manager, a.cfg.Calendar.SyncSchedule, a.cfg.Calendar.SweepSchedule)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		}
	}

	mode, _ := timeline.ParseViewMode(a.cfg.Timeline.Mode)
	locale, _ := timeline.ParseLocale(a.cfg.Timeline.Locale)
	srv := httpapi.NewServer(manager,
		httpapi.WithLogger(logging.With(a.logger, "component", "http")),
		httpapi.WithDefaultMode(mode),
		httpapi.WithLocale(locale)).HTTPServer(addr)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
