package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/tasks"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

func (a *app) timelineCmd() *cobra.Command {
	var (
		mode   string
		locale string
		width  int
	)
	cmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"gantt", "chart"},
		Short:   "Draw the Gantt chart in the terminal",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("mode") {
				mode = a.cfg.Timeline.Mode
			}
			if !cmd.Flags().Changed("locale") {
				locale = a.cfg.Timeline.Locale
			}
			vm, err := timeline.ParseViewMode(mode)
			if err != nil {
				return err
			}
			loc, err := timeline.ParseLocale(locale)
			if err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *tasks.Manager) error {
				layout := timeline.Compute(m.Tasks(), vm, model.Today(), loc)
				return timeline.Render(cmd.OutOrStdout(), layout, width)
			})
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "view mode: half-day, day, week or month")
	cmd.Flags().StringVar(&locale, "locale", "", "month names: es or en")
	cmd.Flags().IntVarP(&width, "width", "w", timeline.DefaultWidth, "chart width in columns")
	return cmd
}
