package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rogersnm/errand/internal/config"
	"github.com/rogersnm/errand/internal/disk"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/persist"
	"github.com/rogersnm/errand/internal/store"
	"github.com/spf13/cobra"
)

// reload folds a batch of file changes into the store. Task changes are
// applied as one batch; any other kind reloads everything, since projects,
// sections and labels are not indexed.
func reload(ctx context.Context, b *disk.Backend, changes []disk.Change) error {
	var updated []*model.Task
	var removed []string
	for _, c := range changes {
		if c.Kind != model.KindTask {
			return persist.Load(ctx, b, st)
		}
		if c.Removed {
			removed = append(removed, c.ID)
			continue
		}
		rec, err := b.Read(c.Kind, c.ID)
		if errors.Is(err, disk.ErrNotFound) {
			removed = append(removed, c.ID)
			continue
		}
		if err != nil {
			logger.Warn("skipping changed file", "kind", c.Kind, "id", c.ID, "error", err)
			continue
		}
		updated = append(updated, rec.(*model.Task))
	}
	st.ApplyChanges(nil, updated, removed)
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch [view]",
	Short: "Print a view and reprint it whenever task files change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Backend != config.BackendFiles {
			return fmt.Errorf("watch needs the files backend (configured: %s)", cfg.Backend)
		}
		b := backend.(*disk.Backend)

		view := store.ViewToday
		if len(args) == 1 {
			v, err := store.ParseView(args[0])
			if err != nil {
				return err
			}
			view = v
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		printView(out, view)
		last := st.Version()

		w := b.Watcher(debounce, logger)
		return w.Run(ctx, func(changes []disk.Change) {
			if err := reload(ctx, b, changes); err != nil {
				logger.Error("reload failed", "error", err)
				return
			}
			if st.Version() == last {
				return
			}
			last = st.Version()
			fmt.Fprintf(out, "\n%s (%d change(s) at %s)\n", view, len(changes), now().Format(time.Kitchen))
			printView(out, view)
		})
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 150*time.Millisecond, "wait this long for file activity to settle")
	rootCmd.AddCommand(watchCmd)
}
