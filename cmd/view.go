package cmd

import (
	"fmt"
	"io"

	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/store"
	"github.com/spf13/cobra"
)

var viewShort = map[store.View]string{
	store.ViewInbox:     "Open tasks with no project",
	store.ViewToday:     "Open tasks due today",
	store.ViewScheduled: "Open tasks with a due date",
	store.ViewCompleted: "Completed tasks",
	store.ViewPinned:    "Open pinned tasks",
	store.ViewOverdue:   "Open tasks past their due date",
	store.ViewNoSection: "Open project tasks outside any section",
}

func printView(w io.Writer, v store.View) {
	tasks := st.View(v)
	if len(tasks) == 0 {
		fmt.Fprintf(w, "No tasks in %s.\n", v)
		return
	}
	fmt.Fprintln(w, markdown.RenderTaskTable(tasks, names(), now()))
}

func viewCmd(v store.View) *cobra.Command {
	return &cobra.Command{
		Use:   string(v),
		Short: viewShort[v],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printView(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func init() {
	for _, v := range store.Views {
		rootCmd.AddCommand(viewCmd(v))
	}
}
