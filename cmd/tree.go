package cmd

import (
	"fmt"

	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/tree"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show open tasks with their subtasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks := st.Inbox()
		if projectID := optionalProject(cmd); projectID != "" {
			if _, err := findProject(projectID); err != nil {
				return err
			}
			tasks = st.ItemsByProject(projectID)
		}
		if all, _ := cmd.Flags().GetBool("all"); !all {
			tasks = keep(tasks, func(t *model.Task) bool { return !t.Checked })
		}
		fmt.Fprintln(cmd.OutOrStdout(), tree.RenderASCII(tree.Build(tasks), now()))
		return nil
	},
}

func init() {
	treeCmd.Flags().StringP("project", "P", "", "project ID (default: linked or default project, else inbox)")
	treeCmd.Flags().BoolP("all", "a", false, "include completed tasks")
	rootCmd.AddCommand(treeCmd)
}
