package cmd

import (
	"fmt"

	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/model"
	"github.com/spf13/cobra"
)

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Manage project sections",
}

var sectionAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a section to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := resolveProject(cmd)
		if err != nil {
			return err
		}
		if _, err := findProject(projectID); err != nil {
			return err
		}
		sec := &model.Section{
			ID:        id.Generate(model.KindSection),
			Name:      args[0],
			ProjectID: projectID,
			Order:     len(st.SectionsByProject(projectID)),
			CreatedAt: now(),
		}
		if err := sec.Validate(); err != nil {
			return err
		}
		sec = st.AddSection(sec)
		syncer.Put(sec)
		fmt.Fprintf(cmd.OutOrStdout(), "Added section %s (%s)\n", sec.Name, sec.ID)
		return nil
	},
}

var sectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sections",
	RunE: func(cmd *cobra.Command, args []string) error {
		sections := st.Sections()
		if projectID, _ := cmd.Flags().GetString("project"); projectID != "" {
			sections = st.SectionsByProject(projectID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderSectionTable(sections, names()))
		return nil
	},
}

var sectionRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a section; its tasks stay in the project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sec, ok := st.Section(args[0])
		if !ok {
			return fmt.Errorf("section %s not found", args[0])
		}
		at := now()
		var moved []*model.Task
		for _, t := range st.ItemsBySection(sec.ID) {
			moved = append(moved, t.WithProject(t.ProjectID, "", at))
		}
		st.ApplyChanges(nil, moved, nil)
		for _, t := range moved {
			syncer.Put(t)
		}
		st.RemoveSection(sec.ID)
		syncer.Delete(model.KindSection, sec.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Removed section %s, %d task(s) moved out\n", sec.ID, len(moved))
		return nil
	},
}

func init() {
	sectionAddCmd.Flags().StringP("project", "P", "", "project ID")
	sectionListCmd.Flags().StringP("project", "P", "", "filter by project")

	sectionCmd.AddCommand(sectionAddCmd)
	sectionCmd.AddCommand(sectionListCmd)
	sectionCmd.AddCommand(sectionRemoveCmd)
	rootCmd.AddCommand(sectionCmd)
}
