package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/rogersnm/errand/internal/config"
	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/repofile"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

func findProject(id string) (*model.Project, error) {
	if err := expectKind(id, model.KindProject); err != nil {
		return nil, err
	}
	p, ok := st.Project(id)
	if !ok {
		return nil, fmt.Errorf("project %s not found", id)
	}
	return p, nil
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at := now()
		p := &model.Project{
			ID:          id.Generate(model.KindProject),
			Name:        args[0],
			Description: readStdin(),
			CreatedAt:   at,
			UpdatedAt:   at,
		}
		p.Color, _ = cmd.Flags().GetString("color")
		p.Favorite, _ = cmd.Flags().GetBool("favorite")
		p.Order = len(st.Projects())
		if err := p.Validate(); err != nil {
			return err
		}
		p = st.AddProject(p)
		syncer.Put(p)
		fmt.Fprintf(cmd.OutOrStdout(), "Added project %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		open := make(map[string]int)
		for _, p := range st.Projects() {
			for _, t := range st.ItemsByProject(p.ID) {
				if !t.Checked {
					open[p.ID]++
				}
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderProjectTable(st.Projects(), open))
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show project details, sections and open tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := findProject(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		raw, _ := cmd.Flags().GetBool("raw")
		noColor, _ := cmd.Flags().GetBool("no-color")
		if raw || noColor {
			data, err := markdown.Marshal(p, p.Description)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		}

		tasks := keep(st.ItemsByProject(p.ID), func(t *model.Task) bool { return !t.Checked })
		fields := []string{
			markdown.RenderField("ID", p.ID),
			markdown.RenderField("Open tasks", fmt.Sprint(len(tasks))),
			markdown.RenderField("Created", p.CreatedAt.Format("2006-01-02 15:04:05")),
			markdown.RenderField("Updated", p.UpdatedAt.Format("2006-01-02 15:04:05")),
		}
		if p.Color != "" {
			fields = append(fields, markdown.RenderField("Color", p.Color))
		}
		fmt.Fprint(out, markdown.RenderEntityHeader(p.Name, fields))
		if p.Description != "" {
			rendered, err := markdown.RenderMarkdown(p.Description)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		}

		n := names()
		if secs := st.SectionsByProject(p.ID); len(secs) > 0 {
			fmt.Fprintln(out, "\nSections:")
			fmt.Fprintln(out, markdown.RenderSectionTable(secs, n))
		}
		if len(tasks) > 0 {
			fmt.Fprintln(out, "\nTasks:")
			fmt.Fprintln(out, markdown.RenderTaskTable(tasks, n, now()))
		}
		return nil
	},
}

var projectSetDefaultCmd = &cobra.Command{
	Use:   "set-default <id>",
	Short: "Set the default project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := findProject(args[0]); err != nil {
			return err
		}
		cfg.DefaultProject = args[0]
		if err := config.Save(dataDir, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default project set to %s\n", args[0])
		return nil
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a project with its sections and tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := findProject(args[0])
		if err != nil {
			return err
		}

		tasks := st.ItemsByProject(p.ID)
		sections := st.SectionsByProject(p.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Project: %s (%s), %d tasks, %d sections\n", p.Name, p.ID, len(tasks), len(sections))

		if err := confirmRemove(cmd, "project "+p.ID); err != nil {
			return err
		}

		ids := make([]string, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		st.ApplyChanges(nil, nil, ids)
		for _, id := range ids {
			syncer.Delete(model.KindTask, id)
		}
		for _, sec := range sections {
			st.RemoveSection(sec.ID)
			syncer.Delete(model.KindSection, sec.ID)
		}
		st.RemoveProject(p.ID)
		syncer.Delete(model.KindProject, p.ID)

		if cfg.DefaultProject == p.ID {
			cfg.DefaultProject = ""
			config.Save(dataDir, cfg)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed project %s\n", p.ID)
		return nil
	},
}

var projectLinkCmd = &cobra.Command{
	Use:   "link [project-id]",
	Short: "Link the current directory to a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var projectID string
		if len(args) == 1 {
			projectID = args[0]
		} else {
			projects := st.Projects()
			if len(projects) == 0 {
				return fmt.Errorf("no projects exist; add one first with: errand project add <name>")
			}
			opts := make([]huh.Option[string], len(projects))
			for i, p := range projects {
				opts[i] = huh.NewOption(fmt.Sprintf("%s  %s", p.ID, p.Name), p.ID)
			}
			if err := huh.NewSelect[string]().
				Title("Select a project").
				Options(opts...).
				Value(&projectID).
				Run(); err != nil {
				return fmt.Errorf("selection cancelled")
			}
		}

		if _, err := findProject(projectID); err != nil {
			return err
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := repofile.Write(cwd, projectID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Linked %s to project %s\n", repofile.FileName, projectID)
		return nil
	},
}

var projectUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Remove the directory-local project link",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		removed, err := repofile.Remove(cwd)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintln(cmd.OutOrStdout(), "No project linked.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Unlinked project.")
		return nil
	},
}

func init() {
	projectAddCmd.Flags().String("color", "", "display color")
	projectAddCmd.Flags().Bool("favorite", false, "mark as favorite")
	projectShowCmd.Flags().Bool("raw", false, "output raw markdown (no ANSI styling)")
	projectShowCmd.Flags().Bool("no-color", false, "alias for --raw")
	projectShowCmd.Flags().Lookup("no-color").Hidden = true
	projectRemoveCmd.Flags().BoolP("force", "f", false, "skip confirmation")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectSetDefaultCmd)
	projectCmd.AddCommand(projectRemoveCmd)
	projectCmd.AddCommand(projectLinkCmd)
	projectCmd.AddCommand(projectUnlinkCmd)
	rootCmd.AddCommand(projectCmd)
}
