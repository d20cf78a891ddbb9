package cmd

import (
	"fmt"

	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/tree"
	"github.com/spf13/cobra"
)

// danglingRefs lists task references to records the store does not hold.
func danglingRefs() []string {
	var out []string
	for _, t := range st.Items() {
		if t.ProjectID != "" {
			if _, ok := st.Project(t.ProjectID); !ok {
				out = append(out, fmt.Sprintf("task %s: project %s not found", t.ID, t.ProjectID))
			}
		}
		if t.SectionID != "" {
			if sec, ok := st.Section(t.SectionID); !ok {
				out = append(out, fmt.Sprintf("task %s: section %s not found", t.ID, t.SectionID))
			} else if sec.ProjectID != t.ProjectID {
				out = append(out, fmt.Sprintf("task %s: section %s belongs to project %s", t.ID, sec.ID, sec.ProjectID))
			}
		}
		for _, l := range t.Labels {
			if _, ok := st.Label(l); !ok {
				out = append(out, fmt.Sprintf("task %s: label %s not found", t.ID, l))
			}
		}
		if t.ParentID != "" {
			if _, ok := st.Item(t.ParentID); !ok {
				out = append(out, fmt.Sprintf("task %s: parent %s not found", t.ID, t.ParentID))
			}
		}
	}
	for _, sec := range st.Sections() {
		if _, ok := st.Project(sec.ProjectID); !ok {
			out = append(out, fmt.Sprintf("section %s: project %s not found", sec.ID, sec.ProjectID))
		}
	}
	return out
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check index consistency and references",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		stats := st.IndexStats()
		fmt.Fprint(out, markdown.RenderEntityHeader("errand doctor", []string{
			markdown.RenderField("Backend", cfg.Backend),
			markdown.RenderField("Version", fmt.Sprint(st.Version())),
			markdown.RenderField("Tasks", fmt.Sprint(st.Len())),
			markdown.RenderField("Projects", fmt.Sprint(len(st.Projects()))),
			markdown.RenderField("Sections", fmt.Sprint(len(st.Sections()))),
			markdown.RenderField("Labels", fmt.Sprint(len(st.Labels()))),
			markdown.RenderField("Index", fmt.Sprintf("%d project buckets, %d section buckets, %d completed, %d pinned",
				stats.ProjectBuckets, stats.SectionBuckets, stats.Completed, stats.Pinned)),
		}))

		var problems []string
		if err := st.CheckConsistency(); err != nil {
			problems = append(problems, "index: "+err.Error())
		}
		if err := tree.Build(st.Items()).ValidateAcyclic(); err != nil {
			problems = append(problems, "subtasks: "+err.Error())
		}
		problems = append(problems, danglingRefs()...)

		if len(problems) == 0 {
			fmt.Fprintln(out, "No problems found.")
			return nil
		}
		for _, p := range problems {
			fmt.Fprintln(out, "  "+p)
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
