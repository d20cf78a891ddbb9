package cmd

import (
	"fmt"
	"io"

	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/store"
	"github.com/spf13/cobra"
)

var searchHeadings = []struct {
	kind  model.Kind
	title string
}{
	{model.KindProject, "Projects"},
	{model.KindSection, "Sections"},
	{model.KindLabel, "Labels"},
	{model.KindTask, "Tasks"},
}

func printResults(w io.Writer, results []store.SearchResult) {
	byKind := make(map[model.Kind][]store.SearchResult)
	for _, r := range results {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}
	for _, h := range searchHeadings {
		rs := byKind[h.kind]
		if len(rs) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d):\n", h.title, len(rs))
		for _, r := range rs {
			fmt.Fprintf(w, "  %s  %s\n", r.ID, r.Title)
			if r.Snippet != "" {
				fmt.Fprintf(w, "    %s\n", r.Snippet)
			}
		}
	}
	fmt.Fprintln(w)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tasks, projects, sections and labels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, _ := cmd.Flags().GetString("project")
		if projectID != "" {
			if _, err := findProject(projectID); err != nil {
				return err
			}
		}
		results := st.Search(args[0], projectID)
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
			return nil
		}
		printResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringP("project", "P", "", "limit tasks and sections to a project")
	rootCmd.AddCommand(searchCmd)
}
