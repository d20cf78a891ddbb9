package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/model"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage labels",
}

var labelAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimPrefix(args[0], "@")
		if _, ok := st.LabelByName(name); ok {
			return fmt.Errorf("label %s already exists", name)
		}
		l := &model.Label{
			ID:        id.Generate(model.KindLabel),
			Name:      name,
			Order:     len(st.Labels()),
			CreatedAt: now(),
		}
		l.Color, _ = cmd.Flags().GetString("color")
		if err := l.Validate(); err != nil {
			return err
		}
		l = st.AddLabel(l)
		syncer.Put(l)
		fmt.Fprintf(cmd.OutOrStdout(), "Added label %s (%s)\n", l.Name, l.ID)
		return nil
	},
}

var labelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderLabelTable(st.Labels()))
		return nil
	},
}

var labelRemoveCmd = &cobra.Command{
	Use:   "remove <name-or-id>",
	Short: "Remove a label and strip it from every task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, ok := st.Label(args[0])
		if !ok {
			if l, ok = st.LabelByName(strings.TrimPrefix(args[0], "@")); !ok {
				return fmt.Errorf("label %s not found", args[0])
			}
		}
		at := now()
		var stripped []*model.Task
		for _, t := range st.ItemsByLabel(l.ID) {
			c := t.Clone()
			c.Labels = slices.DeleteFunc(c.Labels, func(id string) bool { return id == l.ID })
			c.UpdatedAt = at
			stripped = append(stripped, c)
		}
		st.ApplyChanges(nil, stripped, nil)
		for _, t := range stripped {
			syncer.Put(t)
		}
		st.RemoveLabel(l.ID)
		syncer.Delete(model.KindLabel, l.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Removed label %s from %d task(s)\n", l.Name, len(stripped))
		return nil
	},
}

func init() {
	labelAddCmd.Flags().String("color", "", "display color")

	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelListCmd)
	labelCmd.AddCommand(labelRemoveCmd)
	rootCmd.AddCommand(labelCmd)
}
