package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rogersnm/errand/internal/editor"
	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/model"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

// parseDue accepts "today", "tomorrow", a date, a date and time, or RFC 3339.
// Dates without a time are all-day.
func parseDue(s string) (*model.Due, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "today":
		y, m, d := now().Date()
		return &model.Due{Date: time.Date(y, m, d, 0, 0, 0, 0, loc)}, nil
	case "tomorrow":
		y, m, d := now().AddDate(0, 0, 1).Date()
		return &model.Due{Date: time.Date(y, m, d, 0, 0, 0, 0, loc)}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return &model.Due{Date: t}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return &model.Due{Date: t, HasTime: true}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &model.Due{Date: t, HasTime: true}, nil
	}
	return nil, fmt.Errorf("invalid due date %q: use today, tomorrow, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"", s)
}

// dueFromFlags builds the due date from --due, --every and --interval. It
// returns nil when --due was not given.
func dueFromFlags(cmd *cobra.Command) (*model.Due, error) {
	dueStr, _ := cmd.Flags().GetString("due")
	every, _ := cmd.Flags().GetString("every")
	if dueStr == "" {
		if every != "" {
			return nil, fmt.Errorf("--every needs --due for the first occurrence")
		}
		return nil, nil
	}
	due, err := parseDue(dueStr)
	if err != nil {
		return nil, err
	}
	if every != "" {
		due.Recurring = true
		due.Recurrence = model.Recurrence(strings.ToLower(every))
		due.Interval, _ = cmd.Flags().GetInt("interval")
		if n, _ := cmd.Flags().GetInt("count"); n > 0 {
			due.End.Count = n
		}
	}
	return due, nil
}

// labelIDs maps comma-separated label names to distinct ids. Names with no label yet
// get a fresh one in created, which the caller hands to publish; nothing is
// stored here.
func labelIDs(csv string) (ids []string, created []*model.Label) {
	fresh := make(map[string]*model.Label)
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if name == "" {
			continue
		}
		l, ok := st.LabelByName(name)
		if !ok {
			if l, ok = fresh[name]; !ok {
				l = &model.Label{ID: id.Generate(model.KindLabel), Name: name, CreatedAt: now()}
				fresh[name] = l
				created = append(created, l)
			}
		}
		if !slices.Contains(ids, l.ID) {
			ids = append(ids, l.ID)
		}
	}
	return ids, created
}

func findTask(id string) (*model.Task, error) {
	if err := expectKind(id, model.KindTask); err != nil {
		return nil, err
	}
	t, ok := st.Item(id)
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return t, nil
}

// publish checks t against the store, then stores and persists it. Labels in
// created count as present for the check and are stored only once it passes.
func publish(t *model.Task, created ...*model.Label) (*model.Task, error) {
	check := t
	if len(created) > 0 {
		check = t.Clone()
		check.Labels = slices.DeleteFunc(check.Labels, func(lid string) bool {
			return slices.ContainsFunc(created, func(l *model.Label) bool { return l.ID == lid })
		})
	}
	if err := st.CheckTask(check); err != nil {
		return nil, err
	}
	for _, l := range created {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	for _, l := range created {
		syncer.Put(st.AddLabel(l))
	}
	t = st.UpdateItem(t)
	syncer.Put(t)
	return t, nil
}

var taskAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Add a new task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at := now()
		t := &model.Task{
			ID:          id.Generate(model.KindTask),
			Content:     args[0],
			Description: readStdin(),
			CreatedAt:   at,
			UpdatedAt:   at,
		}
		t.ProjectID = optionalProject(cmd)
		t.SectionID, _ = cmd.Flags().GetString("section")
		t.ParentID, _ = cmd.Flags().GetString("parent")
		t.Pinned, _ = cmd.Flags().GetBool("pin")

		if t.ParentID != "" && !cmd.Flags().Changed("project") {
			if parent, ok := st.Item(t.ParentID); ok {
				t.ProjectID, t.SectionID = parent.ProjectID, parent.SectionID
			}
		}

		pStr, _ := cmd.Flags().GetString("priority")
		p, err := model.ParsePriority(pStr)
		if err != nil {
			return err
		}
		t.Priority = p

		if t.Due, err = dueFromFlags(cmd); err != nil {
			return err
		}
		var created []*model.Label
		if csv, _ := cmd.Flags().GetString("labels"); csv != "" {
			t.Labels, created = labelIDs(csv)
		}

		if t, err = publish(t, created...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s)\n", t.Content, t.ID)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, _ := cmd.Flags().GetString("project")
		sectionID, _ := cmd.Flags().GetString("section")
		labelName, _ := cmd.Flags().GetString("label")
		all, _ := cmd.Flags().GetBool("all")

		var tasks []*model.Task
		switch {
		case sectionID != "":
			tasks = st.ItemsBySection(sectionID)
		case projectID != "":
			tasks = st.ItemsByProject(projectID)
		default:
			tasks = st.Items()
		}
		if labelName != "" {
			l, ok := st.LabelByName(strings.TrimPrefix(labelName, "@"))
			if !ok {
				return fmt.Errorf("label %s not found", labelName)
			}
			tasks = keep(tasks, func(t *model.Task) bool { return t.HasLabel(l.ID) })
		}
		if !all {
			tasks = keep(tasks, func(t *model.Task) bool { return !t.Checked })
		}
		fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderTaskTable(tasks, names(), now()))
		return nil
	},
}

func keep(tasks []*model.Task, f func(*model.Task) bool) []*model.Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if f(t) {
			out = append(out, t)
		}
	}
	return out
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := findTask(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			data, err := markdown.Marshal(t, t.Description)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		}

		n := names()
		fields := []string{
			markdown.RenderField("ID", t.ID),
			markdown.RenderField("Status", markdown.RenderChecked(t.Checked, !t.Checked && t.IsOverdue(now()))),
		}
		if t.ProjectID != "" {
			fields = append(fields, markdown.RenderField("Project", n.Projects[t.ProjectID]+" ("+t.ProjectID+")"))
		}
		if sec, ok := st.Section(t.SectionID); ok {
			fields = append(fields, markdown.RenderField("Section", sec.Name))
		}
		if t.ParentID != "" {
			fields = append(fields, markdown.RenderField("Parent", t.ParentID))
		}
		if t.Priority != model.PriorityNone {
			fields = append(fields, markdown.RenderField("Priority", model.FormatPriority(t.Priority)))
		}
		if t.HasDue() {
			fields = append(fields, markdown.RenderField("Due", markdown.FormatDue(t.Due)))
		}
		if len(t.Labels) > 0 {
			ls := make([]string, len(t.Labels))
			for i, id := range t.Labels {
				ls[i] = "@" + n.Labels[id]
			}
			fields = append(fields, markdown.RenderField("Labels", strings.Join(ls, " ")))
		}
		if t.Pinned {
			fields = append(fields, markdown.RenderField("Pinned", "yes"))
		}
		fields = append(fields,
			markdown.RenderField("Created", t.CreatedAt.Format("2006-01-02 15:04:05")),
			markdown.RenderField("Updated", t.UpdatedAt.Format("2006-01-02 15:04:05")),
		)
		if t.CompletedAt != nil {
			fields = append(fields, markdown.RenderField("Completed", t.CompletedAt.Format("2006-01-02 15:04:05")))
		}

		fmt.Fprint(out, markdown.RenderEntityHeader(t.Content, fields))
		if t.Description != "" {
			rendered, err := markdown.RenderMarkdown(t.Description)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		}

		if subs := st.SubItems(t.ID); len(subs) > 0 {
			fmt.Fprintln(out, "\nSubtasks:")
			fmt.Fprintln(out, markdown.RenderTaskTable(subs, n, now()))
		}
		return nil
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := findTask(args[0])
		if err != nil {
			return err
		}
		t := cur.Clone()
		changed := false
		var created []*model.Label

		if cmd.Flags().Changed("content") {
			t.Content, _ = cmd.Flags().GetString("content")
			changed = true
		}
		if cmd.Flags().Changed("priority") {
			pStr, _ := cmd.Flags().GetString("priority")
			if t.Priority, err = model.ParsePriority(pStr); err != nil {
				return err
			}
			changed = true
		}
		if cmd.Flags().Changed("due") {
			if d, _ := cmd.Flags().GetString("due"); d == "none" {
				t.Due = nil
			} else if t.Due, err = dueFromFlags(cmd); err != nil {
				return err
			}
			changed = true
		}
		if cmd.Flags().Changed("labels") {
			csv, _ := cmd.Flags().GetString("labels")
			t.Labels, created = labelIDs(csv)
			changed = true
		}
		if cmd.Flags().Changed("parent") {
			t.ParentID, _ = cmd.Flags().GetString("parent")
			changed = true
		}
		if body := readStdin(); body != "" {
			t.Description = body
			changed = true
		}
		if !changed {
			return fmt.Errorf("at least one update flag or piped description is required (--content, --priority, --due, --labels, --parent, stdin)")
		}

		t.UpdatedAt = now()
		if t, err = publish(t, created...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", t.ID)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Complete a task; recurring tasks move to their next date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := findTask(args[0])
		if err != nil {
			return err
		}
		next, rolled := cur.Complete(now())
		t, err := publish(next)
		if err != nil {
			return err
		}
		if rolled {
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s rescheduled to %s\n", t.ID, markdown.FormatDue(t.Due))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", t.ID)
		return nil
	},
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Reopen a completed task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := findTask(args[0])
		if err != nil {
			return err
		}
		t, err := publish(cur.WithChecked(false, now()))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reopened task %s\n", t.ID)
		return nil
	},
}

func pinCmd(pinned bool) *cobra.Command {
	use, short, verb := "pin <id>", "Pin a task", "Pinned"
	if !pinned {
		use, short, verb = "unpin <id>", "Unpin a task", "Unpinned"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := findTask(args[0])
			if err != nil {
				return err
			}
			t, err := publish(cur.WithPinned(pinned, now()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task %s\n", verb, t.ID)
			return nil
		},
	}
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Move a task and its subtasks to another project or section",
	Long:  "Move a task and its subtasks. With no --project the tasks go to the inbox.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := findTask(args[0])
		if err != nil {
			return err
		}
		projectID, _ := cmd.Flags().GetString("project")
		sectionID, _ := cmd.Flags().GetString("section")
		if sec, ok := st.Section(sectionID); ok && projectID == "" {
			projectID = sec.ProjectID
		}

		at := now()
		moved := []*model.Task{cur.WithProject(projectID, sectionID, at)}
		if err := st.CheckTask(moved[0]); err != nil {
			return err
		}
		for _, id := range st.Descendants(cur.ID) {
			sub, _ := st.Item(id)
			moved = append(moved, sub.WithProject(projectID, sectionID, at))
		}
		st.ApplyChanges(nil, moved, nil)
		for _, t := range moved {
			syncer.Put(t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %d task(s)\n", len(moved))
		return nil
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a task and its subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := findTask(args[0])
		if err != nil {
			return err
		}
		ids := append([]string{t.ID}, st.Descendants(t.ID)...)
		fmt.Fprintf(cmd.OutOrStdout(), "Task: %s (%s), %d subtasks\n", t.Content, t.ID, len(ids)-1)
		if err := confirmRemove(cmd, "task "+t.ID); err != nil {
			return err
		}
		st.ApplyChanges(nil, nil, ids)
		for _, id := range ids {
			syncer.Delete(model.KindTask, id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", t.ID)
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task in $EDITOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := findTask(args[0])
		if err != nil {
			return err
		}
		data, err := markdown.Marshal(cur, cur.Description)
		if err != nil {
			return err
		}
		f, err := os.CreateTemp("", "errand-"+cur.ID+"-*.md")
		if err != nil {
			return err
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		if err := editor.Open(cmd.Context(), f.Name()); err != nil {
			return err
		}

		edited, err := os.Open(f.Name())
		if err != nil {
			return err
		}
		defer edited.Close()
		t, body, err := markdown.Parse[model.Task](edited)
		if err != nil {
			return fmt.Errorf("parsing edited task: %w", err)
		}
		if t.ID != cur.ID {
			return fmt.Errorf("task id cannot be changed (%s to %s)", cur.ID, t.ID)
		}
		t.Description = body
		t.UpdatedAt = now()
		if _, err := publish(&t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", t.ID)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringP("project", "P", "", "project ID (default: linked or default project, else inbox)")
	taskAddCmd.Flags().String("section", "", "section ID")
	taskAddCmd.Flags().String("parent", "", "parent task ID")
	taskAddCmd.Flags().StringP("due", "d", "", "due date (today, tomorrow, YYYY-MM-DD, \"YYYY-MM-DD HH:MM\")")
	taskAddCmd.Flags().String("every", "", "repeat (minutely, hourly, daily, weekly, monthly, yearly)")
	taskAddCmd.Flags().Int("interval", 1, "repeat every N periods")
	taskAddCmd.Flags().Int("count", 0, "stop repeating after N occurrences")
	taskAddCmd.Flags().StringP("priority", "p", "", "priority (P1 urgent to P4)")
	taskAddCmd.Flags().StringP("labels", "l", "", "comma-separated label names")
	taskAddCmd.Flags().Bool("pin", false, "pin the task")

	taskListCmd.Flags().StringP("project", "P", "", "filter by project")
	taskListCmd.Flags().String("section", "", "filter by section")
	taskListCmd.Flags().StringP("label", "l", "", "filter by label name")
	taskListCmd.Flags().BoolP("all", "a", false, "include completed tasks")

	taskShowCmd.Flags().Bool("raw", false, "output raw markdown (no ANSI styling)")

	taskUpdateCmd.Flags().String("content", "", "new content")
	taskUpdateCmd.Flags().StringP("priority", "p", "", "priority (P1 to P4, or - to clear)")
	taskUpdateCmd.Flags().StringP("due", "d", "", "due date, or none to clear")
	taskUpdateCmd.Flags().String("every", "", "repeat (minutely, hourly, daily, weekly, monthly, yearly)")
	taskUpdateCmd.Flags().Int("interval", 1, "repeat every N periods")
	taskUpdateCmd.Flags().Int("count", 0, "stop repeating after N occurrences")
	taskUpdateCmd.Flags().StringP("labels", "l", "", "comma-separated label names (replaces existing)")
	taskUpdateCmd.Flags().String("parent", "", "parent task ID (empty to detach)")

	taskMoveCmd.Flags().StringP("project", "P", "", "target project ID")
	taskMoveCmd.Flags().String("section", "", "target section ID")

	taskRemoveCmd.Flags().BoolP("force", "f", false, "skip confirmation")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskUndoCmd)
	taskCmd.AddCommand(pinCmd(true))
	taskCmd.AddCommand(pinCmd(false))
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskRemoveCmd)
	taskCmd.AddCommand(taskEditCmd)
	rootCmd.AddCommand(taskCmd)
}
