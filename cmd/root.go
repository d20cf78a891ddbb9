package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	mtp "github.com/modeltoolsprotocol/go-sdk"
	"github.com/rogersnm/errand/internal/config"
	"github.com/rogersnm/errand/internal/disk"
	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/persist"
	"github.com/rogersnm/errand/internal/repofile"
	"github.com/rogersnm/errand/internal/sqlite"
	"github.com/rogersnm/errand/internal/store"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	dataDir string
	cfg     *config.Config
	loc     *time.Location
	logger  *slog.Logger
	backend persist.Backend
	syncer  *persist.Syncer
	st      *store.Store
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".errand")
	}
	return filepath.Join(home, ".errand")
}

func now() time.Time {
	return time.Now().In(loc)
}

var rootCmd = &cobra.Command{
	Use:     "errand",
	Short:   "Personal task manager with markdown or SQLite storage",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		for _, f := range []string{filepath.Join(dataDir, ".env"), ".env"} {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", f, err)
			}
		}

		var err error
		cfg, err = config.Load(dataDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if loc, err = cfg.Location(); err != nil {
			return err
		}
		logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		return open(cmd.Context())
	},
	SilenceUsage: true,
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// open connects the configured backend, loads it into a fresh store and
// starts the write-behind syncer.
func open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch cfg.Backend {
	case config.BackendSQLite:
		b, err := sqlite.Open(filepath.Join(dataDir, "errand.db"), logger)
		if err != nil {
			return err
		}
		backend = b
	default:
		b := disk.NewOS(dataDir, logger)
		if err := b.EnsureDirs(); err != nil {
			return err
		}
		backend = b
	}

	st = store.New(
		store.WithClock(now),
		store.WithObserver(store.LogObserver(logger)),
	)
	if err := persist.Load(ctx, backend, st); err != nil {
		backend.Close()
		return fmt.Errorf("loading %s backend: %w", cfg.Backend, err)
	}
	syncer = persist.NewSyncer(context.WithoutCancel(ctx), backend, persist.SyncOptions{
		Retries: cfg.Persist.Retries,
		Backoff: cfg.Persist.Backoff,
		Logger:  logger,
		OnFailure: func(op string, err error) {
			fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", op, err)
		},
	})
	return nil
}

// shutdown drains pending writes and releases the backend.
func shutdown() error {
	if syncer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := syncer.Close(ctx)
	syncer, backend = nil, nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "data directory path")

	mtpOpts := &mtp.DescribeOptions{
		Commands: map[string]*mtp.CommandAnnotation{
			"today": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Table of open tasks due today",
				},
			},
			"task add": {
				Stdin: &mtp.IODescriptor{
					ContentType: "text/markdown",
					Description: "Markdown description for the task",
				},
				Examples: []mtp.Example{
					{Description: "Add a task to the inbox", Command: "errand task add \"Buy milk\""},
					{Description: "Add a task due tomorrow in a project", Command: "errand task add \"Pay rent\" --project PXXXXXX --due tomorrow --priority P1"},
					{Description: "Add a recurring task", Command: "errand task add \"Water plants\" --due 2026-03-14 --every weekly"},
					{Description: "Add a task with piped notes", Command: "echo '- oat milk' | errand task add \"Shopping\" --labels errands"},
				},
			},
			"task done": {
				Examples: []mtp.Example{
					{Description: "Complete a task (recurring tasks roll forward)", Command: "errand task done TXXXXXX"},
				},
			},
			"task update": {
				Stdin: &mtp.IODescriptor{
					ContentType: "text/markdown",
					Description: "New markdown description for the task",
				},
				Examples: []mtp.Example{
					{Description: "Rename a task", Command: "errand task update TXXXXXX --content \"New title\""},
					{Description: "Clear the due date", Command: "errand task update TXXXXXX --due none"},
				},
			},
			"task remove": {
				Examples: []mtp.Example{
					{Description: "Remove a task and its subtasks (interactive confirm)", Command: "errand task remove TXXXXXX"},
					{Description: "Remove without confirming", Command: "errand task remove TXXXXXX --force"},
				},
			},
			"task show": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/markdown",
					Description: "Task fields and description; raw frontmatter markdown with --raw",
				},
			},
			"tree": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "ASCII tree of tasks and their subtasks",
				},
			},
			"search": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Search results grouped by record kind with ID, title, and snippet",
				},
				Examples: []mtp.Example{
					{Description: "Search everything", Command: "errand search \"dentist\""},
				},
			},
			"serve": {
				Examples: []mtp.Example{
					{Description: "Serve the JSON API on the configured address", Command: "errand serve"},
					{Description: "Serve on a different port", Command: "errand serve --addr 127.0.0.1:9000"},
				},
			},
			"project link": {
				Examples: []mtp.Example{
					{Description: "Link current directory to a project", Command: "errand project link PXXXXXX"},
				},
			},
			"project unlink": {
				Examples: []mtp.Example{
					{Description: "Remove the directory-local project link", Command: "errand project unlink"},
				},
			},
		},
	}

	mtp.WithDescribe(rootCmd, mtpOpts)
}

func Execute() error {
	err := rootCmd.Execute()
	if cerr := shutdown(); err == nil {
		err = cerr
	}
	return err
}

// expectKind rejects ids that are malformed or minted for another kind.
func expectKind(s string, want model.Kind) error {
	k, err := id.KindOf(s)
	if err != nil {
		return err
	}
	if k != want {
		return fmt.Errorf("%s is a %s id, not a %s id", s, k, want)
	}
	return nil
}

// resolveProject returns the project id from the flag, the directory link file
// or the configured default, in that order.
func resolveProject(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("project")
	if p != "" {
		return p, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		if rp, _, _ := repofile.Find(cwd); rp != "" {
			return rp, nil
		}
	}
	if cfg != nil && cfg.DefaultProject != "" {
		return cfg.DefaultProject, nil
	}
	return "", fmt.Errorf("--project is required (or set a default with: errand project set-default <id>, or link a directory with: errand project link)")
}

// optionalProject is resolveProject for commands where no project means the inbox.
func optionalProject(cmd *cobra.Command) string {
	p, _ := resolveProject(cmd)
	return p
}

func confirmRemove(cmd *cobra.Command, what string) error {
	if force, _ := cmd.Flags().GetBool("force"); force {
		return nil
	}
	var ok bool
	if err := huh.NewConfirm().
		Title("Remove " + what + "?").
		Affirmative("Remove").
		Negative("Cancel").
		Value(&ok).
		Run(); err != nil {
		return fmt.Errorf("confirmation cancelled")
	}
	if !ok {
		return fmt.Errorf("cancelled")
	}
	return nil
}

func readStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil {
		return ""
	}
	// Only read if stdin is explicitly a pipe (not a terminal, not a socket)
	if info.Mode()&os.ModeNamedPipe == 0 && info.Size() == 0 {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\n")
}

// names maps project and label ids to display names for tables.
func names() markdown.Names {
	n := markdown.Names{
		Projects: make(map[string]string),
		Labels:   make(map[string]string),
	}
	for _, p := range st.Projects() {
		n.Projects[p.ID] = p.Name
	}
	for _, l := range st.Labels() {
		n.Labels[l.ID] = l.Name
	}
	return n
}
