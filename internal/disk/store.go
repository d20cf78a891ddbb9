// Package disk persists records as markdown files with YAML frontmatter, one
// file per record under a directory per kind.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rogersnm/errand/internal/markdown"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/persist"
	"github.com/spf13/afero"
)

var ErrNotFound = errors.New("record not found")

var dirs = map[model.Kind]string{
	model.KindTask:    "tasks",
	model.KindProject: "projects",
	model.KindLabel:   "labels",
	model.KindSection: "sections",
}

// Backend implements persist.Backend on top of an afero filesystem.
type Backend struct {
	fs      afero.Fs
	baseDir string
	log     *slog.Logger
}

var _ persist.Backend = (*Backend)(nil)

func New(fsys afero.Fs, baseDir string, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Backend{fs: fsys, baseDir: baseDir, log: log}
}

// NewOS returns a backend rooted at baseDir on the real filesystem.
func NewOS(baseDir string, log *slog.Logger) *Backend {
	return New(afero.NewOsFs(), baseDir, log)
}

func (b *Backend) BaseDir() string { return b.baseDir }

func (b *Backend) Dir(kind model.Kind) string {
	return filepath.Join(b.baseDir, dirs[kind])
}

// Path returns the file that holds the record. Ids that would escape the
// kind directory are rejected.
func (b *Backend) Path(kind model.Kind, id string) (string, error) {
	if _, ok := dirs[kind]; !ok {
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid %s id %q", kind, id)
	}
	return filepath.Join(b.Dir(kind), id+".md"), nil
}

// EnsureDirs creates the per-kind directories.
func (b *Backend) EnsureDirs() error {
	for _, d := range dirs {
		p := filepath.Join(b.baseDir, d)
		if err := b.fs.MkdirAll(p, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", p, err)
		}
	}
	return nil
}

// WriteEntity writes meta and body to path through a temporary file so a
// concurrent reader never sees half a record.
func (b *Backend) WriteEntity(path string, meta any, body string) error {
	data, err := markdown.Marshal(meta, body)
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent dir: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := afero.WriteFile(b.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := b.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func ReadEntity[T any](fsys afero.Fs, path string) (T, string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		var zero T
		if errors.Is(err, fs.ErrNotExist) {
			return zero, "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return zero, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return markdown.ParseRecord[T](f)
}

// Load reads every record file. Files that fail to parse or validate are
// logged and skipped so one bad file never hides the rest.
func (b *Backend) Load(ctx context.Context) (*persist.Snapshot, error) {
	snap := &persist.Snapshot{}
	var err error
	if snap.Projects, err = loadKind(ctx, b, model.KindProject, func(p *model.Project, body string) {
		p.Description = body
	}); err != nil {
		return nil, err
	}
	if snap.Labels, err = loadKind[model.Label](ctx, b, model.KindLabel, nil); err != nil {
		return nil, err
	}
	if snap.Sections, err = loadKind[model.Section](ctx, b, model.KindSection, nil); err != nil {
		return nil, err
	}
	if snap.Tasks, err = loadKind(ctx, b, model.KindTask, func(t *model.Task, body string) {
		t.Description = body
	}); err != nil {
		return nil, err
	}
	slices.SortStableFunc(snap.Tasks, func(a, c *model.Task) int {
		return a.CreatedAt.Compare(c.CreatedAt)
	})
	return snap, nil
}

func loadKind[T any, P interface {
	*T
	model.Record
}](ctx context.Context, b *Backend, kind model.Kind, withBody func(P, string)) ([]P, error) {
	entries, err := afero.ReadDir(b.fs, b.Dir(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", b.Dir(kind), err)
	}
	var out []P
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !isRecordFile(e.Name()) {
			continue
		}
		path := filepath.Join(b.Dir(kind), e.Name())
		rec, err := readRecord[T, P](b.fs, path, withBody)
		if err != nil {
			b.log.Warn("skipping record file", "path", path, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func readRecord[T any, P interface {
	*T
	model.Record
}](fsys afero.Fs, path string, withBody func(P, string)) (P, error) {
	v, body, err := ReadEntity[T](fsys, path)
	if err != nil {
		return nil, err
	}
	rec := P(&v)
	if withBody != nil {
		withBody(rec, body)
	}
	if err := model.Validate(rec); err != nil {
		return nil, err
	}
	if want := strings.TrimSuffix(filepath.Base(path), ".md"); rec.RecordID() != want {
		return nil, fmt.Errorf("id %q does not match file name", rec.RecordID())
	}
	return rec, nil
}

func isRecordFile(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".")
}

// Read loads a single record. A missing file returns ErrNotFound.
func (b *Backend) Read(kind model.Kind, id string) (model.Record, error) {
	path, err := b.Path(kind, id)
	if err != nil {
		return nil, err
	}
	var rec model.Record
	switch kind {
	case model.KindTask:
		rec, err = readRecord(b.fs, path, func(t *model.Task, body string) { t.Description = body })
	case model.KindProject:
		rec, err = readRecord(b.fs, path, func(p *model.Project, body string) { p.Description = body })
	case model.KindLabel:
		rec, err = readRecord[model.Label](b.fs, path, nil)
	default:
		rec, err = readRecord[model.Section](b.fs, path, nil)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *Backend) Put(ctx context.Context, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := b.Path(rec.RecordKind(), rec.RecordID())
	if err != nil {
		return err
	}
	var body string
	switch r := rec.(type) {
	case *model.Task:
		body = r.Description
	case *model.Project:
		body = r.Description
	}
	if err := b.WriteEntity(path, rec, body); err != nil {
		return fmt.Errorf("writing %s %s: %w", rec.RecordKind(), rec.RecordID(), err)
	}
	return nil
}

// Delete removes the record file. Deleting a missing record succeeds.
func (b *Backend) Delete(ctx context.Context, kind model.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := b.Path(kind, id)
	if err != nil {
		return err
	}
	if err := b.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }
