// Package sqlite stores records in a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/persist"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	archived INTEGER NOT NULL DEFAULT 0,
	favorite INTEGER NOT NULL DEFAULT 0,
	ord INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS labels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	ord INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	project_id TEXT NOT NULL,
	archived INTEGER NOT NULL DEFAULT 0,
	ord INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	checked INTEGER NOT NULL DEFAULT 0,
	pinned INTEGER NOT NULL DEFAULT 0,
	project_id TEXT NOT NULL DEFAULT '',
	section_id TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	due TEXT,                          -- JSON encoded model.Due
	priority INTEGER NOT NULL DEFAULT 0,
	labels TEXT NOT NULL DEFAULT '[]', -- JSON array of label ids
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	completed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_sections_project ON sections(project_id);
`

type Backend struct {
	db  *sql.DB
	log *slog.Logger
}

var _ persist.Backend = (*Backend)(nil)

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and writes serial.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Backend{db: db, log: log}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) Load(ctx context.Context) (*persist.Snapshot, error) {
	snap := &persist.Snapshot{}
	var err error
	if snap.Projects, err = b.loadProjects(ctx); err != nil {
		return nil, err
	}
	if snap.Labels, err = b.loadLabels(ctx); err != nil {
		return nil, err
	}
	if snap.Sections, err = b.loadSections(ctx); err != nil {
		return nil, err
	}
	if snap.Tasks, err = b.loadTasks(ctx, ""); err != nil {
		return nil, err
	}
	return snap, nil
}

func (b *Backend) Put(ctx context.Context, rec model.Record) error {
	var err error
	switch r := rec.(type) {
	case *model.Task:
		err = b.putTask(ctx, r)
	case *model.Project:
		_, err = b.db.ExecContext(ctx, `
			INSERT INTO projects (id, name, color, description, archived, favorite, ord, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, color = excluded.color, description = excluded.description,
				archived = excluded.archived, favorite = excluded.favorite, ord = excluded.ord,
				updated_at = excluded.updated_at`,
			r.ID, r.Name, r.Color, r.Description, r.Archived, r.Favorite, r.Order,
			formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	case *model.Label:
		_, err = b.db.ExecContext(ctx, `
			INSERT INTO labels (id, name, color, ord, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, color = excluded.color, ord = excluded.ord`,
			r.ID, r.Name, r.Color, r.Order, formatTime(r.CreatedAt))
	case *model.Section:
		_, err = b.db.ExecContext(ctx, `
			INSERT INTO sections (id, name, project_id, archived, ord, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, project_id = excluded.project_id,
				archived = excluded.archived, ord = excluded.ord`,
			r.ID, r.Name, r.ProjectID, r.Archived, r.Order, formatTime(r.CreatedAt))
	default:
		return fmt.Errorf("unsupported record type %T", rec)
	}
	if err != nil {
		return classify(fmt.Errorf("put %s %s: %w", rec.RecordKind(), rec.RecordID(), err))
	}
	return nil
}

func (b *Backend) putTask(ctx context.Context, t *model.Task) error {
	var due sql.NullString
	if t.Due != nil {
		data, err := json.Marshal(t.Due)
		if err != nil {
			return fmt.Errorf("encode due: %w", err)
		}
		due = sql.NullString{String: string(data), Valid: true}
	}
	labels, err := json.Marshal(nonNil(t.Labels))
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	var completed sql.NullString
	if t.CompletedAt != nil {
		completed = sql.NullString{String: formatTime(*t.CompletedAt), Valid: true}
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO tasks (id, content, description, checked, pinned, project_id, section_id, parent_id,
			due, priority, labels, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content, description = excluded.description,
			checked = excluded.checked, pinned = excluded.pinned,
			project_id = excluded.project_id, section_id = excluded.section_id, parent_id = excluded.parent_id,
			due = excluded.due, priority = excluded.priority, labels = excluded.labels,
			updated_at = excluded.updated_at, completed_at = excluded.completed_at`,
		t.ID, t.Content, t.Description, t.Checked, t.Pinned, t.ProjectID, t.SectionID, t.ParentID,
		due, int(t.Priority), string(labels), formatTime(t.CreatedAt), formatTime(t.UpdatedAt), completed)
	return err
}

var tables = map[model.Kind]string{
	model.KindTask:    "tasks",
	model.KindProject: "projects",
	model.KindLabel:   "labels",
	model.KindSection: "sections",
}

// Delete removes a row. Deleting a missing row succeeds.
func (b *Backend) Delete(ctx context.Context, kind model.Kind, id string) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if _, err := b.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return classify(fmt.Errorf("delete %s %s: %w", kind, id, err))
	}
	return nil
}

// Task reads one task row.
func (b *Backend) Task(ctx context.Context, id string) (*model.Task, error) {
	tasks, err := b.loadTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return tasks[0], nil
}

func (b *Backend) loadTasks(ctx context.Context, id string) ([]*model.Task, error) {
	q := `SELECT id, content, description, checked, pinned, project_id, section_id, parent_id,
		due, priority, labels, created_at, updated_at, completed_at FROM tasks`
	var args []any
	if id != "" {
		q += " WHERE id = ?"
		args = append(args, id)
	}
	rows, err := b.db.QueryContext(ctx, q+" ORDER BY rowid", args...)
	if err != nil {
		return nil, classify(fmt.Errorf("query tasks: %w", err))
	}
	defer rows.Close()

	var out []*model.Task
	for rows.Next() {
		var (
			t                model.Task
			priority         int
			due, completed   sql.NullString
			labels           string
			created, updated string
		)
		if err := rows.Scan(&t.ID, &t.Content, &t.Description, &t.Checked, &t.Pinned,
			&t.ProjectID, &t.SectionID, &t.ParentID, &due, &priority, &labels,
			&created, &updated, &completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Priority = model.Priority(priority)
		if due.Valid {
			t.Due = &model.Due{}
			if err := json.Unmarshal([]byte(due.String), t.Due); err != nil {
				b.log.Warn("skipping task with bad due", "id", t.ID, "error", err)
				continue
			}
		}
		if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
			b.log.Warn("skipping task with bad labels", "id", t.ID, "error", err)
			continue
		}
		if len(t.Labels) == 0 {
			t.Labels = nil
		}
		t.CreatedAt = parseTime(created)
		t.UpdatedAt = parseTime(updated)
		if completed.Valid {
			at := parseTime(completed.String)
			t.CompletedAt = &at
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

func (b *Backend) loadProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, name, color, description, archived, favorite, ord,
		created_at, updated_at FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, classify(fmt.Errorf("query projects: %w", err))
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		var p model.Project
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &p.Description, &p.Archived, &p.Favorite,
			&p.Order, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = parseTime(created)
		p.UpdatedAt = parseTime(updated)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (b *Backend) loadLabels(ctx context.Context) ([]*model.Label, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, name, color, ord, created_at FROM labels ORDER BY rowid`)
	if err != nil {
		return nil, classify(fmt.Errorf("query labels: %w", err))
	}
	defer rows.Close()

	var out []*model.Label
	for rows.Next() {
		var l model.Label
		var created string
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.Order, &created); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		l.CreatedAt = parseTime(created)
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return out, nil
}

func (b *Backend) loadSections(ctx context.Context) ([]*model.Section, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, name, project_id, archived, ord, created_at
		FROM sections ORDER BY rowid`)
	if err != nil {
		return nil, classify(fmt.Errorf("query sections: %w", err))
	}
	defer rows.Close()

	var out []*model.Section
	for rows.Next() {
		var s model.Section
		var created string
		if err := rows.Scan(&s.ID, &s.Name, &s.ProjectID, &s.Archived, &s.Order, &created); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.CreatedAt = parseTime(created)
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}

// classify marks busy and locked database errors as transient.
func classify(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return persist.Transient(err)
		}
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
