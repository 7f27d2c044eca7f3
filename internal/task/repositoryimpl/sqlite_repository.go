package repositoryimpl

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tasknest/tasknest/internal/task"
	"github.com/tasknest/tasknest/pkg/cerr"
)

//go:embed schema.sql
var schema string

// SQLiteRepository stores tasks in a single sqlite table. Subtasks and tags
// are kept as JSON columns; the record is always replaced as a whole, so
// nothing ever queries into them.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, t *task.Task) error {
	subtasks, tags, err := encodeLists(t)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, subtasks, tags, deadline, priority, original_task_description, image_url, creation_date, edit_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, subtasks, tags, t.Deadline, string(t.Priority), t.OriginalTaskDescription, t.ImageURL, t.CreationDate, t.EditDate)
	if err != nil {
		if isUniqueViolation(err) {
			return cerr.NewError(cerr.AlreadyExists, "task already exists", err)
		}
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert task: %w", err))
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, subtasks, tags, deadline, priority, original_task_description, image_url, creation_date, edit_date
		FROM tasks WHERE id = ?
	`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cerr.NewError(cerr.NotFound, "task not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read task: %w", err))
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context, priority task.Priority, tag string, limit, offset int) ([]*task.Task, int, error) {
	query := `
		SELECT id, title, subtasks, tags, deadline, priority, original_task_description, image_url, creation_date, edit_date
		FROM tasks
	`
	var args []any
	if priority != "" {
		query += " WHERE priority = ?"
		args = append(args, string(priority))
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list tasks: %w", err))
	}
	defer rows.Close()

	var all []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to scan task: %w", err))
		}
		if tag != "" && !hasTag(t, tag) {
			continue
		}
		all = append(all, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list tasks: %w", err))
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t *task.Task) error {
	subtasks, tags, err := encodeLists(t)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, subtasks = ?, tags = ?, deadline = ?, priority = ?, original_task_description = ?, image_url = ?, creation_date = ?, edit_date = ?
		WHERE id = ?
	`, t.Title, subtasks, tags, t.Deadline, string(t.Priority), t.OriginalTaskDescription, t.ImageURL, t.CreationDate, t.EditDate, t.ID)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to update task: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to update task: %w", err))
	}
	if affected == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete task: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete task: %w", err))
	}
	if affected == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func encodeLists(t *task.Task) (subtasks, tags []byte, err error) {
	subtasks, err = json.Marshal(t.Subtasks)
	if err != nil {
		return nil, nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal subtasks: %w", err))
	}
	tags, err = json.Marshal(t.Tags)
	if err != nil {
		return nil, nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal tags: %w", err))
	}
	return subtasks, tags, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		t        task.Task
		subtasks []byte
		tags     []byte
		deadline sql.NullTime
		editDate sql.NullTime
		priority string
	)
	err := row.Scan(&t.ID, &t.Title, &subtasks, &tags, &deadline, &priority, &t.OriginalTaskDescription, &t.ImageURL, &t.CreationDate, &editDate)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subtasks: %w", err)
	}
	if err := json.Unmarshal(tags, &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	t.Priority = task.Priority(priority)
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	if editDate.Valid {
		e := editDate.Time
		t.EditDate = &e
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	// Matching on the message keeps the driver's error types out of the
	// error path.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
