package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"reelcast/internal/project"
)

// Store implements project.Store on a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ project.Store = (*Store)(nil)

// Open connects to the database for dialect and applies pending migrations.
// For sqlite, dsn is a file path whose parent directory is created.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("sqlstore: dsn is required")
	}
	if dialect == SQLite {
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}

	store := New(db, dialect)
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection pool without running migrations.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// SetClock overrides the timestamp source used by Update.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, p *project.Project) error {
	if p == nil || p.ID == "" {
		return errors.New("project id is required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	query := s.dialect.rebind(`INSERT INTO projects (id, status, current_step, created_at, updated_at, payload)
VALUES (?, ?, ?, ?, ?, ?)`)
	err = s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query,
			p.ID, string(p.Status), string(p.CurrentStep),
			p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano(), string(payload))
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*project.Project, bool, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT payload FROM projects WHERE id = ?"), id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, true, nil
}

func (s *Store) Update(ctx context.Context, id string, patch project.Patch) (*project.Project, bool, error) {
	var (
		updated *project.Project
		found   bool
	)
	err := s.withRetry(ctx, func() error {
		var txErr error
		updated, found, txErr = s.updateTx(ctx, id, patch)
		return txErr
	})
	if err != nil {
		return nil, false, fmt.Errorf("update project %s: %w", id, err)
	}
	return updated, found, nil
}

func (s *Store) updateTx(ctx context.Context, id string, patch project.Patch) (*project.Project, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, s.dialect.rebind("SELECT payload FROM projects WHERE id = ?"+s.dialect.selectForUpdate()), id)
	current, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	patch.Apply(current, s.now())
	payload, err := json.Marshal(current)
	if err != nil {
		return nil, false, fmt.Errorf("encode project: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		s.dialect.rebind("UPDATE projects SET status = ?, current_step = ?, updated_at = ?, payload = ? WHERE id = ?"),
		string(current.Status), string(current.CurrentStep), current.UpdatedAt.UnixNano(), string(payload), id,
	); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return current, true, nil
}

func (s *Store) List(ctx context.Context, opts project.ListOptions) ([]*project.Project, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT payload FROM projects")
	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		b.WriteString(" WHERE status IN (" + strings.Join(placeholders, ", ") + ")")
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if opts.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := s.withRetry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM projects WHERE id = ?"), id)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("delete project %s: %w", id, err)
	}
	return affected > 0, nil
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var affected int64
	err := s.withRetry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM projects WHERE updated_at < ?"), cutoff.UnixNano())
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("delete projects before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}
	var p project.Project
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode project payload: %w", err)
	}
	return &p, nil
}
