package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"remindbot/internal/reminder"
	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const reminderColumns = `id, owner_id, text, scheduled_time, timezone, is_recurring,
	recurrence_pattern, category, status, is_paused, is_completed, kind, created_at, last_updated`

func (s *sqliteStore) Create(ctx context.Context, r *reminder.Reminder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(`+reminderColumns+`)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.OwnerID, r.Text, r.ScheduledTime.UnixMilli(), r.Timezone, r.IsRecurring,
		nullStr(r.RecurrencePattern), string(r.Category), string(r.Status),
		r.IsPaused, r.IsCompleted, string(r.Kind),
		r.CreatedAt.UnixMilli(), r.LastUpdated.UnixMilli(),
	)
	return err
}

func (s *sqliteStore) GetByID(ctx context.Context, id string) (*reminder.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *sqliteStore) Find(ctx context.Context, f Filter, sort Sort, limit int) ([]*reminder.Reminder, error) {
	where, args := buildWhere(f)
	q := `SELECT ` + reminderColumns + ` FROM reminders` + where
	switch sort {
	case SortByScheduledTime:
		q += ` ORDER BY scheduled_time ASC`
	case SortByCreatedDesc:
		q += ` ORDER BY created_at DESC`
	}
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reminder.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Update(ctx context.Context, r *reminder.Reminder) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET owner_id=?, text=?, scheduled_time=?, timezone=?,
		 is_recurring=?, recurrence_pattern=?, category=?, status=?,
		 is_paused=?, is_completed=?, kind=?, last_updated=?
		 WHERE id=?`,
		r.OwnerID, r.Text, r.ScheduledTime.UnixMilli(), r.Timezone,
		r.IsRecurring, nullStr(r.RecurrencePattern), string(r.Category), string(r.Status),
		r.IsPaused, r.IsCompleted, string(r.Kind), r.LastUpdated.UnixMilli(),
		r.ID,
	)
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *sqliteStore) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	where, args := buildWhere(f)
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders`+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*reminder.Reminder, error) {
	var (
		r                         reminder.Reminder
		pattern                   sql.NullString
		schedMS, createdMS, updMS int64
		category, status, kind    string
	)
	err := row.Scan(&r.ID, &r.OwnerID, &r.Text, &schedMS, &r.Timezone, &r.IsRecurring,
		&pattern, &category, &status, &r.IsPaused, &r.IsCompleted, &kind, &createdMS, &updMS)
	if err != nil {
		return nil, err
	}
	r.ScheduledTime = time.UnixMilli(schedMS)
	r.CreatedAt = time.UnixMilli(createdMS)
	r.LastUpdated = time.UnixMilli(updMS)
	r.RecurrencePattern = pattern.String
	r.Category = reminder.Category(category)
	r.Status = reminder.Status(status)
	r.Kind = reminder.Kind(kind)
	return &r, nil
}

func buildWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.StatusNot != "" {
		conds = append(conds, "status != ?")
		args = append(args, string(f.StatusNot))
	}
	if f.Completed != nil {
		conds = append(conds, "is_completed = ?")
		args = append(args, *f.Completed)
	}
	if f.Paused != nil {
		conds = append(conds, "is_paused = ?")
		args = append(args, *f.Paused)
	}
	if !f.ScheduledFrom.IsZero() {
		conds = append(conds, "scheduled_time >= ?")
		args = append(args, f.ScheduledFrom.UnixMilli())
	}
	if !f.ScheduledUntil.IsZero() {
		conds = append(conds, "scheduled_time <= ?")
		args = append(args, f.ScheduledUntil.UnixMilli())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
