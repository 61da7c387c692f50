// Package sqlite provides the embedded SQLite store backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"socialmedia/internal/store"
	"socialmedia/internal/store/sqlite/migrations"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists users and posts in a SQLite file.
type Store struct {
	sqlDB *sql.DB
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single writer connection keeps SQLITE_BUSY out of request paths
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) CreateUser(ctx context.Context, u store.NewUser) (store.User, error) {
	now := time.Now()
	out := store.User{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    fromMillis(toMillis(now)),
	}
	err := s.sqlDB.QueryRowContext(ctx, `
		INSERT INTO users (username, email, hashed_password, is_admin, created_at)
		VALUES (?, ?, ?, (? OR (? AND NOT EXISTS (SELECT 1 FROM users))), ?)
		RETURNING id, is_admin
	`, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.AdminIfFirst, toMillis(now)).Scan(&out.ID, &out.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return store.User{}, store.ErrDuplicate
		}
		return store.User{}, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

const userColumns = `id, username, email, hashed_password, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (store.User, error) {
	var (
		u       store.User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, store.ErrNotFound
		}
		return store.User{}, err
	}
	u.CreatedAt = fromMillis(created)
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (store.User, error) {
	return scanUser(s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (store.User, error) {
	return scanUser(s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetAdmin(ctx context.Context, username string, admin bool) error {
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE username = ?`, admin, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p store.NewPost) (store.Post, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return store.Post{}, err
	}
	defer tx.Rollback()

	out := store.Post{
		UserID:    p.UserID,
		Content:   p.Content,
		ImagePath: p.ImagePath,
	}
	if err := tx.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, p.UserID).Scan(&out.Author); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, store.ErrNotFound
		}
		return store.Post{}, err
	}

	now := toMillis(time.Now())
	var image sql.NullString
	if p.ImagePath != "" {
		image = sql.NullString{String: p.ImagePath, Valid: true}
	}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO posts (content, image_path, created_at, user_id)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, p.Content, image, now, p.UserID).Scan(&out.ID); err != nil {
		return store.Post{}, fmt.Errorf("insert post: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return store.Post{}, err
	}
	out.CreatedAt = fromMillis(now)
	return out, nil
}

const postQuery = `
	SELECT p.id, p.user_id, u.username, p.content, p.image_path, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

func (s *Store) PostsByUser(ctx context.Context, userID int64) ([]store.Post, error) {
	return s.queryPosts(ctx, postQuery+` WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC`, userID)
}

func (s *Store) RecentPosts(ctx context.Context, limit int) ([]store.Post, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	return s.queryPosts(ctx, postQuery+` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit)
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]store.Post, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Post
	for rows.Next() {
		var (
			p       store.Post
			image   sql.NullString
			created int64
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Author, &p.Content, &image, &created); err != nil {
			return nil, err
		}
		p.ImagePath = image.String
		p.CreatedAt = fromMillis(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

const migrationTable = "schema_migrations"

// applyMigrations executes each embedded .sql file at most once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var found int
		err := sqlDB.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, f).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		body, err := fs.ReadFile(migrationFS, f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", f, err)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			f, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}
