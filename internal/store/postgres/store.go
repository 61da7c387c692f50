// Package postgres implements store.Store on a pgx connection pool.
// The schema is owned by internal/dbinit.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"socialmedia/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) Close() error {
	s.DB.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) CreateUser(ctx context.Context, u store.NewUser) (store.User, error) {
	out := store.User{Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash}
	err := s.DB.QueryRow(ctx, `
		insert into users (username, email, hashed_password, is_admin)
		values ($1, $2, $3, $4 or ($5 and not exists (select 1 from users)))
		returning id, is_admin, created_at
	`, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.AdminIfFirst).Scan(&out.ID, &out.IsAdmin, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.User{}, store.ErrDuplicate
		}
		return store.User{}, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

const userColumns = `id, username, email, hashed_password, is_admin, created_at`

func scanUser(row pgx.Row) (store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	return u, err
}

func (s *Store) UserByID(ctx context.Context, id int64) (store.User, error) {
	return scanUser(s.DB.QueryRow(ctx, `select `+userColumns+` from users where id = $1`, id))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (store.User, error) {
	return scanUser(s.DB.QueryRow(ctx, `select `+userColumns+` from users where username = $1`, username))
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}

func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.DB.Query(ctx, `select `+userColumns+` from users order by id`)
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
	tag, err := s.DB.Exec(ctx, `update users set is_admin = $2 where username = $1`, username, admin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p store.NewPost) (store.Post, error) {
	out := store.Post{UserID: p.UserID, Content: p.Content, ImagePath: p.ImagePath}
	var image *string
	if p.ImagePath != "" {
		image = &p.ImagePath
	}
	err := s.DB.QueryRow(ctx, `
		with ins as (
			insert into posts (content, image_path, user_id)
			select $1, $2, u.id from users u where u.id = $3
			returning id, user_id, created_at
		)
		select ins.id, ins.created_at, u.username
		from ins join users u on u.id = ins.user_id
	`, p.Content, image, p.UserID).Scan(&out.ID, &out.CreatedAt, &out.Author)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Post{}, store.ErrNotFound
	}
	if err != nil {
		return store.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return out, nil
}

const postQuery = `
	select p.id, p.user_id, u.username, p.content, coalesce(p.image_path, ''), p.created_at
	from posts p
	join users u on u.id = p.user_id
`

func (s *Store) PostsByUser(ctx context.Context, userID int64) ([]store.Post, error) {
	return s.queryPosts(ctx, postQuery+` where p.user_id = $1 order by p.created_at desc, p.id desc`, userID)
}

func (s *Store) RecentPosts(ctx context.Context, limit int) ([]store.Post, error) {
	if limit <= 0 {
		return s.queryPosts(ctx, postQuery+` order by p.created_at desc, p.id desc`)
	}
	return s.queryPosts(ctx, postQuery+` order by p.created_at desc, p.id desc limit $1`, limit)
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]store.Post, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Post
	for rows.Next() {
		var p store.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Author, &p.Content, &p.ImagePath, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
