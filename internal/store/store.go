// Package store defines the persistence contract for accounts and posts.
// Backends live in the postgres and sqlite subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("username or email already registered")
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

type Post struct {
	ID        int64
	UserID    int64
	Author    string // username of UserID
	Content   string
	ImagePath string // "" when the post has no image
	CreatedAt time.Time
}

type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	// AdminIfFirst grants admin when the users table is empty at insert time.
	AdminIfFirst bool
}

type NewPost struct {
	UserID    int64
	Content   string
	ImagePath string
}

type Store interface {
	CreateUser(ctx context.Context, u NewUser) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetAdmin(ctx context.Context, username string, admin bool) error

	CreatePost(ctx context.Context, p NewPost) (Post, error)
	// PostsByUser returns the user's posts, newest first.
	PostsByUser(ctx context.Context, userID int64) ([]Post, error)
	// RecentPosts returns the newest posts across all users; limit <= 0 means all.
	RecentPosts(ctx context.Context, limit int) ([]Post, error)

	Ping(ctx context.Context) error
	Close() error
}
