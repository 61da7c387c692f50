package store

import (
	"context"
	"errors"
	"fmt"
)

// EnsureSuperuser creates an admin account when no user exists yet.
// It reports whether an account was created.
func EnsureSuperuser(ctx context.Context, s Store, username, email, passwordHash string) (bool, error) {
	n, err := s.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.CreateUser(ctx, NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      true,
	})
	if errors.Is(err, ErrDuplicate) {
		// another process bootstrapped concurrently
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create superuser: %w", err)
	}
	return true, nil
}
