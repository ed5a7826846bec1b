package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type User struct {
	ID             int64
	Username       string
	HashedPassword string
	CreatedAt      time.Time
}

var userColumns = []string{"id", "username", "hashed_password", "created_at"}

// GetUserByUsername returns ErrNotFound when no such user exists.
func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (User, error) {
	query, args, err := p.sb.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}

	var u User
	err = p.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.HashedPassword, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "can't fetch user", "username", username, "error", err)
		return User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return u, nil
}

// CreateUser stores a user with an already hashed password.
func (p *Postgres) CreateUser(ctx context.Context, username, hashedPassword string) (User, error) {
	query, args, err := p.sb.
		Insert("users").
		Columns("username", "hashed_password", "created_at").
		Values(username, hashedPassword, p.now().UTC()).
		Suffix("RETURNING id, username, hashed_password, created_at").
		ToSql()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}

	var u User
	err = p.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.HashedPassword, &u.CreatedAt)
	if isUniqueViolation(err) {
		return User{}, fmt.Errorf("%q: %w", username, ErrUserExists)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "can't create user", "username", username, "error", err)
		return User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return u, nil
}
