package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
	ErrBuildQuery = errors.New("build query")
	ErrQuery      = errors.New("execute query")
)

const uniqueViolation = "23505"

type pgxPool interface {
	Close()
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps login users and the repositories the cronjob reports on.
type Postgres struct {
	pool   pgxPool
	sb     squirrel.StatementBuilderType
	logger *slog.Logger
	now    func() time.Time
}

func New(pool pgxPool, logger *slog.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
		now:    time.Now,
	}
}

// Connect opens a pool and pings it, retrying while the database starts up.
func Connect(ctx context.Context, dsn string, maxConns int32, retries int, logger *slog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	if retries < 1 {
		retries = 1
	}
	for i := 1; ; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				logger.Info("connected to database")
				return New(pool, logger), nil
			}
			pool.Close()
		}
		if i >= retries {
			return nil, fmt.Errorf("connecting to database after %d attempts: %w", i, err)
		}
		logger.Warn("can't connect to database, retrying", "attempt", i, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
