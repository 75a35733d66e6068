package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"yamdb/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	ErrConflictCode   = "23505"
	ErrForeignKeyCode = "23503"
	ErrCheckCode      = "23514"
)

type Storage struct {
	Conn *pgxpool.Pool
}

func New(ctx context.Context, dsn string, maxConns int, maxConnIdleTime time.Duration) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MaxConnIdleTime = maxConnIdleTime
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Storage{Conn: pool}, nil
}

func (s *Storage) Close() {
	s.Conn.Close()
}

// Migrate applies (up) or reverts the last (down) embedded migration.
func (s *Storage) Migrate(ctx context.Context, direction string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.Conn)
	defer db.Close()

	var err error
	switch direction {
	case "up":
		err = goose.UpContext(ctx, db, "migrations")
	case "down":
		err = goose.DownContext(ctx, db, "migrations")
	case "status":
		err = goose.StatusContext(ctx, db, "migrations")
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return fmt.Errorf("running migrations %s: %w", direction, err)
	}
	return nil
}

// BulkLoad copies every batch in order inside one transaction, so a failed
// file leaves the database untouched. Returns the number of rows per table.
func (s *Storage) BulkLoad(ctx context.Context, batches []storage.Batch) (map[string]int64, error) {
	loaded := make(map[string]int64, len(batches))
	err := pgx.BeginFunc(ctx, s.Conn, func(tx pgx.Tx) error {
		for _, b := range batches {
			n, err := tx.CopyFrom(ctx, pgx.Identifier{b.Table}, b.Columns, pgx.CopyFromRows(b.Rows))
			if err != nil {
				return fmt.Errorf("copying into %s: %w", b.Table, MapError(err))
			}
			loaded[b.Table] = n
			if !b.Serial {
				continue
			}
			table := pgx.Identifier{b.Table}.Sanitize()
			_, err = tx.Exec(ctx, fmt.Sprintf(
				`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`,
				b.Table, table,
			))
			if err != nil {
				return fmt.Errorf("resetting %s sequence: %w", b.Table, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// MapError translates driver errors into storage sentinels.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case ErrConflictCode:
			return &storage.ConstraintError{Err: storage.ErrConflict, Constraint: pgErr.ConstraintName}
		case ErrForeignKeyCode:
			return &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: pgErr.ConstraintName}
		case ErrCheckCode:
			return &storage.ConstraintError{Err: storage.ErrCheckViolation, Constraint: pgErr.ConstraintName}
		}
	}
	return err
}
