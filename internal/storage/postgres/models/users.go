package models

import (
	"context"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
	"yamdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserModel struct {
	DB *pgxpool.Pool
}

const userColumns = `id, username, email, role, bio, confirmation_code, confirmed_at, created_at`

func (m *UserModel) List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS count, `+userColumns+` FROM users
		WHERE (username ILIKE '%' || $1 || '%' OR $1 = '')
		ORDER BY id ASC
		LIMIT $2 OFFSET $3`,
		search,
		f.Limit(),
		f.Offset(),
	)
	type row struct {
		Count int `db:"count"`
		models.User
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	users := make([]models.User, 0, len(outputRows))
	for _, r := range outputRows {
		users = append(users, r.User)
	}
	if len(outputRows) == 0 {
		return users, 0, nil
	}
	return users, outputRows[0].Count, nil
}

func (m *UserModel) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	rows, _ := m.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &user, nil
}

func (m *UserModel) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.getBy(ctx, "id", id)
}

func (m *UserModel) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.getBy(ctx, "username", username)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getBy(ctx, "email", email)
}

func (m *UserModel) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO users (username, email, role, bio) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.Role,
		user.Bio,
	)
	inserted, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &inserted, nil
}

// Update writes the profile fields. Confirmation state has its own setters.
func (m *UserModel) Update(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`UPDATE users SET username = $1, email = $2, role = $3, bio = $4 WHERE id = $5 RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.Role,
		user.Bio,
		user.ID,
	)
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return &updated, nil
}

func (m *UserModel) Delete(ctx context.Context, username string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetConfirmationCode replaces the code hash of exactly one user.
func (m *UserModel) SetConfirmationCode(ctx context.Context, userID int64, codeHash []byte) error {
	status, err := m.DB.Exec(ctx, "UPDATE users SET confirmation_code = $1 WHERE id = $2", codeHash, userID)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkConfirmed records the first successful code exchange; later calls keep
// the original timestamp.
func (m *UserModel) MarkConfirmed(ctx context.Context, userID int64, at time.Time) error {
	_, err := m.DB.Exec(
		ctx,
		"UPDATE users SET confirmed_at = $1 WHERE id = $2 AND confirmed_at IS NULL",
		at,
		userID,
	)
	return err
}
