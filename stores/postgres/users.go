package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrEthical07/authgate"
)

var _ authgate.UserStore = (*UserStore)(nil)

const uniqueViolation = "23505"

const (
	qUserInsert = `
INSERT INTO users (id, login, password_hash)
VALUES ($1, $2, $3);`

	qUserByID = `
SELECT id, login, password_hash
FROM users
WHERE id = $1;`

	qUserByLogin = `
SELECT id, login, password_hash
FROM users
WHERE login = $1;`
)

// UserStore is the pgx-backed credential store. The expected schema:
//
//	CREATE TABLE users (
//	    id            TEXT PRIMARY KEY,
//	    login         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL
//	);
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) GetByLogin(ctx context.Context, login string) (authgate.Identity, error) {
	return s.scanOne(s.pool.QueryRow(ctx, qUserByLogin, login))
}

func (s *UserStore) GetByID(ctx context.Context, id string) (authgate.Identity, error) {
	return s.scanOne(s.pool.QueryRow(ctx, qUserByID, id))
}

func (s *UserStore) Create(ctx context.Context, user authgate.Identity) error {
	if _, err := s.pool.Exec(ctx, qUserInsert, user.ID, user.Login, user.PasswordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authgate.ErrUserExists
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (s *UserStore) scanOne(row pgx.Row) (authgate.Identity, error) {
	var user authgate.Identity
	if err := row.Scan(&user.ID, &user.Login, &user.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authgate.Identity{}, authgate.ErrUserNotFound
		}
		return authgate.Identity{}, fmt.Errorf("user select: %w", err)
	}
	return user, nil
}
