package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) FindAdmin(ctx context.Context, username string) (int64, string, error) {
	var id int64
	var hash string
	err := r.DB.QueryRow(ctx,
		`SELECT id, password_hash FROM admin_users WHERE username=$1`, username,
	).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	return id, hash, nil
}
