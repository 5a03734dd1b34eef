package sandbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/platform/db"
)

// PGDoctors writes doctors to the users table.
type PGDoctors struct {
	pool *pgxpool.Pool
}

func NewPGDoctors(pool *pgxpool.Pool) *PGDoctors {
	return &PGDoctors{pool: pool}
}

func (r *PGDoctors) CreateDoctor(ctx context.Context, d Doctor) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (id, name, role, department)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		d.ID, d.Name, auth.RoleDoctor, d.Department)
	return err
}
