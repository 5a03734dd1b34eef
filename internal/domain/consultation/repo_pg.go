package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imdcare/ward/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const consultCols = `id, patient_name, mrn, requesting_department, consultation_specialty,
	urgency, reason, shift_type, status, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (
			id, patient_name, mrn, requesting_department, consultation_specialty,
			urgency, reason, shift_type, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientName, c.MRN, c.RequestingDepartment, c.ConsultationSpecialty,
		c.Urgency, c.Reason, c.ShiftType, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx, `SELECT `+consultCols+` FROM consultations WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE consultations SET
			patient_name=$2, mrn=$3, requesting_department=$4, consultation_specialty=$5,
			urgency=$6, reason=$7, shift_type=$8, status=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		c.ID, c.PatientName, c.MRN, c.RequestingDepartment, c.ConsultationSpecialty,
		c.Urgency, c.Reason, c.ShiftType, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Consultation, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	idx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM consultations%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		consultCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectConsultations(rows)
	return out, total, err
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consultCols+` FROM consultations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectConsultations(rows)
}

func buildWhere(f ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	idx := 1
	add := func(col, val string) {
		if val == "" {
			return
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}
	add("status", f.Status)
	add("consultation_specialty", f.Specialty)
	add("mrn", f.MRN)

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row scanner) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.PatientName, &c.MRN, &c.RequestingDepartment, &c.ConsultationSpecialty,
		&c.Urgency, &c.Reason, &c.ShiftType, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConsultations(rows pgx.Rows) ([]*Consultation, error) {
	defer rows.Close()
	out := []*Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
