package patient

import (
	"context"
	"errors"
	"fmt"

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

const patientCols = `id, name, mrn, date_of_birth, gender, department, doctor_name, diagnosis, created_at, updated_at`

const admissionCols = `a.id, a.patient_id, a.visit_number, a.admission_date, a.discharge_date,
	a.department, a.shift_type, a.safety_type, a.status, a.diagnosis, a.doctor_id, u.name,
	a.created_at, a.updated_at`

const admissionFrom = ` FROM admissions a LEFT JOIN users u ON u.id = a.doctor_id`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, name, mrn, date_of_birth, gender, department, doctor_name, diagnosis)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.MRN, p.DateOfBirth, p.Gender, p.Department, p.DoctorName, p.Diagnosis,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateMRN
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if p.Admissions, err = r.ListAdmissions(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE mrn = $1`, mrn))
	if err != nil {
		return nil, err
	}
	if p.Admissions, err = r.ListAdmissions(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// updatePatientSQL returns both timestamps so the caller can echo the full
// record without another read.
const updatePatientSQL = `
		UPDATE patients SET
			name=$2, mrn=$3, date_of_birth=$4, gender=$5, department=$6,
			doctor_name=$7, diagnosis=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, updatePatientSQL,
		p.ID, p.Name, p.MRN, p.DateOfBirth, p.Gender, p.Department, p.DoctorName, p.Diagnosis,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateMRN
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachAdmissions(ctx, patients); err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	patients, err := collectPatients(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachAdmissions(ctx, patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// attachAdmissions loads admissions for all patients in one query.
func (r *repoPG) attachAdmissions(ctx context.Context, patients []*Patient) error {
	if len(patients) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(patients))
	byID := make(map[uuid.UUID]*Patient, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Admissions = []*Admission{}
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+admissionCols+admissionFrom+` WHERE a.patient_id = ANY($1) ORDER BY a.patient_id, a.visit_number`, ids)
	if err != nil {
		return fmt.Errorf("load admissions: %w", err)
	}
	admissions, err := collectAdmissions(rows)
	if err != nil {
		return err
	}
	for _, a := range admissions {
		if p, ok := byID[a.PatientID]; ok {
			p.Admissions = append(p.Admissions, a)
		}
	}
	return nil
}

func (r *repoPG) CreateAdmission(ctx context.Context, a *Admission) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admissions (
			id, patient_id, visit_number, admission_date, discharge_date, department,
			shift_type, safety_type, status, diagnosis, doctor_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.VisitNumber, a.AdmissionDate, a.DischargeDate, a.Department,
		a.ShiftType, a.SafetyType, a.Status, a.Diagnosis, a.DoctorID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err) {
		// admissions_one_active or (patient_id, visit_number)
		return ErrActiveAdmissionExists
	}
	return err
}

func (r *repoPG) UpdateAdmission(ctx context.Context, a *Admission) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE admissions SET
			admission_date=$2, discharge_date=$3, department=$4, shift_type=$5,
			safety_type=$6, status=$7, diagnosis=$8, doctor_id=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.AdmissionDate, a.DischargeDate, a.Department, a.ShiftType,
		a.SafetyType, a.Status, a.Diagnosis, a.DoctorID,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) ListAdmissions(ctx context.Context, patientID uuid.UUID) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+admissionCols+admissionFrom+` WHERE a.patient_id = $1 ORDER BY a.visit_number`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAdmissions(rows)
}

func (r *repoPG) MaxVisitNumber(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(visit_number), 0) FROM admissions WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row scanner) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.MRN, &p.DateOfBirth, &p.Gender, &p.Department,
		&p.DoctorName, &p.Diagnosis, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanAdmission(row scanner) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.VisitNumber, &a.AdmissionDate, &a.DischargeDate,
		&a.Department, &a.ShiftType, &a.SafetyType, &a.Status, &a.Diagnosis, &a.DoctorID, &a.DoctorName,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAdmissions(rows pgx.Rows) ([]*Admission, error) {
	defer rows.Close()
	out := []*Admission{}
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
