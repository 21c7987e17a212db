package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: pool}
}

func newPgRepositoryWithDB(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// scanColumns is the joined projection every scan query selects.
const scanColumns = `
	s.id, s.date_time, s.detail, s.is_scanned, s.status, s.created_at, s.updated_at,
	cb.id, cb.username, cb.role, cb.phone,
	au.id, au.username, au.role, au.phone,
	d.id, d.name, d.phone,
	c.id, c.name, c.address, c.latitude, c.longitude`

const scanJoins = `
	FROM scans s
	JOIN users cb ON cb.id = s.created_by
	LEFT JOIN users au ON au.id = s.assigned_to
	JOIN doctors d ON d.id = s.doctor_id
	LEFT JOIN clinics c ON c.id = d.clinic_id`

// Helpers

func scanRow(row pgx.Row) (*Scan, error) {
	var s Scan
	var (
		auID       *uuid.UUID
		auUsername *string
		auRole     *string
		auPhone    *string
		cID        *uuid.UUID
		cName      *string
		cAddress   *string
		cLat       *float64
		cLng       *float64
	)

	err := row.Scan(
		&s.ID, &s.DateTime, &s.Detail, &s.IsScanned, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		&s.CreatedBy.ID, &s.CreatedBy.Username, &s.CreatedBy.Role, &s.CreatedBy.Phone,
		&auID, &auUsername, &auRole, &auPhone,
		&s.Doctor.ID, &s.Doctor.Name, &s.Doctor.Phone,
		&cID, &cName, &cAddress, &cLat, &cLng,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	if auID != nil {
		s.AssignedTo = &User{ID: *auID, Username: *auUsername, Role: Role(*auRole), Phone: auPhone}
	}
	if cID != nil {
		s.Doctor.Clinic = &Clinic{ID: *cID, Name: *cName, Address: *cAddress, Latitude: cLat, Longitude: cLng}
	}

	return &s, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Role, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// where assembles the WHERE clause for a ListQuery, returning the clause
// and its positional args.
func (q ListQuery) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.AssignedTo != nil {
		add("s.assigned_to = $%d", *q.AssignedTo)
	}
	if q.CreatedBy != nil {
		add("s.created_by = $%d", *q.CreatedBy)
	}
	if q.Doctor != nil {
		add("s.doctor_id = $%d", *q.Doctor)
	}
	if q.Clinic != nil {
		add("d.clinic_id = $%d", *q.Clinic)
	}
	if q.From != nil {
		add("s.date_time >= $%d", *q.From)
	}
	if q.To != nil {
		add("s.date_time <= $%d", *q.To)
	}
	if q.IsScanned != nil {
		add("s.is_scanned = $%d", *q.IsScanned)
	}
	if q.Status != nil {
		add("s.status = $%d", *q.Status)
	}
	if q.DetailContains != nil {
		add("s.detail ILIKE '%%' || $%d || '%%'", *q.DetailContains)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Interface methods

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, role, phone, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT d.id, d.name, d.phone, d.created_at, d.updated_at,
		       c.id, c.name, c.address, c.latitude, c.longitude
		FROM doctors d
		LEFT JOIN clinics c ON c.id = d.clinic_id
		WHERE d.id = $1
	`, id)

	var d Doctor
	var (
		cID      *uuid.UUID
		cName    *string
		cAddress *string
		cLat     *float64
		cLng     *float64
	)
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.CreatedAt, &d.UpdatedAt, &cID, &cName, &cAddress, &cLat, &cLng)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	if cID != nil {
		d.Clinic = &Clinic{ID: *cID, Name: *cName, Address: *cAddress, Latitude: cLat, Longitude: cLng}
	}
	return &d, nil
}

func (r *PgRepository) ListUsers(ctx context.Context, page, limit int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, username, role, phone, created_at, updated_at
		FROM users
		ORDER BY username
		LIMIT $1 OFFSET $2
	`, limit, pageOffset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (r *PgRepository) ListDoctors(ctx context.Context, page, limit int) ([]Doctor, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.name, d.phone, d.created_at, d.updated_at,
		       c.id, c.name, c.address, c.latitude, c.longitude
		FROM doctors d
		LEFT JOIN clinics c ON c.id = d.clinic_id
		ORDER BY d.name
		LIMIT $1 OFFSET $2
	`, limit, pageOffset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		var d Doctor
		var (
			cID      *uuid.UUID
			cName    *string
			cAddress *string
			cLat     *float64
			cLng     *float64
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.CreatedAt, &d.UpdatedAt, &cID, &cName, &cAddress, &cLat, &cLng); err != nil {
			return nil, 0, err
		}
		if cID != nil {
			d.Clinic = &Clinic{ID: *cID, Name: *cName, Address: *cAddress, Latitude: cLat, Longitude: cLng}
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *PgRepository) ListClinics(ctx context.Context, page, limit int) ([]Clinic, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM clinics`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, address, latitude, longitude, created_at, updated_at
		FROM clinics
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, pageOffset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Clinic
	for rows.Next() {
		var c Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PgRepository) GetScanByID(ctx context.Context, id uuid.UUID) (*Scan, error) {
	row := r.db.QueryRow(ctx, `SELECT`+scanColumns+scanJoins+` WHERE s.id = $1`, id)
	return scanRow(row)
}

func (r *PgRepository) ListScans(ctx context.Context, q ListQuery) ([]Scan, int, error) {
	where, args := q.where()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*)`+scanJoins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	args = append(args, limit, q.Offset())
	sql := `SELECT` + scanColumns + scanJoins + where +
		fmt.Sprintf(` ORDER BY s.date_time DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *PgRepository) OccupiedInstants(ctx context.Context, from, to time.Time, exclude *uuid.UUID) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_time
		FROM scans
		WHERE date_time >= $1
		  AND date_time < $2
		  AND status <> 'cancelled'
		  AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY date_time
	`, from, to, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgRepository) ScanAtInstant(ctx context.Context, at time.Time, exclude *uuid.UUID) (*Scan, error) {
	row := r.db.QueryRow(ctx, `SELECT`+scanColumns+scanJoins+`
		WHERE s.date_time = $1
		  AND s.status <> 'cancelled'
		  AND ($2::uuid IS NULL OR s.id <> $2)
		LIMIT 1
	`, at, exclude)
	return scanRow(row)
}

func (r *PgRepository) CreateScan(ctx context.Context, n NewScan) (*Scan, error) {
	id := uuid.New()

	_, err := r.db.Exec(ctx, `
		INSERT INTO scans (id, date_time, detail, created_by, assigned_to, doctor_id, is_scanned, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, 'unconfirmed', now(), now())
	`, id, n.DateTime, n.Detail, n.CreatedBy, n.AssignedTo, n.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}

	return r.GetScanByID(ctx, id)
}

func (r *PgRepository) UpdateScan(ctx context.Context, id uuid.UUID, p Patch) (*Scan, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE scans
		SET date_time = COALESCE($2, date_time),
		    detail    = COALESCE($3, detail),
		    doctor_id = COALESCE($4, doctor_id),
		    status    = COALESCE($5, status),
		    updated_at = now()
		WHERE id = $1
	`, id, p.DateTime, p.Detail, p.DoctorID, p.Status)
	if err != nil {
		return nil, fmt.Errorf("update scan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrScanNotFound
	}

	return r.GetScanByID(ctx, id)
}

func (r *PgRepository) SetAssignee(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Scan, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE scans
		SET assigned_to = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("set assignee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrScanNotFound
	}

	return r.GetScanByID(ctx, id)
}

func (r *PgRepository) SetScanned(ctx context.Context, id uuid.UUID) (*Scan, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE scans
		SET is_scanned = true,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("set scanned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrScanNotFound
	}

	return r.GetScanByID(ctx, id)
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
