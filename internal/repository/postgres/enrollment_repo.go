package postgres

import (
	"context"
	"database/sql"
	"errors"

	"studyhub/internal/domain"
)

type enrollmentRepository struct {
	DB *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) domain.EnrollmentRepository {
	return &enrollmentRepository{
		DB: db,
	}
}

// Create inserts a ledger row. A second row for the same (event, account) maps to
// domain.ErrEnrollmentTransition.
func (r *enrollmentRepository) Create(ctx context.Context, en *domain.Enrollment) error {
	query := `
		INSERT INTO enrollments (event_id, account_id, enrolled_at, accepted, attended)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, en.EventID, en.AccountID, en.EnrolledAt, en.Accepted, en.Attended).
		Scan(&en.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEnrollmentTransition
		}
		return err
	}
	return nil
}

func (r *enrollmentRepository) Update(ctx context.Context, en *domain.Enrollment) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE enrollments SET accepted = $2, attended = $3 WHERE id = $1`, en.ID, en.Accepted, en.Attended)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *enrollmentRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	en, err := scanEnrollment(conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return en, nil
}

func (r *enrollmentRepository) GetByEventAndAccount(ctx context.Context, eventID, accountID string) (*domain.Enrollment, error) {
	en, err := scanEnrollment(conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE event_id = $1 AND account_id = $2`, eventID, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return en, nil
}

func (r *enrollmentRepository) ExistsByEventAndAccount(ctx context.Context, eventID, accountID string) (bool, error) {
	var exists bool
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE event_id = $1 AND account_id = $2)`, eventID, accountID).
		Scan(&exists)
	return exists, err
}

// ListByAccountID returns the account's enrollments, most recent first.
func (r *enrollmentRepository) ListByAccountID(ctx context.Context, accountID string) ([]*domain.Enrollment, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE account_id = $1 ORDER BY enrolled_at DESC, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*domain.Enrollment
	for rows.Next() {
		en, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, en)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
