package postgres

import (
	"context"
	"database/sql"
	"errors"

	"studyhub/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `id, study_id, created_by, title, description, created_at,
	end_enrollment_at, start_at, end_at, limit_of_enrollments, event_type`

const enrollmentColumns = `id, event_id, account_id, enrolled_at, accepted, attended`

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
// Loaded events carry their enrollment ledger ordered by (enrolled_at, id).
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (study_id, created_by, title, description, created_at,
			end_enrollment_at, start_at, end_at, limit_of_enrollments, event_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.StudyID, e.CreatedBy, e.Title, e.Description, e.CreatedAt,
		e.EndEnrollmentAt, e.StartAt, e.EndAt, e.LimitOfEnrollments, string(e.Type),
	).Scan(&e.ID)
	if err != nil {
		return err
	}
	if e.Enrollments == nil {
		e.Enrollments = []*domain.Enrollment{}
	}
	return nil
}

func scanEvent(row scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var typ string
	err := row.Scan(&e.ID, &e.StudyID, &e.CreatedBy, &e.Title, &e.Description, &e.CreatedAt,
		&e.EndEnrollmentAt, &e.StartAt, &e.EndAt, &e.LimitOfEnrollments, &typ)
	if err != nil {
		return nil, err
	}
	e.Type = domain.EventType(typ)
	return e, nil
}

func scanEnrollment(row scanner) (*domain.Enrollment, error) {
	en := &domain.Enrollment{}
	if err := row.Scan(&en.ID, &en.EventID, &en.AccountID, &en.EnrolledAt, &en.Accepted, &en.Attended); err != nil {
		return nil, err
	}
	return en, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetByIDForUpdate locks the event row until the surrounding transaction ends.
func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *eventRepository) get(ctx context.Context, query, id string) (*domain.Event, error) {
	q := conn(ctx, r.DB)
	e, err := scanEvent(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	ledgers, err := r.loadEnrollments(ctx, q, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.Enrollments = ledgers[e.ID]
	if e.Enrollments == nil {
		e.Enrollments = []*domain.Enrollment{}
	}
	return e, nil
}

func (r *eventRepository) loadEnrollments(ctx context.Context, q querier, eventIDs []string) (map[string][]*domain.Enrollment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE event_id = ANY($1)
		 ORDER BY event_id, enrolled_at, id`, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]*domain.Enrollment, len(eventIDs))
	for rows.Next() {
		en, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out[en.EventID] = append(out[en.EventID], en)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepository) ListByStudyID(ctx context.Context, studyID string) ([]*domain.Event, error) {
	q := conn(ctx, r.DB)
	rows, err := q.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE study_id = $1 ORDER BY start_at, id`, studyID)
	if err != nil {
		return nil, err
	}
	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	ledgers, err := r.loadEnrollments(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		e.Enrollments = ledgers[e.ID]
		if e.Enrollments == nil {
			e.Enrollments = []*domain.Enrollment{}
		}
	}
	return events, nil
}

// Update persists the editable fields. Type and ledger rows are not touched.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, end_enrollment_at = $4, start_at = $5, end_at = $6, limit_of_enrollments = $7
		WHERE id = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, e.ID,
		e.Title, e.Description, e.EndEnrollmentAt, e.StartAt, e.EndAt, e.LimitOfEnrollments)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes the event; its enrollments go with it (ON DELETE CASCADE).
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
