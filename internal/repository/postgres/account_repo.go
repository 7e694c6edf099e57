package postgres

import (
	"context"
	"database/sql"
	"errors"

	"studyhub/internal/domain"

	"github.com/lib/pq"
)

const accountColumns = `a.id, a.email, a.nickname, a.email_verified, a.email_check_token_generated_at,
	a.study_created_by_email, a.study_created_by_web,
	a.study_enrollment_result_by_email, a.study_enrollment_result_by_web,
	a.study_updated_by_email, a.study_updated_by_web, a.joined_at`

type accountRepository struct {
	DB *sql.DB
	tx *transactor
}

// NewAccountRepository returns a domain.AccountRepository implemented with Postgres.
func NewAccountRepository(db *sql.DB) domain.AccountRepository {
	return &accountRepository{DB: db, tx: &transactor{DB: db}}
}

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.DB)
		p := a.Preferences
		err := q.QueryRowContext(ctx,
			`INSERT INTO accounts (email, nickname, password_hash, email_verified,
				study_created_by_email, study_created_by_web,
				study_enrollment_result_by_email, study_enrollment_result_by_web,
				study_updated_by_email, study_updated_by_web, joined_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			a.Email, a.Nickname, a.PasswordHash, a.EmailVerified,
			p.StudyCreatedByEmail, p.StudyCreatedByWeb,
			p.StudyEnrollmentResultByEmail, p.StudyEnrollmentResultByWeb,
			p.StudyUpdatedByEmail, p.StudyUpdatedByWeb, a.JoinedAt,
		).Scan(&a.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewValidationError(domain.FieldError{
					Field: "email", Code: "duplicate", Message: "email or nickname already in use",
				})
			}
			return err
		}
		if tagIDs := domain.TagIDs(a.Tags); len(tagIDs) > 0 {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO account_tags (account_id, tag_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
				a.ID, pq.Array(tagIDs)); err != nil {
				return err
			}
		}
		if zoneIDs := domain.ZoneIDs(a.Zones); len(zoneIDs) > 0 {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO account_zones (account_id, zone_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
				a.ID, pq.Array(zoneIDs)); err != nil {
				return err
			}
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*domain.Account, error) {
	a := &domain.Account{}
	var tokenAt sql.NullTime
	p := &a.Preferences
	err := row.Scan(&a.ID, &a.Email, &a.Nickname, &a.EmailVerified, &tokenAt,
		&p.StudyCreatedByEmail, &p.StudyCreatedByWeb,
		&p.StudyEnrollmentResultByEmail, &p.StudyEnrollmentResultByWeb,
		&p.StudyUpdatedByEmail, &p.StudyUpdatedByWeb, &a.JoinedAt)
	if err != nil {
		return nil, err
	}
	a.EmailCheckTokenGeneratedAt = nullTimePtr(tokenAt)
	return a, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	q := conn(ctx, r.DB)
	a, err := scanAccount(q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if a.Tags, err = r.listTags(ctx, q, id); err != nil {
		return nil, err
	}
	if a.Zones, err = r.listZones(ctx, q, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) listTags(ctx context.Context, q querier, accountID string) ([]domain.Tag, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT t.id, t.title FROM tags t
		 JOIN account_tags atg ON atg.tag_id = t.id
		 WHERE atg.account_id = $1
		 ORDER BY t.title`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *accountRepository) listZones(ctx context.Context, q querier, accountID string) ([]domain.Zone, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT z.id, z.city, z.local_name_of_city, z.province FROM zones z
		 JOIN account_zones az ON az.zone_id = z.id
		 WHERE az.account_id = $1
		 ORDER BY z.city`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	zones := []domain.Zone{}
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.City, &z.LocalNameOfCity, &z.Province); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// GetByIDs returns the accounts that exist among ids, preserving the order of ids.
func (r *accountRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := r.list(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	out := make([]*domain.Account, 0, len(found))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *accountRepository) FindByTagsOrZones(ctx context.Context, tagIDs, zoneIDs []string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a
		WHERE EXISTS (SELECT 1 FROM account_tags atg WHERE atg.account_id = a.id AND atg.tag_id = ANY($1))
		   OR EXISTS (SELECT 1 FROM account_zones az WHERE az.account_id = a.id AND az.zone_id = ANY($2))
		ORDER BY a.joined_at, a.id`
	return r.list(ctx, query, pq.Array(tagIDs), pq.Array(zoneIDs))
}

func (r *accountRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Account, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) UpdatePreferences(ctx context.Context, accountID string, p domain.NotificationPreferences) error {
	query := `
		UPDATE accounts SET
			study_created_by_email = $2, study_created_by_web = $3,
			study_enrollment_result_by_email = $4, study_enrollment_result_by_web = $5,
			study_updated_by_email = $6, study_updated_by_web = $7
		WHERE id = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, accountID,
		p.StudyCreatedByEmail, p.StudyCreatedByWeb,
		p.StudyEnrollmentResultByEmail, p.StudyEnrollmentResultByWeb,
		p.StudyUpdatedByEmail, p.StudyUpdatedByWeb)
	if err != nil {
		return err
	}
	return expectOne(res)
}
