package postgres

import (
	"context"
	"database/sql"
	"errors"

	"studyhub/internal/domain"

	"github.com/lib/pq"
)

const studyColumns = `id, path, title, short_description, full_description,
	published, published_at, closed, closed_at, recruiting, recruiting_updated_at, created_at`

type studyRepository struct {
	DB *sql.DB
	tx *transactor
}

// NewStudyRepository returns a domain.StudyRepository implemented with Postgres.
func NewStudyRepository(db *sql.DB) domain.StudyRepository {
	return &studyRepository{DB: db, tx: &transactor{DB: db}}
}

// Create inserts the study with its tags, zones and managers in one transaction.
func (r *studyRepository) Create(ctx context.Context, s *domain.Study) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.DB)
		err := q.QueryRowContext(ctx,
			`INSERT INTO studies (path, title, short_description, full_description, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			s.Path, s.Title, s.ShortDescription, s.FullDescription, s.CreatedAt).Scan(&s.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicatePath
			}
			return err
		}
		if tagIDs := domain.TagIDs(s.Tags); len(tagIDs) > 0 {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO study_tags (study_id, tag_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
				s.ID, pq.Array(tagIDs)); err != nil {
				return relationErr(err)
			}
		}
		if zoneIDs := domain.ZoneIDs(s.Zones); len(zoneIDs) > 0 {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO study_zones (study_id, zone_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
				s.ID, pq.Array(zoneIDs)); err != nil {
				return relationErr(err)
			}
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO study_managers (study_id, account_id) SELECT $1, unnest($2::uuid[])`,
			s.ID, pq.Array(s.ManagerIDs))
		return err
	})
}

// relationErr reports a reference to a tag or zone that does not exist as not found.
func relationErr(err error) error {
	if isForeignKeyViolation(err) {
		return domain.ErrNotFound
	}
	return err
}

func (r *studyRepository) GetByPath(ctx context.Context, path string) (*domain.Study, error) {
	return r.get(ctx, `SELECT `+studyColumns+` FROM studies WHERE path = $1`, path)
}

func (r *studyRepository) GetByID(ctx context.Context, id string) (*domain.Study, error) {
	return r.get(ctx, `SELECT `+studyColumns+` FROM studies WHERE id = $1`, id)
}

func (r *studyRepository) get(ctx context.Context, query string, arg string) (*domain.Study, error) {
	q := conn(ctx, r.DB)
	s := &domain.Study{}
	var publishedAt, closedAt, recruitingAt sql.NullTime
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.Path, &s.Title, &s.ShortDescription, &s.FullDescription,
		&s.Published, &publishedAt, &s.Closed, &closedAt, &s.Recruiting, &recruitingAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.PublishedAt = nullTimePtr(publishedAt)
	s.ClosedAt = nullTimePtr(closedAt)
	s.RecruitingUpdatedAt = nullTimePtr(recruitingAt)
	if err := r.loadRelations(ctx, q, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *studyRepository) loadRelations(ctx context.Context, q querier, s *domain.Study) error {
	tagRows, err := q.QueryContext(ctx,
		`SELECT t.id, t.title FROM tags t JOIN study_tags st ON st.tag_id = t.id
		 WHERE st.study_id = $1 ORDER BY t.title`, s.ID)
	if err != nil {
		return err
	}
	s.Tags = []domain.Tag{}
	for tagRows.Next() {
		var t domain.Tag
		if err := tagRows.Scan(&t.ID, &t.Title); err != nil {
			tagRows.Close()
			return err
		}
		s.Tags = append(s.Tags, t)
	}
	tagRows.Close()
	if err := tagRows.Err(); err != nil {
		return err
	}

	zoneRows, err := q.QueryContext(ctx,
		`SELECT z.id, z.city, z.local_name_of_city, z.province FROM zones z JOIN study_zones sz ON sz.zone_id = z.id
		 WHERE sz.study_id = $1 ORDER BY z.city`, s.ID)
	if err != nil {
		return err
	}
	s.Zones = []domain.Zone{}
	for zoneRows.Next() {
		var z domain.Zone
		if err := zoneRows.Scan(&z.ID, &z.City, &z.LocalNameOfCity, &z.Province); err != nil {
			zoneRows.Close()
			return err
		}
		s.Zones = append(s.Zones, z)
	}
	zoneRows.Close()
	if err := zoneRows.Err(); err != nil {
		return err
	}

	if s.ManagerIDs, err = listIDs(ctx, q, `SELECT account_id FROM study_managers WHERE study_id = $1 ORDER BY account_id`, s.ID); err != nil {
		return err
	}
	s.MemberIDs, err = listIDs(ctx, q, `SELECT account_id FROM study_members WHERE study_id = $1 ORDER BY joined_at, account_id`, s.ID)
	return err
}

func listIDs(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *studyRepository) ExistsByPath(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM studies WHERE path = $1)`, path).Scan(&exists)
	return exists, err
}

func (r *studyRepository) UpdateLifecycle(ctx context.Context, s *domain.Study) error {
	query := `
		UPDATE studies
		SET published = $2, published_at = $3, closed = $4, closed_at = $5,
		    recruiting = $6, recruiting_updated_at = $7
		WHERE id = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, s.ID,
		s.Published, s.PublishedAt, s.Closed, s.ClosedAt, s.Recruiting, s.RecruitingUpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *studyRepository) AddMember(ctx context.Context, studyID, accountID string) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO study_members (study_id, account_id) VALUES ($1, $2) ON CONFLICT (study_id, account_id) DO NOTHING`,
		studyID, accountID)
	return err
}

func (r *studyRepository) RemoveMember(ctx context.Context, studyID, accountID string) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM study_members WHERE study_id = $1 AND account_id = $2`, studyID, accountID)
	return err
}

func (r *studyRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM studies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
