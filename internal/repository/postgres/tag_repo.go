package postgres

import (
	"context"
	"database/sql"

	"studyhub/internal/domain"
)

type tagRepository struct {
	DB *sql.DB
}

// NewTagRepository returns a domain.TagRepository implemented with Postgres.
func NewTagRepository(db *sql.DB) domain.TagRepository {
	return &tagRepository{DB: db}
}

// EnsureTag upserts on the unique title so concurrent callers get the same row.
func (r *tagRepository) EnsureTag(ctx context.Context, title string) (*domain.Tag, error) {
	var tag domain.Tag
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		`INSERT INTO tags (title) VALUES ($1)
		 ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
		 RETURNING id, title`, title).Scan(&tag.ID, &tag.Title)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, `SELECT id, title FROM tags ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Title); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		`SELECT id, city, local_name_of_city, province FROM zones ORDER BY province, city`)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *tagRepository) AddAccountTag(ctx context.Context, accountID, tagID string) error {
	return r.link(ctx, `INSERT INTO account_tags (account_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, accountID, tagID)
}

func (r *tagRepository) RemoveAccountTag(ctx context.Context, accountID, tagID string) error {
	return r.unlink(ctx, `DELETE FROM account_tags WHERE account_id = $1 AND tag_id = $2`, accountID, tagID)
}

func (r *tagRepository) AddAccountZone(ctx context.Context, accountID, zoneID string) error {
	return r.link(ctx, `INSERT INTO account_zones (account_id, zone_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, accountID, zoneID)
}

func (r *tagRepository) RemoveAccountZone(ctx context.Context, accountID, zoneID string) error {
	return r.unlink(ctx, `DELETE FROM account_zones WHERE account_id = $1 AND zone_id = $2`, accountID, zoneID)
}

func (r *tagRepository) link(ctx context.Context, query, accountID, id string) error {
	if _, err := conn(ctx, r.DB).ExecContext(ctx, query, accountID, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *tagRepository) unlink(ctx context.Context, query, accountID, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, accountID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
