package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"studyhub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studyCols = []string{
	"id", "path", "title", "short_description", "full_description",
	"published", "published_at", "closed", "closed_at", "recruiting", "recruiting_updated_at", "created_at",
}

func TestStudyRepository_Create(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	newStudy := func() *domain.Study {
		return &domain.Study{
			Path: "spring", Title: "Spring", ShortDescription: "short", FullDescription: "full",
			ManagerIDs: []string{"acc-1"},
			Tags:       []domain.Tag{{ID: "tag-1"}},
			Zones:      []domain.Zone{{ID: "zone-1"}},
			CreatedAt:  created,
		}
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "inserts study and relations in one tx",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO studies \(path, title, short_description, full_description, created_at\)`).
					WithArgs("spring", "Spring", "short", "full", created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("st-1"))
				mock.ExpectExec(`INSERT INTO study_tags`).
					WithArgs("st-1", pq.Array([]string{"tag-1"})).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO study_zones`).
					WithArgs("st-1", pq.Array([]string{"zone-1"})).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO study_managers`).
					WithArgs("st-1", pq.Array([]string{"acc-1"})).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantID: "st-1",
		},
		{
			name: "unique violation on path",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO studies`).
					WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrDuplicatePath,
		},
		{
			name: "relation insert fails rolls back",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO studies`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("st-1"))
				mock.ExpectExec(`INSERT INTO study_tags`).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: sql.ErrConnDone,
		},
		{
			name: "unknown zone is not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO studies`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("st-1"))
				mock.ExpectExec(`INSERT INTO study_tags`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO study_zones`).WillReturnError(&pq.Error{Code: "23503"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			s := newStudy()
			err = NewStudyRepository(db).Create(ctx, s)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, s.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStudyRepository_GetByPath(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	published := created.Add(time.Hour)

	t.Run("loads study with relations", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM studies WHERE path = \$1`).
			WithArgs("spring").
			WillReturnRows(sqlmock.NewRows(studyCols).
				AddRow("st-1", "spring", "Spring", "short", "full", true, published, false, nil, false, nil, created))
		mock.ExpectQuery(`JOIN study_tags`).WithArgs("st-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("tag-1", "Java"))
		mock.ExpectQuery(`JOIN study_zones`).WithArgs("st-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "city", "local_name_of_city", "province"}))
		mock.ExpectQuery(`FROM study_managers`).WithArgs("st-1").
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow("acc-1"))
		mock.ExpectQuery(`FROM study_members`).WithArgs("st-1").
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow("acc-2").AddRow("acc-3"))

		s, err := NewStudyRepository(db).GetByPath(ctx, "spring")
		require.NoError(t, err)
		assert.Equal(t, "st-1", s.ID)
		require.NotNil(t, s.PublishedAt)
		assert.Equal(t, published, *s.PublishedAt)
		assert.Nil(t, s.ClosedAt)
		assert.Equal(t, []domain.Tag{{ID: "tag-1", Title: "Java"}}, s.Tags)
		assert.Empty(t, s.Zones)
		assert.Equal(t, []string{"acc-1"}, s.ManagerIDs)
		assert.Equal(t, []string{"acc-2", "acc-3"}, s.MemberIDs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM studies WHERE path = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
		_, err = NewStudyRepository(db).GetByPath(ctx, "nope")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStudyRepository_UpdateLifecycle(t *testing.T) {
	now := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		result  sql.Result
		wantErr error
	}{
		{name: "updated", result: sqlmock.NewResult(0, 1)},
		{name: "gone", result: sqlmock.NewResult(0, 0), wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`UPDATE studies\s+SET published = \$2`).
				WithArgs("st-1", true, now, false, nil, true, now).
				WillReturnResult(tt.result)

			s := &domain.Study{ID: "st-1", Published: true, PublishedAt: &now, Recruiting: true, RecruitingUpdatedAt: &now}
			err = NewStudyRepository(db).UpdateLifecycle(context.Background(), s)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStudyRepository_Members(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM studies WHERE path = \$1\)`).
		WithArgs("spring").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`INSERT INTO study_members`).WithArgs("st-1", "acc-2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM study_members`).WithArgs("st-1", "acc-2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM studies WHERE id = \$1`).WithArgs("st-1").WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewStudyRepository(db)
	ctx := context.Background()
	exists, err := repo.ExistsByPath(ctx, "spring")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, repo.AddMember(ctx, "st-1", "acc-2"))
	require.NoError(t, repo.RemoveMember(ctx, "st-1", "acc-2"))
	require.NoError(t, repo.Delete(ctx, "st-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
