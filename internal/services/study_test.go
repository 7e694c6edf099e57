package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhub/internal/domain"
)

const (
	goTagID     = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	seoulZoneID = "8f7e6d5c-4b3a-4291-8a7b-6c5d4e3f2a1b"
)

func newStudyFixture() (*studyService, *memStore, *recordingPublisher, *time.Time) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewStudyService(memStudyRepo{store}, pub).(*studyService)
	now := testNow
	svc.now = func() time.Time { return now }
	return svc, store, pub, &now
}

func validStudyForm() domain.StudyForm {
	return domain.StudyForm{
		Path:             "go-study",
		Title:            "Go Study",
		ShortDescription: "Learn Go together",
		FullDescription:  "Weekly sessions",
		TagIDs:           []string{goTagID},
		ZoneIDs:          []string{seoulZoneID},
	}
}

func TestStudyService_CreateStudy(t *testing.T) {
	svc, _, pub, _ := newStudyFixture()
	ctx := context.Background()

	study, err := svc.CreateStudy(ctx, "m1", validStudyForm())
	require.NoError(t, err)
	assert.NotEmpty(t, study.ID)
	assert.Equal(t, []string{"m1"}, study.ManagerIDs)
	assert.Equal(t, []domain.Tag{{ID: goTagID}}, study.Tags)
	assert.Equal(t, []string{"study.created"}, pub.names())

	_, err = svc.CreateStudy(ctx, "m2", validStudyForm())
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "path", verr.Fields[0].Field)

	bad := validStudyForm()
	bad.Path = "Bad Path"
	_, err = svc.CreateStudy(ctx, "m1", bad)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Len(t, pub.names(), 1)
}

func TestStudyService_Lifecycle(t *testing.T) {
	svc, store, pub, now := newStudyFixture()
	ctx := context.Background()
	_, err := svc.CreateStudy(ctx, "m1", validStudyForm())
	require.NoError(t, err)

	_, err = svc.Publish(ctx, "u1", "go-study")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	study, err := svc.Publish(ctx, "m1", "go-study")
	require.NoError(t, err)
	assert.True(t, study.Published)

	_, err = svc.StartRecruit(ctx, "m1", "go-study")
	require.NoError(t, err)

	_, err = svc.StopRecruit(ctx, "m1", "go-study")
	assert.True(t, errors.Is(err, domain.ErrStudyState), "recruiting changes are rate limited")

	*now = now.Add(2 * time.Hour)
	_, err = svc.StopRecruit(ctx, "m1", "go-study")
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.Remove(ctx, "m1", "go-study"), domain.ErrStudyState), "open study is not removable")

	study, err = svc.Close(ctx, "m1", "go-study")
	require.NoError(t, err)
	assert.True(t, study.Closed)
	assert.False(t, study.Recruiting)

	stored, err := memStudyRepo{store}.GetByPath(ctx, "go-study")
	require.NoError(t, err)
	assert.True(t, stored.Closed)

	require.NoError(t, svc.Remove(ctx, "m1", "go-study"))
	_, err = svc.GetStudy(ctx, "go-study")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Equal(t, []string{"study.created", "study.updated", "study.updated", "study.updated"}, pub.names())
}

func TestStudyService_JoinLeave(t *testing.T) {
	svc, _, _, _ := newStudyFixture()
	ctx := context.Background()
	_, err := svc.CreateStudy(ctx, "m1", validStudyForm())
	require.NoError(t, err)

	_, err = svc.Join(ctx, "u1", "go-study")
	assert.True(t, errors.Is(err, domain.ErrStudyState), "not recruiting yet")

	_, err = svc.Publish(ctx, "m1", "go-study")
	require.NoError(t, err)
	_, err = svc.StartRecruit(ctx, "m1", "go-study")
	require.NoError(t, err)

	study, err := svc.Join(ctx, "u1", "go-study")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, study.MemberIDs)

	_, err = svc.Join(ctx, "u1", "go-study")
	assert.True(t, errors.Is(err, domain.ErrStudyState), "already a member")
	_, err = svc.Join(ctx, "m1", "go-study")
	assert.True(t, errors.Is(err, domain.ErrStudyState), "managers are not members")

	study, err = svc.Leave(ctx, "u1", "go-study")
	require.NoError(t, err)
	assert.Empty(t, study.MemberIDs)

	_, err = svc.Leave(ctx, "u1", "go-study")
	assert.True(t, errors.Is(err, domain.ErrStudyState))
}
