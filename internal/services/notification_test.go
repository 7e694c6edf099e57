package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhub/internal/domain"
)

func seedNotifications(store *memStore, accountID string, n int) {
	repo := memNotificationRepo{store}
	for i := range n {
		_ = repo.Create(context.Background(), &domain.Notification{
			Title:     fmt.Sprintf("n%d", i),
			AccountID: accountID,
			CreatedAt: testNow,
			Type:      domain.NotificationTypeStudyUpdated,
		})
	}
}

func TestNotificationService_ListAndCounts(t *testing.T) {
	store := newMemStore()
	seedNotifications(store, "a1", 5)
	seedNotifications(store, "a2", 2)
	svc := NewNotificationService(memNotificationRepo{store})
	ctx := context.Background()

	page, err := svc.List(ctx, "a1", false, domain.PaginationParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "n4", page.Items[0].Title, "newest first")

	page, err = svc.List(ctx, "a1", true, domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)

	counts, err := svc.Counts(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, &domain.NotificationCounts{Unchecked: 5, Checked: 0}, counts)
}

func TestNotificationService_MarkAsReadAndDelete(t *testing.T) {
	store := newMemStore()
	seedNotifications(store, "a1", 3)
	seedNotifications(store, "a2", 1)
	svc := NewNotificationService(memNotificationRepo{store})
	ctx := context.Background()

	a1 := store.notificationsFor("a1")
	other := store.notificationsFor("a2")[0]

	n, err := svc.MarkAsRead(ctx, "a1", []string{a1[0].ID, a1[1].ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "foreign ids are ignored")
	assert.False(t, other.Checked)

	n, err = svc.MarkAsRead(ctx, "a1", []string{a1[0].ID})
	require.NoError(t, err)
	assert.Zero(t, n, "already read")

	n, err = svc.MarkAsRead(ctx, "a1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.DeleteRead(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := svc.Counts(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, &domain.NotificationCounts{Unchecked: 1, Checked: 0}, counts)
	assert.Len(t, store.notificationsFor("a2"), 1)
}
