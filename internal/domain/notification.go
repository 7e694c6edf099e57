package domain

import (
	"context"
	"time"
)

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotificationTypeStudyCreated    NotificationType = "STUDY_CREATED"
	NotificationTypeStudyUpdated    NotificationType = "STUDY_UPDATED"
	NotificationTypeEventEnrollment NotificationType = "EVENT_ENROLLMENT"
)

// Notification is an in-app message for one account. Only Checked changes after creation.
// swagger:model Notification
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Link      string           `json:"link"`
	Message   string           `json:"message"`
	Checked   bool             `json:"checked"`
	AccountID string           `json:"account_id"`
	CreatedAt time.Time        `json:"created_at"`
	Type      NotificationType `json:"type"`
}

// NotificationCounts holds the unread and read totals of an account.
// swagger:model NotificationCounts
type NotificationCounts struct {
	Unchecked int `json:"unchecked"`
	Checked   int `json:"checked"`
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	CountByAccountAndChecked(ctx context.Context, accountID string, checked bool) (int, error)
	// ListByAccountAndChecked returns notifications newest first.
	ListByAccountAndChecked(ctx context.Context, accountID string, checked bool, params PaginationParams) ([]*Notification, int, error)
	// MarkAsRead sets checked on the given ids owned by accountID and returns how many changed.
	MarkAsRead(ctx context.Context, accountID string, ids []string) (int, error)
	DeleteByAccountAndChecked(ctx context.Context, accountID string, checked bool) (int, error)
}

// NotificationService is the notification inbox surface.
type NotificationService interface {
	List(ctx context.Context, accountID string, checked bool, params PaginationParams) (*PaginatedResult[*Notification], error)
	Counts(ctx context.Context, accountID string) (*NotificationCounts, error)
	MarkAsRead(ctx context.Context, accountID string, ids []string) (int, error)
	DeleteRead(ctx context.Context, accountID string) (int, error)
}
