package services

import (
	"context"
	"fmt"

	"studyhub/internal/domain"
)

type notificationService struct {
	repo domain.NotificationRepository
}

// NewNotificationService creates the notification inbox service.
func NewNotificationService(repo domain.NotificationRepository) domain.NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, accountID string, checked bool, params domain.PaginationParams) (*domain.PaginatedResult[*domain.Notification], error) {
	items, total, err := s.repo.ListByAccountAndChecked(ctx, accountID, checked, params)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	return &domain.PaginatedResult[*domain.Notification]{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

func (s *notificationService) Counts(ctx context.Context, accountID string) (*domain.NotificationCounts, error) {
	unchecked, err := s.repo.CountByAccountAndChecked(ctx, accountID, false)
	if err != nil {
		return nil, fmt.Errorf("count unchecked notifications: %w", err)
	}
	checked, err := s.repo.CountByAccountAndChecked(ctx, accountID, true)
	if err != nil {
		return nil, fmt.Errorf("count checked notifications: %w", err)
	}
	return &domain.NotificationCounts{Unchecked: unchecked, Checked: checked}, nil
}

// MarkAsRead is idempotent; ids that are not the account's are ignored.
func (s *notificationService) MarkAsRead(ctx context.Context, accountID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.repo.MarkAsRead(ctx, accountID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) DeleteRead(ctx context.Context, accountID string) (int, error) {
	n, err := s.repo.DeleteByAccountAndChecked(ctx, accountID, true)
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return n, nil
}
