package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"studyhub/internal/domain"
)

const maxTagTitle = 100

type accountService struct {
	accounts domain.AccountRepository
	tags     domain.TagRepository
}

// NewAccountService creates an AccountService. Interest tags and zones decide which
// new studies the account hears about.
func NewAccountService(accounts domain.AccountRepository, tags domain.TagRepository) domain.AccountService {
	return &accountService{accounts: accounts, tags: tags}
}

func (s *accountService) GetProfile(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

func (s *accountService) UpdatePreferences(ctx context.Context, accountID string, prefs domain.NotificationPreferences) (*domain.Account, error) {
	if err := s.accounts.UpdatePreferences(ctx, accountID, prefs); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return s.GetProfile(ctx, accountID)
}

func (s *accountService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *accountService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	zones, err := s.tags.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}

// AddTag creates the tag on first use, then adds it to the account's interests.
func (s *accountService) AddTag(ctx context.Context, accountID, title string) (*domain.Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTagTitle {
		return nil, domain.NewValidationError(domain.FieldError{
			Field: "title", Code: "length", Message: fmt.Sprintf("must be 1 to %d characters", maxTagTitle),
		})
	}
	tag, err := s.tags.EnsureTag(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("ensure tag: %w", err)
	}
	if err := s.tags.AddAccountTag(ctx, accountID, tag.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("add account tag: %w", err)
	}
	return tag, nil
}

func (s *accountService) RemoveTag(ctx context.Context, accountID, tagID string) error {
	return wrapLink("remove account tag", s.tags.RemoveAccountTag(ctx, accountID, tagID))
}

func (s *accountService) AddZone(ctx context.Context, accountID, zoneID string) error {
	return wrapLink("add account zone", s.tags.AddAccountZone(ctx, accountID, zoneID))
}

func (s *accountService) RemoveZone(ctx context.Context, accountID, zoneID string) error {
	return wrapLink("remove account zone", s.tags.RemoveAccountZone(ctx, accountID, zoneID))
}

func wrapLink(op string, err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
