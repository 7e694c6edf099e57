package domain

import (
	"context"
	"time"
)

// NotificationPreferences are the per-account channel flags consulted by notification fan-out.
// swagger:model NotificationPreferences
type NotificationPreferences struct {
	StudyCreatedByEmail          bool `json:"study_created_by_email"`
	StudyCreatedByWeb            bool `json:"study_created_by_web"`
	StudyEnrollmentResultByEmail bool `json:"study_enrollment_result_by_email"`
	StudyEnrollmentResultByWeb   bool `json:"study_enrollment_result_by_web"`
	StudyUpdatedByEmail          bool `json:"study_updated_by_email"`
	StudyUpdatedByWeb            bool `json:"study_updated_by_web"`
}

// DefaultNotificationPreferences enables every web channel and no email channel.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		StudyCreatedByWeb:          true,
		StudyEnrollmentResultByWeb: true,
		StudyUpdatedByWeb:          true,
	}
}

// Account is a registered user. Accounts are never hard-deleted.
// swagger:model Account
type Account struct {
	ID                         string                  `json:"id"`
	Email                      string                  `json:"email"`
	Nickname                   string                  `json:"nickname"`
	PasswordHash               string                  `json:"-"`
	EmailVerified              bool                    `json:"email_verified"`
	EmailCheckToken            string                  `json:"-"`
	EmailCheckTokenGeneratedAt *time.Time              `json:"-"`
	Preferences                NotificationPreferences `json:"preferences"`
	Tags                       []Tag                   `json:"tags"`
	Zones                      []Zone                  `json:"zones"`
	JoinedAt                   time.Time               `json:"joined_at"`
}

// TokenIssuer issues bearer tokens for an account.
type TokenIssuer interface {
	Issue(accountID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated account ID.
type TokenVerifier interface {
	Verify(token string) (accountID string, err error)
}

// AccountRepository is the account directory consumed by the core.
type AccountRepository interface {
	// Create inserts the account with its interest tags and zones.
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Account, error)
	// FindByTagsOrZones returns accounts whose interests share at least one tag or one zone.
	FindByTagsOrZones(ctx context.Context, tagIDs, zoneIDs []string) ([]*Account, error)
	UpdatePreferences(ctx context.Context, accountID string, prefs NotificationPreferences) error
}

// AccountService exposes the signed-in account's profile surface.
type AccountService interface {
	GetProfile(ctx context.Context, accountID string) (*Account, error)
	UpdatePreferences(ctx context.Context, accountID string, prefs NotificationPreferences) (*Account, error)

	ListTags(ctx context.Context) ([]Tag, error)
	ListZones(ctx context.Context) ([]Zone, error)
	AddTag(ctx context.Context, accountID, title string) (*Tag, error)
	RemoveTag(ctx context.Context, accountID, tagID string) error
	AddZone(ctx context.Context, accountID, zoneID string) error
	RemoveZone(ctx context.Context, accountID, zoneID string) error
}
