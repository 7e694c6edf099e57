package domain

import (
	"context"
	"net/url"
	"slices"
	"time"
)

// recruitUpdateInterval limits recruiting flag changes to one per hour.
const recruitUpdateInterval = time.Hour

// Study is a user-created group with a unique path and a publish/recruit/close lifecycle.
// swagger:model Study
type Study struct {
	ID                  string     `json:"id"`
	Path                string     `json:"path"`
	Title               string     `json:"title"`
	ShortDescription    string     `json:"short_description"`
	FullDescription     string     `json:"full_description"`
	ManagerIDs          []string   `json:"manager_ids"`
	MemberIDs           []string   `json:"member_ids"`
	Tags                []Tag      `json:"tags"`
	Zones               []Zone     `json:"zones"`
	Published           bool       `json:"published"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	Closed              bool       `json:"closed"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	Recruiting          bool       `json:"recruiting"`
	RecruitingUpdatedAt *time.Time `json:"recruiting_updated_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// EncodedPath returns the path escaped for use in links.
func (s *Study) EncodedPath() string {
	return url.PathEscape(s.Path)
}

func (s *Study) IsManagedBy(accountID string) bool {
	return slices.Contains(s.ManagerIDs, accountID)
}

func (s *Study) IsMember(accountID string) bool {
	return slices.Contains(s.MemberIDs, accountID)
}

// IsJoinable reports whether accountID may join as a member right now.
func (s *Study) IsJoinable(accountID string) bool {
	return s.Published && s.Recruiting && !s.Closed && !s.IsMember(accountID) && !s.IsManagedBy(accountID)
}

// AudienceIDs returns managers followed by members.
func (s *Study) AudienceIDs() []string {
	ids := make([]string, 0, len(s.ManagerIDs)+len(s.MemberIDs))
	ids = append(ids, s.ManagerIDs...)
	return append(ids, s.MemberIDs...)
}

func (s *Study) Publish(now time.Time) error {
	if s.Published || s.Closed {
		return ErrStudyState
	}
	s.Published = true
	s.PublishedAt = &now
	return nil
}

// Close ends the study; closing also stops recruiting.
func (s *Study) Close(now time.Time) error {
	if !s.Published || s.Closed {
		return ErrStudyState
	}
	s.Closed = true
	s.ClosedAt = &now
	s.Recruiting = false
	return nil
}

// IsRecruitUpdatable reports whether at least an hour passed since the last recruiting change.
func (s *Study) IsRecruitUpdatable(now time.Time) bool {
	if s.RecruitingUpdatedAt == nil {
		return true
	}
	return now.After(s.RecruitingUpdatedAt.Add(recruitUpdateInterval))
}

func (s *Study) StartRecruit(now time.Time) error {
	if !s.Published || s.Closed || s.Recruiting || !s.IsRecruitUpdatable(now) {
		return ErrStudyState
	}
	s.Recruiting = true
	s.RecruitingUpdatedAt = &now
	return nil
}

func (s *Study) StopRecruit(now time.Time) error {
	if !s.Recruiting || !s.IsRecruitUpdatable(now) {
		return ErrStudyState
	}
	s.Recruiting = false
	s.RecruitingUpdatedAt = &now
	return nil
}

// IsRemovable reports whether the study may be deleted. Only closed studies are removable.
func (s *Study) IsRemovable() bool {
	return s.Closed
}

// StudyRepository stores studies with their tags, zones, managers and members.
type StudyRepository interface {
	Create(ctx context.Context, study *Study) error
	// GetByPath returns a fully materialised study (tags, zones, managers, members).
	GetByPath(ctx context.Context, path string) (*Study, error)
	GetByID(ctx context.Context, id string) (*Study, error)
	ExistsByPath(ctx context.Context, path string) (bool, error)
	// UpdateLifecycle persists the published/closed/recruiting flags and their timestamps.
	UpdateLifecycle(ctx context.Context, study *Study) error
	AddMember(ctx context.Context, studyID, accountID string) error
	RemoveMember(ctx context.Context, studyID, accountID string) error
	Delete(ctx context.Context, id string) error
}

// StudyService is the study lifecycle surface. accountID is always the acting principal.
type StudyService interface {
	CreateStudy(ctx context.Context, accountID string, form StudyForm) (*Study, error)
	GetStudy(ctx context.Context, path string) (*Study, error)
	Publish(ctx context.Context, accountID, path string) (*Study, error)
	Close(ctx context.Context, accountID, path string) (*Study, error)
	StartRecruit(ctx context.Context, accountID, path string) (*Study, error)
	StopRecruit(ctx context.Context, accountID, path string) (*Study, error)
	Join(ctx context.Context, accountID, path string) (*Study, error)
	Leave(ctx context.Context, accountID, path string) (*Study, error)
	Remove(ctx context.Context, accountID, path string) error
}

// StudyForm is the input for creating a study.
// swagger:model StudyForm
type StudyForm struct {
	Path             string   `json:"path" validate:"required,studypath"`
	Title            string   `json:"title" validate:"required,max=50"`
	ShortDescription string   `json:"short_description" validate:"required,max=100"`
	FullDescription  string   `json:"full_description" validate:"required"`
	TagIDs           []string `json:"tag_ids" validate:"omitempty,dive,uuid"`
	ZoneIDs          []string `json:"zone_ids" validate:"omitempty,dive,uuid"`
}
