package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyhub/internal/domain"
)

type studyService struct {
	studies   domain.StudyRepository
	publisher domain.EventPublisher
	forms     *formValidator
	now       func() time.Time
}

// NewStudyService creates a StudyService.
func NewStudyService(studies domain.StudyRepository, publisher domain.EventPublisher) domain.StudyService {
	return &studyService{
		studies:   studies,
		publisher: publisher,
		forms:     newFormValidator(),
		now:       time.Now,
	}
}

var errPathTaken = domain.FieldError{Field: "path", Code: "wrong.path", Message: "study path is not available"}

func (s *studyService) CreateStudy(ctx context.Context, accountID string, form domain.StudyForm) (*domain.Study, error) {
	if errs := s.forms.study(&form); len(errs) > 0 {
		return nil, domain.NewValidationError(errs...)
	}
	exists, err := s.studies.ExistsByPath(ctx, form.Path)
	if err != nil {
		return nil, fmt.Errorf("check study path: %w", err)
	}
	if exists {
		return nil, domain.NewValidationError(errPathTaken)
	}

	study := &domain.Study{
		Path:             form.Path,
		Title:            form.Title,
		ShortDescription: form.ShortDescription,
		FullDescription:  form.FullDescription,
		ManagerIDs:       []string{accountID},
		MemberIDs:        []string{},
		CreatedAt:        s.now(),
	}
	for _, id := range form.TagIDs {
		study.Tags = append(study.Tags, domain.Tag{ID: id})
	}
	for _, id := range form.ZoneIDs {
		study.Zones = append(study.Zones, domain.Zone{ID: id})
	}
	if err := s.studies.Create(ctx, study); err != nil {
		if errors.Is(err, domain.ErrDuplicatePath) {
			return nil, domain.NewValidationError(errPathTaken)
		}
		return nil, fmt.Errorf("create study: %w", err)
	}
	s.publisher.Publish(ctx, domain.StudyCreatedEvent{StudyID: study.ID})
	return study, nil
}

func (s *studyService) GetStudy(ctx context.Context, path string) (*domain.Study, error) {
	study, err := s.studies.GetByPath(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get study: %w", err)
	}
	return study, nil
}

// changeLifecycle loads the study for a manager, applies change and persists the flags.
// A non-empty message is published as a StudyUpdatedEvent.
func (s *studyService) changeLifecycle(ctx context.Context, accountID, path string, change func(*domain.Study, time.Time) error, message string) (*domain.Study, error) {
	study, err := s.GetStudy(ctx, path)
	if err != nil {
		return nil, err
	}
	if !study.IsManagedBy(accountID) {
		return nil, domain.ErrForbidden
	}
	if err := change(study, s.now()); err != nil {
		return nil, err
	}
	if err := s.studies.UpdateLifecycle(ctx, study); err != nil {
		return nil, fmt.Errorf("update study: %w", err)
	}
	if message != "" {
		s.publisher.Publish(ctx, domain.StudyUpdatedEvent{StudyID: study.ID, Message: message})
	}
	return study, nil
}

func (s *studyService) Publish(ctx context.Context, accountID, path string) (*domain.Study, error) {
	return s.changeLifecycle(ctx, accountID, path, (*domain.Study).Publish, "")
}

func (s *studyService) Close(ctx context.Context, accountID, path string) (*domain.Study, error) {
	return s.changeLifecycle(ctx, accountID, path, (*domain.Study).Close, domain.StudyClosedMessage)
}

func (s *studyService) StartRecruit(ctx context.Context, accountID, path string) (*domain.Study, error) {
	return s.changeLifecycle(ctx, accountID, path, (*domain.Study).StartRecruit, domain.StudyRecruitStartedMessage)
}

func (s *studyService) StopRecruit(ctx context.Context, accountID, path string) (*domain.Study, error) {
	return s.changeLifecycle(ctx, accountID, path, (*domain.Study).StopRecruit, domain.StudyRecruitStoppedMessage)
}

func (s *studyService) Join(ctx context.Context, accountID, path string) (*domain.Study, error) {
	study, err := s.GetStudy(ctx, path)
	if err != nil {
		return nil, err
	}
	if !study.IsJoinable(accountID) {
		return nil, domain.ErrStudyState
	}
	if err := s.studies.AddMember(ctx, study.ID, accountID); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	study.MemberIDs = append(study.MemberIDs, accountID)
	return study, nil
}

func (s *studyService) Leave(ctx context.Context, accountID, path string) (*domain.Study, error) {
	study, err := s.GetStudy(ctx, path)
	if err != nil {
		return nil, err
	}
	if !study.IsMember(accountID) {
		return nil, domain.ErrStudyState
	}
	if err := s.studies.RemoveMember(ctx, study.ID, accountID); err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	members := study.MemberIDs[:0]
	for _, id := range study.MemberIDs {
		if id != accountID {
			members = append(members, id)
		}
	}
	study.MemberIDs = members
	return study, nil
}

// Remove deletes a closed study.
func (s *studyService) Remove(ctx context.Context, accountID, path string) error {
	study, err := s.GetStudy(ctx, path)
	if err != nil {
		return err
	}
	if !study.IsManagedBy(accountID) {
		return domain.ErrForbidden
	}
	if !study.IsRemovable() {
		return domain.ErrStudyState
	}
	if err := s.studies.Delete(ctx, study.ID); err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	return nil
}
