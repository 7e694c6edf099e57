package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyhub/internal/domain"
)

type eventService struct {
	tx          domain.Transactor
	studies     domain.StudyRepository
	events      domain.EventRepository
	enrollments domain.EnrollmentRepository
	publisher   domain.EventPublisher
	forms       *formValidator
	locks       *keyedMutex
	now         func() time.Time
}

// NewEventService creates an EventService. Ledger mutations run inside tx with the
// event row locked; domain events are published after commit.
func NewEventService(
	tx domain.Transactor,
	studies domain.StudyRepository,
	events domain.EventRepository,
	enrollments domain.EnrollmentRepository,
	publisher domain.EventPublisher,
) domain.EventService {
	return &eventService{
		tx:          tx,
		studies:     studies,
		events:      events,
		enrollments: enrollments,
		publisher:   publisher,
		forms:       newFormValidator(),
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

func (s *eventService) getStudy(ctx context.Context, path string) (*domain.Study, error) {
	study, err := s.studies.GetByPath(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get study: %w", err)
	}
	return study, nil
}

func (s *eventService) getManagedStudy(ctx context.Context, accountID, path string) (*domain.Study, error) {
	study, err := s.getStudy(ctx, path)
	if err != nil {
		return nil, err
	}
	if !study.IsManagedBy(accountID) {
		return nil, domain.ErrForbidden
	}
	return study, nil
}

// mutateEvent locks eventID, opens a transaction, loads the event row FOR UPDATE
// and runs fn on it. The event must belong to study.
func (s *eventService) mutateEvent(ctx context.Context, study *domain.Study, eventID string, fn func(ctx context.Context, ev *domain.Event) error) (*domain.Event, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	var locked *domain.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ev, err := s.events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}
		if ev.StudyID != study.ID {
			return domain.ErrNotFound
		}
		if err := fn(ctx, ev); err != nil {
			return err
		}
		locked = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked, nil
}

func (s *eventService) CreateEvent(ctx context.Context, accountID, studyPath string, form domain.EventForm) (*domain.Event, error) {
	study, err := s.getManagedStudy(ctx, accountID, studyPath)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if errs := s.forms.event(&form, now); len(errs) > 0 {
		return nil, domain.NewValidationError(errs...)
	}
	ev := &domain.Event{
		StudyID:            study.ID,
		CreatedBy:          accountID,
		Title:              form.Title,
		Description:        form.Description,
		CreatedAt:          now,
		EndEnrollmentAt:    form.EndEnrollmentAt,
		StartAt:            form.StartAt,
		EndAt:              form.EndAt,
		LimitOfEnrollments: form.LimitOfEnrollments,
		Type:               form.Type,
		Enrollments:        []*domain.Enrollment{},
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.publisher.Publish(ctx, domain.StudyUpdatedEvent{
		StudyID: study.ID,
		Message: fmt.Sprintf("'%s' 모임을 만들었습니다.", ev.Title),
	})
	return ev, nil
}

func (s *eventService) GetEvent(ctx context.Context, studyPath, eventID string) (*domain.Event, error) {
	study, err := s.getStudy(ctx, studyPath)
	if err != nil {
		return nil, err
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if ev.StudyID != study.ID {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (s *eventService) ListEvents(ctx context.Context, studyPath string) (*domain.EventList, error) {
	study, err := s.getStudy(ctx, studyPath)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByStudyID(ctx, study.ID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	now := s.now()
	list := &domain.EventList{Upcoming: []*domain.Event{}, Past: []*domain.Event{}}
	for _, ev := range events {
		if ev.IsEnded(now) {
			list.Past = append(list.Past, ev)
		} else {
			list.Upcoming = append(list.Upcoming, ev)
		}
	}
	return list, nil
}

// UpdateEvent applies form to the event. Raising the limit does not promote waiting enrollments.
func (s *eventService) UpdateEvent(ctx context.Context, accountID, studyPath, eventID string, form domain.EventForm) (*domain.Event, error) {
	study, err := s.getManagedStudy(ctx, accountID, studyPath)
	if err != nil {
		return nil, err
	}
	now := s.now()
	ev, err := s.mutateEvent(ctx, study, eventID, func(ctx context.Context, ev *domain.Event) error {
		if errs := s.forms.eventUpdate(&form, ev, now); len(errs) > 0 {
			return domain.NewValidationError(errs...)
		}
		ev.Title = form.Title
		ev.Description = form.Description
		ev.LimitOfEnrollments = form.LimitOfEnrollments
		ev.EndEnrollmentAt = form.EndEnrollmentAt
		ev.StartAt = form.StartAt
		ev.EndAt = form.EndAt
		if err := s.events.Update(ctx, ev); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, domain.StudyUpdatedEvent{
		StudyID: study.ID,
		Message: fmt.Sprintf("'%s' 모임 정보를 수정했으니 확인하세요.", ev.Title),
	})
	return ev, nil
}

func (s *eventService) CancelEvent(ctx context.Context, accountID, studyPath, eventID string) error {
	study, err := s.getManagedStudy(ctx, accountID, studyPath)
	if err != nil {
		return err
	}
	ev, err := s.mutateEvent(ctx, study, eventID, func(ctx context.Context, ev *domain.Event) error {
		if err := s.events.Delete(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(ctx, domain.StudyUpdatedEvent{
		StudyID: study.ID,
		Message: fmt.Sprintf("'%s' 모임을 취소했습니다.", ev.Title),
	})
	return nil
}

// Enroll is idempotent: an existing enrollment is returned with created=false.
func (s *eventService) Enroll(ctx context.Context, accountID, studyPath, eventID string) (*domain.Enrollment, bool, error) {
	study, err := s.getStudy(ctx, studyPath)
	if err != nil {
		return nil, false, err
	}
	if !study.IsMember(accountID) && !study.IsManagedBy(accountID) {
		return nil, false, domain.ErrForbidden
	}
	var (
		enrollment *domain.Enrollment
		created    bool
	)
	_, err = s.mutateEvent(ctx, study, eventID, func(ctx context.Context, ev *domain.Event) error {
		en, isNew, err := ev.Enroll(accountID, s.now())
		if err != nil {
			return err
		}
		if isNew {
			if err := s.enrollments.Create(ctx, en); err != nil {
				return fmt.Errorf("create enrollment: %w", err)
			}
		}
		enrollment, created = en, isNew
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return enrollment, created, nil
}

// Disenroll withdraws the account; on FCFS events the first waiting enrollment is promoted.
func (s *eventService) Disenroll(ctx context.Context, accountID, studyPath, eventID string) error {
	study, err := s.getStudy(ctx, studyPath)
	if err != nil {
		return err
	}
	_, err = s.mutateEvent(ctx, study, eventID, func(ctx context.Context, ev *domain.Event) error {
		removed, promoted, err := ev.Disenroll(accountID, s.now())
		if err != nil {
			return err
		}
		if err := s.enrollments.Delete(ctx, removed.ID); err != nil {
			return fmt.Errorf("delete enrollment: %w", err)
		}
		if promoted != nil {
			if err := s.enrollments.Update(ctx, promoted); err != nil {
				return fmt.Errorf("promote enrollment: %w", err)
			}
		}
		return nil
	})
	return err
}

// transition runs a manager-only ledger change on one enrollment and persists it.
func (s *eventService) transition(
	ctx context.Context,
	accountID, studyPath, eventID, enrollmentID string,
	apply func(ev *domain.Event, en *domain.Enrollment) error,
) (*domain.Event, *domain.Enrollment, error) {
	study, err := s.getManagedStudy(ctx, accountID, studyPath)
	if err != nil {
		return nil, nil, err
	}
	var changed *domain.Enrollment
	ev, err := s.mutateEvent(ctx, study, eventID, func(ctx context.Context, ev *domain.Event) error {
		en := ev.EnrollmentByID(enrollmentID)
		if en == nil {
			return domain.ErrNotFound
		}
		if err := apply(ev, en); err != nil {
			return err
		}
		if err := s.enrollments.Update(ctx, en); err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
		changed = en
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ev, changed, nil
}

func (s *eventService) AcceptEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	ev, en, err := s.transition(ctx, accountID, studyPath, eventID, enrollmentID, (*domain.Event).Accept)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, domain.NewEnrollmentAcceptEvent(ev, en))
	return en, nil
}

func (s *eventService) RejectEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	ev, en, err := s.transition(ctx, accountID, studyPath, eventID, enrollmentID, (*domain.Event).Reject)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, domain.NewEnrollmentRejectEvent(ev, en))
	return en, nil
}

func (s *eventService) CheckInEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	_, en, err := s.transition(ctx, accountID, studyPath, eventID, enrollmentID, (*domain.Event).CheckIn)
	return en, err
}

func (s *eventService) CancelCheckInEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	_, en, err := s.transition(ctx, accountID, studyPath, eventID, enrollmentID, (*domain.Event).CancelCheckIn)
	return en, err
}

func (s *eventService) MyEnrollment(ctx context.Context, accountID, studyPath, eventID string) (*domain.Enrollment, error) {
	ev, err := s.GetEvent(ctx, studyPath, eventID)
	if err != nil {
		return nil, err
	}
	en, err := s.enrollments.GetByEventAndAccount(ctx, ev.ID, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return en, nil
}

func (s *eventService) ListMyEnrollments(ctx context.Context, accountID string) ([]*domain.EnrollmentWithEvent, error) {
	enrollments, err := s.enrollments.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	result := make([]*domain.EnrollmentWithEvent, 0, len(enrollments))
	eventsByID := make(map[string]*domain.Event)
	for _, en := range enrollments {
		ev, ok := eventsByID[en.EventID]
		if !ok {
			ev, err = s.events.GetByID(ctx, en.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// cancelled between the two reads
					continue
				}
				return nil, fmt.Errorf("get event for enrollment: %w", err)
			}
			eventsByID[en.EventID] = ev
		}
		result = append(result, &domain.EnrollmentWithEvent{Enrollment: en, Event: ev})
	}
	return result, nil
}
