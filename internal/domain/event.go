package domain

import (
	"context"
	"slices"
	"time"
)

// EventType is the admission policy of an event.
type EventType string

const (
	// EventTypeFCFS admits enrollments automatically while spots remain.
	EventTypeFCFS         EventType = "FCFS"
	// EventTypeConfirmative holds every enrollment until a manager accepts it.
	EventTypeConfirmative EventType = "CONFIRMATIVE"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventTypeFCFS || t == EventTypeConfirmative
}

// Event is a scheduled meetup of a study. It exclusively owns its ordered
// enrollment ledger; order is insertion order (enrolled_at, id).
// swagger:model Event
type Event struct {
	ID                 string        `json:"id"`
	StudyID            string        `json:"study_id"`
	CreatedBy          string        `json:"created_by"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	CreatedAt          time.Time     `json:"created_at"`
	EndEnrollmentAt    time.Time     `json:"end_enrollment_at"`
	StartAt            time.Time     `json:"start_at"`
	EndAt              time.Time     `json:"end_at"`
	LimitOfEnrollments int           `json:"limit_of_enrollments"`
	Type               EventType     `json:"event_type"`
	Enrollments        []*Enrollment `json:"enrollments"`
}

func (e *Event) enrollmentOf(accountID string) *Enrollment {
	for _, en := range e.Enrollments {
		if en.AccountID == accountID {
			return en
		}
	}
	return nil
}

func (e *Event) indexOf(target *Enrollment) int {
	if target == nil {
		return -1
	}
	return slices.IndexFunc(e.Enrollments, func(en *Enrollment) bool {
		return en == target || (target.ID != "" && en.ID == target.ID)
	})
}

// EnrollmentOf returns the enrollment of accountID, or nil.
func (e *Event) EnrollmentOf(accountID string) *Enrollment {
	return e.enrollmentOf(accountID)
}

// EnrollmentByID returns the ledger entry with the given id, or nil.
func (e *Event) EnrollmentByID(id string) *Enrollment {
	for _, en := range e.Enrollments {
		if en.ID == id {
			return en
		}
	}
	return nil
}

func (e *Event) isEnrollmentOpen(now time.Time) bool {
	return e.EndEnrollmentAt.After(now)
}

func (e *Event) IsEnrolled(accountID string) bool {
	return e.enrollmentOf(accountID) != nil
}

func (e *Event) IsAttended(accountID string) bool {
	en := e.enrollmentOf(accountID)
	return en != nil && en.Attended
}

// IsEnrollableFor reports whether accountID may enroll at now.
func (e *Event) IsEnrollableFor(accountID string, now time.Time) bool {
	return e.isEnrollmentOpen(now) && !e.IsAttended(accountID) && !e.IsEnrolled(accountID)
}

// IsDisenrollableFor reports whether accountID may withdraw at now.
func (e *Event) IsDisenrollableFor(accountID string, now time.Time) bool {
	return e.isEnrollmentOpen(now) && !e.IsAttended(accountID) && e.IsEnrolled(accountID)
}

// IsEnded reports whether the event finished before now.
func (e *Event) IsEnded(now time.Time) bool {
	return e.EndAt.Before(now)
}

func (e *Event) NumberOfAcceptedEnrollments() int {
	n := 0
	for _, en := range e.Enrollments {
		if en.Accepted {
			n++
		}
	}
	return n
}

// NumberOfRemainSpots is limit minus accepted count.
func (e *Event) NumberOfRemainSpots() int {
	return e.LimitOfEnrollments - e.NumberOfAcceptedEnrollments()
}

// IsAbleToAcceptWaitingEnrollment reports whether an FCFS event has a free spot.
func (e *Event) IsAbleToAcceptWaitingEnrollment() bool {
	return e.Type == EventTypeFCFS && e.NumberOfAcceptedEnrollments() < e.LimitOfEnrollments
}

// CanAccept reports whether a manager may accept en.
func (e *Event) CanAccept(en *Enrollment) bool {
	return e.Type == EventTypeConfirmative &&
		e.indexOf(en) >= 0 &&
		e.NumberOfAcceptedEnrollments() < e.LimitOfEnrollments &&
		!en.Attended &&
		!en.Accepted
}

// CanReject reports whether a manager may reject en.
func (e *Event) CanReject(en *Enrollment) bool {
	return e.Type == EventTypeConfirmative &&
		e.indexOf(en) >= 0 &&
		!en.Attended &&
		en.Accepted
}

// FirstWaitingEnrollment returns the earliest enrollment not yet accepted, or nil.
func (e *Event) FirstWaitingEnrollment() *Enrollment {
	for _, en := range e.Enrollments {
		if !en.Accepted {
			return en
		}
	}
	return nil
}

// AcceptFirstWaitingEnrollment promotes the first waiting enrollment when a spot is
// free and returns it; it returns nil when nothing was promoted.
func (e *Event) AcceptFirstWaitingEnrollment() *Enrollment {
	if !e.IsAbleToAcceptWaitingEnrollment() {
		return nil
	}
	en := e.FirstWaitingEnrollment()
	if en == nil {
		return nil
	}
	en.Accepted = true
	return en
}

// AddEnrollment appends en to the ledger and sets its back-reference.
func (e *Event) AddEnrollment(en *Enrollment) {
	en.EventID = e.ID
	e.Enrollments = append(e.Enrollments, en)
}

// RemoveEnrollment drops en from the ledger. It reports whether en was present.
func (e *Event) RemoveEnrollment(en *Enrollment) bool {
	i := e.indexOf(en)
	if i < 0 {
		return false
	}
	e.Enrollments = slices.Delete(e.Enrollments, i, i+1)
	return true
}

// Enroll adds a new enrollment for accountID. An existing enrollment is returned
// unchanged with created=false.
func (e *Event) Enroll(accountID string, now time.Time) (en *Enrollment, created bool, err error) {
	if existing := e.enrollmentOf(accountID); existing != nil {
		return existing, false, nil
	}
	if !e.IsEnrollableFor(accountID, now) {
		return nil, false, ErrEnrollmentTransition
	}
	en = NewEnrollment(accountID, now, e.IsAbleToAcceptWaitingEnrollment())
	e.AddEnrollment(en)
	return en, true, nil
}

// Disenroll removes accountID's enrollment and, for FCFS events, promotes the first
// waiting enrollment. promoted is nil when nobody moved off the waitlist.
func (e *Event) Disenroll(accountID string, now time.Time) (removed, promoted *Enrollment, err error) {
	removed = e.enrollmentOf(accountID)
	if removed == nil {
		return nil, nil, ErrNotFound
	}
	if !e.IsDisenrollableFor(accountID, now) {
		return nil, nil, ErrEnrollmentTransition
	}
	e.RemoveEnrollment(removed)
	if e.Type == EventTypeFCFS {
		promoted = e.AcceptFirstWaitingEnrollment()
	}
	return removed, promoted, nil
}

func (e *Event) Accept(en *Enrollment) error {
	if !e.CanAccept(en) {
		return ErrEnrollmentTransition
	}
	en.Accepted = true
	return nil
}

func (e *Event) Reject(en *Enrollment) error {
	if !e.CanReject(en) {
		return ErrEnrollmentTransition
	}
	en.Accepted = false
	return nil
}

// CheckIn marks an accepted enrollment as attended.
func (e *Event) CheckIn(en *Enrollment) error {
	if e.indexOf(en) < 0 || !en.Accepted || en.Attended {
		return ErrEnrollmentTransition
	}
	en.Attended = true
	return nil
}

func (e *Event) CancelCheckIn(en *Enrollment) error {
	if e.indexOf(en) < 0 || !en.Attended {
		return ErrEnrollmentTransition
	}
	en.Attended = false
	return nil
}

// EventForm is the input for creating or editing an event.
// swagger:model EventForm
type EventForm struct {
	Title              string    `json:"title" validate:"required,max=50"`
	Description        string    `json:"description" validate:"required"`
	Type               EventType `json:"event_type" validate:"required,oneof=FCFS CONFIRMATIVE"`
	LimitOfEnrollments int       `json:"limit_of_enrollments" validate:"gte=2"`
	EndEnrollmentAt    time.Time `json:"end_enrollment_at" validate:"required"`
	StartAt            time.Time `json:"start_at" validate:"required"`
	EndAt              time.Time `json:"end_at" validate:"required"`
}

// EventList splits a study's events by whether they already ended.
// swagger:model EventList
type EventList struct {
	Upcoming []*Event `json:"upcoming"`
	Past     []*Event `json:"past"`
}

// EventRepository stores events. Mutating paths load through GetByIDForUpdate
// inside a transaction, which locks the event row and loads its ledger.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// GetByID returns the event with its enrollments.
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIDForUpdate is GetByID with the event row locked until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Event, error)
	// ListByStudyID returns events ordered by start time, with enrollments.
	ListByStudyID(ctx context.Context, studyID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

// EventService is the event and enrollment surface. accountID is always the acting principal.
type EventService interface {
	CreateEvent(ctx context.Context, accountID, studyPath string, form EventForm) (*Event, error)
	GetEvent(ctx context.Context, studyPath, eventID string) (*Event, error)
	ListEvents(ctx context.Context, studyPath string) (*EventList, error)
	UpdateEvent(ctx context.Context, accountID, studyPath, eventID string, form EventForm) (*Event, error)
	CancelEvent(ctx context.Context, accountID, studyPath, eventID string) error

	Enroll(ctx context.Context, accountID, studyPath, eventID string) (*Enrollment, bool, error)
	Disenroll(ctx context.Context, accountID, studyPath, eventID string) error
	AcceptEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*Enrollment, error)
	RejectEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*Enrollment, error)
	CheckInEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*Enrollment, error)
	CancelCheckInEnrollment(ctx context.Context, accountID, studyPath, eventID, enrollmentID string) (*Enrollment, error)

	// MyEnrollment returns accountID's enrollment in the event, or ErrNotFound.
	MyEnrollment(ctx context.Context, accountID, studyPath, eventID string) (*Enrollment, error)
	ListMyEnrollments(ctx context.Context, accountID string) ([]*EnrollmentWithEvent, error)
}
