package domain

import (
	"context"
	"time"
)

// Enrollment is an account's sign-up for an event. It is owned by its Event and
// mutated only through the Event's ledger operations; EventID is for lookup only.
// swagger:model Enrollment
type Enrollment struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	AccountID  string    `json:"account_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Accepted   bool      `json:"accepted"`
	Attended   bool      `json:"attended"`
}

// NewEnrollment returns an unsaved enrollment for accountID.
func NewEnrollment(accountID string, enrolledAt time.Time, accepted bool) *Enrollment {
	return &Enrollment{
		AccountID:  accountID,
		EnrolledAt: enrolledAt,
		Accepted:   accepted,
	}
}

// EnrollmentWithEvent pairs an enrollment with its event for "my enrollments" listings.
// swagger:model EnrollmentWithEvent
type EnrollmentWithEvent struct {
	Enrollment *Enrollment `json:"enrollment"`
	Event      *Event      `json:"event"`
}

// EnrollmentRepository persists ledger rows. Rows are written by services after the
// Event aggregate has applied the change.
type EnrollmentRepository interface {
	Create(ctx context.Context, e *Enrollment) error
	// Update persists the accepted and attended flags.
	Update(ctx context.Context, e *Enrollment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Enrollment, error)
	GetByEventAndAccount(ctx context.Context, eventID, accountID string) (*Enrollment, error)
	ExistsByEventAndAccount(ctx context.Context, eventID, accountID string) (bool, error)
	ListByAccountID(ctx context.Context, accountID string) ([]*Enrollment, error)
}
