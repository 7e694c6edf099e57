package domain

import "context"

// Fixed messages carried by domain events.
const (
	EnrollmentAcceptedMessage = "모임 참가 신청을 확인했습니다. 모임에 참석하세요."
	EnrollmentRejectedMessage = "모임 참가 신청을 거절했습니다."
	StudyCreatedMessage       = "새로운 스터디가 개설되었습니다."

	StudyClosedMessage         = "스터디를 종료했습니다."
	StudyRecruitStartedMessage = "팀원 모집을 시작합니다."
	StudyRecruitStoppedMessage = "팀원 모집을 중단했습니다."
)

// DomainEvent is a fact raised after a committed state transition.
type DomainEvent interface {
	EventName() string
}

// EventPublisher hands domain events to asynchronous handlers. Publish never
// blocks on handler work and never returns handler failures.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent)
}

// StudyCreatedEvent is raised when a study is created. Handlers reload the study
// with its tags and zones.
type StudyCreatedEvent struct {
	StudyID string
}

func (StudyCreatedEvent) EventName() string { return "study.created" }

// StudyUpdatedEvent is raised on study lifecycle changes and event schedule changes.
type StudyUpdatedEvent struct {
	StudyID string
	Message string
}

func (StudyUpdatedEvent) EventName() string { return "study.updated" }

// EnrollmentEvent is the payload shared by accept and reject events. Enrollment is
// a copy so handlers never share ledger state with the request.
type EnrollmentEvent struct {
	Enrollment Enrollment
	StudyID    string
	EventTitle string
	Message    string
}

type EnrollmentAcceptEvent struct {
	EnrollmentEvent
}

func (EnrollmentAcceptEvent) EventName() string { return "enrollment.accepted" }

type EnrollmentRejectEvent struct {
	EnrollmentEvent
}

func (EnrollmentRejectEvent) EventName() string { return "enrollment.rejected" }

// NewEnrollmentAcceptEvent builds the accept event for en of ev.
func NewEnrollmentAcceptEvent(ev *Event, en *Enrollment) EnrollmentAcceptEvent {
	return EnrollmentAcceptEvent{EnrollmentEvent{
		Enrollment: *en,
		StudyID:    ev.StudyID,
		EventTitle: ev.Title,
		Message:    EnrollmentAcceptedMessage,
	}}
}

// NewEnrollmentRejectEvent builds the reject event for en of ev.
func NewEnrollmentRejectEvent(ev *Event, en *Enrollment) EnrollmentRejectEvent {
	return EnrollmentRejectEvent{EnrollmentEvent{
		Enrollment: *en,
		StudyID:    ev.StudyID,
		EventTitle: ev.Title,
		Message:    EnrollmentRejectedMessage,
	}}
}
