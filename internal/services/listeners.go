package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"studyhub/internal/domain"
	"studyhub/internal/eventbus"
)

const subjectPrefix = "[스터디올래] "

// NotificationListener fans domain events out to in-app notifications and email,
// honouring each recipient's preference flags. A failure for one recipient is
// logged and does not stop the others.
type NotificationListener struct {
	accounts      domain.AccountRepository
	studies       domain.StudyRepository
	notifications domain.NotificationRepository
	email         domain.EmailService
	host          string
	logger        *slog.Logger
	now           func() time.Time
}

// NewNotificationListener creates the listener. host prefixes links in emails.
func NewNotificationListener(
	accounts domain.AccountRepository,
	studies domain.StudyRepository,
	notifications domain.NotificationRepository,
	email domain.EmailService,
	host string,
	logger *slog.Logger,
) *NotificationListener {
	return &NotificationListener{
		accounts:      accounts,
		studies:       studies,
		notifications: notifications,
		email:         email,
		host:          host,
		logger:        logger,
		now:           time.Now,
	}
}

// Register subscribes every handler on bus.
func (l *NotificationListener) Register(bus *eventbus.Bus) {
	eventbus.Subscribe(bus, "notify-study-created", l.HandleStudyCreated)
	eventbus.Subscribe(bus, "notify-study-updated", l.HandleStudyUpdated)
	eventbus.Subscribe(bus, "notify-enrollment-accepted", l.HandleEnrollmentAccepted)
	eventbus.Subscribe(bus, "notify-enrollment-rejected", l.HandleEnrollmentRejected)
}

// delivery is one message to fan out; the flags pick channels per recipient.
// emailMessage falls back to message when empty.
type delivery struct {
	kind         domain.NotificationType
	title        string
	link         string
	message      string
	emailMessage string
	subject      string
	linkName     string
	byWeb        func(domain.NotificationPreferences) bool
	byEmail      func(domain.NotificationPreferences) bool
}

func (d delivery) mailBody() string {
	if d.emailMessage != "" {
		return d.emailMessage
	}
	return d.message
}

func (l *NotificationListener) deliver(ctx context.Context, recipients []*domain.Account, d delivery) {
	for _, acc := range recipients {
		if d.byWeb(acc.Preferences) {
			n := &domain.Notification{
				Title:     d.title,
				Link:      d.link,
				Message:   d.message,
				AccountID: acc.ID,
				CreatedAt: l.now(),
				Type:      d.kind,
			}
			if err := l.notifications.Create(ctx, n); err != nil {
				l.logger.ErrorContext(ctx, "save notification failed", "account_id", acc.ID, "type", d.kind, "err", err)
			}
		}
		if d.byEmail(acc.Preferences) {
			data := &domain.SimpleLinkEmailData{
				Subject:  d.subject,
				Nickname: acc.Nickname,
				Message:  d.mailBody(),
				Link:     d.link,
				LinkName: d.linkName,
				Host:     l.host,
			}
			if err := l.email.SendSimpleLink(ctx, acc.Email, data); err != nil {
				l.logger.ErrorContext(ctx, "send notification email failed", "account_id", acc.ID, "type", d.kind, "err", err)
			}
		}
	}
}

func (l *NotificationListener) loadStudy(ctx context.Context, id string) (*domain.Study, error) {
	study, err := l.studies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load study %s: %w", id, err)
	}
	return study, nil
}

// HandleStudyCreated notifies accounts interested in any of the study's tags or zones.
func (l *NotificationListener) HandleStudyCreated(ctx context.Context, ev domain.StudyCreatedEvent) error {
	study, err := l.loadStudy(ctx, ev.StudyID)
	if err != nil {
		return err
	}
	tagIDs, zoneIDs := domain.TagIDs(study.Tags), domain.ZoneIDs(study.Zones)
	if len(tagIDs) == 0 && len(zoneIDs) == 0 {
		return nil
	}
	audience, err := l.accounts.FindByTagsOrZones(ctx, tagIDs, zoneIDs)
	if err != nil {
		return fmt.Errorf("find interested accounts: %w", err)
	}
	l.logger.InfoContext(ctx, "study created", "study_id", study.ID, "title", study.Title, "audience", len(audience))
	l.deliver(ctx, audience, delivery{
		kind:         domain.NotificationTypeStudyCreated,
		title:        study.Title + " 가 개설됨",
		link:         "/study/" + study.EncodedPath(),
		message:      study.ShortDescription,
		emailMessage: domain.StudyCreatedMessage,
		subject:      subjectPrefix + study.Title + " 스터디가 개설되었습니다.",
		linkName:     study.Title,
		byWeb:        func(p domain.NotificationPreferences) bool { return p.StudyCreatedByWeb },
		byEmail:      func(p domain.NotificationPreferences) bool { return p.StudyCreatedByEmail },
	})
	return nil
}

// HandleStudyUpdated notifies the study's managers and members.
func (l *NotificationListener) HandleStudyUpdated(ctx context.Context, ev domain.StudyUpdatedEvent) error {
	study, err := l.loadStudy(ctx, ev.StudyID)
	if err != nil {
		return err
	}
	ids := study.AudienceIDs()
	if len(ids) == 0 {
		return nil
	}
	audience, err := l.accounts.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load study audience: %w", err)
	}
	l.deliver(ctx, audience, delivery{
		kind:     domain.NotificationTypeStudyUpdated,
		title:    study.Title,
		link:     "/study/" + study.EncodedPath(),
		message:  ev.Message,
		subject:  subjectPrefix + study.Title + " 스터디에 새소식이 있습니다.",
		linkName: study.Title,
		byWeb:    func(p domain.NotificationPreferences) bool { return p.StudyUpdatedByWeb },
		byEmail:  func(p domain.NotificationPreferences) bool { return p.StudyUpdatedByEmail },
	})
	return nil
}

func (l *NotificationListener) HandleEnrollmentAccepted(ctx context.Context, ev domain.EnrollmentAcceptEvent) error {
	return l.handleEnrollment(ctx, ev.EnrollmentEvent)
}

func (l *NotificationListener) HandleEnrollmentRejected(ctx context.Context, ev domain.EnrollmentRejectEvent) error {
	return l.handleEnrollment(ctx, ev.EnrollmentEvent)
}

// handleEnrollment notifies the enrollee of a manager's decision.
func (l *NotificationListener) handleEnrollment(ctx context.Context, ev domain.EnrollmentEvent) error {
	study, err := l.loadStudy(ctx, ev.StudyID)
	if err != nil {
		return err
	}
	acc, err := l.accounts.GetByID(ctx, ev.Enrollment.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.logger.WarnContext(ctx, "enrollee not found", "account_id", ev.Enrollment.AccountID)
			return nil
		}
		return fmt.Errorf("load enrollee: %w", err)
	}
	l.deliver(ctx, []*domain.Account{acc}, delivery{
		kind:     domain.NotificationTypeEventEnrollment,
		title:    study.Title + " > " + ev.EventTitle,
		link:     "/study/" + study.EncodedPath() + "/events/" + ev.Enrollment.EventID,
		message:  ev.Message,
		subject:  subjectPrefix + study.Title + " 스터디의 " + ev.EventTitle + " 모임에 " + ev.Message,
		linkName: ev.EventTitle,
		byWeb:    func(p domain.NotificationPreferences) bool { return p.StudyEnrollmentResultByWeb },
		byEmail:  func(p domain.NotificationPreferences) bool { return p.StudyEnrollmentResultByEmail },
	})
	return nil
}
