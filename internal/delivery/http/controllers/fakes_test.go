package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"studyhub/internal/delivery/http/helpers"
	"studyhub/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// decodeEnvelope decodes the response envelope and, when data is non-nil, re-decodes Data into it.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if data != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return envelope
}

// fakeStudyService implements domain.StudyService for handler tests.
type fakeStudyService struct {
	study         *domain.Study
	err           error
	lastAccountID string
	lastPath      string
	lastForm      domain.StudyForm
	lastCall      string
}

func (f *fakeStudyService) record(call, accountID, path string) (*domain.Study, error) {
	f.lastCall, f.lastAccountID, f.lastPath = call, accountID, path
	if f.err != nil {
		return nil, f.err
	}
	return f.study, nil
}

func (f *fakeStudyService) CreateStudy(_ context.Context, accountID string, form domain.StudyForm) (*domain.Study, error) {
	f.lastForm = form
	return f.record("create", accountID, form.Path)
}

func (f *fakeStudyService) GetStudy(_ context.Context, path string) (*domain.Study, error) {
	return f.record("get", "", path)
}

func (f *fakeStudyService) Publish(_ context.Context, accountID, path string) (*domain.Study, error) {
	return f.record("publish", accountID, path)
}

func (f *fakeStudyService) Close(_ context.Context, accountID, path string) (*domain.Study, error) {
	return f.record("close", accountID, path)
}

func (f *fakeStudyService) StartRecruit(_ context.Context, accountID, path string) (*domain.Study, error) {
	return f.record("start-recruit", accountID, path)
}

func (f *fakeStudyService) StopRecruit(_ context.Context, accountID, path string) (*domain.Study, error) {
	return f.record("stop-recruit", accountID, path)
}

func (f *fakeStudyService) Join(_ context.Context, accountID, path string) (*domain.Study, error) {
	return f.record("join", accountID, path)
}

func (f *fakeStudyService) Leave(_ context.Context, accountID, path string) (*domain.Study, error) {
	return f.record("leave", accountID, path)
}

func (f *fakeStudyService) Remove(_ context.Context, accountID, path string) error {
	_, err := f.record("remove", accountID, path)
	return err
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event            *domain.Event
	list             *domain.EventList
	enrollment       *domain.Enrollment
	created          bool
	myEnrollments    []*domain.EnrollmentWithEvent
	err              error
	lastCall         string
	lastAccountID    string
	lastStudyPath    string
	lastEventID      string
	lastEnrollmentID string
	lastForm         domain.EventForm
}

func (f *fakeEventService) record(call, accountID, path, eventID string) {
	f.lastCall, f.lastAccountID, f.lastStudyPath, f.lastEventID = call, accountID, path, eventID
}

func (f *fakeEventService) CreateEvent(_ context.Context, accountID, studyPath string, form domain.EventForm) (*domain.Event, error) {
	f.record("create", accountID, studyPath, "")
	f.lastForm = form
	return f.event, f.err
}

func (f *fakeEventService) GetEvent(_ context.Context, studyPath, eventID string) (*domain.Event, error) {
	f.record("get", "", studyPath, eventID)
	return f.event, f.err
}

func (f *fakeEventService) ListEvents(_ context.Context, studyPath string) (*domain.EventList, error) {
	f.record("list", "", studyPath, "")
	return f.list, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, accountID, studyPath, eventID string, form domain.EventForm) (*domain.Event, error) {
	f.record("update", accountID, studyPath, eventID)
	f.lastForm = form
	return f.event, f.err
}

func (f *fakeEventService) CancelEvent(_ context.Context, accountID, studyPath, eventID string) error {
	f.record("cancel", accountID, studyPath, eventID)
	return f.err
}

func (f *fakeEventService) Enroll(_ context.Context, accountID, studyPath, eventID string) (*domain.Enrollment, bool, error) {
	f.record("enroll", accountID, studyPath, eventID)
	if f.err != nil {
		return nil, false, f.err
	}
	return f.enrollment, f.created, nil
}

func (f *fakeEventService) Disenroll(_ context.Context, accountID, studyPath, eventID string) error {
	f.record("disenroll", accountID, studyPath, eventID)
	return f.err
}

func (f *fakeEventService) manage(call, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	f.record(call, accountID, studyPath, eventID)
	f.lastEnrollmentID = enrollmentID
	if f.err != nil {
		return nil, f.err
	}
	return f.enrollment, nil
}

func (f *fakeEventService) AcceptEnrollment(_ context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	return f.manage("accept", accountID, studyPath, eventID, enrollmentID)
}

func (f *fakeEventService) RejectEnrollment(_ context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	return f.manage("reject", accountID, studyPath, eventID, enrollmentID)
}

func (f *fakeEventService) CheckInEnrollment(_ context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	return f.manage("checkin", accountID, studyPath, eventID, enrollmentID)
}

func (f *fakeEventService) CancelCheckInEnrollment(_ context.Context, accountID, studyPath, eventID, enrollmentID string) (*domain.Enrollment, error) {
	return f.manage("cancel-checkin", accountID, studyPath, eventID, enrollmentID)
}

func (f *fakeEventService) MyEnrollment(_ context.Context, accountID, studyPath, eventID string) (*domain.Enrollment, error) {
	f.record("my-enrollment", accountID, studyPath, eventID)
	if f.err != nil {
		return nil, f.err
	}
	return f.enrollment, nil
}

func (f *fakeEventService) ListMyEnrollments(_ context.Context, accountID string) ([]*domain.EnrollmentWithEvent, error) {
	f.record("my-enrollments", accountID, "", "")
	return f.myEnrollments, f.err
}

// fakeNotificationService implements domain.NotificationService for handler tests.
type fakeNotificationService struct {
	items         []*domain.Notification
	total         int
	counts        *domain.NotificationCounts
	affected      int
	err           error
	lastAccountID string
	lastChecked   bool
	lastParams    domain.PaginationParams
	lastIDs       []string
	deleteCalled  bool
}

func (f *fakeNotificationService) List(_ context.Context, accountID string, checked bool, params domain.PaginationParams) (*domain.PaginatedResult[*domain.Notification], error) {
	f.lastAccountID, f.lastChecked, f.lastParams = accountID, checked, params
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PaginatedResult[*domain.Notification]{Items: f.items, Total: f.total, Page: params.Page, PageSize: params.PageSize}, nil
}

func (f *fakeNotificationService) Counts(_ context.Context, accountID string) (*domain.NotificationCounts, error) {
	f.lastAccountID = accountID
	return f.counts, f.err
}

func (f *fakeNotificationService) MarkAsRead(_ context.Context, accountID string, ids []string) (int, error) {
	f.lastAccountID, f.lastIDs = accountID, ids
	return f.affected, f.err
}

func (f *fakeNotificationService) DeleteRead(_ context.Context, accountID string) (int, error) {
	f.lastAccountID, f.deleteCalled = accountID, true
	return f.affected, f.err
}

// fakeAccountService implements domain.AccountService for handler tests.
type fakeAccountService struct {
	account       *domain.Account
	tags          []domain.Tag
	zones         []domain.Zone
	err           error
	lastAccountID string
	lastPrefs     *domain.NotificationPreferences
	lastCall      string
	lastArg       string
}

func (f *fakeAccountService) GetProfile(_ context.Context, accountID string) (*domain.Account, error) {
	f.lastAccountID = accountID
	return f.account, f.err
}

func (f *fakeAccountService) UpdatePreferences(_ context.Context, accountID string, prefs domain.NotificationPreferences) (*domain.Account, error) {
	f.lastAccountID, f.lastPrefs = accountID, &prefs
	return f.account, f.err
}

func (f *fakeAccountService) ListTags(_ context.Context) ([]domain.Tag, error) {
	return f.tags, f.err
}

func (f *fakeAccountService) ListZones(_ context.Context) ([]domain.Zone, error) {
	return f.zones, f.err
}

func (f *fakeAccountService) AddTag(_ context.Context, accountID, title string) (*domain.Tag, error) {
	f.lastCall, f.lastAccountID, f.lastArg = "add-tag", accountID, title
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Tag{ID: "tag-1", Title: title}, nil
}

func (f *fakeAccountService) RemoveTag(_ context.Context, accountID, tagID string) error {
	f.lastCall, f.lastAccountID, f.lastArg = "remove-tag", accountID, tagID
	return f.err
}

func (f *fakeAccountService) AddZone(_ context.Context, accountID, zoneID string) error {
	f.lastCall, f.lastAccountID, f.lastArg = "add-zone", accountID, zoneID
	return f.err
}

func (f *fakeAccountService) RemoveZone(_ context.Context, accountID, zoneID string) error {
	f.lastCall, f.lastAccountID, f.lastArg = "remove-zone", accountID, zoneID
	return f.err
}
