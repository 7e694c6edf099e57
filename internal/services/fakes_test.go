package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"studyhub/internal/domain"
)

// memStore is an in-memory stand-in for the database. Events and enrollments are
// stored as separate rows and joined on read, like the postgres repositories do.
type memStore struct {
	mu            sync.Mutex
	seq           int
	studies       map[string]*domain.Study
	events        map[string]*domain.Event
	enrollments   map[string]*domain.Enrollment
	accounts      map[string]*domain.Account
	notifications []*domain.Notification
	tags          []domain.Tag
	zones         []domain.Zone
	failNotifyFor string
}

func newMemStore() *memStore {
	return &memStore{
		studies:     make(map[string]*domain.Study),
		events:      make(map[string]*domain.Event),
		enrollments: make(map[string]*domain.Enrollment),
		accounts:    make(map[string]*domain.Account),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

func copyStudy(s *domain.Study) *domain.Study {
	c := *s
	c.ManagerIDs = slices.Clone(s.ManagerIDs)
	c.MemberIDs = slices.Clone(s.MemberIDs)
	c.Tags = slices.Clone(s.Tags)
	c.Zones = slices.Clone(s.Zones)
	return &c
}

// must hold m.mu
func (m *memStore) assemble(ev *domain.Event) *domain.Event {
	c := *ev
	c.Enrollments = []*domain.Enrollment{}
	for _, en := range m.enrollments {
		if en.EventID == ev.ID {
			cp := *en
			c.Enrollments = append(c.Enrollments, &cp)
		}
	}
	sort.Slice(c.Enrollments, func(i, j int) bool {
		a, b := c.Enrollments[i], c.Enrollments[j]
		if !a.EnrolledAt.Equal(b.EnrolledAt) {
			return a.EnrolledAt.Before(b.EnrolledAt)
		}
		return a.ID < b.ID
	})
	return &c
}

func (m *memStore) addAccount(acc *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.ID] = acc
}

func (m *memStore) addStudy(s *domain.Study) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studies[s.ID] = s
}

func (m *memStore) addEvent(ev *domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *ev
	c.Enrollments = nil
	m.events[ev.ID] = &c
}

func (m *memStore) eventSnapshot(id string) *domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil
	}
	return m.assemble(ev)
}

func (m *memStore) notificationsFor(accountID string) []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Notification
	for _, n := range m.notifications {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out
}

type memTransactor struct{}

func (memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memStudyRepo struct{ *memStore }

func (r memStudyRepo) Create(ctx context.Context, s *domain.Study) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.studies {
		if existing.Path == s.Path {
			return domain.ErrDuplicatePath
		}
	}
	s.ID = r.nextID("st")
	r.studies[s.ID] = copyStudy(s)
	return nil
}

func (r memStudyRepo) GetByPath(ctx context.Context, path string) (*domain.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.studies {
		if s.Path == path {
			return copyStudy(s), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memStudyRepo) GetByID(ctx context.Context, id string) (*domain.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.studies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyStudy(s), nil
}

func (r memStudyRepo) ExistsByPath(ctx context.Context, path string) (bool, error) {
	_, err := r.GetByPath(ctx, path)
	return err == nil, nil
}

func (r memStudyRepo) UpdateLifecycle(ctx context.Context, s *domain.Study) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.studies[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Published, stored.PublishedAt = s.Published, s.PublishedAt
	stored.Closed, stored.ClosedAt = s.Closed, s.ClosedAt
	stored.Recruiting, stored.RecruitingUpdatedAt = s.Recruiting, s.RecruitingUpdatedAt
	return nil
}

func (r memStudyRepo) AddMember(ctx context.Context, studyID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.studies[studyID].MemberIDs = append(r.studies[studyID].MemberIDs, accountID)
	return nil
}

func (r memStudyRepo) RemoveMember(ctx context.Context, studyID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.studies[studyID]
	s.MemberIDs = slices.DeleteFunc(s.MemberIDs, func(id string) bool { return id == accountID })
	return nil
}

func (r memStudyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.studies, id)
	return nil
}

type memEventRepo struct{ *memStore }

func (r memEventRepo) Create(ctx context.Context, ev *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = r.nextID("ev")
	c := *ev
	c.Enrollments = nil
	r.events[ev.ID] = &c
	return nil
}

func (r memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.assemble(ev), nil
}

func (r memEventRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r memEventRepo) ListByStudyID(ctx context.Context, studyID string) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, ev := range r.events {
		if ev.StudyID == studyID {
			out = append(out, r.assemble(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (r memEventRepo) Update(ctx context.Context, ev *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[ev.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *ev
	c.Enrollments = nil
	r.events[ev.ID] = &c
	return nil
}

func (r memEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	for enID, en := range r.enrollments {
		if en.EventID == id {
			delete(r.enrollments, enID)
		}
	}
	return nil
}

type memEnrollmentRepo struct{ *memStore }

func (r memEnrollmentRepo) Create(ctx context.Context, en *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.enrollments {
		if existing.EventID == en.EventID && existing.AccountID == en.AccountID {
			return fmt.Errorf("duplicate enrollment %s/%s", en.EventID, en.AccountID)
		}
	}
	en.ID = r.nextID("en")
	c := *en
	r.enrollments[en.ID] = &c
	return nil
}

func (r memEnrollmentRepo) Update(ctx context.Context, en *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.enrollments[en.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Accepted, stored.Attended = en.Accepted, en.Attended
	return nil
}

func (r memEnrollmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.enrollments, id)
	return nil
}

func (r memEnrollmentRepo) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	en, ok := r.enrollments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *en
	return &c, nil
}

func (r memEnrollmentRepo) GetByEventAndAccount(ctx context.Context, eventID, accountID string) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, en := range r.enrollments {
		if en.EventID == eventID && en.AccountID == accountID {
			c := *en
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memEnrollmentRepo) ExistsByEventAndAccount(ctx context.Context, eventID, accountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, en := range r.enrollments {
		if en.EventID == eventID && en.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (r memEnrollmentRepo) ListByAccountID(ctx context.Context, accountID string) ([]*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Enrollment
	for _, en := range r.enrollments {
		if en.AccountID == accountID {
			c := *en
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memAccountRepo struct{ *memStore }

func (r memAccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc.ID = r.nextID("acc")
	c := *acc
	r.accounts[acc.ID] = &c
	return nil
}

func (r memAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *acc
	return &c, nil
}

func (r memAccountRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, id := range ids {
		if acc, err := r.GetByID(ctx, id); err == nil {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r memAccountRepo) FindByTagsOrZones(ctx context.Context, tagIDs, zoneIDs []string) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, acc := range r.accounts {
		match := slices.ContainsFunc(acc.Tags, func(t domain.Tag) bool { return slices.Contains(tagIDs, t.ID) }) ||
			slices.ContainsFunc(acc.Zones, func(z domain.Zone) bool { return slices.Contains(zoneIDs, z.ID) })
		if match {
			c := *acc
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAccountRepo) UpdatePreferences(ctx context.Context, accountID string, prefs domain.NotificationPreferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	acc.Preferences = prefs
	return nil
}

type memNotificationRepo struct{ *memStore }

func (r memNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.AccountID == r.failNotifyFor {
		return fmt.Errorf("insert notification: connection reset")
	}
	n.ID = r.nextID("nt")
	r.notifications = append(r.notifications, n)
	return nil
}

func (r memNotificationRepo) CountByAccountAndChecked(ctx context.Context, accountID string, checked bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, nt := range r.notifications {
		if nt.AccountID == accountID && nt.Checked == checked {
			n++
		}
	}
	return n, nil
}

func (r memNotificationRepo) ListByAccountAndChecked(ctx context.Context, accountID string, checked bool, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		nt := r.notifications[i]
		if nt.AccountID == accountID && nt.Checked == checked {
			all = append(all, nt)
		}
	}
	start := min(params.Offset(), len(all))
	end := min(start+params.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (r memNotificationRepo) MarkAsRead(ctx context.Context, accountID string, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, nt := range r.notifications {
		if nt.AccountID == accountID && !nt.Checked && slices.Contains(ids, nt.ID) {
			nt.Checked = true
			n++
		}
	}
	return n, nil
}

func (r memNotificationRepo) DeleteByAccountAndChecked(ctx context.Context, accountID string, checked bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.notifications)
	r.notifications = slices.DeleteFunc(r.notifications, func(nt *domain.Notification) bool {
		return nt.AccountID == accountID && nt.Checked == checked
	})
	return before - len(r.notifications), nil
}

// recordingPublisher captures published domain events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.EventName())
	}
	return out
}

// tickingClock returns base, base+1s, base+2s, ... on successive calls.
type tickingClock struct {
	mu   sync.Mutex
	base time.Time
	n    int
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * time.Second)
	c.n++
	return t
}

type sentEmail struct {
	to   string
	data domain.SimpleLinkEmailData
}

type recordingEmailService struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *recordingEmailService) SendSimpleLink(ctx context.Context, to string, data *domain.SimpleLinkEmailData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{to: to, data: *data})
	return nil
}

type memTagRepo struct{ *memStore }

func (r memTagRepo) EnsureTag(ctx context.Context, title string) (*domain.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.Title == title {
			return &t, nil
		}
	}
	t := domain.Tag{ID: r.nextID("tag"), Title: title}
	r.tags = append(r.tags, t)
	return &t, nil
}

func (r memTagRepo) ListTags(ctx context.Context) ([]domain.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tags), nil
}

func (r memTagRepo) ListZones(ctx context.Context) ([]domain.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.zones), nil
}

func (r memTagRepo) AddAccountTag(ctx context.Context, accountID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	i := slices.IndexFunc(r.tags, func(t domain.Tag) bool { return t.ID == tagID })
	if !ok || i < 0 {
		return domain.ErrNotFound
	}
	if !slices.ContainsFunc(acc.Tags, func(t domain.Tag) bool { return t.ID == tagID }) {
		acc.Tags = append(acc.Tags, r.tags[i])
	}
	return nil
}

func (r memTagRepo) RemoveAccountTag(ctx context.Context, accountID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	if !ok || !slices.ContainsFunc(acc.Tags, func(t domain.Tag) bool { return t.ID == tagID }) {
		return domain.ErrNotFound
	}
	acc.Tags = slices.DeleteFunc(slices.Clone(acc.Tags), func(t domain.Tag) bool { return t.ID == tagID })
	return nil
}

func (r memTagRepo) AddAccountZone(ctx context.Context, accountID, zoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	i := slices.IndexFunc(r.zones, func(z domain.Zone) bool { return z.ID == zoneID })
	if !ok || i < 0 {
		return domain.ErrNotFound
	}
	if !slices.ContainsFunc(acc.Zones, func(z domain.Zone) bool { return z.ID == zoneID }) {
		acc.Zones = append(acc.Zones, r.zones[i])
	}
	return nil
}

func (r memTagRepo) RemoveAccountZone(ctx context.Context, accountID, zoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	if !ok || !slices.ContainsFunc(acc.Zones, func(z domain.Zone) bool { return z.ID == zoneID }) {
		return domain.ErrNotFound
	}
	acc.Zones = slices.DeleteFunc(slices.Clone(acc.Zones), func(z domain.Zone) bool { return z.ID == zoneID })
	return nil
}
