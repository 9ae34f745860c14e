package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
	"github.com/leadsight/visitor-analytics-service/internal/dto"
	"github.com/leadsight/visitor-analytics-service/internal/identity"
	"github.com/leadsight/visitor-analytics-service/internal/repository"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type mockVisitorRepo struct {
	mock.Mock
}

func (m *mockVisitorRepo) GetByIdentityKey(ctx context.Context, key string) (*domain.Visitor, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.(*domain.Visitor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVisitorRepo) Insert(ctx context.Context, visitor *domain.Visitor) error {
	args := m.Called(ctx, visitor)
	return args.Error(0)
}

func (m *mockVisitorRepo) UpdateOnVisit(ctx context.Context, visitor *domain.Visitor) error {
	args := m.Called(ctx, visitor)
	return args.Error(0)
}

func (m *mockVisitorRepo) ApplyMetrics(ctx context.Context, visitorID string, update repository.MetricsUpdate) error {
	args := m.Called(ctx, visitorID, update)
	return args.Error(0)
}

func (m *mockVisitorRepo) List(ctx context.Context, query repository.VisitorQuery) ([]*domain.Visitor, error) {
	args := m.Called(ctx, query)
	if v := args.Get(0); v != nil {
		return v.([]*domain.Visitor), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindOpen(ctx context.Context, visitorID string, cutoff time.Time) (*domain.Session, error) {
	args := m.Called(ctx, visitorID, cutoff)
	if v := args.Get(0); v != nil {
		return v.(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) Insert(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) RecordEvent(ctx context.Context, sessionID string, timeSpent, pagesCount int) error {
	args := m.Called(ctx, sessionID, timeSpent, pagesCount)
	return args.Error(0)
}

func (m *mockSessionRepo) SumDurations(ctx context.Context, visitorID string) (int, error) {
	args := m.Called(ctx, visitorID)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) CountSince(ctx context.Context, visitorID string, since time.Time) (int, error) {
	args := m.Called(ctx, visitorID, since)
	return args.Int(0), args.Error(1)
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Insert(ctx context.Context, event *domain.PageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockEventRepo) URLCountsByVisitor(ctx context.Context, visitorID string) ([]repository.URLCount, error) {
	args := m.Called(ctx, visitorID)
	if v := args.Get(0); v != nil {
		return v.([]repository.URLCount), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) Lookup(ctx context.Context, ip string) domain.GeoData {
	args := m.Called(ctx, ip)
	return args.Get(0).(domain.GeoData)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishArchiveEvent(ctx context.Context, event *domain.ArchiveEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func humanHeaders() map[string]string {
	return map[string]string{
		"user-agent":      chromeUA,
		"x-forwarded-for": "203.0.113.7",
	}
}

func newTestService(visitors repository.VisitorRepository, sessions repository.SessionRepository, events repository.PageEventRepository, locator *mockLocator, publisher *mockPublisher) *Service {
	svc := NewService(visitors, sessions, events, locator, nil, identity.Policy{Salt: "test-salt"}, zap.NewNop())
	if publisher != nil {
		svc.publisher = publisher
	}
	return svc
}

func TestTrack_BotIgnored(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)

	svc := newTestService(visitors, sessions, events, locator, nil)

	headers := map[string]string{"user-agent": "Mozilla/5.0 (compatible; Googlebot/2.1)"}
	result, err := svc.Track(context.Background(), &dto.TrackRequest{PageURL: "https://example.com/pricing", EventType: "page_view"}, headers, "192.0.2.1")

	assert.NoError(t, err)
	assert.Equal(t, StatusIgnored, result.Status)
	visitors.AssertNotCalled(t, "GetByIdentityKey", mock.Anything, mock.Anything)
	locator.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestTrack_UnresolvableIP(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)

	svc := newTestService(visitors, sessions, events, locator, nil)

	result, err := svc.Track(context.Background(), &dto.TrackRequest{PageURL: "https://example.com/pricing", EventType: "page_view"}, map[string]string{"user-agent": chromeUA}, "")

	assert.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	visitors.AssertNotCalled(t, "GetByIdentityKey", mock.Anything, mock.Anything)
}

func TestTrack_FirstEventCreatesVisitorAndSession(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)
	publisher := new(mockPublisher)

	expectedKey := identity.StorageKey("203.0.113.7", identity.Policy{Salt: "test-salt"})

	locator.On("Lookup", mock.Anything, "203.0.113.7").Return(domain.GeoData{Country: "DE", City: "Berlin"})
	visitors.On("GetByIdentityKey", mock.Anything, expectedKey).Return(nil, nil)
	visitors.On("Insert", mock.Anything, mock.MatchedBy(func(v *domain.Visitor) bool {
		return v.IdentityKey == expectedKey && v.VisitCount == 1 && v.HeatLevel == domain.HeatCold && v.Country == "DE"
	})).Return(nil)
	sessions.On("FindOpen", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	sessions.On("Insert", mock.Anything, mock.Anything).Return(nil)
	events.On("Insert", mock.Anything, mock.MatchedBy(func(e *domain.PageEvent) bool {
		return e.PageURL == "https://example.com/pricing" && e.EventType == "page_view"
	})).Return(nil)
	events.On("CountBySession", mock.Anything, mock.Anything).Return(1, nil)
	sessions.On("RecordEvent", mock.Anything, mock.Anything, 30, 1).Return(nil)
	sessions.On("CountSince", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	sessions.On("SumDurations", mock.Anything, mock.Anything).Return(30, nil)
	events.On("URLCountsByVisitor", mock.Anything, mock.Anything).Return([]repository.URLCount{{PageURL: "https://example.com/pricing", Count: 1}}, nil)
	visitors.On("ApplyMetrics", mock.Anything, mock.Anything, mock.MatchedBy(func(u repository.MetricsUpdate) bool {
		return u.IntentDelta == 50 &&
			u.EngagementDelta == 50 &&
			u.HeatLevel == domain.HeatWarm &&
			u.AvgSessionDuration == 30 &&
			u.PagesPerSession == 1 &&
			u.MostVisitedPage == "https://example.com/pricing"
	})).Return(nil)
	publisher.On("PublishArchiveEvent", mock.Anything, mock.MatchedBy(func(e *domain.ArchiveEvent) bool {
		return e.IsNewVisitor && e.IsNewSession && e.IntentDelta == 50 && e.EngagementDelta == 50
	})).Return(nil)

	svc := newTestService(visitors, sessions, events, locator, publisher)

	req := &dto.TrackRequest{
		PageURL:     "https://example.com/pricing",
		EventType:   "page_view",
		TimeSpent:   30,
		ScrollDepth: 80,
		ClickTarget: "button.signup",
	}
	result, err := svc.Track(context.Background(), req, humanHeaders(), "192.0.2.1")

	assert.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 50, result.IntentDelta)
	assert.Equal(t, 50, result.EngagementDelta)
	visitors.AssertExpectations(t)
	sessions.AssertExpectations(t)
	events.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTrack_ReturningVisitorReusesOpenSession(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)

	existing := &domain.Visitor{
		ID:          uuid.NewString(),
		IdentityKey: "key",
		VisitCount:  3,
		IntentScore: 40,
		HeatLevel:   domain.HeatWarm,
	}
	openSession := &domain.Session{ID: uuid.NewString(), VisitorID: existing.ID, SessionStart: time.Now().Add(-5 * time.Minute)}

	locator.On("Lookup", mock.Anything, mock.Anything).Return(domain.GeoData{})
	visitors.On("GetByIdentityKey", mock.Anything, mock.Anything).Return(existing, nil)
	visitors.On("UpdateOnVisit", mock.Anything, mock.Anything).Return(nil)
	sessions.On("FindOpen", mock.Anything, existing.ID, mock.Anything).Return(openSession, nil)
	events.On("Insert", mock.Anything, mock.MatchedBy(func(e *domain.PageEvent) bool {
		return e.SessionID == openSession.ID
	})).Return(nil)
	events.On("CountBySession", mock.Anything, openSession.ID).Return(4, nil)
	sessions.On("RecordEvent", mock.Anything, openSession.ID, 10, 4).Return(nil)
	sessions.On("CountSince", mock.Anything, existing.ID, mock.Anything).Return(2, nil)
	sessions.On("SumDurations", mock.Anything, existing.ID).Return(300, nil)
	events.On("URLCountsByVisitor", mock.Anything, existing.ID).Return([]repository.URLCount{
		{PageURL: "https://example.com/products", Count: 3},
		{PageURL: "https://example.com/pricing", Count: 1},
	}, nil)
	// returning 15 + multiple sessions this week 25 + product page 20
	visitors.On("ApplyMetrics", mock.Anything, existing.ID, mock.MatchedBy(func(u repository.MetricsUpdate) bool {
		return u.IntentDelta == 25 &&
			u.EngagementDelta == 60 &&
			u.HeatLevel == domain.HeatWarm &&
			u.AvgSessionDuration == 100 &&
			u.PagesPerSession == 1.33 &&
			u.MostVisitedPage == "https://example.com/products"
	})).Return(nil)

	svc := newTestService(visitors, sessions, events, locator, nil)

	req := &dto.TrackRequest{PageURL: "https://example.com/products", EventType: "page_view", TimeSpent: 10}
	result, err := svc.Track(context.Background(), req, humanHeaders(), "192.0.2.1")

	assert.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, openSession.ID, result.SessionID)
	sessions.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	visitors.AssertExpectations(t)
}

func TestTrack_SessionIdleWindowCutoff(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)

	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	existing := &domain.Visitor{ID: uuid.NewString(), VisitCount: 2}

	locator.On("Lookup", mock.Anything, mock.Anything).Return(domain.GeoData{})
	visitors.On("GetByIdentityKey", mock.Anything, mock.Anything).Return(existing, nil)
	visitors.On("UpdateOnVisit", mock.Anything, mock.Anything).Return(nil)
	// The open-session lookup must use now minus the 30 minute idle window.
	sessions.On("FindOpen", mock.Anything, existing.ID, now.Add(-domain.SessionIdleWindow)).Return(nil, nil)
	sessions.On("Insert", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.SessionStart.Equal(now) && s.SessionEnd == nil
	})).Return(nil)
	events.On("Insert", mock.Anything, mock.Anything).Return(nil)
	events.On("CountBySession", mock.Anything, mock.Anything).Return(1, nil)
	sessions.On("RecordEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("CountSince", mock.Anything, existing.ID, now.Add(-returningWindow)).Return(1, nil)
	sessions.On("SumDurations", mock.Anything, existing.ID).Return(0, nil)
	events.On("URLCountsByVisitor", mock.Anything, existing.ID).Return(nil, nil)
	visitors.On("ApplyMetrics", mock.Anything, existing.ID, mock.Anything).Return(nil)

	svc := newTestService(visitors, sessions, events, locator, nil)
	svc.now = func() time.Time { return now }

	req := &dto.TrackRequest{PageURL: "https://example.com/", EventType: "page_view"}
	result, err := svc.Track(context.Background(), req, humanHeaders(), "192.0.2.1")

	assert.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	sessions.AssertExpectations(t)
}

func TestTrack_ArchivePublishFailureDoesNotFailRequest(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)
	publisher := new(mockPublisher)

	locator.On("Lookup", mock.Anything, mock.Anything).Return(domain.GeoData{})
	visitors.On("GetByIdentityKey", mock.Anything, mock.Anything).Return(nil, nil)
	visitors.On("Insert", mock.Anything, mock.Anything).Return(nil)
	sessions.On("FindOpen", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	sessions.On("Insert", mock.Anything, mock.Anything).Return(nil)
	events.On("Insert", mock.Anything, mock.Anything).Return(nil)
	events.On("CountBySession", mock.Anything, mock.Anything).Return(1, nil)
	sessions.On("RecordEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("CountSince", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	sessions.On("SumDurations", mock.Anything, mock.Anything).Return(0, nil)
	events.On("URLCountsByVisitor", mock.Anything, mock.Anything).Return(nil, nil)
	visitors.On("ApplyMetrics", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	publisher.On("PublishArchiveEvent", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestService(visitors, sessions, events, locator, publisher)

	result, err := svc.Track(context.Background(), &dto.TrackRequest{PageURL: "https://example.com/", EventType: "page_view"}, humanHeaders(), "192.0.2.1")

	assert.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	publisher.AssertExpectations(t)
}

func TestTrack_VisitorStoreFailureReturnsError(t *testing.T) {
	visitors := new(mockVisitorRepo)
	sessions := new(mockSessionRepo)
	events := new(mockEventRepo)
	locator := new(mockLocator)

	locator.On("Lookup", mock.Anything, mock.Anything).Return(domain.GeoData{})
	visitors.On("GetByIdentityKey", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	svc := newTestService(visitors, sessions, events, locator, nil)

	result, err := svc.Track(context.Background(), &dto.TrackRequest{PageURL: "https://example.com/", EventType: "page_view"}, humanHeaders(), "192.0.2.1")

	assert.Error(t, err)
	assert.Nil(t, result)
}

// fakeStore is a naive read-modify-write in-memory store. It has no locking of
// its own, so lost updates would show up if the service did not serialize
// writes per identity key.
type fakeStore struct {
	visitor  *domain.Visitor
	sessions []*domain.Session
	events   []*domain.PageEvent
}

func (f *fakeStore) GetByIdentityKey(_ context.Context, key string) (*domain.Visitor, error) {
	if f.visitor == nil || f.visitor.IdentityKey != key {
		return nil, nil
	}
	copied := *f.visitor
	return &copied, nil
}

func (f *fakeStore) Insert(_ context.Context, visitor *domain.Visitor) error {
	copied := *visitor
	f.visitor = &copied
	return nil
}

func (f *fakeStore) UpdateOnVisit(_ context.Context, visitor *domain.Visitor) error {
	f.visitor.VisitCount++
	f.visitor.LastVisitDate = visitor.LastVisitDate
	return nil
}

func (f *fakeStore) ApplyMetrics(_ context.Context, _ string, update repository.MetricsUpdate) error {
	f.visitor.IntentScore += update.IntentDelta
	f.visitor.EngagementScore += update.EngagementDelta
	f.visitor.TotalTimeSpent += update.TimeSpentDelta
	f.visitor.HeatLevel = update.HeatLevel
	return nil
}

func (f *fakeStore) List(_ context.Context, _ repository.VisitorQuery) ([]*domain.Visitor, error) {
	return nil, nil
}

func (f *fakeStore) FindOpen(_ context.Context, visitorID string, cutoff time.Time) (*domain.Session, error) {
	for i := len(f.sessions) - 1; i >= 0; i-- {
		s := f.sessions[i]
		if s.VisitorID == visitorID && s.SessionEnd == nil && !s.SessionStart.Before(cutoff) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertSession(_ context.Context, session *domain.Session) error {
	copied := *session
	f.sessions = append(f.sessions, &copied)
	return nil
}

func (f *fakeStore) RecordEvent(_ context.Context, _ string, _, _ int) error { return nil }

func (f *fakeStore) SumDurations(_ context.Context, _ string) (int, error) { return 0, nil }

func (f *fakeStore) CountSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return len(f.sessions), nil
}

func (f *fakeStore) InsertEvent(_ context.Context, event *domain.PageEvent) error {
	copied := *event
	f.events = append(f.events, &copied)
	return nil
}

func (f *fakeStore) CountBySession(_ context.Context, _ string) (int, error) {
	return len(f.events), nil
}

func (f *fakeStore) URLCountsByVisitor(_ context.Context, _ string) ([]repository.URLCount, error) {
	return nil, nil
}

type fakeSessions struct{ *fakeStore }

func (f fakeSessions) Insert(ctx context.Context, session *domain.Session) error {
	return f.InsertSession(ctx, session)
}

type fakeEvents struct{ *fakeStore }

func (f fakeEvents) Insert(ctx context.Context, event *domain.PageEvent) error {
	return f.InsertEvent(ctx, event)
}

func TestTrack_ConcurrentEventsLoseNoScoreUpdates(t *testing.T) {
	store := &fakeStore{}
	locator := new(mockLocator)
	locator.On("Lookup", mock.Anything, mock.Anything).Return(domain.GeoData{})

	svc := NewService(store, fakeSessions{store}, fakeEvents{store}, locator, nil, identity.Policy{Salt: "test-salt"}, zap.NewNop())

	const workers = 8
	const eventsPerWorker = 5

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerWorker; j++ {
				req := &dto.TrackRequest{PageURL: "https://example.com/pricing", EventType: "page_view", TimeSpent: 2}
				_, err := svc.Track(context.Background(), req, humanHeaders(), "192.0.2.1")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	// Every event contributes its full intent delta; none are lost to
	// concurrent read-modify-write interleavings.
	assert.Equal(t, workers*eventsPerWorker*50, store.visitor.IntentScore)
	assert.Equal(t, workers*eventsPerWorker, store.visitor.VisitCount)
	assert.Equal(t, workers*eventsPerWorker*2, store.visitor.TotalTimeSpent)
}
