// Package tracker orchestrates the visitor resolution and scoring pipeline:
// classify traffic, resolve a privacy-preserving identity key, stitch the
// event onto a session, persist it, and fold the scoring deltas into the
// visitor's cumulative profile.
package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/classifier"
	"github.com/leadsight/visitor-analytics-service/internal/domain"
	"github.com/leadsight/visitor-analytics-service/internal/dto"
	"github.com/leadsight/visitor-analytics-service/internal/geo"
	"github.com/leadsight/visitor-analytics-service/internal/identity"
	"github.com/leadsight/visitor-analytics-service/internal/queue"
	"github.com/leadsight/visitor-analytics-service/internal/repository"
	"github.com/leadsight/visitor-analytics-service/internal/scoring"
)

const returningWindow = 7 * 24 * time.Hour

// Service implements Tracker
type Service struct {
	visitors  repository.VisitorRepository
	sessions  repository.SessionRepository
	events    repository.PageEventRepository
	locator   geo.Locator
	publisher queue.ArchivePublisher
	policy    identity.Policy
	locks     keyLock
	now       func() time.Time
	log       *zap.Logger
}

// NewService creates a new tracking service. publisher may be nil when no
// archive queue is configured.
func NewService(
	visitors repository.VisitorRepository,
	sessions repository.SessionRepository,
	events repository.PageEventRepository,
	locator geo.Locator,
	publisher queue.ArchivePublisher,
	policy identity.Policy,
	log *zap.Logger,
) *Service {
	return &Service{
		visitors:  visitors,
		sessions:  sessions,
		events:    events,
		locator:   locator,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
		log:       log,
	}
}

// Track processes a single tracked event through the full pipeline. Bots and
// unresolvable IPs return a non-error result; store failures return an error.
func (s *Service) Track(ctx context.Context, req *dto.TrackRequest, headers map[string]string, remoteAddr string) (*Result, error) {
	userAgent := headers["user-agent"]

	if classifier.IsSuspicious(userAgent) {
		s.log.Warn("Suspicious user agent detected",
			zap.String("user_agent", userAgent),
			zap.String("page_url", req.PageURL))
	}

	if classifier.IsBot(userAgent) {
		s.log.Info("Bot detected, ignoring event", zap.String("user_agent", userAgent))
		return &Result{Status: StatusIgnored, Message: "Bot detected"}, nil
	}

	ipAddress := identity.ResolveClientIP(headers, remoteAddr)
	if ipAddress == identity.UnknownIP {
		s.log.Warn("Could not determine client IP")
		return &Result{Status: StatusError, Message: "IP address not found"}, nil
	}

	deviceInfo := classifier.ParseUserAgent(userAgent)
	referrer := resolveReferrer(headers)
	screenResolution := headers["x-screen-resolution"]

	// Best effort: the locator degrades to empty geo data on failure.
	geoData := s.locator.Lookup(ctx, ipAddress)

	identityKey := identity.StorageKey(ipAddress, s.policy)

	// Serialize the read-modify-write section per identity key so concurrent
	// events for the same visitor cannot lose score updates.
	unlock := s.locks.lock(identityKey)
	defer unlock()

	now := s.now()

	visitor, isNewVisitor, err := s.resolveVisitor(ctx, identityKey, geoData, deviceInfo, referrer, req, screenResolution, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visitor: %w", err)
	}

	session, isNewSession, err := s.resolveSession(ctx, visitor.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	event := &domain.PageEvent{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		PageURL:     req.PageURL,
		EventType:   req.EventType,
		ScrollDepth: req.ScrollDepth,
		ClickTarget: req.ClickTarget,
		TimeSpent:   req.TimeSpent,
		Timestamp:   now,
		CreatedAt:   now,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist page event: %w", err)
	}

	if err := s.updateSessionStats(ctx, session.ID, req.TimeSpent); err != nil {
		// Already-committed writes are not rolled back; the next event from
		// the same visitor corrects the derived stats.
		s.log.Error("Failed to update session stats",
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	isReturning := !isNewVisitor
	sessionsIn7Days, err := s.sessions.CountSince(ctx, visitor.ID, now.Add(-returningWindow))
	if err != nil {
		s.log.Error("Failed to count recent sessions",
			zap.String("visitor_id", visitor.ID),
			zap.Error(err))
		sessionsIn7Days = 0
	}

	intentDelta := scoring.IntentDelta(req.PageURL)
	engagementDelta := scoring.EngagementDelta(req.ScrollDepth, req.ClickTarget, req.PageURL, isReturning, sessionsIn7Days)

	if err := s.applyAndRecompute(ctx, visitor, intentDelta, engagementDelta, req.TimeSpent); err != nil {
		return nil, fmt.Errorf("failed to update visitor metrics: %w", err)
	}

	s.archive(ctx, event, visitor, session, req, geoData, deviceInfo, referrer, intentDelta, engagementDelta, isNewVisitor, isNewSession)

	return &Result{
		Status:          StatusSuccess,
		VisitorID:       visitor.ID,
		SessionID:       session.ID,
		IntentDelta:     intentDelta,
		EngagementDelta: engagementDelta,
	}, nil
}

func resolveReferrer(headers map[string]string) string {
	if ref := headers["referer"]; ref != "" {
		return ref
	}
	return headers["referrer"]
}

// resolveVisitor looks up the visitor by identity key, creating a fresh row
// on first contact and applying the non-null-wins attribute merge otherwise.
func (s *Service) resolveVisitor(
	ctx context.Context,
	identityKey string,
	geoData domain.GeoData,
	deviceInfo domain.DeviceInfo,
	referrer string,
	req *dto.TrackRequest,
	screenResolution string,
	now time.Time,
) (*domain.Visitor, bool, error) {
	existing, err := s.visitors.GetByIdentityKey(ctx, identityKey)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		visitor := &domain.Visitor{
			ID:                    uuid.NewString(),
			IdentityKey:           identityKey,
			Country:               geoData.Country,
			Region:                geoData.Region,
			City:                  geoData.City,
			Timezone:              geoData.Timezone,
			DeviceType:            deviceInfo.DeviceType,
			Browser:               deviceInfo.Browser,
			OS:                    deviceInfo.OS,
			ScreenResolution:      screenResolution,
			Referrer:              referrer,
			UTMSource:             req.UTMSource,
			UTMMedium:             req.UTMMedium,
			UTMCampaign:           req.UTMCampaign,
			PrimaryReferralSource: referrer,
			FirstVisitDate:        now,
			LastVisitDate:         now,
			VisitCount:            1,
			HeatLevel:             domain.HeatCold,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := s.visitors.Insert(ctx, visitor); err != nil {
			return nil, false, err
		}
		return visitor, true, nil
	}

	merged := *existing
	merged.LastVisitDate = now
	merged.Country = geoData.Country
	merged.Region = geoData.Region
	merged.City = geoData.City
	merged.Timezone = geoData.Timezone
	merged.DeviceType = deviceInfo.DeviceType
	merged.Browser = deviceInfo.Browser
	merged.OS = deviceInfo.OS
	merged.ScreenResolution = screenResolution
	merged.Referrer = referrer
	merged.UTMSource = req.UTMSource
	merged.UTMMedium = req.UTMMedium
	merged.UTMCampaign = req.UTMCampaign

	if err := s.visitors.UpdateOnVisit(ctx, &merged); err != nil {
		return nil, false, err
	}

	// Refetch so the caller sees the merged row, not the incoming values.
	updated, err := s.visitors.GetByIdentityKey(ctx, identityKey)
	if err != nil {
		return nil, false, err
	}
	if updated == nil {
		return nil, false, fmt.Errorf("visitor %s disappeared during update", identityKey)
	}
	return updated, false, nil
}

// resolveSession reuses the visitor's open session when one started within
// the idle window, and creates a new one otherwise. Closure is implicit: no
// timer ever marks a session closed.
func (s *Service) resolveSession(ctx context.Context, visitorID string, now time.Time) (*domain.Session, bool, error) {
	cutoff := now.Add(-domain.SessionIdleWindow)

	existing, err := s.sessions.FindOpen(ctx, visitorID, cutoff)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	session := &domain.Session{
		ID:           uuid.NewString(),
		VisitorID:    visitorID,
		SessionStart: now,
		CreatedAt:    now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func (s *Service) updateSessionStats(ctx context.Context, sessionID string, timeSpent int) error {
	pagesCount, err := s.events.CountBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.sessions.RecordEvent(ctx, sessionID, timeSpent, pagesCount)
}

// applyAndRecompute adds the deltas to the visitor's cumulative counters and
// recomputes the derived statistics from the session and event history.
func (s *Service) applyAndRecompute(ctx context.Context, visitor *domain.Visitor, intentDelta, engagementDelta, timeSpent int) error {
	newIntent := visitor.IntentScore + intentDelta

	totalDuration, err := s.sessions.SumDurations(ctx, visitor.ID)
	if err != nil {
		return err
	}

	visitCount := visitor.VisitCount
	if visitCount < 1 {
		visitCount = 1
	}
	avgDuration := totalDuration / visitCount

	urlCounts, err := s.events.URLCountsByVisitor(ctx, visitor.ID)
	if err != nil {
		return err
	}

	mostVisited := ""
	totalPages := 0
	for i, c := range urlCounts {
		if i == 0 {
			mostVisited = c.PageURL
		}
		totalPages += c.Count
	}
	pagesPerSession := math.Round(float64(totalPages)/float64(visitCount)*100) / 100

	return s.visitors.ApplyMetrics(ctx, visitor.ID, repository.MetricsUpdate{
		IntentDelta:        intentDelta,
		EngagementDelta:    engagementDelta,
		TimeSpentDelta:     timeSpent,
		HeatLevel:          scoring.HeatLevel(newIntent),
		AvgSessionDuration: avgDuration,
		PagesPerSession:    pagesPerSession,
		MostVisitedPage:    mostVisited,
	})
}

// archive publishes the enriched event to the archive queue. Best effort:
// failures are logged and never fail the tracking request.
func (s *Service) archive(
	ctx context.Context,
	event *domain.PageEvent,
	visitor *domain.Visitor,
	session *domain.Session,
	req *dto.TrackRequest,
	geoData domain.GeoData,
	deviceInfo domain.DeviceInfo,
	referrer string,
	intentDelta, engagementDelta int,
	isNewVisitor, isNewSession bool,
) {
	if s.publisher == nil {
		return
	}

	archiveEvent := &domain.ArchiveEvent{
		EventID:         event.ID,
		VisitorID:       visitor.ID,
		SessionID:       session.ID,
		PageURL:         req.PageURL,
		EventType:       req.EventType,
		ScrollDepth:     int32(req.ScrollDepth),
		ClickTarget:     req.ClickTarget,
		TimeSpent:       int32(req.TimeSpent),
		IntentDelta:     int32(intentDelta),
		EngagementDelta: int32(engagementDelta),
		Country:         geoData.Country,
		DeviceType:      deviceInfo.DeviceType,
		Browser:         deviceInfo.Browser,
		OS:              deviceInfo.OS,
		Referrer:        referrer,
		UTMSource:       req.UTMSource,
		UTMMedium:       req.UTMMedium,
		UTMCampaign:     req.UTMCampaign,
		IsNewVisitor:    isNewVisitor,
		IsNewSession:    isNewSession,
		Timestamp:       event.Timestamp.Unix(),
	}

	if err := s.publisher.PublishArchiveEvent(ctx, archiveEvent); err != nil {
		s.log.Error("Failed to publish archive event",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
