package service

import (
	"sync"
	"time"

	"backend/internal/apperr"
	"backend/internal/models"
	"backend/internal/repository"
)

// In-memory repository fakes. They mirror the Postgres repositories closely
// enough for service-level behavior, including the NotFound translation.

type fakeDetectionRepo struct {
	mu         sync.Mutex
	nextID     int64
	detections map[int64]*models.DetectionResult
	// rollup mirrors the creation-transaction analytics increment.
	rollup *fakeAnalyticsRepo
}

func newFakeDetectionRepo(rollup *fakeAnalyticsRepo) *fakeDetectionRepo {
	return &fakeDetectionRepo{detections: map[int64]*models.DetectionResult{}, rollup: rollup}
}

func (f *fakeDetectionRepo) Create(detection *models.DetectionResult, platformType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	detection.ID = f.nextID
	detection.DetectedAt = time.Now()
	copied := *detection
	f.detections[detection.ID] = &copied
	if f.rollup != nil {
		f.rollup.recordCreation(platformType, detection.SeverityLevel, detection.Status)
	}
	return nil
}

func (f *fakeDetectionRepo) GetByID(id int64) (*models.DetectionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.detections[id]
	if !ok {
		return nil, apperr.NotFound("detection", id)
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDetectionRepo) List(filter repository.DetectionFilter) ([]*models.DetectionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DetectionResult
	for _, d := range f.detections {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && d.SeverityLevel != filter.Severity {
			continue
		}
		if filter.PlatformID != 0 && d.PlatformID != filter.PlatformID {
			continue
		}
		if filter.AssignedTo != 0 && (d.AssignedTo == nil || *d.AssignedTo != filter.AssignedTo) {
			continue
		}
		copied := *d
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeDetectionRepo) UpdateStatus(detection *models.DetectionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.detections[detection.ID]; !ok {
		return apperr.NotFound("detection", detection.ID)
	}
	copied := *detection
	f.detections[detection.ID] = &copied
	return nil
}

type fakePatternRepo struct {
	mu       sync.Mutex
	patterns map[int64]*models.DetectionPattern
	touched  []int64
}

func newFakePatternRepo(patterns ...*models.DetectionPattern) *fakePatternRepo {
	f := &fakePatternRepo{patterns: map[int64]*models.DetectionPattern{}}
	for _, p := range patterns {
		f.patterns[p.ID] = p
	}
	return f
}

func (f *fakePatternRepo) Create(pattern *models.DetectionPattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pattern.ID = int64(len(f.patterns) + 1)
	f.patterns[pattern.ID] = pattern
	return nil
}

func (f *fakePatternRepo) GetByID(id int64) (*models.DetectionPattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patterns[id]
	if !ok {
		return nil, apperr.NotFound("pattern", id)
	}
	return p, nil
}

func (f *fakePatternRepo) ListActive() ([]*models.DetectionPattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DetectionPattern
	for _, p := range f.patterns {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePatternRepo) List() ([]*models.DetectionPattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DetectionPattern
	for _, p := range f.patterns {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePatternRepo) Update(pattern *models.DetectionPattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns[pattern.ID] = pattern
	return nil
}

func (f *fakePatternRepo) TouchLastUsed(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakePatternRepo) CreateCategory(category *models.DrugCategory) error { return nil }
func (f *fakePatternRepo) ListCategories() ([]*models.DrugCategory, error)    { return nil, nil }
func (f *fakePatternRepo) AttachCategory(patternID, categoryID int64) error   { return nil }

type fakePlatformRepo struct {
	mu        sync.Mutex
	platforms map[int64]*models.Platform
	touched   []int64
}

func newFakePlatformRepo(platforms ...*models.Platform) *fakePlatformRepo {
	f := &fakePlatformRepo{platforms: map[int64]*models.Platform{}}
	for _, p := range platforms {
		f.platforms[p.ID] = p
	}
	return f
}

func (f *fakePlatformRepo) Create(platform *models.Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	platform.ID = int64(len(f.platforms) + 1)
	f.platforms[platform.ID] = platform
	return nil
}

func (f *fakePlatformRepo) GetByID(id int64) (*models.Platform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.platforms[id]
	if !ok {
		return nil, apperr.NotFound("platform", id)
	}
	return p, nil
}

func (f *fakePlatformRepo) List(activeOnly bool) ([]*models.Platform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Platform
	for _, p := range f.platforms {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePlatformRepo) Update(platform *models.Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.platforms[platform.ID] = platform
	return nil
}

func (f *fakePlatformRepo) TouchLastMonitoring(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

type fakeAuthRepo struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newFakeAuthRepo(users ...*models.User) *fakeAuthRepo {
	f := &fakeAuthRepo{users: map[int64]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeAuthRepo) CreateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("username or email already taken")
		}
	}
	user.ID = int64(len(f.users) + 1)
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", 0)
}

func (f *fakeAuthRepo) GetUserByID(id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeAuthRepo) UpdateLoginState(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeAuthRepo) CountUsers() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*models.MonitoringSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[int64]*models.MonitoringSession{}}
}

func (f *fakeSessionRepo) Create(session *models.MonitoringSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	session.ID = f.nextID
	session.StartedAt = time.Now()
	session.LastActivity = session.StartedAt
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) GetByID(id int64) (*models.MonitoringSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session", id)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) List(userID int64) ([]*models.MonitoringSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MonitoringSession
	for _, s := range f.sessions {
		if userID != 0 && s.UserID != userID {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeSessionRepo) ListActive() ([]*models.MonitoringSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MonitoringSession
	for _, s := range f.sessions {
		if s.Status == models.SessionActive {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Update(session *models.MonitoringSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.ID]; !ok {
		return apperr.NotFound("session", session.ID)
	}
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) AddStatistics(id int64, contentCount, detections, errors int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return apperr.NotFound("session", id)
	}
	s.ContentCollected += contentCount
	s.DetectionsFound += detections
	s.ErrorsEncountered += errors
	s.LastActivity = time.Now()
	return nil
}

func (f *fakeSessionRepo) TouchActivity(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return apperr.NotFound("session", id)
	}
	s.LastActivity = time.Now()
	return nil
}

type fakeConnectionRepo struct {
	mu    sync.Mutex
	conns map[int64]*models.PlatformConnection
}

func newFakeConnectionRepo(conns ...*models.PlatformConnection) *fakeConnectionRepo {
	f := &fakeConnectionRepo{conns: map[int64]*models.PlatformConnection{}}
	for _, c := range conns {
		f.conns[c.PlatformID] = c
	}
	return f
}

func (f *fakeConnectionRepo) GetByPlatform(platformID int64) (*models.PlatformConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conns[platformID]
	if !ok {
		return nil, apperr.NotFound("connection", platformID)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeConnectionRepo) List() ([]*models.PlatformConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PlatformConnection
	for _, c := range f.conns {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeConnectionRepo) Update(conn *models.PlatformConnection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[conn.PlatformID]; !ok {
		return apperr.NotFound("connection", conn.PlatformID)
	}
	copied := *conn
	f.conns[conn.PlatformID] = &copied
	return nil
}

// fakeAnalyticsRepo accumulates rollups in memory the way the Postgres
// upserts do, keyed by date. Tests mostly run within one day, so a single
// bucket per series suffices.
type fakeAnalyticsRepo struct {
	mu         sync.Mutex
	detections *models.DetectionAnalytics
	monitoring *models.MonitoringMetrics
	alerts     map[string]*models.AlertMetrics
	perf       []*models.PerformanceMetric
	geo        []*models.GeographicAnalysis
	trends     []*models.TrendAnalysis
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{alerts: map[string]*models.AlertMetrics{}}
}

func (f *fakeAnalyticsRepo) detectionBucket() *models.DetectionAnalytics {
	if f.detections == nil {
		f.detections = &models.DetectionAnalytics{}
	}
	return f.detections
}

func (f *fakeAnalyticsRepo) monitoringBucket() *models.MonitoringMetrics {
	if f.monitoring == nil {
		f.monitoring = &models.MonitoringMetrics{}
	}
	return f.monitoring
}

// recordCreation mirrors incrementDetectionRollup in the detection creation
// transaction.
func (f *fakeAnalyticsRepo) recordCreation(platformType, severity, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.detectionBucket()
	switch platformType {
	case models.PlatformTelegram:
		b.TelegramDetections++
	case models.PlatformInstagram:
		b.InstagramDetections++
	case models.PlatformWhatsApp:
		b.WhatsAppDetections++
	case models.PlatformTwitter:
		b.TwitterDetections++
	default:
		b.OtherDetections++
	}
	switch severity {
	case models.SeverityLow:
		b.LowSeverity++
	case models.SeverityMedium:
		b.MediumSeverity++
	case models.SeverityHigh:
		b.HighSeverity++
	default:
		b.CriticalSeverity++
	}
	switch status {
	case models.DetectionConfirmed:
		b.Confirmed++
	case models.DetectionFalsePositive:
		b.FalsePositives++
	case models.DetectionEscalated:
		b.Escalated++
	default:
		b.PendingReview++
	}
}

func (f *fakeAnalyticsRepo) RecordSessionCreated(date time.Time, platformType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.monitoringBucket()
	switch platformType {
	case models.PlatformTelegram:
		b.TelegramSessions++
	case models.PlatformInstagram:
		b.InstagramSessions++
	case models.PlatformWhatsApp:
		b.WhatsAppSessions++
	case models.PlatformTwitter:
		b.TwitterSessions++
	default:
		b.OtherSessions++
	}
	return nil
}

func (f *fakeAnalyticsRepo) RecordContentCollected(date time.Time, suspicious bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.monitoringBucket()
	b.TotalContentCollected++
	if suspicious {
		b.SuspiciousContentFound++
	}
	return nil
}

func (f *fakeAnalyticsRepo) RecordStatusTransition(date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detectionBucket().StatusTransitions++
	return nil
}

func (f *fakeAnalyticsRepo) RecordFalsePositiveReview(date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitoringBucket().FalsePositives++
	return nil
}

func (f *fakeAnalyticsRepo) RecordAlert(alertType string, date time.Time, bucket repository.AlertBucket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.alerts[alertType]
	if !ok {
		m = &models.AlertMetrics{AlertType: alertType, Date: date}
		f.alerts[alertType] = m
	}
	switch bucket {
	case repository.AlertSent:
		m.TotalAlerts++
	case repository.AlertAcknowledged:
		m.AcknowledgedAlerts++
	case repository.AlertResolved:
		m.ResolvedAlerts++
	case repository.AlertEscalated:
		m.EscalatedAlerts++
	}
	return nil
}

func (f *fakeAnalyticsRepo) GetDetectionDaily(date time.Time) (*models.DetectionAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detections == nil {
		return nil, apperr.NotFound("detection analytics", 0)
	}
	copied := *f.detections
	return &copied, nil
}

func (f *fakeAnalyticsRepo) ListDetectionDaily(from, to time.Time) ([]*models.DetectionAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detections == nil {
		return nil, nil
	}
	copied := *f.detections
	return []*models.DetectionAnalytics{&copied}, nil
}

func (f *fakeAnalyticsRepo) GetMonitoringDaily(date time.Time) (*models.MonitoringMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.monitoring == nil {
		return nil, apperr.NotFound("monitoring metrics", 0)
	}
	copied := *f.monitoring
	return &copied, nil
}

func (f *fakeAnalyticsRepo) ListMonitoringDaily(from, to time.Time) ([]*models.MonitoringMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.monitoring == nil {
		return nil, nil
	}
	copied := *f.monitoring
	return []*models.MonitoringMetrics{&copied}, nil
}

func (f *fakeAnalyticsRepo) ListAlertMetrics(date time.Time) ([]*models.AlertMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AlertMetrics
	for _, m := range f.alerts {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) UpsertPerformanceMetric(metric *models.PerformanceMetric) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perf = append(f.perf, metric)
	return nil
}

func (f *fakeAnalyticsRepo) ListPerformanceMetrics(category string) ([]*models.PerformanceMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perf, nil
}

func (f *fakeAnalyticsRepo) UpsertGeographic(analysis *models.GeographicAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geo = append(f.geo, analysis)
	return nil
}

func (f *fakeAnalyticsRepo) ListGeographic(date time.Time) ([]*models.GeographicAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geo, nil
}

func (f *fakeAnalyticsRepo) UpsertTrend(trend *models.TrendAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.trends {
		if existing.MetricType == trend.MetricType && existing.MetricName == trend.MetricName &&
			existing.PeriodType == trend.PeriodType &&
			existing.StartDate.Equal(trend.StartDate) && existing.EndDate.Equal(trend.EndDate) {
			trend.ID = existing.ID
			*existing = *trend
			return nil
		}
	}
	trend.ID = int64(len(f.trends) + 1)
	copied := *trend
	f.trends = append(f.trends, &copied)
	return nil
}

func (f *fakeAnalyticsRepo) ListTrends(metricType string) ([]*models.TrendAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if metricType == "" {
		return f.trends, nil
	}
	var out []*models.TrendAnalysis
	for _, trend := range f.trends {
		if trend.MetricType == metricType {
			out = append(out, trend)
		}
	}
	return out, nil
}

// captureHandler records every event it sees.
type captureHandler struct {
	mu     sync.Mutex
	events []any
}

func (h *captureHandler) HandleEvent(event any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *captureHandler) all() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]any(nil), h.events...)
}
