// Package reports runs the report pipeline: it fetches an organization's
// catalog and event windows concurrently and hands them to the analytics
// builders.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"swipely/internal/analytics"
	"swipely/internal/catalog"
	"swipely/internal/config"
	"swipely/internal/events"
	"swipely/internal/metrics"
	"swipely/internal/organizations"
	"swipely/internal/pkg/async"
	"swipely/internal/reportcache"
	"swipely/internal/timeframe"
)

const (
	reportOverview = "overview"
	reportDeepDive = "deep_dive"
)

// fetchWorkers bounds concurrent reads per report.
const fetchWorkers = 3

// Options tune the pipeline.
type Options struct {
	// BatchLimit caps the events read per window, newest first.
	BatchLimit int
	// Timeout bounds a whole report request.
	Timeout time.Duration
	// Location is the calendar windows are computed in. Defaults to UTC.
	Location *time.Location
}

// OptionsFromConfig reads the pipeline options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BatchLimit: cfg.ReportBatchLimit,
		Timeout:    cfg.ReportTimeout(),
		Location:   time.UTC,
	}
}

// Service builds overview and deep-dive reports.
type Service struct {
	db      *gorm.DB
	logger  *slog.Logger
	opts    Options
	clock   timeframe.TimeProvider
	pool    *async.Pool
	cache   reportcache.Cache
	metrics *metrics.Metrics
	orgs    *organizations.Directory
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the system clock.
func WithClock(clock timeframe.TimeProvider) Option {
	return func(s *Service) { s.clock = clock }
}

// WithCache stores rendered reports in c.
func WithCache(c reportcache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDirectory resolves organization slugs through a cached directory.
func WithDirectory(d *organizations.Directory) Option {
	return func(s *Service) { s.orgs = d }
}

// WithMetrics records report latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(db *gorm.DB, logger *slog.Logger, opts Options, options ...Option) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	s := &Service{
		db:     db,
		logger: logger,
		opts:   opts,
		clock:  &timeframe.DefaultTimeProvider{},
		pool:   async.NewPool(fetchWorkers),
		cache:  reportcache.Noop{},
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// OverviewReport is the overview plus the window it covers.
type OverviewReport struct {
	analytics.Overview
	Range timeframe.RangeSelector `json:"range"`
	From  time.Time               `json:"from"`
	To    time.Time               `json:"to"`
}

// DeepDiveReport is the deep-dive plus the window and period it covers.
type DeepDiveReport struct {
	analytics.DeepDive
	Range  timeframe.RangeSelector `json:"range"`
	Period timeframe.Period        `json:"period"`
	From   time.Time               `json:"from"`
	To     time.Time               `json:"to"`
}

// DeepDiveRequest selects a deep-dive. An empty Period compares the report
// window with the window right before it.
type DeepDiveRequest struct {
	Slug          string
	ContentUnitID string
	Range         timeframe.RangeSelector
	Period        timeframe.Period
	Custom        *timeframe.CustomRange
}

// Overview builds the organization-wide report for the rolling window sel.
func (s *Service) Overview(ctx context.Context, slug string, sel timeframe.RangeSelector) (report *OverviewReport, err error) {
	started := time.Now()
	defer func() { s.observe(reportOverview, started, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	window := timeframe.RollingWindow(sel, s.clock.Now(s.opts.Location))

	org, err := s.organization(ctx, slug)
	if err != nil {
		return nil, classify(ctx, reportOverview, err)
	}

	cacheKey := fmt.Sprintf("overview:%d:%s:%d", org.ID, sel, window.Start.Unix())
	var cached OverviewReport
	if s.lookup(ctx, reportOverview, cacheKey, &cached) {
		return &cached, nil
	}

	results, err := s.pool.Execute(ctx, []async.Task{
		{Name: "catalog", Execute: func(ctx context.Context) (any, error) {
			return catalog.LoadCatalog(ctx, s.db, org.ID)
		}},
		s.fetchTask("current", org.ID, nil, window),
	})
	if err != nil {
		return nil, classify(ctx, reportOverview, err)
	}

	c := results["catalog"].Data.(*catalog.Catalog)
	rows := results["current"].Data.([]events.Event)

	report = &OverviewReport{
		Overview: analytics.BuildOverview(c, analytics.ReconstructSessions(rows)),
		Range:    sel,
		From:     window.Start,
		To:       window.End,
	}
	s.store(ctx, cacheKey, report)

	s.logger.Debug("Built overview report",
		slog.String("organization", org.Slug),
		slog.String("range", string(sel)),
		slog.Int("events", len(rows)),
		slog.Int("content_units", c.Len()))
	return report, nil
}

// DeepDive builds the report of one content unit with its trend deltas.
func (s *Service) DeepDive(ctx context.Context, req DeepDiveRequest) (report *DeepDiveReport, err error) {
	started := time.Now()
	defer func() { s.observe(reportDeepDive, started, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	now := s.clock.Now(s.opts.Location)
	window := timeframe.RollingWindow(req.Range, now)

	period, custom := req.Period, req.Custom
	if period == "" {
		period, custom = timeframe.PeriodCustom, timeframe.CustomRangeFor(window)
	}
	pr := timeframe.CalculatePeriod(period, now, custom)

	org, err := s.organization(ctx, req.Slug)
	if err != nil {
		return nil, classify(ctx, reportDeepDive, err)
	}

	unit, err := catalog.GetUnit(ctx, s.db, org.ID, req.ContentUnitID)
	if err != nil {
		return nil, classify(ctx, reportDeepDive, err)
	}

	cacheKey := fmt.Sprintf("deepdive:%d:%d:%s:%d:%d:%d",
		org.ID, unit.ID, req.Range, window.Start.Unix(), pr.Current.Start.Unix(), pr.Previous.Start.Unix())
	var cached DeepDiveReport
	if s.lookup(ctx, reportDeepDive, cacheKey, &cached) {
		return &cached, nil
	}

	// The trend's current window is usually the report window itself, in
	// which case its events are read once.
	reuseCurrent := pr.Current.Equal(window)
	tasks := []async.Task{
		s.fetchTask("current", org.ID, &unit.ID, window),
		s.fetchTask("previous", org.ID, &unit.ID, pr.Previous),
	}
	if !reuseCurrent {
		tasks = append(tasks, s.fetchTask("trendCurrent", org.ID, &unit.ID, pr.Current))
	}

	results, err := s.pool.Execute(ctx, tasks)
	if err != nil {
		return nil, classify(ctx, reportDeepDive, err)
	}

	current := analytics.ReconstructSessions(results["current"].Data.([]events.Event))
	trendCurrent := current
	if !reuseCurrent {
		trendCurrent = analytics.ReconstructSessions(results["trendCurrent"].Data.([]events.Event))
	}

	report = &DeepDiveReport{
		DeepDive: analytics.BuildDeepDive(analytics.DeepDiveInput{
			Unit:          unit,
			Current:       current,
			TrendCurrent:  trendCurrent,
			TrendPrevious: analytics.ReconstructSessions(results["previous"].Data.([]events.Event)),
			PeriodLabel:   pr.Label,
		}),
		Range:  req.Range,
		Period: pr.Period,
		From:   window.Start,
		To:     window.End,
	}
	s.store(ctx, cacheKey, report)

	s.logger.Debug("Built deep-dive report",
		slog.String("organization", org.Slug),
		slog.String("content_unit", unit.PublicID),
		slog.String("period", string(pr.Period)),
		slog.Bool("reused_current", reuseCurrent))
	return report, nil
}

func (s *Service) organization(ctx context.Context, slug string) (*organizations.Organization, error) {
	if s.orgs != nil {
		return s.orgs.Lookup(slug)
	}
	return organizations.GetOrganizationBySlug(s.db.WithContext(ctx), slug)
}

func (s *Service) fetchTask(name string, orgID uint, unitID *uint, w timeframe.Window) async.Task {
	return async.Task{Name: name, Execute: func(ctx context.Context) (any, error) {
		return events.FetchWindow(ctx, s.db, events.WindowQuery{
			OrganizationID: orgID,
			ContentUnitID:  unitID,
			From:           w.Start,
			To:             w.End,
			Limit:          s.opts.BatchLimit,
		})
	}}
}

func (s *Service) lookup(ctx context.Context, report, key string, dst any) bool {
	found, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn("Report cache lookup failed", slog.String("key", key), slog.Any("error", err))
		found = false
	}
	if s.metrics != nil {
		s.metrics.ObserveCache(report, found)
	}
	return found
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("Report cache store failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) observe(report string, started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case IsTransient(err):
		outcome = metrics.OutcomeTransient
	case organizations.IsNotFound(err) || catalog.IsNotFound(err):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveReport(report, outcome, time.Since(started))
}
