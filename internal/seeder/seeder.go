// Package seeder fills a database with a demo organization and realistic
// swipe sessions so reports have something to show.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"swipely/internal/catalog"
	"swipely/internal/events"
	"swipely/internal/models"
	"swipely/internal/organizations"
)

// batchSize matches the default ingestion limit.
const batchSize = 200

// DemoUnit describes a content unit the seeder generates sessions for.
type DemoUnit struct {
	PublicID string
	Title    string
	Stages   int
	// Retention is the chance a viewer advances from one stage to the next.
	Retention float64
}

// DefaultUnits are seeded when the caller does not pass its own.
var DefaultUnits = []DemoUnit{
	{PublicID: "summer-quiz", Title: "Summer Quiz", Stages: 5, Retention: 0.72},
	{PublicID: "product-story", Title: "Product Story", Stages: 4, Retention: 0.8},
	{PublicID: "launch-carousel", Title: "Launch Carousel", Stages: 6, Retention: 0.6},
}

type weightedSource struct {
	name   string
	weight int
}

var demoSources = []weightedSource{
	{"Instagram", 40},
	{"TikTok", 25},
	{"", 15},
	{"Email", 10},
	{"Facebook", 10},
}

// Result summarizes a seeding run.
type Result struct {
	Organization *organizations.Organization
	Sessions     int
	Accepted     int
	Rejected     int
}

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager cartridge.DBManager
	Logger    *slog.Logger
	Sessions  int
	Days      int
	Units     []DemoUnit

	rng *rand.Rand
	now func() time.Time
}

// NewSeeder creates a new seeder instance. Runs are deterministic for a
// given seed.
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, sessions int, seed uint64) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		Sessions:  sessions,
		Days:      30,
		Units:     DefaultUnits,
		rng:       rand.New(rand.NewPCG(seed, seed^0x5eed)),
		now:       time.Now,
	}
}

// WithNow pins the clock sessions are generated against.
func (s *Seeder) WithNow(now time.Time) *Seeder {
	s.now = func() time.Time { return now }
	return s
}

// Seed ensures the organization exists and ingests generated sessions for it
// through the regular collection path.
func (s *Seeder) Seed(ctx context.Context, slug, name string) (*Result, error) {
	start := time.Now()
	db := s.DBManager.GetConnection()

	org, err := organizations.EnsureOrganization(s.Logger, db, slug, name)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Seeding organization",
		slog.String("organization", org.Slug),
		slog.Int("sessions", s.Sessions),
		slog.Int("units", len(s.Units)))

	result := &Result{Organization: org}
	batch := make([]events.EventInput, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := events.CollectEvents(ctx, db, s.Logger, org.Slug, batch, batchSize)
		if err != nil {
			return fmt.Errorf("failed to collect seeded events: %w", err)
		}
		result.Accepted += res.Accepted
		result.Rejected += len(res.Rejected)
		batch = batch[:0]
		return nil
	}

	for i := 0; i < s.Sessions; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		unit := s.Units[s.rng.IntN(len(s.Units))]
		session := s.session(unit)
		if len(batch)+len(session) > batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, session...)
		result.Sessions++
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if err := s.applyTitles(ctx, db, org.ID); err != nil {
		return nil, err
	}

	s.Logger.Info("Seeding completed",
		slog.String("organization", org.Slug),
		slog.Int("accepted", result.Accepted),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// session builds the events of one viewer walking through unit.
func (s *Seeder) session(unit DemoUnit) []events.EventInput {
	sessionID := uuid.NewString()
	source := s.pickSource()
	span := time.Duration(s.Days) * 24 * time.Hour
	started := s.now().UTC().Add(-time.Duration(s.rng.Int64N(int64(span))))

	out := []events.EventInput{{
		EventType:     string(events.EventTypeSessionStart),
		SessionID:     sessionID,
		OccurredAt:    started,
		ContentUnitID: unit.PublicID,
		Source:        source,
	}}

	depth := 1
	for depth < unit.Stages && s.rng.Float64() < unit.Retention {
		depth++
	}

	at := started
	for i := 1; i <= depth; i++ {
		at = at.Add(time.Duration(2+s.rng.IntN(8)) * time.Second)
		out = append(out, events.EventInput{
			EventType:     string(events.EventTypeStageView),
			SessionID:     sessionID,
			OccurredAt:    at,
			ContentUnitID: unit.PublicID,
			StageID:       stageID(unit.PublicID, i),
			Source:        source,
			Meta:          map[string]any{"stageIndex": i},
		})
		if s.rng.Float64() < 0.05 {
			out = append(out, events.EventInput{
				EventType:     string(events.EventTypeReactionTap),
				SessionID:     sessionID,
				OccurredAt:    at.Add(time.Second),
				ContentUnitID: unit.PublicID,
				StageID:       stageID(unit.PublicID, i),
				Source:        source,
			})
		}
	}

	if s.rng.Float64() < 0.3 {
		out = append(out, events.EventInput{
			EventType:     string(events.EventTypeCTAClick),
			SessionID:     sessionID,
			OccurredAt:    at.Add(time.Second),
			ContentUnitID: unit.PublicID,
			StageID:       stageID(unit.PublicID, depth),
			Source:        source,
		})
	}
	if s.rng.Float64() < 0.08 {
		out = append(out, events.EventInput{
			EventType:     string(events.EventTypeShareClick),
			SessionID:     sessionID,
			OccurredAt:    at.Add(2 * time.Second),
			ContentUnitID: unit.PublicID,
			Source:        source,
		})
	}
	return out
}

func (s *Seeder) pickSource() string {
	total := 0
	for _, src := range demoSources {
		total += src.weight
	}
	n := s.rng.IntN(total)
	for _, src := range demoSources {
		if n < src.weight {
			return src.name
		}
		n -= src.weight
	}
	return ""
}

// applyTitles replaces the placeholder titles ingestion gives new units.
func (s *Seeder) applyTitles(ctx context.Context, db *gorm.DB, orgID uint) error {
	return models.PerformWrite(s.Logger, db.WithContext(ctx), func(tx *gorm.DB) error {
		for _, unit := range s.Units {
			err := tx.Model(&catalog.ContentUnit{}).
				Where("organization_id = ? AND public_id = ?", orgID, unit.PublicID).
				Update("title", unit.Title).Error
			if err != nil {
				return fmt.Errorf("failed to title content unit %s: %w", unit.PublicID, err)
			}
		}
		return nil
	})
}

func stageID(unitPublicID string, position int) string {
	return fmt.Sprintf("%s-s%d", unitPublicID, position)
}
