package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"gorm.io/gorm"
)

// Unit is a content unit together with its known stages.
type Unit struct {
	ContentUnit
	Stages []Stage
}

// TotalStages is the highest known stage position, or 1 when no stage is
// known yet.
func (u Unit) TotalStages() int {
	total := 0
	for _, s := range u.Stages {
		if s.Position > total {
			total = s.Position
		}
	}
	if total < 1 {
		return 1
	}
	return total
}

// StageLabelAt names the stage at a 1-based position.
func (u Unit) StageLabelAt(position int) string {
	for _, s := range u.Stages {
		if s.Position == position && s.Title != "" {
			return s.Title
		}
	}
	return StageLabel(position)
}

// StageLabelFor names the stage with the given public id, falling back to the
// id itself for stages the catalog has never seen.
func (u Unit) StageLabelFor(publicID string) string {
	for _, s := range u.Stages {
		if s.PublicID == publicID {
			return s.Label()
		}
	}
	return publicID
}

// Catalog is a read-only snapshot of an organization's content units.
type Catalog struct {
	units map[uint]*Unit
	order []uint
}

// Len returns the number of content units.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Unit returns the unit with the given row id.
func (c *Catalog) Unit(id uint) (*Unit, bool) {
	u, ok := c.units[id]
	return u, ok
}

// Units returns the units ordered by public id.
func (c *Catalog) Units() []*Unit {
	out := make([]*Unit, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.units[id])
	}
	return out
}

// StageIndex maps content unit ids to their total stage counts.
func (c *Catalog) StageIndex() map[uint]int {
	idx := make(map[uint]int, len(c.units))
	for id, u := range c.units {
		idx[id] = u.TotalStages()
	}
	return idx
}

// Title returns the unit's title, or an empty string for unknown ids.
func (c *Catalog) Title(id uint) string {
	if u, ok := c.units[id]; ok {
		return u.Title
	}
	return ""
}

// LoadCatalog reads every content unit of an organization with its stages.
func LoadCatalog(ctx context.Context, db *gorm.DB, orgID uint) (*Catalog, error) {
	db = db.WithContext(ctx)

	var units []ContentUnit
	if err := db.Where("organization_id = ?", orgID).Order("public_id ASC").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to load content units: %w", err)
	}

	if len(units) == 0 {
		return NewCatalog(), nil
	}

	byID := make(map[uint]*Unit, len(units))
	ids := make([]uint, 0, len(units))
	for _, u := range units {
		byID[u.ID] = &Unit{ContentUnit: u}
		ids = append(ids, u.ID)
	}

	var stages []Stage
	if err := db.Where("content_unit_id IN ?", ids).Order("position ASC, id ASC").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}
	for _, s := range stages {
		u := byID[s.ContentUnitID]
		u.Stages = append(u.Stages, s)
	}

	list := make([]*Unit, 0, len(units))
	for _, id := range ids {
		list = append(list, byID[id])
	}
	return NewCatalog(list...), nil
}

// GetUnit loads a single content unit by public id with its stages.
func GetUnit(ctx context.Context, db *gorm.DB, orgID uint, publicID string) (*Unit, error) {
	db = db.WithContext(ctx)

	var unit ContentUnit
	if err := db.Where("organization_id = ? AND public_id = ?", orgID, publicID).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewContentUnitNotFoundError(publicID)
		}
		return nil, fmt.Errorf("unexpected error querying content unit: %w", err)
	}

	var stages []Stage
	if err := db.Where("content_unit_id = ?", unit.ID).Order("position ASC, id ASC").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}

	return &Unit{ContentUnit: unit, Stages: stages}, nil
}

// NewCatalog builds a Catalog from units, ordered by public id.
func NewCatalog(units ...*Unit) *Catalog {
	sorted := slices.Clone(units)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublicID < sorted[j].PublicID
	})

	c := &Catalog{units: make(map[uint]*Unit, len(sorted))}
	for _, u := range sorted {
		c.units[u.ID] = u
		c.order = append(c.order, u.ID)
	}
	return c
}

// SingleUnit wraps one unit in a Catalog.
func SingleUnit(u *Unit) *Catalog {
	return NewCatalog(u)
}
