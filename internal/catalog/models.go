// Package catalog stores the content units and stages events refer to, and
// resolves their public identifiers to internal row ids.
package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ContentUnitNotFoundError is returned when a public id has no content unit
// in the organization.
type ContentUnitNotFoundError struct {
	PublicID string
}

func (e *ContentUnitNotFoundError) Error() string {
	return fmt.Sprintf("content unit not found: %s", e.PublicID)
}

// NewContentUnitNotFoundError creates a new ContentUnitNotFoundError
func NewContentUnitNotFoundError(publicID string) *ContentUnitNotFoundError {
	return &ContentUnitNotFoundError{PublicID: publicID}
}

// IsNotFound reports whether err is a ContentUnitNotFoundError.
func IsNotFound(err error) bool {
	var nf *ContentUnitNotFoundError
	return errors.As(err, &nf)
}

// ContentUnit is one swipeable experience owned by an organization.
type ContentUnit struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint      `gorm:"not null;uniqueIndex:idx_content_units_org_public" json:"organization_id"`
	PublicID       string    `gorm:"not null;uniqueIndex:idx_content_units_org_public" json:"public_id"`
	Title          string    `gorm:"not null" json:"title"`
	Published      bool      `gorm:"not null;default:true" json:"published"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stage is one screen of a content unit. Position is 1-based.
type Stage struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentUnitID uint      `gorm:"not null;uniqueIndex:idx_stages_unit_public" json:"content_unit_id"`
	PublicID      string    `gorm:"not null;uniqueIndex:idx_stages_unit_public" json:"public_id"`
	Position      int       `gorm:"not null;default:0" json:"position"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

// Label is the display name of the stage.
func (s Stage) Label() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Position > 0 {
		return StageLabel(s.Position)
	}
	return s.PublicID
}

// StageLabel is the fallback display name for a stage position.
func StageLabel(position int) string {
	return fmt.Sprintf("Stage %d", position)
}
