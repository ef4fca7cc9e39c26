package organizations

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swipely/internal/models"
)

// OrganizationNotFoundError is returned when no organization matches a slug.
type OrganizationNotFoundError struct {
	Slug string
}

func (e *OrganizationNotFoundError) Error() string {
	return fmt.Sprintf("organization not found for slug: %s", e.Slug)
}

// NewOrganizationNotFoundError creates a new OrganizationNotFoundError
func NewOrganizationNotFoundError(slug string) *OrganizationNotFoundError {
	return &OrganizationNotFoundError{Slug: slug}
}

// IsNotFound reports whether err is an OrganizationNotFoundError.
func IsNotFound(err error) bool {
	var nf *OrganizationNotFoundError
	return errors.As(err, &nf)
}

// Organization is the tenant every content unit and event belongs to.
type Organization struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeSlug lowercases and trims a slug as it arrives from a URL.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// GetOrganizationBySlug looks up an organization by slug.
func GetOrganizationBySlug(db *gorm.DB, slug string) (*Organization, error) {
	slug = NormalizeSlug(slug)
	if slug == "" {
		return nil, NewOrganizationNotFoundError(slug)
	}

	var org Organization
	if err := db.Where("slug = ?", slug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewOrganizationNotFoundError(slug)
		}
		return nil, fmt.Errorf("unexpected error querying organization: %w", err)
	}
	return &org, nil
}

// GetOrganizationByID retrieves an organization by its primary key.
func GetOrganizationByID(db *gorm.DB, id uint) (*Organization, error) {
	var org Organization
	if err := db.First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewOrganizationNotFoundError(fmt.Sprintf("#%d", id))
		}
		return nil, err
	}
	return &org, nil
}

// ListOrganizations returns all organizations ordered by slug.
func ListOrganizations(db *gorm.DB) ([]Organization, error) {
	var orgs []Organization
	if err := db.Order("slug ASC").Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// EnsureOrganization creates the organization if the slug is free and returns
// the stored row either way.
func EnsureOrganization(logger *slog.Logger, db *gorm.DB, slug, name string) (*Organization, error) {
	slug = NormalizeSlug(slug)
	if slug == "" {
		return nil, errors.New("organization slug is required")
	}
	if strings.TrimSpace(name) == "" {
		name = slug
	}

	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		org := Organization{Slug: slug, Name: name, CreatedAt: time.Now().UTC()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&org).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure organization %s: %w", slug, err)
	}
	return GetOrganizationBySlug(db, slug)
}

// Directory caches slug lookups for the request path.
type Directory struct {
	db    *gorm.DB
	cache *cache.Cache[string, *Organization]
}

// NewDirectory creates a Directory backed by db with the given TTL.
func NewDirectory(db *gorm.DB, logger *slog.Logger, ttl time.Duration) *Directory {
	d := &Directory{db: db}
	d.cache = cache.NewCache[string, *Organization](logger, ttl, func(slug string) (*Organization, error) {
		return GetOrganizationBySlug(d.db, slug)
	})
	return d
}

// Lookup resolves slug through the cache.
// Failed lookups are read again from the store so callers get its typed
// errors.
func (d *Directory) Lookup(slug string) (*Organization, error) {
	slug = NormalizeSlug(slug)
	org, err := d.cache.Get(slug)
	if err != nil {
		return GetOrganizationBySlug(d.db, slug)
	}
	return org, nil
}

// Invalidate drops every cached entry.
func (d *Directory) Invalidate() {
	d.cache.Clear()
}
