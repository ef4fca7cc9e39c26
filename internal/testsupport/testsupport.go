package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swipely/internal"
	"swipely/internal/catalog"
	"swipely/internal/config"
	"swipely/internal/database"
	"swipely/internal/events"
	"swipely/internal/organizations"
)

// testDBCache caches test databases by root test name so subtests share the
// same database as their parent.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a named in-memory database with every model migrated.
// cache=shared lets the pool's connections see the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA busy_timeout = 5000")

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager over SetupTestDB.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()
	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// SetupTestDBManagerWithOrganization also creates an organization.
func SetupTestDBManagerWithOrganization(t *testing.T, slug string) (*TestDBManager, *slog.Logger, organizations.Organization) {
	t.Helper()
	dbManager, logger := SetupTestDBManager(t)
	org := CreateTestOrganization(t, dbManager.GetConnection(), slug)
	return dbManager, logger, org
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)
	if len(tableNames) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tableNames {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CreateTestOrganization creates an organization or returns the existing one.
func CreateTestOrganization(t *testing.T, db *gorm.DB, slug string) organizations.Organization {
	t.Helper()
	var org organizations.Organization
	if db.Where("slug = ?", slug).First(&org).Error != nil {
		org = organizations.Organization{Slug: slug, Name: strings.ToUpper(slug[:1]) + slug[1:], CreatedAt: time.Now().UTC()}
		require.NoError(t, db.Create(&org).Error)
	}
	return org
}

// CreateTestContentUnit creates a content unit with stages at positions
// 1..stages, stage public ids "<publicID>-s<n>".
func CreateTestContentUnit(t *testing.T, db *gorm.DB, orgID uint, publicID, title string, stages int) catalog.Unit {
	t.Helper()
	unit := catalog.ContentUnit{
		OrganizationID: orgID,
		PublicID:       publicID,
		Title:          title,
		Published:      true,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&unit).Error)

	out := catalog.Unit{ContentUnit: unit}
	for i := 1; i <= stages; i++ {
		stage := catalog.Stage{
			ContentUnitID: unit.ID,
			PublicID:      StagePublicID(publicID, i),
			Position:      i,
			CreatedAt:     time.Now().UTC(),
		}
		require.NoError(t, db.Create(&stage).Error)
		out.Stages = append(out.Stages, stage)
	}
	return out
}

// StagePublicID is the stage id CreateTestContentUnit uses for position n.
func StagePublicID(unitPublicID string, n int) string {
	return fmt.Sprintf("%s-s%d", unitPublicID, n)
}

// SessionEvents builds the rows of one session: a sessionStart from source
// followed by stage views up to depth, spaced one second apart from start.
func SessionEvents(orgID uint, unit catalog.Unit, source string, depth int, start time.Time) []events.Event {
	sessionID := uuid.NewString()
	rows := []events.Event{{
		OrganizationID: orgID,
		ContentUnitID:  unit.ID,
		SessionID:      sessionID,
		EventType:      events.EventTypeSessionStart,
		OccurredAt:     start.UTC(),
		Source:         source,
	}}
	for i := 1; i <= depth; i++ {
		idx := i
		rows = append(rows, events.Event{
			OrganizationID: orgID,
			ContentUnitID:  unit.ID,
			SessionID:      sessionID,
			StagePublicID:  StagePublicID(unit.PublicID, i),
			EventType:      events.EventTypeStageView,
			OccurredAt:     start.Add(time.Duration(i) * time.Second).UTC(),
			Source:         source,
			StageIndex:     &idx,
		})
	}
	return rows
}

// InsertEvents stores rows directly, bypassing ingestion.
func InsertEvents(t *testing.T, db *gorm.DB, rows []events.Event) {
	t.Helper()
	if len(rows) == 0 {
		return
	}
	for i := range rows {
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = time.Now().UTC()
		}
	}
	require.NoError(t, db.CreateInBatches(rows, 100).Error)
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateMinimalTestApp creates a test Fiber app with all routes
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = NewTestDBManager(db)
	// Match production: requests without a browser Sec-Fetch-Site header are
	// rejected, so test requests go through NewJSONRequest.
	cfg.EnableSecFetchSite = true
	cfg.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// NewJSONRequest builds a request the way a browser client sends it.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		case []byte:
			reader = bytes.NewReader(b)
		default:
			payload, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 Test Browser")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	return req
}

// DecodeJSON reads a response body into a generic map.
func DecodeJSON(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	body, err := io.ReadAll(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), "body: %s", string(body))
	return out
}
