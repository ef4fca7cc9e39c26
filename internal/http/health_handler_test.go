package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/karloscodes/cartridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/config"
	handlers "swipely/internal/http"
	"swipely/internal/testsupport"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func newHealthServer(t *testing.T, cache handlers.Pinger) *cartridge.Server {
	t.Helper()
	dbManager, _ := testsupport.SetupTestDBManager(t)

	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = testsupport.GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	h := handlers.NewHealthHandler(cache)
	srv.Get("/_health", h.IndexAction, &cartridge.RouteConfig{EnableSecFetchSite: cartridge.Bool(false)})
	return srv
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name        string
		cache       handlers.Pinger
		status      int
		overall     string
		cacheStatus string
	}{
		{"cache disabled", nil, http.StatusOK, "ok", "disabled"},
		{"cache reachable", stubPinger{}, http.StatusOK, "ok", "ok"},
		{"cache down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "degraded", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newHealthServer(t, tt.cache)

			resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/_health", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := testsupport.DecodeJSON(t, resp.Body)
			assert.Equal(t, tt.overall, body["status"])
			assert.Equal(t, "ok", body["db_status"])
			assert.Equal(t, tt.cacheStatus, body["cache_status"])
		})
	}
}
