// Package app provides the public API for embedding swipely in another binary.
package app

import (
	"github.com/karloscodes/cartridge"

	"swipely/internal"
	"swipely/internal/config"
	"swipely/internal/database"
	"swipely/internal/reports"
)

// Re-export core types
type (
	Application = internal.Application
	Config      = config.Config
	DBManager   = database.DBManager
)

// Re-export report types
type (
	ReportService    = reports.Service
	OverviewReport   = reports.OverviewReport
	DeepDiveReport   = reports.DeepDiveReport
	DeepDiveRequest  = reports.DeepDiveRequest
	ReportOptions    = reports.Options
	TransientError   = reports.TransientError
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	return config.GetConfig()
}

// NewApp creates a new application with default routes
func NewApp() (*Application, error) {
	return internal.NewApp()
}

// NewAppWithRoutes creates a new application with custom route mounting
func NewAppWithRoutes(cfg *Config, routeMount func(*cartridge.Server)) (*Application, error) {
	return internal.NewAppWithRoutes(cfg, routeMount)
}

// MountAppRoutes mounts the ingestion, report and probe routes. Embedders call
// it after mounting their own routes.
func MountAppRoutes(srv *cartridge.Server) {
	internal.MountAppRoutes(srv)
}
