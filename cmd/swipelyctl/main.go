// main.go - Admin control tool for swipely
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"swipely/internal"
	"swipely/internal/config"
	"swipely/internal/events"
	"swipely/internal/organizations"
	"swipely/internal/reports"
	"swipely/internal/seeder"
	"swipely/internal/timeframe"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

var (
	seedSessions int
	seedName     string
	seedValue    uint64

	reportRange  string
	reportUnit   string
	reportPeriod string
	reportStart  string
	reportEnd    string
	reportAt     string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "swipelyctl",
		Short:        "Admin tool for the swipely analytics engine",
		SilenceUsage: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Runs database migrations",
		Args:  cobra.NoArgs,
		RunE:  withApp(runMigrate),
	}

	seedCmd := &cobra.Command{
		Use:   "seed <organization-slug>",
		Short: "Creates the organization and fills it with demo sessions",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runSeed),
	}
	seedCmd.Flags().IntVar(&seedSessions, "sessions", 500, "number of sessions to generate")
	seedCmd.Flags().StringVar(&seedName, "name", "", "organization display name")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", uint64(time.Now().UnixNano()), "random seed")

	reportCmd := &cobra.Command{
		Use:   "report <organization-slug>",
		Short: "Prints the overview, or a content unit deep dive, as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runReport),
	}
	reportCmd.Flags().StringVar(&reportRange, "range", string(timeframe.RangeLast30Days), "lookback window: 7d, 30d or 90d")
	reportCmd.Flags().StringVar(&reportUnit, "unit", "", "content unit public id for a deep dive")
	reportCmd.Flags().StringVar(&reportPeriod, "period", "", "comparison period: wow, mom, yoy or custom")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "custom period start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "custom period end date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportAt, "at", "", "render the report as of this RFC 3339 instant")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Shows organizations and stored event counts",
		Args:  cobra.NoArgs,
		RunE:  withApp(runStatus),
	}

	rootCmd.AddCommand(migrateCmd, seedCmd, reportCmd, statusCmd)
	return rootCmd
}

// withApp initializes the application around a command and shuts it down
// afterwards. Background workers are never started.
func withApp(run func(ctx context.Context, cmd *cobra.Command, app *internal.Application, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}()
		return run(cmd.Context(), cmd, app, args)
	}
}

func runMigrate(_ context.Context, cmd *cobra.Command, app *internal.Application, _ []string) error {
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
	return nil
}

func runSeed(ctx context.Context, cmd *cobra.Command, app *internal.Application, args []string) error {
	if seedSessions < 1 {
		return fmt.Errorf("--sessions must be positive, got %d", seedSessions)
	}
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s := seeder.NewSeeder(app.DBManager, app.Logger, seedSessions, seedValue)
	result, err := s.Seed(ctx, args[0], seedName)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d sessions, %d events accepted, %d rejected\n",
		result.Organization.Slug, result.Sessions, result.Accepted, result.Rejected)
	return nil
}

func runReport(ctx context.Context, cmd *cobra.Command, app *internal.Application, args []string) error {
	var clock timeframe.TimeProvider = &timeframe.DefaultTimeProvider{}
	if reportAt != "" {
		at, err := time.Parse(time.RFC3339, reportAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		clock = &timeframe.FixedTimeProvider{At: at}
	}

	cfg := config.GetConfig()
	service := reports.NewService(app.DBManager.GetConnection(), app.Logger, reports.OptionsFromConfig(cfg),
		reports.WithClock(clock))
	sel := timeframe.ParseRange(reportRange)

	var (
		report any
		err    error
	)
	if reportUnit == "" {
		report, err = service.Overview(ctx, args[0], sel)
	} else {
		req := reports.DeepDiveRequest{
			Slug:          args[0],
			ContentUnitID: reportUnit,
			Range:         sel,
		}
		if reportPeriod != "" {
			period, ok := timeframe.ParsePeriod(reportPeriod)
			if !ok {
				return fmt.Errorf("unknown --period %q", reportPeriod)
			}
			req.Period = period
		}
		if reportStart != "" || reportEnd != "" {
			req.Period = timeframe.PeriodCustom
			req.Custom = &timeframe.CustomRange{StartDate: reportStart, EndDate: reportEnd}
		}
		report, err = service.DeepDive(ctx, req)
	}
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), report)
}

func runStatus(ctx context.Context, cmd *cobra.Command, app *internal.Application, _ []string) error {
	db := app.DBManager.GetConnection()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "System Status:")
	fmt.Fprintf(out, "- Environment: %s\n", config.GetConfig().Environment)
	fmt.Fprintf(out, "- Database: %s\n", config.GetConfig().GetDatabasePath())

	orgs, err := organizations.ListOrganizations(db.WithContext(ctx))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "- Organizations: %d\n", len(orgs))
	for _, org := range orgs {
		count, err := events.CountEvents(ctx, db, org.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s (%s): %d events\n", org.Slug, org.Name, count)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
