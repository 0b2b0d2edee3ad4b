package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/rosterfill/internal/backup"
	"github.com/julianstephens/rosterfill/internal/cli"
	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/utils"
)

type DoctorCmd struct {
	Roster string `help:"Also check this roster's period and requirements."`
}

type check struct {
	name string
	// needsDB checks are skipped when the database cannot be loaded.
	needsDB bool
	// warnOnly checks never fail the command.
	warnOnly bool
	run      func(context.Context, *cli.Context) error
}

func (cmd *DoctorCmd) checks() []check {
	checks := []check{
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Settings file", run: checkSettings},
		{name: "Service catalogue", needsDB: true, run: checkServices},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: func(context.Context, *cli.Context) error { return checkClockTimezone(time.Now()) }},
	}
	if cmd.Roster != "" {
		roster := cmd.Roster
		checks = append(checks, check{
			name:    "Roster " + roster,
			needsDB: true,
			run: func(ctx context.Context, c *cli.Context) error {
				return checkRoster(ctx, c, roster)
			},
		})
	}
	return checks
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	bg := ctx.Context()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	dbReachable := true
	if err := ctx.Store.Load(); err != nil {
		fmt.Fprintf(out, "❌ Database reachable: FAIL\n   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Fprintln(out, "✓ Database reachable: OK")
	}

	for _, c := range cmd.checks() {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			fmt.Fprintf(out, "✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Fprintf(out, "⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			fmt.Fprintf(out, "❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

func checkSchemaVersion(ctx context.Context, c *cli.Context) error {
	current, latest, err := c.Store.SchemaStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d; run '%s migrate'", current, latest, constants.AppName)
	}
	return nil
}

func checkSettings(_ context.Context, c *cli.Context) error {
	_, err := c.Settings()
	return err
}

// checkServices requires a non-empty catalogue in which every chain
// service names a paired service that exists.
func checkServices(ctx context.Context, c *cli.Context) error {
	services, err := c.Store.GetServices(ctx)
	if err != nil {
		return fmt.Errorf("failed to read services: %w", err)
	}
	if len(services) == 0 {
		return errors.New("service catalogue is empty; seed a fixture first")
	}

	known := make(map[string]bool, len(services))
	for _, s := range services {
		known[s.Code] = true
	}
	var errs []error
	for _, s := range services {
		if !s.IsSystemChain {
			continue
		}
		switch {
		case s.PairedService == "":
			errs = append(errs, fmt.Errorf("chain service %s has no paired service", s.Code))
		case !known[s.PairedService]:
			errs = append(errs, fmt.Errorf("chain service %s pairs with unknown service %s", s.Code, s.PairedService))
		}
	}
	return errors.Join(errs...)
}

func checkRoster(ctx context.Context, c *cli.Context, rosterID string) error {
	r, err := c.Store.GetRoster(ctx, rosterID)
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}
	days, err := utils.DaysBetween(r.PeriodStart, r.PeriodEnd)
	if err != nil {
		return fmt.Errorf("invalid roster period: %w", err)
	}
	if days < 0 {
		return fmt.Errorf("roster period ends (%s) before it starts (%s)", r.PeriodEnd, r.PeriodStart)
	}

	reqs, err := c.Store.GetRequirements(ctx, rosterID)
	if err != nil {
		return fmt.Errorf("failed to read requirements: %w", err)
	}
	for _, req := range reqs {
		if req.RequiredCount > 0 {
			return nil
		}
	}
	return errors.New("no staffing requirements with required_count > 0")
}

func checkBackupsPresent(_ context.Context, c *cli.Context) error {
	path := c.SQLitePath()
	if path == "" {
		return nil
	}
	mgr := backup.NewManager(path)
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkClockTimezone(now time.Time) error {
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
