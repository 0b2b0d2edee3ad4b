package system

import (
	"fmt"

	"github.com/julianstephens/rosterfill/internal/cli"
	"github.com/julianstephens/rosterfill/internal/fixture"
)

// SeedCmd imports a YAML fixture of master data and pre-planned slots.
type SeedCmd struct {
	Fixture string `arg:"" type:"existingfile" help:"Fixture YAML file."`
}

func (c *SeedCmd) Run(ctx *cli.Context) error {
	f, err := fixture.ReadFile(c.Fixture)
	if err != nil {
		return err
	}
	d, err := f.Apply(ctx.Context(), ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to seed roster %s: %w", f.Roster.ID, err)
	}

	out := ctx.Stdout()
	fmt.Fprintf(out, "✓ Seeded roster %s (%s to %s)\n", d.Roster.ID, d.Roster.PeriodStart, d.Roster.PeriodEnd)
	fmt.Fprintf(out, "  %d employees, %d services, %d requirements, %d capacities, %d slots\n",
		len(d.Employees), len(d.Services), len(d.Requirements), len(d.Capacities), len(d.Slots))
	return nil
}
