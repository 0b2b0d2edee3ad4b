package runs

import (
	"github.com/julianstephens/rosterfill/internal/cli"
	"github.com/julianstephens/rosterfill/internal/loader"
	"github.com/julianstephens/rosterfill/internal/reporter"
	"github.com/julianstephens/rosterfill/internal/validation"
)

// ReportCmd reports coverage of the roster as currently stored.
type ReportCmd struct {
	Roster string `required:"" help:"Roster to report on."`
	JSON   string `name:"json" placeholder:"FILE" help:"Write the report as JSON to FILE ('-' for stdout)."`
}

func (c *ReportCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	bench, _, err := loader.Load(ctx.Context(), ctx.Store, c.Roster)
	if err != nil {
		return err
	}

	vr := validation.New().ValidateChains(bench.Slots, bench.Services, bench.Roster.PeriodStart, bench.Roster.PeriodEnd)
	in := reporter.Input{
		GeneratedAt: ctx.Clock()(),
		Bench:       bench,
		Validation:  &vr,
		Thresholds: reporter.Thresholds{
			MinRatio: settings.Bottleneck.MinRatio,
			MinOpen:  settings.Bottleneck.MinOpen,
		},
	}
	if bench.Roster.LastRunID != nil {
		in.RunID = *bench.Roster.LastRunID
	}
	rep := reporter.Generate(in)

	if c.JSON != "" {
		return ctx.WriteJSON(c.JSON, rep)
	}
	cli.RenderReport(ctx.Stdout(), rep)
	return nil
}
