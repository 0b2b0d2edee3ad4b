package runs

import (
	"fmt"

	"github.com/julianstephens/rosterfill/internal/cli"
	"github.com/julianstephens/rosterfill/internal/loader"
	"github.com/julianstephens/rosterfill/internal/validation"
)

// ValidateCmd checks the chains persisted for a roster without solving.
type ValidateCmd struct {
	Roster string `required:"" help:"Roster whose chains to check."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	bench, _, err := loader.Load(ctx.Context(), ctx.Store, c.Roster)
	if err != nil {
		return err
	}

	vr := validation.New().ValidateChains(bench.Slots, bench.Services, bench.Roster.PeriodStart, bench.Roster.PeriodEnd)
	cli.RenderValidation(ctx.Stdout(), vr)
	if vr.HasErrors() {
		return fmt.Errorf("roster %s: %d of %d chains invalid", c.Roster, len(vr.Chains)-vr.ValidCount(), len(vr.Chains))
	}
	return nil
}
