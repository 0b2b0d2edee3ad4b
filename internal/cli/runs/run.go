// Package runs holds the commands that execute and inspect autofill runs.
package runs

import (
	"github.com/julianstephens/rosterfill/internal/cli"
	"github.com/julianstephens/rosterfill/internal/pipeline"
)

type RunCmd struct {
	Roster string `required:"" help:"Roster to autofill."`
	DryRun bool   `help:"Solve, validate and report without writing."`
	JSON   string `name:"json" placeholder:"FILE" help:"Also write the report as JSON to FILE ('-' for stdout only)."`
}

func (c *RunCmd) Run(ctx *cli.Context) error {
	res, err := ctx.RunPipeline(ctx.Context(), c.Roster, pipeline.Options{DryRun: c.DryRun})
	if err != nil {
		return err
	}

	if c.JSON != "" && res.Report != nil {
		if err := ctx.WriteJSON(c.JSON, res.Report); err != nil {
			return err
		}
	}
	if c.JSON != "-" {
		cli.RenderRun(ctx.Stdout(), res)
	}
	return res.Err
}
