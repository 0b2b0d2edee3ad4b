package runs

import (
	"github.com/julianstephens/rosterfill/internal/cli"
)

type ListCmd struct {
	Roster string `required:"" help:"Roster whose runs to list."`
	Limit  int    `default:"20" help:"Maximum number of runs to show (0 for all)."`
	JSON   string `name:"json" placeholder:"FILE" help:"Write the runs as JSON to FILE ('-' for stdout)."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	runs, err := ctx.Store.ListRuns(ctx.Context(), c.Roster, c.Limit)
	if err != nil {
		return err
	}
	if c.JSON != "" {
		return ctx.WriteJSON(c.JSON, runs)
	}
	cli.RenderRuns(ctx.Stdout(), runs)
	return nil
}
