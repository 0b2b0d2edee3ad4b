package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/pipeline"
	"github.com/julianstephens/rosterfill/internal/reporter"
	"github.com/julianstephens/rosterfill/internal/validation"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	sectionStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func ratingStyle(r reporter.Rating) lipgloss.Style {
	switch r {
	case reporter.RatingExcellent, reporter.RatingGood:
		return okStyle
	case reporter.RatingFair:
		return warningStyle
	default:
		return dangerStyle
	}
}

func row(label string, value interface{}) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

// RenderRun prints the outcome of one pipeline pass.
func RenderRun(w io.Writer, res pipeline.Result) {
	title := fmt.Sprintf("Run %s on roster %s", res.RunID, res.RosterID)
	if res.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	lines := []string{
		row("Assigned", res.Solve.Assigned),
		row("Chains", res.Solve.Chains),
		row("Paired", res.Solve.Paired),
		row("Blocked", res.Solve.Blocked),
		row("Open units", res.Solve.Open),
	}
	if res.Write != nil {
		lines = append(lines, row("Written", fmt.Sprintf("%d of %d in %d batch(es)", res.Write.Updated, res.Write.Attempted, res.Write.Batches)))
		if res.Write.FailedBatches > 0 {
			lines = append(lines, dangerStyle.Render(fmt.Sprintf("%d batch(es) failed; rerunning is safe", res.Write.FailedBatches)))
		}
		if n := res.Write.Unresolved(); n > 0 {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("%d assignment(s) written without a requirement reference", n)))
		}
	}
	lines = append(lines, row("Duration", res.ExecutionTime.Round(time.Millisecond)))
	fmt.Fprintln(w, sectionStyle.Render(strings.Join(lines, "\n")))

	if res.Validation != nil && len(res.Validation.Errors) > 0 {
		fmt.Fprintln(w)
		RenderValidation(w, *res.Validation)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(w, warningStyle.Render("warning: "+warn))
	}
	if res.Report != nil {
		fmt.Fprintln(w)
		RenderReport(w, res.Report)
	}
	if res.Err != nil {
		fmt.Fprintln(w, dangerStyle.Render("Run failed: "+res.Err.Error()))
	}
}

// RenderValidation prints chain violations, or a one-line all-clear.
func RenderValidation(w io.Writer, vr validation.Result) {
	switch {
	case vr.HasErrors():
		fmt.Fprintln(w, dangerStyle.Render(fmt.Sprintf("%d of %d chains valid", vr.ValidCount(), len(vr.Chains))))
	case len(vr.Errors) > 0:
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d chains valid, %d warning(s)", len(vr.Chains), len(vr.Errors))))
	default:
		fmt.Fprintln(w, okStyle.Render(vr.FormatReport()))
		return
	}
	for _, e := range vr.Errors {
		style := dangerStyle
		if e.Severity == validation.SeverityWarning {
			style = warningStyle
		}
		fmt.Fprintf(w, "  %s %s\n", style.Render(string(e.Kind)), e.Message)
		if len(e.SlotIDs) > 0 {
			fmt.Fprintf(w, "    slots: %s\n", strings.Join(e.SlotIDs, ", "))
		}
	}
}

// RenderReport prints the coverage summary, bottlenecks and open needs.
func RenderReport(w io.Writer, rep *reporter.Report) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Coverage %s to %s", rep.PeriodStart, rep.PeriodEnd)))
	s := rep.Summary
	fmt.Fprintln(w, sectionStyle.Render(strings.Join([]string{
		row("Required", s.TotalRequired),
		row("Planned", s.TotalPlanned),
		row("Open", s.TotalOpen),
		row("Coverage", ratingStyle(s.Rating).Render(fmt.Sprintf("%.1f%% (%s)", s.CoveragePercent, s.Rating))),
	}, "\n")))

	if len(rep.Services) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Services"))
		for _, svc := range rep.Services {
			line := fmt.Sprintf("%-10s %3d/%-3d %5.1f%%", svc.Service, svc.Planned, svc.Required, svc.CoveragePercent)
			if svc.Bottleneck {
				line += " " + dangerStyle.Render("bottleneck")
			}
			fmt.Fprintln(w, sectionStyle.Render(line))
		}
	}

	if len(rep.Open) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Open requirements"))
		for _, o := range rep.Open {
			fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("%s %-8s %-8s %-8s %d of %d open",
				o.Date, o.Period, o.Team, o.Service, o.Open, o.Required)))
		}
	}

	for _, warn := range rep.Warnings {
		fmt.Fprintln(w, warningStyle.Render("warning: "+warn))
	}
}

// RenderRuns prints run history, newest first.
func RenderRuns(w io.Writer, runs []models.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		status := okStyle.Render("ok")
		switch {
		case !r.Success:
			status = dangerStyle.Render("failed")
		case r.DryRun:
			status = warningStyle.Render("dry-run")
		}
		fmt.Fprintf(w, "%s  %s  %-8s assigned=%d open=%d updated=%d coverage=%.1f%% violations=%d\n",
			r.StartedAt, r.RunID, status, r.Assigned, r.Open, r.Updated, r.CoveragePercent, r.ValidationCount)
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", r.Error)
		}
	}
}
