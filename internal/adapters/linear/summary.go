package linear

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/ui/style"
)

var outcomeIcons = map[domain.Outcome]struct {
	icon  string
	color termenv.Color
}{
	domain.OutcomeBuilt:     {style.Check, termenv.ANSIGreen},
	domain.OutcomeSkipped:   {style.Tilde, termenv.ANSIBrightBlack},
	domain.OutcomeFailed:    {style.Cross, termenv.ANSIRed},
	domain.OutcomeBlocked:   {style.Circle, termenv.ANSIYellow},
	domain.OutcomeCancelled: {style.Warning, termenv.ANSIYellow},
}

// WriteSummary prints the per-target outcomes of a build followed by totals.
func WriteSummary(w io.Writer, profile termenv.Profile, r *domain.BuildReport) {
	out := termenv.NewOutput(w, termenv.WithProfile(profile))

	width := 0
	for _, t := range r.Targets {
		width = max(width, len(t.Name))
	}

	for _, t := range r.Targets {
		ic := outcomeIcons[t.Outcome]
		icon := out.String(ic.icon).Foreground(ic.color).String()
		line := fmt.Sprintf("%s %-*s  %-9s", icon, width, t.Name, t.Outcome)
		if t.Outcome == domain.OutcomeBuilt || t.Outcome == domain.OutcomeFailed {
			line += " " + t.Elapsed.Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(line, " "))
		if t.Error != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", out.String(t.Error).Faint())
		}
	}

	var counts []string
	for _, o := range []domain.Outcome{
		domain.OutcomeBuilt, domain.OutcomeSkipped, domain.OutcomeFailed,
		domain.OutcomeBlocked, domain.OutcomeCancelled,
	} {
		if n := r.Count(o); n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(counts) == 0 {
		counts = append(counts, "nothing to do")
	}

	status := out.String("Build " + string(r.Status))
	switch r.Status {
	case domain.RunSucceeded:
		status = status.Foreground(termenv.ANSIGreen)
	case domain.RunFailed:
		status = status.Foreground(termenv.ANSIRed)
	default:
		status = status.Foreground(termenv.ANSIYellow)
	}
	_, _ = fmt.Fprintf(w, "%s in %v (%s): %s\n",
		status.Bold(), r.Elapsed.Round(time.Millisecond), r.Configuration, strings.Join(counts, ", "))
}
