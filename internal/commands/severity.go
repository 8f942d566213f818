package commands

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/archvision/reportpdf/internal/report"
)

// Severity prints the number of findings per severity level of a report.
func Severity(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("no report source specified")
	}
	rep, err := report.LoadFile(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	summary := report.ParseSeverity(rep.Markdown)
	out := cmd.Root().Writer
	for _, sev := range report.Severities {
		if _, err := fmt.Fprintf(out, "%-9s %d\n", sev.Label(), summary.Count(sev)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "%-9s %d\n", "TOTAL", summary.Total())
	return err
}
