// Package commands implements the program subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/report"
	"github.com/archvision/reportpdf/internal/state"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/pkg/api"
)

// ExportFlags are shared by the export and watch commands.
var ExportFlags = []cli.Flag{
	&cli.StringFlag{Name: "id", Usage: "report `ID` used in the output file name (default: source file name)"},
	&cli.StringFlag{Name: "theme", Usage: "visual `MODE` the report view is in before capture (light, dark)"},
	&cli.BoolFlag{Name: "no-overlay", Usage: "do not draw page header and footer"},
	&cli.BoolFlag{Name: "landscape", Usage: "use landscape orientation of the configured page format"},
}

func flagOptions(cmd *cli.Command) ([]api.Option, error) {
	var opts []api.Option
	if name := cmd.String("theme"); name != "" {
		theme, err := style.ParseTheme(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithTheme(theme))
	}
	if cmd.Bool("no-overlay") {
		opts = append(opts, api.WithOverlay(false))
	}
	if cmd.Bool("landscape") {
		opts = append(opts, api.WithLandscape())
	}
	return opts, nil
}

type job struct {
	source string
	dest   string
	id     string
	exp    *api.Exporter
}

func prepareJob(ctx context.Context, cmd *cli.Command) (*job, error) {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return nil, errors.New("no report source specified")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	opts, err := flagOptions(cmd)
	if err != nil {
		return nil, err
	}
	exp, err := env.Exporter(opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare exporter: %w", err)
	}

	j := &job{
		source: cmd.Args().Get(0),
		dest:   cmd.Args().Get(1),
		id:     cmd.String("id"),
		exp:    exp,
	}
	if j.dest == "" {
		j.dest = env.Cfg.Export.OutputDir
	}
	return j, nil
}

func (j *job) run(ctx context.Context, log *zap.Logger) error {
	rep, err := report.LoadFile(j.source)
	if err != nil {
		return err
	}
	if j.id != "" {
		rep.ID = j.id
	}
	res, err := j.exp.ExportFile(ctx, rep, j.dest)
	if err != nil {
		return err
	}
	log.Info("Report exported",
		zap.String("file", filepath.Join(j.dest, res.FileName)),
		zap.Int("pages", res.Pages),
		zap.Stringer("severity", res.Severity))
	return nil
}

// Export converts a markdown report into PDF. When the source is a directory
// every markdown report in it is exported, in natural name order.
func Export(ctx context.Context, cmd *cli.Command) error {
	j, err := prepareJob(ctx, cmd)
	if err != nil {
		return err
	}
	log := state.EnvFromContext(ctx).Log

	fi, err := os.Stat(j.source)
	if err != nil {
		return fmt.Errorf("unable to access source: %w", err)
	}
	if !fi.IsDir() {
		return j.run(ctx, log)
	}
	if j.id != "" {
		log.Warn("Ignoring --id, source is a directory", zap.String("id", j.id))
		j.id = ""
	}

	sources, err := reportFiles(j.source)
	if err != nil {
		return err
	}
	log.Info("Exporting directory", zap.String("dir", j.source), zap.Int("reports", len(sources)))

	var errs error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		one := *j
		one.source = src
		if err := one.run(ctx, log); err != nil {
			log.Error("Export failed", zap.String("source", src), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(src), err))
		}
	}
	return errs
}

// reportFiles lists markdown files of dir in natural order.
func reportFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read source directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(natural.StringSlice(names))

	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}
