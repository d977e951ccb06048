package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/export"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/services"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage")

const usage = `usage: chamada-import <command> [flags]

commands:
  grid -month YYYY-MM [-source NAME] [-utf8] FILE...   import CSV attendance grids
  roster FILE...                                        import roster workbooks
  reports [-month YYYY-MM] [-format json|xlsx] [-o FILE]
  statistics [-format json|xlsx] [-o FILE]
  publish [-month YYYY-MM] [-statistics]                push to the configured spreadsheet
`

// Toolbox holds what the import commands operate on.
type Toolbox struct {
	Store     store.Backend
	Publisher sheets.Publisher
	Location  *time.Location
	Overrides overrides.Table
	Stdout    io.Writer
	Now       func() time.Time
}

func (t Toolbox) services() (*services.ImportService, *services.ReportService) {
	att := services.NewAttendanceService(t.Store, nil, t.Location)
	return services.NewImportService(t.Store, att, t.Overrides), services.NewReportService(t.Store, t.Overrides, t.Location)
}

// Run executes one command line.
func (t Toolbox) Run(ctx context.Context, args []string) error {
	if t.Stdout == nil {
		t.Stdout = os.Stdout
	}
	if t.Now == nil {
		t.Now = time.Now
	}
	if t.Location == nil {
		t.Location = time.UTC
	}
	if len(args) == 0 {
		fmt.Fprint(t.Stdout, usage)
		return ErrUsage
	}

	switch args[0] {
	case "grid":
		return t.runGrid(ctx, args[1:])
	case "roster":
		return t.runRoster(ctx, args[1:])
	case "reports":
		return t.runReports(ctx, args[1:])
	case "statistics":
		return t.runStatistics(ctx, args[1:])
	case "publish":
		return t.runPublish(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(t.Stdout, usage)
		return nil
	}
	fmt.Fprint(t.Stdout, usage)
	return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
}

func (t Toolbox) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(t.Stdout)
	return fs
}

func (t Toolbox) currentMonth() string {
	return t.Now().In(t.Location).Format("2006-01")
}

func (t Toolbox) runGrid(ctx context.Context, args []string) error {
	fs := t.flags("grid")
	month := fs.String("month", "", "month the grid belongs to (YYYY-MM)")
	source := fs.String("source", "", "instructor tag of the file")
	utf8 := fs.Bool("utf8", false, "file is UTF-8 instead of Windows-1252")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *month == "" || fs.NArg() == 0 {
		return fmt.Errorf("%w: grid needs -month and at least one file", ErrUsage)
	}

	imp, _ := t.services()
	total := 0
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		snaps, err := imp.ImportGrid(ctx, f, services.GridImport{Month: *month, Source: *source, UTF8: *utf8})
		f.Close()
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		for _, s := range snaps {
			fmt.Fprintf(t.Stdout, "%s\t%s\t%s\t%d alunos\n", path, s.Identifier(), s.Schedule, len(s.Records))
		}
		total += len(snaps)
	}
	fmt.Fprintf(t.Stdout, "%d snapshots imported\n", total)
	return nil
}

func (t Toolbox) runRoster(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: roster needs at least one file", ErrUsage)
	}
	imp, _ := t.services()
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		res, err := imp.ImportRoster(ctx, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		fmt.Fprintf(t.Stdout, "%s\t%d turmas\t%d alunos\n", path, res.Classes, res.Students)
	}
	return nil
}

// output opens path for writing, or returns stdout for "" and "-".
func (t Toolbox) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return t.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (t Toolbox) runReports(ctx context.Context, args []string) error {
	fs := t.flags("reports")
	month := fs.String("month", t.currentMonth(), "month to report (YYYY-MM)")
	format := fs.String("format", "json", "json or xlsx")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	_, reports := t.services()
	list, err := reports.ClassReports(ctx, *month)
	if err != nil {
		return err
	}
	w, closeFn, err := t.output(*out)
	if err != nil {
		return err
	}
	switch strings.ToLower(*format) {
	case "json":
		err = writeJSON(w, list)
	case "xlsx":
		err = export.ClassReportsXLSX(w, *month, list)
	default:
		err = fmt.Errorf("%w: unknown format %q", ErrUsage, *format)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	return err
}

func (t Toolbox) runStatistics(ctx context.Context, args []string) error {
	fs := t.flags("statistics")
	format := fs.String("format", "json", "json or xlsx")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	_, reports := t.services()
	stats, err := reports.Statistics(ctx)
	if err != nil {
		return err
	}
	w, closeFn, err := t.output(*out)
	if err != nil {
		return err
	}
	switch strings.ToLower(*format) {
	case "json":
		err = writeJSON(w, stats)
	case "xlsx":
		err = export.StatisticsXLSX(w, stats)
	default:
		err = fmt.Errorf("%w: unknown format %q", ErrUsage, *format)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	return err
}

func (t Toolbox) runPublish(ctx context.Context, args []string) error {
	fs := t.flags("publish")
	month := fs.String("month", t.currentMonth(), "month to publish (YYYY-MM)")
	withStats := fs.Bool("statistics", false, "also publish the statistics tab")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if t.Publisher == nil {
		return errors.New("no publisher configured")
	}

	_, reports := t.services()
	list, err := reports.ClassReports(ctx, *month)
	if err != nil {
		return err
	}
	if err := t.Publisher.PublishClassReports(ctx, *month, list); err != nil {
		return fmt.Errorf("publish %s: %w", *month, err)
	}
	fmt.Fprintf(t.Stdout, "%s: %d turmas publicadas\n", *month, len(list))

	if *withStats {
		stats, err := reports.Statistics(ctx)
		if err != nil {
			return err
		}
		if err := t.Publisher.PublishStatistics(ctx, stats); err != nil {
			return fmt.Errorf("publish statistics: %w", err)
		}
		fmt.Fprintf(t.Stdout, "estatísticas: %d alunos publicados\n", len(stats))
	}
	return nil
}
