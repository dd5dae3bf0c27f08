package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ankit-chaubey/media-metadata-guard/core"
	"github.com/ankit-chaubey/media-metadata-guard/core/classify"
	"github.com/ankit-chaubey/media-metadata-guard/core/report"
)

// errBlocked is returned when at least one file must not be published.
// The per-file reasons have already been logged.
var errBlocked = errors.New("files blocked")

func newAssertCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "assert <path>...",
		Short: "Check that files can be published without leaking GPS location",
		Long: `assert classifies every file given, walking directories recursively.
It exits with status 1 when any file is blocked or cannot be read.
GPS reports for blocked files are written to --report-file, or to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAssert(cmd.Context(), cmd.OutOrStdout(), args, asJSON)
		},
	}
	cmd.Flags().Int("jobs", runtime.NumCPU(), "number of files classified in parallel")
	cmd.Flags().Int64("max-metadata-bytes", classify.DefaultMaxMetadataBytes, "largest metadata block read from a file; TIFF and RAW files are read from the start up to this size, so a larger file whose directory follows the image data is blocked as too large")
	cmd.Flags().String("report-file", "", "append GPS reports to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print verdicts as a JSON array")
	return cmd
}

type result struct {
	path    string
	outcome core.Outcome
	err     error
}

func (a *app) runAssert(ctx context.Context, out io.Writer, args []string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	sink, closeSink, err := a.reportSink(out, asJSON)
	if err != nil {
		return err
	}
	defer closeSink()

	results := classifyAll(ctx, classify.New(classify.WithMaxMetadataBytes(a.cfg.Assert.MaxMetadataBytes)), paths, a.cfg.Assert.Jobs)

	verdicts, blocked := a.decide(report.NewLogger(a.log, sink), results)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(verdicts); err != nil {
			return err
		}
	}

	a.log.Info("assert finished", "files", len(results), "blocked", blocked)
	if blocked > 0 {
		return fmt.Errorf("%d of %d files: %w", blocked, len(results), errBlocked)
	}
	return nil
}

// decide hands every outcome to rep and counts the files that must not be
// published. Hard failures never reach rep and always block.
func (a *app) decide(rep report.Reporter, results []result) ([]report.Verdict, int) {
	verdicts := make([]report.Verdict, 0, len(results))
	blocked := 0
	for _, r := range results {
		verdicts = append(verdicts, report.NewVerdict(r.path, r.outcome, r.err))
		if r.err != nil {
			a.log.Error("failed to classify", "file", r.path, "error", r.err)
			blocked++
			continue
		}
		if !rep.Report(r.path, r.outcome) {
			blocked++
		}
	}
	return verdicts, blocked
}

// classifyAll classifies paths with at most jobs in flight and returns the
// results in input order.
func classifyAll(ctx context.Context, c *classify.Classifier, paths []string, jobs int) []result {
	results := make([]result, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = result{path: p, err: err}
				return nil
			}
			o, err := c.Classify(p)
			results[i] = result{path: p, outcome: o, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// reportSink returns where GPS reports go. In JSON mode the reports are
// part of the verdicts, so stdout is left alone.
func (a *app) reportSink(out io.Writer, asJSON bool) (io.Writer, func(), error) {
	if name := a.cfg.Assert.ReportFile; name != "" {
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening report file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	if asJSON {
		return nil, func() {}, nil
	}
	return out, func() {}, nil
}

// expandPaths replaces every directory argument with the regular files
// beneath it, in lexical order. Other arguments, including ones that do
// not exist, are kept so that their failure is reported per file.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		fsys := osfs.New(arg)
		err = util.Walk(fsys, "/", func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				paths = append(paths, filepath.Join(arg, filepath.FromSlash(p)))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return paths, nil
}
