package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tlog.app/go/tlog"

	"arlift/internal/driver"
	"arlift/internal/project"
	"arlift/internal/ui"
)

var (
	importStrictDebugInfo bool
	importTarget          string
	importJobs            int
	importNoCache         bool
)

func init() {
	importCmd.Flags().BoolVar(&importStrictDebugInfo, "strict-debug-info", false, "fail on debug info that does not match the IR")
	importCmd.Flags().StringVar(&importTarget, "target", "", "data layout target triple")
	importCmd.Flags().IntVar(&importJobs, "jobs", 0, "parallel file imports (0 = all CPUs)")
	importCmd.Flags().BoolVar(&importNoCache, "no-cache", false, "skip the on-disk import cache")
}

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Import .ll files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := importOptions(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			ctx = tlog.ContextWithSpan(ctx, tlog.Root())
		}

		var results []driver.FileResult
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return err
			}
			var rs []driver.FileResult
			if info.IsDir() {
				rs, err = driver.ImportDir(ctx, opts, arg)
			} else {
				rs, err = driver.ImportFiles(ctx, opts, []string{arg})
			}
			if err != nil {
				return err
			}
			results = append(results, rs...)
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		reporter := ui.NewReporter(cmd.OutOrStdout(), colorEnabled(cmd, os.Stdout))

		failed, cached := 0, 0
		for _, res := range results {
			status := "ok"
			switch {
			case res.Err != nil:
				status = "error"
				failed++
			case res.Cached:
				status = "cached"
				cached++
			}
			if !quiet {
				reporter.File(res.Path, status)
			}
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Path, res.Err)
			}
		}
		if !quiet {
			reporter.Summary(len(results), failed, cached)
		}

		if failed > 0 {
			return fmt.Errorf("%d file(s) failed to import", failed)
		}
		return nil
	},
}

// importOptions merges the nearest arlift.toml with explicit flags;
// a flag set on the command line wins over the manifest.
func importOptions(cmd *cobra.Command) (project.Options, error) {
	manifest, _, err := project.LoadManifest(".")
	if err != nil {
		return project.Options{}, err
	}
	opts := manifest.Options

	if cmd.Flags().Changed("strict-debug-info") {
		opts.StrictDebugInfo = importStrictDebugInfo
	}
	if cmd.Flags().Changed("target") {
		opts.Target = importTarget
	}
	if cmd.Flags().Changed("jobs") {
		opts.Jobs = importJobs
	}
	if cmd.Flags().Changed("no-cache") {
		opts.NoCache = importNoCache
	}

	if _, err := opts.ResolveTarget(); err != nil {
		return project.Options{}, err
	}
	return opts, nil
}
