package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jreflect/config"
	"github.com/dhamidi/jreflect/java/scanner"
)

func newScanCmd() *cobra.Command {
	var (
		timeout time.Duration
		list    bool
		find    string
	)

	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Index directories, class files, or jar and zip files without caching",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runScan(os.Stdout, cfg, args, scanOptions{timeout: timeout, list: list, find: find})
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", time.Minute, "give up after this long")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list the indexed classes")
	cmd.Flags().StringVar(&find, "find", "", "report the origin of one class")

	return cmd
}

type scanOptions struct {
	timeout time.Duration
	list    bool
	find    string
}

func runScan(w io.Writer, cfg *config.Config, paths []string, opts scanOptions) error {
	s := scanner.New(scanner.Filter{Allow: cfg.Allow}, cfg.Workers)
	defer s.Close()

	id := s.Submit(scanner.Request{Paths: paths})
	deadline := time.Now().Add(opts.timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var result *scanner.Result
	for range ticker.C {
		result, _ = s.Get(id)
		if result.Status == scanner.StatusCompleted || result.Status == scanner.StatusFailed {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("scan timed out after %s (%d%% done)", opts.timeout, result.ProgressPercent())
		}
	}

	if opts.list {
		for _, ci := range s.AllClasses() {
			fmt.Fprintf(w, "%s\t%s\n", ci.Name, ci.Origin)
		}
	}
	if opts.find != "" {
		if ci := s.FindClass(opts.find); ci != nil {
			fmt.Fprintf(w, "found %s in %s\n", ci.Declaration(), ci.Origin)
		} else {
			fmt.Fprintf(w, "class %s not found\n", opts.find)
		}
	}

	fmt.Fprintf(w, "\n=== SCAN COMPLETE ===\n")
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	fmt.Fprintf(w, "Classes found: %d\n", len(result.Classes))
	fmt.Fprintf(w, "Duration: %s\n", result.EndedAt.Sub(result.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Errors: %d\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	if result.Status == scanner.StatusFailed {
		return fmt.Errorf("scan failed: %s", result.Error)
	}
	return nil
}
