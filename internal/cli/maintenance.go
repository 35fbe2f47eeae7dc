package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/domain/batch"
	maintenanceuc "github.com/kailas-cloud/corpusdex/internal/usecase/maintenance"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report embedding dimensions across the corpus",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Re-embed every document from its content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMaintenance(cmd, "Regenerating", (*maintenanceuc.Service).Regenerate)
	},
}

var truncateCmd = &cobra.Command{
	Use:   "truncate",
	Short: "Cut over-long embeddings down to the canonical dimension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMaintenance(cmd, "Truncating", (*maintenanceuc.Service).Truncate)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd, regenerateCmd, truncateCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Maintenance.Verify(cmd.Context())
	if err != nil {
		return err
	}
	printVerifyReport(cmd.OutOrStdout(), &report)
	if !report.Healthy {
		return errItemsFailed{failed: len(report.Missing) + len(report.Mismatched), total: report.Total}
	}
	return nil
}

func printVerifyReport(w io.Writer, r *maintenanceuc.VerifyReport) {
	fmt.Fprintf(w, "Documents: %d (expected dimension %d)\n", r.Total, domain.CanonicalDimension)

	dims := make([]int, 0, len(r.Lengths))
	for d := range r.Lengths {
		dims = append(dims, d)
	}
	sort.Ints(dims)
	for _, d := range dims {
		fmt.Fprintf(w, "  length %-5d %d\n", d, r.Lengths[d])
	}

	if len(r.Samples) > 0 {
		fmt.Fprintf(w, "\nSamples:\n")
		for _, s := range r.Samples {
			fmt.Fprintf(w, "  %s  dim=%d head=%v\n    %s\n", s.ID, s.Dimension, s.Head, s.Preview)
		}
	}

	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "\nMissing embeddings: %v\n", r.Missing)
	}
	if len(r.Mismatched) > 0 {
		fmt.Fprintf(w, "\nWrong dimension: %v\n", r.Mismatched)
	}
	if r.Healthy {
		fmt.Fprintf(w, "\nAll embeddings have dimension %d\n", domain.CanonicalDimension)
	}
}

type maintenanceRun func(*maintenanceuc.Service, context.Context, ...maintenanceuc.RunOption) (*batch.Report, error)

func runMaintenance(cmd *cobra.Command, label string, op maintenanceRun) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	progress, finish := newProgress(cmd.ErrOrStderr(), label)
	ctx, usage := domain.NewContextWithUsage(cmd.Context())
	report, err := op(a.Maintenance, ctx, maintenanceuc.WithProgress(progress))
	finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBatchReport(out, report)
	if usage.Calls() > 0 {
		fmt.Fprintf(out, "Embedding tokens: %d\n", usage.TotalTokens())
	}
	if report.Failed() > 0 {
		return errItemsFailed{failed: report.Failed(), total: report.Total()}
	}
	return nil
}

// newProgress builds a progress callback; the bar is created on the first call once the total is known.
func newProgress(w io.Writer, label string) (maintenanceuc.ProgressFunc, func()) {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		}
		_ = bar.Set(done)
	}
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(w)
		}
	}
	return progress, finish
}

func printBatchReport(w io.Writer, r *batch.Report) {
	fmt.Fprintf(w, "%s: %d documents, %d ok, %d skipped, %d failed in %s\n",
		r.Operation, r.Total(), r.Succeeded(), r.Skipped(), r.Failed(), r.Duration().Round(time.Millisecond))
	for _, f := range r.Failures() {
		fmt.Fprintf(w, "  FAIL %s %s: %v\n", f.ID(), f.Kind(), f.Err())
	}
}
