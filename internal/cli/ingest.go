package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/corpusdex/internal/domain"
	ingestuc "github.com/kailas-cloud/corpusdex/internal/usecase/ingest"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest [text...]",
	Short: "Embed and store documents",
	Long: `Embed each argument as one document and store it.
With --file, every non-empty line of the file is one document ("-" reads stdin).

Examples:
  corpusdex ingest "The quick brown fox" "A lazy dog"
  corpusdex ingest --file sentences.txt`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "read documents from a file, one per line")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	contents := args
	if ingestFile != "" {
		lines, err := readLines(cmd.InOrStdin(), ingestFile)
		if err != nil {
			return err
		}
		contents = append(contents, lines...)
	}
	if len(contents) == 0 {
		return fmt.Errorf("nothing to ingest: pass text arguments or --file")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, usage := domain.NewContextWithUsage(cmd.Context())
	results := a.Ingest.IngestMany(ctx, contents)

	out := cmd.OutOrStdout()
	failed := printIngestResults(out, contents, results)
	fmt.Fprintf(out, "\nStored %d of %d documents (%d embedding tokens)\n",
		len(results)-failed, len(results), usage.TotalTokens())

	if failed > 0 {
		return errItemsFailed{failed: failed, total: len(results)}
	}
	return nil
}

func printIngestResults(w io.Writer, contents []string, results []ingestuc.StoreResult) int {
	failed := 0
	for i, res := range results {
		label := preview(contents[i], 40)
		switch {
		case !res.Success:
			failed++
			fmt.Fprintf(w, "  FAIL  %-42q %s: %v\n", label, res.Kind(), res.Err)
		case res.Duplicate:
			fmt.Fprintf(w, "  DUP   %-42q %s\n", label, res.StoredID)
		default:
			fmt.Fprintf(w, "  OK    %-42q %s\n", label, res.StoredID)
		}
	}
	return failed
}

func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
