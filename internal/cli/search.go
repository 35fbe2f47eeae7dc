package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/corpusdex/internal/domain/search/request"
)

var (
	searchThreshold float64
	searchLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the documents most similar to a query",
	Long: `Embed the query and return stored documents whose cosine similarity
exceeds the threshold, best first.

Examples:
  corpusdex search "fox"
  corpusdex search "animals in motion" --threshold 0.3 --limit 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", -1, "exclusive similarity lower bound (default from config)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of matches (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	threshold, limit := cfg.Search.DefaultThreshold, cfg.Search.DefaultLimit
	if cmd.Flags().Changed("threshold") {
		threshold = searchThreshold
	}
	if cmd.Flags().Changed("limit") {
		limit = searchLimit
	}

	req, err := request.New(strings.Join(args, " "), request.WithThreshold(threshold), request.WithLimit(limit))
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Search.Search(cmd.Context(), &req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(resp.Matches) == 0 {
		fmt.Fprintf(out, "No documents above threshold %.2f\n", req.Threshold())
		return nil
	}
	for i := range resp.Matches {
		m := &resp.Matches[i]
		fmt.Fprintf(out, "%2d. [%.4f] %s\n    %s\n", i+1, m.Score(), m.ID(), m.Content())
	}
	return nil
}
