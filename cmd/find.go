package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseek/docseek/internal/finder"
	"github.com/docseek/docseek/internal/search"
)

var (
	flagFindThreshold float64
	flagFindK         int
	flagFindKeyword   bool
	flagFindURL       bool
	flagFindJSON      bool
	flagFindTimeout   time.Duration
)

var findCmd = &cobra.Command{
	Use:   "find <description>",
	Short: "Rank indexed files by similarity to a description",
	Long: `Embed the description and rank the local file-name index by cosine similarity.

With --url the best match is exchanged for a signed download URL.
With --keyword names are matched by tokens and no embeddings are needed.`,
	Example: `  docseek find the site plan pdf
  docseek find --url --k 1 budget spreadsheet`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().Float64Var(&flagFindThreshold, "threshold", search.DefaultThreshold, "Minimum cosine similarity, exclusive (default from config)")
	findCmd.Flags().IntVar(&flagFindK, "k", search.DefaultTopK, "Number of results to show, 0 for all (default from config)")
	findCmd.Flags().BoolVar(&flagFindKeyword, "keyword", false, "Match file names by keywords only")
	findCmd.Flags().BoolVar(&flagFindURL, "url", false, "Print a signed download URL for the best match")
	findCmd.Flags().BoolVar(&flagFindJSON, "json", false, "Print results as JSON")
	findCmd.Flags().DurationVar(&flagFindTimeout, "timeout", 60*time.Second, "Overall deadline")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()
	defer func() { _ = log.Sync() }()

	svc, err := newService(cfg, log, serviceOptions{needIndex: true, needEmbedder: !flagFindKeyword})
	if err != nil {
		return err
	}

	q := finder.Query{Text: strings.Join(args, " "), Keyword: flagFindKeyword}
	// Flags override config only when given.
	if cmd.Flags().Changed("threshold") {
		q.Threshold = &flagFindThreshold
	}
	if cmd.Flags().Changed("k") {
		q.TopK = &flagFindK
	}

	ctx, cancel := commandContext(cmd, flagFindTimeout)
	defer cancel()

	if flagFindURL {
		tok, err := requireToken()
		if err != nil {
			return err
		}
		d, matches, err := svc.FindAndSign(ctx, tok, q)
		if err != nil {
			return err
		}
		if flagFindJSON {
			return printJSON(map[string]any{"download": d, "matches": matches})
		}
		printMatches(q.Text, matches)
		fmt.Println()
		printOK(d.Name, "signed download URL:")
		fmt.Println(d.URL)
		return nil
	}

	matches, err := svc.Find(ctx, q)
	if err != nil {
		return err
	}
	if flagFindJSON {
		return printJSON(matches)
	}
	printMatches(q.Text, matches)
	return nil
}

func printMatches(query string, matches []search.Match) {
	fmt.Printf("\ndocseek find %q\n\n", query)
	fmt.Printf("Results (%d found):\n", len(matches))
	if len(matches) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, m := range matches {
		fmt.Fprintf(w, "  %d.\t[%.3f]\t%s\n", i+1, m.Score, m.Name)
	}
	_ = w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
