package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseek/docseek/internal/index"
)

var (
	flagIndexOut         string
	flagIndexForce       bool
	flagIndexNormalize   bool
	flagIndexConcurrency int
	flagIndexTimeout     time.Duration

	flagCollectProject string
	flagCollectFolder  string
	flagCollectDepth   int
	flagCollectTimeout time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the file-name embedding index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build <listing.json>",
	Short: "Embed every file name of a listing into the index",
	Long: `Read a listing of [{"file_name": ..., "href": ...}] and embed every name.

Vectors of unchanged entries are reused from the existing index unless --force
is given. The new index replaces the old one atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexBuild,
}

var indexCollectCmd = &cobra.Command{
	Use:   "collect <listing.json>",
	Short: "Walk a project folder tree and write a listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexCollect,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index location, size and embedding model",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexBuildCmd.Flags().StringVar(&flagIndexOut, "out", "", "Index path (default index.path from config)")
	indexBuildCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Re-embed every entry even if unchanged")
	indexBuildCmd.Flags().BoolVar(&flagIndexNormalize, "normalize", false, "Store L2-normalized vectors (default index.normalize from config)")
	indexBuildCmd.Flags().IntVar(&flagIndexConcurrency, "concurrency", 4, "Parallel embedding requests")
	indexBuildCmd.Flags().DurationVar(&flagIndexTimeout, "timeout", 30*time.Minute, "Overall deadline")

	indexCollectCmd.Flags().StringVar(&flagCollectProject, "project", "", "Project id")
	indexCollectCmd.Flags().StringVar(&flagCollectFolder, "folder", "", "Folder id to start from")
	indexCollectCmd.Flags().IntVar(&flagCollectDepth, "depth", 0, "Maximum folder depth below --folder, 0 for unlimited")
	indexCollectCmd.Flags().DurationVar(&flagCollectTimeout, "timeout", 30*time.Minute, "Overall deadline")
	_ = indexCollectCmd.MarkFlagRequired("project")
	_ = indexCollectCmd.MarkFlagRequired("folder")

	indexCmd.AddCommand(indexBuildCmd, indexCollectCmd, indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()
	defer func() { _ = log.Sync() }()

	prov, err := newEmbedder()
	if err != nil {
		return err
	}
	entries, err := index.ReadListing(args[0])
	if err != nil {
		return err
	}

	out := flagIndexOut
	if out == "" {
		out = cfg.Index.Path
	}
	normalize := cfg.Index.Normalize
	if cmd.Flags().Changed("normalize") {
		normalize = flagIndexNormalize
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("cannot create index dir: %w", err)
	}

	ctx, cancel := commandContext(cmd, flagIndexTimeout)
	defer cancel()

	printInfo("", fmt.Sprintf("building index of %d entries using %s", len(entries), prov.ModelID()))
	idx, stats, err := index.Build(ctx, prov, index.BuildOptions{
		Entries:     entries,
		OutPath:     out,
		Force:       flagIndexForce,
		Normalize:   normalize,
		Concurrency: flagIndexConcurrency,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	if stats.Skipped > 0 {
		printWarn("", fmt.Sprintf("%d entr(ies) skipped (missing file_name or href)", stats.Skipped))
	}
	printOK("", fmt.Sprintf("%d embedded, %d reused, dim %d", stats.Embedded, stats.Reused, idx.Dim()))
	printOK("", fmt.Sprintf("index written: %s", out))
	return nil
}

func runIndexCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tok, err := requireToken()
	if err != nil {
		return err
	}
	log := newLogger()
	defer func() { _ = log.Sync() }()

	ctx, cancel := commandContext(cmd, flagCollectTimeout)
	defer cancel()

	entries, err := index.Collect(ctx, newRepoClient(cfg, log), tok, index.CollectOptions{
		ProjectID: flagCollectProject,
		FolderID:  flagCollectFolder,
		MaxDepth:  flagCollectDepth,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	if err := index.WriteListing(args[0], entries); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("%d file(s) written to %s", len(entries), args[0]))
	return nil
}

func runIndexInfo(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := index.Load(cfg.Index.Path)
	if err != nil {
		return err
	}
	fmt.Printf("Path:       %s\n", idx.Path())
	fmt.Printf("Records:    %d\n", idx.Len())
	fmt.Printf("Dimension:  %d\n", idx.Dim())
	if m, ok := idx.Manifest(); ok {
		fmt.Printf("Model:      %s\n", m.ModelID)
		fmt.Printf("Normalized: %t\n", m.Normalize)
		fmt.Printf("Created:    %s\n", emptyAsNA(m.CreatedAt))
	} else {
		fmt.Printf("Model:      %s\n", emptyAsNA(""))
	}
	return nil
}
