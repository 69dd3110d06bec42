package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/config"
	"github.com/docseek/docseek/internal/index"
)

var flagDoctorOnline bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that docseek's config, index, embeddings and credentials are usable.
Run this command when something seems wrong, or before filing a bug report.

With --online the embeddings service and the repository are contacted too.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&flagDoctorOnline, "online", false, "Also probe the embeddings service and the repository")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("docseek doctor")
	fmt.Println()

	// ── Check 1: config ──────────────────────────────────────────────────────
	fmt.Println("[ docseek.yaml ]")
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath, _ = config.ConfigPath()
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printMiss("", fmt.Sprintf("%s not found, using defaults (run 'docseek init' to write one)", cfgPath))
	}
	cfg, loadErr := loadConfig()
	if loadErr != nil {
		failD("%v", loadErr)
	} else {
		printOK("", fmt.Sprintf("valid; repository %s, resolver %s", cfg.Repository.BaseURL, cfg.Resolver.Kind))
	}
	fmt.Println()

	// ── Check 2: index ───────────────────────────────────────────────────────
	fmt.Println("[ Index ]")
	var idx *index.Index
	if loadErr == nil {
		var err error
		idx, err = index.Load(cfg.Index.Path)
		var le *apperr.IndexLoadError
		switch {
		case err == nil:
			printOK("", fmt.Sprintf("%d record(s), dim %d: %s", idx.Len(), idx.Dim(), idx.Path()))
		case errors.As(err, &le) && errors.Is(le.Err, os.ErrNotExist):
			printWarn("", fmt.Sprintf("no index at %s; 'docseek find' is unavailable until 'docseek index build'", cfg.Index.Path))
		default:
			failD("%v", err)
		}
	} else {
		printSkip("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 3: embeddings ──────────────────────────────────────────────────
	fmt.Println("[ Embeddings ]")
	prov, provErr := newEmbedder()
	if provErr != nil {
		printWarn("", fmt.Sprintf("not configured: %v", provErr))
	} else {
		printOK("", prov.ModelID())
		if idx != nil {
			if m, ok := idx.Manifest(); ok && m.ModelID != "" && m.ModelID != prov.ModelID() {
				failD("index built with %s, provider is %s; rebuild the index", m.ModelID, prov.ModelID())
			}
		}
		if flagDoctorOnline {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			v, err := prov.Embed(ctx, "docseek doctor")
			cancel()
			switch {
			case err != nil:
				failD("embedding probe failed: %v", err)
			case idx != nil && len(v) != idx.Dim():
				failD("provider returns dim %d, index has dim %d", len(v), idx.Dim())
			default:
				printOK("", fmt.Sprintf("embedding probe returned dim %d", len(v)))
			}
		}
	}
	fmt.Println()

	// ── Check 4: access token ────────────────────────────────────────────────
	fmt.Println("[ Access token ]")
	tok, err := accessToken()
	switch {
	case err != nil:
		failD("%v", err)
	case tok == "":
		printMiss("", fmt.Sprintf("not set; pass --token or set %s", config.KeyAccessToken))
	default:
		printOK("", "present")
		if flagDoctorOnline && loadErr == nil {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			hubs, err := newRepoClient(cfg, newLogger()).ListHubs(ctx, tok)
			cancel()
			if err != nil {
				failD("repository probe failed: %v", err)
			} else {
				printOK("", fmt.Sprintf("repository reachable, %d hub(s) visible", len(hubs)))
			}
		}
	}
	fmt.Println()

	// ── Summary ──────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. docseek is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}
