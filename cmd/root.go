package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/config"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/embeddings"
	"github.com/docseek/docseek/internal/finder"
	"github.com/docseek/docseek/internal/fuzzy"
	"github.com/docseek/docseek/internal/index"
	"github.com/docseek/docseek/internal/logger"
	"github.com/docseek/docseek/internal/search"
)

var (
	flagConfig string
	flagDebug  bool
	flagToken  string
)

var rootCmd = &cobra.Command{
	Use:          "docseek",
	Short:        "docseek: find a file by description and get a download link",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `docseek resolves an imprecise description of a file ("the site plan pdf")
to a signed download URL, either by ranking a local embedding index of file
names or by walking hub → project → folder → file with approximate names.

Configuration lives in ~/.docseek/docseek.yaml; secrets in ~/.docseek/.env.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.docseek/docseek.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Repository access token (default $"+config.KeyAccessToken+")")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode gives scripts something to branch on: 2 for an expired token,
// 3 when nothing matched, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAuthenticationExpired):
		return 2
	case errors.Is(err, apperr.ErrResolutionNotFound), errors.Is(err, apperr.ErrNoConfidentMatch):
		return 3
	default:
		return 1
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'docseek init' to write a default one.", err)
	}
	return cfg, nil
}

func newLogger() *zap.Logger {
	return logger.New(flagDebug)
}

// accessToken returns --token, falling back to DOCSEEK_ACCESS_TOKEN.
func accessToken() (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	return config.GetConfigValue(config.KeyAccessToken)
}

func requireToken() (string, error) {
	tok, err := accessToken()
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", fmt.Errorf("%w: no access token (pass --token or set %s)", apperr.ErrAuthenticationExpired, config.KeyAccessToken)
	}
	return tok, nil
}

func newRepoClient(cfg *config.Config, log *zap.Logger) *dm.Client {
	return dm.NewClient(dm.Config{
		BaseURL:   cfg.Repository.BaseURL,
		RateLimit: cfg.Repository.RateLimit,
		Burst:     cfg.Repository.Burst,
		Timeout:   time.Duration(cfg.Repository.Timeout),
	}, log)
}

// newEmbedder returns the configured embeddings provider, or nil and the
// reason when none is usable.
func newEmbedder() (embeddings.Provider, error) {
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return embeddings.NewFromConfig(embCfg)
}

type serviceOptions struct {
	// needIndex makes a missing or broken index fatal.
	needIndex bool
	// needEmbedder makes missing embeddings configuration fatal.
	needEmbedder bool
}

// newService wires the finder from config. The index and embedder are
// optional unless opts says otherwise; navigation works without either.
func newService(cfg *config.Config, log *zap.Logger, opts serviceOptions) (*finder.Service, error) {
	fopts := finder.Options{
		Repository: newRepoClient(cfg, log),
		Ranking: search.Options{
			Threshold: cfg.Index.Threshold,
			TopK:      cfg.Index.TopK,
		},
		Logger: log,
	}

	idx, err := index.Load(cfg.Index.Path)
	switch {
	case err == nil:
		fopts.Index = idx
		log.Debug("index loaded", zap.String("path", idx.Path()), zap.Int("records", idx.Len()), zap.Int("dim", idx.Dim()))
	case opts.needIndex:
		return nil, err
	default:
		log.Debug("index unavailable", zap.Error(err))
	}

	prov, err := newEmbedder()
	switch {
	case err == nil:
		fopts.Embedder = prov
	case opts.needEmbedder:
		return nil, err
	default:
		log.Debug("embeddings unavailable", zap.Error(err))
	}

	if fopts.Index != nil && fopts.Embedder != nil {
		if m, ok := fopts.Index.Manifest(); ok && m.ModelID != "" && m.ModelID != prov.ModelID() {
			log.Warn("index was built with a different embeddings model",
				zap.String("index_model", m.ModelID), zap.String("provider_model", prov.ModelID()))
		}
	}

	switch cfg.Resolver.Kind {
	case config.ResolverSemantic:
		if prov == nil {
			return nil, fmt.Errorf("resolver.kind is %q but embeddings are not configured", config.ResolverSemantic)
		}
		fopts.Fuzzy = fuzzy.NewSemantic(prov, cfg.Resolver.MinConfidence, cfg.Resolver.Margin)
	default:
		fopts.Fuzzy = fuzzy.Lexical{MinConfidence: cfg.Resolver.MinConfidence, Margin: cfg.Resolver.Margin}
	}
	return finder.New(fopts), nil
}

// commandContext derives a context bounded by timeout (zero means none).
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
