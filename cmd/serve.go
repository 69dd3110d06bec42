package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docseek/docseek/internal/api"
)

var flagServeListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve file resolution over HTTP.

  POST /v1/find               {"query": "..."}            ranked matches
  POST /v1/find-and-download  {"query": "..."}            best match, signed
  POST /v1/download-url       {"href": "..."}             signed URL
  POST /v1/navigate           {"hub", "project", ...}     hierarchy walk
  GET  /v1/hubs                                           visible hubs

Repository calls use the request's bearer token, or the configured token.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeListen, "listen", "", "Listen address (default server.listen from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tok, err := accessToken()
	if err != nil {
		return err
	}
	log := newLogger()
	defer func() { _ = log.Sync() }()

	svc, err := newService(cfg, log, serviceOptions{})
	if err != nil {
		return err
	}

	addr := cfg.Server.Listen
	if flagServeListen != "" {
		addr = flagServeListen
	}
	printInfo("", "listening on http://"+addr)
	ctx, cancel := commandContext(cmd, 0)
	defer cancel()
	return api.Serve(ctx, addr, api.NewRouter(svc, tok, log), log)
}
