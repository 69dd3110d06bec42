package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docseek/docseek/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve file resolution as MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout exposing the tools
find_file, get_download_url, find_and_download, list_hubs and navigate.

Logs go to stderr; stdout carries the protocol only.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
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
	return mcpserver.New(svc, tok, version, log).ServeStdio()
}
