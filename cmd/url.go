package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagURLTimeout time.Duration

var urlCmd = &cobra.Command{
	Use:   "url <href>",
	Short: "Exchange a storage link for a signed download URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runURL,
}

func init() {
	urlCmd.Flags().DurationVar(&flagURLTimeout, "timeout", 30*time.Second, "Request deadline")
	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
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

	svc, err := newService(cfg, log, serviceOptions{})
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, flagURLTimeout)
	defer cancel()

	d, err := svc.SignedURL(ctx, tok, args[0])
	if err != nil {
		return err
	}
	fmt.Println(d.URL)
	return nil
}
