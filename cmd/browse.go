package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/navigator"
)

var (
	flagBrowseHub     string
	flagBrowseProject string
	flagBrowseFolders []string
	flagBrowseFile    string
	flagBrowseJSON    bool
	flagBrowseTimeout time.Duration
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Walk hub → project → folders → file by approximate names",
	Long: `Resolve each level of the repository hierarchy by approximate name.

Without --hub the visible hubs are listed. Without --file the contents of the
last folder reached are listed. With --file the located file is signed.`,
	Example: `  docseek browse
  docseek browse --hub "sunway velocity" --project "velocity tower"
  docseek browse --hub sunway --project tower --folder drawings --file "site plan"`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&flagBrowseHub, "hub", "", "Approximate hub name")
	browseCmd.Flags().StringVar(&flagBrowseProject, "project", "", "Approximate project name")
	browseCmd.Flags().StringArrayVar(&flagBrowseFolders, "folder", nil, "Approximate folder name below the project root (repeatable, outermost first)")
	browseCmd.Flags().StringVar(&flagBrowseFile, "file", "", "Approximate file name")
	browseCmd.Flags().BoolVar(&flagBrowseJSON, "json", false, "Print the result as JSON")
	browseCmd.Flags().DurationVar(&flagBrowseTimeout, "timeout", 60*time.Second, "Overall deadline")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
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
	ctx, cancel := commandContext(cmd, flagBrowseTimeout)
	defer cancel()

	sess := svc.NewSession()

	if flagBrowseHub == "" {
		hubs, err := sess.ListHubs(ctx, tok)
		if err != nil {
			return err
		}
		if flagBrowseJSON {
			return printJSON(hubs)
		}
		printNodes("Hubs", hubs)
		return nil
	}

	if flagBrowseProject == "" {
		if _, err := sess.ListHubs(ctx, tok); err != nil {
			return err
		}
		hub, err := sess.SelectHub(ctx, tok, flagBrowseHub)
		if err != nil {
			return err
		}
		if flagBrowseJSON {
			return printJSON(sess.Listing())
		}
		printOK("", fmt.Sprintf("hub %q", hub.Name))
		printNodes("Projects", sess.Listing())
		return nil
	}

	node, err := sess.Navigate(ctx, tok, navigator.Path{
		Hub:     flagBrowseHub,
		Project: flagBrowseProject,
		Folders: flagBrowseFolders,
		File:    flagBrowseFile,
	})
	if err != nil {
		return err
	}

	if node.Kind != dm.KindFile {
		if flagBrowseJSON {
			return printJSON(map[string]any{"trail": sess.Trail(), "contents": sess.Listing()})
		}
		printTrail(sess.Trail())
		printNodes("Contents", sess.Listing())
		return nil
	}

	d, err := svc.SignedURL(ctx, tok, node.StorageLink)
	if err != nil {
		return err
	}
	d.Name = node.Name
	if flagBrowseJSON {
		return printJSON(map[string]any{"trail": sess.Trail(), "download": d})
	}
	printTrail(sess.Trail())
	printOK(d.Name, "signed download URL:")
	fmt.Println(d.URL)
	return nil
}

func printTrail(trail []dm.Node) {
	names := make([]string, 0, len(trail))
	for _, n := range trail {
		names = append(names, n.Name)
	}
	printInfo("", strings.Join(names, " → "))
}

func printNodes(title string, nodes []dm.Node) {
	fmt.Printf("\n%s (%d):\n", title, len(nodes))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, n := range nodes {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", n.Kind, n.Name, n.ID)
	}
	_ = w.Flush()
}
