// Command fixture-export turns a client's stored evaluations into a replay
// fixture so today's verdicts become tomorrow's regression baseline.
package main

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/regioncheck/internal/cli"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/replay"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	var (
		dbPath   string
		clientID string
		outPath  string
		last     int
	)
	rootCmd := &cobra.Command{
		Use:          "fixture-export",
		Short:        "Export stored evaluations as a replay fixture",
		Example:      "  fixture-export --db regioncheck.db --client 5f0c... --out testdata/session.json",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(dbPath, clientID, last, outPath)
		},
	}
	rootCmd.Flags().StringVar(&dbPath, "db", "regioncheck.db", "path to the history database")
	rootCmd.Flags().StringVar(&clientID, "client", "", "client whose history to export")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	rootCmd.Flags().IntVar(&last, "last", 0, "export only the N most recent evaluations (0 = all retained)")
	rootCmd.MarkFlagRequired("client")
	rootCmd.MarkFlagRequired("out")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, clientID string, last int, outPath string) error {
	store, err := history.NewStore(dbPath, history.DefaultMaxPerClient)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	entries, err := store.List(clientID, last)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no evaluations stored for client %s", clientID)
	}

	f := replay.FixtureFromHistory(fmt.Sprintf("exported from %s (client %s)", dbPath, clientID), entries)
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Println(cli.HitStyle.Render(fmt.Sprintf("✓ wrote %d cases to %s", len(f.Cases), outPath)))
	return nil
}

// #endregion export
