// Command replay re-runs recorded or hand-written cases through the
// validator and classifier and reports any verdict that changed.
package main

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/regioncheck/internal/cli"
	"github.com/danielpatrickdp/regioncheck/internal/config"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/replay"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	var (
		dbPath      string
		clientID    string
		fixturePath string
		configPath  string
		jsonOut     bool
	)
	rootCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay cases and report mismatches",
		Example: `  replay --fixture internal/replay/testdata/region_cases.json
  replay --db regioncheck.db --client 5f0c...`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (dbPath == "") == (fixturePath == "") {
				return fmt.Errorf("exactly one of --db or --fixture is required")
			}

			var (
				cases []replay.Case
				vcfg  validate.Config
				err   error
			)
			if fixturePath != "" {
				cases, vcfg, err = loadFixtureCases(fixturePath)
			} else {
				cases, vcfg, err = loadHistoryCases(dbPath, clientID, configPath)
			}
			if err != nil {
				return err
			}

			results, err := replay.Replay(cases, validate.NewValidator(vcfg), eval.NewEvaluator())
			if err != nil {
				return err
			}
			summary := replay.Summarize(results)
			if jsonOut {
				if err := cli.PrintJSON(os.Stdout, map[string]interface{}{"results": results, "summary": summary}); err != nil {
					return err
				}
			} else {
				printResults(results, summary)
			}
			if summary.Mismatches > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON (fixture mode)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the history database (DB mode)")
	rootCmd.Flags().StringVar(&clientID, "client", "", "client whose history to replay (DB mode)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config YAML for validation bounds (DB mode)")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(2)
	}
}

// #endregion main

// #region sources

func loadFixtureCases(path string) ([]replay.Case, validate.Config, error) {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return nil, validate.Config{}, err
	}
	if f.Description != "" {
		fmt.Fprintln(os.Stderr, cli.DimStyle.Render(f.Description))
	}
	return f.ToCases(), f.ValidatorConfig(), nil
}

// loadHistoryCases replays a client's stored evaluations, expecting the
// verdicts they were stored with.
func loadHistoryCases(dbPath, clientID, configPath string) ([]replay.Case, validate.Config, error) {
	if clientID == "" {
		return nil, validate.Config{}, fmt.Errorf("--client is required with --db")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, validate.Config{}, err
	}
	store, err := history.NewStore(dbPath, cfg.History.MaxPerClient)
	if err != nil {
		return nil, validate.Config{}, fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	entries, err := store.List(clientID, 0)
	if err != nil {
		return nil, validate.Config{}, err
	}
	f := replay.FixtureFromHistory("history of "+clientID, entries)
	return f.ToCases(), cfg.Validation.ValidatorConfig(), nil
}

// #endregion sources

// #region output

func printResults(results []replay.Result, s replay.Summary) {
	fmt.Printf("%-28s  %-8s  %s\n", "Case", "Action", "Status")
	fmt.Printf("%-28s+-%-8s+-%s\n", "----------------------------", "--------", "--------")
	for _, r := range results {
		status := cli.HitStyle.Render("ok")
		if !r.Match {
			status = cli.MissStyle.Render("MISMATCH") + " " + r.Reason
		}
		fmt.Printf("%-28s  %-8s  %s\n", truncate(r.ID, 28), r.Action, status)
	}
	fmt.Printf("\n%d cases: %d hit, %d miss, %d invalid, %d mismatched (mean %.3fµs)\n",
		s.Total, s.Hits, s.Misses, s.Invalid, s.Mismatches, s.Timing.MeanMicros)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// #endregion output
