// Command regiond classifies points against the composite region and serves
// the classifier over HTTP and gRPC.
package main

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/regioncheck/internal/cli"
	"github.com/danielpatrickdp/regioncheck/internal/config"
	"github.com/danielpatrickdp/regioncheck/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set at build time)
var version = "dev"

// #region root

type app struct {
	configPath string
	cfg        *config.Config
	logger     zerolog.Logger
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	return nil
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "regiond",
		Short: "Composite region membership service",
		Long: cli.TitleStyle.Render("regiond") + `

Decides whether a point (x, y) lies inside the region built from a
rectangle, a quarter disk and a triangle scaled by r.

` + cli.DimStyle.Render("Use 'regiond [command] --help' for more information."),
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config YAML (env REGIONCHECK_* overrides)")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level")

	rootCmd.AddCommand(
		newServeCmd(a),
		newCheckCmd(a),
		newRenderCmd(a),
		newConfigCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// #endregion root
