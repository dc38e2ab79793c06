package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/cli"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/orchestrator"
	"github.com/danielpatrickdp/regioncheck/internal/rpc"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/spf13/cobra"
)

// #region check

type checkOutput struct {
	OK             bool     `json:"ok"`
	ID             string   `json:"id,omitempty"`
	Hit            bool     `json:"hit"`
	Shape          string   `json:"shape,omitempty"`
	Now            string   `json:"now,omitempty"`
	DurationMicros float64  `json:"durationMicros"`
	Errors         []string `json:"errors,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	var remote string
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "check x y r",
		Short: "Classify one point",
		Long:  "Classify one point locally, or against a running regiond with --remote host:port (gRPC).",
		Example: `  regiond check 0.5 -- -0.25 1
  regiond check --remote localhost:9090 -- -0,5 0 2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out checkOutput
			var err error
			if remote != "" {
				out, err = checkRemote(cmd.Context(), remote, args)
			} else {
				out, err = a.checkLocal(args)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				if err := cli.PrintJSON(os.Stdout, out); err != nil {
					return err
				}
			} else if out.OK {
				shape := ""
				if out.Shape != "" {
					shape = " " + cli.DimStyle.Render("("+out.Shape+")")
				}
				fmt.Printf("%s%s  %s\n", cli.Verdict(out.Hit), shape,
					cli.DimStyle.Render(fmt.Sprintf("%.3fµs at %s", out.DurationMicros, out.Now)))
			} else {
				fmt.Fprint(os.Stderr, cli.Errors(out.Errors))
			}
			if !out.OK {
				os.Exit(2)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "gRPC address of a running regiond")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func (a *app) checkLocal(args []string) (checkOutput, error) {
	orch := orchestrator.New(validate.NewValidator(a.cfg.Validation.ValidatorConfig()), eval.NewEvaluator(), a.logger)
	res, err := orch.Submit(orchestrator.Submission{X: args[0], Y: args[1], R: args[2]})
	if err != nil {
		return checkOutput{}, err
	}
	if !res.OK() {
		return checkOutput{OK: false, Errors: res.Errors()}, nil
	}
	rec := res.Record
	return checkOutput{
		OK:             true,
		ID:             rec.ID,
		Hit:            rec.Hit,
		Shape:          string(rec.Shape),
		Now:            rec.EvaluatedAt.Format(time.RFC3339Nano),
		DurationMicros: rec.DurationMicros(),
	}, nil
}

func checkRemote(ctx context.Context, addr string, args []string) (checkOutput, error) {
	client, err := rpc.NewClient(addr)
	if err != nil {
		return checkOutput{}, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := client.Classify(ctx, rpc.Request{X: args[0], Y: args[1], R: args[2]})
	if err != nil {
		return checkOutput{}, err
	}
	out := checkOutput{
		OK:             res.OK,
		ID:             res.ID,
		Hit:            res.Hit,
		Shape:          res.Shape,
		DurationMicros: res.DurationMicros,
		Errors:         res.Errors,
	}
	if !res.Now.IsZero() {
		out.Now = res.Now.Format(time.RFC3339Nano)
	}
	return out, nil
}

// #endregion check
