package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/orchestrator"
	"github.com/danielpatrickdp/regioncheck/internal/render"
	"github.com/danielpatrickdp/regioncheck/internal/rpc"
	"github.com/danielpatrickdp/regioncheck/internal/transport"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// #region serve

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP (and optional gRPC) server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr, _ := cmd.Flags().GetString("http"); addr != "" {
				a.cfg.Server.HTTPAddr = addr
			}
			if addr, _ := cmd.Flags().GetString("grpc"); addr != "" {
				a.cfg.Server.GRPCAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("http", "", "override server.http_addr")
	cmd.Flags().String("grpc", "", "override server.grpc_addr (empty keeps gRPC disabled)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	store, err := history.NewStore(cfg.History.DBPath, cfg.History.MaxPerClient)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	hub := transport.NewHub(a.logger)
	orch := orchestrator.New(
		validate.NewValidator(cfg.Validation.ValidatorConfig()),
		eval.NewEvaluator(),
		a.logger,
		orchestrator.WithStore(store),
		orchestrator.WithPublisher(hub),
	)

	a.logger.Info().
		Str("db", cfg.History.DBPath).
		Floats64("allowed_r", cfg.Validation.AllowedR).
		Msg("regiond starting")

	g, gctx := errgroup.WithContext(ctx)
	httpSrv := transport.NewServer(cfg.Server, orch, hub, render.NewRenderer(cfg.Render.RenderOptions()), a.logger)
	g.Go(func() error { return httpSrv.Start(gctx) })
	if cfg.Server.GRPCAddr != "" {
		grpcSrv := rpc.NewServer(orch, a.logger)
		g.Go(func() error { return grpcSrv.Start(gctx, cfg.Server.GRPCAddr) })
	}
	return g.Wait()
}

// #endregion serve
