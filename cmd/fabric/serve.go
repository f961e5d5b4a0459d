package main

import (
	"time"

	"github.com/klothoplatform/fabric/pkg/api"
	"github.com/klothoplatform/fabric/pkg/config"
	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveConfig struct {
	address         string
	shutdownTimeout time.Duration
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lifecycle operations over HTTP",
		Args:  cobra.NoArgs,
		RunE:  a.serve,
	}
	flags := cmd.Flags()
	flags.StringVar(&serveConfig.address, "address", "", "Listen address (overrides config)")
	flags.DurationVar(&serveConfig.shutdownTimeout, "shutdown-timeout", 30*time.Second, "Time allowed for running requests on shutdown")
	return cmd
}

// backend describes where stacks are recorded, as reported by /health.
func backend(cfg *config.Config) string {
	if cfg.Engine == config.EngineLocal {
		return "local"
	}
	return "file://" + cfg.StateDir + "/pulumi/state"
}

func (a *app) serve(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if serveConfig.address != "" {
		cfg.Server.Address = serveConfig.address
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	d, err := a.deployer(cfg, m)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	srv := api.NewServer(
		api.Config{
			Address:         cfg.Server.Address,
			CORSOrigins:     cfg.Server.CORSOrigins,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			DefaultLocation: cfg.DefaultLocation,
			Engine:          cfg.Engine,
			Backend:         backend(cfg),
		},
		d,
		api.WithMetrics(m, reg),
		api.WithLogger(logging.GetLogger(ctx).Named("api")),
	)
	return srv.Serve(ctx, serveConfig.shutdownTimeout)
}
