// Package main HTTP server command.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dreamfactory/dspdocs/internal/config"
	"github.com/dreamfactory/dspdocs/internal/logging"
	"github.com/dreamfactory/dspdocs/internal/metrics"
	"github.com/dreamfactory/dspdocs/internal/runtime"
	"github.com/dreamfactory/dspdocs/internal/server"
	"github.com/dreamfactory/dspdocs/internal/service"
)

func serveCmd() *cobra.Command {
	var addr, metricsAddr string
	var warm bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the documentation cache and event routes over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "serve")

			if addr == "" {
				addr = config.Env().ListenAddr
			}

			if warm {
				if _, err := a.manager.Rebuild(ctx); err != nil {
					logger.Warn("cache_warm_failed", nil, err)
				}
			}

			srv := server.New(addr, a.manager, service.NewFactory(), a.registry,
				server.WithLogger(logging.New("http")),
				server.WithMetrics(a.metrics),
				server.WithBus(a.bus),
			)

			shutdown := runtime.NewShutdownManager(runtime.DefaultShutdownTimeout, logging.New("runtime"))
			shutdown.RegisterSimple("registry", a.Close)
			shutdown.Register("http", srv.Stop)

			if metricsAddr != "" {
				ms := metrics.NewServer(metricsAddr, a.metrics)
				ms.Start()
				shutdown.Register("metrics", ms.Stop)
			}

			if err := srv.Start(); err != nil {
				a.Close()
				exitOnError("serve", err)
			}
			logger.Info("serving", map[string]interface{}{
				"addr":        srv.Addr(),
				"cache_dir":   a.manager.CacheDir(),
				"scripts_dir": a.scripts.Root(),
			})

			shutdown.ListenForSignals()
			shutdown.Wait()
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default $DSP_LISTEN_ADDR or :8080)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Also serve /metrics and /health on a separate address")
	cmd.Flags().BoolVar(&warm, "warm", true, "Rebuild the cache before serving")
	return cmd
}
