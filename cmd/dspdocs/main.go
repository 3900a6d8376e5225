// Package main provides the dspdocs CLI entrypoint.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dreamfactory/dspdocs/internal/config"
	"github.com/dreamfactory/dspdocs/internal/eventbus"
	"github.com/dreamfactory/dspdocs/internal/logging"
	"github.com/dreamfactory/dspdocs/internal/metrics"
	"github.com/dreamfactory/dspdocs/internal/registry"
	"github.com/dreamfactory/dspdocs/internal/render"
	"github.com/dreamfactory/dspdocs/internal/scripts"
	"github.com/dreamfactory/dspdocs/internal/store"
	"github.com/dreamfactory/dspdocs/internal/swagger"
)

var (
	version = "0.1.0"
	pretty  bool
	jsonOut bool
	logger  *logging.Logger
)

// app holds the wired components shared by every command.
type app struct {
	store    *store.SQLStore
	registry *registry.Accessor
	scripts  *scripts.Finder
	metrics  *metrics.Metrics
	bus      *eventbus.Bus
	manager  *swagger.Manager
}

// openApp connects the registry and builds the cache manager.
func openApp(ctx context.Context) (*app, error) {
	env := config.Env()
	paths := config.GetPaths()

	if err := config.EnsureDir(paths.Storage); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, config.RegistryDSN())
	if err != nil {
		return nil, err
	}
	logger.Debug("registry_opened", map[string]interface{}{"driver": st.Driver()})

	reg := registry.New(st, logging.New("registry"))
	busLog := logging.New("eventbus")
	bus := eventbus.New(eventbus.WithLogger(busLog), eventbus.WithHistory(64))
	bus.Subscribe("*", func(ctx context.Context, e eventbus.Event) {
		busLog.Debug("cache_event", map[string]interface{}{"topic": e.Topic, "id": e.ID, "data": e.Data})
	})

	loader := swagger.NewLoader(swagger.LoaderConfig{
		DescriptorDir: paths.Descriptors,
		CustomDir:     paths.Custom,
		APIVersion:    env.APIVersion,
		BasePath:      env.BasePath,
	}, logging.New("loader"))

	finder := scripts.NewFinder(paths.Scripts)
	m := metrics.Global()
	manager := swagger.NewManager(
		swagger.Config{CacheDir: paths.Cache, CustomDir: paths.Custom},
		reg, loader, swagger.NewParser(finder),
		swagger.WithBus(bus),
		swagger.WithLogger(logging.New("swagger")),
		swagger.WithMetrics(m),
	)

	return &app{
		store:    st,
		registry: reg,
		scripts:  finder,
		metrics:  m,
		bus:      bus,
		manager:  manager,
	}, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	stats := a.registry.Stats()
	logger.Debug("registry_closed", map[string]interface{}{"hits": stats.Hits, "misses": stats.Misses})
	a.store.Close()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dspdocs",
		Short: "API documentation and event map cache for DSP services",
		Long: `dspdocs builds and serves the swagger documentation cache for every
registered DSP service, plus the event map that resolves requests to
event names and the scripts bound to them.

Use 'dspdocs build' to regenerate the cache.
Use 'dspdocs serve' to expose it over HTTP.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New("cli")
			if !cmd.Flags().Changed("pretty") {
				pretty = render.IsTerminal(os.Stdout)
			}
			if jsonOut {
				pretty = false
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output (default when stdout is a terminal)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "cache", Title: "Cache:"},
		&cobra.Group{ID: "events", Title: "Events:"},
		&cobra.Group{ID: "registry", Title: "Registry:"},
	)

	for _, c := range []*cobra.Command{buildCmd(), clearCmd(), docsCmd(), exportCmd()} {
		c.GroupID = "cache"
		rootCmd.AddCommand(c)
	}

	events := eventsCmd()
	events.GroupID = "events"
	rootCmd.AddCommand(events)

	services := servicesCmd()
	services.GroupID = "registry"
	rootCmd.AddCommand(services)

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			render.Stdout().Println("dspdocs %s", version)
		},
	}
}
