// Package main event map commands.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dreamfactory/dspdocs/internal/render"
	"github.com/dreamfactory/dspdocs/internal/service"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the event map and resolve requests to events",
	}

	// dspdocs events map
	var cached bool
	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "Show every path and method that fires an event",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "events map")
			defer a.Close()

			if jsonOut {
				printJSON(a.manager.AllEvents(ctx, cached))
				return
			}
			fmt.Print(render.New(pretty).Events(a.manager.EventMap(ctx)))
		},
	}
	mapCmd.Flags().BoolVar(&cached, "as-cached", false, "With --json, print the raw cached map")

	// dspdocs events cube
	cubeCmd := &cobra.Command{
		Use:   "cube",
		Short: "Show every event with the paths that fire it",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "events cube")
			defer a.Close()

			cube := a.manager.EventCube(ctx)
			if jsonOut {
				printJSON(cube)
				return
			}
			fmt.Print(render.New(pretty).Cube(cube))
		},
	}

	// dspdocs events find <path>
	var method string
	findCmd := &cobra.Command{
		Use:   "find <request-path>",
		Short: "Resolve a request path and method to its event",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "events find")
			defer a.Close()

			svc, err := service.NewFactory().Resolve(ctx, a.registry, args[0])
			if err != nil {
				exitOnError("events find", err)
			}

			event, ok := a.manager.FindEvent(ctx, svc, method)
			if jsonOut {
				printJSON(map[string]any{"event": event, "found": ok})
				return
			}
			fmt.Print(render.New(pretty).Lookup(method, args[0], event, ok))
			if !ok {
				a.Close()
				os.Exit(1)
			}
		},
	}
	findCmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")

	// dspdocs events has <path> <event>
	hasCmd := &cobra.Command{
		Use:   "has <request-path> <event>",
		Short: "Check whether any path fires event for the method",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "events has")
			defer a.Close()

			svc, err := service.NewFactory().Resolve(ctx, a.registry, args[0])
			if err != nil {
				exitOnError("events has", err)
			}

			found := a.manager.HasEvent(ctx, svc, method, args[1])
			if jsonOut {
				printJSON(map[string]any{"event": args[1], "found": found})
				return
			}
			render.Stdout().Println("%s %s", render.BoolIcon(found), args[1])
		},
	}
	hasCmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")

	cmd.AddCommand(mapCmd, cubeCmd, findCmd, hasCmd)
	return cmd
}
