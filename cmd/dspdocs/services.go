// Package main service registry commands.
package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dreamfactory/dspdocs/internal/domain"
	"github.com/dreamfactory/dspdocs/internal/render"
)

func servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage the service registry",
	}

	// dspdocs services list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List documented services, built-ins first",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "services list")
			defer a.Close()

			services, err := a.registry.List(ctx)
			if err != nil {
				exitOnError("services list", err)
			}
			if jsonOut {
				printJSON(services)
				return
			}
			fmt.Print(render.New(pretty).Services(services))
		},
	}

	// dspdocs services add <api_name> <type_id>
	var description string
	var storageType int
	addCmd := &cobra.Command{
		Use:   "add <api_name> <type_id>",
		Short: "Register a service and clear the cache",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			typeID, err := strconv.Atoi(args[1])
			if err != nil {
				exitOnError("services add", fmt.Errorf("type_id must be an integer: %w", err))
			}
			svc := domain.ServiceDescriptor{
				APIName:     args[0],
				TypeID:      domain.ServiceType(typeID),
				Description: description,
			}
			if !svc.TypeID.Known() {
				logger.Warn("service_type_unknown", map[string]interface{}{"type_id": typeID}, nil)
			}
			if cmd.Flags().Changed("storage-type") {
				svc.StorageTypeID = &storageType
			}

			a := mustOpen(ctx, "services add")
			defer a.Close()

			if err := a.store.Register(ctx, svc); err != nil {
				exitOnError("services add", err)
			}
			a.registry.Invalidate()
			a.manager.ClearCache(ctx)

			render.Stdout().Println("%s Registered %s (%s)", render.BoolIcon(true),
				domain.NormalizeAPIName(svc.APIName), svc.TypeID)
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Service description")
	addCmd.Flags().IntVar(&storageType, "storage-type", 0, "Storage type id")

	// dspdocs services rm <api_name>
	rmCmd := &cobra.Command{
		Use:   "rm <api_name>",
		Short: "Remove a service and clear the cache",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "services rm")
			defer a.Close()

			if err := a.store.Remove(ctx, args[0]); err != nil {
				exitOnError("services rm", err)
			}
			a.registry.Invalidate()
			a.manager.ClearCache(ctx)

			render.Stdout().Println("%s Removed %s", render.BoolIcon(true), args[0])
		},
	}

	cmd.AddCommand(listCmd, addCmd, rmCmd)
	return cmd
}
