// Package main swagger cache commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dreamfactory/dspdocs/internal/render"
)

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the swagger cache and event map",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "build")
			defer a.Close()

			start := time.Now()
			listing, err := a.manager.Rebuild(ctx)
			if err != nil {
				exitOnError("build", err)
			}

			if jsonOut {
				render.Stdout().Println("%s", listing)
				return
			}

			var summary struct {
				APIs []json.RawMessage `json:"apis"`
			}
			json.Unmarshal(listing, &summary)
			fmt.Print(render.New(pretty).Rebuild(len(summary.APIs), time.Since(start), a.manager.CacheDir()))
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached swagger and event file",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "clear")
			defer a.Close()

			removed := a.manager.ClearCache(ctx)
			if jsonOut {
				printJSON(map[string]any{"removed": removed})
				return
			}
			fmt.Print(render.New(pretty).Cleared(removed, a.manager.CacheDir()))
		},
	}
}

func docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs [service]",
		Short: "Print the combined listing or one service's descriptor",
		Long:  "Print cached swagger JSON, rebuilding the cache first if it is missing",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "docs")
			defer a.Close()

			var (
				data []byte
				err  error
			)
			if len(args) == 0 {
				data, err = a.manager.CombinedListing(ctx)
			} else {
				data, err = a.manager.ServiceListing(ctx, args[0])
			}
			if err != nil {
				exitOnError("docs", err)
			}
			printRaw(data)
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached descriptors to other formats",
	}

	var output string
	var asYAML bool
	openapiCmd := &cobra.Command{
		Use:   "openapi <service>",
		Short: "Convert a service descriptor to a validated OpenAPI 3 document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustOpen(ctx, "export")
			defer a.Close()

			doc, err := a.manager.ExportOpenAPI(ctx, args[0])
			if err != nil {
				exitOnError("export", err)
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				exitOnError("export", err)
			}
			if asYAML {
				if data, err = toYAML(data); err != nil {
					exitOnError("export", err)
				}
			}

			if output == "" {
				os.Stdout.Write(append(data, '\n'))
				return
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				exitOnError("export", err)
			}
			render.Stdout().Println("%s Wrote %s", render.BoolIcon(true), output)
		},
	}
	openapiCmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	openapiCmd.Flags().BoolVar(&asYAML, "yaml", false, "Emit YAML instead of JSON")

	cmd.AddCommand(openapiCmd)
	return cmd
}

// toYAML re-encodes a JSON document as block-style YAML.
func toYAML(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}
