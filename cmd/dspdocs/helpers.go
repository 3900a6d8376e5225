package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dreamfactory/dspdocs/internal/render"
)

// exitOnError logs the error and exits.
func exitOnError(op string, err error) {
	logger.Error("command_failed", map[string]interface{}{"op": op}, err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// mustOpen wires the app or exits.
func mustOpen(ctx context.Context, op string) *app {
	a, err := openApp(ctx)
	if err != nil {
		exitOnError(op, err)
	}
	return a
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitOnError("encode", err)
	}
	render.Stdout().Println("%s", data)
}

// printRaw pretty-prints cached JSON, or writes it as is with --json.
func printRaw(data []byte) {
	if jsonOut {
		render.Stdout().Println("%s", data)
		return
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		render.Stdout().Println("%s", data)
		return
	}
	printJSON(v)
}
