// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dirigent-ai/dirigent/pkg/config"
)

var version = "dev"

type globalFlags struct {
	ConfigPath string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	switch cmd := args[0]; cmd {
	case "run":
		if err := runCmd(ctx, global, args[1:]); err != nil {
			fatal(err)
		}
	case "validate":
		if err := validateCmd(global, args[1:]); err != nil {
			fatal(err)
		}
	case "tools":
		toolsCmd(global)
	case "version":
		fmt.Println("dirigent", version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", cmd))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var global globalFlags

	fs := flag.NewFlagSet("dirigent", flag.ContinueOnError)
	fs.StringVar(&global.ConfigPath, "config", os.Getenv("DIRIGENT_CONFIG"), "path to config file")
	fs.BoolVar(&global.JSON, "json", false, "machine-readable output")
	fs.BoolVar(&global.Help, "help", false, "show usage")
	fs.Usage = printUsage

	if err := fs.Parse(args); err != nil {
		return global, nil, err
	}
	return global, fs.Args(), nil
}

func loadConfig(global globalFlags) (*config.Config, error) {
	return config.Load(global.ConfigPath)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: dirigent [flags] <command>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")

	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  run\tExecute a tool-dispatch run against a provider")
	fmt.Fprintln(w, "  validate\tCheck a configuration file")
	fmt.Fprintln(w, "  tools\tList built-in tool sets and providers")
	fmt.Fprintln(w, "  version\tPrint the version")
	w.Flush()

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  -config path   config file (or DIRIGENT_CONFIG)")
	fmt.Fprintln(os.Stderr, "  -json          machine-readable output")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "dirigent:", err)
	os.Exit(1)
}
