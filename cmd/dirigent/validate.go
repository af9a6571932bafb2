// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dirigent-ai/dirigent/pkg/config"
)

// validateCmd loads a configuration file and reports the effective values.
func validateCmd(global globalFlags, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := global.ConfigPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	if global.JSON {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}

	if path == "" {
		fmt.Println("no config file given; defaults are valid")
	} else {
		fmt.Printf("%s is valid\n", path)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "llm.provider:\t%s\n", cfg.LLM.Provider)
	fmt.Fprintf(w, "llm.model:\t%s\n", cfg.LLM.Model)
	fmt.Fprintf(w, "run.budget:\t%d\n", cfg.Run.Budget)
	fmt.Fprintf(w, "run.parallel_tool_calls:\t%v\n", cfg.Run.ParallelToolCalls)
	fmt.Fprintf(w, "run.on_no_tool_calls:\t%s\n", cfg.Run.OnNoToolCalls)
	fmt.Fprintf(w, "telemetry.exporter:\t%s\n", cfg.Telemetry.Exporter)
	fmt.Fprintf(w, "audit.enabled:\t%v\n", cfg.Audit.Enabled)
	w.Flush()
	return nil
}
