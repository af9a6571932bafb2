// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dirigent-ai/dirigent/pkg/agent"
	"github.com/dirigent-ai/dirigent/pkg/audit"
	"github.com/dirigent-ai/dirigent/pkg/config"
	"github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/llm"
	"github.com/dirigent-ai/dirigent/pkg/telemetry"
)

type runFlags struct {
	Prompt   string
	Toolset  string
	Scenario string
	Budget   int
	Parallel bool
	Model    string
	Provider string
	Watch    bool
}

func runCmd(ctx context.Context, global globalFlags, args []string) error {
	var rf runFlags

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&rf.Prompt, "prompt", "", "user prompt for the run")
	fs.StringVar(&rf.Toolset, "toolset", "calculator", "built-in tool set (calculator, cart)")
	fs.StringVar(&rf.Scenario, "scenario", "", "YAML scenario file for offline replay")
	fs.IntVar(&rf.Budget, "budget", 0, "override the iteration budget")
	fs.BoolVar(&rf.Parallel, "parallel", false, "dispatch a turn's tool calls concurrently")
	fs.StringVar(&rf.Model, "model", "", "override the configured model")
	fs.StringVar(&rf.Provider, "provider", "", "override the configured provider (ollama, mock)")
	fs.BoolVar(&rf.Watch, "watch", false, "reload the config file on change during the run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rf.Prompt == "" {
		return fmt.Errorf("run: -prompt is required")
	}

	cfg, stopWatch, err := loadRunConfig(ctx, global, rf.Watch)
	if err != nil {
		return err
	}
	defer stopWatch()
	if rf.Model != "" {
		cfg.LLM.Model = rf.Model
	}
	if rf.Provider != "" {
		cfg.LLM.Provider = rf.Provider
	}
	if rf.Budget > 0 {
		cfg.Run.Budget = rf.Budget
	}
	if rf.Parallel {
		cfg.Run.ParallelToolCalls = true
	}

	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if cfg.Telemetry.Exporter != "none" && cfg.Telemetry.Exporter != "" {
		shutdown, err := telemetry.InitWithConfig("dirigent", version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	provider, err := buildProvider(cfg, rf.Scenario)
	if err != nil {
		return err
	}

	toolset, state, err := buildToolset(rf.Toolset)
	if err != nil {
		return err
	}

	opts := []agent.Option{
		agent.WithModel(cfg.LLM.Model),
		agent.WithBudget(cfg.Run.Budget),
		agent.WithParallelToolCalls(cfg.Run.ParallelToolCalls),
		agent.WithOnNoToolCalls(agent.NoToolCallPolicy(cfg.Run.OnNoToolCalls)),
	}
	if cfg.Run.SystemPrompt != "" {
		opts = append(opts, agent.WithSystemPrompt(cfg.Run.SystemPrompt))
	}
	if metrics, err := telemetry.NewLoopMetrics(ctx); err == nil {
		opts = append(opts, agent.WithMetrics(metrics))
	}

	var store audit.Store
	if cfg.Audit.Enabled {
		if cfg.Audit.Path == "" {
			store = audit.NewMemoryStore()
		} else {
			sqlStore, err := audit.Open(cfg.Audit.Path)
			if err != nil {
				return err
			}
			defer sqlStore.Close()
			store = sqlStore
		}
		opts = append(opts, agent.WithAuditStore(store))
	}

	a, err := agent.New(provider, opts...)
	if err != nil {
		return err
	}

	result, runErr := a.Run(ctx, agent.RunConfig{
		Prompt:       rf.Prompt,
		Tools:        toolset,
		InitialState: state,
	})
	if result != nil {
		printResult(global, result)
	}
	return runErr
}

// loadRunConfig loads the effective configuration, optionally watching the
// config file so log level changes apply mid-run. The returned stop function
// is a no-op when watching is off.
func loadRunConfig(ctx context.Context, global globalFlags, watch bool) (*config.Config, func(), error) {
	if !watch || global.ConfigPath == "" {
		cfg, err := loadConfig(global)
		return cfg, func() {}, err
	}

	w, err := config.NewWatcher(global.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	w.OnChange(func(cfg *config.Config) {
		telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	})
	w.Start(ctx)
	return w.Config(), w.Stop, nil
}

// buildProvider selects the completion backend. A scenario file always wins
// so replays stay deterministic regardless of the configured provider.
func buildProvider(cfg *config.Config, scenarioPath string) (llm.Provider, error) {
	if scenarioPath != "" {
		return loadScenario(scenarioPath)
	}
	switch cfg.LLM.Provider {
	case "ollama":
		return llm.NewOllama(cfg.LLM.BaseURL), nil
	case "mock":
		return &llm.MockProvider{Response: "mock response"}, nil
	default:
		return nil, errors.New(errors.CodeConfiguration, "unknown llm provider", nil).
			WithContext("provider", cfg.LLM.Provider)
	}
}

func printResult(global globalFlags, result *agent.RunResult) {
	if global.JSON {
		out := map[string]any{
			"reason":     string(result.Reason),
			"output":     result.Output,
			"iterations": result.Iterations,
			"usage":      result.Usage,
			"state":      result.State,
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Println(string(result.Reason))
			return
		}
		fmt.Println(string(encoded))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "reason:\t%s\n", result.Reason)
	fmt.Fprintf(w, "iterations:\t%d\n", result.Iterations)
	fmt.Fprintf(w, "tokens:\t%d\n", result.Usage.TotalTokens)
	if result.Output != nil {
		fmt.Fprintf(w, "output:\t%v\n", result.Output)
	}
	w.Flush()
}
