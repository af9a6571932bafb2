// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dirigent-ai/dirigent/pkg/llm"
)

// scenarioFile is the YAML shape for offline replays: a list of model turns,
// each either plain content or a batch of tool calls.
//
//	turns:
//	  - tool_calls:
//	      - id: c1
//	        name: add
//	        args: {a: 2, b: 3}
//	  - tool_calls:
//	      - id: c2
//	        name: stop_with_result
//	        args: {value: 5}
type scenarioFile struct {
	Turns []scenarioTurn `yaml:"turns"`
}

type scenarioTurn struct {
	Content   string         `yaml:"content"`
	ToolCalls []scenarioCall `yaml:"tool_calls"`
}

type scenarioCall struct {
	ID   string         `yaml:"id"`
	Name string         `yaml:"name"`
	Args map[string]any `yaml:"args"`
}

// loadScenario reads a scenario file into a scripted provider.
func loadScenario(path string) (llm.Provider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}

	var scenario scenarioFile
	if err := yaml.Unmarshal(raw, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Turns) == 0 {
		return nil, fmt.Errorf("scenario %s: no turns", path)
	}

	provider := llm.NewScriptedMockProvider()
	for i, turn := range scenario.Turns {
		if len(turn.ToolCalls) == 0 {
			provider.AddResponse(turn.Content)
			continue
		}
		calls := make([]llm.ToolCall, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			if call.Name == "" {
				return nil, fmt.Errorf("scenario %s: turn %d has a tool call without a name", path, i+1)
			}
			args, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: turn %d: %w", path, i+1, err)
			}
			calls = append(calls, llm.ToolCall{
				ID:   call.ID,
				Type: llm.ToolTypeFunction,
				Function: llm.FunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		provider.AddToolCalls(calls...)
	}
	return provider, nil
}
