// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/llm"
)

// Registry holds the validated, ordered tool set for one run.
// Validation is pure: no side effects beyond building the name lookup.
type Registry struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

// NewRegistry validates a tool set. It fails with a configuration error if
// any two names collide or no tool is marked terminal.
func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	r := &Registry{
		ordered: make([]*Descriptor, 0, len(descriptors)),
		byName:  make(map[string]*Descriptor, len(descriptors)),
	}
	hasTerminal := false
	for _, d := range descriptors {
		if d == nil {
			return nil, errors.New(errors.CodeConfiguration, "nil tool descriptor", nil)
		}
		if _, exists := r.byName[d.Name()]; exists {
			return nil, errors.New(errors.CodeConfiguration, "duplicate tool name", nil).
				WithContext("tool", d.Name())
		}
		r.byName[d.Name()] = d
		r.ordered = append(r.ordered, d)
		if d.Terminal() {
			hasTerminal = true
		}
	}
	if !hasTerminal {
		return nil, errors.New(errors.CodeConfiguration, "tool set has no terminal tool", nil).
			WithContext("tools", len(descriptors))
	}
	return r, nil
}

// Lookup returns the descriptor for name, if registered.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// List returns the descriptors in registration order.
func (r *Registry) List() []*Descriptor {
	return append([]*Descriptor(nil), r.ordered...)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, d := range r.ordered {
		names = append(names, d.Name())
	}
	return names
}

// Definitions returns the function tool definitions for the completion API,
// in registration order.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.ordered))
	for _, d := range r.ordered {
		defs = append(defs, d.Definition())
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.ordered) }
