// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/llm"
)

// Args holds validated, coerced tool arguments keyed by parameter name.
type Args map[string]any

// String returns the named argument as a string.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the named argument as an int64.
func (a Args) Int(name string) int64 {
	switch v := a[name].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Float returns the named argument as a float64.
func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Bool returns the named argument as a bool.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Func executes a stateless tool.
type Func func(ctx context.Context, args Args) (any, error)

// StateFunc executes a stateful tool. The state value is the run's shared
// State Container, passed by reference and never inspected by the core.
type StateFunc func(ctx context.Context, state any, args Args) (any, error)

// Descriptor is a typed, schema-bearing action definition. The execution
// variant (stateless or stateful) is a tagged choice resolved once at
// construction, never re-inspected per call.
type Descriptor struct {
	name        string
	description string
	params      []Param
	terminal    bool

	fn      Func
	stateFn StateFunc
}

// Option configures a Descriptor under construction.
type Option func(*Descriptor)

// WithDescription sets the description shown to the model.
func WithDescription(description string) Option {
	return func(d *Descriptor) {
		d.description = description
	}
}

// WithParams declares the tool parameters in order.
func WithParams(params ...Param) Option {
	return func(d *Descriptor) {
		d.params = append(d.params, params...)
	}
}

// WithFunc sets a stateless execution function.
func WithFunc(fn Func) Option {
	return func(d *Descriptor) {
		d.fn = fn
	}
}

// WithStateFunc sets a stateful execution function that receives the shared
// State Container as its first argument.
func WithStateFunc(fn StateFunc) Option {
	return func(d *Descriptor) {
		d.stateFn = fn
	}
}

// Terminal marks the tool as terminating: invoking it ends the run and its
// return payload becomes the run's final output.
func Terminal() Option {
	return func(d *Descriptor) {
		d.terminal = true
	}
}

// New builds and validates a tool descriptor.
func New(name string, opts ...Option) (*Descriptor, error) {
	d := &Descriptor{name: name}
	for _, opt := range opts {
		opt(d)
	}
	if d.name == "" {
		return nil, errors.New(errors.CodeConfiguration, "tool name is required", nil)
	}
	if d.fn == nil && d.stateFn == nil {
		return nil, errors.New(errors.CodeConfiguration, "tool has no execution function", nil).
			WithContext("tool", d.name)
	}
	if d.fn != nil && d.stateFn != nil {
		return nil, errors.New(errors.CodeConfiguration, "tool declares both stateless and stateful execution", nil).
			WithContext("tool", d.name)
	}
	seen := make(map[string]bool, len(d.params))
	for i, p := range d.params {
		if err := p.validate(); err != nil {
			return nil, errors.New(errors.CodeConfiguration, "invalid tool parameter", err).
				WithContext("tool", d.name)
		}
		if p.Default != nil {
			// A default bypasses per-call coercion, so it must match the
			// declared type and is stored in canonical form.
			coerced, err := p.coerce(p.Default)
			if err != nil {
				return nil, errors.New(errors.CodeConfiguration, "default value does not match parameter type", err).
					WithContext("tool", d.name).
					WithContext("param", p.Name)
			}
			d.params[i].Default = coerced
		}
		if seen[p.Name] {
			return nil, errors.New(errors.CodeConfiguration, "duplicate parameter name", nil).
				WithContext("tool", d.name).
				WithContext("param", p.Name)
		}
		seen[p.Name] = true
	}
	return d, nil
}

// MustNew is New, panicking on configuration errors. Intended for package
// level tool declarations.
func MustNew(name string, opts ...Option) *Descriptor {
	d, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the unique tool name.
func (d *Descriptor) Name() string { return d.name }

// Description returns the description shown to the model.
func (d *Descriptor) Description() string { return d.description }

// Params returns the declared parameters in order.
func (d *Descriptor) Params() []Param {
	return append([]Param(nil), d.params...)
}

// Terminal reports whether invoking this tool ends the run.
func (d *Descriptor) Terminal() bool { return d.terminal }

// Stateful reports whether the tool receives the shared state container.
func (d *Descriptor) Stateful() bool { return d.stateFn != nil }

// Schema renders the JSON Schema object for the tool parameters.
func (d *Descriptor) Schema() map[string]any {
	properties := make(map[string]any, len(d.params))
	required := make([]string, 0, len(d.params))
	for _, p := range d.params {
		properties[p.Name] = p.property()
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Definition returns the function tool definition sent to the completion API.
func (d *Descriptor) Definition() llm.Tool {
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        d.name,
			Description: d.description,
			Parameters:  d.Schema(),
		},
	}
}

// execute runs the resolved execution variant.
func (d *Descriptor) execute(ctx context.Context, state any, args Args) (any, error) {
	if d.stateFn != nil {
		return d.stateFn(ctx, state, args)
	}
	return d.fn(ctx, args)
}
