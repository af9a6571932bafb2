// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"testing"

	"github.com/dirigent-ai/dirigent/pkg/errors"
)

func noopFunc(_ context.Context, _ Args) (any, error) { return nil, nil }

func TestNewRequiresName(t *testing.T) {
	_, err := New("", WithFunc(noopFunc))
	if err == nil {
		t.Fatal("expected error for empty name")
	}
	if errors.CodeOf(err) != errors.CodeConfiguration {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.CodeConfiguration)
	}
}

func TestNewRequiresExactlyOneExecutionVariant(t *testing.T) {
	if _, err := New("bare"); err == nil {
		t.Error("expected error for descriptor without an execution function")
	}

	both := []Option{
		WithFunc(noopFunc),
		WithStateFunc(func(_ context.Context, _ any, _ Args) (any, error) { return nil, nil }),
	}
	if _, err := New("both", both...); err == nil {
		t.Error("expected error for descriptor with both execution variants")
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	cases := []struct {
		name  string
		param Param
	}{
		{"unnamed", Param{Type: TypeString}},
		{"bad type", Param{Name: "x", Type: "decimal"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New("tool", WithFunc(noopFunc), WithParams(tc.param)); err == nil {
				t.Errorf("expected error for param %+v", tc.param)
			}
		})
	}

	dup := []Param{
		{Name: "x", Type: TypeString},
		{Name: "x", Type: TypeInteger},
	}
	if _, err := New("tool", WithFunc(noopFunc), WithParams(dup...)); err == nil {
		t.Error("expected error for duplicate parameter names")
	}
}

func TestNewValidatesDefaults(t *testing.T) {
	mistyped := Param{Name: "limit", Type: TypeInteger, Default: "ten"}
	_, err := New("tool", WithFunc(noopFunc), WithParams(mistyped))
	if err == nil {
		t.Fatal("expected error for default that does not match the parameter type")
	}
	if errors.CodeOf(err) != errors.CodeConfiguration {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.CodeConfiguration)
	}

	// Valid defaults are normalized to the canonical representation.
	d := MustNew("tool", WithFunc(noopFunc), WithParams(
		Param{Name: "limit", Type: TypeInteger, Default: 10},
		Param{Name: "ratio", Type: TypeNumber, Default: 1},
	))
	params := d.Params()
	if v, ok := params[0].Default.(int64); !ok || v != 10 {
		t.Errorf("limit default = %v (%T), want int64 10", params[0].Default, params[0].Default)
	}
	if v, ok := params[1].Default.(float64); !ok || v != 1 {
		t.Errorf("ratio default = %v (%T), want float64 1", params[1].Default, params[1].Default)
	}
}

func TestDescriptorAccessors(t *testing.T) {
	d := MustNew("lookup",
		WithDescription("Look up a record"),
		WithParams(
			Param{Name: "key", Type: TypeString, Required: true},
			Param{Name: "limit", Type: TypeInteger, Default: 10},
		),
		WithStateFunc(func(_ context.Context, _ any, _ Args) (any, error) { return nil, nil }),
	)

	if d.Name() != "lookup" {
		t.Errorf("name = %q", d.Name())
	}
	if d.Description() != "Look up a record" {
		t.Errorf("description = %q", d.Description())
	}
	if d.Terminal() {
		t.Error("terminal = true, want false")
	}
	if !d.Stateful() {
		t.Error("stateful = false, want true")
	}
	if len(d.Params()) != 2 {
		t.Errorf("params = %d, want 2", len(d.Params()))
	}
}

func TestDescriptorSchema(t *testing.T) {
	d := MustNew("search",
		WithParams(
			Param{Name: "query", Type: TypeString, Required: true, Description: "search text"},
			Param{Name: "limit", Type: TypeInteger, Default: 5},
		),
		WithFunc(noopFunc),
	)

	schema := d.Schema()
	if schema["type"] != "object" {
		t.Errorf("schema type = %v", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Error("schema must reject undeclared properties")
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties is %T", schema["properties"])
	}
	query, ok := props["query"].(map[string]any)
	if !ok {
		t.Fatal("missing query property")
	}
	if query["type"] != TypeString || query["description"] != "search text" {
		t.Errorf("query property = %v", query)
	}
	limit, ok := props["limit"].(map[string]any)
	if !ok {
		t.Fatal("missing limit property")
	}
	// Defaults are stored in canonical form, so an int becomes int64.
	if limit["default"] != int64(5) {
		t.Errorf("limit default = %v (%T)", limit["default"], limit["default"])
	}

	required, ok := schema["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "query" {
		t.Errorf("required = %v, want [query]", schema["required"])
	}
}

func TestDescriptorDefinition(t *testing.T) {
	d := MustNew("finish",
		WithDescription("End the run"),
		Terminal(),
		WithFunc(noopFunc),
	)

	def := d.Definition()
	if def.Function.Name != "finish" {
		t.Errorf("definition name = %q", def.Function.Name)
	}
	if def.Function.Description != "End the run" {
		t.Errorf("definition description = %q", def.Function.Description)
	}
	if !d.Terminal() {
		t.Error("terminal = false, want true")
	}
}

func TestArgsHelpers(t *testing.T) {
	args := Args{
		"s": "hello",
		"i": int64(3),
		"f": 2.5,
		"b": true,
	}
	if args.String("s") != "hello" {
		t.Errorf("String = %q", args.String("s"))
	}
	if args.Int("i") != 3 {
		t.Errorf("Int = %d", args.Int("i"))
	}
	if args.Float("f") != 2.5 {
		t.Errorf("Float = %v", args.Float("f"))
	}
	if !args.Bool("b") {
		t.Error("Bool = false")
	}
	if args.String("missing") != "" || args.Int("missing") != 0 {
		t.Error("missing keys must yield zero values")
	}
}
