// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

// Package tool defines typed, schema-bearing tool descriptors, the registry
// that validates a tool set for a run, and the dispatcher that resolves and
// executes model-issued tool calls.
package tool

import (
	"fmt"
	"math"
)

// JSON Schema types accepted for tool parameters.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Param declares a single named tool parameter. Parameter order is
// preserved in the schema shown to the model.
type Param struct {
	Name        string
	Type        string
	Required    bool
	Default     any
	Description string
}

func (p Param) validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name is required")
	}
	switch p.Type {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray, TypeObject:
		return nil
	default:
		return fmt.Errorf("parameter %s: unknown type %q", p.Name, p.Type)
	}
}

// coerce checks a decoded JSON value against the parameter type and converts
// it to the canonical Go representation: string, int64, float64, bool,
// []any, or map[string]any.
func (p Param) coerce(value any) (any, error) {
	switch p.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("argument %s: expected string, got %T", p.Name, value)
		}
		return s, nil
	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("argument %s: expected boolean, got %T", p.Name, value)
		}
		return b, nil
	case TypeInteger:
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("argument %s: expected integer, got %v", p.Name, v)
			}
			return int64(v), nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		default:
			return nil, fmt.Errorf("argument %s: expected integer, got %T", p.Name, value)
		}
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("argument %s: expected number, got %T", p.Name, value)
		}
	case TypeArray:
		a, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("argument %s: expected array, got %T", p.Name, value)
		}
		return a, nil
	case TypeObject:
		o, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("argument %s: expected object, got %T", p.Name, value)
		}
		return o, nil
	default:
		return value, nil
	}
}

// property renders the JSON Schema fragment for this parameter.
func (p Param) property() map[string]any {
	prop := map[string]any{"type": p.Type}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if p.Default != nil {
		prop["default"] = p.Default
	}
	return prop
}
