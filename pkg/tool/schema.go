package tool

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// ParamsOf derives ordered tool parameters from a struct type using its
// json and jsonschema tags. This keeps parameter declarations typed for
// tool authors that prefer a struct over a Param slice:
//
//	type addArgs struct {
//		A float64 `json:"a" jsonschema:"description=First addend"`
//		B float64 `json:"b" jsonschema:"description=Second addend"`
//	}
//	params, err := tool.ParamsOf[addArgs]()
func ParamsOf[T any]() ([]Param, error) {
	var v T
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&v)
	if schema.Properties == nil {
		return nil, fmt.Errorf("type %T has no declared fields", v)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var params []Param
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		p := Param{
			Name:        pair.Key,
			Type:        prop.Type,
			Required:    required[pair.Key],
			Default:     prop.Default,
			Description: prop.Description,
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("field %s: %w", pair.Key, err)
		}
		params = append(params, p)
	}
	return params, nil
}
