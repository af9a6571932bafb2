// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/dirigent-ai/dirigent/pkg/tool"
)

// buildToolset returns a built-in tool set and its initial state container.
func buildToolset(name string) ([]*tool.Descriptor, any, error) {
	switch name {
	case "calculator":
		return calculatorTools(), map[string]any{}, nil
	case "cart":
		return cartTools(), map[string]any{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown toolset %q (calculator, cart)", name)
	}
}

func numberParams(names ...string) []tool.Param {
	params := make([]tool.Param, 0, len(names))
	for _, n := range names {
		params = append(params, tool.Param{Name: n, Type: tool.TypeNumber, Required: true})
	}
	return params
}

// calculatorTools is a stateful arithmetic tool set: every operation writes
// its result into the shared state, and show_result ends the run with it.
func calculatorTools() []*tool.Descriptor {
	binary := func(name, description, verb string, fn func(a, b float64) (float64, error)) *tool.Descriptor {
		return tool.MustNew(name,
			tool.WithDescription(description),
			tool.WithParams(numberParams("a", "b")...),
			tool.WithStateFunc(func(_ context.Context, state any, args tool.Args) (any, error) {
				a, b := args.Float("a"), args.Float("b")
				result, err := fn(a, b)
				if err != nil {
					return nil, err
				}
				state.(map[string]any)["result"] = result
				return fmt.Sprintf("%s %v and %v = %v", verb, a, b, result), nil
			}),
		)
	}

	return []*tool.Descriptor{
		binary("add", "Add two numbers", "Added", func(a, b float64) (float64, error) {
			return a + b, nil
		}),
		binary("subtract", "Subtract the second number from the first", "Subtracted", func(a, b float64) (float64, error) {
			return a - b, nil
		}),
		binary("multiply", "Multiply two numbers", "Multiplied", func(a, b float64) (float64, error) {
			return a * b, nil
		}),
		binary("divide", "Divide the first number by the second", "Divided", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("cannot divide by zero")
			}
			return a / b, nil
		}),
		binary("power", "Raise the first number to the power of the second", "Raised", func(a, b float64) (float64, error) {
			return math.Pow(a, b), nil
		}),
		tool.MustNew("square_root",
			tool.WithDescription("Calculate the square root of a number"),
			tool.WithParams(tool.Param{Name: "number", Type: tool.TypeNumber, Required: true}),
			tool.WithStateFunc(func(_ context.Context, state any, args tool.Args) (any, error) {
				n := args.Float("number")
				if n < 0 {
					return nil, fmt.Errorf("cannot take the square root of a negative number")
				}
				result := math.Sqrt(n)
				state.(map[string]any)["result"] = result
				return fmt.Sprintf("Square root of %v = %v", n, result), nil
			}),
		),
		tool.MustNew("show_result",
			tool.WithDescription("Show the final result and stop"),
			tool.Terminal(),
			tool.WithStateFunc(func(_ context.Context, state any, _ tool.Args) (any, error) {
				result, ok := state.(map[string]any)["result"]
				if !ok || result == nil {
					return "No result has been calculated yet.", nil
				}
				return result, nil
			}),
		),
	}
}

type cartItem struct {
	Price    float64
	Quantity int
}

func cartState(state any) (map[string]cartItem, map[string]any) {
	m := state.(map[string]any)
	cart, ok := m["cart"].(map[string]cartItem)
	if !ok {
		cart = map[string]cartItem{}
		m["cart"] = cart
		m["total"] = 0.0
	}
	return cart, m
}

// cartTools is a stateful shopping cart tool set ending with checkout.
func cartTools() []*tool.Descriptor {
	return []*tool.Descriptor{
		tool.MustNew("add_item",
			tool.WithDescription("Add an item to the shopping cart"),
			tool.WithParams(
				tool.Param{Name: "item_name", Type: tool.TypeString, Required: true},
				tool.Param{Name: "price", Type: tool.TypeNumber, Required: true},
				tool.Param{Name: "quantity", Type: tool.TypeInteger, Required: true},
			),
			tool.WithStateFunc(func(_ context.Context, state any, args tool.Args) (any, error) {
				cart, m := cartState(state)
				name := args.String("item_name")
				price := args.Float("price")
				quantity := int(args.Int("quantity"))
				if quantity <= 0 {
					return nil, fmt.Errorf("quantity must be positive")
				}

				item := cart[name]
				item.Price = price
				item.Quantity += quantity
				cart[name] = item
				m["total"] = m["total"].(float64) + price*float64(quantity)
				return fmt.Sprintf("Added %d %s(s) at $%.2f each", quantity, name, price), nil
			}),
		),
		tool.MustNew("remove_item",
			tool.WithDescription("Remove an item from the shopping cart"),
			tool.WithParams(tool.Param{Name: "item_name", Type: tool.TypeString, Required: true}),
			tool.WithStateFunc(func(_ context.Context, state any, args tool.Args) (any, error) {
				cart, m := cartState(state)
				name := args.String("item_name")
				item, ok := cart[name]
				if !ok {
					return nil, fmt.Errorf("%s is not in the cart", name)
				}
				delete(cart, name)
				m["total"] = m["total"].(float64) - item.Price*float64(item.Quantity)
				return fmt.Sprintf("Removed %s from the cart", name), nil
			}),
		),
		tool.MustNew("show_cart",
			tool.WithDescription("Display the current contents of the shopping cart"),
			tool.WithStateFunc(func(_ context.Context, state any, _ tool.Args) (any, error) {
				cart, m := cartState(state)
				return map[string]any{
					"items": len(cart),
					"total": m["total"],
				}, nil
			}),
		),
		tool.MustNew("checkout",
			tool.WithDescription("Finalize the purchase and stop"),
			tool.Terminal(),
			tool.WithStateFunc(func(_ context.Context, state any, _ tool.Args) (any, error) {
				cart, m := cartState(state)
				if len(cart) == 0 {
					return nil, fmt.Errorf("cart is empty")
				}
				return fmt.Sprintf("Checked out %d item(s), total $%.2f", len(cart), m["total"]), nil
			}),
		),
	}
}

// toolsCmd lists the built-in tool sets and providers.
func toolsCmd(_ globalFlags) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOLSET\tTOOL\tTERMINAL\tDESCRIPTION")
	for _, name := range []string{"calculator", "cart"} {
		descriptors, _, err := buildToolset(name)
		if err != nil {
			continue
		}
		for _, d := range descriptors {
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", name, d.Name(), d.Terminal(), d.Description())
		}
	}
	w.Flush()

	fmt.Println()
	fmt.Println("Providers: ollama, mock (and -scenario file replay)")
}
