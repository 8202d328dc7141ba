package mcptest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ggoodman/mcp-explore/mcp"
)

// ToolFunc handles a tools/call. A returned error becomes a JSON-RPC error
// response; failures the model should see belong in an IsError result.
type ToolFunc func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error)

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor mcp.Tool
	Handler    ToolFunc
}

// NewTool builds a tool whose input schema is reflected from A. Arguments
// are decoded strictly; unknown fields produce an IsError result.
func NewTool[A any](name, description string, fn func(ctx context.Context, args A) (*mcp.CallToolResult, error)) Tool {
	return Tool{
		Descriptor: mcp.Tool{
			Name:        name,
			Description: description,
			InputSchema: reflectInputSchema[A](),
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
			var a A
			if len(raw) > 0 {
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.DisallowUnknownFields()
				if err := dec.Decode(&a); err != nil {
					return Errorf("invalid arguments: %v", err), nil
				}
			}
			return fn(ctx, a)
		},
	}
}

// reflectInputSchema reflects A into an object schema. Properties keep the
// declaration order of A's fields.
func reflectInputSchema[A any]() json.RawMessage {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(A))
	s.Version = ""
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("mcptest: reflect schema: %v", err))
	}
	return b
}

// Text returns a successful result carrying one text block.
func Text(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: s}}}
}

// Errorf returns an IsError result carrying a formatted message.
func Errorf(format string, args ...any) *mcp.CallToolResult {
	res := Text(fmt.Sprintf(format, args...))
	res.IsError = true
	return res
}

// CalculateArgs is the input of the calculate tool.
type CalculateArgs struct {
	Operation string  `json:"operation" jsonschema:"enum=add,enum=subtract,enum=multiply,enum=divide" jsonschema_description:"Arithmetic operation to apply"`
	A         float64 `json:"a" jsonschema_description:"Left operand"`
	B         float64 `json:"b" jsonschema_description:"Right operand"`
}

// Calculator returns the calculate tool: four-function arithmetic on two
// numbers. The answer is a JSON text block {"result": n} mirrored in the
// structured content. Division by zero is reported as an IsError result.
func Calculator() Tool {
	return NewTool("calculate", "Perform a calculation based on the operation type.",
		func(ctx context.Context, args CalculateArgs) (*mcp.CallToolResult, error) {
			var result float64
			switch args.Operation {
			case "add":
				result = args.A + args.B
			case "subtract":
				result = args.A - args.B
			case "multiply":
				result = args.A * args.B
			case "divide":
				if args.B == 0 {
					return Errorf("Division by zero is not allowed"), nil
				}
				result = args.A / args.B
			default:
				return Errorf("Unknown operation: %s", args.Operation), nil
			}

			b, err := json.Marshal(map[string]float64{"result": result})
			if err != nil {
				return nil, err
			}
			res := Text(string(b))
			res.StructuredContent = map[string]any{"result": result}
			return res, nil
		})
}
