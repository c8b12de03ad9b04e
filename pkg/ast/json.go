package ast

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://hiesenoether.dev/schemas/ast.schema.json"

//go:embed ast.schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func programSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(schemaURL, schemaSource)
	})
	return compiledSchema, schemaErr
}

// MarshalProgram encodes a program as an indented JSON document.
func MarshalProgram(program *Program) ([]byte, error) {
	if program == nil {
		return nil, fmt.Errorf("ast: nil program")
	}
	return json.MarshalIndent(program, "", "  ")
}

// DecodeProgram validates a JSON document against the AST schema and builds
// the corresponding tree.
func DecodeProgram(data []byte) (*Program, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ast: parse json: %w", err)
	}
	schema, err := programSchema()
	if err != nil {
		return nil, fmt.Errorf("ast: compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("ast: invalid document: %w", err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: document root must be an object")
	}
	stmts, err := decodeBlock(root["statements"])
	if err != nil {
		return nil, err
	}
	return NewProgram(stmts), nil
}

func decodeBlock(raw any) ([]Statement, error) {
	items, _ := raw.([]any)
	stmts := make([]Statement, 0, len(items))
	for _, item := range items {
		node, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		stmt, ok := node.(Statement)
		if !ok {
			return nil, fmt.Errorf("ast: %s cannot be used as a statement", node.NodeType())
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func decodeExpression(raw any) (Expression, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(Expression)
	if !ok {
		return nil, fmt.Errorf("ast: %s cannot be used as an expression", node.NodeType())
	}
	return expr, nil
}

func decodeOptionalExpression(raw any) (Expression, error) {
	if raw == nil {
		return nil, nil
	}
	return decodeExpression(raw)
}

func decodeExpressions(raw any) ([]Expression, error) {
	items, _ := raw.([]any)
	exprs := make([]Expression, 0, len(items))
	for _, item := range items {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func decodeNode(raw any) (Node, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: expected node object, got %T", raw)
	}
	typ, _ := node["type"].(string)
	switch NodeType(typ) {
	case NodeEnergyDeclaration:
		amount, _ := node["amount"].(float64)
		if amount != math.Trunc(amount) {
			return nil, fmt.Errorf("ast: energy amount must be an integer, got %v", amount)
		}
		return NewEnergyDeclaration(int(amount)), nil
	case NodeAssignment:
		name, _ := node["name"].(string)
		isStable, _ := node["isStable"].(bool)
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return NewAssignment(name, value, isStable), nil
	case NodeStabilizeStatement:
		name, _ := node["name"].(string)
		return NewStabilizeStatement(name), nil
	case NodeFunctionDeclaration:
		name, _ := node["name"].(string)
		rawParams, _ := node["params"].([]any)
		params := make([]string, 0, len(rawParams))
		for _, p := range rawParams {
			s, _ := p.(string)
			params = append(params, s)
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		isPure, _ := node["isPure"].(bool)
		isUnstable, _ := node["isUnstable"].(bool)
		return NewFunctionDeclaration(name, params, body, isPure, isUnstable), nil
	case NodeReturnStatement:
		arg, err := decodeOptionalExpression(node["argument"])
		if err != nil {
			return nil, err
		}
		return NewReturnStatement(arg), nil
	case NodePrintStatement:
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return NewPrintStatement(value), nil
	case NodeInspectStatement:
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return NewInspectStatement(value), nil
	case NodeQueryEnergy:
		return NewQueryEnergy(), nil
	case NodeInvariantStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		return NewInvariantStatement(cond), nil
	case NodeAssertStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		return NewAssertStatement(cond), nil
	case NodeIfStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(node["then"])
		if err != nil {
			return nil, err
		}
		var els []Statement
		if rawElse, ok := node["else"]; ok && rawElse != nil {
			if els, err = decodeBlock(rawElse); err != nil {
				return nil, err
			}
		}
		isStable, _ := node["isStable"].(bool)
		return NewIfStatement(cond, then, els, isStable), nil
	case NodeWhileLoop:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return NewWhileLoop(cond, body), nil
	case NodeForLoop:
		variable, _ := node["variable"].(string)
		iterable, err := decodeExpression(node["iterable"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return NewForLoop(variable, iterable, body), nil
	case NodeRemoveCapability:
		capability, _ := node["capability"].(string)
		return NewRemoveCapability(capability), nil
	case NodeBinaryExpression:
		op, _ := node["operator"].(string)
		left, err := decodeExpression(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, err
		}
		return NewBinaryExpression(op, left, right), nil
	case NodeUnaryExpression:
		op, _ := node["operator"].(string)
		operand, err := decodeExpression(node["operand"])
		if err != nil {
			return nil, err
		}
		return NewUnaryExpression(UnaryOperator(op), operand), nil
	case NodeNumberLiteral:
		value, _ := node["value"].(float64)
		return NewNumberLiteral(value), nil
	case NodeStringLiteral:
		value, _ := node["value"].(string)
		return NewStringLiteral(value), nil
	case NodeIdentifier:
		name, _ := node["name"].(string)
		return NewIdentifier(name), nil
	case NodeFunctionCall:
		callee, _ := node["callee"].(string)
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return NewFunctionCall(callee, args), nil
	case NodeRangeExpression:
		start, err := decodeExpression(node["start"])
		if err != nil {
			return nil, err
		}
		end, err := decodeExpression(node["end"])
		if err != nil {
			return nil, err
		}
		step, err := decodeOptionalExpression(node["step"])
		if err != nil {
			return nil, err
		}
		return NewRangeExpression(start, end, step), nil
	case NodeSequenceLiteral:
		elements, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return NewSequenceLiteral(elements), nil
	default:
		return nil, fmt.Errorf("ast: unsupported node type %q", typ)
	}
}
