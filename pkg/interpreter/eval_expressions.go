package interpreter

import (
	"fmt"
	"math"

	"hiesenoether/interpreter-go/pkg/ast"
	"hiesenoether/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(node ast.Expression) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return runtime.NumberValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.Identifier:
		return i.evaluateIdentifier(n)
	case *ast.BinaryExpression:
		return i.evaluateBinaryExpression(n)
	case *ast.UnaryExpression:
		return i.evaluateUnaryExpression(n)
	case *ast.FunctionCall:
		return i.evaluateFunctionCall(n)
	case *ast.RangeExpression:
		return i.evaluateRangeExpression(n)
	case *ast.SequenceLiteral:
		values := make([]runtime.Value, 0, len(n.Elements))
		for _, el := range n.Elements {
			val, err := i.evaluateExpression(el)
			if err != nil {
				return nil, err
			}
			values = append(values, val)
		}
		return runtime.SequenceValue{Elements: values}, nil
	case nil:
		return nil, fmt.Errorf("interpreter: nil expression")
	default:
		return nil, fmt.Errorf("interpreter: unsupported expression type: %s", n.NodeType())
	}
}

func (i *Interpreter) evaluateIdentifier(id *ast.Identifier) (runtime.Value, error) {
	binding, err := i.env.Get(id.Name)
	if err != nil {
		return nil, err
	}
	switch b := binding.(type) {
	case runtime.Cell:
		return b.Read(i.ledger), nil
	case *runtime.FunctionValue:
		return b, nil
	default:
		return nil, fmt.Errorf("interpreter: unexpected binding %T for '%s'", binding, id.Name)
	}
}

// maxCallDepth bounds nested user function calls so runaway recursion fails
// as a runtime error instead of exhausting the goroutine stack.
const maxCallDepth = 1000

func (i *Interpreter) evaluateFunctionCall(call *ast.FunctionCall) (runtime.Value, error) {
	binding, err := i.env.Get(call.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := binding.(*runtime.FunctionValue)
	if !ok {
		return nil, runtime.Errorf(runtime.NotAFunction, "%s is not a function", call.Callee)
	}
	args := make([]runtime.Value, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		val, err := i.evaluateExpression(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	if len(args) != len(fn.Params) {
		return nil, runtime.Errorf(runtime.ArityMismatch, "function %s expects %d args, got %d", fn.Name, len(fn.Params), len(args))
	}

	if i.callDepth >= maxCallDepth {
		return nil, runtime.Errorf(runtime.StackOverflow, "maximum call depth %d exceeded calling %s", maxCallDepth, fn.Name)
	}
	i.callDepth++
	i.env.PushScope()
	for idx, param := range fn.Params {
		i.env.Set(param, runtime.NewStable(args[idx]), true)
	}
	sig, err := i.executeBlock(fn.Body)
	i.env.PopScope()
	i.callDepth--
	if err != nil {
		return nil, err
	}

	var result runtime.Value = runtime.NumberValue{Val: 0}
	if sig.IsReturn() && sig.Value() != nil {
		result = sig.Value()
	}
	if fn.IsUnstable {
		delta := i.ledger.ReleaseEscrow(fn.Name, result)
		if delta < 0 {
			i.printf("## Warning: %s claimed to be unstable but acts stable! Penalty applied.", fn.Name)
		}
		i.logger.Debug("escrow settled", "fn", fn.Name, "delta", delta)
	}
	return result, nil
}

func (i *Interpreter) evaluateRangeExpression(expr *ast.RangeExpression) (runtime.Value, error) {
	start, err := i.evaluateRangeBound(expr.Start, "start")
	if err != nil {
		return nil, err
	}
	end, err := i.evaluateRangeBound(expr.End, "end")
	if err != nil {
		return nil, err
	}
	step := int64(1)
	if expr.Step != nil {
		if step, err = i.evaluateRangeBound(expr.Step, "step"); err != nil {
			return nil, err
		}
		if step == 0 {
			return nil, runtime.Errorf(runtime.TypeMismatch, "range step cannot be zero")
		}
	}
	return runtime.RangeValue{Start: start, End: end, Step: step}, nil
}

func (i *Interpreter) evaluateRangeBound(expr ast.Expression, label string) (int64, error) {
	val, err := i.evaluateExpression(expr)
	if err != nil {
		return 0, err
	}
	num, ok := val.(runtime.NumberValue)
	if !ok || num.Val != math.Trunc(num.Val) || math.IsInf(num.Val, 0) {
		return 0, runtime.Errorf(runtime.TypeMismatch, "range %s must be an integer, got %s", label, runtime.Format(val))
	}
	return int64(num.Val), nil
}

func (i *Interpreter) evaluateUnaryExpression(expr *ast.UnaryExpression) (runtime.Value, error) {
	operand, err := i.evaluateExpression(expr.Operand)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case ast.UnaryOperatorNegate:
		num, ok := operand.(runtime.NumberValue)
		if !ok {
			return nil, runtime.Errorf(runtime.TypeMismatch, "bad operand type for unary -: %s", kindOf(operand))
		}
		return runtime.NumberValue{Val: -num.Val}, nil
	case ast.UnaryOperatorNot:
		return runtime.BoolValue{Val: !runtime.Truthy(operand)}, nil
	default:
		return nil, runtime.Errorf(runtime.UnknownOperator, "unknown unary operator: %s", expr.Operator)
	}
}

// evaluateBinaryExpression evaluates both operands before applying the
// operator, including for `and` and `or`.
func (i *Interpreter) evaluateBinaryExpression(expr *ast.BinaryExpression) (runtime.Value, error) {
	left, err := i.evaluateExpression(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(expr.Right)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case "+", "-", "*", "/", "%":
		return evaluateArithmetic(expr.Operator, left, right)
	case "<", "<=", ">", ">=":
		return evaluateComparison(expr.Operator, left, right)
	case "==":
		return runtime.BoolValue{Val: runtime.Equal(left, right)}, nil
	case "!=":
		return runtime.BoolValue{Val: !runtime.Equal(left, right)}, nil
	case "and":
		return runtime.BoolValue{Val: runtime.Truthy(left) && runtime.Truthy(right)}, nil
	case "or":
		return runtime.BoolValue{Val: runtime.Truthy(left) || runtime.Truthy(right)}, nil
	default:
		return nil, runtime.Errorf(runtime.UnknownOperator, "unknown operator: %s", expr.Operator)
	}
}

func evaluateArithmetic(op string, left, right runtime.Value) (runtime.Value, error) {
	if op == "+" {
		ls, lok := left.(runtime.StringValue)
		rs, rok := right.(runtime.StringValue)
		if lok && rok {
			return runtime.StringValue{Val: ls.Val + rs.Val}, nil
		}
	}
	ln, lok := left.(runtime.NumberValue)
	rn, rok := right.(runtime.NumberValue)
	if !lok || !rok {
		return nil, runtime.Errorf(runtime.TypeMismatch, "unsupported operand types for %s: %s and %s", op, kindOf(left), kindOf(right))
	}
	switch op {
	case "+":
		return runtime.NumberValue{Val: ln.Val + rn.Val}, nil
	case "-":
		return runtime.NumberValue{Val: ln.Val - rn.Val}, nil
	case "*":
		return runtime.NumberValue{Val: ln.Val * rn.Val}, nil
	case "/":
		if rn.Val == 0 {
			return nil, runtime.Errorf(runtime.TypeMismatch, "division by zero")
		}
		return runtime.NumberValue{Val: ln.Val / rn.Val}, nil
	default:
		if rn.Val == 0 {
			return nil, runtime.Errorf(runtime.TypeMismatch, "modulo by zero")
		}
		return runtime.NumberValue{Val: flooredMod(ln.Val, rn.Val)}, nil
	}
}

// flooredMod takes the sign of the divisor.
func flooredMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func evaluateComparison(op string, left, right runtime.Value) (runtime.Value, error) {
	var cmp int
	switch l := left.(type) {
	case runtime.NumberValue:
		r, ok := right.(runtime.NumberValue)
		if !ok {
			return nil, comparisonMismatch(op, left, right)
		}
		switch {
		case l.Val < r.Val:
			cmp = -1
		case l.Val > r.Val:
			cmp = 1
		}
	case runtime.StringValue:
		r, ok := right.(runtime.StringValue)
		if !ok {
			return nil, comparisonMismatch(op, left, right)
		}
		switch {
		case l.Val < r.Val:
			cmp = -1
		case l.Val > r.Val:
			cmp = 1
		}
	default:
		return nil, comparisonMismatch(op, left, right)
	}
	var result bool
	switch op {
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	return runtime.BoolValue{Val: result}, nil
}

func comparisonMismatch(op string, left, right runtime.Value) error {
	return runtime.Errorf(runtime.TypeMismatch, "'%s' not supported between %s and %s", op, kindOf(left), kindOf(right))
}

func kindOf(v runtime.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
