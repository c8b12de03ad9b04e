package interpreter

import (
	"fmt"

	"hiesenoether/interpreter-go/pkg/ast"
	"hiesenoether/interpreter-go/pkg/energy"
	"hiesenoether/interpreter-go/pkg/runtime"
)

func (i *Interpreter) executeStatement(node ast.Statement) (Signal, error) {
	switch n := node.(type) {
	case *ast.EnergyDeclaration:
		i.ledger.SetInitialEnergy(n.Amount)
		return Continue, nil
	case *ast.Assignment:
		return Continue, i.executeAssignment(n)
	case *ast.StabilizeStatement:
		return Continue, i.executeStabilize(n)
	case *ast.FunctionDeclaration:
		return Continue, i.executeFunctionDeclaration(n)
	case *ast.ReturnStatement:
		return i.executeReturn(n)
	case *ast.PrintStatement:
		val, err := i.evaluateExpression(n.Value)
		if err != nil {
			return Continue, err
		}
		i.printf("%s", runtime.Format(val))
		return Continue, nil
	case *ast.InspectStatement:
		return Continue, i.executeInspect(n)
	case *ast.QueryEnergy:
		i.printf("Energy: %d/%d", i.ledger.Current(), i.ledger.Max())
		return Continue, nil
	case *ast.InvariantStatement:
		return Continue, i.executeInvariant(n)
	case *ast.AssertStatement:
		return Continue, i.executeAssert(n)
	case *ast.IfStatement:
		return i.executeIf(n)
	case *ast.WhileLoop:
		return i.executeWhile(n)
	case *ast.ForLoop:
		return i.executeFor(n)
	case *ast.RemoveCapability:
		return Continue, i.executeRemoveCapability(n)
	case *ast.FunctionCall:
		_, err := i.evaluateFunctionCall(n)
		return Continue, err
	case nil:
		return Continue, fmt.Errorf("interpreter: nil statement")
	default:
		return Continue, fmt.Errorf("interpreter: unsupported statement type: %s", n.NodeType())
	}
}

// executeBlock runs statements in order and stops at the first return.
func (i *Interpreter) executeBlock(stmts []ast.Statement) (Signal, error) {
	for _, stmt := range stmts {
		sig, err := i.executeStatement(stmt)
		if err != nil || sig.IsReturn() {
			return sig, err
		}
	}
	return Continue, nil
}

func (i *Interpreter) spend(op, what string) error {
	if !i.ledger.Spend(op) {
		return runtime.Errorf(runtime.InsufficientEnergy, "insufficient energy for %s (need %d, have %d)",
			what, i.ledger.CheckCost(op), i.ledger.Current())
	}
	return nil
}

func (i *Interpreter) requireCapability(capability, construct string) error {
	if !i.ledger.HasCapability(capability) {
		return runtime.Errorf(runtime.CapabilityRevoked, "%s requires the %s capability, which has been removed", construct, capability)
	}
	return nil
}

func (i *Interpreter) executeAssignment(n *ast.Assignment) error {
	val, err := i.evaluateExpression(n.Value)
	if err != nil {
		return err
	}
	if !n.IsStable {
		i.env.Set(n.Name, runtime.NewUnstable(val), false)
		return nil
	}
	if err := i.requireCapability(energy.CapStableControl, "stable assignment"); err != nil {
		return err
	}
	if err := i.spend(energy.OpStableVar, "stable assignment"); err != nil {
		return err
	}
	i.env.Set(n.Name, runtime.NewStable(val), false)
	return nil
}

func (i *Interpreter) executeStabilize(n *ast.StabilizeStatement) error {
	binding, err := i.env.Get(n.Name)
	if err != nil {
		return err
	}
	if err := i.spend(energy.OpStabilize, "stabilize"); err != nil {
		return err
	}
	if cell, ok := binding.(runtime.Cell); ok {
		cell.Stabilize(i.ledger)
	}
	return nil
}

func (i *Interpreter) executeFunctionDeclaration(n *ast.FunctionDeclaration) error {
	op := energy.OpDeclareFn
	switch {
	case n.IsUnstable:
		op = energy.OpDeclareUnstableFn
	case n.IsPure:
		op = energy.OpDeclarePureFn
	}
	if err := i.spend(op, "function declaration"); err != nil {
		return err
	}
	fn := &runtime.FunctionValue{
		Name:       n.Name,
		Params:     append([]string(nil), n.Params...),
		Body:       n.Body,
		IsPure:     n.IsPure,
		IsUnstable: n.IsUnstable,
		Closure:    i.env.Globals(),
	}
	i.env.Set(n.Name, fn, false)
	if n.IsUnstable {
		i.ledger.CreateEscrow(n.Name)
	}
	i.logger.Debug("function declared", "fn", n.Name, "params", len(n.Params), "op", op)
	return nil
}

func (i *Interpreter) executeReturn(n *ast.ReturnStatement) (Signal, error) {
	if n.Argument == nil {
		return Return(nil), nil
	}
	val, err := i.evaluateExpression(n.Argument)
	if err != nil {
		return Continue, err
	}
	return Return(val), nil
}

func (i *Interpreter) executeInspect(n *ast.InspectStatement) error {
	if err := i.requireCapability(energy.CapInspection, "inspect"); err != nil {
		return err
	}
	if err := i.spend(energy.OpInspect, "inspect"); err != nil {
		return err
	}
	if id, ok := n.Value.(*ast.Identifier); ok {
		binding, err := i.env.Get(id.Name)
		if err != nil {
			return err
		}
		switch b := binding.(type) {
		case runtime.Cell:
			i.printf("[INSPECT] %s", b.Inspect())
		case *runtime.FunctionValue:
			i.printf("[INSPECT] %s", b)
		}
		return nil
	}
	val, err := i.evaluateExpression(n.Value)
	if err != nil {
		return err
	}
	i.printf("[INSPECT] %s", runtime.Format(val))
	return nil
}

func (i *Interpreter) executeInvariant(n *ast.InvariantStatement) error {
	if err := i.requireCapability(energy.CapInvariants, "invariant"); err != nil {
		return err
	}
	if err := i.spend(energy.OpInvariant, "invariant"); err != nil {
		return err
	}
	i.invariants = append(i.invariants, n.Condition)
	i.logger.Debug("invariant registered", "condition", ast.Format(n.Condition), "count", len(i.invariants))
	val, err := i.evaluateExpression(n.Condition)
	if err != nil {
		return err
	}
	if !runtime.Truthy(val) {
		return runtime.Errorf(runtime.InvariantViolation, "invariant violated on declaration: %s", ast.Format(n.Condition))
	}
	return nil
}

func (i *Interpreter) executeAssert(n *ast.AssertStatement) error {
	if err := i.spend(energy.OpAssert, "assert"); err != nil {
		return err
	}
	val, err := i.evaluateExpression(n.Condition)
	if err != nil {
		return err
	}
	if !runtime.Truthy(val) {
		return runtime.Errorf(runtime.AssertionFailed, "assertion failed: %s", ast.Format(n.Condition))
	}
	return nil
}

func (i *Interpreter) executeIf(n *ast.IfStatement) (Signal, error) {
	if n.IsStable {
		if err := i.requireCapability(energy.CapStableControl, "stable if"); err != nil {
			return Continue, err
		}
		if err := i.spend(energy.OpStableIf, "stable if"); err != nil {
			return Continue, err
		}
	}
	cond, err := i.evaluateExpression(n.Condition)
	if err != nil {
		return Continue, err
	}
	if runtime.Truthy(cond) {
		return i.executeBlock(n.Then)
	}
	if n.Else != nil {
		return i.executeBlock(n.Else)
	}
	return Continue, nil
}

func (i *Interpreter) executeWhile(n *ast.WhileLoop) (Signal, error) {
	for {
		cond, err := i.evaluateExpression(n.Condition)
		if err != nil {
			return Continue, err
		}
		if !runtime.Truthy(cond) {
			return Continue, nil
		}
		sig, err := i.executeBlock(n.Body)
		if err != nil || sig.IsReturn() {
			return sig, err
		}
	}
}

func (i *Interpreter) executeFor(n *ast.ForLoop) (Signal, error) {
	iterable, err := i.evaluateExpression(n.Iterable)
	if err != nil {
		return Continue, err
	}
	var items []runtime.Value
	switch it := iterable.(type) {
	case runtime.RangeValue:
		items = it.Values()
	case runtime.SequenceValue:
		items = it.Elements
	default:
		return Continue, runtime.Errorf(runtime.TypeMismatch, "cannot iterate over %s", kindOf(iterable))
	}
	// At top level the loop gets its own frame so its variable never
	// touches the global of the same name.
	if i.env.Depth() == 0 {
		i.env.PushScope()
		defer i.env.PopScope()
	}
	for _, item := range items {
		i.env.Set(n.Variable, runtime.NewStable(item), true)
		sig, err := i.executeBlock(n.Body)
		if err != nil || sig.IsReturn() {
			return sig, err
		}
	}
	return Continue, nil
}

func (i *Interpreter) executeRemoveCapability(n *ast.RemoveCapability) error {
	if !i.ledger.RemoveCapability(n.Capability) {
		return runtime.Errorf(runtime.CapabilityRemovalFailed, "cannot remove capability: %s", n.Capability)
	}
	i.printf("## Removed capability: %s, gained %d energy", n.Capability, i.ledger.RemovalGain(n.Capability))
	return nil
}
