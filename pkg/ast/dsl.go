package ast

// Short constructors used by tests and by hosts that build trees by hand.

func Prog(stmts ...Statement) *Program { return NewProgram(stmts) }

func Energy(amount int) *EnergyDeclaration { return NewEnergyDeclaration(amount) }

func Assign(name string, value Expression) *Assignment { return NewAssignment(name, value, false) }

func AssignStable(name string, value Expression) *Assignment {
	return NewAssignment(name, value, true)
}

func Stabilize(name string) *StabilizeStatement { return NewStabilizeStatement(name) }

func Fn(name string, params []string, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, body, false, false)
}

func PureFn(name string, params []string, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, body, true, false)
}

func UnstableFn(name string, params []string, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, body, false, true)
}

func Ret(argument Expression) *ReturnStatement { return NewReturnStatement(argument) }

func Print(value Expression) *PrintStatement { return NewPrintStatement(value) }

func Inspect(value Expression) *InspectStatement { return NewInspectStatement(value) }

func Query() *QueryEnergy { return NewQueryEnergy() }

func Invariant(condition Expression) *InvariantStatement { return NewInvariantStatement(condition) }

func Assert(condition Expression) *AssertStatement { return NewAssertStatement(condition) }

func If(condition Expression, then []Statement, els []Statement) *IfStatement {
	return NewIfStatement(condition, then, els, false)
}

func StableIf(condition Expression, then []Statement, els []Statement) *IfStatement {
	return NewIfStatement(condition, then, els, true)
}

func While(condition Expression, body ...Statement) *WhileLoop { return NewWhileLoop(condition, body) }

func For(variable string, iterable Expression, body ...Statement) *ForLoop {
	return NewForLoop(variable, iterable, body)
}

func Remove(capability string) *RemoveCapability { return NewRemoveCapability(capability) }

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Neg(operand Expression) *UnaryExpression {
	return NewUnaryExpression(UnaryOperatorNegate, operand)
}

func Not(operand Expression) *UnaryExpression { return NewUnaryExpression(UnaryOperatorNot, operand) }

func Num(value float64) *NumberLiteral { return NewNumberLiteral(value) }

func Str(value string) *StringLiteral { return NewStringLiteral(value) }

func ID(name string) *Identifier { return NewIdentifier(name) }

func Call(callee string, args ...Expression) *FunctionCall { return NewFunctionCall(callee, args) }

func Range(start, end Expression) *RangeExpression { return NewRangeExpression(start, end, nil) }

func RangeStep(start, end, step Expression) *RangeExpression {
	return NewRangeExpression(start, end, step)
}

func Seq(elements ...Expression) *SequenceLiteral { return NewSequenceLiteral(elements) }

func Block(stmts ...Statement) []Statement { return stmts }
