package ast

import (
	"strconv"
	"strings"
)

// FormatNumber renders integral values without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format renders a node back into surface syntax. Blocks are collapsed onto
// one line; the output is meant for diagnostics, not for round-tripping.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Program:
		writeBlock(b, n.Statements, "; ")
	case *EnergyDeclaration:
		b.WriteString("energy[")
		b.WriteString(strconv.Itoa(n.Amount))
		b.WriteString("]")
	case *Assignment:
		if n.IsStable {
			b.WriteString("stable ")
		}
		b.WriteString(n.Name)
		b.WriteString(" <- ")
		writeNode(b, n.Value)
	case *StabilizeStatement:
		b.WriteString("stabilize ")
		b.WriteString(n.Name)
	case *FunctionDeclaration:
		b.WriteString("declare ")
		switch {
		case n.IsPure:
			b.WriteString("pure ")
		case n.IsUnstable:
			b.WriteString("unstable ")
		}
		b.WriteString("fn ")
		b.WriteString(n.Name)
		b.WriteString("(")
		b.WriteString(strings.Join(n.Params, ", "))
		b.WriteString(") ")
		writeBraced(b, n.Body)
	case *ReturnStatement:
		b.WriteString("return")
		if n.Argument != nil {
			b.WriteString(" ")
			writeNode(b, n.Argument)
		}
	case *PrintStatement:
		b.WriteString("print ")
		writeNode(b, n.Value)
	case *InspectStatement:
		b.WriteString("inspect ")
		writeNode(b, n.Value)
	case *QueryEnergy:
		b.WriteString("query energy")
	case *InvariantStatement:
		b.WriteString("invariant ")
		writeNode(b, n.Condition)
	case *AssertStatement:
		b.WriteString("assert ")
		writeNode(b, n.Condition)
	case *IfStatement:
		if n.IsStable {
			b.WriteString("stable ")
		}
		b.WriteString("if ")
		writeNode(b, n.Condition)
		b.WriteString(" ")
		writeBraced(b, n.Then)
		if n.Else != nil {
			b.WriteString(" else ")
			writeBraced(b, n.Else)
		}
	case *WhileLoop:
		b.WriteString("while ")
		writeNode(b, n.Condition)
		b.WriteString(" ")
		writeBraced(b, n.Body)
	case *ForLoop:
		b.WriteString("for ")
		b.WriteString(n.Variable)
		b.WriteString(" in ")
		writeNode(b, n.Iterable)
		b.WriteString(" ")
		writeBraced(b, n.Body)
	case *RemoveCapability:
		b.WriteString("remove[")
		b.WriteString(n.Capability)
		b.WriteString("]")
	case *BinaryExpression:
		writeOperand(b, n.Left)
		b.WriteString(" ")
		b.WriteString(n.Operator)
		b.WriteString(" ")
		writeOperand(b, n.Right)
	case *UnaryExpression:
		b.WriteString(string(n.Operator))
		if n.Operator == UnaryOperatorNot {
			b.WriteString(" ")
		}
		writeOperand(b, n.Operand)
	case *NumberLiteral:
		b.WriteString(FormatNumber(n.Value))
	case *StringLiteral:
		b.WriteString(strconv.Quote(n.Value))
	case *Identifier:
		b.WriteString(n.Name)
	case *FunctionCall:
		b.WriteString(n.Callee)
		b.WriteString("(")
		writeList(b, n.Arguments)
		b.WriteString(")")
	case *RangeExpression:
		b.WriteString("range(")
		writeNode(b, n.Start)
		b.WriteString(", ")
		writeNode(b, n.End)
		if n.Step != nil {
			b.WriteString(", ")
			writeNode(b, n.Step)
		}
		b.WriteString(")")
	case *SequenceLiteral:
		b.WriteString("[")
		writeList(b, n.Elements)
		b.WriteString("]")
	default:
		b.WriteString("<")
		b.WriteString(string(node.NodeType()))
		b.WriteString(">")
	}
}

func writeOperand(b *strings.Builder, expr Expression) {
	if _, ok := expr.(*BinaryExpression); ok {
		b.WriteString("(")
		writeNode(b, expr)
		b.WriteString(")")
		return
	}
	writeNode(b, expr)
}

func writeList(b *strings.Builder, exprs []Expression) {
	for i, expr := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		writeNode(b, expr)
	}
}

func writeBraced(b *strings.Builder, stmts []Statement) {
	if len(stmts) == 0 {
		b.WriteString("{ }")
		return
	}
	b.WriteString("{ ")
	writeBlock(b, stmts, "; ")
	b.WriteString(" }")
}

func writeBlock(b *strings.Builder, stmts []Statement, sep string) {
	for i, stmt := range stmts {
		if i > 0 {
			b.WriteString(sep)
		}
		writeNode(b, stmt)
	}
}
