package ast

type NodeType string

const (
	NodeProgram             NodeType = "Program"
	NodeEnergyDeclaration   NodeType = "EnergyDeclaration"
	NodeAssignment          NodeType = "Assignment"
	NodeStabilizeStatement  NodeType = "StabilizeStatement"
	NodeFunctionDeclaration NodeType = "FunctionDeclaration"
	NodeReturnStatement     NodeType = "ReturnStatement"
	NodePrintStatement      NodeType = "PrintStatement"
	NodeInspectStatement    NodeType = "InspectStatement"
	NodeQueryEnergy         NodeType = "QueryEnergy"
	NodeInvariantStatement  NodeType = "InvariantStatement"
	NodeAssertStatement     NodeType = "AssertStatement"
	NodeIfStatement         NodeType = "IfStatement"
	NodeWhileLoop           NodeType = "WhileLoop"
	NodeForLoop             NodeType = "ForLoop"
	NodeRemoveCapability    NodeType = "RemoveCapability"
	NodeBinaryExpression    NodeType = "BinaryExpression"
	NodeUnaryExpression     NodeType = "UnaryExpression"
	NodeNumberLiteral       NodeType = "NumberLiteral"
	NodeStringLiteral       NodeType = "StringLiteral"
	NodeIdentifier          NodeType = "Identifier"
	NodeFunctionCall        NodeType = "FunctionCall"
	NodeRangeExpression     NodeType = "RangeExpression"
	NodeSequenceLiteral     NodeType = "SequenceLiteral"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// orEmpty keeps list fields non-nil so they encode as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Marker interfaces. Both sets are closed: only types in this package carry
// the unexported markers.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Program

type Program struct {
	nodeImpl

	Statements []Statement `json:"statements"`
}

func NewProgram(statements []Statement) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Statements: orEmpty(statements)}
}

// Statements

type EnergyDeclaration struct {
	nodeImpl
	statementMarker

	Amount int `json:"amount"`
}

func NewEnergyDeclaration(amount int) *EnergyDeclaration {
	return &EnergyDeclaration{nodeImpl: newNodeImpl(NodeEnergyDeclaration), Amount: amount}
}

type Assignment struct {
	nodeImpl
	statementMarker

	Name     string     `json:"name"`
	Value    Expression `json:"value"`
	IsStable bool       `json:"isStable"`
}

func NewAssignment(name string, value Expression, isStable bool) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Name: name, Value: value, IsStable: isStable}
}

type StabilizeStatement struct {
	nodeImpl
	statementMarker

	Name string `json:"name"`
}

func NewStabilizeStatement(name string) *StabilizeStatement {
	return &StabilizeStatement{nodeImpl: newNodeImpl(NodeStabilizeStatement), Name: name}
}

type FunctionDeclaration struct {
	nodeImpl
	statementMarker

	Name       string      `json:"name"`
	Params     []string    `json:"params"`
	Body       []Statement `json:"body"`
	IsPure     bool        `json:"isPure"`
	IsUnstable bool        `json:"isUnstable"`
}

func NewFunctionDeclaration(name string, params []string, body []Statement, isPure, isUnstable bool) *FunctionDeclaration {
	return &FunctionDeclaration{
		nodeImpl:   newNodeImpl(NodeFunctionDeclaration),
		Name:       name,
		Params:     orEmpty(params),
		Body:       orEmpty(body),
		IsPure:     isPure,
		IsUnstable: isUnstable,
	}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

type PrintStatement struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value"`
}

func NewPrintStatement(value Expression) *PrintStatement {
	return &PrintStatement{nodeImpl: newNodeImpl(NodePrintStatement), Value: value}
}

type InspectStatement struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value"`
}

func NewInspectStatement(value Expression) *InspectStatement {
	return &InspectStatement{nodeImpl: newNodeImpl(NodeInspectStatement), Value: value}
}

type QueryEnergy struct {
	nodeImpl
	statementMarker
}

func NewQueryEnergy() *QueryEnergy {
	return &QueryEnergy{nodeImpl: newNodeImpl(NodeQueryEnergy)}
}

type InvariantStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
}

func NewInvariantStatement(condition Expression) *InvariantStatement {
	return &InvariantStatement{nodeImpl: newNodeImpl(NodeInvariantStatement), Condition: condition}
}

type AssertStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
}

func NewAssertStatement(condition Expression) *AssertStatement {
	return &AssertStatement{nodeImpl: newNodeImpl(NodeAssertStatement), Condition: condition}
}

// IfStatement keeps Else nil when the source had no else branch.
type IfStatement struct {
	nodeImpl
	statementMarker

	Condition Expression  `json:"condition"`
	Then      []Statement `json:"then"`
	Else      []Statement `json:"else,omitempty"`
	IsStable  bool        `json:"isStable"`
}

func NewIfStatement(condition Expression, then, els []Statement, isStable bool) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: condition, Then: orEmpty(then), Else: els, IsStable: isStable}
}

type WhileLoop struct {
	nodeImpl
	statementMarker

	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
}

func NewWhileLoop(condition Expression, body []Statement) *WhileLoop {
	return &WhileLoop{nodeImpl: newNodeImpl(NodeWhileLoop), Condition: condition, Body: orEmpty(body)}
}

type ForLoop struct {
	nodeImpl
	statementMarker

	Variable string      `json:"variable"`
	Iterable Expression  `json:"iterable"`
	Body     []Statement `json:"body"`
}

func NewForLoop(variable string, iterable Expression, body []Statement) *ForLoop {
	return &ForLoop{nodeImpl: newNodeImpl(NodeForLoop), Variable: variable, Iterable: iterable, Body: orEmpty(body)}
}

type RemoveCapability struct {
	nodeImpl
	statementMarker

	Capability string `json:"capability"`
}

func NewRemoveCapability(capability string) *RemoveCapability {
	return &RemoveCapability{nodeImpl: newNodeImpl(NodeRemoveCapability), Capability: capability}
}

// Expressions

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type UnaryOperator string

const (
	UnaryOperatorNegate UnaryOperator = "-"
	UnaryOperatorNot    UnaryOperator = "not"
)

type UnaryExpression struct {
	nodeImpl
	expressionMarker

	Operator UnaryOperator `json:"operator"`
	Operand  Expression    `json:"operand"`
}

func NewUnaryExpression(operator UnaryOperator, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

type NumberLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
}

func NewNumberLiteral(value float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type Identifier struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// FunctionCall is the only expression that may also stand as a statement.
type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    string       `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(callee string, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Callee: callee, Arguments: orEmpty(args)}
}

// RangeExpression describes a half-open integer range; Step is optional.
type RangeExpression struct {
	nodeImpl
	expressionMarker

	Start Expression `json:"start"`
	End   Expression `json:"end"`
	Step  Expression `json:"step,omitempty"`
}

func NewRangeExpression(start, end, step Expression) *RangeExpression {
	return &RangeExpression{nodeImpl: newNodeImpl(NodeRangeExpression), Start: start, End: end, Step: step}
}

type SequenceLiteral struct {
	nodeImpl
	expressionMarker

	Elements []Expression `json:"elements"`
}

func NewSequenceLiteral(elements []Expression) *SequenceLiteral {
	return &SequenceLiteral{nodeImpl: newNodeImpl(NodeSequenceLiteral), Elements: orEmpty(elements)}
}
