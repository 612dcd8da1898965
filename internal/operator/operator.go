// Package operator defines the comparison operators a segment filter can use
// and the field-type table deciding which operators each contact field accepts.
package operator

import (
	"slices"
	"strings"
)

// Operator is the wire form of a segment filter comparison.
type Operator string

const (
	Equals         Operator = "="
	NotEquals      Operator = "!="
	GreaterThan    Operator = "gt"
	GreaterOrEqual Operator = "gte"
	LessThan       Operator = "lt"
	LessOrEqual    Operator = "lte"
	Empty          Operator = "empty"
	NotEmpty       Operator = "!empty"
	Like           Operator = "like"
	NotLike        Operator = "!like"
	Between        Operator = "between"
	NotBetween     Operator = "!between"
	In             Operator = "in"
	NotIn          Operator = "!in"
	Regexp         Operator = "regexp"
	NotRegexp      Operator = "!regexp"
	Date           Operator = "date"
	StartsWith     Operator = "startsWith"
	EndsWith       Operator = "endsWith"
	Contains       Operator = "contains"
)

// Options describes how an operator is labelled in the UI and which query
// expression it maps to, both plain and negated.
type Options struct {
	Label      string `json:"label"`
	Expr       string `json:"expr"`
	NegateExpr string `json:"negateExpr"`
}

// all is the master order. Exclude rules resolve against it.
var all = []Operator{
	Equals, NotEquals,
	GreaterThan, GreaterOrEqual, LessThan, LessOrEqual,
	Empty, NotEmpty,
	Like, NotLike,
	Between, NotBetween,
	In, NotIn,
	Regexp, NotRegexp,
	Date,
	StartsWith, EndsWith, Contains,
}

var options = map[Operator]Options{
	Equals:         {Label: "segment.operator.equals", Expr: "eq", NegateExpr: "neq"},
	NotEquals:      {Label: "segment.operator.not_equals", Expr: "neq", NegateExpr: "eq"},
	GreaterThan:    {Label: "segment.operator.greater_than", Expr: "gt", NegateExpr: "lt"},
	GreaterOrEqual: {Label: "segment.operator.greater_than_or_equal", Expr: "gte", NegateExpr: "lt"},
	LessThan:       {Label: "segment.operator.less_than", Expr: "lt", NegateExpr: "gt"},
	LessOrEqual:    {Label: "segment.operator.less_than_or_equal", Expr: "lte", NegateExpr: "gt"},
	Empty:          {Label: "segment.operator.empty", Expr: "empty", NegateExpr: "notEmpty"},
	NotEmpty:       {Label: "segment.operator.not_empty", Expr: "notEmpty", NegateExpr: "empty"},
	Like:           {Label: "segment.operator.like", Expr: "like", NegateExpr: "notLike"},
	NotLike:        {Label: "segment.operator.not_like", Expr: "notLike", NegateExpr: "like"},
	Between:        {Label: "segment.operator.between", Expr: "between", NegateExpr: "notBetween"},
	NotBetween:     {Label: "segment.operator.not_between", Expr: "notBetween", NegateExpr: "between"},
	In:             {Label: "segment.operator.in", Expr: "in", NegateExpr: "notIn"},
	NotIn:          {Label: "segment.operator.not_in", Expr: "notIn", NegateExpr: "in"},
	Regexp:         {Label: "segment.operator.regexp", Expr: "regexp", NegateExpr: "notRegexp"},
	NotRegexp:      {Label: "segment.operator.not_regexp", Expr: "notRegexp", NegateExpr: "regexp"},
	Date:           {Label: "segment.operator.date", Expr: "date", NegateExpr: "date"},
	StartsWith:     {Label: "segment.operator.starts_with", Expr: "startsWith", NegateExpr: "startsWith"},
	EndsWith:       {Label: "segment.operator.ends_with", Expr: "endsWith", NegateExpr: "endsWith"},
	Contains:       {Label: "segment.operator.contains", Expr: "contains", NegateExpr: "contains"},
}

// All returns every known operator in master order.
func All() []Operator {
	return slices.Clone(all)
}

// OptionsFor returns the label and expressions for op.
func OptionsFor(op Operator) (Options, bool) {
	o, ok := options[op]
	return o, ok
}

// Known reports whether op is one of the defined operators.
func (op Operator) Known() bool {
	_, ok := options[op]
	return ok
}

// IsOneOf reports whether op equals any of ops.
func (op Operator) IsOneOf(ops ...Operator) bool {
	return slices.Contains(ops, op)
}

// Normalize maps the spellings API clients commonly send onto the canonical
// operator. Unrecognized input is returned unchanged.
func Normalize(s string) Operator {
	switch strings.TrimSpace(s) {
	case "=", "==", "eq", "equals":
		return Equals
	case "!=", "<>", "neq", "not_equals":
		return NotEquals
	case "gt", ">":
		return GreaterThan
	case "gte", ">=":
		return GreaterOrEqual
	case "lt", "<":
		return LessThan
	case "lte", "<=":
		return LessOrEqual
	case "empty", "isEmpty":
		return Empty
	case "!empty", "notEmpty", "not_empty":
		return NotEmpty
	case "!like", "notLike", "not_like":
		return NotLike
	case "!between", "notBetween", "not_between":
		return NotBetween
	case "!in", "notIn", "not_in", "nin":
		return NotIn
	case "!regexp", "notRegexp", "not_regexp":
		return NotRegexp
	case "startsWith", "starts_with":
		return StartsWith
	case "endsWith", "ends_with":
		return EndsWith
	default:
		return Operator(strings.TrimSpace(s))
	}
}
