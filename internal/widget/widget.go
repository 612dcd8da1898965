// Package widget decides how the value input of a segment filter is rendered
// for a given operator and field type.
package widget

import (
	"reflect"
	"slices"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/operator"
)

// FieldName is the form name of the filter value control.
const FieldName = "filter"

// Kind is the rendered shape of the filter value control.
type Kind string

const (
	KindText   Kind = "text"
	KindChoice Kind = "choice"
)

// Control describes the filter value input handed to the form renderer.
type Control struct {
	Name     string            `json:"name"`
	Kind     Kind              `json:"kind"`
	Multiple bool              `json:"multiple"`
	Disabled bool              `json:"disabled"`
	Choices  choice.Set        `json:"choices,omitempty"`
	Data     any               `json:"data"`
	Attr     map[string]string `json:"attr"`
}

// Input is a filter row given as plain values.
type Input struct {
	Operator  operator.Operator
	FieldType string
	Choices   choice.Set
	// Stored is the filter value previously saved on the segment, if any.
	Stored any
}

func (in Input) OperatorIsOneOf(ops ...operator.Operator) bool { return in.Operator.IsOneOf(ops...) }
func (in Input) FieldTypeIsOneOf(types ...string) bool         { return slices.Contains(types, in.FieldType) }
func (in Input) FieldChoices() choice.Set                      { return in.Choices.Clone() }
func (in Input) StoredValue() any                              { return in.Stored }

// Filter is everything the selector looks at. Input and
// events.FilterPropertiesTypeEvent both satisfy it.
type Filter interface {
	OperatorIsOneOf(ops ...operator.Operator) bool
	FieldTypeIsOneOf(types ...string) bool
	FieldChoices() choice.Set
	StoredValue() any
}

// Select picks the control for in.
func Select(in Input) Control {
	return SelectFor(in)
}

// SelectFor picks the control for f. The checks run in a fixed order:
//  1. regexp operators always get a plain text input, never disabled;
//  2. select-like fields, or any field with choices, get a choice control;
//  3. everything else gets a text input.
//
// Branches 2 and 3 disable the input for the empty/!empty operators.
func SelectFor(f Filter) Control {
	stored := f.StoredValue()
	if f.OperatorIsOneOf(operator.Regexp, operator.NotRegexp) {
		return Control{
			Name: FieldName,
			Kind: KindText,
			Data: stored,
			Attr: defaultAttr(),
		}
	}

	disabled := f.OperatorIsOneOf(operator.Empty, operator.NotEmpty)
	multiple := f.OperatorIsOneOf(operator.In, operator.NotIn) || f.FieldTypeIsOneOf(operator.TypeMultiselect)

	choices := f.FieldChoices()
	if f.FieldTypeIsOneOf(choiceTypes...) || !choices.IsEmpty() {
		data := stored
		if multiple {
			data = asCollection(stored)
		}
		return Control{
			Name:     FieldName,
			Kind:     KindChoice,
			Multiple: multiple,
			Disabled: disabled,
			Choices:  choices.Clone(),
			Data:     data,
			Attr:     defaultAttr(),
		}
	}

	return Control{
		Name:     FieldName,
		Kind:     KindText,
		Disabled: disabled,
		Data:     stored,
		Attr:     defaultAttr(),
	}
}

// choiceTypes always render as a choice control, even without choices.
var choiceTypes = []string{operator.TypeSelect, operator.TypeMultiselect, operator.TypeBoolean}

// asCollection converts a stored single value into a one-element list so
// filters saved before the operator switched to in/!in keep their value.
// Slices, arrays and maps already are collections.
func asCollection(v any) any {
	if v == nil {
		return []any{}
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v
	}
	return []any{v}
}

func defaultAttr() map[string]string {
	return map[string]string{"class": "form-control"}
}
