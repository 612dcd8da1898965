package operator

import "slices"

// Field types with their own entry in the operator table.
const (
	TypeText        = "text"
	TypeSelect      = "select"
	TypeBool        = "bool"
	TypeDefault     = "default"
	TypeMultiselect = "multiselect"
	TypeDate        = "date"
	TypeLookupID    = "lookup_id"
)

// Field types that borrow another type's operators.
const (
	TypeBoolean  = "boolean"
	TypeDatetime = "datetime"
	TypeCountry  = "country"
	TypeTimezone = "timezone"
	TypeRegion   = "region"
	TypeLocale   = "locale"
	TypeLookup   = "lookup"
	TypeEmail    = "email"
	TypeURL      = "url"
	TypeTel      = "tel"
	TypeNumber   = "number"
)

// Rule selects operators for a field type. A non-empty Include wins and keeps
// its own order; otherwise every operator in master order minus Exclude.
type Rule struct {
	Include []Operator `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []Operator `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Resolve expands the rule into an ordered operator list.
func (r Rule) Resolve() []Operator {
	if len(r.Include) > 0 {
		return slices.Clone(r.Include)
	}
	ops := make([]Operator, 0, len(all))
	for _, op := range all {
		if !slices.Contains(r.Exclude, op) {
			ops = append(ops, op)
		}
	}
	return ops
}

// baseTypes keeps table order stable for iteration.
var baseTypes = []string{
	TypeText, TypeSelect, TypeBool, TypeDefault, TypeMultiselect, TypeDate, TypeLookupID,
}

var typeRules = map[string]Rule{
	TypeText: {Include: []Operator{
		Equals, NotEquals, Empty, NotEmpty, Like, NotLike,
		Regexp, NotRegexp, StartsWith, EndsWith, Contains,
	}},
	TypeSelect: {Include: []Operator{
		Equals, NotEquals, Empty, NotEmpty, Regexp, NotRegexp, In, NotIn,
	}},
	TypeBool:        {Include: []Operator{Equals, NotEquals}},
	TypeDefault:     {Exclude: []Operator{In, NotIn, Date}},
	TypeMultiselect: {Include: []Operator{In, NotIn, Empty, NotEmpty}},
	TypeDate:        {Exclude: []Operator{In, NotIn}},
	TypeLookupID:    {Include: []Operator{Equals, NotEquals, Empty, NotEmpty}},
}

// Alias redirects a field type onto a base type's operators.
type Alias struct {
	Type string
	Base string
}

var aliases = []Alias{
	{TypeBoolean, TypeBool},
	{TypeDatetime, TypeDate},
	{TypeCountry, TypeSelect},
	{TypeTimezone, TypeSelect},
	{TypeRegion, TypeSelect},
	{TypeLocale, TypeSelect},
	{TypeLookup, TypeText},
	{TypeText, TypeText},
	{TypeEmail, TypeText},
	{TypeURL, TypeText},
	{TypeTel, TypeText},
	{TypeNumber, TypeText},
}

// BaseTypes returns the field types owning a rule, in table order.
func BaseTypes() []string {
	return slices.Clone(baseTypes)
}

// Aliases returns the alias table in registration order.
func Aliases() []Alias {
	return slices.Clone(aliases)
}

// Register feeds the base table followed by the alias table into set. Later
// calls for the same type overwrite earlier ones, so aliases win.
func Register(set func(fieldType string, ops []Operator)) {
	for _, t := range baseTypes {
		set(t, typeRules[t].Resolve())
	}
	for _, a := range aliases {
		set(a.Type, typeRules[a.Base].Resolve())
	}
}
