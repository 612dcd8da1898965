// Package choice provides ordered value→label sets used to populate filter
// value selectors, plus the static sets every installation ships with.
package choice

import "slices"

// Choice is a single selectable value. Group is set when the value belongs
// to an option group (a country's regions, a language's emails).
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Set is an ordered list of choices. Order is significant and preserved.
type Set []Choice

// Empty returns a non-nil set with no entries.
func Empty() Set {
	return Set{}
}

// Of builds a set from alternating value, label pairs. A trailing value
// without a label is ignored.
func Of(pairs ...string) Set {
	s := make(Set, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		s = append(s, Choice{Value: pairs[i], Label: pairs[i+1]})
	}
	return s
}

// Len returns the number of choices.
func (s Set) Len() int { return len(s) }

// IsEmpty reports whether the set has no choices.
func (s Set) IsEmpty() bool { return len(s) == 0 }

// Add appends a choice and returns the grown set.
func (s Set) Add(value, label string) Set {
	return append(s, Choice{Value: value, Label: label})
}

// AddGrouped appends a choice belonging to group.
func (s Set) AddGrouped(group, value, label string) Set {
	return append(s, Choice{Value: value, Label: label, Group: group})
}

// Values returns the values in order.
func (s Set) Values() []string {
	values := make([]string, len(s))
	for i, c := range s {
		values[i] = c.Value
	}
	return values
}

// Label returns the label of value.
func (s Set) Label(value string) (string, bool) {
	for _, c := range s {
		if c.Value == value {
			return c.Label, true
		}
	}
	return "", false
}

// Groups returns group names in order of first appearance.
func (s Set) Groups() []string {
	var groups []string
	for _, c := range s {
		if c.Group != "" && !slices.Contains(groups, c.Group) {
			groups = append(groups, c.Group)
		}
	}
	return groups
}

// Clone returns a copy that never aliases s and is never nil.
func (s Set) Clone() Set {
	if s == nil {
		return Empty()
	}
	return slices.Clone(s)
}
