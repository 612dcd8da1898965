// Package events defines the segment filter events, their payloads, and the
// synchronous dispatcher that delivers them to subscribers.
package events

import (
	"maps"
	"slices"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/operator"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

// Event names
const (
	CollectOperatorsForFieldType      = "segment.collect_operators_for_field_type"
	CollectFilterChoicesForListFields = "segment.collect_filter_choices_for_list_field_type"
	AdjustFilterFormTypeForField      = "segment.adjust_filter_form_type_for_field"
	ContactExportScheduled            = "contact.export_scheduled"
)

// TypeOperatorsEvent collects the operator list for every field type.
// Listeners write; the dispatcher's caller reads.
type TypeOperatorsEvent struct {
	operators map[string][]operator.Operator
}

func NewTypeOperatorsEvent() *TypeOperatorsEvent {
	return &TypeOperatorsEvent{operators: make(map[string][]operator.Operator)}
}

// SetOperatorsForFieldType replaces the operators of fieldType.
func (e *TypeOperatorsEvent) SetOperatorsForFieldType(fieldType string, ops []operator.Operator) {
	e.operators[fieldType] = slices.Clone(ops)
}

// OperatorsForFieldType returns the operators set for fieldType.
func (e *TypeOperatorsEvent) OperatorsForFieldType(fieldType string) ([]operator.Operator, bool) {
	ops, ok := e.operators[fieldType]
	return slices.Clone(ops), ok
}

// OperatorsForAllFieldTypes returns a copy of everything collected so far.
func (e *TypeOperatorsEvent) OperatorsForAllFieldTypes() map[string][]operator.Operator {
	out := make(map[string][]operator.Operator, len(e.operators))
	for t, ops := range e.operators {
		out[t] = slices.Clone(ops)
	}
	return out
}

// ListFieldChoicesEvent collects choice lists keyed by field type and by
// field alias for the user building the segment.
type ListFieldChoicesEvent struct {
	userID  int64
	byType  map[string]choice.Set
	byAlias map[string]choice.Set
}

func NewListFieldChoicesEvent(userID int64) *ListFieldChoicesEvent {
	return &ListFieldChoicesEvent{
		userID:  userID,
		byType:  make(map[string]choice.Set),
		byAlias: make(map[string]choice.Set),
	}
}

// UserID is the user on whose behalf choices are collected.
func (e *ListFieldChoicesEvent) UserID() int64 { return e.userID }

func (e *ListFieldChoicesEvent) SetChoicesForFieldType(fieldType string, set choice.Set) {
	e.byType[fieldType] = set.Clone()
}

func (e *ListFieldChoicesEvent) SetChoicesForFieldAlias(alias string, set choice.Set) {
	e.byAlias[alias] = set.Clone()
}

func (e *ListFieldChoicesEvent) ChoicesForFieldType(fieldType string) (choice.Set, bool) {
	set, ok := e.byType[fieldType]
	return set.Clone(), ok
}

func (e *ListFieldChoicesEvent) ChoicesForFieldAlias(alias string) (choice.Set, bool) {
	set, ok := e.byAlias[alias]
	return set.Clone(), ok
}

// ChoicesForAllListFieldTypes returns a copy of the per-type choices.
func (e *ListFieldChoicesEvent) ChoicesForAllListFieldTypes() map[string]choice.Set {
	return cloneSets(e.byType)
}

// ChoicesForAllListFieldAliases returns a copy of the per-alias choices.
func (e *ListFieldChoicesEvent) ChoicesForAllListFieldAliases() map[string]choice.Set {
	return cloneSets(e.byAlias)
}

func cloneSets(in map[string]choice.Set) map[string]choice.Set {
	out := maps.Clone(in)
	for k, v := range out {
		out[k] = v.Clone()
	}
	if out == nil {
		out = map[string]choice.Set{}
	}
	return out
}

// FilterField describes the filter row whose value control is being built.
type FilterField struct {
	Alias    string
	Type     string
	Operator operator.Operator
	Choices  choice.Set
	// Stored is the value saved on the segment for this filter, if any.
	Stored any
}

// FilterPropertiesTypeEvent asks listeners to build the value control for a
// single filter row. Field data is read-only; the control is the output.
type FilterPropertiesTypeEvent struct {
	field   FilterField
	control *widget.Control
}

func NewFilterPropertiesTypeEvent(field FilterField) *FilterPropertiesTypeEvent {
	field.Choices = field.Choices.Clone()
	return &FilterPropertiesTypeEvent{field: field}
}

func (e *FilterPropertiesTypeEvent) FieldAlias() string          { return e.field.Alias }
func (e *FilterPropertiesTypeEvent) FieldType() string           { return e.field.Type }
func (e *FilterPropertiesTypeEvent) Operator() operator.Operator { return e.field.Operator }
func (e *FilterPropertiesTypeEvent) FieldChoices() choice.Set    { return e.field.Choices.Clone() }
func (e *FilterPropertiesTypeEvent) StoredValue() any            { return e.field.Stored }
func (e *FilterPropertiesTypeEvent) OperatorIsOneOf(ops ...operator.Operator) bool {
	return e.field.Operator.IsOneOf(ops...)
}

// FieldTypeIsOneOf reports whether the field type is any of types.
func (e *FilterPropertiesTypeEvent) FieldTypeIsOneOf(types ...string) bool {
	return slices.Contains(types, e.field.Type)
}

// SetControl records the control to render. A later call replaces an
// earlier one.
func (e *FilterPropertiesTypeEvent) SetControl(c widget.Control) {
	e.control = &c
}

// Control returns the control set by a listener, if any.
func (e *FilterPropertiesTypeEvent) Control() (widget.Control, bool) {
	if e.control == nil {
		return widget.Control{}, false
	}
	return *e.control, true
}

// ContactExportScheduledEvent announces that a contact export was queued.
type ContactExportScheduledEvent struct {
	scheduler *store.ExportScheduler
}

func NewContactExportScheduledEvent(s *store.ExportScheduler) *ContactExportScheduledEvent {
	return &ContactExportScheduledEvent{scheduler: s}
}

// Scheduler returns the queued export.
func (e *ContactExportScheduledEvent) Scheduler() *store.ExportScheduler { return e.scheduler }
