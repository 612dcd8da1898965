// Package segment answers the questions a segment filter editor asks: which
// operators a field supports, which values it can pick from, and how its
// value input is rendered. Answers come from the event subscribers.
package segment

import (
	"context"
	"slices"
	"sync"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/operator"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

// Dispatcher delivers an event to its listeners.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, payload any) error
}

// Field is a contact field a filter can target.
type Field struct {
	Alias string `json:"alias"`
	Type  string `json:"type"`
	// Options are the values configured on a custom select field.
	Options choice.Set `json:"options,omitempty"`
}

// FilterRequest is a single filter row being edited.
type FilterRequest struct {
	Field    Field             `json:"field"`
	Operator operator.Operator `json:"operator"`
	Filter   any               `json:"filter"`
}

// Service collects operators and choices once and reuses them. Create one
// per request or per user; it caches choices that depend on the user.
type Service struct {
	d      Dispatcher
	userID int64

	mu        sync.Mutex
	operators *operator.Registry
	choices   *events.ListFieldChoicesEvent
}

func NewService(d Dispatcher, userID int64) *Service {
	return &Service{d: d, userID: userID}
}

// UserID is the user the service collects choices for.
func (s *Service) UserID() int64 { return s.userID }

func (s *Service) registry(ctx context.Context) (*operator.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.operators != nil {
		return s.operators, nil
	}
	e := events.NewTypeOperatorsEvent()
	if err := s.d.Dispatch(ctx, events.CollectOperatorsForFieldType, e); err != nil {
		return nil, err
	}
	r := operator.NewRegistry()
	for t, ops := range e.OperatorsForAllFieldTypes() {
		r.Set(t, ops)
	}
	s.operators = r
	return r, nil
}

func (s *Service) listChoices(ctx context.Context) (*events.ListFieldChoicesEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.choices != nil {
		return s.choices, nil
	}
	e := events.NewListFieldChoicesEvent(s.userID)
	if err := s.d.Dispatch(ctx, events.CollectFilterChoicesForListFields, e); err != nil {
		return nil, err
	}
	s.choices = e
	return e, nil
}

// OperatorsForFieldType returns the ordered operators of fieldType. Unknown
// types get the text operators.
func (s *Service) OperatorsForFieldType(ctx context.Context, fieldType string) ([]operator.Operator, error) {
	r, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	return r.For(fieldType), nil
}

// FieldTypes returns every field type with registered operators, sorted.
func (s *Service) FieldTypes(ctx context.Context) ([]string, error) {
	r, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	return r.Types(), nil
}

// ChoicesForField resolves the value choices of f: alias choices, then type
// choices, then the field's own options. The result is never nil.
func (s *Service) ChoicesForField(ctx context.Context, f Field) (choice.Set, error) {
	e, err := s.listChoices(ctx)
	if err != nil {
		return nil, err
	}
	if f.Alias != "" {
		if set, ok := e.ChoicesForFieldAlias(f.Alias); ok {
			return set, nil
		}
	}
	if f.Type != "" {
		if set, ok := e.ChoicesForFieldType(f.Type); ok {
			return set, nil
		}
	}
	return f.Options.Clone(), nil
}

// ListFieldTypes returns the field types and aliases that have choices.
func (s *Service) ListFieldTypes(ctx context.Context) (types, aliases []string, err error) {
	e, err := s.listChoices(ctx)
	if err != nil {
		return nil, nil, err
	}
	for t := range e.ChoicesForAllListFieldTypes() {
		types = append(types, t)
	}
	for a := range e.ChoicesForAllListFieldAliases() {
		aliases = append(aliases, a)
	}
	slices.Sort(types)
	slices.Sort(aliases)
	return types, aliases, nil
}

// FilterControl builds the value control for req. The field's choices are
// resolved first so the control can offer them.
func (s *Service) FilterControl(ctx context.Context, req FilterRequest) (widget.Control, error) {
	choices, err := s.ChoicesForField(ctx, req.Field)
	if err != nil {
		return widget.Control{}, err
	}
	e := events.NewFilterPropertiesTypeEvent(events.FilterField{
		Alias:    req.Field.Alias,
		Type:     req.Field.Type,
		Operator: req.Operator,
		Choices:  choices,
		Stored:   req.Filter,
	})
	if err := s.d.Dispatch(ctx, events.AdjustFilterFormTypeForField, e); err != nil {
		return widget.Control{}, err
	}
	if c, ok := e.Control(); ok {
		return c, nil
	}
	return widget.Select(widget.Input{
		Operator:  req.Operator,
		FieldType: req.Field.Type,
		Choices:   choices,
		Stored:    req.Filter,
	}), nil
}
