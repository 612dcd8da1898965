// Package subscriber holds the event subscribers that populate segment
// filter operators, choices and value controls, and that notify users about
// scheduled contact exports.
package subscriber

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/operator"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

// Field aliases with dynamic choices.
const (
	AliasCampaign          = "campaign"
	AliasSegment           = "leadlist"
	AliasLeadEmailReceived = "lead_email_received"
)

// Lookups is what the subscriber reads choice data from. store.Store
// satisfies it.
type Lookups interface {
	PublishedCampaigns(ctx context.Context) ([]store.Campaign, error)
	UserSegments(ctx context.Context, userID int64) ([]store.Segment, error)
	EmailLookup(ctx context.Context, filter string, limit, start int) ([]store.Email, error)
}

// Translator resolves message keys.
type Translator interface {
	Trans(key string, params map[string]string) string
}

// TypeOperatorSubscriber answers the three segment filter events: which
// operators a field type supports, which choices list fields offer, and
// which control renders a filter value.
type TypeOperatorSubscriber struct {
	lookups Lookups
	tr      Translator
	log     zerolog.Logger
}

func NewTypeOperatorSubscriber(lookups Lookups, tr Translator, log zerolog.Logger) *TypeOperatorSubscriber {
	return &TypeOperatorSubscriber{lookups: lookups, tr: tr, log: log}
}

func (s *TypeOperatorSubscriber) SubscribedEvents() map[string][]events.Registration {
	return map[string][]events.Registration{
		events.CollectOperatorsForFieldType:      {{Listener: events.Handle(s.OnTypeOperatorsCollect)}},
		events.CollectFilterChoicesForListFields: {{Listener: events.Handle(s.OnTypeListCollect)}},
		events.AdjustFilterFormTypeForField:      {{Listener: events.Handle(s.OnSegmentFilterForm)}},
	}
}

// OnTypeOperatorsCollect registers the base types, then their aliases.
func (s *TypeOperatorSubscriber) OnTypeOperatorsCollect(ctx context.Context, e *events.TypeOperatorsEvent) error {
	operator.Register(e.SetOperatorsForFieldType)
	return nil
}

// OnTypeListCollect fills in boolean, campaign, segment, email and the
// static country/locale/region/timezone choices.
func (s *TypeOperatorSubscriber) OnTypeListCollect(ctx context.Context, e *events.ListFieldChoicesEvent) error {
	e.SetChoicesForFieldType(operator.TypeBoolean, choice.Boolean(s.tr))

	campaigns, err := s.campaignChoices(ctx)
	if err != nil {
		return err
	}
	e.SetChoicesForFieldAlias(AliasCampaign, campaigns)

	segments, err := s.segmentChoices(ctx, e.UserID())
	if err != nil {
		return err
	}
	e.SetChoicesForFieldAlias(AliasSegment, segments)

	emails, err := s.emailChoices(ctx)
	if err != nil {
		return err
	}
	e.SetChoicesForFieldAlias(AliasLeadEmailReceived, emails)

	e.SetChoicesForFieldType(operator.TypeCountry, choice.Countries())
	e.SetChoicesForFieldType(operator.TypeLocale, choice.Locales())
	e.SetChoicesForFieldType(operator.TypeRegion, choice.Regions())
	e.SetChoicesForFieldType(operator.TypeTimezone, choice.Timezones())
	return nil
}

// OnSegmentFilterForm picks the filter value control.
func (s *TypeOperatorSubscriber) OnSegmentFilterForm(ctx context.Context, e *events.FilterPropertiesTypeEvent) error {
	c := widget.SelectFor(e)
	s.log.Debug().
		Str("field", e.FieldAlias()).
		Str("type", e.FieldType()).
		Str("operator", string(e.Operator())).
		Str("kind", string(c.Kind)).
		Bool("multiple", c.Multiple).
		Bool("disabled", c.Disabled).
		Msg("filter control selected")
	e.SetControl(c)
	return nil
}

func (s *TypeOperatorSubscriber) campaignChoices(ctx context.Context) (choice.Set, error) {
	campaigns, err := s.lookups.PublishedCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	set := choice.Empty()
	for _, c := range campaigns {
		set = set.Add(strconv.FormatInt(c.ID, 10), c.Name)
	}
	return set, nil
}

func (s *TypeOperatorSubscriber) segmentChoices(ctx context.Context, userID int64) (choice.Set, error) {
	segments, err := s.lookups.UserSegments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}
	set := choice.Empty()
	for _, seg := range segments {
		set = set.Add(strconv.FormatInt(seg.ID, 10), seg.Name)
	}
	return set, nil
}

// emailChoices lists every published email grouped by language.
func (s *TypeOperatorSubscriber) emailChoices(ctx context.Context) (choice.Set, error) {
	emails, err := s.lookups.EmailLookup(ctx, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load emails: %w", err)
	}
	set := choice.Empty()
	for _, em := range emails {
		set = set.AddGrouped(em.Language, strconv.FormatInt(em.ID, 10), em.Name)
	}
	return set, nil
}
