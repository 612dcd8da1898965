package subscriber

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/operator"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/translation"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

// keyTranslator echoes the key followed by sorted params.
type keyTranslator struct{}

func (keyTranslator) Trans(key string, params map[string]string) string {
	if len(params) == 0 {
		return key
	}
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return key + "(" + strings.Join(parts, ",") + ")"
}

type fakeLookups struct {
	campaigns []store.Campaign
	segments  map[int64][]store.Segment
	emails    []store.Email
	err       error

	emailArgs []any
}

func (f *fakeLookups) PublishedCampaigns(ctx context.Context) ([]store.Campaign, error) {
	return f.campaigns, f.err
}

func (f *fakeLookups) UserSegments(ctx context.Context, userID int64) ([]store.Segment, error) {
	return f.segments[userID], f.err
}

func (f *fakeLookups) EmailLookup(ctx context.Context, filter string, limit, start int) ([]store.Email, error) {
	f.emailArgs = []any{filter, limit, start}
	return f.emails, f.err
}

func newDispatcher(subs ...events.Subscriber) *events.Dispatcher {
	d := events.NewDispatcher()
	for _, s := range subs {
		d.AddSubscriber(s)
	}
	return d
}

func TestTypeOperatorSubscriber_OperatorsCollect(t *testing.T) {
	s := NewTypeOperatorSubscriber(&fakeLookups{}, keyTranslator{}, zerolog.Nop())
	d := newDispatcher(s)

	e := events.NewTypeOperatorsEvent()
	if err := d.Dispatch(context.Background(), events.CollectOperatorsForFieldType, e); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	all := e.OperatorsForAllFieldTypes()
	for _, typ := range []string{"text", "select", "bool", "default", "multiselect", "date", "lookup_id",
		"boolean", "datetime", "country", "timezone", "region", "locale",
		"lookup", "email", "url", "tel", "number"} {
		if len(all[typ]) == 0 {
			t.Errorf("Expected operators for %q", typ)
		}
	}

	tests := []struct {
		alias string
		base  string
	}{
		{"boolean", "bool"},
		{"datetime", "date"},
		{"country", "select"},
		{"timezone", "select"},
		{"region", "select"},
		{"locale", "select"},
		{"email", "text"},
		{"number", "text"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(all[tt.base], all[tt.alias]); diff != "" {
			t.Errorf("%s should equal %s (-base +alias):\n%s", tt.alias, tt.base, diff)
		}
	}

	want := []operator.Operator{operator.Equals, operator.NotEquals}
	if diff := cmp.Diff(want, all["bool"]); diff != "" {
		t.Errorf("bool operators mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeOperatorSubscriber_ListCollect(t *testing.T) {
	lookups := &fakeLookups{
		campaigns: []store.Campaign{{ID: 3, Name: "Spring", Published: true}, {ID: 9, Name: "Winter", Published: true}},
		segments: map[int64][]store.Segment{
			5: {{ID: 1, Name: "VIP"}},
			6: {{ID: 2, Name: "Other"}},
		},
		emails: []store.Email{
			{ID: 10, Name: "Hello", Language: "en"},
			{ID: 11, Name: "Bonjour", Language: "fr"},
		},
	}
	s := NewTypeOperatorSubscriber(lookups, keyTranslator{}, zerolog.Nop())
	d := newDispatcher(s)

	e := events.NewListFieldChoicesEvent(5)
	if err := d.Dispatch(context.Background(), events.CollectFilterChoicesForListFields, e); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	boolean, _ := e.ChoicesForFieldType("boolean")
	if diff := cmp.Diff(choice.Of("0", "form.no", "1", "form.yes"), boolean); diff != "" {
		t.Errorf("boolean choices mismatch (-want +got):\n%s", diff)
	}

	campaigns, _ := e.ChoicesForFieldAlias(AliasCampaign)
	if diff := cmp.Diff(choice.Of("3", "Spring", "9", "Winter"), campaigns); diff != "" {
		t.Errorf("campaign choices mismatch (-want +got):\n%s", diff)
	}

	segments, _ := e.ChoicesForFieldAlias(AliasSegment)
	if diff := cmp.Diff(choice.Of("1", "VIP"), segments); diff != "" {
		t.Errorf("segment choices mismatch (-want +got):\n%s", diff)
	}

	emails, _ := e.ChoicesForFieldAlias(AliasLeadEmailReceived)
	wantEmails := choice.Set{
		{Value: "10", Label: "Hello", Group: "en"},
		{Value: "11", Label: "Bonjour", Group: "fr"},
	}
	if diff := cmp.Diff(wantEmails, emails); diff != "" {
		t.Errorf("email choices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"", 0, 0}, lookups.emailArgs); diff != "" {
		t.Errorf("email lookup args mismatch (-want +got):\n%s", diff)
	}

	for _, typ := range []string{"country", "locale", "region", "timezone"} {
		set, ok := e.ChoicesForFieldType(typ)
		if !ok || set.IsEmpty() {
			t.Errorf("Expected static choices for %q", typ)
		}
	}
}

func TestTypeOperatorSubscriber_ListCollectEmptyLookups(t *testing.T) {
	s := NewTypeOperatorSubscriber(&fakeLookups{}, keyTranslator{}, zerolog.Nop())
	e := events.NewListFieldChoicesEvent(1)
	if err := s.OnTypeListCollect(context.Background(), e); err != nil {
		t.Fatalf("OnTypeListCollect failed: %v", err)
	}
	for _, alias := range []string{AliasCampaign, AliasSegment, AliasLeadEmailReceived} {
		set, ok := e.ChoicesForFieldAlias(alias)
		if !ok {
			t.Errorf("Expected %q to be set", alias)
		}
		if set == nil || !set.IsEmpty() {
			t.Errorf("Expected empty non-nil set for %q, got %#v", alias, set)
		}
	}
}

func TestTypeOperatorSubscriber_ListCollectError(t *testing.T) {
	boom := errors.New("db down")
	s := NewTypeOperatorSubscriber(&fakeLookups{err: boom}, keyTranslator{}, zerolog.Nop())
	d := newDispatcher(s)

	err := d.Dispatch(context.Background(), events.CollectFilterChoicesForListFields, events.NewListFieldChoicesEvent(1))
	if !errors.Is(err, boom) {
		t.Errorf("Expected lookup error to propagate, got %v", err)
	}
}

func TestTypeOperatorSubscriber_SegmentFilterForm(t *testing.T) {
	s := NewTypeOperatorSubscriber(&fakeLookups{}, keyTranslator{}, zerolog.Nop())
	d := newDispatcher(s)

	tests := []struct {
		name         string
		field        events.FilterField
		wantKind     widget.Kind
		wantMultiple bool
		wantDisabled bool
		wantData     any
	}{
		{
			name:     "regexp on select stays text",
			field:    events.FilterField{Type: "select", Operator: operator.Regexp, Choices: choice.Of("a", "A")},
			wantKind: widget.KindText,
		},
		{
			name:         "in on country wraps stored scalar",
			field:        events.FilterField{Type: "country", Operator: operator.In, Choices: choice.Of("FR", "France"), Stored: "FR"},
			wantKind:     widget.KindChoice,
			wantMultiple: true,
			wantData:     []any{"FR"},
		},
		{
			name:         "empty on boolean is disabled",
			field:        events.FilterField{Type: "boolean", Operator: operator.Empty, Choices: choice.Of("0", "No", "1", "Yes")},
			wantKind:     widget.KindChoice,
			wantDisabled: true,
		},
		{
			name:         "not empty on text is disabled",
			field:        events.FilterField{Type: "text", Operator: operator.NotEmpty},
			wantKind:     widget.KindText,
			wantDisabled: true,
		},
		{
			name:     "equals on text",
			field:    events.FilterField{Type: "text", Operator: operator.Equals, Stored: "x"},
			wantKind: widget.KindText,
			wantData: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := events.NewFilterPropertiesTypeEvent(tt.field)
			if err := d.Dispatch(context.Background(), events.AdjustFilterFormTypeForField, e); err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			c, ok := e.Control()
			if !ok {
				t.Fatal("Expected a control to be set")
			}
			if c.Name != widget.FieldName {
				t.Errorf("Expected name %q, got %q", widget.FieldName, c.Name)
			}
			if c.Kind != tt.wantKind || c.Multiple != tt.wantMultiple || c.Disabled != tt.wantDisabled {
				t.Errorf("got kind=%s multiple=%v disabled=%v, want kind=%s multiple=%v disabled=%v",
					c.Kind, c.Multiple, c.Disabled, tt.wantKind, tt.wantMultiple, tt.wantDisabled)
			}
			if diff := cmp.Diff(tt.wantData, c.Data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type recordingSink struct {
	added []store.Notification
	err   error
}

func (r *recordingSink) AddNotification(ctx context.Context, n store.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.added = append(r.added, n)
	return nil
}

func TestExportNotificationSubscriber_NotifiesActor(t *testing.T) {
	sink := &recordingSink{}
	s := NewExportNotificationSubscriber(sink, keyTranslator{}, zerolog.Nop())
	d := newDispatcher(s)

	sched := &store.ExportScheduler{ID: "e1", User: &store.User{ID: 12, Email: "a@b.com"}}
	if err := d.Dispatch(context.Background(), events.ContactExportScheduled, events.NewContactExportScheduledEvent(sched)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	want := []store.Notification{{UserID: 12, Message: "contact.export.being_prepared(%user_email%=a@b.com)"}}
	if diff := cmp.Diff(want, sink.added); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestExportNotificationSubscriber_TranslatedMessage(t *testing.T) {
	tr, err := translation.New("en")
	if err != nil {
		t.Fatalf("translation.New failed: %v", err)
	}
	sink := &recordingSink{}
	s := NewExportNotificationSubscriber(sink, tr, zerolog.Nop())

	sched := &store.ExportScheduler{User: &store.User{ID: 1, Email: "a@b.com"}}
	if err := s.OnContactExportScheduled(context.Background(), events.NewContactExportScheduledEvent(sched)); err != nil {
		t.Fatalf("OnContactExportScheduled failed: %v", err)
	}
	if len(sink.added) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(sink.added))
	}
	msg := sink.added[0].Message
	if !strings.Contains(msg, "a@b.com") || strings.Contains(msg, "%user_email%") {
		t.Errorf("Expected email substituted into message, got %q", msg)
	}
}

func TestExportNotificationSubscriber_SinkError(t *testing.T) {
	boom := errors.New("sink full")
	s := NewExportNotificationSubscriber(&recordingSink{err: boom}, keyTranslator{}, zerolog.Nop())

	sched := &store.ExportScheduler{User: &store.User{ID: 1, Email: "a@b.com"}}
	err := s.OnContactExportScheduled(context.Background(), events.NewContactExportScheduledEvent(sched))
	if !errors.Is(err, boom) {
		t.Errorf("Expected sink error, got %v", err)
	}
}

func TestExportNotificationSubscriber_MissingUserPanics(t *testing.T) {
	s := NewExportNotificationSubscriber(&recordingSink{}, keyTranslator{}, zerolog.Nop())
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for scheduler without user")
		}
	}()
	_ = s.OnContactExportScheduled(context.Background(), events.NewContactExportScheduledEvent(&store.ExportScheduler{}))
}
