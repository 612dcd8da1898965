package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/events"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/subscriber"
	"github.com/TimurManjosov/segmentfilter/internal/translation"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

const testAdminKey = "test-key"

func newTestServer(t *testing.T, rateLimit int) (http.Handler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.Seed(store.Fixtures{
		Users: []store.User{
			{ID: 1, Email: "a@b.com"},
			{ID: 2, Email: "c@d.com"},
		},
		Campaigns: []store.Campaign{{ID: 7, Name: "Spring", Published: true}},
		Segments: []store.Segment{
			{ID: 1, Name: "Mine", Published: true, CreatedBy: 1},
			{ID: 2, Name: "Everyone", Published: true, Global: true},
		},
		Emails: []store.Email{{ID: 3, Name: "Welcome", Language: "en", Published: true}},
	})

	tr, err := translation.New("en")
	if err != nil {
		t.Fatalf("translation.New failed: %v", err)
	}
	d := events.NewDispatcher()
	d.AddSubscriber(subscriber.NewTypeOperatorSubscriber(st, tr, zerolog.Nop()))
	d.AddSubscriber(subscriber.NewExportNotificationSubscriber(st, tr, zerolog.Nop()))

	srv := NewServer(Options{
		Store:          st,
		Dispatcher:     d,
		Translator:     tr,
		AdminAPIKey:    testAdminKey,
		RateLimitPerIP: rateLimit,
		Logger:         zerolog.Nop(),
	})
	return srv.Router(), st
}

func do(t *testing.T, h http.Handler, method, target string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestServer(t, 0)
	rr := do(t, h, http.MethodGet, "/healthz", nil, nil)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got %s", rr.Body.String())
	}
}

func TestListFieldTypes(t *testing.T) {
	h, _ := newTestServer(t, 0)
	rr := do(t, h, http.MethodGet, "/v1/field-types", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp fieldTypesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.FieldTypes) != 18 {
		t.Errorf("Expected 18 field types, got %d", len(resp.FieldTypes))
	}
}

func TestListOperators(t *testing.T) {
	h, _ := newTestServer(t, 0)

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   []operatorDTO
	}{
		{
			name:   "bool in english",
			target: "/v1/field-types/bool/operators",
			want: []operatorDTO{
				{Operator: "=", Label: "equals", Expr: "eq", NegateExpr: "neq"},
				{Operator: "!=", Label: "not equal", Expr: "neq", NegateExpr: "eq"},
			},
		},
		{
			name:   "boolean alias in french via query",
			target: "/v1/field-types/boolean/operators?locale=fr",
			want: []operatorDTO{
				{Operator: "=", Label: "égal à", Expr: "eq", NegateExpr: "neq"},
				{Operator: "!=", Label: "différent de", Expr: "neq", NegateExpr: "eq"},
			},
		},
		{
			name:   "french via Accept-Language",
			target: "/v1/field-types/bool/operators",
			header: map[string]string{"Accept-Language": "de-DE, fr;q=0.8"},
			want: []operatorDTO{
				{Operator: "=", Label: "égal à", Expr: "eq", NegateExpr: "neq"},
				{Operator: "!=", Label: "différent de", Expr: "neq", NegateExpr: "eq"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tt.target, nil, tt.header)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			var resp operatorsResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if diff := cmp.Diff(tt.want, resp.Operators); diff != "" {
				t.Errorf("operators mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListOperators_UnknownTypeFallsBackToText(t *testing.T) {
	h, _ := newTestServer(t, 0)
	unknown := do(t, h, http.MethodGet, "/v1/field-types/mystery/operators", nil, nil)
	text := do(t, h, http.MethodGet, "/v1/field-types/text/operators", nil, nil)

	var a, b operatorsResponse
	_ = json.NewDecoder(unknown.Body).Decode(&a)
	_ = json.NewDecoder(text.Body).Decode(&b)
	if len(a.Operators) == 0 {
		t.Fatal("Expected operators for unknown type")
	}
	if diff := cmp.Diff(b.Operators, a.Operators); diff != "" {
		t.Errorf("unknown type should match text (-text +unknown):\n%s", diff)
	}
}

func TestChoices(t *testing.T) {
	h, _ := newTestServer(t, 0)

	tests := []struct {
		name   string
		target string
		want   choice.Set
	}{
		{name: "boolean", target: "/v1/choices?type=boolean", want: choice.Of("0", "No", "1", "Yes")},
		{name: "campaign alias", target: "/v1/choices?alias=campaign", want: choice.Of("7", "Spring")},
		{name: "segments for user 1", target: "/v1/choices?alias=leadlist&user=1", want: choice.Of("2", "Everyone", "1", "Mine")},
		{name: "segments for anonymous", target: "/v1/choices?alias=leadlist", want: choice.Of("2", "Everyone")},
		{name: "no choices", target: "/v1/choices?type=text", want: choice.Set{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tt.target, nil, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if !strings.HasPrefix(rr.Header().Get("ETag"), `W/"`) {
				t.Errorf("Expected weak ETag, got %q", rr.Header().Get("ETag"))
			}
			var resp choicesResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if diff := cmp.Diff(tt.want, resp.Choices); diff != "" {
				t.Errorf("choices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChoices_ETag(t *testing.T) {
	h, _ := newTestServer(t, 0)

	first := do(t, h, http.MethodGet, "/v1/choices?type=country", nil, nil)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("Expected ETag header")
	}

	again := do(t, h, http.MethodGet, "/v1/choices?type=country", nil, map[string]string{"If-None-Match": etag})
	if again.Code != http.StatusNotModified {
		t.Errorf("Expected status 304, got %d", again.Code)
	}
	if got := again.Header().Get("ETag"); got != etag {
		t.Errorf("Expected 304 to carry ETag %q, got %q", etag, got)
	}

	other := do(t, h, http.MethodGet, "/v1/choices?type=timezone", nil, map[string]string{"If-None-Match": etag})
	if other.Code != http.StatusOK {
		t.Errorf("Expected status 200 for a different set, got %d", other.Code)
	}
}

func TestChoiceFields(t *testing.T) {
	h, _ := newTestServer(t, 0)
	rr := do(t, h, http.MethodGet, "/v1/choice-fields", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp choiceFieldsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	want := choiceFieldsResponse{
		Types:   []string{"boolean", "country", "locale", "region", "timezone"},
		Aliases: []string{"campaign", "lead_email_received", "leadlist"},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("choice fields mismatch (-want +got):\n%s", diff)
	}

	rr = do(t, h, http.MethodGet, "/v1/choice-fields?user=abc", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad user, got %d", rr.Code)
	}
}

func TestChoices_Validation(t *testing.T) {
	h, _ := newTestServer(t, 0)

	rr := do(t, h, http.MethodGet, "/v1/choices", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != ErrCodeMissingField {
		t.Errorf("Expected MISSING_FIELD, got %s", resp.Code)
	}

	rr = do(t, h, http.MethodGet, "/v1/choices?type=boolean&user=abc", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad user, got %d", rr.Code)
	}
}

func TestFilterControl(t *testing.T) {
	h, _ := newTestServer(t, 0)

	tests := []struct {
		name string
		body string
		want widget.Control
	}{
		{
			name: "in on campaign alias",
			body: `{"field":{"alias":"campaign","type":"campaign"},"operator":"in","filter":"7"}`,
			want: widget.Control{
				Name: "filter", Kind: widget.KindChoice, Multiple: true,
				Choices: choice.Of("7", "Spring"), Data: []any{"7"},
				Attr: map[string]string{"class": "form-control"},
			},
		},
		{
			name: "regexp on select",
			body: `{"field":{"alias":"color","type":"select","options":[{"value":"r","label":"Red"}]},"operator":"regexp","filter":"^r"}`,
			want: widget.Control{
				Name: "filter", Kind: widget.KindText, Data: "^r",
				Attr: map[string]string{"class": "form-control"},
			},
		},
		{
			name: "not empty spelled notEmpty on text",
			body: `{"field":{"alias":"firstname","type":"text"},"operator":"notEmpty"}`,
			want: widget.Control{
				Name: "filter", Kind: widget.KindText, Disabled: true,
				Attr: map[string]string{"class": "form-control"},
			},
		},
		{
			name: "multiselect without stored value",
			body: `{"field":{"alias":"tags","type":"multiselect","options":[{"value":"a","label":"A"}]},"operator":"="}`,
			want: widget.Control{
				Name: "filter", Kind: widget.KindChoice, Multiple: true,
				Choices: choice.Of("a", "A"), Data: []any{},
				Attr: map[string]string{"class": "form-control"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/filters/control", tt.body, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var got widget.Control
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("control mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterControl_Errors(t *testing.T) {
	h, _ := newTestServer(t, 0)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  ErrorCode
	}{
		{name: "invalid JSON", body: `{`, wantCode: http.StatusBadRequest, wantErr: ErrCodeInvalidJSON},
		{name: "missing type", body: `{"field":{},"operator":"="}`, wantCode: http.StatusBadRequest, wantErr: ErrCodeValidation},
		{name: "unknown operator", body: `{"field":{"type":"text"},"operator":"near"}`, wantCode: http.StatusBadRequest, wantErr: ErrCodeInvalidOperator},
		{name: "too large", body: `{"filter":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantCode: http.StatusRequestEntityTooLarge, wantErr: ErrCodeRequestTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/filters/control", tt.body, nil)
			if rr.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d", tt.wantCode, rr.Code)
			}
			var resp ErrorResponse
			_ = json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Code != tt.wantErr {
				t.Errorf("Expected code %s, got %s", tt.wantErr, resp.Code)
			}
		})
	}
}

func TestScheduleExport(t *testing.T) {
	h, st := newTestServer(t, 0)
	auth := map[string]string{"Authorization": "Bearer " + testAdminKey}

	rr := do(t, h, http.MethodPost, "/v1/exports", scheduleExportRequest{UserID: 1, Filters: map[string]any{"segment": 2}}, auth)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp scheduleExportResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Export == nil || resp.Export.ID == "" || resp.Export.User.Email != "a@b.com" {
		t.Errorf("unexpected export: %+v", resp.Export)
	}

	notes := do(t, h, http.MethodGet, "/v1/users/1/notifications", nil, nil)
	var list notificationsResponse
	if err := json.NewDecoder(notes.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode notifications: %v", err)
	}
	if len(list.Notifications) != 1 || !strings.Contains(list.Notifications[0].Message, "a@b.com") {
		t.Errorf("Expected one notification mentioning a@b.com, got %+v", list.Notifications)
	}

	if others, _ := st.ListNotifications(context.Background(), 2); len(others) != 0 {
		t.Errorf("Expected no notifications for user 2, got %d", len(others))
	}
}

func TestScheduleExport_Errors(t *testing.T) {
	h, _ := newTestServer(t, 0)

	tests := []struct {
		name     string
		header   map[string]string
		body     any
		wantCode int
	}{
		{name: "missing token", body: scheduleExportRequest{UserID: 1}, wantCode: http.StatusUnauthorized},
		{name: "wrong token", header: map[string]string{"Authorization": "Bearer nope"}, body: scheduleExportRequest{UserID: 1}, wantCode: http.StatusForbidden},
		{name: "missing user", header: map[string]string{"Authorization": "Bearer " + testAdminKey}, body: scheduleExportRequest{}, wantCode: http.StatusBadRequest},
		{name: "unknown user", header: map[string]string{"Authorization": "Bearer " + testAdminKey}, body: scheduleExportRequest{UserID: 99}, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/exports", tt.body, tt.header)
			if rr.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestListNotifications_InvalidID(t *testing.T) {
	h, _ := newTestServer(t, 0)
	rr := do(t, h, http.MethodGet, "/v1/users/abc/notifications", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		if rr := do(t, h, http.MethodGet, "/healthz", nil, nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	rr := do(t, h, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rr.Code)
	}
}
