package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/export"
	"github.com/TimurManjosov/segmentfilter/internal/operator"
	"github.com/TimurManjosov/segmentfilter/internal/segment"
	"github.com/TimurManjosov/segmentfilter/internal/store"
)

type fieldTypesResponse struct {
	FieldTypes []string `json:"fieldTypes"`
}

type operatorDTO struct {
	Operator   operator.Operator `json:"operator"`
	Label      string            `json:"label"`
	Expr       string            `json:"expr,omitempty"`
	NegateExpr string            `json:"negateExpr,omitempty"`
}

type operatorsResponse struct {
	FieldType string        `json:"fieldType"`
	Operators []operatorDTO `json:"operators"`
}

type choiceFieldsResponse struct {
	Types   []string `json:"types"`
	Aliases []string `json:"aliases"`
}

type choicesResponse struct {
	Type    string     `json:"type,omitempty"`
	Alias   string     `json:"alias,omitempty"`
	Choices choice.Set `json:"choices"`
}

type scheduleExportRequest struct {
	UserID  int64          `json:"userId"`
	Filters map[string]any `json:"filters,omitempty"`
}

type scheduleExportResponse struct {
	Export  *store.ExportScheduler `json:"export"`
	Warning string                 `json:"warning,omitempty"`
}

type notificationsResponse struct {
	Notifications []store.Notification `json:"notifications"`
}

func (s *Server) handleListFieldTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.segments(0).FieldTypes(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("collect field types")
		InternalError(w, r, "failed to collect field types")
		return
	}
	writeJSON(w, http.StatusOK, fieldTypesResponse{FieldTypes: types})
}

func (s *Server) handleListOperators(w http.ResponseWriter, r *http.Request) {
	fieldType := chi.URLParam(r, "type")
	ops, err := s.segments(0).OperatorsForFieldType(r.Context(), fieldType)
	if err != nil {
		s.log.Error().Err(err).Str("type", fieldType).Msg("collect operators")
		InternalError(w, r, "failed to collect operators")
		return
	}

	labels := operator.Choices(ops, s.translator(r))
	resp := operatorsResponse{FieldType: fieldType, Operators: make([]operatorDTO, 0, len(labels))}
	for _, c := range labels {
		op := operator.Operator(c.Value)
		dto := operatorDTO{Operator: op, Label: c.Label}
		if o, ok := operator.OptionsFor(op); ok {
			dto.Expr, dto.NegateExpr = o.Expr, o.NegateExpr
		}
		resp.Operators = append(resp.Operators, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChoiceFields lists the field types and aliases that have choices.
func (s *Server) handleChoiceFields(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidUser, err.Error())
		return
	}
	types, aliases, err := s.segments(uid).ListFieldTypes(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("collect choice fields")
		InternalError(w, r, "failed to collect choice fields")
		return
	}
	if types == nil {
		types = []string{}
	}
	if aliases == nil {
		aliases = []string{}
	}
	writeJSON(w, http.StatusOK, choiceFieldsResponse{Types: types, Aliases: aliases})
}

// handleChoices serves a choice set with a content-hash ETag so editors can
// cache large lists like countries and timezones.
func (s *Server) handleChoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fieldType := strings.TrimSpace(q.Get("type"))
	alias := strings.TrimSpace(q.Get("alias"))
	if fieldType == "" && alias == "" {
		BadRequestErrorWithFields(w, r, ErrCodeMissingField, "type or alias is required",
			map[string]string{"type": "required without alias", "alias": "required without type"})
		return
	}
	uid, err := userID(r)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidUser, err.Error())
		return
	}

	set, err := s.segments(uid).ChoicesForField(r.Context(), segment.Field{Alias: alias, Type: fieldType})
	if err != nil {
		s.log.Error().Err(err).Str("type", fieldType).Str("alias", alias).Msg("collect choices")
		InternalError(w, r, "failed to collect choices")
		return
	}

	body, err := json.Marshal(choicesResponse{Type: fieldType, Alias: alias, Choices: set})
	if err != nil {
		InternalError(w, r, "failed to encode choices")
		return
	}
	etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleFilterControl(w http.ResponseWriter, r *http.Request) {
	var req segment.FilterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Field.Type) == "" {
		fields["field.type"] = "required"
	}
	if strings.TrimSpace(string(req.Operator)) == "" {
		fields["operator"] = "required"
	}
	if len(fields) > 0 {
		ValidationError(w, r, "invalid filter", fields)
		return
	}

	req.Operator = operator.Normalize(string(req.Operator))
	if !req.Operator.Known() {
		BadRequestErrorWithFields(w, r, ErrCodeInvalidOperator, "unknown operator",
			map[string]string{"operator": string(req.Operator)})
		return
	}

	uid, err := userID(r)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidUser, err.Error())
		return
	}

	c, err := s.segments(uid).FilterControl(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Str("type", req.Field.Type).Msg("build filter control")
		InternalError(w, r, "failed to build filter control")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleScheduleExport(w http.ResponseWriter, r *http.Request) {
	var req scheduleExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		ValidationError(w, r, "invalid export request", map[string]string{"userId": "must be a positive integer"})
		return
	}

	sched, err := s.exports.Schedule(r.Context(), req.UserID, req.Filters)
	switch {
	case errors.Is(err, export.ErrUnknownUser):
		NotFoundError(w, r, err.Error())
		return
	case err != nil && sched == nil:
		s.log.Error().Err(err).Int64("user_id", req.UserID).Msg("schedule export")
		InternalError(w, r, "failed to schedule export")
		return
	}

	resp := scheduleExportResponse{Export: sched}
	if err != nil {
		// saved, but a listener failed
		s.log.Warn().Err(err).Str("export_id", sched.ID).Msg("export scheduled with listener error")
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestError(w, r, ErrCodeInvalidUser, "user id must be a positive integer")
		return
	}
	list, err := s.store.ListNotifications(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", id).Msg("list notifications")
		InternalError(w, r, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: list})
}
