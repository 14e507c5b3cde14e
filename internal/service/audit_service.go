package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoflow/internal/model"
	"autoflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type AuditEntryResponse struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id"`
	UserName   string          `json:"user_name,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *string         `json:"entity_id"`
	Summary    string          `json:"summary"`
	BeforeData json.RawMessage `json:"before_data,omitempty"`
	AfterData  json.RawMessage `json:"after_data,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type AuditListQuery struct {
	Search     string `form:"search"`
	Action     string `form:"action"`
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
	UserID     string `form:"user_id"`
	DateFrom   string `form:"date_from"`
	DateTo     string `form:"date_to"`
}

// --- Interface ---

type AuditService interface {
	// Record appends an audit entry. Failures are logged and swallowed so a
	// broken audit table never blocks the primary write.
	Record(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, summary string, before, after interface{})
	List(ctx context.Context, query AuditListQuery, page, limit int) ([]AuditEntryResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       *logrus.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log *logrus.Logger) AuditService {
	return &auditService{auditRepo: auditRepo, log: log}
}

// --- Implementation ---

func (s *auditService) Record(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, summary string, before, after interface{}) {
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Summary:    summary,
		BeforeData: marshalSnapshot(before),
		AfterData:  marshalSnapshot(after),
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":      action,
			"entity_type": entityType,
			"error":       err,
		}).Warn("audit append failed")
	}
}

func (s *auditService) List(ctx context.Context, query AuditListQuery, page, limit int) ([]AuditEntryResponse, int64, error) {
	filter := repository.AuditFilter{
		Search:     query.Search,
		Action:     query.Action,
		EntityType: query.EntityType,
	}
	if query.EntityID != "" {
		id, err := uuid.Parse(query.EntityID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid entity_id: %w", err)
		}
		filter.EntityID = id
	}
	if query.UserID != "" {
		id, err := uuid.Parse(query.UserID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid user_id: %w", err)
		}
		filter.UserID = id
	}
	from, err := parseOptionalDate(query.DateFrom)
	if err != nil {
		return nil, 0, err
	}
	filter.DateFrom = from
	to, err := parseOptionalDate(query.DateTo)
	if err != nil {
		return nil, 0, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		filter.DateTo = &end
	}

	entries, total, err := s.auditRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit trail: %w", err)
	}

	result := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toAuditEntryResponse(e))
	}
	return result, total, nil
}

// --- Helpers ---

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func toAuditEntryResponse(e model.AuditLog) AuditEntryResponse {
	resp := AuditEntryResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		EntityType: e.EntityType,
		Summary:    e.Summary,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.UserID != nil {
		id := e.UserID.String()
		resp.UserID = &id
	}
	if e.User != nil {
		resp.UserName = e.User.Name
	}
	if e.EntityID != nil {
		id := e.EntityID.String()
		resp.EntityID = &id
	}
	if e.BeforeData != "" {
		resp.BeforeData = json.RawMessage(e.BeforeData)
	}
	if e.AfterData != "" {
		resp.AfterData = json.RawMessage(e.AfterData)
	}
	return resp
}
