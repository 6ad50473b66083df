package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types written to the outbox.
const (
	EventUserRolesUpdated     = "user.roles.updated"
	EventPrescriptionCreated  = "prescription.created"
	EventPrescriptionUpdated  = "prescription.updated"
	EventMedicineDiscontinued = "medicine.discontinued"
	EventMedicinesImported    = "medicines.imported"
)

// ProfileEventType names the event for a profile transition, e.g. "patient.profile.reactivated".
func ProfileEventType(kind ProfileKind, action TransitionAction) string {
	return fmt.Sprintf("%s.profile.%s", kind, action)
}

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// OutboxMaxAttempts bounds how often a failed event is handed back to the processor.
const OutboxMaxAttempts = 5

// Retryable reports whether the processor should (re)publish the event.
func (e *OutboxEvent) Retryable() bool {
	switch e.Status {
	case OutboxStatusPending:
		return true
	case OutboxStatusFailed:
		return e.RetryCount < OutboxMaxAttempts
	}
	return false
}

// NewOutboxEvent marshals payload into a pending event.
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
