package models

import "time"

type OutboxKind string

const (
	// OutboxImageChanged carries a single-image change payload.
	OutboxImageChanged OutboxKind = "image-changed"
	// OutboxImagesChanged carries an ordered batch payload; its item list
	// is empty for a full detachment.
	OutboxImagesChanged OutboxKind = "images-changed"
)

// OutboxEvent is a domain event appended in the same transaction as the
// mutation that caused it. A dispatcher picks events up after commit,
// rebuilds sequences and notifies the broker, then marks them processed.
type OutboxEvent struct {
	ID          string
	ReferenceID string
	TypeCode    string
	Kind        OutboxKind
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
