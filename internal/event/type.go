package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notification-service/internal/store"
)

type ChangeKind string

const (
	KindComplaintUpdated ChangeKind = "complaint.updated"
	KindAdminNote        ChangeKind = "complaint.admin_note"
	KindComplaintCreated ChangeKind = "complaint.created"
	KindTokenWritten     ChangeKind = "user.fcm_token"
)

// ChangeEvent is the envelope the complaint tracker publishes for every
// watched record mutation: before/after snapshots plus the identifiers
// derived from the record path. Snapshots stay raw until a pipeline decodes
// the shape it expects.
type ChangeEvent struct {
	ID          string          `json:"id"`
	Kind        ChangeKind      `json:"kind"`
	ComplaintID string          `json:"complaint_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Handler consumes one change event. Implementations swallow their own
// pipeline failures; a returned error means the event itself was unusable.
type Handler interface {
	Handle(ctx context.Context, ev ChangeEvent) error
}

func (e *ChangeEvent) ComplaintBefore() (*store.Complaint, error) {
	return decodeComplaint(e.Before)
}

func (e *ChangeEvent) ComplaintAfter() (*store.Complaint, error) {
	return decodeComplaint(e.After)
}

// NoteBefore and NoteAfter decode the snapshots of an admin-note event,
// where before/after are plain JSON strings.
func (e *ChangeEvent) NoteBefore() (string, error) { return decodeString(e.Before) }
func (e *ChangeEvent) NoteAfter() (string, error)  { return decodeString(e.After) }

// TokenBefore and TokenAfter decode the snapshots of a token-write event.
func (e *ChangeEvent) TokenBefore() (string, error) { return decodeString(e.Before) }
func (e *ChangeEvent) TokenAfter() (string, error)  { return decodeString(e.After) }

func decodeComplaint(raw json.RawMessage) (*store.Complaint, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var c store.Complaint
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal complaint snapshot: %v", err)
	}
	return &c, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("failed to unmarshal string snapshot: %v", err)
	}
	return s, nil
}
