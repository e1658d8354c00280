package store

import "context"

// Complaint mirrors a /complaints/{id} record in the tracker database.
type Complaint struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note,omitempty"`
	IssueType string `json:"issue_type,omitempty"`
	UserID    string `json:"user_id"`
}

// User mirrors a /users/{id} record.
type User struct {
	FCMToken string `json:"fcmToken,omitempty"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
	Email    string `json:"email,omitempty"`
}

// HistoryRecord is one append-only entry under /users/{id}/notifications.
// Timestamp is any so the database can assign it server-side.
type HistoryRecord struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Timestamp   any    `json:"timestamp"`
	ComplaintID string `json:"complaintId"`
	Status      string `json:"status,omitempty"`
	Read        bool   `json:"read"`
}

// RecordStore is the read/write surface of the complaint tracker database.
type RecordStore interface {
	GetComplaint(ctx context.Context, complaintID string) (*Complaint, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	// ListAdminTokens returns the device token of every admin user that has
	// one, via a filtered query rather than a full collection scan.
	ListAdminTokens(ctx context.Context) ([]string, error)
	AppendHistory(ctx context.Context, userID string, rec HistoryRecord) error
}
