package store

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
)

// serverTimestamp is the Realtime Database sentinel that makes the server
// assign the write time.
var serverTimestamp = map[string]string{".sv": "timestamp"}

// FirebaseStore implements RecordStore against the Firebase Realtime Database.
type FirebaseStore struct {
	client *db.Client
}

func NewFirebaseStore(ctx context.Context, app *firebase.App) (*FirebaseStore, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %v", err)
	}
	return &FirebaseStore{client: client}, nil
}

func (s *FirebaseStore) GetComplaint(ctx context.Context, complaintID string) (*Complaint, error) {
	var c *Complaint
	if err := s.getRecord(ctx, "complaints/"+complaintID, &c); err != nil {
		return nil, fmt.Errorf("error reading complaint %s: %v", complaintID, err)
	}
	return c, nil
}

func (s *FirebaseStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var u *User
	if err := s.getRecord(ctx, "users/"+userID, &u); err != nil {
		return nil, fmt.Errorf("error reading user %s: %v", userID, err)
	}
	return u, nil
}

// getRecord reads one path into v, leaving v nil when the record is absent.
func (s *FirebaseStore) getRecord(ctx context.Context, path string, v any) error {
	var raw map[string]any
	if err := s.client.NewRef(path).Get(ctx, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *FirebaseStore) ListAdminTokens(ctx context.Context) ([]string, error) {
	q := s.client.NewRef("users").OrderByChild("isAdmin").EqualTo(true)
	nodes, err := q.GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying admin users: %v", err)
	}

	var tokens []string
	for _, node := range nodes {
		var u User
		if err := node.Unmarshal(&u); err != nil {
			continue
		}
		if u.FCMToken != "" {
			tokens = append(tokens, u.FCMToken)
		}
	}
	return tokens, nil
}

func (s *FirebaseStore) AppendHistory(ctx context.Context, userID string, rec HistoryRecord) error {
	rec.Timestamp = serverTimestamp
	ref := s.client.NewRef("users/" + userID + "/notifications")
	if _, err := ref.Push(ctx, rec); err != nil {
		return fmt.Errorf("error appending notification history for user %s: %v", userID, err)
	}
	return nil
}
