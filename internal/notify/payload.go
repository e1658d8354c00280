package notify

import (
	"fmt"

	"notification-service/internal/store"
)

const (
	defaultIssueTitle = "Your complaint"
	defaultIcon       = "@mipmap/ic_launcher"
	defaultSound      = "default"
	clickAction       = "FLUTTER_NOTIFICATION_CLICK"
)

// Payload is a fully built notification, independent of any recipient.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon"`
	Sound string            `json:"sound"`
	Data  map[string]string `json:"data"`
}

// StatusUpdate builds the notification sent to a complaint's owner when its
// status changes. The body carries the admin note when one is present.
func StatusUpdate(complaintID string, c store.Complaint) Payload {
	issueTitle := c.IssueType
	if issueTitle == "" {
		issueTitle = defaultIssueTitle
	}

	body := fmt.Sprintf("Your issue has been marked as %s.", c.Status)
	if c.AdminNote != "" {
		body = fmt.Sprintf("Your issue has been marked as %s. %s", c.Status, c.AdminNote)
	}

	return Payload{
		Title: fmt.Sprintf("Status Update: %s", issueTitle),
		Body:  body,
		Icon:  defaultIcon,
		Sound: defaultSound,
		Data: map[string]string{
			"complaintId":  complaintID,
			"newStatus":    c.Status,
			"issueTitle":   issueTitle,
			"click_action": clickAction,
		},
	}
}

// AdminNote builds the notification sent to a complaint's owner when a new
// admin note is written.
func AdminNote(complaintID string, c store.Complaint, note string) Payload {
	issueTitle := c.IssueType
	if issueTitle == "" {
		issueTitle = defaultIssueTitle
	}

	return Payload{
		Title: fmt.Sprintf("Update on: %s", issueTitle),
		Body:  note,
		Icon:  defaultIcon,
		Sound: defaultSound,
		Data: map[string]string{
			"complaintId":  complaintID,
			"click_action": clickAction,
		},
	}
}

// NewComplaint builds the broadcast notification sent to admins when a
// complaint is registered.
func NewComplaint(complaintID string, c store.Complaint) Payload {
	body := "A new complaint has been registered"
	if c.IssueType != "" {
		body = fmt.Sprintf("A new complaint has been registered: %s", c.IssueType)
	}

	return Payload{
		Title: "New Complaint Registered",
		Body:  body,
		Icon:  defaultIcon,
		Sound: defaultSound,
		Data: map[string]string{
			"complaintId":  complaintID,
			"click_action": clickAction,
		},
	}
}
