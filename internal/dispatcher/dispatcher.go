package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"notification-service/internal/event"
	"notification-service/internal/google"
	"notification-service/internal/history"
	"notification-service/internal/metrics"
	"notification-service/internal/notify"
	"notification-service/internal/push"
	"notification-service/internal/store"
)

// DirectSender is the SDK batch-send path used by the single-user pipelines.
type DirectSender interface {
	Send(ctx context.Context, tokens []string, payload notify.Payload) (*google.SendReport, error)
}

// Broadcaster is the per-recipient HTTP path used by the admin broadcast.
type Broadcaster interface {
	Broadcast(ctx context.Context, tokens []string, payload notify.Payload) ([]push.DeliveryOutcome, error)
}

// AlertMailer emails an operator mailbox about a new complaint.
type AlertMailer interface {
	NewComplaintAlert(complaintID, issueType string) error
}

// Dispatcher routes change events to their pipeline. Every pipeline degrades
// to a logged no-op on lookup or delivery failure; Handle returns an error
// only for snapshots it cannot decode.
type Dispatcher struct {
	store   store.RecordStore
	sender  DirectSender
	caster  Broadcaster
	history *history.Recorder
	mailer  AlertMailer
}

func New(s store.RecordStore, sender DirectSender, caster Broadcaster, rec *history.Recorder, mailer AlertMailer) *Dispatcher {
	return &Dispatcher{
		store:   s,
		sender:  sender,
		caster:  caster,
		history: rec,
		mailer:  mailer,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, ev event.ChangeEvent) error {
	slog.Info("pipeline start", "event_id", ev.ID, "kind", string(ev.Kind), "complaint_id", ev.ComplaintID)
	switch ev.Kind {
	case event.KindComplaintUpdated:
		return d.handleStatusUpdate(ctx, ev)
	case event.KindAdminNote:
		return d.handleAdminNote(ctx, ev)
	case event.KindComplaintCreated:
		return d.handleNewComplaint(ctx, ev)
	case event.KindTokenWritten:
		return d.handleTokenWrite(ctx, ev)
	default:
		return fmt.Errorf("unsupported change event kind: %s", ev.Kind)
	}
}

// handleStatusUpdate notifies a complaint's owner that its status changed.
func (d *Dispatcher) handleStatusUpdate(ctx context.Context, ev event.ChangeEvent) error {
	before, err := ev.ComplaintBefore()
	if err != nil {
		return err
	}
	after, err := ev.ComplaintAfter()
	if err != nil {
		return err
	}
	if after == nil {
		slog.Info("complaint deleted, no notification needed", "complaint_id", ev.ComplaintID)
		return nil
	}
	if before != nil && before.Status == after.Status {
		slog.Info("status unchanged, no notification needed", "complaint_id", ev.ComplaintID)
		return nil
	}

	tokens, userID := d.resolveOwner(ctx, after.UserID)
	if len(tokens) == 0 {
		return nil
	}

	payload := notify.StatusUpdate(ev.ComplaintID, *after)
	d.sendDirect(ctx, tokens, payload)
	d.history.Record(ctx, userID, payload, ev.ComplaintID, after.Status)
	return nil
}

// handleAdminNote notifies a complaint's owner about a newly written admin
// note.
func (d *Dispatcher) handleAdminNote(ctx context.Context, ev event.ChangeEvent) error {
	beforeNote, err := ev.NoteBefore()
	if err != nil {
		return err
	}
	newNote, err := ev.NoteAfter()
	if err != nil {
		return err
	}
	if newNote == "" || newNote == beforeNote {
		slog.Info("admin note unchanged or empty, no notification needed", "complaint_id", ev.ComplaintID)
		return nil
	}

	complaint, err := d.store.GetComplaint(ctx, ev.ComplaintID)
	if err != nil {
		slog.Error("failed to read complaint", "complaint_id", ev.ComplaintID, "error", err.Error())
		return nil
	}
	if complaint == nil {
		slog.Error("complaint data not found", "complaint_id", ev.ComplaintID)
		return nil
	}

	tokens, userID := d.resolveOwner(ctx, complaint.UserID)
	if len(tokens) == 0 {
		return nil
	}

	payload := notify.AdminNote(ev.ComplaintID, *complaint, newNote)
	d.sendDirect(ctx, tokens, payload)
	d.history.Record(ctx, userID, payload, ev.ComplaintID, "")
	return nil
}

// handleNewComplaint broadcasts a newly registered complaint to every admin
// device, and optionally emails the operator mailbox.
func (d *Dispatcher) handleNewComplaint(ctx context.Context, ev event.ChangeEvent) error {
	after, err := ev.ComplaintAfter()
	if err != nil {
		return err
	}
	var complaint store.Complaint
	if after != nil {
		complaint = *after
	}

	payload := notify.NewComplaint(ev.ComplaintID, complaint)

	if d.mailer != nil {
		if err := d.mailer.NewComplaintAlert(ev.ComplaintID, complaint.IssueType); err != nil {
			slog.Error("failed to send admin alert email", "complaint_id", ev.ComplaintID, "error", err.Error())
		}
	}

	tokens, err := d.store.ListAdminTokens(ctx)
	if err != nil {
		slog.Error("failed to query admin users", "error", err.Error())
		return nil
	}
	slog.Info("resolver result", "event_id", ev.ID, "recipients", len(tokens))
	if len(tokens) == 0 {
		slog.Info("no admin users with fcm tokens found, no notification sent")
		return nil
	}

	if _, err := d.caster.Broadcast(ctx, tokens, payload); err != nil {
		slog.Error("admin broadcast aborted", "complaint_id", ev.ComplaintID, "error", err.Error())
	}
	return nil
}

// handleTokenWrite is informational only; kept as the extension point for
// topic subscriptions on token refresh.
func (d *Dispatcher) handleTokenWrite(ctx context.Context, ev event.ChangeEvent) error {
	before, err := ev.TokenBefore()
	if err != nil {
		return err
	}
	after, err := ev.TokenAfter()
	if err != nil {
		return err
	}

	switch {
	case after == "":
		slog.Info("fcm token removed", "user_id", ev.UserID)
	case before == "":
		slog.Info("fcm token created", "user_id", ev.UserID)
	default:
		slog.Info("fcm token updated", "user_id", ev.UserID)
	}
	return nil
}

// resolveOwner is the single-user recipient variant: it returns the owner's
// device token, or nothing when the owner is missing, unknown, or has no
// token. All of those are expected conditions, not errors.
func (d *Dispatcher) resolveOwner(ctx context.Context, userID string) ([]string, string) {
	if userID == "" {
		slog.Error("no user_id found in complaint data")
		return nil, ""
	}
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		slog.Error("failed to read user", "user_id", userID, "error", err.Error())
		return nil, ""
	}
	if user == nil {
		slog.Error("user data not found", "user_id", userID)
		return nil, ""
	}
	if user.FCMToken == "" {
		slog.Warn("no fcm token found for user", "user_id", userID)
		return nil, ""
	}
	slog.Info("resolver result", "user_id", userID, "recipients", 1)
	return []string{user.FCMToken}, userID
}

// sendDirect pushes via the SDK batch primitive. Failures are logged and
// counted; they never stop the pipeline, the history write still follows.
func (d *Dispatcher) sendDirect(ctx context.Context, tokens []string, payload notify.Payload) {
	report, err := d.sender.Send(ctx, tokens, payload)
	if err != nil {
		metrics.PushSends.WithLabelValues("direct", "failure").Add(float64(len(tokens)))
		slog.Error("error sending notification", "error", err.Error())
		return
	}
	metrics.PushSends.WithLabelValues("direct", "success").Add(float64(report.SuccessCount))
	metrics.PushSends.WithLabelValues("direct", "failure").Add(float64(report.FailureCount))
	if report.FailureCount > 0 {
		slog.Warn("some notification sends failed", "failure_count", report.FailureCount, "errors", report.Errors)
	} else {
		slog.Info("send result", "success_count", report.SuccessCount)
	}
}
