package history

import (
	"context"
	"log/slog"

	"notification-service/internal/metrics"
	"notification-service/internal/notify"
	"notification-service/internal/store"
)

// Recorder appends notification history entries. Writes are best effort:
// a failed append is logged and swallowed so it never changes the caller's
// control flow.
type Recorder struct {
	store store.RecordStore
}

func NewRecorder(s store.RecordStore) *Recorder {
	return &Recorder{store: s}
}

// Record appends one history entry for userID. Called after every send
// attempt, whether or not the send reached a device.
func (r *Recorder) Record(ctx context.Context, userID string, payload notify.Payload, complaintID, status string) {
	rec := store.HistoryRecord{
		Title:       payload.Title,
		Body:        payload.Body,
		ComplaintID: complaintID,
		Status:      status,
		Read:        false,
	}
	if err := r.store.AppendHistory(ctx, userID, rec); err != nil {
		metrics.HistoryWrites.WithLabelValues("failure").Inc()
		slog.Error("failed to save notification to history", "user_id", userID, "complaint_id", complaintID, "error", err.Error())
		return
	}
	metrics.HistoryWrites.WithLabelValues("success").Inc()
	slog.Info("notification saved to history", "user_id", userID, "complaint_id", complaintID)
}
