package ingest

import (
	"context"
	"log/slog"

	"veriflow/internal/events"
	"veriflow/internal/ingest/store/notifications"
	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// NotificationIngestor fills user inboxes. The row id comes from the event,
// never from the store, so a replayed event lands on the existing row.
type NotificationIngestor struct {
	notifications notifications.Store
	logger        *slog.Logger
}

func NewNotificationIngestor(notificationStore notifications.Store, logger *slog.Logger) *NotificationIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationIngestor{notifications: notificationStore, logger: logger}
}

func (i *NotificationIngestor) Topic() events.Topic { return events.TopicNotifications }

func (i *NotificationIngestor) Apply(ctx context.Context, payload []byte) error {
	e, err := events.DecodeNotificationCreated(payload)
	if err != nil {
		return err
	}

	notificationID, err := id.ParseNotificationID(e.NotificationID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "notification event id")
	}
	recipientID, err := id.ParseUserID(e.RecipientID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "notification event userId")
	}
	requestID, err := id.ParseRequestID(e.RequestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "notification event request id")
	}

	inserted, err := i.notifications.Insert(ctx, models.Notification{
		ID:          notificationID,
		RecipientID: recipientID,
		RequestID:   requestID,
		Type:        e.Type,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt.Time,
		SentAt:      e.SentAt.Time,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "insert notification")
	}
	if !inserted {
		i.logger.DebugContext(ctx, "notification event replayed", "notification_id", notificationID)
	}
	return nil
}
