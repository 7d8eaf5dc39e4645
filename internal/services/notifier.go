package services

import (
	"context"

	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
	"go.uber.org/zap"
)

// Pusher delivers a push message to one device
type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}

// Notifier records in-app notifications and mirrors them as push messages
// when the recipient has registered a device. Delivery is best effort.
type Notifier struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	pusher        Pusher
	log           *zap.Logger
}

// NewNotifier builds a Notifier. pusher may be nil.
func NewNotifier(notifications repositories.NotificationRepository, users repositories.UserRepository, pusher Pusher, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{notifications: notifications, users: users, pusher: pusher, log: log}
}

// Notify is a no-op on a nil Notifier
func (n *Notifier) Notify(ctx context.Context, note models.Notification) {
	if n == nil {
		return
	}
	if err := n.notifications.CreateNotification(ctx, &note); err != nil {
		n.log.Warn("store notification", zap.String("type", note.Type), zap.Uint("recipient", note.RecipientID), zap.Error(err))
	}
	if n.pusher == nil {
		return
	}

	recipient, err := n.users.GetUserByID(ctx, note.RecipientID)
	if err != nil || recipient.FCMToken == "" {
		return
	}
	data := map[string]string{
		"type":       note.Type,
		"targetType": note.TargetType,
		"targetId":   uintString(note.TargetID),
	}
	if err := n.pusher.Push(ctx, recipient.FCMToken, "TheLittleThings", note.Message, data); err != nil {
		n.log.Warn("push notification", zap.Uint("recipient", note.RecipientID), zap.Error(err))
	}
}
