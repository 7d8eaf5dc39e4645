package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMService sends push messages through Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
}

func NewFCMService(client *messaging.Client) *FCMService {
	return &FCMService{client: client}
}

// Push sends one message to one device token
func (s *FCMService) Push(ctx context.Context, token, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
