package models

import "time"

// Notification types
const (
	NotificationFriendRequest      = "friend_request"
	NotificationFriendAccepted     = "friend_accepted"
	NotificationChallengeProposed  = "challenge_proposed"
	NotificationChallengeUpdated   = "challenge_updated"
	NotificationChallengeCompleted = "challenge_completed"
)

// Notification represents an in-app notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     uint      `json:"actorId" gorm:"index"` // 0 for the system
	RecipientID uint      `json:"recipientId" gorm:"index"`
	TargetID    uint      `json:"targetId"`
	TargetType  string    `json:"targetType" gorm:"size:20"` // challenge, friendship
	Message     string    `json:"message"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}
