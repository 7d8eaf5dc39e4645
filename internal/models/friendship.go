package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
	FriendshipCanceled FriendshipStatus = "canceled"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is stored once per pair of users with UserAID < UserBID
type Friendship struct {
	ID            uint             `gorm:"primaryKey"`
	UserAID       uint             `gorm:"not null;uniqueIndex:uq_friend_pair"`
	UserA         User             `gorm:"foreignKey:UserAID"`
	UserBID       uint             `gorm:"not null;uniqueIndex:uq_friend_pair"`
	UserB         User             `gorm:"foreignKey:UserBID"`
	Status        FriendshipStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
	RequestedByID uint             `gorm:"not null"`
	RespondedByID *uint
	RequestedAt   time.Time `gorm:"not null"`
	RespondedAt   *time.Time
	UpdatedAt     time.Time
}

// OrderedPair returns the two ids in storage order
func OrderedPair(u1, u2 uint) (uint, uint) {
	if u1 < u2 {
		return u1, u2
	}
	return u2, u1
}

// Other returns the party of f that is not meID
func (f *Friendship) Other(meID uint) User {
	if f.UserAID == meID {
		return f.UserB
	}
	return f.UserA
}

// FriendshipResponse is a friendship seen from one of its two users
type FriendshipResponse struct {
	ID             uint             `json:"id"`
	FriendID       uint             `json:"friendId"`
	FriendUsername string           `json:"friendUsername"`
	Status         FriendshipStatus `json:"status"`
	Outgoing       bool             `json:"outgoing"`
	RequestedAt    time.Time        `json:"requestedAt"`
}

func (f *Friendship) ToResponse(meID uint) FriendshipResponse {
	friend := f.Other(meID)
	return FriendshipResponse{
		ID:             f.ID,
		FriendID:       friend.ID,
		FriendUsername: friend.Username,
		Status:         f.Status,
		Outgoing:       f.RequestedByID == meID,
		RequestedAt:    f.RequestedAt,
	}
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	TargetUserID uint `json:"targetUserId" validate:"required"`
}

// CreateFriendRequestByUsername defines the request body for sending a friend request by username
type CreateFriendRequestByUsername struct {
	Username string `json:"username" validate:"notblank"`
}
