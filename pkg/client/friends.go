package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Friendship is a friendship as seen by the session user
type Friendship struct {
	ID             uint      `json:"id"`
	FriendID       uint      `json:"friendId"`
	FriendUsername string    `json:"friendUsername"`
	Status         string    `json:"status"`
	Outgoing       bool      `json:"outgoing"`
	RequestedAt    time.Time `json:"requestedAt"`
}

// UserSummary is a search hit
type UserSummary struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

// CanChallenge reports whether a challenge may be offered to this friend
func CanChallenge(f Friendship) bool {
	return f.Status == "accepted"
}

func (c *Client) ListFriends(ctx context.Context) ([]Friendship, error) {
	var out []Friendship
	err := c.do(ctx, http.MethodGet, "/friends", nil, nil, &out, true)
	return out, err
}

// ListIncoming returns pending requests sent to the session user
func (c *Client) ListIncoming(ctx context.Context) ([]Friendship, error) {
	var out []Friendship
	err := c.do(ctx, http.MethodGet, "/friends/requests/incoming", nil, nil, &out, true)
	return out, err
}

func (c *Client) SendRequest(ctx context.Context, targetUserID uint) (Friendship, error) {
	var out Friendship
	err := c.do(ctx, http.MethodPost, "/friends/requests", nil, map[string]uint{"targetUserId": targetUserID}, &out, true)
	return out, err
}

func (c *Client) SendRequestByUsername(ctx context.Context, username string) (Friendship, error) {
	var out Friendship
	err := c.do(ctx, http.MethodPost, "/friends/requests/by-username", nil, map[string]string{"username": username}, &out, true)
	return out, err
}

func (c *Client) respondToRequest(ctx context.Context, otherUserID uint, action string) (Friendship, error) {
	var out Friendship
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/friends/requests/%d/%s", otherUserID, action), nil, nil, &out, true)
	return out, err
}

// AcceptFriend accepts a pending request from otherUserID
func (c *Client) AcceptFriend(ctx context.Context, otherUserID uint) (Friendship, error) {
	return c.respondToRequest(ctx, otherUserID, "accept")
}

func (c *Client) DeclineFriend(ctx context.Context, otherUserID uint) (Friendship, error) {
	return c.respondToRequest(ctx, otherUserID, "decline")
}

// CancelFriendRequest withdraws a request the session user sent
func (c *Client) CancelFriendRequest(ctx context.Context, otherUserID uint) (Friendship, error) {
	return c.respondToRequest(ctx, otherUserID, "cancel")
}

func (c *Client) RemoveFriend(ctx context.Context, friendUserID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/friends/%d", friendUserID), nil, nil, nil, true)
}

// SearchUsers finds users by username prefix
func (c *Client) SearchUsers(ctx context.Context, query string) ([]UserSummary, error) {
	var out []UserSummary
	err := c.do(ctx, http.MethodGet, "/users/search", url.Values{"q": {query}}, nil, &out, true)
	return out, err
}
