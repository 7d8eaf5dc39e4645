package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
)

func challengePath(id uint, action string) string {
	return fmt.Sprintf("/friends/challenges/%d/%s", id, action)
}

// Create proposes a challenge to a friend
func (c *Client) Create(ctx context.Context, req challenge.CreateRequest) (challenge.Challenge, error) {
	var out challenge.Challenge
	err := c.do(ctx, http.MethodPost, "/friends/challenges", nil, req, &out, true)
	return out, err
}

// ListMine returns every challenge the session user takes part in
func (c *Client) ListMine(ctx context.Context) ([]challenge.Challenge, error) {
	return c.listChallenges(ctx, "/friends/challenges/mine")
}

// ListProposedToMe returns open invites. Challenges the session user
// proposed are never included.
func (c *Client) ListProposedToMe(ctx context.Context) ([]challenge.Challenge, error) {
	list, err := c.listChallenges(ctx, "/friends/challenges/proposed")
	if err != nil {
		return nil, err
	}
	me := c.session.CurrentUser()
	out := list[:0]
	for _, ch := range list {
		if ch.ChallengerID == me.ID || (me.ID == 0 && ch.ChallengerUsername == me.Username) {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

// listChallenges decodes items one by one so a record with an unknown
// status is dropped instead of failing the whole list.
func (c *Client) listChallenges(ctx context.Context, path string) ([]challenge.Challenge, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw, true); err != nil {
		return nil, err
	}
	out := make([]challenge.Challenge, 0, len(raw))
	for _, item := range raw {
		var ch challenge.Challenge
		if err := json.Unmarshal(item, &ch); err != nil {
			var unknown *challenge.UnknownStateError
			if errors.As(err, &unknown) {
				c.log.Warn("dropping challenge with unknown status", zap.String("path", path), zap.String("status", unknown.Value))
				continue
			}
			return nil, fmt.Errorf("decode challenge: %w", err)
		}
		out = append(out, ch)
	}
	return out, nil
}

func (c *Client) transition(ctx context.Context, id uint, action string, query url.Values) (challenge.Challenge, error) {
	var out challenge.Challenge
	err := c.do(ctx, http.MethodPost, challengePath(id, action), query, nil, &out, true)
	return out, err
}

func (c *Client) Accept(ctx context.Context, id uint) (challenge.Challenge, error) {
	return c.transition(ctx, id, "accept", nil)
}

func (c *Client) Decline(ctx context.Context, id uint) (challenge.Challenge, error) {
	return c.transition(ctx, id, "decline", nil)
}

func (c *Client) RequestComplete(ctx context.Context, id uint) (challenge.Challenge, error) {
	return c.transition(ctx, id, "request-complete", nil)
}

func (c *Client) ConfirmComplete(ctx context.Context, id uint) (challenge.Challenge, error) {
	return c.transition(ctx, id, "confirm-complete", nil)
}

func (c *Client) RejectComplete(ctx context.Context, id uint) (challenge.Challenge, error) {
	return c.transition(ctx, id, "reject-complete", nil)
}

// Complete closes a running challenge in one step with the given winner
func (c *Client) Complete(ctx context.Context, id, winnerUserID uint) (challenge.Challenge, error) {
	q := url.Values{"winnerUserId": {strconv.FormatUint(uint64(winnerUserID), 10)}}
	return c.transition(ctx, id, "complete", q)
}

// Events returns the recorded transitions of a challenge, oldest first
func (c *Client) Events(ctx context.Context, id uint) ([]challenge.Event, error) {
	var out []challenge.Event
	err := c.do(ctx, http.MethodGet, challengePath(id, "events"), nil, nil, &out, true)
	return out, err
}
