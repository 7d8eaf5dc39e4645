package client

import (
	"context"
	"net/http"
)

type authResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

// Register creates an account and signs the session in
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.signIn(ctx, "/users/register", body)
}

// Login signs the session in with a username or email
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) error {
	body := map[string]string{"usernameOrEmail": usernameOrEmail, "password": password}
	return c.signIn(ctx, "/users/login", body)
}

func (c *Client) signIn(ctx context.Context, path string, body interface{}) error {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp, false); err != nil {
		return err
	}
	c.session.set(resp.Token, resp.UserID, resp.Username)
	return nil
}

// Logout revokes the token on the server and clears the session. The
// session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()
	return c.do(ctx, http.MethodPost, "/users/logout", nil, nil, nil, true)
}
