package apiclient

import (
	"context"
	"time"

	"github.com/mefeed/client-go/pkg/tokenmgr"
)

// User is the authenticated account profile.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// Session is one active backend session of the account.
type Session struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register creates an account and hands the issued pair to the session
// manager, so the caller is logged in afterwards.
func (c *Client) Register(ctx context.Context, email, password string) (tokenmgr.Credentials, error) {
	var creds tokenmgr.Credentials
	err := c.postPublic(ctx, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, &creds)
	if err != nil {
		return tokenmgr.Credentials{}, err
	}

	if err := c.session.AdoptSession(ctx, creds); err != nil {
		return tokenmgr.Credentials{}, err
	}
	return creds, nil
}

// Me returns the current account profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.get(ctx, "/auth/me", nil, &user)
	return user, err
}

// Sessions lists the account's active backend sessions.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	err := c.get(ctx, "/auth/sessions", nil, &sessions)
	return sessions, err
}

// RevokeSession terminates one backend session by ID.
func (c *Client) RevokeSession(ctx context.Context, id string) error {
	return c.del(ctx, "/auth/sessions/"+id)
}

// VerifyEmail confirms the account email with the token from the
// verification message. Public endpoint: the token itself authorizes.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.postPublic(ctx, "/auth/verify-email", map[string]string{"token": token}, nil)
}

// RequestPasswordReset asks the backend to send a reset message. Public
// endpoint: the backend responds identically whether or not the email
// exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.postPublic(ctx, "/auth/reset-password", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset sets a new password using the token from the reset
// message.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return c.postPublic(ctx, "/auth/confirm-reset-password", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, nil)
}
