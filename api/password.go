package api

import "context"

// PasswordAPI covers password change and the reset-by-email flow.
type PasswordAPI struct {
	c *Client
}

func NewPasswordAPI(c *Client) *PasswordAPI { return &PasswordAPI{c: c} }

// Change updates the signed-in user's password.
func (p *PasswordAPI) Change(ctx context.Context, req PasswordChange) (*MessageResponse, error) {
	var resp MessageResponse
	if err := p.c.Post(ctx, "/api/password/change", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestReset asks the backend to mail a reset link to email.
func (p *PasswordAPI) RequestReset(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"email": email}
	if err := p.c.Post(ctx, "/api/password/reset/request", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmReset sets a new password using the token from the reset link.
func (p *PasswordAPI) ConfirmReset(ctx context.Context, req PasswordResetConfirm) (*MessageResponse, error) {
	var resp MessageResponse
	if err := p.c.Post(ctx, "/api/password/reset/confirm", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
