package api

import "context"

// AuthAPI covers sign-in, registration and sign-out.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

func (a *AuthAPI) Login(ctx context.Context, creds AuthRequest) (*AuthResponse, error) {
	a.c.log.V(1).Info("Attempting login", "email", creds.Email)
	var resp AuthResponse
	if err := a.c.Post(ctx, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account. The response carries a token only when the
// backend signs the new user in directly.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	a.c.log.V(1).Info("Registering user", "email", req.Email)
	var resp AuthResponse
	if err := a.c.Post(ctx, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	a.c.log.V(1).Info("Logging out user")
	return a.c.Post(ctx, "/api/auth/logout", nil, nil)
}
