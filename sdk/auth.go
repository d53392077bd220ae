package sdk

import "context"

// Register registers a new account
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (*UserInfo, error) {
	var result UserInfo
	if err := c.post(ctx, "/auth/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login authenticates a user and returns a token.
// The token is automatically stored in the client for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var result LoginResponse
	req := &LoginRequest{Email: email, Password: password, PlatformId: c.platformId}
	if err := c.post(ctx, "/auth/login", req, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	if result.UserInfo != nil {
		c.userId = result.UserInfo.Id
	}
	return &result, nil
}

// LoginExternal signs in with a token minted by a trusted external
// identity provider, exchanging it for a native session token.
func (c *Client) LoginExternal(ctx context.Context, externalToken string) (*LoginResponse, error) {
	var result LoginResponse
	body := map[string]string{"token": externalToken}
	if err := c.post(ctx, "/auth/external", body, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	if result.UserInfo != nil {
		c.userId = result.UserInfo.Id
	}
	return &result, nil
}

// RequestPasswordReset asks the server to mail a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/password/forgot", map[string]string{"email": email}, nil)
}

// ResetPassword redeems a reset token for a new password
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return c.post(ctx, "/auth/password/reset", body, nil)
}

// Logout invalidates the current session token
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	c.userId = ""
	return nil
}

// DeleteAccount removes the signed-in account. Password re-auth is
// required for local accounts, external accounts pass an empty string.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	if err := c.post(ctx, "/auth/delete", map[string]string{"password": password}, nil); err != nil {
		return err
	}
	c.token = ""
	c.userId = ""
	return nil
}
