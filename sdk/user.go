package sdk

import "context"

// GetProfile returns the signed-in user's own profile
func (c *Client) GetProfile(ctx context.Context) (*UserInfo, error) {
	var result UserInfo
	if err := c.get(ctx, "/user/profile", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser returns another user's profile, privacy applied
func (c *Client) GetUser(ctx context.Context, userId string) (*UserInfo, error) {
	var result UserInfo
	if err := c.get(ctx, "/user/profile/"+userId, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProfile applies a partial profile edit
func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*UserInfo, error) {
	var result UserInfo
	if err := c.put(ctx, "/user/profile", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPreferences returns the signed-in user's preferences
func (c *Client) GetPreferences(ctx context.Context) (*Preferences, error) {
	var result Preferences
	if err := c.get(ctx, "/user/preferences", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePreferences replaces the signed-in user's preferences
func (c *Client) UpdatePreferences(ctx context.Context, prefs *Preferences) (*UserInfo, error) {
	var result UserInfo
	if err := c.put(ctx, "/user/preferences", prefs, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrivacy returns the signed-in user's privacy switches
func (c *Client) GetPrivacy(ctx context.Context) (*Privacy, error) {
	var result Privacy
	if err := c.get(ctx, "/user/privacy", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePrivacy replaces the signed-in user's privacy switches
func (c *Client) UpdatePrivacy(ctx context.Context, privacy *Privacy) (*UserInfo, error) {
	var result UserInfo
	if err := c.put(ctx, "/user/privacy", privacy, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListUsers returns the chat directory: every other active user,
// ordered by display name.
func (c *Client) ListUsers(ctx context.Context) ([]*UserInfo, error) {
	var result []*UserInfo
	if err := c.get(ctx, "/user/list", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Activity returns the signed-in user's recent audit entries
func (c *Client) Activity(ctx context.Context) ([]*ActivityInfo, error) {
	var result []*ActivityInfo
	if err := c.get(ctx, "/user/activity", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UploadAvatar stores avatar bytes and returns the blob ref
func (c *Client) UploadAvatar(ctx context.Context, data []byte, mime string) (string, error) {
	var result struct {
		Ref string `json:"ref"`
	}
	if err := c.requestRaw(ctx, "POST", "/user/avatar", mime, data, &result); err != nil {
		return "", err
	}
	return result.Ref, nil
}

// RemoveAvatar clears the signed-in user's avatar
func (c *Client) RemoveAvatar(ctx context.Context) error {
	return c.delete(ctx, "/user/avatar", nil, nil)
}
