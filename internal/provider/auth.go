package provider

import (
	"context"
	"net/http"
)

// SignUp registers a new user. The provider sends the confirmation email.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*User, error) {
	req := map[string]any{
		"email":    email,
		"password": password,
	}
	if fullName != "" {
		req["data"] = map[string]any{"full_name": fullName}
	}

	var resp User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PasswordGrant exchanges credentials for a token pair. When the account has
// a verified MFA factor the provider returns an AAL1 token plus the factor
// list; the caller must complete a challenge before the session counts as
// signed in.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*SignInResult, error) {
	req := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp struct {
		TokenPair
		Factors []Factor `json:"factors"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", req, &resp); err != nil {
		return nil, err
	}

	for _, f := range resp.Factors {
		if f.Status == "verified" {
			ch, err := c.MFAChallenge(ctx, resp.AccessToken, f.ID)
			if err != nil {
				return nil, err
			}
			return &SignInResult{
				Tokens:      &resp.TokenPair,
				MFARequired: true,
				FactorID:    f.ID,
				ChallengeID: ch.ID,
			}, nil
		}
	}

	pair := resp.TokenPair
	return &SignInResult{Tokens: &pair}, nil
}

// Refresh trades a refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	req := map[string]string{"refresh_token": refreshToken}

	var resp TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recover asks the provider to email a password-reset link pointing back at
// redirectTo.
func (c *Client) Recover(ctx context.Context, email, redirectTo string) error {
	req := map[string]string{
		"email":       email,
		"redirect_to": redirectTo,
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/recover", "", req, nil)
}

// UpdatePassword sets a new password for the session's user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	req := map[string]string{"password": newPassword}
	return c.doJSON(ctx, http.MethodPut, "/auth/v1/user", accessToken, req, nil)
}

// GetUser resolves the principal behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var resp User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MFAChallenge opens a challenge for the given factor.
func (c *Client) MFAChallenge(ctx context.Context, accessToken, factorID string) (*Challenge, error) {
	var resp Challenge
	path := "/auth/v1/factors/" + factorID + "/challenge"
	if err := c.doJSON(ctx, http.MethodPost, path, accessToken, map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MFAVerify answers a challenge. On success the provider issues an upgraded
// token pair.
func (c *Client) MFAVerify(ctx context.Context, accessToken, factorID, challengeID, code string) (*TokenPair, error) {
	req := map[string]string{
		"challenge_id": challengeID,
		"code":         code,
	}

	var resp TokenPair
	path := "/auth/v1/factors/" + factorID + "/verify"
	if err := c.doJSON(ctx, http.MethodPost, path, accessToken, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeCode turns an auth-callback code into a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	req := map[string]string{"auth_code": code}

	var resp TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=pkce", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignOut revokes the provider-side session. Callers treat failures as
// non-fatal: the local session is destroyed regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}
