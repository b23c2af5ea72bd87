package providers

import (
	"context"

	"golang.org/x/oauth2/endpoints"
)

const googleProfileURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Google uses the standard OIDC userinfo shape and a form-encoded exchange.
func googleSettings() settings {
	return settings{
		id:         "google",
		endpoint:   endpoints.Google,
		scopes:     []string{"openid", "profile", "email"},
		encoding:   encodeForm,
		profileURL: googleProfileURL,
		resolve:    resolveGoogleProfile,
	}
}

func resolveGoogleProfile(ctx context.Context, c *client, accessToken string) *Identity {
	var payload struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := c.getJSON(ctx, c.profileURL, accessToken, &payload); err != nil {
		logProfileFailure(c.id, err)
		return nil
	}
	if payload.Sub == "" {
		return nil
	}

	return &Identity{
		ProviderUserID: payload.Sub,
		FullName:       payload.Name,
		Email:          payload.Email,
		EmailVerified:  payload.EmailVerified,
	}
}
