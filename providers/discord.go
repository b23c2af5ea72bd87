package providers

import (
	"context"

	"golang.org/x/oauth2/endpoints"
)

const discordProfileURL = "https://discord.com/api/users/@me"

// Discord requires a form-encoded token exchange and exposes the profile on
// a single endpoint, email included.
func discordSettings() settings {
	return settings{
		id:         "discord",
		endpoint:   endpoints.Discord,
		scopes:     []string{"identify", "email"},
		encoding:   encodeForm,
		profileURL: discordProfileURL,
		resolve:    resolveDiscordProfile,
	}
}

func resolveDiscordProfile(ctx context.Context, c *client, accessToken string) *Identity {
	var payload struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
	}
	if err := c.getJSON(ctx, c.profileURL, accessToken, &payload); err != nil {
		logProfileFailure(c.id, err)
		return nil
	}
	if payload.ID == "" {
		return nil
	}

	name := payload.GlobalName
	if name == "" {
		name = payload.Username
	}

	return &Identity{
		ProviderUserID: payload.ID,
		FullName:       name,
		Email:          payload.Email,
		EmailVerified:  payload.Verified,
	}
}
