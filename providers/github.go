package providers

import (
	"context"
	"strconv"

	"golang.org/x/oauth2/endpoints"
)

const (
	githubProfileURL = "https://api.github.com/user"
	githubEmailsURL  = "https://api.github.com/user/emails"
)

// GitHub accepts a JSON token-exchange body and splits identity across two
// endpoints: the profile and a separate email list.
func githubSettings() settings {
	return settings{
		id:         "github",
		endpoint:   endpoints.GitHub,
		scopes:     []string{"read:user", "user:email"},
		encoding:   encodeJSON,
		profileURL: githubProfileURL,
		emailsURL:  githubEmailsURL,
		resolve:    resolveGitHubProfile,
	}
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// resolveGitHubProfile issues the profile and email calls concurrently and
// selects the verified primary email. Without a primary the email is left
// empty rather than guessed.
func resolveGitHubProfile(ctx context.Context, c *client, accessToken string) *Identity {
	type profileResult struct {
		payload struct {
			ID    int64  `json:"id"`
			Login string `json:"login"`
			Name  string `json:"name"`
		}
		err error
	}
	type emailsResult struct {
		payload []githubEmail
		err     error
	}

	profileCh := make(chan profileResult, 1)
	emailsCh := make(chan emailsResult, 1)

	go func() {
		var res profileResult
		res.err = c.getJSON(ctx, c.profileURL, accessToken, &res.payload)
		profileCh <- res
	}()
	go func() {
		var res emailsResult
		res.err = c.getJSON(ctx, c.emailsURL, accessToken, &res.payload)
		emailsCh <- res
	}()

	profile := <-profileCh
	emails := <-emailsCh

	if profile.err != nil {
		logProfileFailure(c.id, profile.err)
		return nil
	}
	if profile.payload.ID == 0 {
		return nil
	}

	identity := &Identity{
		ProviderUserID: strconv.FormatInt(profile.payload.ID, 10),
		FullName:       profile.payload.Name,
	}
	if identity.FullName == "" {
		identity.FullName = profile.payload.Login
	}

	// The email call failing is not fatal: the account simply signs in
	// without a usable email.
	if emails.err != nil {
		logProfileFailure(c.id, emails.err)
		return identity
	}
	for _, e := range emails.payload {
		if e.Primary && e.Verified {
			identity.Email = e.Email
			identity.EmailVerified = true
			break
		}
	}
	return identity
}
