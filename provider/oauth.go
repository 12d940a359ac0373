package provider

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mailcadence/config"
)

// googleOAuthConfig builds the oauth2 client configuration for mailboxes
// connected through Google. Token refresh mechanics live entirely inside the
// oauth2 package; this layer only turns refresh tokens into usable secrets.
func googleOAuthConfig(cfg config.OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"https://mail.google.com/"},
	}
}

// oauthPassword returns a passwordFunc backed by a reusable token source:
// the access token doubles as the SMTP/IMAP secret for XOAUTH2-capable
// providers. A refresh failure surfaces as expired credentials upstream.
func oauthPassword(conf *oauth2.Config, refreshToken string) passwordFunc {
	ts := oauth2.ReuseTokenSource(nil,
		conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: refreshToken}))

	return func(ctx context.Context) (string, error) {
		tok, err := ts.Token()
		if err != nil {
			return "", err
		}
		return tok.AccessToken, nil
	}
}

func staticPassword(secret string) passwordFunc {
	return func(context.Context) (string, error) {
		if secret == "" {
			return "", errors.New("no password stored for mailbox")
		}
		return secret, nil
	}
}
