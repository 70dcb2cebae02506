package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/sp2yt/internal/server"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/ui"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// browserOpener launches the consent page; replaced in tests.
var browserOpener = shared.OpenBrowser

// AuthSpotify performs OAuth2 authentication flow for Spotify.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if r.spotify == nil || !creds.HasClient() {
		return fmt.Errorf("%w: credentials.spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}
	return r.authorize(ctx, "spotify", r.spotify, creds.RedirectURI, cmd.Duration("timeout"))
}

// AuthYouTube performs OAuth2 authentication flow for YouTube.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.YouTube
	if r.youtube == nil || !creds.HasClient() {
		return fmt.Errorf("%w: credentials.youtube client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}
	return r.authorize(ctx, "youtube", r.youtube, creds.RedirectURI, cmd.Duration("timeout"))
}

// authorize runs the authorization code flow: it serves the redirect URI's path on the configured
// callback address, opens the consent page and saves the exchanged token.
func (r *Runner) authorize(ctx context.Context, provider string, auth services.Authenticator, redirectURI string, timeout time.Duration) error {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(auth, auth.Name(), u.Path, state)
	srv, err := server.StartCallbackServer(r.config.Server.Addr(), handler, shared.WithLogger(r.logger, "provider", provider))
	if err != nil {
		return err
	}

	authURL := auth.AuthURL(state)
	r.writePlain("→ Opening browser for %s authorization...\n", auth.Name())
	if err := browserOpener(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("%s", ui.Warn("⚠ Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = authTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	tok, err := srv.Wait(ctx, timeout)
	if err != nil {
		return err
	}
	if err := r.saveTokens(provider, tok); err != nil {
		return err
	}

	r.writePlainln("%s", ui.Success("✓ Authorization successful"))
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	}
	return nil
}
