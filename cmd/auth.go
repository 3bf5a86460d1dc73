package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/drivemig/internal/drive"
	"github.com/desertthunder/drivemig/internal/server"
	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs the OAuth2 authorization flow for one account.
//
// Starts a local HTTP server, opens the browser for user authorization,
// exchanges the auth code for tokens, and persists them for later commands.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	account := cmd.StringArg("account")

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	var accountConfig shared.AccountConfig
	switch account {
	case "source":
		accountConfig = r.config.Accounts.Source
	case "target":
		accountConfig = r.config.Accounts.Target
	default:
		return fmt.Errorf("%w: account must be 'source' or 'target'", shared.ErrInvalidArgument)
	}

	if r.config.Remote.ClientID == "" || r.config.Remote.ClientSecret == "" {
		return fmt.Errorf("%w: remote client_id and client_secret must be set in config.toml", shared.ErrInvalidConfig)
	}

	client, err := r.newService(accountConfig)
	if err != nil {
		return fmt.Errorf("failed to create drive client: %w", err)
	}

	token, err := r.doOAuth(ctx, client, accountConfig.AccountID)
	if err != nil {
		return err
	}

	if err := client.StoreToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	r.writePlainln("✓ Authorization successful for %s account '%s'", account, accountConfig.AccountID)
	r.writePlain("You can now run: drivemig plan\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server.
func (r *Runner) doOAuth(ctx context.Context, client *drive.Client, accountID string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := client.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(client.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	serverAddr, err := callbackAddr(r.config.Remote.RedirectURI)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", accountID, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser to authorize account '%s'...\n", accountID)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// callbackAddr derives the local listen address from the configured
// OAuth redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	if redirectURI == "" {
		return "localhost:8080", nil
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri has no host", shared.ErrInvalidConfig)
	}

	return parsed.Host, nil
}
