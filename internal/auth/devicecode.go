// Package auth handles Microsoft identity authentication for Graph
// calendar access using the OAuth2 device code flow.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

const (
	// DefaultClientID is the application (client) ID registered for
	// this app in Entra ID.
	DefaultClientID = "d7b530a4-7680-4c23-a8bf-c52c121d2e87"

	// DefaultAuthority is the multi-tenant login endpoint.
	DefaultAuthority = "https://login.microsoftonline.com/common"
)

// Token is an access token with its expiry.
type Token struct {
	AccessToken string
	ExpiresOn   time.Time
}

// DeviceCodeAuth acquires tokens with the device code flow, caching
// them on disk so subsequent runs can refresh silently.
type DeviceCodeAuth struct {
	client public.Client
	scopes []string
}

// NewDeviceCodeAuth creates a device code authenticator. An empty
// clientID uses the default application registration.
func NewDeviceCodeAuth(clientID string, scopes []string) (*DeviceCodeAuth, error) {
	if clientID == "" {
		clientID = DefaultClientID
	}

	cachePath, err := tokenCachePath()
	if err != nil {
		return nil, fmt.Errorf("resolve token cache path: %w", err)
	}

	client, err := public.New(clientID,
		public.WithAuthority(DefaultAuthority),
		public.WithCache(&tokenCacheAccessor{path: cachePath}),
	)
	if err != nil {
		return nil, fmt.Errorf("create MSAL client: %w", err)
	}

	return &DeviceCodeAuth{
		client: client,
		scopes: scopes,
	}, nil
}

// GetToken returns a valid access token, refreshing silently from the
// cache when possible and falling back to the device code prompt.
func (a *DeviceCodeAuth) GetToken(ctx context.Context) (*Token, error) {
	accounts, err := a.client.Accounts(ctx)
	if err == nil && len(accounts) > 0 {
		result, err := a.client.AcquireTokenSilent(ctx, a.scopes, public.WithSilentAccount(accounts[0]))
		if err == nil {
			return &Token{
				AccessToken: result.AccessToken,
				ExpiresOn:   result.ExpiresOn,
			}, nil
		}
		slog.Debug("silent token acquisition failed, falling back to device code", "error", err)
	}

	code, err := a.client.AcquireTokenByDeviceCode(ctx, a.scopes)
	if err != nil {
		return nil, fmt.Errorf("start device code flow: %w", err)
	}

	// The user has to complete this step in a browser.
	fmt.Fprintln(os.Stderr, code.Result.Message)

	result, err := code.AuthenticationResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("complete device code flow: %w", err)
	}

	return &Token{
		AccessToken: result.AccessToken,
		ExpiresOn:   result.ExpiresOn,
	}, nil
}

// Close releases resources. The MSAL client has nothing to close but
// the method keeps the authenticator swappable.
func (a *DeviceCodeAuth) Close() error {
	return nil
}

// tokenCachePath returns the on-disk token cache location.
func tokenCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "eventually")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "msal_token_cache.json"), nil
}

// tokenCacheAccessor persists the MSAL token cache to a file.
type tokenCacheAccessor struct {
	path string
}

func (c *tokenCacheAccessor) Replace(ctx context.Context, unmarshaler cache.Unmarshaler, hints cache.ReplaceHints) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return unmarshaler.Unmarshal(data)
}

func (c *tokenCacheAccessor) Export(ctx context.Context, marshaler cache.Marshaler, hints cache.ExportHints) error {
	data, err := marshaler.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}
