// HTTP implementation of [Service] against the drive REST API.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL  = "https://drive.example.com/api/v1"
	defaultPageSize = 100

	authURLPath  = "/oauth/authorize"
	tokenURLPath = "/oauth/token"
)

// remotePermission is the wire form of a permission grant.
type remotePermission struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`
}

// remoteEntry is the wire form of a file or folder.
type remoteEntry struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	ParentID    string             `json:"parentId"`
	Kind        string             `json:"kind"`
	CreatedTime time.Time          `json:"createdTime"`
	Notes       string             `json:"notes"`
	Permissions []remotePermission `json:"permissions"`
}

func (r remoteEntry) toModel() models.Entry {
	entry := models.Entry{
		ID:        r.ID,
		Name:      r.Name,
		ParentID:  r.ParentID,
		Kind:      models.Kind(r.Kind),
		CreatedAt: r.CreatedTime,
		Notes:     r.Notes,
	}
	for _, p := range r.Permissions {
		entry.Permissions = append(entry.Permissions, models.Permission{
			Principal: models.Principal(p.Principal),
			Role:      models.Role(p.Role),
		})
	}
	return entry
}

// remoteError is the wire form of an API error response.
type remoteError struct {
	Error struct {
		Code    int    `json:"code"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client implements the Service interface over the drive REST API.
// Uses [oauth2] for authentication, with token persistence across runs.
type Client struct {
	accountID  models.Principal
	baseURL    string
	config     *oauth2.Config
	token      *oauth2.Token
	tokenFile  string
	httpClient *http.Client
}

// NewClient creates a drive client for one account from the remote config.
func NewClient(cfg shared.RemoteConfig, accountID string) (*Client, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id", shared.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"drive.read", "drive.write", "drive.share"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  baseURL + authURLPath,
			TokenURL: baseURL + tokenURLPath,
		},
	}

	return &Client{
		accountID:  models.Principal(accountID),
		baseURL:    baseURL,
		config:     config,
		tokenFile:  cfg.TokenFile,
		httpClient: http.DefaultClient,
	}, nil
}

// Authenticate performs OAuth2 authentication with the drive API. Expects an
// "access_token" or "auth_code" in credentials, or falls back to a token
// persisted by a previous run.
func (c *Client) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		c.setToken(ctx, &oauth2.Token{AccessToken: accessToken})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := c.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		c.setToken(ctx, token)
		if err := c.saveToken(token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
		return nil
	}

	if token, err := c.loadToken(); err == nil {
		c.setToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

func (c *Client) setToken(ctx context.Context, token *oauth2.Token) {
	c.token = token
	c.httpClient = c.config.Client(ctx, token)
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	if c.tokenFile == "" {
		return nil, shared.ErrNotAuthenticated
	}

	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	if !token.Valid() && token.RefreshToken == "" {
		return nil, shared.ErrTokenExpired
	}

	return &token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	if c.tokenFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.tokenFile, data, 0600)
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (c *Client) GetAuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the OAuth2 configuration for the local callback server.
func (c *Client) OAuthConfig() *oauth2.Config {
	return c.config
}

// StoreToken installs a token obtained through the callback flow and
// persists it for subsequent runs.
func (c *Client) StoreToken(ctx context.Context, token *oauth2.Token) error {
	c.setToken(ctx, token)
	return c.saveToken(token)
}

// AccountID returns the principal this client acts as.
func (c *Client) AccountID() models.Principal {
	return c.accountID
}

// Name returns a short label for the account, used in logs.
func (c *Client) Name() string {
	return string(c.accountID)
}

// doRequest performs an authenticated request and maps error responses onto
// the remote error taxonomy.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if c.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// mapError translates an HTTP error response into a sentinel from the remote
// taxonomy. 429 and 5xx are transient; 403 is quota or permission depending
// on the reason field; 404 is not found.
func (c *Client) mapError(resp *http.Response) error {
	var remote remoteError
	reason := ""
	message := fmt.Sprintf("status %d", resp.StatusCode)

	if body, err := io.ReadAll(resp.Body); err == nil {
		if err := json.Unmarshal(body, &remote); err == nil && remote.Error.Message != "" {
			reason = remote.Error.Reason
			message = remote.Error.Message
		}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", shared.ErrRemoteTransient, message)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, message)
	case resp.StatusCode == http.StatusForbidden && (reason == "quotaExceeded" || reason == "storageQuotaExceeded"):
		return fmt.Errorf("%w: %s", shared.ErrRemoteQuotaExceeded, message)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrRemotePermissionDenied, message)
	default:
		return fmt.Errorf("drive API error: %s", message)
	}
}

// ListChildren retrieves one page of the direct children of a folder.
func (c *Client) ListChildren(ctx context.Context, parentID, pageToken string) (*EntryPage, error) {
	params := url.Values{}
	params.Set("parent", parentID)
	params.Set("pageSize", fmt.Sprintf("%d", defaultPageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var response struct {
		Entries       []remoteEntry `json:"entries"`
		NextPageToken string        `json:"nextPageToken"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/entries?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	page := &EntryPage{NextPageToken: response.NextPageToken}
	for _, re := range response.Entries {
		page.Entries = append(page.Entries, re.toModel())
	}

	return page, nil
}

// ListPermissions retrieves the permission set of an entry.
func (c *Client) ListPermissions(ctx context.Context, id string) ([]models.Permission, error) {
	var response struct {
		Permissions []remotePermission `json:"permissions"`
	}

	endpoint := fmt.Sprintf("/entries/%s/permissions", url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	permissions := make([]models.Permission, 0, len(response.Permissions))
	for _, p := range response.Permissions {
		permissions = append(permissions, models.Permission{
			Principal: models.Principal(p.Principal),
			Role:      models.Role(p.Role),
		})
	}

	return permissions, nil
}

// Get retrieves a single entry by id.
func (c *Client) Get(ctx context.Context, id string) (*models.Entry, error) {
	var re remoteEntry
	endpoint := fmt.Sprintf("/entries/%s", url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &re); err != nil {
		return nil, err
	}

	entry := re.toModel()
	return &entry, nil
}

// CreateCopy makes a server-side copy of a file under the given parent.
func (c *Client) CreateCopy(ctx context.Context, sourceID, targetParentID, name, notes string) (*models.Entry, error) {
	body := map[string]string{
		"name":     name,
		"parentId": targetParentID,
		"notes":    notes,
	}

	var re remoteEntry
	endpoint := fmt.Sprintf("/entries/%s/copy", url.PathEscape(sourceID))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &re); err != nil {
		return nil, err
	}

	entry := re.toModel()
	return &entry, nil
}

// CreateFolder creates a new folder under the given parent.
func (c *Client) CreateFolder(ctx context.Context, name, parentID, notes string) (*models.Entry, error) {
	body := map[string]string{
		"name":     name,
		"parentId": parentID,
		"kind":     string(models.KindFolder),
		"notes":    notes,
	}

	var re remoteEntry
	if err := c.doRequest(ctx, http.MethodPost, "/entries", body, &re); err != nil {
		return nil, err
	}

	entry := re.toModel()
	return &entry, nil
}

// SetPermission grants the principal the given role on an entry.
func (c *Client) SetPermission(ctx context.Context, id string, principal models.Principal, role models.Role) error {
	body := map[string]string{
		"principal": string(principal),
		"role":      string(role),
	}

	endpoint := fmt.Sprintf("/entries/%s/permissions", url.PathEscape(id))
	return c.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// Delete removes an entry.
func (c *Client) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("/entries/%s", url.PathEscape(id))
	return c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}
