// Package dm is a client for a hub → project → folder → file document
// repository exposing the Autodesk Data Management API shape.
package dm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/locator"
	"github.com/docseek/docseek/internal/logger"
)

// DefaultBaseURL is the public Autodesk Platform Services endpoint.
const DefaultBaseURL = "https://developer.api.autodesk.com"

const (
	maxErrorBody = 4096
	maxPages     = 500
)

// Config holds client configuration.
type Config struct {
	BaseURL string

	// RateLimit is the sustained request rate per second. Zero disables limiting.
	RateLimit float64
	Burst     int

	// Timeout bounds a single HTTP request. Zero means 30s.
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the repository. Credentials are passed per call and never stored.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a repository client.
func NewClient(c Config, log *zap.Logger) *Client {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := c.HTTPClient
	if hc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	var lim *rate.Limiter
	if c.RateLimit > 0 {
		burst := c.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(c.RateLimit), burst)
	}
	return &Client{
		baseURL:    base,
		httpClient: hc,
		limiter:    lim,
		logger:     logger.OrNop(log),
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// ListHubs lists the hubs visible to the credential.
func (c *Client) ListHubs(ctx context.Context, cred string) ([]Node, error) {
	var out []Node
	err := c.paginate(ctx, cred, "/project/v1/hubs", func(l listing) {
		out = append(out, hubNodes(l)...)
	})
	if err != nil {
		return nil, fmt.Errorf("listing hubs: %w", err)
	}
	return out, nil
}

// ListProjects lists the projects of a hub.
func (c *Client) ListProjects(ctx context.Context, cred, hubID string) ([]Node, error) {
	var out []Node
	path := "/project/v1/hubs/" + url.PathEscape(hubID) + "/projects"
	err := c.paginate(ctx, cred, path, func(l listing) {
		out = append(out, projectNodes(l, hubID)...)
	})
	if err != nil {
		return nil, fmt.Errorf("listing projects of hub %s: %w", hubID, err)
	}
	return out, nil
}

// ListFolderContents lists the folders and files directly inside a folder.
func (c *Client) ListFolderContents(ctx context.Context, cred, projectID, folderID string) ([]Node, error) {
	var out []Node
	path := "/data/v1/projects/" + url.PathEscape(projectID) + "/folders/" + url.PathEscape(folderID) + "/contents"
	err := c.paginate(ctx, cred, path, func(l listing) {
		out = append(out, contentNodes(l, folderID)...)
	})
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", folderID, err)
	}
	return out, nil
}

// SignedDownloadURL exchanges a storage locator for a time-limited download URL.
func (c *Client) SignedDownloadURL(ctx context.Context, cred string, loc locator.Locator) (string, error) {
	if loc.ContainerKey == "" || loc.ObjectKey == "" {
		return "", fmt.Errorf("%w: empty container or object key", apperr.ErrMalformedLocator)
	}
	var body signedDownload
	path := "/" + locator.DefaultPrefix + "/" + loc.Path() + "/signeds3download"
	if err := c.getJSON(ctx, cred, c.baseURL+path, &body); err != nil {
		return "", fmt.Errorf("signing %s: %w", loc, err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("signing %s: %w", loc, apperr.ErrSignedURLMissing)
	}
	return body.URL, nil
}

// paginate follows links.next until exhausted.
func (c *Client) paginate(ctx context.Context, cred, path string, page func(listing)) error {
	next := c.baseURL + path
	seen := map[string]bool{}
	for n := 0; next != ""; n++ {
		if n >= maxPages || seen[next] {
			return fmt.Errorf("pagination did not terminate at %s", next)
		}
		seen[next] = true

		var l listing
		if err := c.getJSON(ctx, cred, next, &l); err != nil {
			return err
		}
		page(l)
		next = l.nextHref()
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, cred, target string, out any) error {
	if cred == "" {
		return fmt.Errorf("%w: no access token", apperr.ErrAuthenticationExpired)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred)
	req.Header.Set("Accept", "application/vnd.api+json, application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("repository request",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperr.FromStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
